// Package config 读取服务配置：默认值 -> YAML 文件 -> 环境变量。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chaos-io/toolbox/chromakey"
)

type Config struct {
	Server    Server    `yaml:"server"`
	Output    Output    `yaml:"output"`
	ChromaKey ChromaKey `yaml:"chromakey"`
	Remote    Remote    `yaml:"remote"`
	Log       Log       `yaml:"log"`
}

type Server struct {
	Addr string `yaml:"addr"`
	// MaxUploadBytes 上传图片大小上限
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

type Output struct {
	Dir string        `yaml:"dir"`
	TTL time.Duration `yaml:"ttl"`
	// Cleanup cron 表达式，例如 "@every 10m"
	Cleanup string `yaml:"cleanup"`
}

// ChromaKey 请求里没有指定 key/tolerance 时使用的默认值
type ChromaKey struct {
	Key       string  `yaml:"key"`
	Tolerance float64 `yaml:"tolerance"`
}

type Remote struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Server: Server{
			Addr:           ":8080",
			MaxUploadBytes: 32 << 20,
		},
		Output: Output{
			Dir:     "./output",
			TTL:     time.Hour,
			Cleanup: "@every 10m",
		},
		ChromaKey: ChromaKey{
			Key:       "#ffffff",
			Tolerance: 30,
		},
		Remote: Remote{
			Timeout: 60 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load path 为空时只用默认值和环境变量
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TOOLBOX_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TOOLBOX_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("TOOLBOX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output.dir is empty"))
	}
	if c.Output.TTL <= 0 {
		errs = append(errs, errors.New("output.ttl must be positive"))
	}
	if _, err := chromakey.ParseColor(c.ChromaKey.Key); err != nil {
		errs = append(errs, fmt.Errorf("chromakey.key: %w", err))
	}
	if c.ChromaKey.Tolerance < 0 {
		errs = append(errs, errors.New("chromakey.tolerance must not be negative"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DefaultKey 已经过 Validate，解析不会失败
func (c *Config) DefaultKey() chromakey.Color {
	key, err := chromakey.ParseColor(c.ChromaKey.Key)
	if err != nil {
		return chromakey.White
	}
	return key
}

func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger 按配置构造 slog.Logger，format 为 json 时输出 JSON
func (l Log) NewLogger() *slog.Logger {
	level, err := l.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
