package server

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/chaos-io/toolbox/util"
)

var (
	ErrBadResultID    = errors.New("malformed result id")
	ErrResultNotFound = errors.New("result not found")
)

// Store 把结果 PNG 存成 <output>/<ksuid>.png
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Save(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := util.EncodePNG(&buf, img); err != nil {
		return "", err
	}
	return s.SaveBytes(buf.Bytes())
}

// SaveBytes 保存已编码好的 PNG，返回新的结果 id
func (s *Store) SaveBytes(data []byte) (string, error) {
	id := ksuid.New().String()
	if err := os.WriteFile(s.path(id), data, 0o644); err != nil {
		return "", fmt.Errorf("write result %s: %w", id, err)
	}
	return id, nil
}

// Path 校验 id 后返回文件路径，id 必须是合法 ksuid，避免路径穿越
func (s *Store) Path(id string) (string, error) {
	if !isKSUID(id) {
		return "", fmt.Errorf("%w: %q", ErrBadResultID, id)
	}
	path := s.path(id)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrResultNotFound, id)
		}
		return "", err
	}
	return path, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".png")
}

// Purge 删除修改时间早于 before 的结果，返回删除数量
func (s *Store) Purge(before time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read output dir: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(before) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return removed, fmt.Errorf("remove %s: %w", e.Name(), err)
			}
			removed++
		}
	}
	return removed, nil
}

// isKSUID ksuid.Parse 只校验长度，这里再要求编码回去完全一致，排除非 base62 字符
func isKSUID(s string) bool {
	id, err := ksuid.Parse(s)
	return err == nil && id.String() == s
}
