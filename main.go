// toolbox 色键抠图工具箱
//
// Usage:
//
//	toolbox apply [options] <input.png|url>
//	toolbox serve [-config config.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/chaos-io/toolbox/chromakey"
	"github.com/chaos-io/toolbox/config"
	"github.com/chaos-io/toolbox/rembg"
	"github.com/chaos-io/toolbox/server"
	"github.com/chaos-io/toolbox/tools"
	"github.com/chaos-io/toolbox/util"
	nhttp "github.com/chaos-io/toolbox/util/http"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "apply":
		err = runApply(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`toolbox - chroma key background removal

Usage:
  toolbox apply [options] <input.png|url>
  toolbox serve [-config config.yaml]

Apply options:
  -mode <m>        background, signature, preview or remote (default: background)
  -key <color>     key color, e.g. #ffffff or 255,255,255
  -sample <x,y>    pick the key color from this pixel
  -tolerance <t>   background: 0-255; signature: 0-100 percent; preview: 0-100 percent of max distance
  -checker         preview: composite the result over a checkerboard
  -endpoint <url>  remote remover endpoint (mode=remote)
  -o <file>        output PNG (default: <input>_keyed.png)

Examples:
  toolbox apply -tolerance 20 photo.png
  toolbox apply -mode signature -tolerance 15 -o sign.png scan.jpg
  toolbox serve -config config.yaml
`)
}

type applyOptions struct {
	mode      string
	key       string
	sample    string
	tolerance float64
	checker   bool
	endpoint  string
	output    string
	input     string

	// toleranceSet 命令行是否显式传了 -tolerance
	toleranceSet bool
}

func runApply(args []string) error {
	var opts applyOptions
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.StringVar(&opts.mode, "mode", tools.ModeBackground, "")
	fs.StringVar(&opts.key, "key", "", "")
	fs.StringVar(&opts.sample, "sample", "", "")
	fs.Float64Var(&opts.tolerance, "tolerance", 0, "")
	fs.BoolVar(&opts.checker, "checker", false, "")
	fs.StringVar(&opts.endpoint, "endpoint", "", "")
	fs.StringVar(&opts.output, "o", "", "")
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "tolerance" {
			opts.toleranceSet = true
		}
	})
	if fs.NArg() != 1 {
		return errors.New("apply needs exactly one input")
	}
	opts.input = fs.Arg(0)
	if opts.output == "" {
		base := filepath.Base(opts.input)
		opts.output = strings.TrimSuffix(base, filepath.Ext(base)) + "_keyed.png"
	}

	slog.SetDefault(config.Log{Level: "info"}.NewLogger())
	defer util.Trace("apply " + opts.input)()

	ctx := context.Background()
	var img image.Image
	var err error
	if strings.HasPrefix(opts.input, "http://") || strings.HasPrefix(opts.input, "https://") {
		img, err = util.DownloadImage(ctx, nhttp.NewHTTPClient(), opts.input)
	} else {
		img, err = util.OpenImage(opts.input)
	}
	if err != nil {
		return fmt.Errorf("load image: %w", err)
	}

	remover, err := newRemover(opts, img)
	if err != nil {
		return err
	}
	out, err := remover.Remove(ctx, img)
	if err != nil {
		return fmt.Errorf("remove background: %w", err)
	}
	if err := util.SavePNG(opts.output, out); err != nil {
		return err
	}

	slog.Info("done", "output", opts.output, "mode", opts.mode)
	return nil
}

func newRemover(opts applyOptions, img image.Image) (rembg.Remover, error) {
	var key *chromakey.Color
	switch {
	case opts.key != "":
		c, err := chromakey.ParseColor(opts.key)
		if err != nil {
			return nil, err
		}
		key = &c
	case opts.sample != "":
		xs, ys, ok := strings.Cut(opts.sample, ",")
		x, errX := strconv.Atoi(strings.TrimSpace(xs))
		y, errY := strconv.Atoi(strings.TrimSpace(ys))
		if !ok || errX != nil || errY != nil {
			return nil, fmt.Errorf("invalid sample point %q", opts.sample)
		}
		c, err := chromakey.SampleColor(img, img.Bounds().Min.X+x, img.Bounds().Min.Y+y)
		if err != nil {
			return nil, err
		}
		key = &c
	}

	if opts.mode == server.ModeRemote {
		if opts.endpoint == "" {
			return nil, errors.New("mode remote needs -endpoint")
		}
		return rembg.NewRemote(opts.endpoint, nil), nil
	}

	// 未指定时传 -1，由各工具使用默认容差
	tolerance := -1.0
	if opts.toleranceSet {
		if opts.tolerance < 0 {
			return nil, fmt.Errorf("tolerance %v must not be negative", opts.tolerance)
		}
		tolerance = opts.tolerance
	}
	r, err := tools.ForMode(opts.mode, key, tolerance)
	if err != nil {
		return nil, err
	}
	if p, ok := r.(*tools.Previewer); ok && opts.checker {
		p.Checker = tools.DefaultCheckerCell
	}
	return r, nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "")
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	slog.SetDefault(cfg.Log.NewLogger())
	gin.SetMode(gin.ReleaseMode)

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
