package tools

import (
	"errors"
	"fmt"

	"github.com/chaos-io/toolbox/chromakey"
	"github.com/chaos-io/toolbox/rembg"
)

const (
	ModeBackground = "background"
	ModeSignature  = "signature"
	ModePreview    = "preview"

	DefaultBackgroundTolerance = 30
	DefaultPreviewPercent      = 10
)

var ErrUnknownMode = errors.New("unknown mode")

// ForMode 按 mode 构造调用方。key 为 nil 时使用各工具的默认色键
// （背景去除取左上角颜色，其余为白色），tolerance < 0 时使用默认容差。
func ForMode(mode string, key *chromakey.Color, tolerance float64) (rembg.Remover, error) {
	switch mode {
	case ModeBackground:
		r := NewBackgroundRemover(key, DefaultBackgroundTolerance)
		if tolerance >= 0 {
			r.Tolerance = tolerance
		}
		return r, nil
	case ModeSignature:
		r := NewSignatureStripper()
		if key != nil {
			r.Key = *key
		}
		if tolerance >= 0 {
			r.TolerancePercent = tolerance
		}
		return r, nil
	case ModePreview:
		r := NewPreviewer(chromakey.White, DefaultPreviewPercent)
		if key != nil {
			r.Key = *key
		}
		if tolerance >= 0 {
			r.DistancePercent = tolerance
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownMode, mode)
	}
}
