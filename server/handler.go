package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chaos-io/toolbox/chromakey"
	"github.com/chaos-io/toolbox/rembg"
	"github.com/chaos-io/toolbox/tools"
	"github.com/chaos-io/toolbox/util"
)

const (
	// ModeRemote 交给远端抠图服务，其余 mode 见 tools.ForMode
	ModeRemote = "remote"

	resultIDHeader = "X-Result-ID"
)

// errBadInput 表单参数错误，统一映射为 400
var errBadInput = errors.New("bad input")

// keyForm 请求里和色键相关的参数
type keyForm struct {
	Mode      string `form:"mode"`
	Key       string `form:"key"`
	Sample    string `form:"sample"`
	Tolerance string `form:"tolerance"`
	// Checker 仅 preview 模式有效，结果叠加到棋盘格上
	Checker bool `form:"checker"`
}

func (s *Server) chromaKey(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Server.MaxUploadBytes)

	var form keyForm
	if err := c.ShouldBind(&form); err != nil {
		s.fail(c, fmt.Errorf("%w: %w", errBadInput, err))
		return
	}
	if form.Mode == "" {
		form.Mode = tools.ModeBackground
	}

	img, err := readUpload(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	remover, err := s.remover(form, img)
	if err != nil {
		s.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	if form.Mode == ModeRemote {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Remote.Timeout)
		defer cancel()
	}

	out, err := remover.Remove(ctx, img)
	if err != nil {
		s.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := util.EncodePNG(&buf, out); err != nil {
		s.fail(c, err)
		return
	}
	// 响应和落盘共用同一份编码结果
	id, err := s.store.SaveBytes(buf.Bytes())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header(resultIDHeader, id)
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) result(c *gin.Context) {
	path, err := s.store.Path(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Type", "image/png")
	c.File(path)
}

func readUpload(c *gin.Context) (image.Image, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("%w: image file: %w", errBadInput, err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	img, err := util.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadInput, err)
	}
	return img, nil
}

// remover 按 mode 选择调用方，请求未指定时使用配置里的默认 key/tolerance
func (s *Server) remover(form keyForm, img image.Image) (rembg.Remover, error) {
	key, hasKey, err := s.resolveKey(form, img)
	if err != nil {
		return nil, err
	}
	tolerance, err := parseTolerance(form.Tolerance)
	if err != nil {
		return nil, err
	}

	switch form.Mode {
	case ModeRemote:
		if s.remote == nil {
			return nil, fmt.Errorf("%w: remote remover is not configured", errBadInput)
		}
		return s.remote, nil
	case tools.ModeBackground:
		if tolerance < 0 {
			tolerance = s.cfg.ChromaKey.Tolerance
		}
	default:
		if !hasKey {
			key, hasKey = s.cfg.DefaultKey(), true
		}
	}

	var keyPtr *chromakey.Color
	if hasKey {
		keyPtr = &key
	}
	r, err := tools.ForMode(form.Mode, keyPtr, tolerance)
	if err != nil {
		return nil, err
	}
	if p, ok := r.(*tools.Previewer); ok && form.Checker {
		p.Checker = tools.DefaultCheckerCell
	}
	return r, nil
}

// resolveKey key 优先，其次按 sample 坐标取色
func (s *Server) resolveKey(form keyForm, img image.Image) (chromakey.Color, bool, error) {
	if form.Key != "" {
		key, err := chromakey.ParseColor(form.Key)
		if err != nil {
			return chromakey.Color{}, false, fmt.Errorf("%w: %w", errBadInput, err)
		}
		return key, true, nil
	}
	if form.Sample != "" {
		x, y, err := parsePoint(form.Sample)
		if err != nil {
			return chromakey.Color{}, false, err
		}
		b := img.Bounds()
		key, err := chromakey.SampleColor(img, b.Min.X+x, b.Min.Y+y)
		if err != nil {
			return chromakey.Color{}, false, fmt.Errorf("%w: %w", errBadInput, err)
		}
		return key, true, nil
	}
	return chromakey.Color{}, false, nil
}

func parsePoint(s string) (int, int, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("%w: sample %q: want x,y", errBadInput, s)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(xs))
	y, errY := strconv.Atoi(strings.TrimSpace(ys))
	if err := errors.Join(errX, errY); err != nil {
		return 0, 0, fmt.Errorf("%w: sample %q: %w", errBadInput, s, err)
	}
	return x, y, nil
}

// parseTolerance 未指定时返回 -1
func parseTolerance(s string) (float64, error) {
	if s == "" {
		return -1, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: tolerance %q must be a non-negative number", errBadInput, s)
	}
	return v, nil
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusOf(err), gin.H{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadInput),
		errors.Is(err, tools.ErrUnknownMode),
		errors.Is(err, chromakey.ErrInvalidDimensions),
		errors.Is(err, chromakey.ErrInvalidColorChannel),
		errors.Is(err, ErrBadResultID):
		return http.StatusBadRequest
	case errors.Is(err, ErrResultNotFound):
		return http.StatusNotFound
	case errors.Is(err, tools.ErrEmptySignature):
		return http.StatusUnprocessableEntity
	case errors.Is(err, rembg.ErrRemote), errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
