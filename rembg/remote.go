package rembg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"mime/multipart"

	"github.com/chaos-io/toolbox/util"
	nhttp "github.com/chaos-io/toolbox/util/http"
)

// ErrRemote 远端抠图服务失败
var ErrRemote = errors.New("remote remover failed")

// Remote 把图片以 multipart 上传到远端抠图服务，响应体是抠好的 PNG
/*
	curl -X POST "$ENDPOINT" \
	  -F "image=@my_image.png" \
	  -F "type=input" \
	  -F "overwrite=true" -o out.png
*/
type Remote struct {
	endpoint string
	cli      nhttp.IClient
}

func NewRemote(endpoint string, cli nhttp.IClient) *Remote {
	if cli == nil {
		cli = nhttp.NewHTTPClient()
	}
	return &Remote{endpoint: endpoint, cli: cli}
}

func (r *Remote) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	// image 文件字段
	part, err := writer.CreateFormFile("image", "image.png")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if err := util.EncodePNG(part, img); err != nil {
		return nil, err
	}

	// 其他字段
	_ = writer.WriteField("type", "input")
	_ = writer.WriteField("overwrite", "true")
	_ = writer.Close()

	var data []byte
	reqParam := &nhttp.RequestParam{
		RequestURI: r.endpoint,
		Method:     "POST",
		Header:     map[string]string{"Content-Type": writer.FormDataContentType()},
		Body:       body,
		Response:   &data,
	}
	if err := r.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemote, err)
	}

	slog.Debug("get the response", "endpoint", r.endpoint, "bytes", len(data))

	out, err := util.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemote, err)
	}
	return out, nil
}
