// Package rembg 定义背景去除的统一接口。
package rembg

import (
	"context"
	"image"
)

type Remover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// Nop 原样返回输入
type Nop struct{}

func NewNop() *Nop {
	return &Nop{}
}

func (n *Nop) Remove(_ context.Context, img image.Image) (image.Image, error) {
	return img, nil
}
