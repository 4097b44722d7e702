//go:build !gocv
// +build !gocv

package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"fashion-ai/internal/domain/entity"
)

// Prepare декодирует изображение (JPEG, PNG, GIF, BMP, TIFF, WebP), убирает альфа-канал и перекодирует в JPEG.
func (p *Preprocessor) Prepare(ctx context.Context, data []byte) (*entity.PreparedImage, error) {
	if len(data) == 0 {
		return nil, entity.ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	if err := p.checkSize(bounds.Dx(), bounds.Dy()); err != nil {
		return nil, err
	}

	// Прозрачные области заливаем белым, как фон студийной съёмки
	rgb := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	rgb = imaging.Overlay(rgb, img, image.Pt(0, 0), 1.0)

	if w, h := p.fitSize(bounds.Dx(), bounds.Dy()); w != bounds.Dx() || h != bounds.Dy() {
		rgb = imaging.Resize(rgb, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, rgb, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return &entity.PreparedImage{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       rgb.Bounds().Dx(),
		Height:      rgb.Bounds().Dy(),
	}, nil
}
