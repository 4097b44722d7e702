//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"fashion-ai/internal/domain/entity"
)

// Prepare декодирует изображение через OpenCV, заливает прозрачные области
// белым, уменьшает и перекодирует в JPEG.
func (p *Preprocessor) Prepare(ctx context.Context, data []byte) (*entity.PreparedImage, error) {
	if len(data) == 0 {
		return nil, entity.ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil || mat.Empty() {
		if err == nil {
			mat.Close()
		}
		return nil, fmt.Errorf("%w: failed to decode image", entity.ErrInvalidImage)
	}
	defer mat.Close()

	flattenAlpha(data, &mat)

	if err := p.checkSize(mat.Cols(), mat.Rows()); err != nil {
		return nil, err
	}

	out := mat
	if w, h := p.fitSize(mat.Cols(), mat.Rows()); w != mat.Cols() || h != mat.Rows() {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(mat, &resized, image.Pt(w, h), 0, 0, gocv.InterpolationArea)
		out = resized
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, out, []int{gocv.IMWriteJpegQuality, jpegQuality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	encoded := make([]byte, buf.Len())
	copy(encoded, buf.GetBytes())

	return &entity.PreparedImage{
		Data:        encoded,
		ContentType: "image/jpeg",
		Width:       out.Cols(),
		Height:      out.Rows(),
	}, nil
}

// flattenAlpha накладывает BGR-изображение на белый фон по альфа-каналу
// исходника. Без альфа-канала bgr не меняется.
func flattenAlpha(data []byte, bgr *gocv.Mat) {
	raw, err := gocv.IMDecode(data, gocv.IMReadUnchanged)
	if err != nil {
		return
	}
	defer raw.Close()
	if raw.Channels() != 4 || raw.Rows() != bgr.Rows() || raw.Cols() != bgr.Cols() {
		return
	}

	planes := gocv.Split(raw)
	defer func() {
		for _, m := range planes {
			m.Close()
		}
	}()

	scale := float32(1.0 / 255)
	if planes[3].Type() == gocv.MatTypeCV16UC1 {
		scale = 1.0 / 65535
	}
	alpha := gocv.NewMat()
	defer alpha.Close()
	planes[3].ConvertToWithParams(&alpha, gocv.MatTypeCV32FC1, scale, 0)

	alpha3 := gocv.NewMat()
	defer alpha3.Close()
	gocv.Merge([]gocv.Mat{alpha, alpha, alpha}, &alpha3)

	color := gocv.NewMat()
	defer color.Close()
	bgr.ConvertTo(&color, gocv.MatTypeCV32FC3)

	white := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), bgr.Rows(), bgr.Cols(), gocv.MatTypeCV32FC3)
	defer white.Close()

	// out = white + (color - white) * alpha
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.Subtract(color, white, &diff)
	gocv.Multiply(diff, alpha3, &diff)
	gocv.Add(diff, white, &color)

	color.ConvertTo(bgr, gocv.MatTypeCV8UC3)
}
