package vision

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"fashion-ai/internal/domain/entity"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPreprocessor_ResizesAndEncodesJPEG(t *testing.T) {
	p := NewPreprocessor(256, 16)
	data := encodePNG(t, 600, 300, color.NRGBA{R: 200, A: 255})

	out, err := p.Prepare(context.Background(), data)
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", out.ContentType)
	require.Equal(t, 256, out.Width)
	require.Equal(t, 128, out.Height)

	decoded, err := jpeg.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	require.Equal(t, 256, decoded.Bounds().Dx())
}

func TestPreprocessor_KeepsSmallImages(t *testing.T) {
	p := NewPreprocessor(1024, 16)
	out, err := p.Prepare(context.Background(), encodePNG(t, 40, 30, color.White))
	require.NoError(t, err)
	require.Equal(t, 40, out.Width)
	require.Equal(t, 30, out.Height)
}

func TestPreprocessor_FlattensTransparency(t *testing.T) {
	p := NewPreprocessor(1024, 1)
	out, err := p.Prepare(context.Background(), encodePNG(t, 32, 32, color.NRGBA{}))
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	r, g, b, _ := decoded.At(16, 16).RGBA()
	// прозрачный пиксель становится белым
	require.Greater(t, r>>8, uint32(240))
	require.Greater(t, g>>8, uint32(240))
	require.Greater(t, b>>8, uint32(240))
}

func TestPreprocessor_Rejects(t *testing.T) {
	p := NewPreprocessor(1024, 16)
	ctx := context.Background()

	_, err := p.Prepare(ctx, nil)
	require.ErrorIs(t, err, entity.ErrEmptyImage)

	_, err = p.Prepare(ctx, []byte("definitely not an image"))
	require.ErrorIs(t, err, entity.ErrInvalidImage)

	_, err = p.Prepare(ctx, encodePNG(t, 8, 8, color.Black))
	require.ErrorIs(t, err, entity.ErrInvalidImage)
}

func TestPreprocessor_FitSize(t *testing.T) {
	p := NewPreprocessor(100, 1)

	w, h := p.fitSize(50, 80)
	require.Equal(t, 50, w)
	require.Equal(t, 80, h)

	w, h = p.fitSize(1000, 1)
	require.Equal(t, 100, w)
	require.Equal(t, 1, h)
}
