package port

import "context"

// Captioner генерирует текстовое описание изображения
type Captioner interface {
	// Caption возвращает описание изображения на английском
	Caption(ctx context.Context, image []byte) (string, error)
}
