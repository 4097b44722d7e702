package port

import (
	"context"

	"fashion-ai/internal/domain/entity"
)

// ImagePreprocessor приводит загруженное изображение к виду, который принимает модель
type ImagePreprocessor interface {
	// Prepare декодирует, переводит в RGB и ограничивает размер изображения
	Prepare(ctx context.Context, data []byte) (*entity.PreparedImage, error)
}
