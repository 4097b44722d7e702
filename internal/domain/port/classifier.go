package port

import (
	"context"

	"fashion-ai/internal/domain/entity"
)

// ZeroShotClassifier оценивает произвольные метки относительно текста
type ZeroShotClassifier interface {
	// Classify оценивает каждую метку независимо (multi-label)
	Classify(ctx context.Context, text string, labels []string) (*entity.Classification, error)
}
