package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"fashion-ai/internal/domain/entity"
	"fashion-ai/internal/domain/port"
)

var (
	errNoCaptioner  = errors.New("captioner is not configured")
	errNoClassifier = errors.New("classifier is not configured")
)

// PredictionService описывает изображение и раскладывает описание на атрибуты одежды.
type PredictionService struct {
	preprocessor port.ImagePreprocessor
	captioner    port.Captioner
	classifier   port.ZeroShotClassifier
	taxonomy     *entity.Taxonomy
	concurrency  int
	logger       logrus.FieldLogger
}

// NewPredictionService создаёт сервис. preprocessor может быть nil, тогда
// изображение уходит в модель как есть.
func NewPredictionService(
	preprocessor port.ImagePreprocessor,
	captioner port.Captioner,
	classifier port.ZeroShotClassifier,
	taxonomy *entity.Taxonomy,
	concurrency int,
	logger logrus.FieldLogger,
) *PredictionService {
	if taxonomy == nil {
		taxonomy = entity.DefaultTaxonomy()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &PredictionService{
		preprocessor: preprocessor,
		captioner:    captioner,
		classifier:   classifier,
		taxonomy:     taxonomy,
		concurrency:  concurrency,
		logger:       logger,
	}
}

// Taxonomy возвращает активный набор категорий
func (s *PredictionService) Taxonomy() *entity.Taxonomy {
	return s.taxonomy
}

// Predict строит описание изображения и извлекает из него атрибуты.
func (s *PredictionService) Predict(ctx context.Context, image []byte) (*entity.Prediction, error) {
	if len(image) == 0 {
		return nil, entity.ErrEmptyImage
	}
	if s.captioner == nil {
		return nil, errNoCaptioner
	}

	started := time.Now()
	data := image
	if s.preprocessor != nil {
		prepared, err := s.preprocessor.Prepare(ctx, image)
		if err != nil {
			return nil, err
		}
		data = prepared.Data
		s.logger.WithFields(logrus.Fields{
			"bytes":  len(image),
			"width":  prepared.Width,
			"height": prepared.Height,
		}).Debug("image prepared")
	}

	caption, err := s.captioner.Caption(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("caption image: %w", err)
	}
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return nil, entity.ErrEmptyCaption
	}

	attrs, err := s.Classify(ctx, caption)
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{
		"caption":  caption,
		"duration": time.Since(started).String(),
	}
	if kind, ok := attrs.Get(entity.CategoryType); ok && !kind.IsUnknown() {
		fields["type"] = kind.String()
	}
	s.logger.WithFields(fields).Info("prediction done")

	return &entity.Prediction{Caption: caption, Attributes: attrs}, nil
}

// Classify запускает zero-shot классификацию текста по каждой категории
// и применяет к результату правило категории. Порядок результата совпадает
// с порядком таксономии.
func (s *PredictionService) Classify(ctx context.Context, text string) (entity.Attributes, error) {
	if s.classifier == nil {
		return nil, errNoClassifier
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, entity.ErrEmptyCaption
	}

	categories := s.taxonomy.Categories
	attrs := make(entity.Attributes, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, category := range categories {
		i, category := i, category
		g.Go(func() error {
			result, err := s.classifier.Classify(gctx, text, category.Labels)
			if err != nil {
				return fmt.Errorf("classify %s: %w", category.Name, err)
			}
			attrs[i] = category.Rule.Select(category.Name, result)

			s.logger.WithFields(logrus.Fields{
				"category": category.Name,
				"values":   attrs[i].Values,
			}).Debug("category classified")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return attrs, nil
}
