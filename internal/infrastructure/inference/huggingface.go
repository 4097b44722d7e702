package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"fashion-ai/internal/domain/entity"
	"fashion-ai/internal/domain/port"
)

const backendHuggingFace = "huggingface"

// HuggingFaceConfig настройки клиента Inference API
type HuggingFaceConfig struct {
	URL             string
	Token           string
	CaptionModel    string
	ClassifierModel string
	Timeout         time.Duration
	Retry           RetryPolicy
}

// HuggingFace обращается к image-to-text и zero-shot-classification моделям
// через Hugging Face Inference API (или совместимый сервер).
type HuggingFace struct {
	client *resty.Client
	cfg    HuggingFaceConfig
	logger logrus.FieldLogger
}

type captionItem struct {
	GeneratedText string `json:"generated_text"`
}

type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
}

type zeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

// Классический формат пайплайна: параллельные массивы меток и оценок
type zeroShotResponse struct {
	Sequence string    `json:"sequence"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
}

// NewHuggingFace создаёт клиент. Соединения переиспользуются между запросами.
func NewHuggingFace(cfg HuggingFaceConfig, logger logrus.FieldLogger) *HuggingFace {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("x-wait-for-model", "true")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &HuggingFace{
		client: client,
		cfg:    cfg,
		logger: logger.WithField("backend", backendHuggingFace),
	}
}

// Caption отправляет изображение модели image-to-text
func (h *HuggingFace) Caption(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", entity.ErrEmptyImage
	}

	items, err := withRetry(ctx, h.cfg.Retry, h.logger, "caption", func() ([]captionItem, error) {
		resp, err := h.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/octet-stream").
			SetBody(image).
			Post(h.modelPath(h.cfg.CaptionModel))
		if err != nil {
			return nil, fmt.Errorf("send caption request: %w", err)
		}
		if resp.IsError() {
			return nil, &APIError{Backend: backendHuggingFace, StatusCode: resp.StatusCode(), Body: resp.String()}
		}

		var out []captionItem
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return nil, fmt.Errorf("decode caption response: %w", err)
		}
		return out, nil
	})
	if err != nil {
		return "", err
	}

	if len(items) == 0 {
		return "", entity.ErrEmptyCaption
	}
	caption := strings.TrimSpace(items[0].GeneratedText)
	h.logger.WithField("bytes", len(image)).Debugf("caption: %s", caption)

	return caption, nil
}

// Classify оценивает метки относительно текста в режиме multi-label
func (h *HuggingFace) Classify(ctx context.Context, text string, labels []string) (*entity.Classification, error) {
	if len(labels) == 0 {
		return &entity.Classification{Sequence: text}, nil
	}

	body := zeroShotRequest{
		Inputs: text,
		Parameters: zeroShotParameters{
			CandidateLabels: labels,
			MultiLabel:      true,
		},
	}

	return withRetry(ctx, h.cfg.Retry, h.logger, "classify", func() (*entity.Classification, error) {
		resp, err := h.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			Post(h.modelPath(h.cfg.ClassifierModel))
		if err != nil {
			return nil, fmt.Errorf("send classification request: %w", err)
		}
		if resp.IsError() {
			return nil, &APIError{Backend: backendHuggingFace, StatusCode: resp.StatusCode(), Body: resp.String()}
		}

		return decodeClassification(text, resp.Body())
	})
}

func (h *HuggingFace) modelPath(model string) string {
	return "/models/" + strings.Trim(model, "/")
}

// decodeClassification понимает оба формата ответа: объект с массивами
// labels/scores и список пар {label, score}.
func decodeClassification(text string, body []byte) (*entity.Classification, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var pairs []entity.LabelScore
		if err := json.Unmarshal(body, &pairs); err != nil {
			return nil, fmt.Errorf("decode classification response: %w", err)
		}
		c := &entity.Classification{Sequence: text, Scores: pairs}
		c.Scores = c.Sorted()
		return c, nil
	}

	var out zeroShotResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode classification response: %w", err)
	}
	if len(out.Labels) != len(out.Scores) {
		return nil, fmt.Errorf("classification response has %d labels and %d scores", len(out.Labels), len(out.Scores))
	}

	c := &entity.Classification{Sequence: out.Sequence, Scores: make([]entity.LabelScore, len(out.Labels))}
	for i, label := range out.Labels {
		c.Scores[i] = entity.LabelScore{Label: label, Score: out.Scores[i]}
	}
	if c.Sequence == "" {
		c.Sequence = text
	}
	c.Scores = c.Sorted()
	return c, nil
}

var (
	_ port.Captioner          = (*HuggingFace)(nil)
	_ port.ZeroShotClassifier = (*HuggingFace)(nil)
)
