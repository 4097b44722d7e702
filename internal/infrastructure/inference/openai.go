package inference

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"fashion-ai/internal/domain/entity"
	"fashion-ai/internal/domain/port"
)

const backendOpenAI = "openai"

const captionPrompt = "Describe the clothing in this photo in one short sentence: garment type, colors, material, pattern and who wears it. Answer with the sentence only."

// OpenAIConfig настройки captioner'а на vision-модели OpenAI
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Retry   RetryPolicy
}

// OpenAICaptioner генерирует описание изображения через chat completion с картинкой
type OpenAICaptioner struct {
	client *openai.Client
	cfg    OpenAIConfig
	logger logrus.FieldLogger
}

// NewOpenAICaptioner создаёт captioner. BaseURL позволяет указать совместимый сервер.
func NewOpenAICaptioner(cfg OpenAIConfig, logger logrus.FieldLogger) *OpenAICaptioner {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAICaptioner{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger.WithField("backend", backendOpenAI),
	}
}

// Caption отправляет изображение как data URL и возвращает первую строку ответа
func (o *OpenAICaptioner) Caption(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", entity.ErrEmptyImage
	}

	dataURL := "data:" + http.DetectContentType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
	req := openai.ChatCompletionRequest{
		Model: o.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: captionPrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		MaxTokens:   80,
		Temperature: 0.1,
	}

	resp, err := withRetry(ctx, o.cfg.Retry, o.logger, "caption", func() (openai.ChatCompletionResponse, error) {
		resp, err := o.client.CreateChatCompletion(ctx, req)
		if err != nil {
			var reqErr *openai.APIError
			if errors.As(err, &reqErr) {
				return resp, &APIError{Backend: backendOpenAI, StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Message}
			}
			return resp, fmt.Errorf("send caption request: %w", err)
		}
		return resp, nil
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", entity.ErrEmptyCaption
	}
	caption := strings.TrimSpace(resp.Choices[0].Message.Content)
	if i := strings.IndexByte(caption, '\n'); i >= 0 {
		caption = strings.TrimSpace(caption[:i])
	}
	// vision-модели добавляют точку, BLIP её не ставит
	caption = strings.TrimSuffix(strings.ToLower(caption), ".")

	o.logger.WithFields(logrus.Fields{
		"bytes":  len(image),
		"tokens": resp.Usage.TotalTokens,
	}).Debugf("caption: %s", caption)

	return caption, nil
}

var _ port.Captioner = (*OpenAICaptioner)(nil)
