package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fashion-ai/internal/domain/entity"
)

const (
	uploadField       = "file"
	multipartOverhead = 16 << 10
)

// Predictor то, что HTTP-слою нужно от сервиса распознавания
type Predictor interface {
	Predict(ctx context.Context, image []byte) (*entity.Prediction, error)
	Classify(ctx context.Context, text string) (entity.Attributes, error)
	Taxonomy() *entity.Taxonomy
}

type Handler struct {
	predictor      Predictor
	maxUploadBytes int64
	logger         logrus.FieldLogger
}

func NewHandler(predictor Predictor, maxUploadBytes int64, logger logrus.FieldLogger) *Handler {
	return &Handler{
		predictor:      predictor,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

func (h *Handler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, messageResponse{Message: "Fashion AI"})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

func (h *Handler) Attributes(c *gin.Context) {
	c.JSON(http.StatusOK, h.predictor.Taxonomy())
}

// Category отдаёт метки и правило одной категории
func (h *Handler) Category(c *gin.Context) {
	name := c.Param("category")
	category, ok := h.predictor.Taxonomy().Category(name)
	if !ok {
		h.abort(c, http.StatusNotFound, fmt.Errorf("unknown category %q", name))
		return
	}
	c.JSON(http.StatusOK, category)
}

// Predict принимает multipart-поле file и возвращает описание с атрибутами
func (h *Handler) Predict(c *gin.Context) {
	// Лимит относится к файлу, тело запроса дополнительно несёт multipart-разметку
	bodyLimit := h.maxUploadBytes + multipartOverhead
	if c.Request.ContentLength > bodyLimit {
		h.abort(c, http.StatusRequestEntityTooLarge, errUploadTooLarge)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)

	fileHeader, err := c.FormFile(uploadField)
	if err != nil {
		if isTooLarge(err) {
			h.abort(c, http.StatusRequestEntityTooLarge, errUploadTooLarge)
			return
		}
		h.abort(c, http.StatusBadRequest, errors.New("multipart field \"file\" is required"))
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		h.abort(c, http.StatusRequestEntityTooLarge, errUploadTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.abort(c, http.StatusBadRequest, errors.New("failed to open uploaded file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.abort(c, http.StatusBadRequest, errors.New("failed to read uploaded file"))
		return
	}

	logger := h.requestLogger(c).WithFields(logrus.Fields{
		"filename": fileHeader.Filename,
		"bytes":    len(data),
	})
	logger.Info("prediction requested")

	prediction, err := h.predictor.Predict(c.Request.Context(), data)
	if err != nil {
		logger.WithError(err).Error("prediction failed")
		h.abort(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, prediction)
}

// Classify извлекает атрибуты из готового текста, без captioning
func (h *Handler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abort(c, http.StatusBadRequest, errors.New("invalid JSON payload: text is required"))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.abort(c, http.StatusBadRequest, errors.New("text must not be blank"))
		return
	}

	attrs, err := h.predictor.Classify(c.Request.Context(), req.Text)
	if err != nil {
		h.requestLogger(c).WithError(err).Error("classification failed")
		h.abort(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, classifyResponse{Attributes: attrs})
}

func (h *Handler) abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

func (h *Handler) requestLogger(c *gin.Context) logrus.FieldLogger {
	return h.logger.WithField("request_id", c.GetString(requestIDKey))
}
