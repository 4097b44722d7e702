package rest

import (
	"errors"
	"net/http"
	"strings"

	"fashion-ai/internal/domain/entity"
)

var (
	errUploadTooLarge = errors.New("uploaded file is too large")
	errUnauthorized   = errors.New("unauthorized")
)

// statusFor переводит ошибку сервиса в HTTP-статус.
// Ошибки моделей отдаются как 500 с текстом ошибки.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrEmptyImage), errors.Is(err, entity.ErrInvalidImage):
		return http.StatusBadRequest
	case isTooLarge(err):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
