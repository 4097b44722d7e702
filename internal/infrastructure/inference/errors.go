package inference

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// APIError ответ бэкенда инференса с неуспешным статусом
type APIError struct {
	Backend    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %d %s: %s", e.Backend, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Temporary сообщает, что запрос имеет смысл повторить: модель загружается,
// бэкенд перегружен или упал.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// isRetryable решает, повторять ли запрос после ошибки. Повторяются только
// временные ответы бэкенда и сетевые сбои, ошибки разбора ответа сразу
// возвращаются вызывающему.
func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}
