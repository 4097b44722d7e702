package rest

import "fashion-ai/internal/domain/entity"

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type classifyRequest struct {
	Text string `json:"text" binding:"required"`
}

type classifyResponse struct {
	Attributes entity.Attributes `json:"attributes"`
}
