package handler

import "time"

// Response is the envelope for health, readiness, admin and error replies.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// VaultRequest is the body of POST /tokenize and POST /detokenize.
type VaultRequest struct {
	Input *string `json:"input"`
}

// TokenizeResponse is the body returned by POST /tokenize.
type TokenizeResponse struct {
	Tokenized string `json:"tokenized"`
}

// DetokenizeResponse is the body returned by POST /detokenize.
type DetokenizeResponse struct {
	Detokenized string `json:"detokenized"`
}

// HealthResponse is the data of GET /health and GET /ready.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// StatusResponse is the data of GET /admin/v1/status.
type StatusResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	Commit           string `json:"commit"`
	Backend          string `json:"backend"`
	Entries          int    `json:"entries"`
	DetokenizePolicy string `json:"detokenize_policy"`
	Uptime           string `json:"uptime"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
}
