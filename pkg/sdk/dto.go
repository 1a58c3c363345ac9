package sdk

import (
	"encoding/json"
	"time"
)

// StatusType marks an API response as success or error
type StatusType string

const (
	StatusSuccess StatusType = "success"
	StatusError   StatusType = "error"
)

// ApiResponse represents a standard API response structure
type ApiResponse[T any] struct {
	Status  StatusType `json:"status"`          // Status message
	Code    int        `json:"code"`            // Status code
	Message string     `json:"message"`         // Human-readable message
	Data    T          `json:"data,omitempty"`  // Optional data field for successful responses
	Error   any        `json:"error,omitempty"` // Optional errors field for error responses
}

// AsGinResponse converts the ApiResponse to a format suitable for Gin framework
func (r ApiResponse[T]) AsGinResponse() (int, any) {
	return r.Code, r
}

// AsJSON converts the ApiResponse to a format suitable for JSON responses
func (r ApiResponse[T]) AsJSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func NewSuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Status:  StatusSuccess,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func NewErrorResponse(code int, message string, err any) ApiResponse[any] {
	return ApiResponse[any]{
		Status:  StatusError,
		Code:    code,
		Message: message,
		Error:   err,
	}
}

/** Requests */

// AnalyzeRequest represents the request body for analyzing a video
type AnalyzeRequest struct {
	URL string `json:"url" binding:"required"`
}

// QuestionRequest represents the request body for asking a question about a video
type AskQuestionRequest struct {
	Question string `json:"question" binding:"required"`
}

/** Responses */

// AnalyzeResponse represents the response body after analyzing a video
type AnalyzeResponse struct {
	VideoID  string  `json:"video_id"`
	Title    string  `json:"title"`
	Channel  string  `json:"channel"`
	Duration float64 `json:"duration_seconds"`
	Summary  string  `json:"summary"`
}

// Message represents a single conversation message
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// VideoResponse represents a cached video session
type VideoResponse struct {
	VideoID    string    `json:"video_id"`
	Title      string    `json:"title"`
	Channel    string    `json:"channel"`
	Duration   float64   `json:"duration_seconds"`
	Summary    string    `json:"summary"`
	ChunkCount int       `json:"chunk_count"`
	History    []Message `json:"history"`
}
