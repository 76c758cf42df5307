package response

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// retryAfterSeconds is sent with 503 responses; store and lock timeouts are short.
const retryAfterSeconds = 1

// Response is the envelope of every API response.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	JSON(w, statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Error(w http.ResponseWriter, statusCode int, message string, err interface{}) {
	if message == "" {
		message = http.StatusText(statusCode)
	}
	JSON(w, statusCode, Response{
		Success: false,
		Message: message,
		Error:   err,
	})
}

// ValidationError reports field errors keyed by JSON field name.
func ValidationError(w http.ResponseWriter, fields interface{}) {
	Error(w, http.StatusBadRequest, "Validation failed", fields)
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message, nil)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message, nil)
}

func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, message, nil)
}

func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	Error(w, http.StatusNotFound, message, nil)
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, message, nil)
}

func TooManyRequests(w http.ResponseWriter, message string) {
	w.Header().Set("Retry-After", strconv.Itoa(60))
	Error(w, http.StatusTooManyRequests, message, nil)
}

func InternalServerError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message, nil)
}

// ServiceUnavailable tells the client the request may be retried.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	Error(w, http.StatusServiceUnavailable, message, nil)
}
