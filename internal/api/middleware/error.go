package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Error codes returned in the JSON error envelope
const (
	ErrBadRequest    = "bad_request"
	ErrNotFound      = "not_found"
	ErrConflict      = "conflict"
	ErrUpstream      = "upstream_error"
	ErrInternalError = "internal_error"
)

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: message})
}

// ErrorRecovery converts panics into 500 responses instead of dropped
// connections
func ErrorRecovery(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Panic in handler",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path))
					WriteError(w, http.StatusInternalServerError, ErrInternalError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
