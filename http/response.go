package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sagarc03/lfsgate"
)

// ContentType is the media type of every JSON body the LFS API returns.
const ContentType = "application/vnd.git-lfs+json"

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Lock    *lfsgate.Lock `json:"lock,omitempty"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, message string) {
	writeErrorResponse(w, code, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeErrorResponse(w http.ResponseWriter, code int, resp ErrorResponse) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
