package response

import (
	"encoding/json"
	"net/http"

	"github.com/mrops-br/product-catalog-api/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// StatusFor maps a catalog error onto an HTTP status
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict, domain.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error sends an error response. Internal details never reach the body.
func Error(w http.ResponseWriter, err error) {
	status := StatusFor(err)

	errorType := "error"
	switch status {
	case http.StatusNotFound:
		errorType = "not_found"
	case http.StatusBadRequest:
		errorType = "bad_request"
	case http.StatusInternalServerError:
		errorType = "internal_server_error"
	}

	JSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: domain.PublicMessage(err),
	})
}

// BadRequest reports malformed input detected by the transport
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, domain.ValidationError(message, nil))
}
