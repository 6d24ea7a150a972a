package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bibbank/bib/services/review-service/internal/domain/model"
)

// Error codes returned in the error envelope.
const (
	CodeInvalidInput    = "invalid_input"
	CodePayloadTooLarge = "payload_too_large"
	CodeInferenceFailed = "inference_failed"
	CodeInternal        = "internal_error"
)

// ErrorBody is the payload of an error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON envelope for every non-2xx response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ToHTTPResponse maps an error to a status, code and client-safe message.
// Internal failure details are never echoed back.
func ToHTTPResponse(err error) (int, ErrorBody) {
	var maxErr *http.MaxBytesError
	var vErr *model.ValidationError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, ErrorBody{Code: CodePayloadTooLarge, Message: "request body too large"}
	case errors.As(err, &vErr):
		return http.StatusBadRequest, ErrorBody{Code: CodeInvalidInput, Message: vErr.Error()}
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, ErrorBody{Code: CodeInvalidInput, Message: err.Error()}
	case errors.Is(err, model.ErrInference):
		return http.StatusInternalServerError, ErrorBody{Code: CodeInferenceFailed, Message: "prediction failed"}
	default:
		return http.StatusInternalServerError, ErrorBody{Code: CodeInternal, Message: "internal server error"}
	}
}

// WriteError writes the error envelope for err.
func WriteError(w http.ResponseWriter, err error) {
	status, body := ToHTTPResponse(err)
	WriteJSON(w, status, ErrorResponse{Error: body})
}

// WriteJSON writes data as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
