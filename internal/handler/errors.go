package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/wedding-transport/internal/domain"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
// Details is set only for errors with structured data, such as the seat
// numbers of a capacity failure.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the human-readable message (e.g. "vehicle not found")
// because the handler is the layer that knows what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: message}}
}

// validationBody returns an ErrorResponse for a domain validation failure.
// The message is extracted from the wrapped domain.ErrValidation error.
func validationBody(err error) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: unwrapMessage(err)}}
}

// requestBody returns an ErrorResponse for a bad request rejected before
// reaching the service layer (e.g. missing or malformed body).
func requestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.FleetService.CreateVendor: validation error: name is required" → "name is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, domain.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(domain.ErrValidation.Error())+2:]
	}
	return msg
}

// writeError maps a service error to its status and body. what names the
// resource for 404 messages ("transport group", "vehicle").
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, what string, err error) {
	var capErr *domain.CapacityExceededError
	switch {
	case errors.As(err, &capErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{
			Code:    "capacity_exceeded",
			Message: capErr.Error(),
			Details: map[string]any{
				"groupSeats":      capErr.GroupSeats,
				"vehicleCapacity": capErr.VehicleCapacity,
			},
		}})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, notFoundBody(what+" not found"))
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
	case errors.Is(err, domain.ErrVehicleUnavailable):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{Code: "vehicle_unavailable", Message: "vehicle is not available"}})
	case errors.Is(err, domain.ErrConcurrentRegeneration):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: ErrorDetail{Code: "concurrent_regeneration", Message: "another regeneration is running for this event; retry"}})
	case errors.Is(err, domain.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: ErrorDetail{Code: "invalid_transition", Message: tail(err)}})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: ErrorDetail{Code: "conflict", Message: tail(err)}})
	default:
		s.log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "internal_error", Message: "internal server error"}})
	}
}

// tail drops the "layer.Type.Method: " prefixes from a wrapped error message.
func tail(err error) string {
	msg := err.Error()
	for {
		i := strings.Index(msg, ": ")
		if i < 0 || !strings.Contains(msg[:i], ".") || strings.Contains(msg[:i], " ") {
			return msg
		}
		msg = msg[i+2:]
	}
}
