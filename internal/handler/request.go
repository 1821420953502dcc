package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
)

// pathUUID binds a chi URL parameter the way generated oapi-codegen routers do.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return id, nil
}

// pathIDs binds the named UUID path parameters in order and writes a 400 on
// the first malformed one. ok is false when a response has been written.
func pathIDs(w http.ResponseWriter, r *http.Request, names ...string) (ids []uuid.UUID, ok bool) {
	ids = make([]uuid.UUID, len(names))
	for i, n := range names {
		id, err := pathUUID(r, n)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
			return nil, false
		}
		ids[i] = id
	}
	return ids, true
}

// queryParam binds an optional form-style query parameter into dest.
func queryParam(r *http.Request, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		return fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return nil
}

// decodeBody decodes a JSON request body into dst and writes a 422 on
// failure. ok is false when a response has been written.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{Code: "payload_too_large", Message: err.Error()}})
		case errors.Is(err, io.EOF):
			writeJSON(w, http.StatusUnprocessableEntity, requestBody("request body is required"))
		default:
			writeJSON(w, http.StatusUnprocessableEntity, requestBody("malformed request body: "+err.Error()))
		}
		return false
	}
	return true
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // the status line is already out; nothing useful to do on failure.
	json.NewEncoder(w).Encode(v)
}
