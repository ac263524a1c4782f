package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"nexa/internal/pipeline"
)

// MaxBodyBytes caps every request body.
const MaxBodyBytes = 1 << 20

// Gateway-level codes; stage failures use pipeline codes.
const (
	codeInvalidJSON     = "INVALID_JSON"
	codeInvalidRequest  = "INVALID_REQUEST"
	codeBodyTooLarge    = "REQUEST_TOO_LARGE"
	codeTimeout         = "TIMEOUT"
	codeInternal        = "INTERNAL_ERROR"
	codeUnauthenticated = "UNAUTHENTICATED"
)

type successBody struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorBody struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Missing []string `json:"missing,omitempty"`
	Retry   bool     `json:"retry,omitempty"`
	Details string   `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, successBody{Success: true, Data: data})
}

// writeError translates any handler failure into the error envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := h.classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Warn("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.String("code", body.Code), zap.Error(err))
	}
	writeJSON(w, status, body)
}

func (h *Handler) classify(err error) (int, errorBody) {
	var (
		tooLarge  *http.MaxBytesError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		schemaErr *schemaError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorBody{Error: "The request took too long. Please try again.", Code: codeTimeout, Retry: true}
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, errorBody{Error: "Request body too large.", Code: codeBodyTooLarge}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, errEmptyBody):
		return http.StatusBadRequest, errorBody{Error: "Invalid JSON body.", Code: codeInvalidJSON}
	case errors.As(err, &schemaErr), errors.As(err, &typeErr):
		return http.StatusBadRequest, errorBody{Error: "Invalid request body.", Code: codeInvalidRequest, Details: err.Error()}
	}
	if pe, ok := pipeline.AsError(err); ok {
		return pe.Status(), errorBody{Error: pe.Message, Code: string(pe.Code), Missing: pe.Missing, Retry: pe.Retry}
	}
	return http.StatusInternalServerError, errorBody{Error: "Internal server error. Please try again.", Code: codeInternal}
}

var errEmptyBody = errors.New("empty request body")

// decode reads a capped body, checks it against schema, and unmarshals it
// into dst.
func decode(w http.ResponseWriter, r *http.Request, s *gojsonschema.Schema, dst any) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return errEmptyBody
	}
	if !json.Valid(raw) {
		return json.Unmarshal(raw, new(any))
	}
	if err := validateBody(s, raw); err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
