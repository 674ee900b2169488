package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/edgard/telebot/internal/editor"
	"github.com/edgard/telebot/internal/gemini"
	"github.com/edgard/telebot/internal/store"
	"github.com/edgard/telebot/internal/telegram"
)

const maxBodyBytes = 1 << 20

type errorJSON struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

var errSessionNotFound = errors.New("editor session not found")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve      *editor.ValidationError
		sendErr *telegram.SendError
		body    = errorJSON{Error: err.Error()}
		status  int
	)

	switch {
	case errors.As(err, &ve):
		status, body.Code, body.Field = http.StatusUnprocessableEntity, "validation", ve.Field
	case errors.Is(err, store.ErrNotFound), errors.Is(err, errSessionNotFound):
		status, body.Code = http.StatusNotFound, "not_found"
	case errors.As(err, &sendErr):
		status, body.Code = http.StatusBadGateway, "send_failed"
	case errors.Is(err, telegram.ErrInvalidToken):
		status, body.Code = http.StatusBadRequest, "invalid_token"
	case errors.Is(err, telegram.ErrNetwork):
		status, body.Code = http.StatusBadGateway, "network_error"
	case errors.Is(err, gemini.ErrGeneration):
		status, body.Code = http.StatusBadGateway, "generation_failed"
	case errors.Is(err, gemini.ErrDisabled):
		status, body.Code = http.StatusServiceUnavailable, "generation_disabled"
	case errors.Is(err, store.ErrNotHydrated):
		status, body.Code = http.StatusServiceUnavailable, "not_ready"
	case errors.Is(err, store.ErrDuplicateID):
		status, body.Code = http.StatusConflict, "duplicate"
	case errors.Is(err, errBadRequest):
		status, body.Code = http.StatusBadRequest, "bad_request"
	default:
		status, body.Code = http.StatusInternalServerError, "internal"
		body.Error = "internal error"
		s.log.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, body)
}

var errBadRequest = errors.New("bad request")

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}
