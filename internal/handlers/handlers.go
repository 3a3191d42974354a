package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/petermazzocco/snapgram/internal/auth"
	"github.com/petermazzocco/snapgram/internal/backend"
	"github.com/petermazzocco/snapgram/internal/log"
	"github.com/petermazzocco/snapgram/internal/query"
	"github.com/petermazzocco/snapgram/internal/validation"
	"github.com/petermazzocco/snapgram/models"
)

const (
	maxUploadMemory = 10 << 20
	genericFailure  = "Something went wrong. Please try again."
)

var errForbidden = errors.New("forbidden")

// Previewer renders stored images.
type Previewer interface {
	Preview(ctx context.Context, fileID string, opts backend.PreviewOptions) ([]byte, error)
}

// Handler serves the HTTP API. Reads go through the query client so they
// are cached; writes run as mutations so the affected reads are
// invalidated.
type Handler struct {
	svc      *backend.Service
	q        *query.Client
	sessions *auth.Sessions
	files    Previewer
}

func New(svc *backend.Service, q *query.Client, sessions *auth.Sessions, files Previewer) *Handler {
	return &Handler{svc: svc, q: q, sessions: sessions, files: files}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn.Printf("encode response: %v", err)
	}
}

// writeError maps err onto a status. Validation failures carry their field
// messages; anything unexpected gets a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fields validation.FieldErrors
	switch {
	case errors.As(err, &fields):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": fields})
	case errors.Is(err, backend.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	case errors.Is(err, backend.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not Authorized"})
	case errors.Is(err, errForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Forbidden"})
	case errors.Is(err, backend.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	case errors.Is(err, backend.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Already exists"})
	default:
		log.Error.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": genericFailure})
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return backend.ErrInvalidInput
	}
	return nil
}

// accountHandler is a handler that needs the signed in account.
type accountHandler func(w http.ResponseWriter, r *http.Request, acc *models.Account)

func authed(fn accountHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc, ok := auth.AccountFrom(r.Context())
		if !ok {
			writeError(w, r, backend.ErrUnauthorized)
			return
		}
		fn(w, r, acc)
	}
}

// currentUser returns the profile of the signed in account.
func (h *Handler) currentUser(ctx context.Context, acc *models.Account) (models.UserProfile, error) {
	return query.Fetch(ctx, h.q, query.K(query.QueryCurrentUser, acc.ID), func(ctx context.Context) (models.UserProfile, error) {
		profile, err := h.svc.GetCurrentUser(ctx, acc.ID)
		if err != nil {
			return models.UserProfile{}, err
		}
		return *profile, nil
	})
}

// formFile returns the uploaded "file" part, or nil when none was sent.
// The caller closes the returned body.
func formFile(r *http.Request) (*backend.FileUpload, func(), error) {
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, backend.ErrInvalidInput
	}
	upload := &backend.FileUpload{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     header.Size,
		Body:     file,
	}
	return upload, func() { file.Close() }, nil
}

func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxUploadMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return backend.ErrInvalidInput
	}
	return nil
}

// MutationState reports the last state of a mutation run by the caller.
func (h *Handler) MutationState(w http.ResponseWriter, r *http.Request, acc *models.Account) {
	name := query.MutationName(chi.URLParam(r, "name"))
	if _, ok := query.Invalidations[name]; !ok {
		writeError(w, r, backend.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h.q.MutationState(name, acc.ID))
}
