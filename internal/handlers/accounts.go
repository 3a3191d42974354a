package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/markbates/goth/gothic"
	"github.com/petermazzocco/snapgram/internal/backend"
	"github.com/petermazzocco/snapgram/internal/log"
	"github.com/petermazzocco/snapgram/internal/query"
	"github.com/petermazzocco/snapgram/internal/validation"
	"github.com/petermazzocco/snapgram/models"
)

// SignUp creates the account and its profile, then signs the new user in.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var form validation.SignupForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Validate(form); err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := query.Mutate(r.Context(), h.q, query.MutationCreateAccount, query.Vars{}, func(ctx context.Context) (*models.UserProfile, error) {
		return h.svc.CreateUserAccount(ctx, backend.NewUser{
			Name:     form.Name,
			Username: form.Username,
			Email:    form.Email,
			Password: form.Password,
		})
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.signIn(w, r, form.Email, form.Password); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var form validation.SigninForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Validate(form); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.signIn(w, r, form.Email, form.Password); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, email, password string) error {
	session, err := query.Mutate(r.Context(), h.q, query.MutationSignIn, query.Vars{}, func(ctx context.Context) (*models.Session, error) {
		return h.svc.SignInAccount(ctx, email, password)
	})
	if err != nil {
		return err
	}
	return h.sessions.Save(w, r, session.ID)
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request, acc *models.Account) {
	token, _ := h.sessions.Token(r)
	_, err := query.Mutate(r.Context(), h.q, query.MutationSignOut, query.Vars{AccountID: acc.ID}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.svc.SignOutAccount(ctx, token)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sessions.Clear(w, r); err != nil {
		log.Warn.Printf("clear session cookie: %v", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request, acc *models.Account) {
	profile, err := h.currentUser(r.Context(), acc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// BeginAuth redirects to the provider's consent page.
func (h *Handler) BeginAuth(w http.ResponseWriter, r *http.Request) {
	r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
	gothic.BeginAuthHandler(w, r)
}

// AuthCallback completes the provider login, opening a session for the
// matching account and creating it on first login.
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
	user, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		log.Warn.Printf("complete %s auth: %v", chi.URLParam(r, "provider"), err)
		writeError(w, r, backend.ErrUnauthorized)
		return
	}

	session, err := query.Mutate(r.Context(), h.q, query.MutationSignIn, query.Vars{}, func(ctx context.Context) (*models.Session, error) {
		return h.svc.SignInWithProvider(ctx, backend.ProviderUser{
			Provider:  user.Provider,
			UserID:    user.UserID,
			Email:     user.Email,
			Name:      user.Name,
			AvatarURL: user.AvatarURL,
		})
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sessions.Save(w, r, session.ID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := gothic.Logout(w, r); err != nil && !errors.Is(err, http.ErrNoCookie) {
		log.Warn.Printf("clear provider session: %v", err)
	}
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}
