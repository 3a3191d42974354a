package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/petermazzocco/snapgram/internal/backend"
	"github.com/petermazzocco/snapgram/internal/query"
	"github.com/petermazzocco/snapgram/internal/validation"
	"github.com/petermazzocco/snapgram/models"
)

func (h *Handler) SavePost(w http.ResponseWriter, r *http.Request, acc *models.Account) {
	postID := chi.URLParam(r, "id")
	me, err := h.currentUser(r.Context(), acc)
	if err != nil {
		writeError(w, r, err)
		return
	}

	vars := query.Vars{AccountID: acc.ID, PostID: postID}
	save, err := query.Mutate(r.Context(), h.q, query.MutationSavePost, vars, func(ctx context.Context) (*models.Save, error) {
		return h.svc.SavePost(ctx, me.ID, postID)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, save)
}

func (h *Handler) DeleteSave(w http.ResponseWriter, r *http.Request, acc *models.Account) {
	saveID := chi.URLParam(r, "id")
	me, err := h.currentUser(r.Context(), acc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	save, err := h.svc.GetSave(r.Context(), saveID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if save.UserID != me.ID {
		writeError(w, r, errForbidden)
		return
	}

	vars := query.Vars{AccountID: acc.ID, PostID: save.PostID}
	_, err = query.Mutate(r.Context(), h.q, query.MutationDeleteSavedPost, vars, func(ctx context.Context) (*models.Save, error) {
		return h.svc.DeleteSavedPost(ctx, saveID)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SavedPosts(w http.ResponseWriter, r *http.Request, acc *models.Account) {
	me, err := h.currentUser(r.Context(), acc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	saves, err := query.Fetch(r.Context(), h.q, query.K(query.QueryCurrentUser, acc.ID, "saves"), func(ctx context.Context) ([]models.Save, error) {
		return h.svc.GetSavedPosts(ctx, me.ID)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saves)
}

// AllUsers lists profiles newest first. ?limit= bounds the list; zero or
// absent lists every profile.
func (h *Handler) AllUsers(w http.ResponseWriter, r *http.Request, _ *models.Account) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, backend.ErrInvalidInput)
			return
		}
		limit = n
	}

	users, err := query.Fetch(r.Context(), h.q, query.K(query.QueryUsers, strconv.Itoa(limit)), func(ctx context.Context) ([]models.UserProfile, error) {
		return h.svc.GetUsers(ctx, limit)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request, _ *models.Account) {
	userID := chi.URLParam(r, "id")
	user, err := query.Fetch(r.Context(), h.q, query.K(query.QueryUserByID, userID), func(ctx context.Context) (*models.UserProfile, error) {
		return h.svc.GetUserByID(ctx, userID)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) ProfilePosts(w http.ResponseWriter, r *http.Request, _ *models.Account) {
	userID := chi.URLParam(r, "id")
	posts, err := query.Fetch(r.Context(), h.q, query.K(query.QueryRecentPosts, "by", userID), func(ctx context.Context) ([]models.Post, error) {
		return h.svc.GetUserPosts(ctx, userID)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// UpdateProfile edits the caller's own profile. Sending a file replaces
// the avatar.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request, acc *models.Account) {
	userID := chi.URLParam(r, "id")
	me, err := h.currentUser(r.Context(), acc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if me.ID != userID {
		writeError(w, r, errForbidden)
		return
	}

	if err := parseForm(r); err != nil {
		writeError(w, r, err)
		return
	}
	form := validation.ProfileForm{
		Name:     r.FormValue("name"),
		Username: r.FormValue("username"),
		Email:    me.Email,
		Bio:      r.FormValue("bio"),
	}
	if err := validation.Validate(form); err != nil {
		writeError(w, r, err)
		return
	}
	file, closeFile, err := formFile(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer closeFile()

	vars := query.Vars{AccountID: acc.ID, UserID: userID}
	user, err := query.Mutate(r.Context(), h.q, query.MutationUpdateUser, vars, func(ctx context.Context) (*models.UserProfile, error) {
		return h.svc.UpdateUser(ctx, backend.UpdateUser{
			UserID:   userID,
			Name:     form.Name,
			Username: form.Username,
			Bio:      form.Bio,
			File:     file,
		})
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
