package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/petermazzocco/snapgram/internal/backend"
	"github.com/petermazzocco/snapgram/internal/query"
	"github.com/petermazzocco/snapgram/internal/validation"
	"github.com/petermazzocco/snapgram/models"
)

func postForm(r *http.Request) validation.PostForm {
	return validation.PostForm{
		Caption:  r.FormValue("caption"),
		Location: r.FormValue("location"),
		Tags:     r.FormValue("tags"),
	}
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request, acc *models.Account) {
	if err := parseForm(r); err != nil {
		writeError(w, r, err)
		return
	}
	form := postForm(r)
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
	if file == nil {
		writeError(w, r, validation.FieldErrors{"file": validation.MsgInvalid})
		return
	}

	me, err := h.currentUser(r.Context(), acc)
	if err != nil {
		writeError(w, r, err)
		return
	}

	post, err := query.Mutate(r.Context(), h.q, query.MutationCreatePost, query.Vars{AccountID: acc.ID}, func(ctx context.Context) (*models.Post, error) {
		return h.svc.CreatePost(ctx, backend.NewPost{
			CreatorID: me.ID,
			Caption:   form.Caption,
			Location:  form.Location,
			Tags:      form.Tags,
			File:      file,
		})
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// ownPost loads the post fresh from the store and checks acc created it.
func (h *Handler) ownPost(ctx context.Context, acc *models.Account, postID string) (*models.Post, error) {
	me, err := h.currentUser(ctx, acc)
	if err != nil {
		return nil, err
	}
	post, err := h.svc.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.CreatorID != me.ID {
		return nil, errForbidden
	}
	return post, nil
}

// UpdatePost edits a post. Sending a file replaces its image.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request, acc *models.Account) {
	postID := chi.URLParam(r, "id")
	if err := parseForm(r); err != nil {
		writeError(w, r, err)
		return
	}
	form := postForm(r)
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

	if _, err := h.ownPost(r.Context(), acc, postID); err != nil {
		writeError(w, r, err)
		return
	}

	vars := query.Vars{AccountID: acc.ID, PostID: postID}
	post, err := query.Mutate(r.Context(), h.q, query.MutationUpdatePost, vars, func(ctx context.Context) (*models.Post, error) {
		return h.svc.UpdatePost(ctx, backend.UpdatePost{
			PostID:   postID,
			Caption:  form.Caption,
			Location: form.Location,
			Tags:     form.Tags,
			File:     file,
		})
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request, acc *models.Account) {
	postID := chi.URLParam(r, "id")
	post, err := h.ownPost(r.Context(), acc, postID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	vars := query.Vars{AccountID: acc.ID, PostID: postID}
	_, err = query.Mutate(r.Context(), h.q, query.MutationDeletePost, vars, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.svc.DeletePost(ctx, postID, post.ImageID)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request, _ *models.Account) {
	postID := chi.URLParam(r, "id")
	post, err := query.Fetch(r.Context(), h.q, query.K(query.QueryPostByID, postID), func(ctx context.Context) (*models.Post, error) {
		return h.svc.GetPostByID(ctx, postID)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *Handler) RecentPosts(w http.ResponseWriter, r *http.Request, _ *models.Account) {
	posts, err := query.Fetch(r.Context(), h.q, query.K(query.QueryRecentPosts), h.svc.GetRecentPosts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *Handler) explore(acc *models.Account) query.Infinite[models.Post] {
	return query.Infinite[models.Post]{
		Key:      query.K(query.QueryInfinitePosts, acc.ID),
		PageSize: backend.InfinitePageSize,
		Fetch:    h.svc.GetInfinitePosts,
		Cursor:   func(p models.Post) string { return p.ID },
	}
}

// Explore returns the explore pages loaded so far. With a cursor it
// returns just the page after that post.
func (h *Handler) Explore(w http.ResponseWriter, r *http.Request, acc *models.Account) {
	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		posts, err := h.svc.GetInfinitePosts(r.Context(), cursor)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, posts)
		return
	}

	pages, err := query.LoadPages(r.Context(), h.q, h.explore(acc))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

// ExploreNext loads one more page of the explore listing.
func (h *Handler) ExploreNext(w http.ResponseWriter, r *http.Request, acc *models.Account) {
	pages, err := query.FetchNextPage(r.Context(), h.q, h.explore(acc))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

func (h *Handler) SearchPosts(w http.ResponseWriter, r *http.Request, _ *models.Account) {
	term := r.URL.Query().Get("q")
	posts, err := query.Fetch(r.Context(), h.q, query.K(query.QuerySearchPosts, term), func(ctx context.Context) ([]models.Post, error) {
		return h.svc.SearchPosts(ctx, term)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

type likeRequest struct {
	Likes []string `json:"likes"`
}

// LikePost replaces the post's likes with the list sent by the client.
func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request, acc *models.Account) {
	postID := chi.URLParam(r, "id")
	var req likeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	vars := query.Vars{AccountID: acc.ID, PostID: postID}
	post, err := query.Mutate(r.Context(), h.q, query.MutationLikePost, vars, func(ctx context.Context) (*models.Post, error) {
		return h.svc.LikePost(ctx, postID, req.Likes)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *Handler) LikedPosts(w http.ResponseWriter, r *http.Request, acc *models.Account) {
	me, err := h.currentUser(r.Context(), acc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	posts, err := query.Fetch(r.Context(), h.q, query.K(query.QueryCurrentUser, acc.ID, "liked"), func(ctx context.Context) ([]models.Post, error) {
		return h.svc.GetLikedPosts(ctx, me.ID)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}
