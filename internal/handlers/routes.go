package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/petermazzocco/snapgram/internal/auth"
)

type RouterOptions struct {
	// RateLimit is the number of requests per minute allowed per client
	// and endpoint under /api, and per client across the public media
	// routes. Zero disables limiting.
	RateLimit int
	// RequestLog enables chi's request logger.
	RequestLog bool
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.RequestLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/auth/{provider}", h.BeginAuth)
	r.Get("/auth/{provider}/callback", h.AuthCallback)

	r.Group(func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(httprate.Limit(opts.RateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		}
		r.Get("/files/{id}/preview", h.FilePreview)
		r.Get("/avatars/initials", h.Initials)
	})

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(httprate.Limit(
				opts.RateLimit,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
			))
		}

		r.Post("/sign-up", h.SignUp)
		r.Post("/sign-in", h.SignIn)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(h.svc, h.sessions))

			r.Post("/sign-out", authed(h.SignOut))
			r.Get("/me", authed(h.Me))
			r.Get("/mutations/{name}", authed(h.MutationState))

			r.Get("/posts", authed(h.RecentPosts))
			r.Get("/posts/{id}", authed(h.GetPost))
			r.Delete("/posts/{id}", authed(h.DeletePost))
			r.Post("/posts/{id}/like", authed(h.LikePost))
			r.Post("/posts/{id}/save", authed(h.SavePost))
			r.Post("/create-post", authed(h.CreatePost))
			r.Put("/update-post/{id}", authed(h.UpdatePost))

			r.Get("/explore", authed(h.Explore))
			r.Post("/explore/next", authed(h.ExploreNext))
			r.Get("/explore/search", authed(h.SearchPosts))

			r.Get("/saved", authed(h.SavedPosts))
			r.Delete("/saves/{id}", authed(h.DeleteSave))
			r.Get("/liked", authed(h.LikedPosts))

			r.Get("/all-users", authed(h.AllUsers))
			r.Get("/profile/{id}", authed(h.Profile))
			r.Get("/profile/{id}/posts", authed(h.ProfilePosts))
			r.Put("/update-profile/{id}", authed(h.UpdateProfile))
		})
	})

	return r
}
