package auth

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

const (
	sessionName = "snapgram_session"
	tokenKey    = "sid"
)

// Sessions keeps the backend session id in a signed cookie.
type Sessions struct {
	store sessions.Store
}

// NewCookieStore builds the signed cookie store shared by the session
// cookie and the OAuth flow.
func NewCookieStore(secret string, maxAge time.Duration, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(int(maxAge.Seconds()))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	return store
}

func NewSessions(store sessions.Store) *Sessions {
	return &Sessions{store: store}
}

// Token returns the session id carried by r, or "" when there is none.
func (s *Sessions) Token(r *http.Request) (string, error) {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return "", err
	}
	token, _ := session.Values[tokenKey].(string)
	return token, nil
}

func (s *Sessions) Save(w http.ResponseWriter, r *http.Request, token string) error {
	session, _ := s.store.Get(r, sessionName)
	session.Values[tokenKey] = token
	return session.Save(r, w)
}

func (s *Sessions) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, sessionName)
	delete(session.Values, tokenKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// UseProviders registers the OAuth providers that have credentials and
// points gothic at store.
func UseProviders(store sessions.Store, googleKey, googleSecret, callbackURL string) []string {
	gothic.Store = store

	var enabled []string
	if googleKey != "" && googleSecret != "" {
		goth.UseProviders(google.New(googleKey, googleSecret, callbackURL, "email", "profile"))
		enabled = append(enabled, "google")
	}
	return enabled
}
