package backend

import (
	"time"
)

const (
	// RecentPostsLimit bounds the home feed.
	RecentPostsLimit = 20
	// InfinitePageSize is the page size of the explore listing.
	InfinitePageSize = 10
	// DefaultSessionTTL is how long a password or OAuth session stays valid.
	DefaultSessionTTL = 30 * 24 * time.Hour
)

// Service translates application intents into document store and file
// storage calls. Every method returns a record or an error; ErrNotFound is
// kept distinct from backend failures.
type Service struct {
	store   DocumentStore
	files   FileStorage
	preview PreviewOptions

	avatarURL  func(name string) string
	sessionTTL time.Duration
	now        func() time.Time
}

type Option func(*Service)

// WithAvatarURL sets how the initials avatar of a new account is addressed.
func WithAvatarURL(fn func(name string) string) Option {
	return func(s *Service) { s.avatarURL = fn }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.sessionTTL = ttl }
}

func WithPreview(opts PreviewOptions) Option {
	return func(s *Service) { s.preview = opts }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store DocumentStore, files FileStorage, opts ...Option) *Service {
	s := &Service{
		store:      store,
		files:      files,
		preview:    DefaultPreview,
		avatarURL:  func(string) string { return "" },
		sessionTTL: DefaultSessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
