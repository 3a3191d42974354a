package backend

import (
	"context"
	"io"

	"github.com/petermazzocco/snapgram/models"
)

type AccountStore interface {
	CreateAccountWithProfile(ctx context.Context, account *models.Account, profile *models.UserProfile) error
	AccountByID(ctx context.Context, id string) (*models.Account, error)
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	AccountByProvider(ctx context.Context, provider, providerUserID string) (*models.Account, error)

	CreateSession(ctx context.Context, session *models.Session) error
	SessionByID(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

type ProfileStore interface {
	ProfileByID(ctx context.Context, id string) (*models.UserProfile, error)
	ProfileByAccount(ctx context.Context, accountID string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, profile *models.UserProfile) error
	ListProfiles(ctx context.Context, limit int) ([]models.UserProfile, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	PostByID(ctx context.Context, id string) (*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id string) error
	// SetPostLikes replaces the post's likes list as given and mirrors the
	// change into the liked list of every profile added or removed.
	SetPostLikes(ctx context.Context, postID string, likes []string) (*models.Post, error)
	ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error)
}

type SaveStore interface {
	CreateSave(ctx context.Context, save *models.Save) error
	SaveByID(ctx context.Context, id string) (*models.Save, error)
	DeleteSave(ctx context.Context, id string) error
	// SavesByUser returns the user's saves newest first with Post attached
	// when it still exists.
	SavesByUser(ctx context.Context, userID string) ([]models.Save, error)
}

type OrphanStore interface {
	RecordOrphan(ctx context.Context, orphan *models.OrphanFile) error
	ListOrphans(ctx context.Context, limit int) ([]models.OrphanFile, error)
	DeleteOrphan(ctx context.Context, id string) error
	MarkOrphanAttempt(ctx context.Context, id string) error
}

// DocumentStore is the record side of the backend.
type DocumentStore interface {
	AccountStore
	ProfileStore
	PostStore
	SaveStore
	OrphanStore
}

// FileStorage is the binary side of the backend.
type FileStorage interface {
	Upload(ctx context.Context, file FileUpload) (*models.StoredFile, error)
	PreviewURL(ctx context.Context, fileID string, opts PreviewOptions) (string, error)
	Delete(ctx context.Context, fileID string) error
}

type FileUpload struct {
	Name     string
	MimeType string
	Size     int64
	Body     io.Reader
}

type PreviewOptions struct {
	Width   int
	Height  int
	Gravity string
	Quality int
}

// DefaultPreview is the crop used for every post and profile image.
var DefaultPreview = PreviewOptions{Width: 2000, Height: 2000, Gravity: "top", Quality: 100}

type PostOrder int

const (
	OrderCreated PostOrder = iota
	OrderUpdated
)

// PostQuery filters and pages a post listing. Results are sorted by the
// order column descending, ties broken by id descending. Cursor is the id
// of the last post of the previous page; empty requests the first page.
type PostQuery struct {
	OrderBy         PostOrder
	Cursor          string
	Limit           int
	CreatorID       string
	IDs             []string
	CaptionContains string
}
