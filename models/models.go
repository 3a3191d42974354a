package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Account struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Email          string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash   string    `json:"-"`
	Provider       string    `gorm:"size:64" json:"provider,omitempty"`
	ProviderUserID string    `gorm:"size:255" json:"-"`
}

type UserProfile struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	AccountID string     `gorm:"size:36;not null;uniqueIndex" json:"accountId"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	Username  string     `gorm:"size:255" json:"username"`
	Email     string     `gorm:"size:255;not null" json:"email"`
	Bio       string     `json:"bio"`
	ImageURL  string     `json:"imageUrl"`
	ImageID   string     `gorm:"size:64" json:"imageId"`
	Liked     StringList `json:"liked"`
}

type Post struct {
	ID        string       `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time    `gorm:"index" json:"updatedAt"`
	CreatorID string       `gorm:"size:36;not null;index" json:"creatorId"`
	Creator   *UserProfile `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Caption   string       `gorm:"size:2200" json:"caption"`
	ImageURL  string       `json:"imageUrl"`
	ImageID   string       `gorm:"size:64" json:"imageId"`
	Location  string       `json:"location"`
	Tags      StringList   `json:"tags"`
	Likes     StringList   `json:"likes"`
}

// Save is the bookmark join between a profile and a post. It carries no
// foreign key to posts: deleting a post leaves its saves in place.
type Save struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UserID    string    `gorm:"size:36;not null;index" json:"userId"`
	PostID    string    `gorm:"size:36;not null;index" json:"postId"`
	Post      *Post     `gorm:"-" json:"post,omitempty"`
}

type Session struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	AccountID string    `gorm:"size:36;not null;index" json:"accountId"`
	ExpiresAt time.Time `gorm:"index" json:"expiresAt"`
}

// OrphanFile records a stored file whose compensating delete failed.
type OrphanFile struct {
	ID        string    `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time
	FileID    string `gorm:"size:64;not null;index"`
	Reason    string
	Attempts  int
}

// StoredFile is an object in file storage. It is not a database row; the
// storage backend derives the object key from the id.
type StoredFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

func newID() string {
	return uuid.New().String()
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = newID()
	}
	return nil
}

func (p *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}

func (s *Save) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	return nil
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	return nil
}

func (o *OrphanFile) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = newID()
	}
	return nil
}

// All lists every migrated model.
func All() []any {
	return []any{&Account{}, &UserProfile{}, &Post{}, &Save{}, &Session{}, &OrphanFile{}}
}
