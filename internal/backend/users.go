package backend

import (
	"context"
	"fmt"

	"github.com/petermazzocco/snapgram/models"
)

// UpdateUser carries the editable profile fields. File is nil when the
// avatar stays unchanged.
type UpdateUser struct {
	UserID   string
	Name     string
	Username string
	Bio      string
	File     *FileUpload
}

// GetUsers lists profiles newest first. A limit of zero lists all.
func (s *Service) GetUsers(ctx context.Context, limit int) ([]models.UserProfile, error) {
	if limit < 0 {
		return nil, fmt.Errorf("list users: %w", ErrInvalidInput)
	}
	users, err := s.store.ListProfiles(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Service) GetUserByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("get user: %w", ErrInvalidInput)
	}
	user, err := s.store.ProfileByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return user, nil
}

// UpdateUser rewrites a profile. With a new file the upload sequence runs
// and the previous avatar file is deleted once the write succeeds.
func (s *Service) UpdateUser(ctx context.Context, u UpdateUser) (*models.UserProfile, error) {
	if u.UserID == "" {
		return nil, fmt.Errorf("update user: %w", ErrInvalidInput)
	}
	current, err := s.store.ProfileByID(ctx, u.UserID)
	if err != nil {
		return nil, fmt.Errorf("update user %s: %w", u.UserID, err)
	}

	updated := *current
	updated.Name = u.Name
	updated.Username = u.Username
	updated.Bio = u.Bio

	if u.File == nil {
		if err := s.store.UpdateProfile(ctx, &updated); err != nil {
			return nil, fmt.Errorf("update user %s: %w", u.UserID, err)
		}
		return &updated, nil
	}

	w := &imageUpload{
		svc:      s,
		op:       "updateUser",
		file:     *u.File,
		previous: current.ImageID,
		write: func(ctx context.Context, img imageRef) error {
			updated.ImageURL = img.URL
			updated.ImageID = img.ID
			return s.store.UpdateProfile(ctx, &updated)
		},
	}
	if _, err := w.run(ctx); err != nil {
		return nil, err
	}
	return &updated, nil
}
