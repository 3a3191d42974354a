package backend

import (
	"context"
	"fmt"

	"github.com/petermazzocco/snapgram/internal/log"
	"github.com/petermazzocco/snapgram/models"
)

// SavePost bookmarks postID for userID. The post must exist.
func (s *Service) SavePost(ctx context.Context, userID, postID string) (*models.Save, error) {
	if userID == "" || postID == "" {
		return nil, fmt.Errorf("save post: %w", ErrInvalidInput)
	}
	if _, err := s.store.PostByID(ctx, postID); err != nil {
		return nil, fmt.Errorf("save post %s: %w", postID, err)
	}

	save := &models.Save{UserID: userID, PostID: postID}
	if err := s.store.CreateSave(ctx, save); err != nil {
		return nil, fmt.Errorf("save post %s: %w", postID, err)
	}
	return save, nil
}

func (s *Service) GetSave(ctx context.Context, saveID string) (*models.Save, error) {
	if saveID == "" {
		return nil, fmt.Errorf("get save: %w", ErrInvalidInput)
	}
	save, err := s.store.SaveByID(ctx, saveID)
	if err != nil {
		return nil, fmt.Errorf("get save %s: %w", saveID, err)
	}
	return save, nil
}

// DeleteSavedPost removes a save and returns the record it removed.
func (s *Service) DeleteSavedPost(ctx context.Context, saveID string) (*models.Save, error) {
	if saveID == "" {
		return nil, fmt.Errorf("delete save: %w", ErrInvalidInput)
	}
	save, err := s.store.SaveByID(ctx, saveID)
	if err != nil {
		return nil, fmt.Errorf("delete save %s: %w", saveID, err)
	}
	if err := s.store.DeleteSave(ctx, saveID); err != nil {
		return nil, fmt.Errorf("delete save %s: %w", saveID, err)
	}
	return save, nil
}

// GetSavedPosts returns the user's saves whose post still exists. Saves
// left behind by a deleted post are skipped, not removed.
func (s *Service) GetSavedPosts(ctx context.Context, userID string) ([]models.Save, error) {
	if userID == "" {
		return nil, fmt.Errorf("saved posts: %w", ErrInvalidInput)
	}
	saves, err := s.store.SavesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("saved posts %s: %w", userID, err)
	}

	live := make([]models.Save, 0, len(saves))
	for _, sv := range saves {
		if sv.Post == nil {
			log.Warn.Printf("save %s references missing post %s", sv.ID, sv.PostID)
			continue
		}
		live = append(live, sv)
	}
	return live, nil
}
