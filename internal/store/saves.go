package store

import (
	"context"

	"github.com/petermazzocco/snapgram/internal/backend"
	"github.com/petermazzocco/snapgram/models"
	"gorm.io/gorm"
)

func (s *Store) CreateSave(ctx context.Context, save *models.Save) error {
	return translate(s.db.WithContext(ctx).Create(save).Error)
}

func (s *Store) SaveByID(ctx context.Context, id string) (*models.Save, error) {
	var save models.Save
	if err := s.db.WithContext(ctx).First(&save, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &save, nil
}

func (s *Store) DeleteSave(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Save{}, "id = ?", id))
}

func (s *Store) SavesByUser(ctx context.Context, userID string) ([]models.Save, error) {
	var saves []models.Save
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&saves).Error
	if err != nil {
		return nil, translate(err)
	}
	if len(saves) == 0 {
		return saves, nil
	}

	ids := make([]string, 0, len(saves))
	for _, sv := range saves {
		ids = append(ids, sv.PostID)
	}
	posts, err := s.ListPosts(ctx, backend.PostQuery{IDs: ids})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Post, len(posts))
	for i := range posts {
		byID[posts[i].ID] = &posts[i]
	}
	for i := range saves {
		saves[i].Post = byID[saves[i].PostID]
	}
	return saves, nil
}

func (s *Store) RecordOrphan(ctx context.Context, orphan *models.OrphanFile) error {
	return translate(s.db.WithContext(ctx).Create(orphan).Error)
}

// ListOrphans returns the oldest ledger entries first.
func (s *Store) ListOrphans(ctx context.Context, limit int) ([]models.OrphanFile, error) {
	q := s.db.WithContext(ctx).Order("created_at ASC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var orphans []models.OrphanFile
	if err := q.Find(&orphans).Error; err != nil {
		return nil, translate(err)
	}
	return orphans, nil
}

func (s *Store) DeleteOrphan(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&models.OrphanFile{}, "id = ?", id))
}

func (s *Store) MarkOrphanAttempt(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&models.OrphanFile{}).
		Where("id = ?", id).
		Updates(map[string]any{"attempts": gorm.Expr("attempts + 1")})
	return affected(res)
}
