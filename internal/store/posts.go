package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/petermazzocco/snapgram/internal/backend"
	"github.com/petermazzocco/snapgram/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	return translate(s.db.WithContext(ctx).Omit("Creator").Create(post).Error)
}

func (s *Store) PostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("Creator").First(&post, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// UpdatePost writes the editable post columns. There is no version check;
// concurrent updates are last write wins.
func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]any{
			"caption":    post.Caption,
			"image_url":  post.ImageURL,
			"image_id":   post.ImageID,
			"location":   post.Location,
			"tags":       post.Tags,
			"updated_at": post.UpdatedAt,
		})
	return affected(res)
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id))
}

func (s *Store) SetPostLikes(ctx context.Context, postID string, likes []string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&post, "id = ?", postID).Error; err != nil {
			return err
		}

		before, after := post.Likes, models.StringList(likes)
		if err := tx.Model(&post).Update("likes", after).Error; err != nil {
			return err
		}

		for _, userID := range distinct(append(append([]string{}, before...), after...)) {
			had, has := before.Contains(userID), after.Contains(userID)
			if had == has {
				continue
			}
			if err := mirrorLiked(tx, userID, postID, has); err != nil {
				return err
			}
		}

		return tx.Preload("Creator").First(&post, "id = ?", postID).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// mirrorLiked adds postID to or removes it from the profile's liked list.
// Like entries naming no profile are ignored.
func mirrorLiked(tx *gorm.DB, userID, postID string, liked bool) error {
	var profile models.UserProfile
	err := tx.Select("id", "liked").First(&profile, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	next := models.StringList{}
	for _, id := range profile.Liked {
		if id != postID {
			next = append(next, id)
		}
	}
	if liked {
		next = append(next, postID)
	}
	return tx.Model(&models.UserProfile{}).Where("id = ?", userID).UpdateColumn("liked", next).Error
}

func distinct(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (s *Store) ListPosts(ctx context.Context, pq backend.PostQuery) ([]models.Post, error) {
	col := "created_at"
	if pq.OrderBy == backend.OrderUpdated {
		col = "updated_at"
	}

	q := s.db.WithContext(ctx).Model(&models.Post{}).Preload("Creator")
	if pq.CreatorID != "" {
		q = q.Where("creator_id = ?", pq.CreatorID)
	}
	if len(pq.IDs) > 0 {
		q = q.Where("id IN ?", distinct(pq.IDs))
	}
	if pq.CaptionContains != "" {
		q = q.Where(`LOWER(caption) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(pq.CaptionContains))+"%")
	}

	if pq.Cursor != "" {
		var cursor models.Post
		err := s.db.WithContext(ctx).Select("id", "created_at", "updated_at").First(&cursor, "id = ?", pq.Cursor).Error
		if err != nil {
			return nil, fmt.Errorf("cursor %s: %w", pq.Cursor, translate(err))
		}
		at := cursor.CreatedAt
		if pq.OrderBy == backend.OrderUpdated {
			at = cursor.UpdatedAt
		}
		q = q.Where(fmt.Sprintf("((%[1]s < ?) OR (%[1]s = ? AND id < ?))", col), at, at, cursor.ID)
	}

	q = q.Order(col + " DESC").Order("id DESC")
	if pq.Limit > 0 {
		q = q.Limit(pq.Limit)
	}

	posts := []models.Post{}
	if err := q.Find(&posts).Error; err != nil {
		return nil, translate(err)
	}
	return posts, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
