package store

import (
	"context"

	"github.com/petermazzocco/snapgram/models"
	"gorm.io/gorm"
)

func (s *Store) CreateAccountWithProfile(ctx context.Context, account *models.Account, profile *models.UserProfile) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		profile.AccountID = account.ID
		return tx.Create(profile).Error
	})
	return translate(err)
}

func (s *Store) AccountByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (s *Store) AccountByProvider(ctx context.Context, provider, providerUserID string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).
		Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&account).Error
	if err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	return translate(s.db.WithContext(ctx).Create(session).Error)
}

func (s *Store) SessionByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Session{}, "id = ?", id))
}

func (s *Store) ProfileByID(ctx context.Context, id string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (s *Store) ProfileByAccount(ctx context.Context, accountID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

// UpdateProfile writes the editable profile columns. Last write wins.
func (s *Store) UpdateProfile(ctx context.Context, profile *models.UserProfile) error {
	res := s.db.WithContext(ctx).Model(&models.UserProfile{}).
		Where("id = ?", profile.ID).
		Updates(map[string]any{
			"name":      profile.Name,
			"username":  profile.Username,
			"bio":       profile.Bio,
			"image_url": profile.ImageURL,
			"image_id":  profile.ImageID,
		})
	return affected(res)
}

func (s *Store) ListProfiles(ctx context.Context, limit int) ([]models.UserProfile, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var profiles []models.UserProfile
	if err := q.Find(&profiles).Error; err != nil {
		return nil, translate(err)
	}
	return profiles, nil
}
