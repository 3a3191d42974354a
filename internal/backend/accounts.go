package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/petermazzocco/snapgram/internal/log"
	"github.com/petermazzocco/snapgram/models"
	"golang.org/x/crypto/bcrypt"
)

type NewUser struct {
	Name     string
	Username string
	Email    string
	Password string
}

// ProviderUser is an identity returned by an OAuth provider.
type ProviderUser struct {
	Provider  string
	UserID    string
	Email     string
	Name      string
	AvatarURL string
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPasswordHash(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// CreateUserAccount registers an account and its profile together. The
// profile starts with an initials avatar.
func (s *Service) CreateUserAccount(ctx context.Context, u NewUser) (*models.UserProfile, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if email == "" || u.Password == "" {
		return nil, fmt.Errorf("create account: %w", ErrInvalidInput)
	}

	if _, err := s.store.AccountByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("create account %s: %w", email, ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("create account: %w", err)
	}

	hash, err := HashPassword(u.Password)
	if err != nil {
		return nil, fmt.Errorf("create account: hash password: %w", err)
	}

	account := &models.Account{Name: u.Name, Email: email, PasswordHash: hash}
	profile := &models.UserProfile{
		Name:     u.Name,
		Username: u.Username,
		Email:    email,
		ImageURL: s.avatarURL(u.Name),
		Liked:    models.StringList{},
	}
	if err := s.store.CreateAccountWithProfile(ctx, account, profile); err != nil {
		return nil, fmt.Errorf("create account %s: %w", email, err)
	}
	log.Info.Printf("created account %s with profile %s", account.ID, profile.ID)
	return profile, nil
}

// SignInAccount checks the email/password pair and opens a session.
func (s *Service) SignInAccount(ctx context.Context, email, password string) (*models.Session, error) {
	account, err := s.store.AccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("sign in: %w", ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if account.PasswordHash == "" || CheckPasswordHash(account.PasswordHash, password) != nil {
		return nil, fmt.Errorf("sign in: %w", ErrUnauthorized)
	}
	return s.openSession(ctx, account.ID)
}

// SignInWithProvider opens a session for an OAuth identity, creating the
// account and profile on first login.
func (s *Service) SignInWithProvider(ctx context.Context, pu ProviderUser) (*models.Session, error) {
	if pu.Provider == "" || pu.UserID == "" {
		return nil, fmt.Errorf("provider sign in: %w", ErrInvalidInput)
	}

	account, err := s.store.AccountByProvider(ctx, pu.Provider, pu.UserID)
	switch {
	case err == nil:
		return s.openSession(ctx, account.ID)
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("provider sign in: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(pu.Email))
	if existing, err := s.store.AccountByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("provider sign in: email %s belongs to account %s: %w", email, existing.ID, ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("provider sign in: %w", err)
	}

	name := pu.Name
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	imageURL := pu.AvatarURL
	if imageURL == "" {
		imageURL = s.avatarURL(name)
	}
	username, _, _ := strings.Cut(email, "@")

	account = &models.Account{
		Name:           name,
		Email:          email,
		Provider:       pu.Provider,
		ProviderUserID: pu.UserID,
	}
	profile := &models.UserProfile{
		Name:     name,
		Username: username,
		Email:    email,
		ImageURL: imageURL,
		Liked:    models.StringList{},
	}
	if err := s.store.CreateAccountWithProfile(ctx, account, profile); err != nil {
		return nil, fmt.Errorf("provider sign in: %w", err)
	}
	log.Info.Printf("created %s account %s with profile %s", pu.Provider, account.ID, profile.ID)
	return s.openSession(ctx, account.ID)
}

func (s *Service) openSession(ctx context.Context, accountID string) (*models.Session, error) {
	session := &models.Session{AccountID: accountID, ExpiresAt: s.now().Add(s.sessionTTL)}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// GetAccount resolves a session to its account. Expired sessions are
// removed and reported as ErrUnauthorized.
func (s *Service) GetAccount(ctx context.Context, sessionID string) (*models.Account, error) {
	if sessionID == "" {
		return nil, ErrUnauthorized
	}
	session, err := s.store.SessionByID(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !s.now().Before(session.ExpiresAt) {
		if err := s.store.DeleteSession(ctx, session.ID); err != nil && !errors.Is(err, ErrNotFound) {
			log.Warn.Printf("delete expired session %s: %v", session.ID, err)
		}
		return nil, ErrUnauthorized
	}

	account, err := s.store.AccountByID(ctx, session.AccountID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// GetCurrentUser returns the profile that belongs to accountID.
func (s *Service) GetCurrentUser(ctx context.Context, accountID string) (*models.UserProfile, error) {
	profile, err := s.store.ProfileByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return profile, nil
}

func (s *Service) SignOutAccount(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}
