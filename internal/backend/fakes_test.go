package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/petermazzocco/snapgram/internal/log"
	"github.com/petermazzocco/snapgram/models"
)

func init() {
	log.SetOutput(io.Discard)
}

var errInjected = errors.New("injected failure")

type fakeFiles struct {
	mu sync.Mutex

	next    int
	uploads []string
	deletes []string
	live    map[string]bool

	failUpload  error
	failPreview error
	failDelete  error
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{live: map[string]bool{}}
}

func (f *fakeFiles) Upload(ctx context.Context, file FileUpload) (*models.StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpload != nil {
		return nil, f.failUpload
	}
	f.next++
	id := fmt.Sprintf("file-%d", f.next)
	f.uploads = append(f.uploads, id)
	f.live[id] = true
	return &models.StoredFile{ID: id, Name: file.Name, MimeType: file.MimeType, Size: file.Size}, nil
}

func (f *fakeFiles) PreviewURL(ctx context.Context, fileID string, opts PreviewOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPreview != nil {
		return "", f.failPreview
	}
	return fmt.Sprintf("https://cdn.test/files/%s/preview?width=%d&height=%d&gravity=%s&quality=%d",
		fileID, opts.Width, opts.Height, opts.Gravity, opts.Quality), nil
}

func (f *fakeFiles) Delete(ctx context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, fileID)
	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.live, fileID)
	return nil
}

func (f *fakeFiles) deleteCount(fileID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, id := range f.deletes {
		if id == fileID {
			n++
		}
	}
	return n
}

type fakeStore struct {
	mu sync.Mutex

	accounts map[string]*models.Account
	sessions map[string]*models.Session
	profiles map[string]*models.UserProfile
	posts    map[string]*models.Post
	saves    map[string]*models.Save
	orphans  map[string]*models.OrphanFile

	seq   int
	clock time.Time

	failCreatePost    error
	failUpdatePost    error
	failDeletePost    error
	failUpdateProfile error
	failRecordOrphan  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: map[string]*models.Account{},
		sessions: map[string]*models.Session{},
		profiles: map[string]*models.UserProfile{},
		posts:    map[string]*models.Post{},
		saves:    map[string]*models.Save{},
		orphans:  map[string]*models.OrphanFile{},
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) id(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq)
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *fakeStore) CreateAccountWithProfile(ctx context.Context, a *models.Account, p *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Email == a.Email {
			return ErrConflict
		}
	}
	a.ID = s.id("acc")
	a.CreatedAt = s.tick()
	p.ID = s.id("user")
	p.AccountID = a.ID
	p.CreatedAt = a.CreatedAt
	ac, pc := *a, *p
	s.accounts[a.ID] = &ac
	s.profiles[p.ID] = &pc
	return nil
}

func (s *fakeStore) AccountByID(ctx context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, ErrNotFound
}

func (s *fakeStore) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == email {
			c := *a
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) AccountByProvider(ctx context.Context, provider, providerUserID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Provider == provider && a.ProviderUserID == providerUserID {
			c := *a
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) CreateSession(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.ID = s.id("sess")
	c := *session
	s.sessions[session.ID] = &c
	return nil
}

func (s *fakeStore) SessionByID(ctx context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		c := *sess
		return &c, nil
	}
	return nil, ErrNotFound
}

func (s *fakeStore) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *fakeStore) ProfileByID(ctx context.Context, id string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[id]; ok {
		c := *p
		c.Liked = append(models.StringList{}, p.Liked...)
		return &c, nil
	}
	return nil, ErrNotFound
}

func (s *fakeStore) ProfileByAccount(ctx context.Context, accountID string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.AccountID == accountID {
			c := *p
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) UpdateProfile(ctx context.Context, p *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdateProfile != nil {
		return s.failUpdateProfile
	}
	if _, ok := s.profiles[p.ID]; !ok {
		return ErrNotFound
	}
	c := *p
	s.profiles[p.ID] = &c
	return nil
}

func (s *fakeStore) ListProfiles(ctx context.Context, limit int) ([]models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.UserProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) CreatePost(ctx context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreatePost != nil {
		return s.failCreatePost
	}
	p.ID = s.id("post")
	p.CreatedAt = s.tick()
	p.UpdatedAt = p.CreatedAt
	c := *p
	s.posts[p.ID] = &c
	return nil
}

func (s *fakeStore) PostByID(ctx context.Context, id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, ErrNotFound
}

func (s *fakeStore) UpdatePost(ctx context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdatePost != nil {
		return s.failUpdatePost
	}
	if _, ok := s.posts[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = s.tick()
	c := *p
	s.posts[p.ID] = &c
	return nil
}

func (s *fakeStore) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDeletePost != nil {
		return s.failDeletePost
	}
	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *fakeStore) SetPostLikes(ctx context.Context, postID string, likes []string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, ErrNotFound
	}
	old := p.Likes
	p.Likes = append(models.StringList{}, likes...)
	for _, prof := range s.profiles {
		had, has := old.Contains(prof.ID), p.Likes.Contains(prof.ID)
		switch {
		case has && !had:
			prof.Liked = append(prof.Liked, postID)
		case had && !has:
			kept := models.StringList{}
			for _, id := range prof.Liked {
				if id != postID {
					kept = append(kept, id)
				}
			}
			prof.Liked = kept
		}
	}
	c := *p
	return &c, nil
}

func (s *fakeStore) ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := func(p *models.Post) time.Time {
		if q.OrderBy == OrderUpdated {
			return p.UpdatedAt
		}
		return p.CreatedAt
	}
	var all []models.Post
	for _, p := range s.posts {
		if q.CreatorID != "" && p.CreatorID != q.CreatorID {
			continue
		}
		if len(q.IDs) > 0 && !models.StringList(q.IDs).Contains(p.ID) {
			continue
		}
		if q.CaptionContains != "" && !strings.Contains(strings.ToLower(p.Caption), strings.ToLower(q.CaptionContains)) {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool {
		ki, kj := key(&all[i]), key(&all[j])
		if !ki.Equal(kj) {
			return ki.After(kj)
		}
		return all[i].ID > all[j].ID
	})
	if q.Cursor != "" {
		for i := range all {
			if all[i].ID == q.Cursor {
				all = all[i+1:]
				break
			}
		}
	}
	if q.Limit > 0 && len(all) > q.Limit {
		all = all[:q.Limit]
	}
	return all, nil
}

func (s *fakeStore) CreateSave(ctx context.Context, sv *models.Save) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv.ID = s.id("save")
	sv.CreatedAt = s.tick()
	c := *sv
	s.saves[sv.ID] = &c
	return nil
}

func (s *fakeStore) SaveByID(ctx context.Context, id string) (*models.Save, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sv, ok := s.saves[id]; ok {
		c := *sv
		return &c, nil
	}
	return nil, ErrNotFound
}

func (s *fakeStore) DeleteSave(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.saves[id]; !ok {
		return ErrNotFound
	}
	delete(s.saves, id)
	return nil
}

func (s *fakeStore) SavesByUser(ctx context.Context, userID string) ([]models.Save, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Save
	for _, sv := range s.saves {
		if sv.UserID != userID {
			continue
		}
		c := *sv
		if p, ok := s.posts[sv.PostID]; ok {
			pc := *p
			c.Post = &pc
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *fakeStore) RecordOrphan(ctx context.Context, o *models.OrphanFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRecordOrphan != nil {
		return s.failRecordOrphan
	}
	o.ID = s.id("orphan")
	c := *o
	s.orphans[o.ID] = &c
	return nil
}

func (s *fakeStore) ListOrphans(ctx context.Context, limit int) ([]models.OrphanFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.OrphanFile
	for _, o := range s.orphans {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) DeleteOrphan(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orphans, id)
	return nil
}

func (s *fakeStore) MarkOrphanAttempt(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orphans[id]; ok {
		o.Attempts++
	}
	return nil
}

func (s *fakeStore) orphanFileIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, o := range s.orphans {
		ids = append(ids, o.FileID)
	}
	sort.Strings(ids)
	return ids
}

func upload(name string) *FileUpload {
	return &FileUpload{Name: name, MimeType: "image/jpeg", Size: 3, Body: strings.NewReader("img")}
}
