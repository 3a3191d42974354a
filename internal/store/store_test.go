package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/petermazzocco/snapgram/internal/backend"
	"github.com/petermazzocco/snapgram/models"
	"gorm.io/driver/sqlite"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	s, err := Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	sqlDB, err := s.DB().DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return s
}

func createProfile(t *testing.T, s *Store, email string) *models.UserProfile {
	t.Helper()
	account := &models.Account{Name: "Ann", Email: email}
	profile := &models.UserProfile{Name: "Ann", Username: "ann", Email: email, Liked: models.StringList{}}
	if err := s.CreateAccountWithProfile(context.Background(), account, profile); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return profile
}

func createPost(t *testing.T, s *Store, creatorID, caption string, at time.Time) *models.Post {
	t.Helper()
	post := &models.Post{
		CreatorID: creatorID,
		Caption:   caption,
		ImageID:   "img-" + caption,
		CreatedAt: at,
		UpdatedAt: at,
		Tags:      models.StringList{},
		Likes:     models.StringList{},
	}
	if err := s.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func postIDs(posts []models.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestAccountsAndProfiles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	profile := createProfile(t, s, "ann@example.com")

	account, err := s.AccountByEmail(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("account by email: %v", err)
	}
	if profile.AccountID != account.ID {
		t.Fatalf("profile account %q != %q", profile.AccountID, account.ID)
	}

	dup := &models.Account{Name: "Ann", Email: "ann@example.com"}
	err = s.CreateAccountWithProfile(ctx, dup, &models.UserProfile{Name: "Ann", Email: "ann@example.com"})
	if !errors.Is(err, backend.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if _, err := s.AccountByEmail(ctx, "nobody@example.com"); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	profile.Bio = "hello there"
	profile.ImageID = "avatar-1"
	if err := s.UpdateProfile(ctx, profile); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	got, err := s.ProfileByAccount(ctx, account.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Bio != "hello there" || got.ImageID != "avatar-1" {
		t.Fatalf("profile not updated: %+v", got)
	}

	if err := s.UpdateProfile(ctx, &models.UserProfile{ID: "missing"}); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	profile := createProfile(t, s, "ann@example.com")

	session := &models.Session{AccountID: profile.AccountID, ExpiresAt: time.Now().Add(time.Hour)}
	if err := s.CreateSession(ctx, session); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SessionByID(ctx, session.ID); err != nil {
		t.Fatalf("session by id: %v", err)
	}
	if err := s.DeleteSession(ctx, session.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteSession(ctx, session.ID); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListPostsCursorPagesMatchFullListing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	creator := createProfile(t, s, "ann@example.com")

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		// groups of three share a timestamp so the id tie-break is exercised
		createPost(t, s, creator.ID, fmt.Sprintf("post %02d", i), base.Add(time.Duration(i/3)*time.Minute))
	}

	for _, order := range []backend.PostOrder{backend.OrderCreated, backend.OrderUpdated} {
		all, err := s.ListPosts(ctx, backend.PostQuery{OrderBy: order})
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 25 {
			t.Fatalf("expected 25 posts, got %d", len(all))
		}

		var paged []string
		cursor := ""
		for pages := 0; pages < 10; pages++ {
			page, err := s.ListPosts(ctx, backend.PostQuery{OrderBy: order, Cursor: cursor, Limit: 10})
			if err != nil {
				t.Fatal(err)
			}
			paged = append(paged, postIDs(page)...)
			if len(page) < 10 {
				break
			}
			cursor = page[len(page)-1].ID
		}

		if diff := cmp.Diff(postIDs(all), paged); diff != "" {
			t.Fatalf("order %d: paged listing differs (-all +paged):\n%s", order, diff)
		}
	}
}

func TestListPostsUnknownCursor(t *testing.T) {
	s := openTestStore(t)
	_, err := s.ListPosts(context.Background(), backend.PostQuery{Cursor: "missing", Limit: 10})
	if !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchMatchesCaptionOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	creator := createProfile(t, s, "ann@example.com")
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	sunset := createPost(t, s, creator.ID, "Sunset at the Beach", at)
	createPost(t, s, creator.ID, "Morning coffee", at.Add(time.Minute))
	discount := createPost(t, s, creator.ID, "100% sunny", at.Add(2*time.Minute))

	got, err := s.ListPosts(ctx, backend.PostQuery{CaptionContains: "beach"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{sunset.ID}, postIDs(got)); diff != "" {
		t.Fatalf("search mismatch (-want +got):\n%s", diff)
	}

	got, err = s.ListPosts(ctx, backend.PostQuery{CaptionContains: "0%"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{discount.ID}, postIDs(got)); diff != "" {
		t.Fatalf("escaped search mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateAndDeletePost(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	creator := createProfile(t, s, "ann@example.com")
	post := createPost(t, s, creator.ID, "first", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	post.Caption = "edited"
	post.Tags = models.StringList{"a", "b"}
	if err := s.UpdatePost(ctx, post); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.PostByID(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Caption != "edited" || got.Creator == nil || got.Creator.ID != creator.ID {
		t.Fatalf("unexpected post: %+v", got)
	}
	if diff := cmp.Diff([]string{"a", "b"}, []string(got.Tags)); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}

	if err := s.DeletePost(ctx, post.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeletePost(ctx, post.ID); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdatePost(ctx, post); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetPostLikesMirrorsLiked(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ann := createProfile(t, s, "ann@example.com")
	bob := createProfile(t, s, "bob@example.com")
	post := createPost(t, s, ann.ID, "likeable", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	got, err := s.SetPostLikes(ctx, post.ID, []string{bob.ID, bob.ID, "ghost"})
	if err != nil {
		t.Fatalf("set likes: %v", err)
	}
	if diff := cmp.Diff([]string{bob.ID, bob.ID, "ghost"}, []string(got.Likes)); diff != "" {
		t.Fatalf("likes mismatch (-want +got):\n%s", diff)
	}
	bobProfile, err := s.ProfileByID(ctx, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{post.ID}, []string(bobProfile.Liked)); diff != "" {
		t.Fatalf("liked mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.SetPostLikes(ctx, post.ID, []string{ann.ID}); err != nil {
		t.Fatal(err)
	}
	bobProfile, _ = s.ProfileByID(ctx, bob.ID)
	annProfile, _ := s.ProfileByID(ctx, ann.ID)
	if len(bobProfile.Liked) != 0 {
		t.Fatalf("expected bob's like removed, got %v", bobProfile.Liked)
	}
	if diff := cmp.Diff([]string{post.ID}, []string(annProfile.Liked)); diff != "" {
		t.Fatalf("ann liked mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.SetPostLikes(ctx, "missing", nil); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSavesByUserLeavesDanglingPostNil(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ann := createProfile(t, s, "ann@example.com")
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	kept := createPost(t, s, ann.ID, "kept", at)
	gone := createPost(t, s, ann.ID, "gone", at.Add(time.Minute))

	for _, p := range []*models.Post{kept, gone} {
		if err := s.CreateSave(ctx, &models.Save{UserID: ann.ID, PostID: p.ID}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.DeletePost(ctx, gone.ID); err != nil {
		t.Fatal(err)
	}

	saves, err := s.SavesByUser(ctx, ann.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(saves) != 2 {
		t.Fatalf("expected both saves to remain, got %d", len(saves))
	}
	for _, sv := range saves {
		switch sv.PostID {
		case kept.ID:
			if sv.Post == nil {
				t.Fatalf("expected live post attached")
			}
		case gone.ID:
			if sv.Post != nil {
				t.Fatalf("expected no post for deleted post")
			}
		}
	}
}

func TestOrphanLedger(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	o := &models.OrphanFile{FileID: "f1", Reason: "test", Attempts: 1}
	if err := s.RecordOrphan(ctx, o); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkOrphanAttempt(ctx, o.ID); err != nil {
		t.Fatal(err)
	}
	list, err := s.ListOrphans(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Attempts != 2 {
		t.Fatalf("unexpected ledger: %+v", list)
	}
	if err := s.DeleteOrphan(ctx, o.ID); err != nil {
		t.Fatal(err)
	}
	if list, _ := s.ListOrphans(ctx, 10); len(list) != 0 {
		t.Fatalf("expected empty ledger, got %+v", list)
	}
}
