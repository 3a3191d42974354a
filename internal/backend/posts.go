package backend

import (
	"context"
	"fmt"

	"github.com/petermazzocco/snapgram/internal/log"
	"github.com/petermazzocco/snapgram/models"
)

type NewPost struct {
	CreatorID string
	Caption   string
	Location  string
	Tags      string
	File      *FileUpload
}

// UpdatePost carries the editable fields of a post. File is nil when the
// image stays unchanged.
type UpdatePost struct {
	PostID   string
	Caption  string
	Location string
	Tags     string
	File     *FileUpload
}

// CreatePost uploads the image and writes the post. The uploaded file is
// removed again if the preview or the record write fails.
func (s *Service) CreatePost(ctx context.Context, p NewPost) (*models.Post, error) {
	if p.CreatorID == "" || p.File == nil {
		return nil, fmt.Errorf("create post: %w", ErrInvalidInput)
	}

	var post *models.Post
	w := &imageUpload{
		svc:  s,
		op:   "createPost",
		file: *p.File,
		write: func(ctx context.Context, img imageRef) error {
			post = &models.Post{
				CreatorID: p.CreatorID,
				Caption:   p.Caption,
				ImageURL:  img.URL,
				ImageID:   img.ID,
				Location:  p.Location,
				Tags:      NormalizeTags(p.Tags),
				Likes:     models.StringList{},
			}
			return s.store.CreatePost(ctx, post)
		},
	}
	if _, err := w.run(ctx); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdatePost rewrites a post. With a new file the upload sequence runs and
// the image it replaces is deleted after the write succeeds.
func (s *Service) UpdatePost(ctx context.Context, p UpdatePost) (*models.Post, error) {
	if p.PostID == "" {
		return nil, fmt.Errorf("update post: %w", ErrInvalidInput)
	}
	current, err := s.store.PostByID(ctx, p.PostID)
	if err != nil {
		return nil, fmt.Errorf("update post %s: %w", p.PostID, err)
	}

	updated := *current
	updated.Caption = p.Caption
	updated.Location = p.Location
	updated.Tags = NormalizeTags(p.Tags)

	if p.File == nil {
		if err := s.store.UpdatePost(ctx, &updated); err != nil {
			return nil, fmt.Errorf("update post %s: %w", p.PostID, err)
		}
		return &updated, nil
	}

	w := &imageUpload{
		svc:      s,
		op:       "updatePost",
		file:     *p.File,
		previous: current.ImageID,
		write: func(ctx context.Context, img imageRef) error {
			updated.ImageURL = img.URL
			updated.ImageID = img.ID
			return s.store.UpdatePost(ctx, &updated)
		},
	}
	if _, err := w.run(ctx); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePost removes the post record and then its image. The image is kept
// when the record delete fails. Saves of the post are left in place.
func (s *Service) DeletePost(ctx context.Context, postID, imageID string) error {
	if postID == "" || imageID == "" {
		return fmt.Errorf("delete post: %w", ErrInvalidInput)
	}
	if err := s.store.DeletePost(ctx, postID); err != nil {
		return fmt.Errorf("delete post %s: %w", postID, err)
	}
	if err := s.discardFile(ctx, imageID, "deletePost: "+postID); err != nil {
		log.Warn.Printf("delete post %s: %v", postID, err)
	}
	log.Info.Printf("deleted post %s", postID)
	return nil
}

func (s *Service) GetPostByID(ctx context.Context, postID string) (*models.Post, error) {
	if postID == "" {
		return nil, fmt.Errorf("get post: %w", ErrInvalidInput)
	}
	post, err := s.store.PostByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", postID, err)
	}
	return post, nil
}

// GetRecentPosts returns the newest posts by creation time.
func (s *Service) GetRecentPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.store.ListPosts(ctx, PostQuery{OrderBy: OrderCreated, Limit: RecentPostsLimit})
	if err != nil {
		return nil, fmt.Errorf("recent posts: %w", err)
	}
	return posts, nil
}

// GetInfinitePosts returns one page of posts ordered by last update. An
// empty cursor requests the first page.
func (s *Service) GetInfinitePosts(ctx context.Context, cursor string) ([]models.Post, error) {
	posts, err := s.store.ListPosts(ctx, PostQuery{
		OrderBy: OrderUpdated,
		Cursor:  cursor,
		Limit:   InfinitePageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("infinite posts after %q: %w", cursor, err)
	}
	return posts, nil
}

// SearchPosts matches term against captions only.
func (s *Service) SearchPosts(ctx context.Context, term string) ([]models.Post, error) {
	if term == "" {
		return []models.Post{}, nil
	}
	posts, err := s.store.ListPosts(ctx, PostQuery{OrderBy: OrderCreated, CaptionContains: term})
	if err != nil {
		return nil, fmt.Errorf("search posts %q: %w", term, err)
	}
	return posts, nil
}

func (s *Service) GetUserPosts(ctx context.Context, userID string) ([]models.Post, error) {
	if userID == "" {
		return nil, fmt.Errorf("user posts: %w", ErrInvalidInput)
	}
	posts, err := s.store.ListPosts(ctx, PostQuery{OrderBy: OrderCreated, CreatorID: userID})
	if err != nil {
		return nil, fmt.Errorf("user posts %s: %w", userID, err)
	}
	return posts, nil
}

// GetLikedPosts lists the posts in the profile's liked list that still
// exist.
func (s *Service) GetLikedPosts(ctx context.Context, userID string) ([]models.Post, error) {
	profile, err := s.store.ProfileByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("liked posts %s: %w", userID, err)
	}
	if len(profile.Liked) == 0 {
		return []models.Post{}, nil
	}
	posts, err := s.store.ListPosts(ctx, PostQuery{OrderBy: OrderCreated, IDs: profile.Liked})
	if err != nil {
		return nil, fmt.Errorf("liked posts %s: %w", userID, err)
	}
	return posts, nil
}

// LikePost stores likes as the post's complete likes list. Duplicate ids
// are kept as given.
func (s *Service) LikePost(ctx context.Context, postID string, likes []string) (*models.Post, error) {
	if postID == "" {
		return nil, fmt.Errorf("like post: %w", ErrInvalidInput)
	}
	if likes == nil {
		likes = []string{}
	}
	post, err := s.store.SetPostLikes(ctx, postID, likes)
	if err != nil {
		return nil, fmt.Errorf("like post %s: %w", postID, err)
	}
	return post, nil
}
