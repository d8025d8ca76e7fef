package service

import (
	"context"
	"log/slog"
	"strings"

	"factoryfeed/internal/middleware"
	"factoryfeed/internal/models"
	"factoryfeed/internal/observability"
	"factoryfeed/internal/repository"
)

const maxContentLen = 50000

type PostService struct {
	postRepo repository.PostRepository
	images   *ImageService
	events   EventSink
}

type CreatePostInput struct {
	UserID  uint
	Content string
	Image   *ImageUpload
}

type CreateRepostInput struct {
	UserID     uint
	OriginalID uint
	Comment    string
}

// Feed filters accepted by GetFeed.
const (
	FeedFilterAll       = "all"
	FeedFilterUsers     = "users"
	FeedFilterFactory   = "factory"
	FeedFilterEmergency = "emergency"
)

type ListPostsInput struct {
	Limit         int
	Offset        int
	CurrentUserID uint
	// Filter narrows the fetched page; empty means FeedFilterAll.
	Filter string
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	PostID    uint              `json:"post_id"`
	Action    models.LikeAction `json:"action"`
	LikeCount int               `json:"like_count"`
}

func NewPostService(postRepo repository.PostRepository, images *ImageService, events EventSink) *PostService {
	if events == nil {
		events = NopSink{}
	}
	return &PostService{postRepo: postRepo, images: images, events: events}
}

// CreatePost publishes text and/or an image. Content is trimmed; a post needs
// either non-empty content or an image. The image is validated before the post
// is written, and the post is rolled back if the image cannot be stored.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" && in.Image == nil {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}

	var prepared *PreparedImage
	if in.Image != nil {
		if s.images == nil {
			return nil, models.NewValidationError("Image uploads are not available")
		}
		var err error
		if prepared, err = s.images.Prepare(*in.Image); err != nil {
			return nil, err
		}
	}

	post := &models.Post{UserID: in.UserID, Content: content}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	if prepared != nil {
		key, err := s.images.Store(ctx, post.ID, prepared)
		if err == nil {
			if err = s.postRepo.UpdateImage(ctx, post.ID, key); err != nil {
				s.images.Remove(ctx, key)
			}
		}
		if err != nil {
			if delErr := s.postRepo.Delete(ctx, post.ID); delErr != nil {
				middleware.Logger.ErrorContext(ctx, "failed to roll back post after image error",
					slog.Uint64("post_id", uint64(post.ID)), slog.String("error", delErr.Error()))
			}
			return nil, err
		}
	}

	created, err := s.GetPost(ctx, post.ID, in.UserID)
	if err != nil {
		return nil, err
	}
	observability.PostsCreated.WithLabelValues("post").Inc()
	s.events.PostCreated(ctx, created)
	return created, nil
}

// CreateRepost shares an existing post with an optional comment.
func (s *PostService) CreateRepost(ctx context.Context, in CreateRepostInput) (*models.Post, error) {
	original := in.OriginalID
	repost := &models.Post{
		UserID:         in.UserID,
		Content:        strings.TrimSpace(in.Comment),
		IsRepost:       true,
		OriginalPostID: &original,
	}
	if err := s.postRepo.CreateRepost(ctx, repost); err != nil {
		return nil, err
	}

	created, err := s.GetPost(ctx, repost.ID, in.UserID)
	if err != nil {
		return nil, err
	}
	observability.PostsCreated.WithLabelValues("repost").Inc()
	s.events.PostCreated(ctx, created)
	return created, nil
}

// ToggleLike adds the like when absent and removes it when present.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*LikeResult, error) {
	action, count, err := s.postRepo.ToggleLike(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	s.events.PostReactionUpdated(ctx, postID, count, action)
	return &LikeResult{PostID: postID, Action: action, LikeCount: count}, nil
}

func (s *PostService) HasLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.postRepo.IsLiked(ctx, userID, postID)
}

// DeletePost removes the caller's own post together with its image.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}
	if post.HasImage && s.images != nil {
		s.images.Remove(ctx, post.ImagePath)
	}
	s.events.PostDeleted(ctx, postID)
	return nil
}

func (s *PostService) GetPost(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id, currentUserID)
	if err != nil {
		return nil, err
	}
	decorate(post)
	return post, nil
}

// GetFeed returns one page of the feed, newest first. The filter is applied to
// the fetched page, so a filtered page may hold fewer than Limit posts.
func (s *PostService) GetFeed(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	keep, err := feedFilter(in.Filter)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.List(ctx, in.Limit, in.Offset, in.CurrentUserID)
	if err != nil {
		return nil, err
	}
	decorateAll(posts)
	if keep == nil {
		return posts, nil
	}
	filtered := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		if keep(p) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func feedFilter(name string) (func(*models.Post) bool, error) {
	switch name {
	case "", FeedFilterAll:
		return nil, nil
	case FeedFilterUsers:
		return func(p *models.Post) bool { return !p.IsSystem }, nil
	case FeedFilterFactory:
		return func(p *models.Post) bool { return p.IsSystem }, nil
	case FeedFilterEmergency:
		return func(p *models.Post) bool {
			return p.IsSystem && p.Payload != nil &&
				(p.Payload.Priority == models.PriorityEmergency || p.Payload.Priority == models.PriorityHigh)
		}, nil
	default:
		return nil, models.NewValidationError("Unknown feed filter: " + name)
	}
}

func (s *PostService) GetUserPosts(ctx context.Context, userID uint, in ListPostsInput) ([]*models.Post, error) {
	posts, err := s.postRepo.GetByUserID(ctx, userID, in.Limit, in.Offset, in.CurrentUserID)
	if err != nil {
		return nil, err
	}
	return decorateAll(posts), nil
}

func (s *PostService) GetLikedPosts(ctx context.Context, userID uint, in ListPostsInput) ([]*models.Post, error) {
	posts, err := s.postRepo.GetLikedByUser(ctx, userID, in.Limit, in.Offset, in.CurrentUserID)
	if err != nil {
		return nil, err
	}
	return decorateAll(posts), nil
}

// GetPostLikes lists who liked a post, most recent first.
func (s *PostService) GetPostLikes(ctx context.Context, postID uint) ([]models.Like, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}
	return s.postRepo.ListLikes(ctx, postID)
}

// decorate fills the computed presentation fields: structured payload and system flag.
func decorate(p *models.Post) {
	if p == nil {
		return
	}
	p.Payload, _ = models.ParsePayload(p.Content)
	p.IsSystem = p.User.IsSystem()
	if p.Original != nil {
		decorate(p.Original)
	}
}

func decorateAll(posts []*models.Post) []*models.Post {
	for _, p := range posts {
		decorate(p)
	}
	return posts
}
