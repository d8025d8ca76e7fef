package repository

import (
	"context"
	"errors"
	"time"

	"factoryfeed/internal/cache"
	"factoryfeed/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	CreateRepost(ctx context.Context, repost *models.Post) error
	UpdateImage(ctx context.Context, postID uint, path string) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, error)
	GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error)
	GetLikedByUser(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, id uint) error
	ToggleLike(ctx context.Context, userID, postID uint) (models.LikeAction, int, error)
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	ListLikes(ctx context.Context, postID uint) ([]models.Like, error)
	ExistsByUserBetween(ctx context.Context, userID uint, from, to time.Time) (bool, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePosts(ctx)
	return nil
}

// CreateRepost inserts the repost and bumps the original's repost_count in one transaction.
func (r *postRepository) CreateRepost(ctx context.Context, repost *models.Post) error {
	if repost.OriginalPostID == nil {
		return models.NewValidationError("Original post is required")
	}
	originalID := *repost.OriginalPostID
	repost.IsRepost = true

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var original models.Post
		if err := tx.Select("id").First(&original, originalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", originalID)
			}
			return err
		}
		if err := tx.Omit("User").Create(repost).Error; err != nil {
			return err
		}
		return syncRepostCount(tx, originalID)
	})
	if err != nil {
		return asAppError(err)
	}
	cache.InvalidatePosts(ctx, originalID)
	return nil
}

func (r *postRepository) UpdateImage(ctx context.Context, postID uint, path string) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).
		Updates(map[string]any{"has_image": true, "image_path": path})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", postID)
	}
	cache.InvalidatePosts(ctx, postID)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	// Only the post row is cached. The owner and the reposted original change
	// under other keys, so they are resolved on every read.
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	post.User = models.User{}
	post.Original = nil
	if err := r.db.WithContext(ctx).First(&post.User, post.UserID).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.attachOriginals(ctx, []*models.Post{&post}); err != nil {
		return nil, err
	}

	if err := r.markLiked(ctx, []*models.Post{&post}, currentUserID); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	limit = clampLimit(limit, 20, 100)

	var posts []*models.Post
	err := cache.Aside(ctx, cache.FeedListKey(ctx, limit, offset), &posts, cache.ListTTL, func() error {
		return r.find(ctx, r.db.WithContext(ctx), limit, offset, &posts)
	})
	if err != nil {
		return nil, err
	}
	return posts, r.markLiked(ctx, posts, currentUserID)
}

func (r *postRepository) GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	var posts []*models.Post
	q := r.db.WithContext(ctx).Where("posts.user_id = ?", userID)
	if err := r.find(ctx, q, clampLimit(limit, 20, 100), offset, &posts); err != nil {
		return nil, err
	}
	return posts, r.markLiked(ctx, posts, currentUserID)
}

func (r *postRepository) GetLikedByUser(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	var posts []*models.Post
	q := r.db.WithContext(ctx).
		Joins("JOIN likes ON likes.post_id = posts.id AND likes.user_id = ?", userID)
	if err := r.find(ctx, q, clampLimit(limit, 20, 100), offset, &posts); err != nil {
		return nil, err
	}
	return posts, r.markLiked(ctx, posts, currentUserID)
}

// find loads a most-recent-first page of posts with their owners and reposted originals.
func (r *postRepository) find(ctx context.Context, q *gorm.DB, limit, offset int, dest *[]*models.Post) error {
	if err := q.Preload("User").
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(dest).Error; err != nil {
		return models.NewInternalError(err)
	}
	return r.attachOriginals(ctx, *dest)
}

func (r *postRepository) attachOriginals(ctx context.Context, posts []*models.Post) error {
	ids := make([]uint, 0)
	for _, p := range posts {
		if p.OriginalPostID != nil {
			ids = append(ids, *p.OriginalPostID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var originals []*models.Post
	if err := r.db.WithContext(ctx).Preload("User").Where("id IN ?", ids).Find(&originals).Error; err != nil {
		return models.NewInternalError(err)
	}
	byID := make(map[uint]*models.Post, len(originals))
	for _, o := range originals {
		byID[o.ID] = o
	}
	for _, p := range posts {
		if p.OriginalPostID != nil {
			p.Original = byID[*p.OriginalPostID]
		}
	}
	return nil
}

func (r *postRepository) markLiked(ctx context.Context, posts []*models.Post, currentUserID uint) error {
	if currentUserID == 0 || len(posts) == 0 {
		return nil
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	liked, err := r.GetLikedPostIDs(ctx, currentUserID, ids)
	if err != nil {
		return err
	}
	set := make(map[uint]bool, len(liked))
	for _, id := range liked {
		set[id] = true
	}
	for _, p := range posts {
		p.Liked = set[p.ID]
	}
	return nil
}

func (r *postRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// Delete removes the post and its likes, detaches reposts that pointed at it,
// and re-derives the original's repost_count when the post was itself a repost.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	var invalidate []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", id)
			}
			return err
		}

		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}

		var reposts []uint
		if err := tx.Model(&models.Post{}).Where("original_post_id = ?", id).Pluck("id", &reposts).Error; err != nil {
			return err
		}
		if len(reposts) > 0 {
			if err := tx.Model(&models.Post{}).Where("id IN ?", reposts).
				Update("original_post_id", nil).Error; err != nil {
				return err
			}
		}

		if err := tx.Delete(&models.Post{}, id).Error; err != nil {
			return err
		}

		invalidate = append(reposts, id)
		if post.IsRepost && post.OriginalPostID != nil {
			invalidate = append(invalidate, *post.OriginalPostID)
			return syncRepostCount(tx, *post.OriginalPostID)
		}
		return nil
	})
	if err != nil {
		return asAppError(err)
	}
	cache.InvalidatePosts(ctx, invalidate...)
	return nil
}

// ToggleLike flips the (user, post) like and re-derives like_count in the same
// transaction, so the counter always equals the number of like rows.
func (r *postRepository) ToggleLike(ctx context.Context, userID, postID uint) (models.LikeAction, int, error) {
	var action models.LikeAction
	var count int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", postID)
			}
			return err
		}

		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			action = models.LikeRemoved
		} else {
			if err := tx.Omit("User").Create(&models.Like{UserID: userID, PostID: postID}).Error; err != nil {
				if isUniqueConstraintError(err) {
					return models.NewConflictError("Like is already being toggled")
				}
				return err
			}
			action = models.LikeAdded
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("(SELECT COUNT(*) FROM likes WHERE likes.post_id = ?)", postID)).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).Pluck("like_count", &count).Error
	})
	if err != nil {
		return "", 0, asAppError(err)
	}

	cache.InvalidatePosts(ctx, postID)
	return action, count, nil
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var likedPostIDs []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &likedPostIDs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return likedPostIDs, nil
}

func (r *postRepository) ListLikes(ctx context.Context, postID uint) ([]models.Like, error) {
	var likes []models.Like
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Find(&likes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return likes, nil
}

// ExistsByUserBetween reports whether userID authored a post with created_at in [from, to).
func (r *postRepository) ExistsByUserBetween(ctx context.Context, userID uint, from, to time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from.Local(), to.Local()).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func syncRepostCount(tx *gorm.DB, originalID uint) error {
	return tx.Model(&models.Post{}).Where("id = ?", originalID).
		UpdateColumn("repost_count", gorm.Expr(
			"(SELECT COUNT(*) FROM posts AS reposts WHERE reposts.original_post_id = ? AND reposts.is_repost = ?)",
			originalID, true,
		)).Error
}

// asAppError passes AppErrors through and wraps anything else as internal.
func asAppError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
