package repository

import (
	"context"

	"factoryfeed/internal/models"

	"gorm.io/gorm"
)

// FollowRepository persists the directed follow graph.
type FollowRepository interface {
	Create(ctx context.Context, followerID, followedID uint) error
	Delete(ctx context.Context, followerID, followedID uint) (bool, error)
	Exists(ctx context.Context, followerID, followedID uint) (bool, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
	ListFollowers(ctx context.Context, userID uint) ([]models.User, error)
	ListFollowing(ctx context.Context, userID uint) ([]models.User, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository returns a gorm-backed FollowRepository.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, followerID, followedID uint) error {
	edge := models.Follow{FollowerID: followerID, FollowedID: followedID}
	if err := r.db.WithContext(ctx).Omit("Follower", "Followed").Create(&edge).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Already following this user")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Delete reports whether an edge was removed.
func (r *followRepository) Delete(ctx context.Context, followerID, followedID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "followed_id = ?", userID)
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "follower_id = ?", userID)
}

func (r *followRepository) count(ctx context.Context, where string, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where(where, userID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// ListFollowers returns the users following userID, most recent first.
func (r *followRepository) ListFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN followers ON followers.follower_id = users.id").
		Where("followers.followed_id = ?", userID).
		Order("followers.created_at DESC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// ListFollowing returns the users userID follows, most recent first.
func (r *followRepository) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN followers ON followers.followed_id = users.id").
		Where("followers.follower_id = ?", userID).
		Order("followers.created_at DESC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
