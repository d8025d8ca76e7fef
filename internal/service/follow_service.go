package service

import (
	"context"

	"factoryfeed/internal/models"
	"factoryfeed/internal/repository"
)

// FollowService manages the directed follow graph between users.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo}
}

// Follow adds the follower -> followed edge. Following yourself or following
// twice is a validation error.
func (s *FollowService) Follow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return models.NewValidationError("You cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, followedID); err != nil {
		return err
	}
	already, err := s.followRepo.Exists(ctx, followerID, followedID)
	if err != nil {
		return err
	}
	if already {
		return models.NewValidationError("Already following this user")
	}
	return s.followRepo.Create(ctx, followerID, followedID)
}

// Unfollow removes the edge; removing a missing edge is a validation error.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followedID uint) error {
	removed, err := s.followRepo.Delete(ctx, followerID, followedID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewValidationError("Not following this user")
	}
	return nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.followRepo.Exists(ctx, followerID, followedID)
}

func (s *FollowService) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.CountFollowers(ctx, userID)
}

func (s *FollowService) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.CountFollowing(ctx, userID)
}

func (s *FollowService) ListFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.ListFollowers(ctx, userID)
}

func (s *FollowService) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.ListFollowing(ctx, userID)
}
