package service

import (
	"context"

	"factoryfeed/internal/models"
	"factoryfeed/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo   repository.UserRepository
	postRepo   repository.PostRepository
	followRepo repository.FollowRepository
}

func NewUserService(userRepo repository.UserRepository, postRepo repository.PostRepository, followRepo repository.FollowRepository) *UserService {
	return &UserService{userRepo: userRepo, postRepo: postRepo, followRepo: followRepo}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetProfile returns the user with follower, following and post counts.
// IsFollowing is filled relative to viewerID when it is non-zero.
func (s *UserService) GetProfile(ctx context.Context, id, viewerID uint) (*models.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{User: *user}
	if profile.FollowerCount, err = s.followRepo.CountFollowers(ctx, id); err != nil {
		return nil, err
	}
	if profile.FollowingCount, err = s.followRepo.CountFollowing(ctx, id); err != nil {
		return nil, err
	}
	if profile.PostCount, err = s.postRepo.CountByUser(ctx, id); err != nil {
		return nil, err
	}
	if viewerID != 0 && viewerID != id {
		if profile.IsFollowing, err = s.followRepo.Exists(ctx, viewerID, id); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

// ChangePassword replaces the password after checking the confirmation matches.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, newPassword, confirm string) error {
	if newPassword == "" {
		return models.NewValidationError("New password is required")
	}
	if newPassword != confirm {
		return models.NewValidationError("Passwords do not match")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hash)
	return s.userRepo.Update(ctx, user)
}

// UpdateProfileEmoji sets the profile emoji; only palette entries are accepted.
func (s *UserService) UpdateProfileEmoji(ctx context.Context, userID uint, emoji string) (*models.User, error) {
	if !models.IsProfileEmoji(emoji) {
		return nil, models.NewValidationError("Unsupported profile emoji")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.ProfileEmoji = emoji
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
