package service

import (
	"context"
	"testing"

	"factoryfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	var updated *models.User
	users := noopUserRepo()
	users.updateFn = func(_ context.Context, u *models.User) error {
		updated = u
		return nil
	}
	svc := NewUserService(users, noopPostRepo(), noopFollowRepo())

	err := svc.ChangePassword(ctx, 1, "", "")
	assert.True(t, models.IsCode(err, models.CodeValidation))

	err = svc.ChangePassword(ctx, 1, "new-pass", "other")
	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.Nil(t, updated)

	require.NoError(t, svc.ChangePassword(ctx, 1, "new-pass", "new-pass"))
	require.NotNil(t, updated)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("new-pass")))
}

func TestUserService_ChangePasswordThenLogin(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	alice := s.register(t, "alice")
	svc := NewUserService(s.users, s.posts, s.follows)

	require.NoError(t, svc.ChangePassword(ctx, alice.ID, "rotated", "rotated"))

	_, err := s.auth.Login(ctx, "alice", "password123")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
	_, err = s.auth.Login(ctx, "alice", "rotated")
	assert.NoError(t, err)
}

func TestUserService_UpdateProfileEmoji(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(noopUserRepo(), noopPostRepo(), noopFollowRepo())

	_, err := svc.UpdateProfileEmoji(ctx, 1, "not-an-emoji")
	assert.True(t, models.IsCode(err, models.CodeValidation))

	user, err := svc.UpdateProfileEmoji(ctx, 1, "🚀")
	require.NoError(t, err)
	assert.Equal(t, "🚀", user.ProfileEmoji)
}

func TestUserService_GetProfileCounts(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")
	carol := s.register(t, "carol")

	require.NoError(t, s.follow.Follow(ctx, bob.ID, alice.ID))
	require.NoError(t, s.follow.Follow(ctx, carol.ID, alice.ID))
	require.NoError(t, s.follow.Follow(ctx, alice.ID, bob.ID))
	_, err := s.post.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "hello"})
	require.NoError(t, err)

	svc := NewUserService(s.users, s.posts, s.follows)
	profile, err := svc.GetProfile(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, profile.FollowerCount)
	assert.EqualValues(t, 1, profile.FollowingCount)
	assert.EqualValues(t, 1, profile.PostCount)
	assert.True(t, profile.IsFollowing)

	_, err = svc.GetProfile(ctx, 999, 0)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
