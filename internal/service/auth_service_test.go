package service

import (
	"context"
	"testing"

	"factoryfeed/internal/cache"
	"factoryfeed/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(noopUserRepo(), "secret")

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "   ", "pw"},
		{"empty password", "alice", ""},
		{"reserved name", models.SystemUsername, "pw"},
		{"reserved name any case", "Factory_System", "pw"},
		{"too long", string(make([]rune, 65)), "pw"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.password)
			require.Error(t, err)
			assert.True(t, models.IsCode(err, models.CodeValidation))
		})
	}
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	repo := noopUserRepo()
	repo.getByUsernameFn = func(_ context.Context, name string) (*models.User, error) {
		return &models.User{ID: 7, Username: name}, nil
	}
	svc := NewAuthService(repo, "secret")

	_, err := svc.Register(context.Background(), "alice", "pw")
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeConflict))
}

func TestAuthService_RegisterHashesAndTrims(t *testing.T) {
	var saved *models.User
	repo := noopUserRepo()
	repo.createFn = func(_ context.Context, u *models.User) error {
		u.ID = 3
		saved = u
		return nil
	}
	svc := NewAuthService(repo, "secret")

	user, err := svc.Register(context.Background(), "  alice ", "hunter2")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.DefaultProfileEmoji, user.ProfileEmoji)
	assert.NotEqual(t, "hunter2", saved.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.Password), []byte("hunter2")))
}

func TestAuthService_LoginAndAuthenticate(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	alice := s.register(t, "alice")

	res, err := s.auth.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, res.User.ID)
	assert.NotEmpty(t, res.Token)

	id, err := s.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, id)

	_, err = s.auth.Login(ctx, "alice", "wrong")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))

	_, err = s.auth.Login(ctx, "nobody", "password123")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
}

func TestAuthService_SystemUserCannotLogin(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	_, err := s.feed.SystemUser(ctx)
	require.NoError(t, err)

	_, err = s.auth.Login(ctx, models.SystemUsername, "anything")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))

	_, err = s.auth.Register(ctx, models.SystemUsername, "anything")
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	s := newStack(t)
	ctx := context.Background()
	s.register(t, "alice")
	res, err := s.auth.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	require.NoError(t, s.auth.Logout(ctx, res.Token))

	_, err = s.auth.Authenticate(ctx, res.Token)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
}

func TestAuthService_AuthenticateRejectsForeignSecret(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.register(t, "alice")
	res, err := s.auth.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	other := NewAuthService(s.users, "another-secret")
	_, err = other.Authenticate(ctx, res.Token)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
}
