package repository

import (
	"context"
	"fmt"
	"testing"

	"factoryfeed/internal/models"
	"factoryfeed/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Password: "hash", ProfileEmoji: models.DefaultProfileEmoji}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func newPost(t *testing.T, db *gorm.DB, user *models.User, content string) *models.Post {
	t.Helper()
	p := &models.Post{UserID: user.ID, Content: content}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), p))
	return p
}

func setupDB(t *testing.T) *gorm.DB {
	return testutil.NewSQLiteDB(t)
}

func usernames(users []models.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Username
	}
	return out
}

func factoryID(n int) string {
	return fmt.Sprintf("factory_%03d", n)
}
