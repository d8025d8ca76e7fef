package repository

import (
	"context"
	"testing"

	"factoryfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := newUser(t, db, "alice")
	bob := newUser(t, db, "bob")
	carol := newUser(t, db, "carol")

	require.NoError(t, repo.Create(ctx, alice.ID, bob.ID))
	require.NoError(t, repo.Create(ctx, carol.ID, bob.ID))
	require.NoError(t, repo.Create(ctx, bob.ID, alice.ID))

	err := repo.Create(ctx, alice.ID, bob.ID)
	assert.True(t, models.IsCode(err, models.CodeValidation))

	ok, err := repo.Exists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	followers, err := repo.CountFollowers(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), followers)

	following, err := repo.CountFollowing(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), following)

	list, err := repo.ListFollowers(ctx, bob.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "carol"}, usernames(list))

	list, err = repo.ListFollowing(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, usernames(list))

	removed, err := repo.Delete(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}
