package seed

import (
	"context"
	"strings"
	"testing"

	"factoryfeed/internal/repository"
	"factoryfeed/internal/service"
	"factoryfeed/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeeder(t *testing.T) (*Seeder, repository.PostRepository, *service.FactoryService) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	follows := repository.NewFollowRepository(db)
	factories := service.NewFactoryService(repository.NewFactoryRepository(db))

	s := New(
		service.NewAuthService(users, "seed-secret"),
		service.NewPostService(posts, nil, nil),
		service.NewFollowService(follows, users),
		factories,
	)
	return s, posts, factories
}

func TestLoadFleet(t *testing.T) {
	fleet, err := LoadFleet(strings.NewReader(`
factories:
  - name: Alpha
    location: Ulsan
  - name: Beta
    location: Gwangju
`))
	require.NoError(t, err)
	require.Len(t, fleet.Factories, 2)
	assert.Equal(t, FleetFactory{Name: "Alpha", Location: "Ulsan"}, fleet.Factories[0])
}

func TestLoadFleet_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "factories:\n  - name: A\n    location: B\n    size: 3\n",
		"missing location": "factories:\n  - name: A\n",
		"duplicate":        "factories:\n  - name: A\n    location: B\n  - name: A\n    location: C\n",
		"not yaml":         "factories: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFleet(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFleet_Empty(t *testing.T) {
	fleet, err := LoadFleet(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, fleet.Factories)
}

func TestSeedFleet_SkipsExistingNames(t *testing.T) {
	s, _, factories := newSeeder(t)
	ctx := context.Background()

	added, err := s.SeedFleet(ctx, &DefaultFleet)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultFleet.Factories), added)

	added, err = s.SeedFleet(ctx, &DefaultFleet)
	require.NoError(t, err)
	assert.Zero(t, added)

	list, err := factories.ListFactories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(DefaultFleet.Factories))
	assert.Equal(t, "factory_001", list[0].ID)
}

func TestRun_SeedsConsistentData(t *testing.T) {
	s, posts, _ := newSeeder(t)
	ctx := context.Background()

	res, err := s.Run(ctx, Options{
		NumUsers:       3,
		NumPosts:       6,
		LikeChance:     0.5,
		FollowsPerUser: 2,
		Fleet:          &Fleet{Factories: []FleetFactory{{Name: "Gamma", Location: "Jeju"}}},
		Seed:           42,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Users)
	assert.GreaterOrEqual(t, res.Posts, 6)
	assert.Equal(t, 1, res.Factories)

	list, err := posts.List(ctx, 100, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, res.Posts)

	likes := 0
	for _, p := range list {
		rows, err := posts.ListLikes(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, len(rows), p.LikeCount, "post %d", p.ID)
		likes += len(rows)
	}
	assert.Equal(t, res.Likes, likes)
}
