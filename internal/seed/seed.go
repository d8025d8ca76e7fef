// Package seed fills a development database with demo users, posts and a
// factory fleet. It drives the regular services so every invariant the API
// enforces also holds for seeded data.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"factoryfeed/internal/middleware"
	"factoryfeed/internal/models"
	"factoryfeed/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DemoPassword is shared by every seeded account.
const DemoPassword = "password123"

// Options configures a seeding run.
type Options struct {
	NumUsers int
	NumPosts int
	// LikeChance is the probability that a given user likes a given post.
	LikeChance float64
	// FollowsPerUser is the number of follow attempts made per user.
	FollowsPerUser int
	Fleet          *Fleet
	// Seed makes a run reproducible; zero picks a random seed.
	Seed int64
}

// Result counts what a run created.
type Result struct {
	Users     int
	Posts     int
	Likes     int
	Follows   int
	Factories int
}

type Seeder struct {
	auth      *service.AuthService
	posts     *service.PostService
	follows   *service.FollowService
	factories *service.FactoryService
}

func New(auth *service.AuthService, posts *service.PostService, follows *service.FollowService, factories *service.FactoryService) *Seeder {
	return &Seeder{auth: auth, posts: posts, follows: follows, factories: factories}
}

// Run seeds users, posts, likes, follows and the fleet, in that order.
// Factories whose name already exists are skipped, so re-running a fleet is safe.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	faker := gofakeit.New(opts.Seed)
	res := &Result{}

	middleware.Logger.Info("🌱 seeding started",
		slog.Int("users", opts.NumUsers), slog.Int("posts", opts.NumPosts))

	users, err := s.seedUsers(ctx, faker, opts.NumUsers)
	if err != nil {
		return res, err
	}
	res.Users = len(users)

	postIDs, err := s.seedPosts(ctx, faker, users, opts.NumPosts)
	if err != nil {
		return res, err
	}
	res.Posts = len(postIDs)

	if res.Likes, err = s.seedLikes(ctx, faker, users, postIDs, opts.LikeChance); err != nil {
		return res, err
	}
	if res.Follows, err = s.seedFollows(ctx, faker, users, opts.FollowsPerUser); err != nil {
		return res, err
	}

	fleet := opts.Fleet
	if fleet == nil {
		fleet = &DefaultFleet
	}
	if res.Factories, err = s.SeedFleet(ctx, fleet); err != nil {
		return res, err
	}

	middleware.Logger.Info("🎉 seeding completed",
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
		slog.Int("likes", res.Likes),
		slog.Int("follows", res.Follows),
		slog.Int("factories", res.Factories))
	return res, nil
}

func (s *Seeder) seedUsers(ctx context.Context, faker *gofakeit.Faker, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		username := fmt.Sprintf("%s%d", faker.Username(), i)
		user, err := s.auth.Register(ctx, username, DemoPassword)
		switch {
		case err == nil:
			users = append(users, user)
		case models.IsCode(err, models.CodeConflict):
			middleware.Logger.Debug("seed user exists", slog.String("username", username))
		default:
			return users, fmt.Errorf("register %s: %w", username, err)
		}
	}
	return users, nil
}

func (s *Seeder) seedPosts(ctx context.Context, faker *gofakeit.Faker, users []*models.User, count int) ([]uint, error) {
	if len(users) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, count)
	for i := 0; i < count; i++ {
		author := users[faker.Number(0, len(users)-1)]
		content := faker.Paragraph(1, faker.Number(1, 4), faker.Number(6, 14), " ")
		if faker.Number(0, 4) == 0 {
			content = faker.HackerPhrase() + " " + faker.Emoji()
		}

		post, err := s.posts.CreatePost(ctx, service.CreatePostInput{UserID: author.ID, Content: content})
		if err != nil {
			return ids, fmt.Errorf("create post: %w", err)
		}
		ids = append(ids, post.ID)

		if len(ids) > 1 && faker.Number(0, 9) == 0 {
			original := ids[faker.Number(0, len(ids)-2)]
			repost, err := s.posts.CreateRepost(ctx, service.CreateRepostInput{
				UserID:     users[faker.Number(0, len(users)-1)].ID,
				OriginalID: original,
				Comment:    faker.Sentence(6),
			})
			if err != nil {
				return ids, fmt.Errorf("create repost: %w", err)
			}
			ids = append(ids, repost.ID)
		}
	}
	return ids, nil
}

func (s *Seeder) seedLikes(ctx context.Context, faker *gofakeit.Faker, users []*models.User, postIDs []uint, chance float64) (int, error) {
	if chance <= 0 {
		return 0, nil
	}
	likes := 0
	for _, postID := range postIDs {
		for _, u := range users {
			if faker.Float64() >= chance {
				continue
			}
			res, err := s.posts.ToggleLike(ctx, u.ID, postID)
			if err != nil {
				return likes, fmt.Errorf("like post %d: %w", postID, err)
			}
			if res.Action == models.LikeAdded {
				likes++
			}
		}
	}
	return likes, nil
}

func (s *Seeder) seedFollows(ctx context.Context, faker *gofakeit.Faker, users []*models.User, perUser int) (int, error) {
	if len(users) < 2 || perUser <= 0 {
		return 0, nil
	}
	follows := 0
	for _, u := range users {
		for i := 0; i < perUser; i++ {
			target := users[faker.Number(0, len(users)-1)]
			if target.ID == u.ID {
				continue
			}
			err := s.follows.Follow(ctx, u.ID, target.ID)
			switch {
			case err == nil:
				follows++
			case models.IsCode(err, models.CodeValidation):
				// already following
			default:
				return follows, fmt.Errorf("follow %d -> %d: %w", u.ID, target.ID, err)
			}
		}
	}
	return follows, nil
}

// SeedFleet registers every fleet factory that does not exist yet and
// returns how many were added.
func (s *Seeder) SeedFleet(ctx context.Context, fleet *Fleet) (int, error) {
	existing, err := s.factories.ListFactories(ctx)
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, f := range existing {
		have[f.Name] = true
	}

	added := 0
	for _, f := range fleet.Factories {
		if have[f.Name] {
			continue
		}
		created, err := s.factories.AddFactory(ctx, f.Name, f.Location)
		if err != nil {
			return added, fmt.Errorf("add factory %s: %w", f.Name, err)
		}
		have[f.Name] = true
		added++
		middleware.Logger.Info("factory seeded",
			slog.String("factory_id", created.ID), slog.String("name", created.Name))
	}
	return added, nil
}
