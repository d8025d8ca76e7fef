package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"factoryfeed/internal/models"
	"factoryfeed/internal/repository"
	"factoryfeed/internal/testutil"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	updateFn        func(context.Context, *models.User) error
	listFn          func(context.Context, int, int) ([]models.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn: func(_ context.Context, u *models.User) error {
			u.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "user"}, nil
		},
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		updateFn:        func(_ context.Context, _ *models.User) error { return nil },
		listFn:          func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn              func(context.Context, *models.Post) error
	createRepostFn        func(context.Context, *models.Post) error
	updateImageFn         func(context.Context, uint, string) error
	getByIDFn             func(context.Context, uint, uint) (*models.Post, error)
	listFn                func(context.Context, int, int, uint) ([]*models.Post, error)
	getByUserIDFn         func(context.Context, uint, int, int, uint) ([]*models.Post, error)
	getLikedByUserFn      func(context.Context, uint, int, int, uint) ([]*models.Post, error)
	countByUserFn         func(context.Context, uint) (int64, error)
	deleteFn              func(context.Context, uint) error
	toggleLikeFn          func(context.Context, uint, uint) (models.LikeAction, int, error)
	isLikedFn             func(context.Context, uint, uint) (bool, error)
	getLikedPostIDsFn     func(context.Context, uint, []uint) ([]uint, error)
	listLikesFn           func(context.Context, uint) ([]models.Like, error)
	existsByUserBetweenFn func(context.Context, uint, time.Time, time.Time) (bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) CreateRepost(ctx context.Context, repost *models.Post) error {
	return s.createRepostFn(ctx, repost)
}
func (s *postRepoStub) UpdateImage(ctx context.Context, postID uint, path string) error {
	return s.updateImageFn(ctx, postID, path)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset, currentUserID)
}
func (s *postRepoStub) GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.getByUserIDFn(ctx, userID, limit, offset, currentUserID)
}
func (s *postRepoStub) GetLikedByUser(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.getLikedByUserFn(ctx, userID, limit, offset, currentUserID)
}
func (s *postRepoStub) CountByUser(ctx context.Context, userID uint) (int64, error) {
	return s.countByUserFn(ctx, userID)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) ToggleLike(ctx context.Context, userID, postID uint) (models.LikeAction, int, error) {
	return s.toggleLikeFn(ctx, userID, postID)
}
func (s *postRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *postRepoStub) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	return s.getLikedPostIDsFn(ctx, userID, postIDs)
}
func (s *postRepoStub) ListLikes(ctx context.Context, postID uint) ([]models.Like, error) {
	return s.listLikesFn(ctx, postID)
}
func (s *postRepoStub) ExistsByUserBetween(ctx context.Context, userID uint, from, to time.Time) (bool, error) {
	return s.existsByUserBetweenFn(ctx, userID, from, to)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = 1
			return nil
		},
		createRepostFn: func(_ context.Context, p *models.Post) error {
			p.ID = 2
			return nil
		},
		updateImageFn: func(_ context.Context, _ uint, _ string) error { return nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 1, User: models.User{ID: 1, Username: "user"}}, nil
		},
		listFn:                func(_ context.Context, _, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		getByUserIDFn:         func(_ context.Context, _ uint, _, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		getLikedByUserFn:      func(_ context.Context, _ uint, _, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		countByUserFn:         func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		deleteFn:              func(_ context.Context, _ uint) error { return nil },
		toggleLikeFn:          func(_ context.Context, _, _ uint) (models.LikeAction, int, error) { return models.LikeAdded, 1, nil },
		isLikedFn:             func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		getLikedPostIDsFn:     func(_ context.Context, _ uint, _ []uint) ([]uint, error) { return nil, nil },
		listLikesFn:           func(_ context.Context, _ uint) ([]models.Like, error) { return nil, nil },
		existsByUserBetweenFn: func(_ context.Context, _ uint, _, _ time.Time) (bool, error) { return false, nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	createFn         func(context.Context, uint, uint) error
	deleteFn         func(context.Context, uint, uint) (bool, error)
	existsFn         func(context.Context, uint, uint) (bool, error)
	countFollowersFn func(context.Context, uint) (int64, error)
	countFollowingFn func(context.Context, uint) (int64, error)
	listFollowersFn  func(context.Context, uint) ([]models.User, error)
	listFollowingFn  func(context.Context, uint) ([]models.User, error)
}

func (s *followRepoStub) Create(ctx context.Context, followerID, followedID uint) error {
	return s.createFn(ctx, followerID, followedID)
}
func (s *followRepoStub) Delete(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.deleteFn(ctx, followerID, followedID)
}
func (s *followRepoStub) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.existsFn(ctx, followerID, followedID)
}
func (s *followRepoStub) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowersFn(ctx, userID)
}
func (s *followRepoStub) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowingFn(ctx, userID)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.listFollowersFn(ctx, userID)
}
func (s *followRepoStub) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	return s.listFollowingFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn:         func(_ context.Context, _, _ uint) error { return nil },
		deleteFn:         func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		existsFn:         func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		countFollowersFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		countFollowingFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		listFollowersFn:  func(_ context.Context, _ uint) ([]models.User, error) { return nil, nil },
		listFollowingFn:  func(_ context.Context, _ uint) ([]models.User, error) { return nil, nil },
	}
}

// recordingSink captures published events.
type recordingSink struct {
	mu        sync.Mutex
	created   []uint
	deleted   []uint
	reactions []models.LikeAction
	alerts    []models.FactoryAlert
}

func (r *recordingSink) PostCreated(_ context.Context, p *models.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, p.ID)
}

func (r *recordingSink) PostDeleted(_ context.Context, id uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
}

func (r *recordingSink) PostReactionUpdated(_ context.Context, _ uint, _ int, action models.LikeAction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reactions = append(r.reactions, action)
}

func (r *recordingSink) FactoryAlert(_ context.Context, alert models.FactoryAlert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
}

func (r *recordingSink) alertTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.alerts))
	for _, a := range r.alerts {
		types = append(types, a.AlertType)
	}
	return types
}

// stack wires every service over one in-memory database.
type stack struct {
	users     repository.UserRepository
	posts     repository.PostRepository
	follows   repository.FollowRepository
	factories repository.FactoryRepository

	auth    *AuthService
	post    *PostService
	follow  *FollowService
	factory *FactoryService
	feed    *FeedService
	sink    *recordingSink
}

func newStack(t *testing.T, opts ...FactoryOption) *stack {
	t.Helper()
	db := testutil.NewSQLiteDB(t)

	s := &stack{
		users:     repository.NewUserRepository(db),
		posts:     repository.NewPostRepository(db),
		follows:   repository.NewFollowRepository(db),
		factories: repository.NewFactoryRepository(db),
		sink:      &recordingSink{},
	}
	s.auth = NewAuthService(s.users, "test-secret")
	s.post = NewPostService(s.posts, nil, s.sink)
	s.follow = NewFollowService(s.follows, s.users)
	s.factory = NewFactoryService(s.factories, opts...)
	s.feed = NewFeedService(s.users, s.posts, s.factory, s.sink)
	return s
}

func (s *stack) register(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := s.auth.Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}
