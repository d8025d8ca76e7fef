// Package server contains the HTTP and WebSocket handlers of the API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "factoryfeed/docs" // swagger docs
	"factoryfeed/internal/cache"
	"factoryfeed/internal/config"
	"factoryfeed/internal/database"
	"factoryfeed/internal/featureflags"
	"factoryfeed/internal/middleware"
	"factoryfeed/internal/models"
	"factoryfeed/internal/notifications"
	"factoryfeed/internal/repository"
	"factoryfeed/internal/service"
	"factoryfeed/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the connections a Server is built on. Redis and NATS are optional.
type Deps struct {
	DB    *gorm.DB
	Redis *redis.Client
	Store storage.ObjectStore
	NATS  *nats.Conn
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	nats           *nats.Conn
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	monitorDone    chan struct{}

	featureFlags *featureflags.Set
	notifier     *notifications.Notifier
	hub          *notifications.Hub

	authService    *service.AuthService
	userService    *service.UserService
	postService    *service.PostService
	followService  *service.FollowService
	imageService   *service.ImageService
	factoryService *service.FactoryService
	feedService    *service.FeedService
	monitor        *service.Monitor
}

// NewServer connects to the database, Redis, the image store and (when
// configured) NATS, then wires the server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	store, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("image storage: %w", err)
	}

	var nc *nats.Conn
	if cfg.NATSURL != "" {
		if nc, err = notifications.ConnectNATS(cfg.NATSURL, 5); err != nil {
			middleware.Logger.Warn("NATS unavailable, factory alerts stay local", slog.String("error", err.Error()))
			nc = nil
		}
	}

	return NewServerWithDeps(cfg, Deps{DB: db, Redis: cache.GetClient(), Store: store, NATS: nc})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with an in-memory database and no Redis.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if deps.Store == nil {
		store, err := storage.NewLocalStore(cfg.ImageUploadDir)
		if err != nil {
			return nil, fmt.Errorf("image storage: %w", err)
		}
		deps.Store = store
	}

	userRepo := repository.NewUserRepository(deps.DB)
	postRepo := repository.NewPostRepository(deps.DB)
	followRepo := repository.NewFollowRepository(deps.DB)
	factoryRepo := repository.NewFactoryRepository(deps.DB)

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		nats:           deps.NATS,
		promMiddleware: middleware.InitMetrics("factoryfeed-api"),
		featureFlags:   featureflags.Parse(cfg.FeatureFlags),
		notifier:       notifications.NewNotifier(deps.Redis),
		hub:            notifications.NewHub(),
	}

	var alerts *notifications.AlertBus
	if deps.NATS != nil {
		alerts = notifications.NewAlertBus(deps.NATS, cfg.NATSSubject)
	}
	events := notifications.NewPublisher(s.hub, s.notifier, alerts)

	s.authService = service.NewAuthService(userRepo, cfg.JWTSecret)
	s.userService = service.NewUserService(userRepo, postRepo, followRepo)
	s.imageService = service.NewImageService(deps.Store, cfg)
	s.postService = service.NewPostService(postRepo, s.imageService, events)
	s.followService = service.NewFollowService(followRepo, userRepo)
	s.factoryService = service.NewFactoryService(factoryRepo)
	s.feedService = service.NewFeedService(userRepo, postRepo, s.factoryService, events)
	s.monitor = service.NewMonitor(s.factoryService, s.feedService, events, cfg.MonitorInterval())

	return s, nil
}

// App builds the Fiber application on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	bodyLimit := (s.config.ImageMaxUploadSizeMB + 1) * 1024 * 1024
	if bodyLimit <= 1024*1024 {
		bodyLimit = (service.DefaultImageMaxUploadSizeMB + 1) * 1024 * 1024
	}
	app := fiber.New(fiber.Config{
		AppName:   "factoryfeed API",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// images are embedded by clients served from other origins
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "factoryfeed metrics",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.Logout)

	// Public reads
	publicPosts := api.Group("/posts")
	publicPosts.Get("/", s.GetFeed)
	publicPosts.Get("/:id/likes", s.GetPostLikes)
	publicPosts.Get("/:id/image", s.GetPostImage)
	publicPosts.Get("/:id", s.GetPost)

	publicFactories := api.Group("/factories")
	publicFactories.Get("/", s.ListFactories)
	publicFactories.Get("/summary", s.GetFactorySummary)
	publicFactories.Get("/feed", s.GetFactoryFeed)
	publicFactories.Get("/:id", s.GetFactory)

	api.Get("/feed/system", s.GetSystemPosts)

	protected := api.Group("", s.AuthRequired())

	users := protected.Group("/users")
	users.Get("/", s.ListUsers)
	users.Get("/me", s.GetMe)
	users.Put("/me/password", s.ChangePassword)
	users.Put("/me/emoji", s.UpdateProfileEmoji)
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id/likes", s.GetLikedPosts)
	users.Get("/:id/followers", s.ListFollowers)
	users.Get("/:id/following", s.ListFollowing)
	users.Post("/:id/follow", middleware.RateLimit(s.redis, 30, time.Minute, "follow"), s.Follow)
	users.Delete("/:id/follow", s.Unfollow)
	users.Get("/:id", s.GetUserProfile)

	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/repost", middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreateRepost)
	posts.Post("/:id/like", s.ToggleLike)
	posts.Get("/:id/liked", s.HasLiked)
	posts.Delete("/:id", s.DeletePost)

	factories := protected.Group("/factories")
	factories.Post("/", s.AddFactory)
	factories.Post("/update-all", s.UpdateAllFactories)
	factories.Post("/:id/update", s.UpdateFactory)
	factories.Post("/:id/alerts", s.CreateAlertPost)
	factories.Post("/:id/status-post", s.CreateStatusPost)

	feed := protected.Group("/feed")
	feed.Post("/integrate", s.IntegrateLatest)
	feed.Post("/summary", s.CreateSummaryPost)

	protected.Get("/feature-flags", s.GetFeatureFlags)
	protected.Get("/ws", s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database, and Redis when one is configured.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional; without it the app serves uncached and single-instance.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start restores the factories, starts the background workers and listens.
func (s *Server) Start() error {
	s.startBackground()
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

func (s *Server) startBackground() {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	if err := s.factoryService.LoadFactories(ctx); err != nil {
		middleware.Logger.Error("failed to restore factories", slog.String("error", err.Error()))
	}

	if s.notifier.Enabled() {
		go func() {
			if err := s.hub.StartWiring(ctx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start feed wiring", slog.String("error", err.Error()))
			}
		}()
	}

	if s.featureFlags.On(featureflags.FactoryMonitor) {
		s.monitorDone = make(chan struct{})
		go func() {
			defer close(s.monitorDone)
			_ = s.monitor.Run(ctx)
		}()
	} else {
		middleware.Logger.Info("factory monitor disabled by feature flag")
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	if s.monitorDone != nil {
		select {
		case <-s.monitorDone:
		case <-ctx.Done():
			middleware.Logger.Warn("factory monitor did not stop before shutdown deadline")
		}
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}
	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down websocket hub", slog.String("error", err.Error()))
	}

	if s.nats != nil {
		if err := s.nats.Drain(); err != nil {
			middleware.Logger.Warn("error draining NATS", slog.String("error", err.Error()))
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
