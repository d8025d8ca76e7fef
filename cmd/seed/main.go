// Command seed populates the database with demo users, posts and a factory fleet.
package main

import (
	"context"
	"flag"
	"log"

	"factoryfeed/internal/config"
	"factoryfeed/internal/database"
	"factoryfeed/internal/repository"
	"factoryfeed/internal/seed"
	"factoryfeed/internal/service"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 80, "Number of posts to create")
	follows := flag.Int("follows", 4, "Follows per user")
	fleetFile := flag.String("fleet", "", "YAML file describing the factory fleet (default: built-in fleet)")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Printf("Target: %d users, %d posts\n", *numUsers, *numPosts)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var fleet *seed.Fleet
	if *fleetFile != "" {
		if fleet, err = seed.LoadFleetFile(*fleetFile); err != nil {
			log.Fatalf("❌ Fleet file: %v", err)
		}
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	auth := service.NewAuthService(users, cfg.JWTSecret)
	postService := service.NewPostService(posts, nil, service.NopSink{})
	followService := service.NewFollowService(repository.NewFollowRepository(db), users)
	factoryService := service.NewFactoryService(repository.NewFactoryRepository(db))

	s := seed.New(auth, postService, followService, factoryService)
	res, err := s.Run(context.Background(), seed.Options{
		NumUsers:       *numUsers,
		NumPosts:       *numPosts,
		LikeChance:     0.3,
		FollowsPerUser: *follows,
		Fleet:          fleet,
		Seed:           *randSeed,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Seeded %d users, %d posts, %d likes, %d follows, %d factories",
		res.Users, res.Posts, res.Likes, res.Follows, res.Factories)
	log.Printf("📧 All seeded users have the password: %s", seed.DemoPassword)
}
