package server

import (
	"factoryfeed/internal/models"
	"factoryfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

// IntegrateLatest handles POST /api/feed/integrate. It mirrors the newest
// factory log entry into the feed unless it was already posted.
func (s *Server) IntegrateLatest(c *fiber.Ctx) error {
	post, created, err := s.feedService.IntegrateLatest(c.UserContext())
	if err != nil {
		return models.Respond(c, err)
	}
	if !created {
		return c.JSON(fiber.Map{"created": false})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"created": true, "post": post})
}

// CreateSummaryPost handles POST /api/feed/summary
func (s *Server) CreateSummaryPost(c *fiber.Ctx) error {
	post, err := s.feedService.CreateSummaryPost(c.UserContext())
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetSystemPosts handles GET /api/feed/system
func (s *Server) GetSystemPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	posts, err := s.feedService.SystemPosts(c.UserContext(), service.ListPostsInput{
		Limit:         page.Limit,
		Offset:        page.Offset,
		CurrentUserID: s.optionalUserID(c),
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(posts)
}
