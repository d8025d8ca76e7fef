package server

import (
	"factoryfeed/internal/models"
	"factoryfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListUsers handles GET /api/users
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	users, err := s.userService.ListUsers(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(users)
}

// GetMe handles GET /api/users/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	id := userID(c)
	profile, err := s.userService.GetProfile(c.UserContext(), id, id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(profile)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	profile, err := s.userService.GetProfile(c.UserContext(), id, userID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(profile)
}

// ChangePassword handles PUT /api/users/me/password
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.userService.ChangePassword(c.UserContext(), userID(c), req.NewPassword, req.ConfirmPassword); err != nil {
		return models.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateProfileEmoji handles PUT /api/users/me/emoji
func (s *Server) UpdateProfileEmoji(c *fiber.Ctx) error {
	var req struct {
		Emoji string `json:"emoji"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	user, err := s.userService.UpdateProfileEmoji(c.UserContext(), userID(c), req.Emoji)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)
	posts, err := s.postService.GetUserPosts(c.UserContext(), id, service.ListPostsInput{
		Limit: page.Limit, Offset: page.Offset, CurrentUserID: userID(c),
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(posts)
}

// GetLikedPosts handles GET /api/users/:id/likes
func (s *Server) GetLikedPosts(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)
	posts, err := s.postService.GetLikedPosts(c.UserContext(), id, service.ListPostsInput{
		Limit: page.Limit, Offset: page.Offset, CurrentUserID: userID(c),
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(posts)
}

// Follow handles POST /api/users/:id/follow
func (s *Server) Follow(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.followService.Follow(c.UserContext(), userID(c), id); err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"following": true})
}

// Unfollow handles DELETE /api/users/:id/follow
func (s *Server) Unfollow(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.followService.Unfollow(c.UserContext(), userID(c), id); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"following": false})
}

// ListFollowers handles GET /api/users/:id/followers
func (s *Server) ListFollowers(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	users, err := s.followService.ListFollowers(c.UserContext(), id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(users)
}

// ListFollowing handles GET /api/users/:id/following
func (s *Server) ListFollowing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	users, err := s.followService.ListFollowing(c.UserContext(), id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(users)
}
