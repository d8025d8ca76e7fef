package server

import (
	"factoryfeed/internal/middleware"
	"factoryfeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account; the password can be used to log in right away
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Credentials"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.Register(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /api/auth/login
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Credentials"
// @Success 200 {object} service.LoginResult
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	res, err := s.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(res)
}

// Logout handles POST /api/auth/logout by revoking the bearer token.
func (s *Server) Logout(c *fiber.Ctx) error {
	token := middleware.BearerToken(c)
	if token == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}
	if err := s.authService.Logout(c.UserContext(), token); err != nil {
		return models.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
