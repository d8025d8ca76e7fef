package server

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"factoryfeed/internal/middleware"
	"factoryfeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers return nil when they see it.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPaginationLimit = 100

func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return Pagination{Limit: limit, Offset: offset}
}

// parseID extracts a route parameter as a positive uint. On failure it writes
// a 400 response and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam turns "id" into "ID" and "userId" into "user ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if prefix, ok := strings.CutSuffix(param, "Id"); ok {
		return strings.ToLower(strings.Join(splitCamel(prefix), " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// userID returns the authenticated user; only valid behind AuthRequired.
func userID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

func (s *Server) setUser(c *fiber.Ctx, id uint) {
	c.Locals("userID", id)
	c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, id))
}

// AuthRequired rejects requests without a valid, unrevoked access token.
// Browsers cannot set headers on websocket upgrades, so /api/ws also accepts
// the token as a query parameter.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := middleware.BearerToken(c)
		if token == "" && strings.HasPrefix(c.Path(), "/api/ws") {
			token = c.Query("token")
		}
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		id, err := s.authService.Authenticate(c.UserContext(), token)
		if err != nil {
			return models.Respond(c, err)
		}
		s.setUser(c, id)
		return c.Next()
	}
}

// optionalUserID identifies the caller on public routes without enforcing it.
func (s *Server) optionalUserID(c *fiber.Ctx) uint {
	token := middleware.BearerToken(c)
	if token == "" {
		return 0
	}
	id, err := s.authService.Authenticate(c.UserContext(), token)
	if err != nil {
		return 0
	}
	return id
}
