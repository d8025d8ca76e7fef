package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags returns the flags as evaluated for the current user.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"evaluated": s.featureFlags.Snapshot(userID(c)),
	})
}
