package server

import (
	"log/slog"
	"strings"

	"factoryfeed/internal/cache"
	"factoryfeed/internal/featureflags"
	"factoryfeed/internal/middleware"
	"factoryfeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListFactories handles GET /api/factories
// @Summary List factories
// @Tags factories
// @Produce json
// @Success 200 {array} models.Factory
// @Router /factories [get]
func (s *Server) ListFactories(c *fiber.Ctx) error {
	factories, err := s.factoryService.ListFactories(c.UserContext())
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(factories)
}

// GetFactory handles GET /api/factories/:id
func (s *Server) GetFactory(c *fiber.Ctx) error {
	factory, err := s.factoryService.GetFactory(c.UserContext(), c.Params("id"))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(factory)
}

// GetFactorySummary handles GET /api/factories/summary
// @Summary Fleet summary
// @Description Totals partitioned into normal, warning (low pressure, rpm) and error (overheat)
// @Tags factories
// @Produce json
// @Success 200 {object} models.FactorySummary
// @Router /factories/summary [get]
func (s *Server) GetFactorySummary(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var summary models.FactorySummary
	err := cache.Aside(ctx, cache.FactorySummaryKey, &summary, cache.SummaryTTL, func() error {
		fresh, err := s.factoryService.GetFactorySummary(ctx)
		if err != nil {
			return err
		}
		summary = *fresh
		return nil
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(summary)
}

// GetFactoryFeed handles GET /api/factories/feed
func (s *Server) GetFactoryFeed(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	entries, err := s.factoryService.GetFactoryFeed(c.UserContext(), page.Limit)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(entries)
}

// AddFactory handles POST /api/factories
// @Summary Add a factory
// @Tags factories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,location=string} true "Factory"
// @Success 201 {object} models.Factory
// @Failure 400 {object} models.ErrorResponse
// @Router /factories [post]
func (s *Server) AddFactory(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Location string `json:"location"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	factory, err := s.factoryService.AddFactory(c.UserContext(), req.Name, req.Location)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(factory)
}

// UpdateFactory handles POST /api/factories/:id/update?force=true
// @Summary Step one factory
// @Description Produces a new reading; force=true always injects a fault
// @Tags factories
// @Produce json
// @Security BearerAuth
// @Param id path string true "Factory ID"
// @Param force query bool false "Force an abnormal reading"
// @Success 200 {object} object{snapshot=models.StatusSnapshot,post=models.Post}
// @Failure 404 {object} models.ErrorResponse
// @Router /factories/{id}/update [post]
func (s *Server) UpdateFactory(c *fiber.Ctx) error {
	ctx := c.UserContext()
	snapshot, err := s.factoryService.UpdateFactoryStatus(ctx, c.Params("id"), c.QueryBool("force", false))
	if err != nil {
		return models.Respond(c, err)
	}

	resp := fiber.Map{"snapshot": snapshot}
	if s.featureFlags.On(featureflags.FactoryAutoSync) {
		post, created, err := s.feedService.IntegrateLatest(ctx)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "factory auto sync failed", slog.String("error", err.Error()))
		} else if created {
			resp["post"] = post
		}
	}
	return c.JSON(resp)
}

// UpdateAllFactories handles POST /api/factories/update-all
func (s *Server) UpdateAllFactories(c *fiber.Ctx) error {
	snapshots, err := s.factoryService.UpdateAll(c.UserContext())
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(snapshots)
}

// CreateAlertPost handles POST /api/factories/:id/alerts
func (s *Server) CreateAlertPost(c *fiber.Ctx) error {
	var req struct {
		AlertType string `json:"alert_type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	alertType := strings.TrimSpace(req.AlertType)
	if alertType == "" {
		return models.Respond(c, models.NewValidationError("alert_type is required"))
	}

	post, err := s.feedService.CreateEmergencyAlertPost(c.UserContext(), c.Params("id"), alertType)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// CreateStatusPost handles POST /api/factories/:id/status-post
func (s *Server) CreateStatusPost(c *fiber.Ctx) error {
	post, err := s.feedService.CreateFactoryStatusPost(c.UserContext(), c.Params("id"))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}
