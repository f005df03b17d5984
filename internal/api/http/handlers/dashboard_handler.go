package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/roadwatch/damage-service/internal/auth"
	"github.com/roadwatch/damage-service/internal/service"
	apperrors "github.com/roadwatch/damage-service/pkg/util"
)

// DashboardHandler exposes the stats endpoint.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// Stats handles POST /api/dashboard/stats. Admins see global counts
// plus the reporter-account total; everyone else sees only their own
// tickets.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewAuthMissing("authentication required")
	}

	var (
		stats *service.DashboardStats
		err   error
	)
	if actor.IsAdmin() {
		stats, err = h.service.StatsGlobal(c.UserContext())
	} else {
		stats, err = h.service.StatsForUser(c.UserContext(), actor.ID)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
