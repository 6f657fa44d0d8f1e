package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/membership-service/internal/auth"
	"github.com/spec-kit/membership-service/internal/presence"
	apperrors "github.com/spec-kit/membership-service/pkg/util/errorutil"
)

// PresenceHandler exposes heartbeat, sign-off and occupancy endpoints.
type PresenceHandler struct {
	tracker *presence.Tracker
}

// NewPresenceHandler constructs handler.
func NewPresenceHandler(tracker *presence.Tracker) *PresenceHandler {
	return &PresenceHandler{tracker: tracker}
}

// Heartbeat handles POST /presence/heartbeat. Always succeeds from the
// caller's perspective; tracker failures are logged internally.
func (h *PresenceHandler) Heartbeat(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	h.tracker.Heartbeat(c.Context(), principal.Person.ID, principal.Role)
	return c.JSON(fiber.Map{"data": fiber.Map{"acknowledged": true}})
}

// SignOff handles POST /presence/signoff.
func (h *PresenceHandler) SignOff(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	h.tracker.SignOff(c.Context(), principal.Person.ID)
	return c.JSON(fiber.Map{"data": fiber.Map{"acknowledged": true}})
}

// Counts handles GET /admin/presence/counts.
func (h *PresenceHandler) Counts(c *fiber.Ctx) error {
	counts, err := h.tracker.CountActiveByTier(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"counts": counts,
		"total":  counts.Total(),
	}})
}
