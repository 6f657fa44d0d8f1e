package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/membership-service/internal/api/dto"
	"github.com/spec-kit/membership-service/internal/auth"
	"github.com/spec-kit/membership-service/internal/domain"
	"github.com/spec-kit/membership-service/internal/service"
	apperrors "github.com/spec-kit/membership-service/pkg/util/errorutil"
)

// MembershipHandler exposes self-service membership endpoints.
type MembershipHandler struct {
	membership    *service.MembershipService
	authorization *service.AuthorizationService
}

// NewMembershipHandler constructs handler.
func NewMembershipHandler(membership *service.MembershipService, authorization *service.AuthorizationService) *MembershipHandler {
	return &MembershipHandler{membership: membership, authorization: authorization}
}

// Apply handles POST /memberships/apply.
func (h *MembershipHandler) Apply(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ApplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	record, err := h.membership.Apply(c.Context(), principal.Person.ID, service.ApplyInput{
		Fields: domain.ApplicationFields{
			Motivation:   req.Motivation,
			Experience:   req.Experience,
			Expectations: req.Expectations,
			Commitment:   req.Commitment,
		},
		ReapplicationReason: req.ReapplicationReason,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewMembershipResponse(record),
	})
}

// Me handles GET /memberships/me.
func (h *MembershipHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	record, err := h.membership.GetForPerson(c.Context(), principal.Person.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMembershipResponse(record)})
}

// MyHistory handles GET /memberships/me/history.
func (h *MembershipHandler) MyHistory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	records, err := h.membership.GetHistory(c.Context(), principal.Person.ID)
	if err != nil {
		return err
	}

	responses := make([]dto.MembershipResponse, 0, len(records))
	for i := range records {
		responses = append(responses, dto.NewMembershipResponse(&records[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// Authorization handles GET /authorization/me.
func (h *MembershipHandler) Authorization(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	authz, err := h.authorization.Resolve(c.Context(), principal.Person.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAuthorizationResponse(authz)})
}
