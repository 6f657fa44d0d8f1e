package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/membership-service/internal/api/dto"
	"github.com/spec-kit/membership-service/internal/auth"
	"github.com/spec-kit/membership-service/internal/domain"
	"github.com/spec-kit/membership-service/internal/repository"
	"github.com/spec-kit/membership-service/internal/service"
	apperrors "github.com/spec-kit/membership-service/pkg/util/errorutil"
)

// AdminHandler exposes administrative membership and identity endpoints.
type AdminHandler struct {
	membership *service.MembershipService
	identity   *service.IdentityService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(membership *service.MembershipService, identity *service.IdentityService) *AdminHandler {
	return &AdminHandler{membership: membership, identity: identity}
}

// List handles GET /admin/memberships.
func (h *AdminHandler) List(c *fiber.Ctx) error {
	filter := repository.MembershipFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if personID := c.Query("person_id"); personID != "" {
		filter.PersonID = &personID
	}
	if status := c.Query("status"); status != "" {
		value := domain.MembershipStatus(status)
		if !domain.ValidMembershipStatus(value) {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": status})
		}
		filter.Statuses = []domain.MembershipStatus{value}
	}

	records, err := h.membership.List(c.Context(), filter)
	if err != nil {
		return err
	}

	responses := make([]dto.MembershipResponse, 0, len(records))
	for i := range records {
		responses = append(responses, dto.NewMembershipResponse(&records[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Approve handles POST /admin/memberships/:id/approve.
func (h *AdminHandler) Approve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	record, err := h.membership.Approve(c.Context(), c.Params("id"), principal.Person.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMembershipResponse(record)})
}

// Reject handles POST /admin/memberships/:id/reject.
func (h *AdminHandler) Reject(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ReasonRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	record, err := h.membership.Reject(c.Context(), c.Params("id"), principal.Person.ID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMembershipResponse(record)})
}

// SetInactive handles POST /admin/memberships/:id/inactive.
func (h *AdminHandler) SetInactive(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	record, err := h.membership.SetInactive(c.Context(), c.Params("id"), principal.Person.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMembershipResponse(record)})
}

// Remove handles POST /admin/memberships/:id/remove.
func (h *AdminHandler) Remove(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ReasonRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	record, err := h.membership.Remove(c.Context(), c.Params("id"), principal.Person.ID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMembershipResponse(record)})
}

// Restore handles POST /admin/memberships/:id/restore.
func (h *AdminHandler) Restore(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ReasonRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	record, err := h.membership.Restore(c.Context(), c.Params("id"), principal.Person.ID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMembershipResponse(record)})
}

// ResetCooldown handles POST /admin/memberships/:id/reset-cooldown.
func (h *AdminHandler) ResetCooldown(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	record, err := h.membership.ResetCooldown(c.Context(), c.Params("id"), principal.Person.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMembershipResponse(record)})
}

// PersonHistory handles GET /admin/memberships/person/:personId/history.
func (h *AdminHandler) PersonHistory(c *fiber.Ctx) error {
	records, err := h.membership.GetHistory(c.Context(), c.Params("personId"))
	if err != nil {
		return err
	}

	responses := make([]dto.MembershipResponse, 0, len(records))
	for i := range records {
		responses = append(responses, dto.NewMembershipResponse(&records[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// DeletePerson handles DELETE /admin/persons/:id. Soft delete plus removal
// fan-out over the person's membership records.
func (h *AdminHandler) DeletePerson(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ReasonRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.identity.DeletePerson(c.Context(), c.Params("id"), principal.Person.ID, req.Reason); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

// RestorePerson handles POST /admin/persons/:id/restore.
func (h *AdminHandler) RestorePerson(c *fiber.Ctx) error {
	if err := h.identity.RestorePerson(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"restored": true}})
}

// ListPersons handles GET /admin/persons?roles=A,B.
func (h *AdminHandler) ListPersons(c *fiber.Ctx) error {
	rolesParam := c.Query("roles")
	if rolesParam == "" {
		return apperrors.NewValidationError("roles query parameter is required", nil)
	}

	var roles []domain.Role
	for _, raw := range splitCSV(rolesParam) {
		roles = append(roles, domain.Role(raw))
	}

	persons, err := h.identity.ListPersonsByRole(c.Context(), roles)
	if err != nil {
		return err
	}

	responses := make([]dto.PersonResponse, 0, len(persons))
	for _, person := range persons {
		responses = append(responses, dto.PersonResponse{
			ID:           person.ID,
			Name:         person.Name,
			Email:        person.Email,
			ExternalCode: person.ExternalCode,
			AssignedRole: string(person.AssignedRole),
		})
	}
	return c.JSON(fiber.Map{"data": responses})
}
