package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Jhector1/learnoir-api/shared"
)

// AdminHandler exposes read-only practice reporting for admin surfaces.
type AdminHandler struct {
	practiceSvc PracticeServiceInterface
}

func NewAdminHandler(practiceSvc PracticeServiceInterface) *AdminHandler {
	return &AdminHandler{
		practiceSvc: practiceSvc,
	}
}

// @Summary List Practice Sessions
// @Description This endpoint lists recent practice sessions across all actors
// @Tags admin
// @Accept  json
// @Produce json
// @Security Bearer
// @Param status query string false "Filter by session status" Enums(active, completed)
// @Param limit query int false "Maximum number of sessions"
// @Success 200 {object} shared.Response{data=dto.AdminSessionListResponse}
// @Router /api/v1/admin/practice/sessions [get]
func (h *AdminHandler) ListSessions(c *fiber.Ctx) error {
	status := c.Query("status")
	limit := c.QueryInt("limit")

	resp, err := h.practiceSvc.AdminListSessions(status, limit)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary List Session Attempts
// @Description This endpoint lists every attempt recorded against one session
// @Tags admin
// @Accept  json
// @Produce json
// @Security Bearer
// @Param sessionId path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.AdminAttemptListResponse}
// @Router /api/v1/admin/practice/sessions/{sessionId}/attempts [get]
func (h *AdminHandler) ListAttempts(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	resp, err := h.practiceSvc.AdminListAttempts(sessionID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}
