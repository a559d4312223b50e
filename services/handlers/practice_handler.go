package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Jhector1/learnoir-api/dto"
	"github.com/Jhector1/learnoir-api/model"
	"github.com/Jhector1/learnoir-api/shared"
)

type PracticeHandler struct {
	practiceSvc PracticeServiceInterface
	actorSvc    ActorServiceInterface
}

func NewPracticeHandler(practiceSvc PracticeServiceInterface, actorSvc ActorServiceInterface) *PracticeHandler {
	return &PracticeHandler{
		practiceSvc: practiceSvc,
		actorSvc:    actorSvc,
	}
}

// resolveActor resolves the request's subject, minting and persisting a guest
// id when the client has no identity yet.
func (h *PracticeHandler) resolveActor(c *fiber.Ctx) model.Actor {
	actor := h.actorSvc.Resolve(c)
	actor, minted := h.actorSvc.EnsureGuestID(actor)
	if minted {
		h.actorSvc.SetGuestCookie(c, actor.GuestID)
	}
	return actor
}

// @Summary Start Practice Session
// @Description This endpoint starts a new practice session for the resolved actor
// @Tags practice
// @Accept  json
// @Produce json
// @Param startSessionRequest body dto.StartSessionRequest true "Start session request"
// @Success 201 {object} shared.Response{data=dto.SessionResponse}
// @Router /api/v1/practice/sessions [post]
func (h *PracticeHandler) StartSession(c *fiber.Ctx) error {
	var req dto.StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	session, err := h.practiceSvc.StartSession(h.resolveActor(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusCreated, "Created", session)
}

// @Summary Issue Practice Instance
// @Description This endpoint issues a practice problem and a capability token for later submission
// @Tags practice
// @Accept  json
// @Produce json
// @Param issueInstanceRequest body dto.IssueInstanceRequest true "Issue instance request"
// @Success 200 {object} shared.Response{data=dto.IssueInstanceResponse}
// @Router /api/v1/practice/issue [post]
func (h *PracticeHandler) IssueInstance(c *fiber.Ctx) error {
	var req dto.IssueInstanceRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.practiceSvc.Issue(h.resolveActor(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Submit Practice Attempt
// @Description This endpoint verifies a submitted answer against the capability token and records the attempt
// @Tags practice
// @Accept  json
// @Produce json
// @Param submitAttemptRequest body dto.SubmitAttemptRequest true "Submit attempt request"
// @Success 200 {object} shared.Response{data=dto.SubmitAttemptResponse}
// @Router /api/v1/practice/submit [post]
func (h *PracticeHandler) SubmitAttempt(c *fiber.Ctx) error {
	var req dto.SubmitAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.practiceSvc.Submit(h.resolveActor(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Reveal Expected Answer
// @Description This endpoint reveals the expected answer and records a reveal-used attempt
// @Tags practice
// @Accept  json
// @Produce json
// @Param revealAnswerRequest body dto.RevealAnswerRequest true "Reveal answer request"
// @Success 200 {object} shared.Response{data=dto.RevealAnswerResponse}
// @Router /api/v1/practice/reveal [post]
func (h *PracticeHandler) RevealAnswer(c *fiber.Ctx) error {
	var req dto.RevealAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.practiceSvc.Reveal(h.resolveActor(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Get Session Summary
// @Description This endpoint returns the score summary of one practice session
// @Tags practice
// @Accept  json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.SessionSummaryResponse}
// @Router /api/v1/practice/sessions/{sessionId}/summary [get]
func (h *PracticeHandler) GetSessionSummary(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	resp, err := h.practiceSvc.GetSummary(h.actorSvc.Resolve(c), sessionID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}

// @Summary Get Practice History
// @Description This endpoint returns the actor's sessions with their missed attempts for review
// @Tags practice
// @Accept  json
// @Produce json
// @Param status query string false "Filter by session status" Enums(active, completed)
// @Param limit query int false "Maximum number of sessions"
// @Success 200 {object} shared.Response{data=dto.SessionHistoryResponse}
// @Router /api/v1/practice/history [get]
func (h *PracticeHandler) GetHistory(c *fiber.Ctx) error {
	status := c.Query("status")
	limit := c.QueryInt("limit")

	resp, err := h.practiceSvc.GetHistory(h.actorSvc.Resolve(c), status, limit)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}
