package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Jhector1/learnoir-api/dto"
	"github.com/Jhector1/learnoir-api/model"
)

type AuthServiceInterface interface {
	Register(req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(req dto.LoginRequest) (*dto.LoginResponse, error)
	RequiredAuth() fiber.Handler
	OptionalAuth() fiber.Handler
	RequireRole(role string) fiber.Handler
}

type ActorServiceInterface interface {
	Resolve(c *fiber.Ctx) model.Actor
	EnsureGuestID(actor model.Actor) (model.Actor, bool)
	SetGuestCookie(c *fiber.Ctx, guestID string)
}

type PracticeServiceInterface interface {
	StartSession(actor model.Actor, req dto.StartSessionRequest) (*dto.SessionResponse, error)
	Issue(actor model.Actor, req dto.IssueInstanceRequest) (*dto.IssueInstanceResponse, error)
	Submit(actor model.Actor, req dto.SubmitAttemptRequest) (*dto.SubmitAttemptResponse, error)
	Reveal(actor model.Actor, req dto.RevealAnswerRequest) (*dto.RevealAnswerResponse, error)
	GetSummary(actor model.Actor, sessionID string) (*dto.SessionSummaryResponse, error)
	GetHistory(actor model.Actor, status string, limit int) (*dto.SessionHistoryResponse, error)
	AdminListSessions(status string, limit int) (*dto.AdminSessionListResponse, error)
	AdminListAttempts(sessionID string) (*dto.AdminAttemptListResponse, error)
}
