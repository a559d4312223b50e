package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/Jhector1/learnoir-api/services/handlers"
	"github.com/Jhector1/learnoir-api/shared"
)

type HttpService struct {
	context.DefaultService

	authSvc      *AuthService
	actorSvc     *ActorService
	practiceSvc  *PracticeService
	rateLimitSvc *RateLimitService

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.actorSvc = svc.Service(ACTOR_SVC).(*ActorService)
	svc.practiceSvc = svc.Service(PRACTICE_SVC).(*PracticeService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)

	app := fiber.New(fiber.Config{
		AppName:      SERVICE_NAME,
		ErrorHandler: svc.handleError,
		JSONEncoder:  shared.JSONEncoder,
		JSONDecoder:  shared.JSONDecoder,
	})

	app.Use(recover.New())
	app.Use(MonitoringMiddleware())

	authHandler := handlers.NewAuthHandler(svc.authSvc)
	practiceHandler := handlers.NewPracticeHandler(svc.practiceSvc, svc.actorSvc)
	adminHandler := handlers.NewAdminHandler(svc.practiceSvc)

	app.Get("/ping", svc.ping)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	v1.Post("/register", svc.rateLimitSvc.Limit("register"), authHandler.Register)
	v1.Post("/login", svc.rateLimitSvc.Limit("login"), authHandler.Login)

	// Practice endpoints work for guests and signed-in users alike; the
	// optional auth feeds the actor resolver.
	practice := v1.Group("/practice", svc.authSvc.OptionalAuth())
	practice.Post("/sessions", practiceHandler.StartSession)
	practice.Post("/issue", svc.rateLimitSvc.Limit("practice_issue"), practiceHandler.IssueInstance)
	practice.Post("/submit", svc.rateLimitSvc.Limit("practice_submit"), practiceHandler.SubmitAttempt)
	practice.Post("/reveal", practiceHandler.RevealAnswer)
	practice.Get("/sessions/:sessionId/summary", practiceHandler.GetSessionSummary)
	practice.Get("/history", practiceHandler.GetHistory)

	admin := v1.Group("/admin", svc.authSvc.RequiredAuth(), svc.authSvc.RequireRole(shared.RoleAdmin))
	admin.Get("/practice/sessions", adminHandler.ListSessions)
	admin.Get("/practice/sessions/:sessionId/attempts", adminHandler.ListAttempts)

	svc.server = app

	log.Info().Int("port", svc.port).Msg("HTTP server started")
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", "pong")
}

func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		switch appErr.Kind {
		case shared.KindMalformedToken, shared.KindBadSignature, shared.KindTokenExpired, shared.KindActorMismatch:
			observeRejection(appErr.Kind)
		}

		return c.Status(appErr.StatusCode).JSON(shared.Response{
			Code:    appErr.StatusCode,
			Message: appErr.Message,
			Data: fiber.Map{
				"kind":    appErr.Kind,
				"details": appErr.Data,
			},
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(shared.Response{
			Code:    fiberErr.Code,
			Message: fiberErr.Message,
		})
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("Unhandled error")
	return c.Status(fiber.StatusInternalServerError).JSON(shared.Response{
		Code:    fiber.StatusInternalServerError,
		Message: "Internal Server Error",
	})
}
