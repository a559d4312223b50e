package services

import (
	"os"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Jhector1/learnoir-api/model"
	"github.com/Jhector1/learnoir-api/shared"
)

// ActorService resolves the subject of a request: authenticated user id when
// present, otherwise the durable guest id from the client's cookie. The two
// lineages are never merged; an explicit merge on sign-in is not supported.
type ActorService struct {
	context.DefaultService

	allowOverride bool
}

const ACTOR_SVC = "actor_svc"

const guestCookieMaxAge = 365 * 24 * time.Hour

func (svc ActorService) Id() string {
	return ACTOR_SVC
}

func (svc *ActorService) Configure(ctx *context.Context) error {
	// Override headers are for trusted internal test traffic only.
	svc.allowOverride = os.Getenv("ALLOW_ACTOR_OVERRIDE") == "true"
	return svc.DefaultService.Configure(ctx)
}

func (svc *ActorService) Start() error {
	return nil
}

// Resolve determines the actor for the current request. Resolution order:
// override headers (when enabled), authenticated user from the auth
// middleware, durable guest cookie, anonymous.
func (svc *ActorService) Resolve(c *fiber.Ctx) model.Actor {
	if svc.allowOverride {
		if userID := c.Get("X-Actor-User-Id"); userID != "" {
			return model.Actor{UserID: userID}
		}
		if guestID := c.Get("X-Actor-Guest-Id"); guestID != "" {
			return model.Actor{GuestID: guestID}
		}
	}

	if userID, ok := c.Locals(shared.UserID).(string); ok && userID != "" {
		return model.Actor{UserID: userID}
	}

	if guestID := c.Cookies(shared.GuestCookieName); guestID != "" {
		return model.Actor{GuestID: guestID}
	}

	return model.Actor{}
}

// EnsureGuestID returns the actor unchanged when it already carries an
// identity. Otherwise it mints a fresh guest id; minted reports whether the
// caller must persist the id client-side.
func (svc *ActorService) EnsureGuestID(actor model.Actor) (model.Actor, bool) {
	if !actor.IsZero() {
		return actor, false
	}

	actor.GuestID = uuid.New().String()
	return actor, true
}

// SetGuestCookie writes the durable guest identifier: http-only, lax,
// one-year lifetime, scoped to the whole application.
func (svc *ActorService) SetGuestCookie(c *fiber.Ctx, guestID string) {
	c.Cookie(&fiber.Cookie{
		Name:     shared.GuestCookieName,
		Value:    guestID,
		Path:     "/",
		MaxAge:   int(guestCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(guestCookieMaxAge),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
