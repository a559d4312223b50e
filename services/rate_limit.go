package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/Jhector1/learnoir-api/shared"
)

// RateLimitService throttles abuse-prone endpoints with a redis fixed window
// keyed by actor (or client IP) and endpoint class. Redis being down fails
// open with a warning.
type RateLimitService struct {
	appContext.DefaultService

	configs map[string]*RateLimitConfig
	mutex   sync.RWMutex

	redisSvc *RedisService
	actorSvc *ActorService
}

// RateLimitConfig represents rate limiting configuration
type RateLimitConfig struct {
	EndpointType string
	MaxRequests  int64
	WindowSize   time.Duration
	Description  string
	IsActive     bool
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	svc.configs = make(map[string]*RateLimitConfig)
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	svc.actorSvc = svc.Service(ACTOR_SVC).(*ActorService)
	svc.initDefaultConfigs()
	return nil
}

func (svc *RateLimitService) initDefaultConfigs() {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	svc.configs = map[string]*RateLimitConfig{
		"login": {
			EndpointType: "login",
			MaxRequests:  10,
			WindowSize:   15 * time.Minute,
			Description:  "Login attempts rate limit",
			IsActive:     true,
		},
		"register": {
			EndpointType: "register",
			MaxRequests:  5,
			WindowSize:   15 * time.Minute,
			Description:  "Registration rate limit",
			IsActive:     true,
		},
		"practice_issue": {
			EndpointType: "practice_issue",
			MaxRequests:  120,
			WindowSize:   10 * time.Minute,
			Description:  "Practice instance issuance rate limit",
			IsActive:     true,
		},
		"practice_submit": {
			EndpointType: "practice_submit",
			MaxRequests:  240,
			WindowSize:   10 * time.Minute,
			Description:  "Practice answer submission rate limit",
			IsActive:     true,
		},
	}
}

// Limit returns fiber middleware enforcing the named endpoint config.
func (svc *RateLimitService) Limit(endpointType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.mutex.RLock()
		config, found := svc.configs[endpointType]
		svc.mutex.RUnlock()

		if !found || !config.IsActive {
			return c.Next()
		}

		subject := svc.subject(c)
		key := fmt.Sprintf("rate_limit:%s:%s", endpointType, subject)

		ctx := context.Background()
		count, err := svc.redisSvc.Increment(ctx, key)
		if err != nil {
			log.WithFields(log.Fields{
				"endpoint_type": endpointType,
				"subject":       subject,
			}).Warnf("Rate limit check failed, allowing request: %v", err)
			return c.Next()
		}

		if count == 1 {
			if err := svc.redisSvc.Expire(ctx, key, config.WindowSize); err != nil {
				log.Warnf("Failed to set rate limit window on %s: %v", key, err)
			}
		}

		if count > config.MaxRequests {
			return shared.NewRateLimitedError("Too many requests, slow down")
		}

		return c.Next()
	}
}

// subject keys the window by resolved actor when there is one, falling back
// to the client IP for fully anonymous traffic.
func (svc *RateLimitService) subject(c *fiber.Ctx) string {
	if actor := svc.actorSvc.Resolve(c); !actor.IsZero() {
		return actor.Ref()
	}
	return "ip:" + c.IP()
}
