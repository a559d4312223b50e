package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/Jhector1/learnoir-api/shared"
)

func errorTestApp(fail func() error) *fiber.App {
	svc := &HttpService{}
	app := fiber.New(fiber.Config{
		ErrorHandler: svc.handleError,
		JSONEncoder:  shared.JSONEncoder,
		JSONDecoder:  shared.JSONDecoder,
	})
	app.Get("/", func(c *fiber.Ctx) error {
		return fail()
	})
	return app
}

func TestHandleErrorAppError(t *testing.T) {
	app := errorTestApp(func() error {
		return shared.NewSessionNotFoundError()
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var envelope struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			Kind string `json:"kind"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("invalid error envelope: %v (%s)", err, body)
	}
	if envelope.Code != http.StatusNotFound {
		t.Fatalf("envelope code = %d, want 404", envelope.Code)
	}
	if envelope.Data.Kind != shared.KindSessionNotFound {
		t.Fatalf("envelope kind = %q, want %s", envelope.Data.Kind, shared.KindSessionNotFound)
	}
}

func TestHandleErrorTokenKindSurfaced(t *testing.T) {
	app := errorTestApp(func() error {
		return shared.NewBadSignatureError()
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var envelope struct {
		Data struct {
			Kind string `json:"kind"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("invalid error envelope: %v (%s)", err, body)
	}
	if envelope.Data.Kind != shared.KindBadSignature {
		t.Fatalf("a bad token must never look like a wrong answer, kind = %q", envelope.Data.Kind)
	}
}

func TestHandleErrorFallback(t *testing.T) {
	app := errorTestApp(func() error {
		return fiber.ErrTeapot
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTeapot {
		t.Fatalf("fiber errors must keep their status, got %d", resp.StatusCode)
	}
}
