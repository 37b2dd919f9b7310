package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func authApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", BearerAuth(testSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals("user_id"),
			"role":    c.Locals("role"),
		})
	})
	app.Get("/rider", BearerAuth(testSecret), RequireRole("rider"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func get(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func TestBearerAuth(t *testing.T) {
	app := authApp()

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "user-1",
		"role": "user",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	if status := get(t, app, "/me", token); status != fiber.StatusOK {
		t.Fatalf("valid token rejected: %d", status)
	}

	if status := get(t, app, "/me", ""); status != fiber.StatusUnauthorized {
		t.Fatalf("missing token must be 401, got %d", status)
	}

	wrongKey := signToken(t, "other-secret", jwt.MapClaims{"sub": "user-1"})
	if status := get(t, app, "/me", wrongKey); status != fiber.StatusUnauthorized {
		t.Fatalf("wrong-key token must be 401, got %d", status)
	}

	expired := signToken(t, testSecret, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	if status := get(t, app, "/me", expired); status != fiber.StatusUnauthorized {
		t.Fatalf("expired token must be 401, got %d", status)
	}

	noSubject := signToken(t, testSecret, jwt.MapClaims{"role": "user"})
	if status := get(t, app, "/me", noSubject); status != fiber.StatusUnauthorized {
		t.Fatalf("subject-less token must be 401, got %d", status)
	}
}

func TestRequireRole(t *testing.T) {
	app := authApp()

	rider := signToken(t, testSecret, jwt.MapClaims{"sub": "rider-1", "role": "rider"})
	if status := get(t, app, "/rider", rider); status != fiber.StatusOK {
		t.Fatalf("rider token rejected: %d", status)
	}

	user := signToken(t, testSecret, jwt.MapClaims{"sub": "user-1", "role": "user"})
	if status := get(t, app, "/rider", user); status != fiber.StatusForbidden {
		t.Fatalf("user token must be 403 on rider route, got %d", status)
	}
}
