package shipment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/LIFESTACK29/raha-send-backend/internal/middleware"
	"github.com/LIFESTACK29/raha-send-backend/internal/wallet"
)

// newShipmentApp mounts the lifecycle routes with the same role gating the
// router applies, with a header-driven stand-in for the auth middleware.
func newShipmentApp(f *fixture) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", c.Get("X-User-Id"))
		c.Locals("role", c.Get("X-Role"))
		return c.Next()
	})
	h := NewHandler(f.svc)
	app.Post("/shipments/:id/cancel", h.Cancel)
	app.Patch("/shipments/:id/status", middleware.RequireRole("rider"), h.UpdateStatus)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, userID, role string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", userID)
	req.Header.Set("X-Role", role)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp
}

// bookedShipment books a shipment and assigns rider-1 to it.
func bookedShipment(t *testing.T, f *fixture) Shipment {
	t.Helper()
	sh := f.createShipment(t)
	wallet.SeedBalance(f.ledger, testUserID, 1_000_000)
	ctx := context.Background()
	if _, _, err := f.svc.Book(ctx, testUserID, sh.ShipmentID); err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := f.svc.AssignRider(ctx, sh.ShipmentID, "rider-1"); err != nil {
		t.Fatalf("assign rider: %v", err)
	}
	return sh
}

func TestHandler_UpdateStatusForbiddenWithoutRiderRole(t *testing.T) {
	f := newFixture(t)
	sh := bookedShipment(t, f)
	app := newShipmentApp(f)

	resp := do(t, app, http.MethodPatch, "/shipments/"+sh.ShipmentID+"/status",
		testUserID, "customer", fiber.Map{"status": "in_transit"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	after, _ := f.svc.Get(context.Background(), testUserID, sh.ShipmentID)
	if after.Status != StatusPickupScheduled {
		t.Fatalf("non-rider call changed the shipment: %s", after.Status)
	}
}

func TestHandler_UpdateStatusScopedToAssignedRider(t *testing.T) {
	f := newFixture(t)
	sh := bookedShipment(t, f)
	app := newShipmentApp(f)

	resp := do(t, app, http.MethodPatch, "/shipments/"+sh.ShipmentID+"/status",
		"rider-2", "rider", fiber.Map{"status": "in_transit"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for an unassigned rider, got %d", resp.StatusCode)
	}

	resp = do(t, app, http.MethodPatch, "/shipments/"+sh.ShipmentID+"/status",
		"rider-1", "rider", fiber.Map{"status": "in_transit"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for the assigned rider, got %d", resp.StatusCode)
	}

	after, _ := f.svc.Get(context.Background(), testUserID, sh.ShipmentID)
	if after.Status != StatusInTransit {
		t.Fatalf("expected in_transit, got %s", after.Status)
	}
}

func TestHandler_CancelScopedToOwner(t *testing.T) {
	f := newFixture(t)
	sh := f.createShipment(t)
	app := newShipmentApp(f)

	resp := do(t, app, http.MethodPost, "/shipments/"+sh.ShipmentID+"/cancel",
		"22222222-2222-2222-2222-222222222222", "customer", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for a foreign caller, got %d", resp.StatusCode)
	}

	resp = do(t, app, http.MethodPost, "/shipments/"+sh.ShipmentID+"/cancel",
		testUserID, "customer", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for the owner, got %d", resp.StatusCode)
	}

	after, _ := f.svc.Get(context.Background(), testUserID, sh.ShipmentID)
	if after.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", after.Status)
	}
}
