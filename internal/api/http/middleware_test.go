package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestRequestTimeoutReachesHandlerContext(t *testing.T) {
	app := fiber.New()
	app.Use(requestTimeoutMiddleware(5 * time.Second))

	var hasDeadline bool
	app.Get("/orders", func(c *fiber.Ctx) error {
		_, hasDeadline = c.UserContext().Deadline()
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/orders", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !hasDeadline {
		t.Fatal("handler context has no deadline")
	}
}

func TestTranslateErrorKeepsFiberStatus(t *testing.T) {
	cases := []struct {
		status   int
		wantCode string
	}{
		{fiber.StatusUnauthorized, "UNAUTHORIZED"},
		{fiber.StatusForbidden, "FORBIDDEN"},
		{fiber.StatusNotFound, "NOT_FOUND"},
		{fiber.StatusUnprocessableEntity, "BAD_REQUEST"},
	}
	for _, tc := range cases {
		domainErr := translateError(fiber.NewError(tc.status, "nope"))
		if domainErr.Code != tc.wantCode {
			t.Errorf("code for %d = %q, want %q", tc.status, domainErr.Code, tc.wantCode)
		}
		if domainErr.HTTPStatus != tc.status {
			t.Errorf("status for %d = %d", tc.status, domainErr.HTTPStatus)
		}
	}
}
