package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRateLimiter(t *testing.T) {
	e := echo.New()
	limiter := RateLimiter(2, time.Minute)
	handler := limiter(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	do := func() (int, string) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)
		if err == nil {
			return rec.Code, ""
		}

		httpErr, ok := err.(*echo.HTTPError)
		if !ok {
			t.Fatalf("unexpected error type: %v", err)
		}
		return httpErr.Code, rec.Header().Get(echo.HeaderRetryAfter)
	}

	for i := 0; i < 2; i++ {
		if code, _ := do(); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, code)
		}
	}

	code, retryAfter := do()
	if code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past the limit, got %d", code)
	}
	if retryAfter == "" {
		t.Error("expected a Retry-After header on the rejected request")
	}
}
