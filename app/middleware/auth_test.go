package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-shop-auth/app/middleware"
	"github.com/vibast-solutions/ms-go-shop-auth/app/token"
)

type fakeValidator struct {
	claims *token.Claims
	err    error
}

func (f *fakeValidator) ValidateAccessToken(string) (*token.Claims, error) {
	return f.claims, f.err
}

func doRequest(t *testing.T, m *middleware.AuthMiddleware, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := m.Authenticate(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec, c
}

func TestAuthenticate_NoHeaderIsAnonymous(t *testing.T) {
	m := middleware.NewAuthMiddleware(&fakeValidator{err: errors.New("should not be called")})

	rec, c := doRequest(t, m, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for anonymous request, got %d", rec.Code)
	}
	if _, ok := middleware.IdentityFromContext(c); ok {
		t.Fatal("expected no identity for anonymous request")
	}
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	m := middleware.NewAuthMiddleware(&fakeValidator{})

	for _, header := range []string{"Bearer", "Basic abc", "Bearer a b"} {
		rec, _ := doRequest(t, m, header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for header %q, got %d", header, rec.Code)
		}
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	m := middleware.NewAuthMiddleware(&fakeValidator{err: token.ErrInvalid})

	rec, _ := doRequest(t, m, "Bearer bad-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", rec.Code)
	}
}

func TestAuthenticate_ValidTokenSetsIdentity(t *testing.T) {
	m := middleware.NewAuthMiddleware(&fakeValidator{claims: &token.Claims{
		Username: "alice",
		Email:    "a@x.com",
	}})

	rec, c := doRequest(t, m, "Bearer good-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		t.Fatal("expected identity to be set")
	}
	if identity.Username != "alice" || identity.Email != "a@x.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestRequireUser_RejectsAnonymous(t *testing.T) {
	m := middleware.NewAuthMiddleware(&fakeValidator{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := m.RequireUser(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous request, got %d", rec.Code)
	}
}

func TestRequireUser_PassesAuthenticated(t *testing.T) {
	m := middleware.NewAuthMiddleware(&fakeValidator{claims: &token.Claims{
		Username: "alice",
		Email:    "a@x.com",
	}})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := m.Authenticate(m.RequireUser(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))
	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
