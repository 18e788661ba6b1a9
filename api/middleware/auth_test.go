package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgAuth "github.com/shoplane/shoplane-backend/pkg/auth"
	"github.com/shoplane/shoplane-backend/pkg/config"
	"github.com/shoplane/shoplane-backend/pkg/enums"
)

type stubChecker struct {
	active map[string]bool
	err    error
}

func (s *stubChecker) HasSession(ctx context.Context, userID int64, tokenID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.active[tokenID], nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "shoplane-test",
		ExpirationMinutes: 15,
	}
}

func mintToken(t *testing.T, cfg config.JWTConfig, jti string) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   7,
		Username: "shopper",
		Email:    "shopper@example.com",
		Role:     enums.UserRoleCustomer,
		JTI:      jti,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func protectedHandler(t *testing.T, seen *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = true
		if got := UserIDFromContext(r.Context()); got != 7 {
			t.Errorf("expected user 7 in context, got %d", got)
		}
		if got := RoleFromContext(r.Context()); got != enums.UserRoleCustomer.String() {
			t.Errorf("unexpected role %q", got)
		}
		if TokenIDFromContext(r.Context()) == "" {
			t.Error("expected token ID in context")
		}
		w.WriteHeader(http.StatusOK)
	})
}

func errorMessage(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Message
}

func TestAuthMissingToken(t *testing.T) {
	var seen bool
	handler := Auth(testJWTConfig(), &stubChecker{}, nil)(protectedHandler(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if msg := errorMessage(t, resp); msg != "Access token required" {
		t.Fatalf("unexpected message %q", msg)
	}
	if seen {
		t.Fatal("handler should not run without a token")
	}
}

func TestAuthMalformedToken(t *testing.T) {
	var seen bool
	handler := Auth(testJWTConfig(), &stubChecker{}, nil)(protectedHandler(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if msg := errorMessage(t, resp); msg != "Invalid or expired token" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAuthWrongSecret(t *testing.T) {
	other := testJWTConfig()
	other.Secret = "different-secret"
	token := mintToken(t, other, "jti-1")

	var seen bool
	handler := Auth(testJWTConfig(), &stubChecker{active: map[string]bool{"jti-1": true}}, nil)(protectedHandler(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAuthRevokedSession(t *testing.T) {
	cfg := testJWTConfig()
	token := mintToken(t, cfg, "jti-revoked")

	var seen bool
	handler := Auth(cfg, &stubChecker{active: map[string]bool{}}, nil)(protectedHandler(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if msg := errorMessage(t, resp); msg != "Invalid or expired token" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAuthValidTokenSeedsContext(t *testing.T) {
	cfg := testJWTConfig()
	token := mintToken(t, cfg, "jti-ok")

	var seen bool
	handler := Auth(cfg, &stubChecker{active: map[string]bool{"jti-ok": true}}, nil)(protectedHandler(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !seen {
		t.Fatal("expected handler to run")
	}
}

func TestRequireRoleBlocksCustomer(t *testing.T) {
	var seen bool
	handler := RequireRole(nil, enums.UserRoleAdmin.String())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
	req = req.WithContext(WithRole(req.Context(), enums.UserRoleCustomer.String()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if seen {
		t.Fatal("handler should not run for customer role")
	}
}

func TestRequireRoleAllowsAdmin(t *testing.T) {
	var seen bool
	handler := RequireRole(nil, enums.UserRoleAdmin.String())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
	req = req.WithContext(WithRole(req.Context(), enums.UserRoleAdmin.String()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if !seen {
		t.Fatal("expected handler to run for admin role")
	}
}
