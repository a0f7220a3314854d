package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func staticKey(key string) func(context.Context) string {
	return func(context.Context) string { return key }
}

func serve(t *testing.T, cfg AuthConfig, req *http.Request) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()
	var seen *http.Request
	rec := httptest.NewRecorder()
	APIAuth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec, seen
}

func TestAPIAuthOpenWhenUnconfigured(t *testing.T) {
	rec, seen := serve(t, AuthConfig{}, httptest.NewRequest(http.MethodGet, "/api/leads", nil))
	if rec.Code != http.StatusOK || seen == nil {
		t.Fatalf("expected request to pass, got %d", rec.Code)
	}
}

func TestAPIAuthMissingHeader(t *testing.T) {
	rec, _ := serve(t, AuthConfig{JWTSecret: "secret"}, httptest.NewRequest(http.MethodGet, "/api/leads", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAPIAuthInvalidToken(t *testing.T) {
	token, err := IssueToken("wrong", "operator", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec, _ := serve(t, AuthConfig{JWTSecret: "secret"}, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAPIAuthExpiredToken(t *testing.T) {
	token, err := IssueToken("secret", "operator", -time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec, _ := serve(t, AuthConfig{JWTSecret: "secret"}, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAPIAuthValidToken(t *testing.T) {
	token, err := IssueToken("secret", "operator", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec, seen := serve(t, AuthConfig{JWTSecret: "secret"}, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	claims, ok := ClaimsFromContext(seen.Context())
	if !ok || claims.Subject != "operator" {
		t.Fatalf("expected operator claims in context, got %+v", claims)
	}
}

func TestAPIAuthAPIKey(t *testing.T) {
	cfg := AuthConfig{JWTSecret: "secret", APIKey: staticKey("k-123")}

	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	req.Header.Set(APIKeyHeader, "k-123")
	if rec, _ := serve(t, cfg, req); rec.Code != http.StatusOK {
		t.Fatalf("expected valid key to pass, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	req.Header.Set(APIKeyHeader, "nope")
	if rec, _ := serve(t, cfg, req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected wrong key to fail, got %d", rec.Code)
	}
}

func TestAPIAuthKeyOnlyRejectsBearer(t *testing.T) {
	token, err := IssueToken("secret", "operator", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec, _ := serve(t, AuthConfig{APIKey: staticKey("k-123")}, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}
