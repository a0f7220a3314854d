package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/outreach-ai-platform/internal/http/respond"
)

type contextKey string

const claimsKey contextKey = "apiClaims"

// APIKeyHeader carries a static API key as an alternative to a bearer token.
const APIKeyHeader = "X-API-Key"

// AuthConfig configures APIAuth. APIKey is read per request so a key saved
// through the settings endpoints takes effect without a restart.
type AuthConfig struct {
	JWTSecret string
	APIKey    func(ctx context.Context) string
}

// APIAuth accepts either an HMAC-signed bearer JWT or the configured API key.
// With neither a secret nor a key configured the API is open.
func APIAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := ""
			if cfg.APIKey != nil {
				apiKey = cfg.APIKey(r.Context())
			}
			if cfg.JWTSecret == "" && apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			if key := r.Header.Get(APIKeyHeader); key != "" {
				if apiKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
				respond.Error(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				respond.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			if cfg.JWTSecret == "" {
				respond.Error(w, http.StatusUnauthorized, "bearer tokens are not accepted")
				return
			}
			claims, err := ParseToken(cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ParseToken validates an HS256 token and returns its claims.
func ParseToken(secret, tokenString string) (jwt.RegisteredClaims, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return claims, err
	}
	if !token.Valid {
		return claims, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// IssueToken signs a token for subject that expires after ttl.
func IssueToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("middleware: jwt secret required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ClaimsFromContext returns the bearer token claims if the request carried one.
func ClaimsFromContext(ctx context.Context) (jwt.RegisteredClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(jwt.RegisteredClaims)
	return claims, ok
}
