package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const testSecret = "test-secret"

type jwtConfig string

func (c jwtConfig) GetJWTAccessSecret() string { return string(c) }

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims accessClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func validClaims(userID, tenantID uuid.UUID) accessClaims {
	return accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Type:     accessTokenType,
		TenantID: tenantID.String(),
		Roles:    []string{"admin"},
	}
}

func newAuthRouter(seen *Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthRequired(jwtConfig(testSecret)), func(c *gin.Context) {
		*seen = GetIdentity(c)
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthRequiredAcceptsAccessToken(t *testing.T) {
	user, tenant := uuid.New(), uuid.New()
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(user, tenant))

	var seen Identity
	r := newAuthRouter(&seen)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if seen.UserID() != user {
		t.Fatalf("expected user %s, got %s", user, seen.UserID())
	}
	if seen.TenantID() == nil || *seen.TenantID() != tenant {
		t.Fatalf("expected tenant %s, got %v", tenant, seen.TenantID())
	}
	if !seen.HasRole("admin") {
		t.Fatalf("expected admin role, got %v", seen.Roles())
	}
}

func TestAuthRequiredAcceptsQueryToken(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(uuid.New(), uuid.New()))

	var seen Identity
	rec := httptest.NewRecorder()
	newAuthRouter(&seen).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestAuthRequiredRejects(t *testing.T) {
	user, tenant := uuid.New(), uuid.New()

	refresh := validClaims(user, tenant)
	refresh.Type = "refresh"

	expired := validClaims(user, tenant)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noExpiry := validClaims(user, tenant)
	noExpiry.ExpiresAt = nil

	badSubject := validClaims(user, tenant)
	badSubject.Subject = "not-a-uuid"

	badTenant := validClaims(user, tenant)
	badTenant.TenantID = "nope"

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "wrong secret", header: "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims(user, tenant))},
		{name: "wrong algorithm", header: "Bearer " + signToken(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims(user, tenant))},
		{name: "refresh token", header: "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), refresh)},
		{name: "expired", header: "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), expired)},
		{name: "no expiry", header: "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noExpiry)},
		{name: "bad subject", header: "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), badSubject)},
		{name: "bad tenant", header: "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), badTenant)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen Identity
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			newAuthRouter(&seen).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if seen != nil {
				t.Fatalf("handler must not run")
			}
		})
	}
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1, nil)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.allow("10.0.0.1") {
		t.Fatalf("first request must pass")
	}
	if l.allow("10.0.0.1") {
		t.Fatalf("second request in the same instant must be limited")
	}

	for i := 0; i <= limiterSweepAbove; i++ {
		l.clients[uuid.NewString()] = &limiterEntry{limiter: rate.NewLimiter(1, 1), lastSeen: now}
	}
	now = now.Add(limiterIdleTTL + time.Minute)
	if !l.allow("10.0.0.2") {
		t.Fatalf("new client must pass")
	}
	if len(l.clients) != 1 {
		t.Fatalf("expected idle clients to be dropped, %d remain", len(l.clients))
	}
}
