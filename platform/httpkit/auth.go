package httpkit

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"vhc_backend/platform/config"
	"vhc_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// ContextUserIDKey is the gin context key for the authenticated user ID.
	ContextUserIDKey = "userID"
	// ContextRolesKey is the gin context key for the user's roles.
	ContextRolesKey = "roles"
	// ContextTenantIDKey is the gin context key for the tenant (organization) ID.
	ContextTenantIDKey = "tenantID"

	accessTokenType = "access"

	errMissingToken = "missing token"
	errInvalidToken = "invalid token"
)

var errTokenRejected = errors.New(errInvalidToken)

// accessClaims is the payload of an access token issued by the workshop portal.
type accessClaims struct {
	jwt.RegisteredClaims
	Type     string   `json:"type"`
	TenantID string   `json:"tenant_id,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// AuthRequired validates the HS256 access token and stores the caller on the context.
// The token may also arrive as ?token=, which browsers use for spreadsheet downloads.
func AuthRequired(cfg config.JWTConfig) gin.HandlerFunc {
	secret := []byte(cfg.GetJWTAccessSecret())
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw = strings.TrimSpace(c.Query("token"))
		}
		if raw == "" {
			abortUnauthorized(c, errMissingToken)
			return
		}

		claims, err := parseAccessToken(raw, secret)
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}
		roles := claims.Roles
		if roles == nil {
			roles = []string{}
		}
		c.Set(ContextUserIDKey, userID)
		c.Set(ContextRolesKey, roles)

		if claims.TenantID != "" {
			tenantID, err := uuid.Parse(claims.TenantID)
			if err != nil {
				abortUnauthorized(c, errInvalidToken)
				return
			}
			c.Set(ContextTenantIDKey, tenantID)
			ctx := context.WithValue(c.Request.Context(), logger.OrganizationIDKey, tenantID.String())
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// RequireRole rejects callers whose token does not carry role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetIdentity(c).HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func parseAccessToken(raw string, secret []byte) (*accessClaims, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, errTokenRejected
	}
	if claims.Type != accessTokenType {
		return nil, errTokenRejected
	}
	return claims, nil
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
