package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/face-auth/internal/token"
)

type contextKey string

const identityKey contextKey = "authIdentity"

// Identity is the authenticated principal decoded from a bearer token.
type Identity struct {
	Username string
	Email    string
}

// GetIdentity retrieves the authenticated identity from context.
func GetIdentity(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	if value, ok := ctx.Value(identityKey).(Identity); ok && value.Username != "" {
		return value, true
	}
	return Identity{}, false
}

// BearerMiddleware validates bearer tokens and injects the caller's identity.
// Expired and otherwise-invalid tokens both abort with 401 but carry distinct
// messages.
func BearerMiddleware(validator *token.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractBearerToken(c.Request.Header.Get("Authorization"))
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		claims, err := validator.Validate(tokenString)
		if err != nil {
			if errors.Is(err, token.ErrExpired) {
				unauthorized(c, token.ErrExpired.Error())
			} else {
				unauthorized(c, token.ErrInvalid.Error())
			}
			return
		}

		identity := Identity{Username: claims.Subject, Email: claims.Email}
		ctx := context.WithValue(c.Request.Context(), identityKey, identity)
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(identityKey), identity)

		c.Next()
	}
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", errors.New("token missing")
	}
	return tokenString, nil
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
