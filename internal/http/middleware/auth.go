package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/masterworkhq/masterwork/internal/auth"
)

// Context keys set by Authenticate.
const (
	CtxKeyUserID   = "userID"
	CtxKeyIdentity = "identity"
)

// SessionParser validates a session token.
type SessionParser interface {
	Parse(token string) (auth.Identity, error)
}

// Authenticate reads the session from cookieName or the Authorization
// header and, when valid, stores the identity in the context. Invalid or
// missing sessions leave the request anonymous; RequireUser rejects them.
func Authenticate(sessions SessionParser, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessions != nil {
			if tok := sessionToken(c, cookieName); tok != "" {
				if id, err := sessions.Parse(tok); err == nil {
					c.Set(CtxKeyUserID, id.UserID)
					c.Set(CtxKeyIdentity, id)
				}
			}
		}
		c.Next()
	}
}

// RequireUser aborts with 401 when no authenticated user is present.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userIDFromCtx(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "unauthorized",
				"message":    "sign in required",
			})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" when anonymous.
func UserID(c *gin.Context) string { return userIDFromCtx(c) }

func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get(CtxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func sessionToken(c *gin.Context, cookieName string) string {
	if h := c.GetHeader("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil {
			return v
		}
	}
	return ""
}
