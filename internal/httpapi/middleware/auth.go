package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docbot-ai/docbot/internal/common"
	"github.com/docbot-ai/docbot/internal/models"
)

// UserKey is where AuthRequired stores the resolved principal.
const UserKey = "current_user"

// PrincipalResolver turns a bearer token into the user it names.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (*models.User, error)
}

// AuthRequired resolves the request's principal from the Authorization header.
// The guards below consume the principal it stores; they compose per route,
// left to right.
func AuthRequired(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			common.Fail(c, http.StatusUnauthorized, common.ErrInvalidToken.Error())
			c.Abort()
			return
		}

		u, err := resolver.ResolvePrincipal(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, common.ErrInvalidToken) {
				common.Fail(c, http.StatusUnauthorized, common.ErrInvalidToken.Error())
			} else {
				common.Fail(c, http.StatusInternalServerError, "internal server error")
			}
			c.Abort()
			return
		}

		c.Set(UserKey, u)
		c.Next()
	}
}

// CurrentUser returns the principal stored by AuthRequired.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok
}

func RequireActive() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			common.Fail(c, http.StatusUnauthorized, common.ErrInvalidToken.Error())
			c.Abort()
			return
		}
		if u.Status != models.StatusActive {
			common.Fail(c, http.StatusForbidden, "inactive user")
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			common.Fail(c, http.StatusUnauthorized, common.ErrInvalidToken.Error())
			c.Abort()
			return
		}
		if !u.IsVerified {
			common.Fail(c, http.StatusForbidden, "email not verified")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRoles allows only the named roles. The sets are explicit; there is no
// role hierarchy.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			common.Fail(c, http.StatusUnauthorized, common.ErrInvalidToken.Error())
			c.Abort()
			return
		}
		if _, ok := allowed[u.Role]; !ok {
			common.Fail(c, http.StatusForbidden, common.ErrForbidden.Error())
			c.Abort()
			return
		}
		c.Next()
	}
}
