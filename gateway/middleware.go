package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gemmoherb/portal/pkg/service"
	"github.com/gin-gonic/gin"
)

const (
	principalKey = "principal"
	authErrorKey = "auth_error"
)

func (g *Gateway) sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	token, err := c.Cookie(g.config.Auth.CookieName)
	if err != nil {
		return ""
	}
	return token
}

// authenticate resolves the session, if any. Failures are kept on the context so that
// protected routes can answer 401 or 403 while public ones carry on anonymously.
func (g *Gateway) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := g.sessionToken(c)
		if token == "" {
			c.Next()
			return
		}
		p, err := g.services.Auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if service.IsInternal(err) {
				g.respondError(c, err)
				c.Abort()
				return
			}
			c.Set(authErrorKey, err)
			c.Next()
			return
		}
		c.Set(principalKey, p)
		c.Request = c.Request.WithContext(service.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

func principal(c *gin.Context) *service.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*service.Principal)
	return p
}

// authorized aborts the request unless it carries a valid session.
func authorized(c *gin.Context) bool {
	if principal(c) != nil {
		return true
	}
	if v, ok := c.Get(authErrorKey); ok {
		if err, _ := v.(error); errors.Is(err, service.ErrForbidden) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return false
		}
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	return false
}

func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authorized(c) {
			c.Next()
		}
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authorized(c) {
			return
		}
		if !principal(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
