package gateway

import (
	"net/http"

	"github.com/gemmoherb/portal/pkg/service"
	"github.com/gin-gonic/gin"
)

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (g *Gateway) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(g.config.Auth.CookieName, token, maxAge, "/", "", g.config.Auth.CookieSecure, true)
}

// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginReq true "Credentials"
// @Success 200 {object} service.LoginResult
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /auth/login [post]
func (g *Gateway) login(c *gin.Context) {
	var req loginReq
	if !bindJSON(c, &req) {
		return
	}
	res, err := g.services.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		g.respondError(c, err)
		return
	}
	g.setSessionCookie(c, res.Token, int(g.services.Auth.SessionTTL().Seconds()))
	c.JSON(http.StatusOK, res)
}

// @Summary Log out
// @Tags auth
// @Success 200 {object} map[string]bool
// @Router /auth/logout [post]
func (g *Gateway) logout(c *gin.Context) {
	g.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary Register a pharmacy
// @Description The account stays pending until an admin approves it.
// @Tags auth
// @Accept json
// @Produce json
// @Param input body service.RegisterInput true "Registration"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/register [post]
func (g *Gateway) register(c *gin.Context) {
	var in service.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := g.services.Auth.Register(c.Request.Context(), in)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Router /auth/me [get]
func (g *Gateway) me(c *gin.Context) {
	user, err := g.services.Auth.Me(c.Request.Context(), principal(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
