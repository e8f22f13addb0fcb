package gateway

import (
	"net/http"

	"github.com/gemmoherb/portal/pkg/service"
	"github.com/gin-gonic/gin"
)

// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Failure 403 {object} map[string]string
// @Router /users [get]
func (g *Gateway) listUsers(c *gin.Context) {
	list, err := g.services.Users.List(c.Request.Context(), principal(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get user by id
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]string
// @Router /users/{id} [get]
func (g *Gateway) getUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := g.services.Users.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param input body service.CreateUserInput true "Account"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /users [post]
func (g *Gateway) createUser(c *gin.Context) {
	var in service.CreateUserInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := g.services.Users.Create(c.Request.Context(), principal(c), in)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// @Summary Approve a registration
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Router /users/{id}/approve [post]
func (g *Gateway) approveUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := g.services.Users.Approve(c.Request.Context(), principal(c), id)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary Reject a registration
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Router /users/{id}/reject [post]
func (g *Gateway) rejectUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := g.services.Users.Reject(c.Request.Context(), principal(c), id)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param input body service.UserPatch true "Fields to change"
// @Success 200 {object} models.User
// @Router /users/{id} [put]
func (g *Gateway) updateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch service.UserPatch
	if !bindJSON(c, &patch) {
		return
	}
	u, err := g.services.Users.Update(c.Request.Context(), principal(c), id, patch)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary Delete user
// @Tags users
// @Param id path int true "User ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} map[string]string
// @Router /users/{id} [delete]
func (g *Gateway) deleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := g.services.Users.Delete(c.Request.Context(), principal(c), id); err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
