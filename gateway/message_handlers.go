package gateway

import (
	"net/http"

	"github.com/gemmoherb/portal/pkg/service"
	"github.com/gin-gonic/gin"
)

// @Summary Send a message
// @Tags messages
// @Accept json
// @Produce json
// @Param input body service.SendMessageInput true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /messages [post]
func (g *Gateway) sendMessage(c *gin.Context) {
	var in service.SendMessageInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := g.services.Messages.Send(c.Request.Context(), principal(c), in)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// @Summary Conversation with a user
// @Tags messages
// @Produce json
// @Param userId path int true "Other participant"
// @Success 200 {array} models.Message
// @Router /messages/conversation/{userId} [get]
func (g *Gateway) conversation(c *gin.Context) {
	other, ok := pathID(c, "userId")
	if !ok {
		return
	}
	list, err := g.services.Messages.Conversation(c.Request.Context(), principal(c), other)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Mark messages from a sender as read
// @Tags messages
// @Param senderId path int true "Sender"
// @Success 200 {object} map[string]bool
// @Router /messages/read/{senderId} [post]
func (g *Gateway) markRead(c *gin.Context) {
	sender, ok := pathID(c, "senderId")
	if !ok {
		return
	}
	if err := g.services.Messages.MarkRead(c.Request.Context(), principal(c), sender); err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary Unread message count
// @Tags messages
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /messages/unread-count [get]
func (g *Gateway) unreadCount(c *gin.Context) {
	n, err := g.services.Messages.UnreadCount(c.Request.Context(), principal(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}
