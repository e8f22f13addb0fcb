package gateway

import (
	"net/http"
	"strconv"

	"github.com/gemmoherb/portal/pkg/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createOrderResp struct {
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

type discountReq struct {
	Amount *decimal.Decimal `json:"amount"`
}

// @Summary Place an order
// @Tags orders
// @Accept json
// @Produce json
// @Param input body service.CreateOrderInput true "Order lines"
// @Success 201 {object} createOrderResp
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders [post]
func (g *Gateway) createOrder(c *gin.Context) {
	var in service.CreateOrderInput
	if !bindJSON(c, &in) {
		return
	}
	o, err := g.services.Orders.CreateOrder(c.Request.Context(), principal(c), in)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createOrderResp{OrderID: o.ID, OrderNumber: o.OrderNumber})
}

// @Summary My orders
// @Tags orders
// @Produce json
// @Success 200 {array} models.Order
// @Failure 401 {object} map[string]string
// @Router /orders/mine [get]
func (g *Gateway) listMyOrders(c *gin.Context) {
	list, err := g.services.Orders.ListMine(c.Request.Context(), principal(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary All orders
// @Tags orders
// @Produce json
// @Success 200 {array} models.Order
// @Failure 403 {object} map[string]string
// @Router /orders [get]
func (g *Gateway) listOrders(c *gin.Context) {
	list, err := g.services.Orders.ListAll(c.Request.Context(), principal(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get order by id
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [get]
func (g *Gateway) getOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := g.services.Orders.GetOrder(c.Request.Context(), principal(c), id)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o, "items": o.Items})
}

// @Summary Order audit trail
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Param limit query int false "Maximum entries"
// @Success 200 {array} repository.AuditLog
// @Router /orders/{id}/history [get]
func (g *Gateway) orderHistory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var limit int64
	if v := c.Query("limit"); v != "" {
		if x, err := strconv.ParseInt(v, 10, 64); err == nil {
			limit = x
		}
	}
	entries, err := g.services.Orders.History(c.Request.Context(), principal(c), id, limit)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// @Summary Update order status
// @Tags orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param input body updateStatusReq true "New status"
// @Success 200 {object} models.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/status [put]
func (g *Gateway) updateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateStatusReq
	if !bindJSON(c, &req) {
		return
	}
	o, err := g.services.Orders.UpdateStatus(c.Request.Context(), principal(c), id, req.Status)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Update payment
// @Tags orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param input body service.PaymentUpdate true "Payment fields"
// @Success 200 {object} models.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/payment [put]
func (g *Gateway) updatePayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.PaymentUpdate
	if !bindJSON(c, &in) {
		return
	}
	o, err := g.services.Orders.UpdatePayment(c.Request.Context(), principal(c), id, in)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Apply discount
// @Description The amount is clamped between zero and the order's subtotal plus tax.
// @Tags orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param input body discountReq true "Discount"
// @Success 200 {object} models.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/discount [put]
func (g *Gateway) applyDiscount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req discountReq
	if !bindJSON(c, &req) {
		return
	}
	if req.Amount == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}
	o, err := g.services.Orders.ApplyDiscount(c.Request.Context(), principal(c), id, *req.Amount)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Delete order
// @Tags orders
// @Param id path int true "Order ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [delete]
func (g *Gateway) deleteOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := g.services.Orders.DeleteOrder(c.Request.Context(), principal(c), id); err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
