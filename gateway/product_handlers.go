package gateway

import (
	"net/http"

	"github.com/gemmoherb/portal/pkg/service"
	"github.com/gin-gonic/gin"
)

// @Summary List products
// @Description Active products ordered by category then name.
// @Tags products
// @Produce json
// @Success 200 {array} models.Product
// @Router /products [get]
func (g *Gateway) listProducts(c *gin.Context) {
	list, err := g.services.Catalog.List(c.Request.Context())
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get product by id
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} map[string]string
// @Router /products/{id} [get]
func (g *Gateway) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := g.services.Catalog.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Param input body service.ProductInput true "Product"
// @Success 201 {object} models.Product
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /products [post]
func (g *Gateway) createProduct(c *gin.Context) {
	var in service.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := g.services.Catalog.Create(c.Request.Context(), principal(c), in)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Update product
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param input body service.ProductPatch true "Fields to change"
// @Success 200 {object} models.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id} [put]
func (g *Gateway) updateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch service.ProductPatch
	if !bindJSON(c, &patch) {
		return
	}
	p, err := g.services.Catalog.Update(c.Request.Context(), principal(c), id, patch)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Toggle stock
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} map[string]string
// @Router /products/{id}/toggle-stock [post]
func (g *Gateway) toggleStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := g.services.Catalog.ToggleStock(c.Request.Context(), principal(c), id)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Description Hides the product from the catalog. Past orders keep their copy.
// @Tags products
// @Param id path int true "Product ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} map[string]string
// @Router /products/{id} [delete]
func (g *Gateway) deleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := g.services.Catalog.Delete(c.Request.Context(), principal(c), id); err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
