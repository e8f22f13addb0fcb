// Package gateway is the portal's HTTP API: gin routes under /api/v1 in front of the
// service layer.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gemmoherb/portal/pkg/config"
	"github.com/gemmoherb/portal/pkg/service"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Gateway struct {
	config   *config.Config
	services *service.Services
	logger   *zap.Logger
	router   *gin.Engine
	server   *http.Server
}

func NewGateway(cfg *config.Config, svcs *service.Services, logger *zap.Logger) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	g := &Gateway{
		config:   cfg,
		services: svcs,
		logger:   logger,
		router:   router,
	}
	g.SetupRoutes()
	return g
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := g.router.Group("/api/v1")
	v1.Use(g.authenticate())
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", g.login)
			authGroup.POST("/logout", g.logout)
			authGroup.POST("/register", g.register)
			authGroup.GET("/me", g.me)
		}

		products := v1.Group("/products")
		{
			products.GET("", g.listProducts)
			products.GET("/:id", g.getProduct)
			products.POST("", requireAdmin(), g.createProduct)
			products.PUT("/:id", requireAdmin(), g.updateProduct)
			products.POST("/:id/toggle-stock", requireAdmin(), g.toggleStock)
			products.DELETE("/:id", requireAdmin(), g.deleteProduct)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("", requireAuth(), g.createOrder)
			orders.GET("/mine", requireAuth(), g.listMyOrders)
			orders.GET("", requireAdmin(), g.listOrders)
			orders.GET("/:id", requireAuth(), g.getOrder)
			orders.GET("/:id/history", requireAdmin(), g.orderHistory)
			orders.PUT("/:id/status", requireAdmin(), g.updateOrderStatus)
			orders.PUT("/:id/payment", requireAdmin(), g.updatePayment)
			orders.PUT("/:id/discount", requireAdmin(), g.applyDiscount)
			orders.DELETE("/:id", requireAdmin(), g.deleteOrder)
		}

		messages := v1.Group("/messages", requireAuth())
		{
			messages.POST("", g.sendMessage)
			messages.GET("/conversation/:userId", g.conversation)
			messages.POST("/read/:senderId", g.markRead)
			messages.GET("/unread-count", g.unreadCount)
		}

		users := v1.Group("/users")
		{
			users.GET("", requireAdmin(), g.listUsers)
			users.GET("/:id", requireAuth(), g.getUser)
			users.POST("", requireAdmin(), g.createUser)
			users.POST("/:id/approve", requireAdmin(), g.approveUser)
			users.POST("/:id/reject", requireAdmin(), g.rejectUser)
			users.PUT("/:id", requireAdmin(), g.updateUser)
			users.DELETE("/:id", requireAdmin(), g.deleteUser)
		}
	}

	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	addr := g.config.Gateway.Addr()
	g.server = &http.Server{
		Addr:              addr,
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.logger.Info("Gateway starting", zap.String("address", addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if p := principal(c); p != nil {
			fields = append(fields, zap.Uint("user_id", p.UserID))
		}
		logger.Info("HTTP request", fields...)
	}
}
