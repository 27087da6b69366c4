package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sambafall/comptoir/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares. Everything
// under /api requires an active operator session.
func New(handler *handlers.APIHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/session/login", handler.Login)
	r.POST("/session/logout", handler.Logout)

	api := r.Group("/api", handler.RequireSession)
	{
		api.GET("/sync/status", handler.SyncStatus)

		api.GET("/settings", handler.GetSettings)
		api.PUT("/settings", handler.UpdateSettings)

		api.GET("/products", handler.ListProducts)
		api.POST("/products", handler.CreateProduct)
		api.PUT("/products/:id", handler.UpdateProduct)

		api.GET("/customers", handler.ListCustomers)
		api.POST("/customers", handler.CreateCustomer)
		api.POST("/customers/:id/payments", handler.CollectPayment)

		api.GET("/orders", handler.ListOrders)
		api.POST("/orders", handler.CreateOrder)
		api.POST("/orders/:id/retry", handler.RetryOrderSteps)
		api.POST("/orders/:id/status", handler.UpdateOrderStatus)

		api.GET("/expenses", handler.ListExpenses)
		api.POST("/expenses", handler.CreateExpense)
		api.GET("/payments", handler.ListPayments)

		api.GET("/dashboard", handler.Dashboard)
		api.GET("/reports/top-sellers", handler.TopSellers)
		api.GET("/reports/valuation", handler.InventoryValuation)
		api.GET("/reports/category-totals", handler.CategoryTotals)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
