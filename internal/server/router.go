// Package server wires handlers, middleware, and the HTTP listener.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "fintrack/internal/docs" // Import swagger docs
	"fintrack/internal/handlers"
	"fintrack/internal/middleware"
	"fintrack/internal/services"
)

// Services bundles the business services the API exposes.
type Services struct {
	Categories   services.CategoryServicer
	Transactions services.TransactionServicer
	Reports      services.ReportServicer
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterOptions tunes the router.
type RouterOptions struct {
	RequestTimeout time.Duration
	// Health is checked by /api/health when set.
	Health Pinger
}

// NewRouter builds the Gin engine with every route registered.
func NewRouter(svcs Services, opts RouterOptions) *gin.Engine {
	categoryHandler := handlers.NewCategoryHandler(svcs.Categories)
	transactionHandler := handlers.NewTransactionHandler(svcs.Transactions)
	reportHandler := handlers.NewReportHandler(svcs.Reports)

	router := gin.New()
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())
	router.NoRoute(middleware.NotFound())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", health(opts.Health))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Timeout(opts.RequestTimeout))

	// Category routes
	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:name", categoryHandler.GetCategory)
	categories.PATCH("/:name", categoryHandler.UpdateCategory)
	categories.DELETE("/:name", categoryHandler.DeleteCategory)

	// Transaction routes; the static segments take precedence over :id
	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/search", transactionHandler.SearchTransactions)
	transactions.GET("/summary", reportHandler.MonthlySummary)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/bulk", transactionHandler.BulkDeleteTransactions)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func health(p Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := p.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "database unavailable", "data": nil})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok", "data": gin.H{"status": "ok"}})
	}
}
