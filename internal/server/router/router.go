package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedledger/internal/metrics"
	"github.com/mamadbah2/feedledger/internal/server/handlers"
)

// Handlers groups the HTTP adapters. Webhook is nil when WhatsApp is not configured.
type Handlers struct {
	Batches       *handlers.BatchHandler
	Feedings      *handlers.FeedingHandler
	Inventory     *handlers.InventoryHandler
	Costs         *handlers.CostHandler
	Notifications *handlers.NotificationHandler
	Reports       *handlers.ReportHandler
	Webhook       *handlers.WebhookHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, gatherer prometheus.Gatherer, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(metricsMiddleware(m))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	if h.Webhook != nil {
		r.GET("/webhook", h.Webhook.Verify)
		r.POST("/webhook", h.Webhook.Receive)
		r.POST("/send-message", h.Webhook.SendMessage)
	}

	api := r.Group("/api")

	batches := api.Group("/batches")
	batches.POST("", h.Batches.Create)
	batches.GET("", h.Batches.List)
	batches.GET("/:id", h.Batches.Get)
	batches.POST("/:id/close", h.Batches.Close)
	batches.GET("/:id/feedings", h.Feedings.History)
	batches.GET("/:id/feedings/totals", h.Feedings.Totals)
	batches.GET("/:id/feedings/daily", h.Feedings.Daily)

	api.POST("/feedings", h.Feedings.Record)
	api.DELETE("/feedings/:id", h.Feedings.Delete)

	inventory := api.Group("/inventory")
	inventory.POST("", h.Inventory.AddStock)
	inventory.GET("", h.Inventory.List)
	inventory.GET("/:id", h.Inventory.Get)
	inventory.POST("/:id/consume", h.Inventory.Consume)

	costs := api.Group("/costs")
	costs.POST("", h.Costs.Create)
	costs.GET("", h.Costs.Summary)
	costs.GET("/:id", h.Costs.Get)
	costs.DELETE("/:id", h.Costs.Delete)

	api.POST("/devices", h.Notifications.Register)
	api.GET("/devices", h.Notifications.List)
	api.DELETE("/devices/:id", h.Notifications.Unregister)
	api.POST("/notifications/broadcast", h.Notifications.Broadcast)

	api.GET("/reports/status", h.Reports.Status)

	logger.Info("router initialized", zap.Bool("webhook", h.Webhook != nil))
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
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

// metricsMiddleware labels by route template so ids do not explode cardinality.
func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
