package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/markawm/acme-github-issues/core"
	"github.com/markawm/acme-github-issues/internal/http/handler"
	"github.com/markawm/acme-github-issues/internal/http/middleware"
)

type RouterConfig struct {
	WebhookPath string
	Logger      core.Logger
}

type Handlers struct {
	Webhook    *handler.WebhookHandler
	Deliveries *handler.DeliveryHandler
}

// New builds a gin engine with recovery and request logging.
func New(handlers Handlers, cfg RouterConfig) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.Recovery(cfg.Logger))
	engine.Use(middleware.Logger(cfg.Logger))
	SetupRoutes(engine, handlers, cfg)
	return engine
}

func SetupRoutes(router *gin.Engine, handlers Handlers, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	webhookPath := strings.TrimSpace(cfg.WebhookPath)
	if webhookPath == "" {
		webhookPath = "/webhook"
	}
	if handlers.Webhook != nil {
		router.POST(webhookPath, handlers.Webhook.HandleEvent)
	}
	if handlers.Deliveries != nil {
		router.GET("/deliveries/:key", handlers.Deliveries.List)
	}
}
