package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"valentine/internal/config"
)

// NewRouter wires the page, image and API routes onto a fresh gin engine.
// Every path not listed here answers 404.
func NewRouter(cfg *config.Config, store EventStore, logger *zap.Logger) (*gin.Engine, error) {
	engine := gin.New()
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false
	if err := engine.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	rm := NewRequestMiddleware(logger)
	engine.Use(rm.ProcessRequest())
	engine.Use(rm.RecoverPanic())

	h := NewHandler(store, logger, cfg.Content, cfg.Server.MaxBodyBytes)

	engine.GET("/", h.HandleIndex)
	engine.GET("/index.html", h.HandleIndex)
	engine.GET("/image/*filepath", h.HandleImage)

	api := engine.Group("/api")
	api.GET("/last", h.HandleLast)

	writes := api.Group("")
	limit, err := NewRateLimiter(cfg.RateLimit, logger)
	if err != nil {
		return nil, err
	}
	if limit != nil {
		writes.Use(limit)
	}
	writes.POST("/sign", h.HandleSign)
	writes.POST("/click", h.HandleClick)

	engine.NoRoute(h.HandleNotFound)
	engine.NoMethod(h.HandleNotFound)

	return engine, nil
}
