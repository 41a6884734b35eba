package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/storefront/internal/config"
	httpx "github.com/you/storefront/internal/http"
	"github.com/you/storefront/internal/http/handlers"
	"github.com/you/storefront/internal/http/middleware"
	"github.com/you/storefront/internal/infrastructure/database"
)

// Run starts the stub backend and blocks until the server stops.
func Run(cfg *config.Config, log *zap.Logger) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	container, err := NewContainer(cfg, log)
	if err != nil {
		return err
	}
	if err := database.Ping(context.Background(), container.RedisClient); err != nil {
		return err
	}

	authH := handlers.NewAuthHandlers(container.AccountSvc, container.Audit)
	userH := handlers.NewUserHandlers(container.AccountSvc, container.Audit)
	authMW := middleware.NewAuthMW(container.TokenSvc, container.SessionRepo)

	router := httpx.BuildRouter(authH, userH, authMW)

	addr := ":" + cfg.Port
	log.Info("listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, router)
}
