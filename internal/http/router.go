package httpx

import (
	"github.com/gin-gonic/gin"

	"github.com/you/storefront/internal/http/handlers"
	"github.com/you/storefront/internal/http/middleware"
)

// BuildRouter wires the storefront API surface the mobile SDK consumes.
func BuildRouter(ah *handlers.AuthHandlers, uh *handlers.UserHandlers, authMW *middleware.AuthMW) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	auth := r.Group("/auth")
	auth.POST("/send-otp/", ah.SendOTP)
	auth.POST("/verify-otp/", ah.VerifyOTP)
	auth.POST("/token/refresh/", ah.Refresh)
	// Older SDK builds used the short refresh path; both stay live.
	auth.POST("/refresh/", ah.Refresh)
	auth.POST("/logout/", authMW.RequireAuth(), ah.Logout)

	users := r.Group("/users")
	users.POST("/", authMW.RequireAuth(), uh.Create)
	users.GET("/me/", authMW.RequireAuth(), uh.Me)

	return r
}
