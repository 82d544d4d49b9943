// Package http wires the gin engine: middleware chain and route table.
package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"timetrack-auth/internal/http/handler"
	"timetrack-auth/internal/http/middleware"
)

// RouterDeps bundles everything the route table needs.
type RouterDeps struct {
	ServiceName string
	Auth        *middleware.Auth
	DeviceGuard gin.HandlerFunc
	AuthH       *handler.AuthHandler
	DeviceAuthH *handler.DeviceAuthHandler
	SessionH    *handler.SessionHandler
	DeviceH     *handler.DeviceHandler
}

// NewRouter wires gin routes and middleware.
func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(otelgin.Middleware(d.ServiceName))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/login", d.AuthH.Login)
		auth.POST("/refresh", d.AuthH.Refresh)
		auth.POST("/logout", d.AuthH.Logout)

		device := auth.Group("/device")
		{
			device.GET("/authorize", d.DeviceAuthH.Authorize)
			device.POST("/token", d.DeviceAuthH.Exchange)
		}

		sessions := auth.Group("/sessions", d.Auth.RequireAuth)
		{
			sessions.GET("", d.SessionH.ListMine)
			sessions.GET("/tenant", middleware.RequireTenant, d.SessionH.ListTenant)
			sessions.DELETE("/:id", d.SessionH.Revoke)
		}
	}

	devices := r.Group("/devices")
	{
		devices.GET("", d.Auth.RequireAuth, middleware.RequireTenant, d.DeviceH.ListMine)
		devices.POST("/revoke", d.Auth.RequireAuth, middleware.RequireTenant, d.DeviceH.Revoke)
		devices.POST("/heartbeat", d.DeviceGuard, d.DeviceH.Heartbeat)
	}

	return r
}
