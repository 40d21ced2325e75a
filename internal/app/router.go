// internal/app/router.go
package app

import (
	"net/http"

	adminHandler "mohandz-service/internal/handlers/admin"
	authHandler "mohandz-service/internal/handlers/auth"
	clientHandler "mohandz-service/internal/handlers/client"
	filesHandler "mohandz-service/internal/handlers/files"
	requestHandler "mohandz-service/internal/handlers/request"
	wsHandler "mohandz-service/internal/handlers/websocket"
	"mohandz-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	AuthHandler    *authHandler.AuthHandler
	RequestHandler *requestHandler.RequestHandler
	ClientHandler  *clientHandler.ClientHandler
	AdminHandler   *adminHandler.AdminHandler
	FilesHandler   *filesHandler.FilesHandler
	WSHandler      *wsHandler.WebSocketHandler
	Guard          *middleware.Guard
	Metrics        http.Handler
	Health         gin.HandlerFunc
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	// ==================== Health & Metrics ====================
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(h.Metrics))

	// ==================== WebSocket ====================
	r.GET("/ws", h.Guard.RequireSession(), h.WSHandler.HandleConnection)

	// ==================== Attachments ====================
	r.GET("/files/:bucket/*path", h.FilesHandler.Serve)

	api := r.Group("/api/v1")

	// ==================== Auth ====================
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.AuthHandler.Register)
		authGroup.POST("/login", h.AuthHandler.Login)
		authGroup.POST("/forgot-password", h.AuthHandler.ForgotPassword)
		authGroup.POST("/update-password", h.AuthHandler.UpdatePassword)
		authGroup.GET("/session", h.AuthHandler.Session)
		authGroup.POST("/password-strength", h.AuthHandler.PasswordStrength)

		authGroup.POST("/logout", h.Guard.RequireSession(), h.AuthHandler.Logout)
		authGroup.POST("/refresh", h.Guard.RequireSession(), h.AuthHandler.Refresh)
	}

	// ==================== Public Forms ====================
	api.POST("/requests", h.RequestHandler.SubmitServiceRequest)
	api.GET("/requests/prefill", h.RequestHandler.Prefill)
	api.POST("/contact", h.RequestHandler.SubmitContact)

	// ==================== Client Dashboard ====================
	client := api.Group("/client")
	client.Use(h.Guard.ClientOnly())
	{
		client.GET("/profile", h.ClientHandler.GetProfile)
		client.PUT("/profile", h.ClientHandler.UpdateProfile)
		client.GET("/projects", h.ClientHandler.ListProjects)
		client.GET("/requests", h.ClientHandler.ListRequests)
		client.POST("/requests", h.RequestHandler.SubmitServiceRequest)
	}

	// ==================== Admin Dashboard ====================
	admin := api.Group("/admin")
	admin.Use(h.Guard.AdminOnly())
	{
		admin.GET("/overview", h.AdminHandler.Overview)
		admin.GET("/realtime", h.WSHandler.GetStats)

		admin.GET("/requests", h.AdminHandler.ListRequests)
		admin.PUT("/requests/:id/status", h.AdminHandler.UpdateRequestStatus)
		admin.DELETE("/requests/:id", h.AdminHandler.DeleteRequest)

		admin.GET("/contacts", h.AdminHandler.ListContacts)
		admin.DELETE("/contacts/:id", h.AdminHandler.DeleteContact)

		admin.GET("/projects", h.AdminHandler.ListProjects)
		admin.POST("/projects", h.AdminHandler.CreateProject)
		admin.PUT("/projects/:id/status", h.AdminHandler.UpdateProjectStatus)

		admin.GET("/users", h.AdminHandler.ListUsers)
		admin.PUT("/users/:id/role", h.AdminHandler.ChangeRole)
	}
}
