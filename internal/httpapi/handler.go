// Package httpapi implements the small HTTP surface alongside the
// WebSocket transport: health, default config, and admin login (spec.md
// §6.3), grounded on rias-glitch-telegram-webapp's gin handler package.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/minesarena/server/config"
	"github.com/minesarena/server/internal/admin"
)

// Handler bundles the dependencies the HTTP routes need.
type Handler struct {
	auth     *admin.Auth
	settings config.GameSettings
}

// NewHandler constructs a Handler.
func NewHandler(auth *admin.Auth, settings config.GameSettings) *Handler {
	return &Handler{auth: auth, settings: settings}
}

// RegisterRoutes mounts the HTTP surface on r.
func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health", h.Health)
	r.GET("/api/config", h.GetConfig)
	r.POST("/api/admin/login", h.AdminLogin)
}

// Health reports liveness for load balancers and container orchestrators.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetConfig exposes the server's default room settings so clients can
// render them before a room is created (spec.md §6.3).
func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"gridSize":         h.settings.GridSize,
		"defaultMinesCount": h.settings.MinesCount,
		"turnTimeLimit":    h.settings.TurnTimeLimit,
		"minRevealsToPass": h.settings.MinRevealsToPass,
	})
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminLogin validates credentials and issues a bearer token for the admin
// WebSocket handshake and any other authenticated admin request (spec.md
// §6.3: "POST /api/admin/login {username, password} -> {success, token} or
// 401").
func (h *Handler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "bad request"})
		return
	}

	if !h.auth.CheckCredentials(req.Username, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false})
		return
	}

	token, err := h.auth.IssueToken(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}
