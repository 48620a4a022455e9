package handlers

import (
	"net/http"

	"github.com/commutelink/rideshare-backend/internal/ws"
	"github.com/commutelink/rideshare-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer; the upgrade itself accepts
	// any origin so native mobile clients connect without one.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades authenticated clients onto the event hub
type WSHandler struct {
	hub        *ws.Hub
	jwtService *jwt.Service
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *ws.Hub, jwtService *jwt.Service) *WSHandler {
	return &WSHandler{hub: hub, jwtService: jwtService}
}

// Connect upgrades the connection and serves it until the client drops.
// Browsers cannot set headers on websocket dials, so the access token
// rides in the query string instead of the Authorization header.
func (h *WSHandler) Connect(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token query parameter is required"})
		return
	}

	claims, err := h.jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid access token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response
		return
	}

	h.hub.HandleConn(claims.UserID, conn)
}
