package handlers

import (
	"net/http"
	"strconv"

	"github.com/commutelink/rideshare-backend/internal/middleware"
	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/commutelink/rideshare-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// ChatHandler handles trip chat threads and read watermarks
type ChatHandler struct {
	chatSvc *services.ChatService
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatSvc *services.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// SendMessage posts a message to a trip's chat thread
// @Summary Send a chat message
// @Tags Chat
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param request body models.SendMessageRequest true "Message"
// @Success 201 {object} models.ChatMessage
// @Failure 403 {object} map[string]interface{} "Not on this trip"
// @Security BearerAuth
// @Router /api/v1/trips/{id}/chat [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	sender := &models.User{ID: userCtx.UserID, Name: userCtx.Name}
	msg, err := h.chatSvc.SendMessage(c.Param("id"), sender, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// ListMessages returns a trip's chat thread, oldest first
// @Summary List chat messages
// @Tags Chat
// @Produce json
// @Param id path string true "Trip ID"
// @Param limit query int false "Maximum messages to return"
// @Success 200 {array} models.ChatMessage
// @Security BearerAuth
// @Router /api/v1/trips/{id}/chat [get]
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))
	messages, err := h.chatSvc.ListMessages(c.Param("id"), userCtx.UserID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// MarkRead advances the caller's read watermark for this trip on the
// calling device and returns the new watermark
// @Summary Mark a chat thread read
// @Tags Chat
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/trips/{id}/chat/read [post]
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	deviceID := middleware.DeviceKey(c)

	watermark := h.chatSvc.AdvanceWatermark(c.Request.Context(), c.Param("id"), userCtx.UserID, deviceID)
	c.JSON(http.StatusOK, gin.H{"watermark": watermark})
}

// UnreadCount returns the unread badge count for this trip's thread
// @Summary Get unread message count
// @Tags Chat
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/trips/{id}/chat/unread [get]
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	deviceID := middleware.DeviceKey(c)

	count, err := h.chatSvc.UnreadCount(c.Request.Context(), c.Param("id"), userCtx.UserID, deviceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}
