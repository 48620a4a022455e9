package handlers

import (
	"net/http"
	"strconv"

	"github.com/commutelink/rideshare-backend/internal/middleware"
	"github.com/commutelink/rideshare-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// NotificationHandler serves the user's notification inbox
type NotificationHandler struct {
	notifSvc *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifSvc *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifSvc: notifSvc}
}

// List returns the caller's inbox, newest first
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Param limit query int false "Maximum notifications to return"
// @Success 200 {array} models.AppNotification
// @Security BearerAuth
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	notifications, err := h.notifSvc.List(userCtx.UserID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// UnreadCount returns the inbox badge count
// @Summary Get unread notification count
// @Tags Notifications
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	count, err := h.notifSvc.UnreadCount(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkRead marks one notification read
// @Summary Mark a notification read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204 "Marked read"
// @Failure 404 {object} map[string]interface{} "Notification not found"
// @Security BearerAuth
// @Router /api/v1/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	if err := h.notifSvc.MarkRead(c.Param("id"), userCtx.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllRead marks the whole inbox read
// @Summary Mark all notifications read
// @Tags Notifications
// @Produce json
// @Success 204 "Marked read"
// @Security BearerAuth
// @Router /api/v1/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	if err := h.notifSvc.MarkAllRead(userCtx.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete removes one notification
// @Summary Delete a notification
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204 "Deleted"
// @Security BearerAuth
// @Router /api/v1/notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	if err := h.notifSvc.Delete(c.Param("id"), userCtx.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteAll clears the caller's inbox
// @Summary Delete all notifications
// @Tags Notifications
// @Produce json
// @Success 204 "Deleted"
// @Security BearerAuth
// @Router /api/v1/notifications [delete]
func (h *NotificationHandler) DeleteAll(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	if err := h.notifSvc.DeleteAll(userCtx.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
