package handlers

import (
	"net/http"

	"github.com/commutelink/rideshare-backend/internal/middleware"
	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/commutelink/rideshare-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// adminTokenHeader carries the shared broadcast token on admin routes
const adminTokenHeader = "X-Admin-Token"

// AnnouncementHandler serves admin broadcasts and dismissals
type AnnouncementHandler struct {
	annSvc *services.AnnouncementService
}

// NewAnnouncementHandler creates a new AnnouncementHandler
func NewAnnouncementHandler(annSvc *services.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{annSvc: annSvc}
}

// List returns the active announcements this device has not dismissed
// @Summary List announcements
// @Tags Announcements
// @Produce json
// @Success 200 {array} models.Announcement
// @Security BearerAuth
// @Router /api/v1/announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	deviceID := middleware.DeviceKey(c)

	announcements, err := h.annSvc.ListForUser(c.Request.Context(), userCtx.UserID, deviceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, announcements)
}

// Dismiss hides an announcement on the calling device
// @Summary Dismiss an announcement
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 204 "Dismissed"
// @Failure 404 {object} map[string]interface{} "Announcement not found"
// @Security BearerAuth
// @Router /api/v1/announcements/{id}/dismiss [post]
func (h *AnnouncementHandler) Dismiss(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	deviceID := middleware.DeviceKey(c)

	if err := h.annSvc.Dismiss(c.Request.Context(), userCtx.UserID, deviceID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Create publishes a new broadcast (admin token required)
// @Summary Publish an announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param request body models.CreateAnnouncementRequest true "Announcement"
// @Success 201 {object} models.Announcement
// @Failure 401 {object} map[string]interface{} "Invalid admin token"
// @Router /api/v1/admin/announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req models.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ann, err := h.annSvc.Create(c.GetHeader(adminTokenHeader), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ann)
}

// Deactivate retires a broadcast (admin token required)
// @Summary Retire an announcement
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 204 "Retired"
// @Failure 401 {object} map[string]interface{} "Invalid admin token"
// @Router /api/v1/admin/announcements/{id} [delete]
func (h *AnnouncementHandler) Deactivate(c *gin.Context) {
	if err := h.annSvc.Deactivate(c.GetHeader(adminTokenHeader), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
