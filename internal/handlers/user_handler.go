package handlers

import (
	"net/http"

	"github.com/commutelink/rideshare-backend/internal/database"
	"github.com/commutelink/rideshare-backend/internal/middleware"
	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/gin-gonic/gin"
)

// UserHandler syncs profile snapshots from the auth provider. The
// snapshot feeds the denormalized passenger entries on trip cards.
type UserHandler struct {
	userRepo *database.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo *database.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// syncProfileRequest carries the profile fields the token does not
type syncProfileRequest struct {
	Photo string `json:"photo"`
}

// GetProfile returns the caller's stored profile snapshot
// @Summary Get my profile
// @Tags Users
// @Produce json
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]interface{} "Profile not synced yet"
// @Security BearerAuth
// @Router /api/v1/users/me [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	user, err := h.userRepo.GetByID(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// SyncProfile upserts the caller's profile snapshot from the token
// claims plus the optional photo. Clients call this after sign-in so
// trip cards show current names.
// @Summary Sync my profile
// @Tags Users
// @Accept json
// @Produce json
// @Param request body syncProfileRequest false "Extra profile fields"
// @Success 200 {object} models.User
// @Security BearerAuth
// @Router /api/v1/users/me [put]
func (h *UserHandler) SyncProfile(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req syncProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	user := &models.User{
		ID:    userCtx.UserID,
		Name:  userCtx.Name,
		Phone: userCtx.Phone,
		Photo: req.Photo,
	}
	if err := h.userRepo.Upsert(user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
