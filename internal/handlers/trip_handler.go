package handlers

import (
	"net/http"

	"github.com/commutelink/rideshare-backend/internal/middleware"
	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/commutelink/rideshare-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// TripHandler handles trip lifecycle and passenger reconciliation
// operations
type TripHandler struct {
	tripSvc *services.TripService
}

// NewTripHandler creates a new TripHandler
func NewTripHandler(tripSvc *services.TripService) *TripHandler {
	return &TripHandler{tripSvc: tripSvc}
}

// CreateTrip posts a new trip offer or request
// @Summary Post a new trip
// @Tags Trips
// @Accept json
// @Produce json
// @Param request body models.CreateTripRequest true "Trip details"
// @Success 201 {object} models.Trip
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Security BearerAuth
// @Router /api/v1/trips [post]
func (h *TripHandler) CreateTrip(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trip, err := h.tripSvc.CreateTrip(userCtx.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, trip)
}

// GetTrip returns a single trip
// @Summary Get trip details
// @Tags Trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} models.Trip
// @Failure 404 {object} map[string]interface{} "Trip not found"
// @Security BearerAuth
// @Router /api/v1/trips/{id} [get]
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripSvc.GetTrip(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

// ListMine returns the caller's owned and joined trips
// @Summary List my trips
// @Tags Trips
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/trips/mine [get]
func (h *TripHandler) ListMine(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	owned, joined, err := h.tripSvc.ListMine(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"owned": owned, "joined": joined})
}

// RequestToJoin applies to join a trip
// @Summary Request to join a trip
// @Tags Trips
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param request body models.JoinTripRequest true "Join details"
// @Success 200 {object} models.Trip
// @Failure 409 {object} map[string]interface{} "Trip full, closed or already joined"
// @Security BearerAuth
// @Router /api/v1/trips/{id}/join [post]
func (h *TripHandler) RequestToJoin(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.JoinTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	trip, err := h.tripSvc.RequestToJoin(c.Param("id"), userCtx.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trip)
}

// ApprovePassenger approves a pending join request (owner only)
// @Summary Approve a join request
// @Tags Trips
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param request body models.PassengerActionRequest true "Passenger"
// @Success 200 {object} models.Trip
// @Failure 403 {object} map[string]interface{} "Not the trip owner"
// @Failure 409 {object} map[string]interface{} "No seats remain"
// @Security BearerAuth
// @Router /api/v1/trips/{id}/passengers/approve [post]
func (h *TripHandler) ApprovePassenger(c *gin.Context) {
	h.passengerAction(c, h.tripSvc.ApproveJoinRequest)
}

// RejectPassenger declines a pending join request (owner only)
// @Summary Reject a join request
// @Tags Trips
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param request body models.PassengerActionRequest true "Passenger"
// @Success 200 {object} models.Trip
// @Security BearerAuth
// @Router /api/v1/trips/{id}/passengers/reject [post]
func (h *TripHandler) RejectPassenger(c *gin.Context) {
	h.passengerAction(c, h.tripSvc.RejectJoinRequest)
}

// RemovePassenger removes an approved passenger (owner only)
// @Summary Remove a passenger
// @Tags Trips
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param request body models.PassengerActionRequest true "Passenger"
// @Success 200 {object} models.Trip
// @Security BearerAuth
// @Router /api/v1/trips/{id}/passengers/remove [post]
func (h *TripHandler) RemovePassenger(c *gin.Context) {
	h.passengerAction(c, h.tripSvc.RemovePassenger)
}

// passengerAction binds the shared passenger-target body and dispatches
// to one of the owner actions
func (h *TripHandler) passengerAction(c *gin.Context, action func(tripID, callerID, passengerID string) (*models.Trip, error)) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.PassengerActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	trip, err := action(c.Param("id"), userCtx.UserID, req.PassengerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trip)
}

// LeaveTrip removes the caller from a trip they joined
// @Summary Leave a trip
// @Tags Trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} models.Trip
// @Security BearerAuth
// @Router /api/v1/trips/{id}/leave [post]
func (h *TripHandler) LeaveTrip(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	trip, err := h.tripSvc.LeaveTrip(c.Param("id"), userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trip)
}

// InvitePassenger invites a user onto the trip (owner only)
// @Summary Invite a user to a trip
// @Tags Trips
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param request body models.InvitePassengerRequest true "Invitee"
// @Success 204 "Invitation sent"
// @Security BearerAuth
// @Router /api/v1/trips/{id}/invite [post]
func (h *TripHandler) InvitePassenger(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.InvitePassengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.tripSvc.InvitePassenger(c.Param("id"), userCtx.UserID, req.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AcceptInvitation accepts a trip invitation from the caller's inbox
// @Summary Accept a trip invitation
// @Tags Trips
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param request body models.InvitationActionRequest true "Invitation"
// @Success 200 {object} models.Trip
// @Failure 409 {object} map[string]interface{} "No seats remain"
// @Security BearerAuth
// @Router /api/v1/trips/{id}/invitation/accept [post]
func (h *TripHandler) AcceptInvitation(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.InvitationActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	trip, err := h.tripSvc.AcceptTripInvitation(c.Param("id"), userCtx.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trip)
}

// RejectInvitation declines a trip invitation
// @Summary Decline a trip invitation
// @Tags Trips
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param request body models.InvitationActionRequest true "Invitation"
// @Success 204 "Invitation declined"
// @Security BearerAuth
// @Router /api/v1/trips/{id}/invitation/reject [post]
func (h *TripHandler) RejectInvitation(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.InvitationActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.tripSvc.RejectTripInvitation(c.Param("id"), userCtx.UserID, req.NotificationID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CancelTrip deletes the trip and notifies everyone on it (owner only)
// @Summary Cancel a trip
// @Tags Trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 204 "Trip cancelled"
// @Failure 403 {object} map[string]interface{} "Not the trip owner"
// @Security BearerAuth
// @Router /api/v1/trips/{id} [delete]
func (h *TripHandler) CancelTrip(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	if err := h.tripSvc.CancelTrip(c.Param("id"), userCtx.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ToggleClosed flips the trip's closed flag (owner only)
// @Summary Toggle trip closed state
// @Tags Trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} models.Trip
// @Security BearerAuth
// @Router /api/v1/trips/{id}/toggle-closed [post]
func (h *TripHandler) ToggleClosed(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	trip, err := h.tripSvc.ToggleClosed(c.Param("id"), userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trip)
}

// UpdateTrip edits departure time, seats or pickup location (owner only)
// @Summary Edit a trip
// @Tags Trips
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param request body models.UpdateTripRequest true "Changes"
// @Success 200 {object} models.Trip
// @Failure 409 {object} map[string]interface{} "Seats below approved passengers"
// @Security BearerAuth
// @Router /api/v1/trips/{id} [put]
func (h *TripHandler) UpdateTrip(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trip, err := h.tripSvc.UpdateTrip(c.Param("id"), userCtx.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trip)
}
