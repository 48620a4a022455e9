package handlers

import (
	"errors"
	"net/http"

	"github.com/commutelink/rideshare-backend/internal/database"
	"github.com/commutelink/rideshare-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// respondError maps service and repository errors onto HTTP statuses.
// Unknown errors surface as a generic 500 so internals never leak.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrTripNotFound),
		errors.Is(err, database.ErrNotificationNotFound),
		errors.Is(err, database.ErrAnnouncementNotFound),
		errors.Is(err, database.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, database.ErrPassengerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, database.ErrConstraintViolation),
		errors.Is(err, services.ErrTripNotJoinable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrNotTripOwner),
		errors.Is(err, services.ErrNotTripMember),
		errors.Is(err, services.ErrAdminDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrAdminToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrOwnTrip),
		errors.Is(err, services.ErrInvitationMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
