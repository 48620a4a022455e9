package handlers

import (
	"net/http"

	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/commutelink/rideshare-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// FeedHandler serves the grouped, filtered trip feed
type FeedHandler struct {
	feedSvc *services.FeedService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feedSvc *services.FeedService) *FeedHandler {
	return &FeedHandler{feedSvc: feedSvc}
}

// GetFeed returns the current feed snapshot under the caller's filters
// @Summary Get the trip feed
// @Tags Feed
// @Produce json
// @Param type query string false "offer or request"
// @Param direction query string false "to_city or to_town"
// @Param date query string false "Exact day, YYYY-MM-DD"
// @Param bucket query string false "today, tomorrow or upcoming"
// @Param time_from query string false "Earliest departure, HH:MM"
// @Param status query string false "active or closed"
// @Param search query string false "Substring match on pickup location"
// @Param sort_desc query bool false "Sort latest first"
// @Success 200 {object} models.TripFeed
// @Failure 400 {object} map[string]interface{} "Invalid filter"
// @Security BearerAuth
// @Router /api/v1/feed [get]
func (h *FeedHandler) GetFeed(c *gin.Context) {
	var filter models.FeedFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter", "details": err.Error()})
		return
	}

	if err := filter.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	feed, err := h.feedSvc.Feed(&filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, feed)
}
