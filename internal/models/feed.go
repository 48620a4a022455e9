package models

import (
	"errors"
	"time"
)

// DayBucket groups trips for display
type DayBucket string

const (
	DayBucketToday    DayBucket = "today"
	DayBucketTomorrow DayBucket = "tomorrow"
	DayBucketUpcoming DayBucket = "upcoming"
)

// TripStatusFilter narrows the feed by close state
type TripStatusFilter string

const (
	TripStatusAny    TripStatusFilter = ""
	TripStatusActive TripStatusFilter = "active"
	TripStatusClosed TripStatusFilter = "closed"
)

// FeedFilter describes one view's filter state. Zero values mean
// "no filtering" for that dimension.
type FeedFilter struct {
	Type      TripType         `form:"type"`
	Direction Direction        `form:"direction"`
	Date      string           `form:"date"`      // exact calendar day, YYYY-MM-DD
	Bucket    DayBucket        `form:"bucket"`    // relative day bucket
	TimeFrom  string           `form:"time_from"` // HH:MM, inclusive lower bound on time of day
	Status    TripStatusFilter `form:"status"`
	Search    string           `form:"search"` // substring match on pickup location
	SortDesc  bool             `form:"sort_desc"`
}

// Validate validates the feed filter
func (f *FeedFilter) Validate() error {
	if f.Type != "" && f.Type != TripTypeOffer && f.Type != TripTypeRequest {
		return errors.New("type must be 'offer' or 'request'")
	}
	if f.Direction != "" && !ValidDirection(f.Direction) {
		return errors.New("direction must be 'to_city' or 'to_town'")
	}
	if f.Date != "" {
		if _, err := time.Parse("2006-01-02", f.Date); err != nil {
			return errors.New("date must be in YYYY-MM-DD format")
		}
	}
	if f.TimeFrom != "" {
		if _, err := time.Parse("15:04", f.TimeFrom); err != nil {
			return errors.New("time_from must be in HH:MM format")
		}
	}
	switch f.Bucket {
	case "", DayBucketToday, DayBucketTomorrow, DayBucketUpcoming:
	default:
		return errors.New("bucket must be 'today', 'tomorrow' or 'upcoming'")
	}
	switch f.Status {
	case TripStatusAny, TripStatusActive, TripStatusClosed:
	default:
		return errors.New("status must be 'active' or 'closed'")
	}
	return nil
}

// FeedGroup is one day bucket of the feed, sorted by departure time
type FeedGroup struct {
	Bucket DayBucket `json:"bucket"`
	Trips  []Trip    `json:"trips"`
}

// TripFeed is the grouped, filtered view the UI renders
type TripFeed struct {
	Groups      []FeedGroup `json:"groups"`
	GeneratedAt time.Time   `json:"generated_at"`
}
