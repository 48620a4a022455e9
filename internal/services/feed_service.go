package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/commutelink/rideshare-backend/internal/database"
	"github.com/commutelink/rideshare-backend/internal/events"
	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/commutelink/rideshare-backend/internal/observability"
	"github.com/sirupsen/logrus"
)

// HeartbeatInterval is how often the feed clock refreshes. Expiry must
// advance on wall-clock time, not only on data changes: with no new
// writes a trip still has to fall out of the list once its grace window
// passes, so snapshots are computed against a ticking clock rather than
// the request time alone.
const HeartbeatInterval = time.Minute

// FeedService maintains the filtered, day-bucketed trip view. Consumers
// call Feed per request; websocket views recompute on bus events and on
// the heartbeat tick.
type FeedService struct {
	tripRepo *database.TripRepository
	bus      *events.Bus
	logger   *logrus.Logger

	mu   sync.RWMutex
	now  time.Time
	stop chan struct{}
}

// NewFeedService creates a new FeedService
func NewFeedService(tripRepo *database.TripRepository, bus *events.Bus, logger *logrus.Logger) *FeedService {
	return &FeedService{
		tripRepo: tripRepo,
		bus:      bus,
		logger:   logger,
		now:      time.Now(),
	}
}

// Start launches the heartbeat clock
func (s *FeedService) Start() {
	s.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case tick := <-ticker.C:
				s.mu.Lock()
				s.now = tick
				s.mu.Unlock()
				s.bus.Publish(events.Event{Type: events.FeedHeartbeat})
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the heartbeat clock
func (s *FeedService) Stop() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// Clock returns the heartbeat time. Trips expire against this clock, so
// the whole view shifts at most one heartbeat after real time.
func (s *FeedService) Clock() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now
}

// Feed computes one snapshot of the filtered, grouped trip view
func (s *FeedService) Feed(filter *models.FeedFilter) (*models.TripFeed, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	now := s.Clock()

	trips, err := s.tripRepo.ListLive(now.Add(-models.TripGracePeriod))
	if err != nil {
		return nil, err
	}

	filtered := filterTrips(trips, filter, now)

	// A seat request whose owner already got approved onto an offer for
	// the same direction and day is treated as closed even though its
	// own flag is false.
	for i := range filtered {
		if filtered[i].Type != models.TripTypeRequest || filtered[i].IsClosed {
			continue
		}
		assigned, err := s.tripRepo.OwnerApprovedElsewhere(filtered[i].DriverID, filtered[i].Direction, filtered[i].DepartureTime)
		if err != nil {
			s.logger.WithError(err).WithField("trip_id", filtered[i].ID).Warn("Failed to check owner assignment")
			continue
		}
		if assigned {
			filtered[i].IsClosed = true
		}
	}

	filtered = filterByStatus(filtered, filter.Status)

	feed := &models.TripFeed{
		Groups:      groupTrips(filtered, now, filter.SortDesc),
		GeneratedAt: now,
	}
	observability.FeedSnapshotsTotal.Inc()
	return feed, nil
}

// filterTrips applies the pure filter pipeline: type, expiry, day,
// direction, time-of-day, search. Status runs later, after the derived
// closed state is resolved.
func filterTrips(trips []models.Trip, f *models.FeedFilter, now time.Time) []models.Trip {
	out := make([]models.Trip, 0, len(trips))
	for _, trip := range trips {
		if f.Type != "" && trip.Type != f.Type {
			continue
		}
		if trip.IsExpired(now) {
			continue
		}
		if f.Date != "" && trip.DepartureTime.Format("2006-01-02") != f.Date {
			continue
		}
		if f.Bucket != "" && dayBucketFor(trip.DepartureTime, now) != f.Bucket {
			continue
		}
		if f.Direction != "" && trip.Direction != f.Direction {
			continue
		}
		if f.TimeFrom != "" && trip.DepartureTime.Format("15:04") < f.TimeFrom {
			continue
		}
		if f.Search != "" && !containsFold(trip.PickupLocation, f.Search) {
			continue
		}
		out = append(out, trip)
	}
	return out
}

// filterByStatus keeps trips matching the requested close state
func filterByStatus(trips []models.Trip, status models.TripStatusFilter) []models.Trip {
	if status == models.TripStatusAny {
		return trips
	}
	wantClosed := status == models.TripStatusClosed
	out := make([]models.Trip, 0, len(trips))
	for _, trip := range trips {
		if trip.IsClosed == wantClosed {
			out = append(out, trip)
		}
	}
	return out
}

// dayBucketFor assigns a trip to today/tomorrow/upcoming relative to
// the heartbeat clock's calendar day
func dayBucketFor(departure, now time.Time) models.DayBucket {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := departure.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return models.DayBucketToday
	}
	y3, m3, d3 := now.AddDate(0, 0, 1).Date()
	if y2 == y3 && m2 == m3 && d2 == d3 {
		return models.DayBucketTomorrow
	}
	return models.DayBucketUpcoming
}

// groupTrips buckets trips by day and sorts each bucket by departure
// time, ascending unless the caller flipped the sort order
func groupTrips(trips []models.Trip, now time.Time, sortDesc bool) []models.FeedGroup {
	buckets := map[models.DayBucket][]models.Trip{}
	for _, trip := range trips {
		bucket := dayBucketFor(trip.DepartureTime, now)
		buckets[bucket] = append(buckets[bucket], trip)
	}

	order := []models.DayBucket{models.DayBucketToday, models.DayBucketTomorrow, models.DayBucketUpcoming}
	groups := make([]models.FeedGroup, 0, len(order))
	for _, bucket := range order {
		group, ok := buckets[bucket]
		if !ok {
			continue
		}
		sortByDeparture(group, sortDesc)
		groups = append(groups, models.FeedGroup{Bucket: bucket, Trips: group})
	}
	return groups
}

func sortByDeparture(trips []models.Trip, desc bool) {
	sort.SliceStable(trips, func(i, j int) bool {
		if desc {
			return trips[i].DepartureTime.After(trips[j].DepartureTime)
		}
		return trips[i].DepartureTime.Before(trips[j].DepartureTime)
	})
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
