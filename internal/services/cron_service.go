package services

import (
	"fmt"
	"log"
	"time"

	"github.com/commutelink/rideshare-backend/internal/database"
	"github.com/robfig/cron/v3"
)

// tripRetention is how long a trip row survives past its departure.
// Feeds hide trips after the grace period; the rows stay a week so the
// owner's history still shows them.
const tripRetention = 7 * 24 * time.Hour

// CronService manages scheduled background jobs
type CronService struct {
	cron     *cron.Cron
	tripRepo *database.TripRepository
	chatRepo *database.ChatRepository
}

// NewCronService creates a new CronService
func NewCronService(tripRepo *database.TripRepository, chatRepo *database.ChatRepository) *CronService {
	// Create cron with seconds precision (optional)
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:     c,
		tripRepo: tripRepo,
		chatRepo: chatRepo,
	}
}

// Start starts all cron jobs
func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	// Job 1: Purge old trips daily at 3 AM
	// Cron format: second minute hour day month weekday
	// "0 0 3 * * *" = At 3:00 AM every day
	_, err := s.cron.AddFunc("0 0 3 * * *", s.purgeOldTripsJob)
	if err != nil {
		return fmt.Errorf("failed to schedule purge job: %w", err)
	}
	log.Println("✓ Scheduled: Purge old trips (Daily at 3:00 AM)")

	// Job 2: Remove orphaned chat threads daily at 3:30 AM
	// "0 30 3 * * *" = At 3:30 AM every day
	_, err = s.cron.AddFunc("0 30 3 * * *", s.purgeOrphanedChatJob)
	if err != nil {
		return fmt.Errorf("failed to schedule chat cleanup job: %w", err)
	}
	log.Println("✓ Scheduled: Purge orphaned chat threads (Daily at 3:30 AM)")

	// Start the cron scheduler
	s.cron.Start()
	log.Println("✓ Cron service started successfully")

	return nil
}

// Stop stops all cron jobs
func (s *CronService) Stop() {
	log.Println("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("✓ Cron service stopped")
}

// purgeOldTripsJob deletes trip rows a week past their departure
func (s *CronService) purgeOldTripsJob() {
	log.Println("[CRON] Starting trip purge job...")
	startTime := time.Now()

	cutoff := time.Now().Add(-tripRetention)
	deleted, err := s.tripRepo.DeleteExpiredBefore(cutoff)
	if err != nil {
		log.Printf("[CRON ERROR] Failed to purge old trips: %v\n", err)
		return
	}

	duration := time.Since(startTime)
	log.Printf("[CRON] ✓ Purged %d trips in %v\n", deleted, duration)
}

// purgeOrphanedChatJob removes chat threads left behind by cancelled
// trips
func (s *CronService) purgeOrphanedChatJob() {
	log.Println("[CRON] Starting orphaned chat cleanup job...")
	startTime := time.Now()

	deleted, err := s.chatRepo.DeleteOrphaned()
	if err != nil {
		log.Printf("[CRON ERROR] Failed to purge orphaned chat messages: %v\n", err)
		return
	}

	duration := time.Since(startTime)
	log.Printf("[CRON] ✓ Purged %d chat messages in %v\n", deleted, duration)
}

// RunPurgeNow runs the trip purge immediately (for testing)
func (s *CronService) RunPurgeNow() (int64, error) {
	log.Println("[MANUAL] Running trip purge now...")
	return s.tripRepo.DeleteExpiredBefore(time.Now().Add(-tripRetention))
}
