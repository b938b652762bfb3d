package services

import (
	"log"
	"os"
	"time"

	"lingocert/database"
	"lingocert/models"
)

// CleanupService removes stale guest accounts and their dependent rows.
// Whole-user deletion is owned here, not by the achievement engine.
type CleanupService struct {
	stop chan struct{}
}

var cleanupService *CleanupService

// InitCleanupService initializes the singleton cleanup service and starts
// the background worker unless GUEST_CLEANUP_ENABLED=false.
func InitCleanupService() {
	cleanupService = &CleanupService{stop: make(chan struct{})}
	if os.Getenv("GUEST_CLEANUP_ENABLED") != "false" {
		go cleanupService.run()
	}
}

// GetCleanupService returns the initialized cleanup service.
func GetCleanupService() *CleanupService {
	return cleanupService
}

func (s *CleanupService) run() {
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.CleanupStaleGuests(); err != nil {
				log.Printf("Guest cleanup failed: %v", err)
			}
		case <-s.stop:
			return
		}
	}
}

// Stop stops the background worker.
func (s *CleanupService) Stop() {
	close(s.stop)
}

// CleanupStaleGuests deletes guest accounts inactive for 30 days, along with
// their attempts, certificates, donations and achievement progress.
func (s *CleanupService) CleanupStaleGuests() error {
	db := database.GetDB()
	if db == nil {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -30)

	var stale []models.User
	if err := db.Where("is_guest = ? AND (last_activity IS NULL OR last_activity < ?) AND created_at < ?",
		true, cutoff, cutoff).Find(&stale).Error; err != nil {
		log.Printf("Error finding stale guests: %v", err)
		return err
	}

	if len(stale) == 0 {
		return nil
	}

	ids := make([]uint, len(stale))
	for i, user := range stale {
		ids[i] = user.ID
	}

	if err := db.Where("user_id IN ?", ids).Delete(&models.TestAttempt{}).Error; err != nil {
		return err
	}
	if err := db.Where("user_id IN ?", ids).Delete(&models.Certificate{}).Error; err != nil {
		return err
	}
	if err := db.Where("user_id IN ?", ids).Delete(&models.Donation{}).Error; err != nil {
		return err
	}
	if err := db.Where("user_id IN ?", ids).Delete(&models.UserAchievementProgress{}).Error; err != nil {
		return err
	}
	if err := db.Delete(&stale).Error; err != nil {
		log.Printf("Error deleting stale guests: %v", err)
		return err
	}

	log.Printf("✅ Cleaned up %d stale guest accounts", len(stale))
	return nil
}
