package admin

import (
	"time"

	"lingocert/database"
	"lingocert/models"

	"github.com/gofiber/fiber/v2"
)

// GetAnalytics returns dashboard counters
func GetAnalytics(c *fiber.Ctx) error {
	db := database.GetDB()

	var totalUsers, guestUsers, totalTests, totalAttempts int64
	var passedAttempts, totalCertificates, totalDonations, unlockedAchievements int64

	db.Model(&models.User{}).Count(&totalUsers)
	db.Model(&models.User{}).Where("is_guest = ?", true).Count(&guestUsers)
	db.Model(&models.Test{}).Where("is_active = ?", true).Count(&totalTests)
	db.Model(&models.TestAttempt{}).Count(&totalAttempts)
	db.Model(&models.TestAttempt{}).Where("passed = ?", true).Count(&passedAttempts)
	db.Model(&models.Certificate{}).Count(&totalCertificates)
	db.Model(&models.Donation{}).Count(&totalDonations)
	db.Model(&models.UserAchievementProgress{}).Where("achieved = ?", true).Count(&unlockedAchievements)

	var donationTotal int64
	db.Model(&models.Donation{}).Select("COALESCE(SUM(amount), 0)").Scan(&donationTotal)

	// Attempts in the last 24 hours
	var recentAttempts int64
	db.Model(&models.TestAttempt{}).
		Where("created_at > ?", time.Now().Add(-24*time.Hour)).
		Count(&recentAttempts)

	return c.JSON(fiber.Map{
		"users": fiber.Map{
			"total":  totalUsers,
			"guests": guestUsers,
		},
		"tests": fiber.Map{
			"active":       totalTests,
			"attempts":     totalAttempts,
			"passed":       passedAttempts,
			"attempts_24h": recentAttempts,
		},
		"certificates": totalCertificates,
		"donations": fiber.Map{
			"count":        totalDonations,
			"amount_total": donationTotal,
		},
		"achievements_unlocked": unlockedAchievements,
	})
}
