package handlers

import (
	"time"

	"lingocert/database"
	"lingocert/models"

	"github.com/gofiber/fiber/v2"
)

// GetOnlineUsersCount returns the number of currently online users
func GetOnlineUsersCount(c *fiber.Ctx) error {
	db := database.GetDB()
	if db == nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"error":   "Database not available",
		})
	}

	// Update current user's activity if authenticated
	userID := c.Locals("userId")
	if userID != nil {
		now := time.Now()
		db.Model(&models.User{}).Where("id = ?", userID).Update("last_activity", now)
	}

	// Count users active in the last 5 minutes
	cutoffTime := time.Now().Add(-5 * time.Minute)

	var count int64
	err := db.Model(&models.User{}).Where("last_activity > ?", cutoffTime).Count(&count).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to get online users count",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   count,
	})
}
