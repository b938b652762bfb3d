// handlers/leaderboard.go
package handlers

import (
	"lingocert/database"
	"lingocert/models"

	"github.com/gofiber/fiber/v2"
)

type leaderboardRow struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Count       int64  `json:"count"`
}

// GetLeaderboard returns top users by tests passed, certificates earned or
// achievements unlocked.
// GET /api/leaderboard?category=tests&limit=100
func GetLeaderboard(c *fiber.Ctx) error {
	category := c.Query("category", "tests")
	limit := c.QueryInt("limit", 100)
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	db := database.GetDB()
	var rows []leaderboardRow
	var err error

	switch category {
	case "certificates":
		err = db.Model(&models.Certificate{}).
			Select("users.id AS user_id, users.username, users.display_name, COUNT(certificates.id) AS count").
			Joins("JOIN users ON users.id = certificates.user_id AND users.is_guest = ?", false).
			Group("users.id, users.username, users.display_name").
			Order("count DESC").
			Limit(limit).
			Scan(&rows).Error
	case "achievements":
		err = db.Model(&models.UserAchievementProgress{}).
			Select("users.id AS user_id, users.username, users.display_name, COUNT(user_achievement_progress.id) AS count").
			Joins("JOIN users ON users.id = user_achievement_progress.user_id AND users.is_guest = ?", false).
			Where("user_achievement_progress.achieved = ?", true).
			Group("users.id, users.username, users.display_name").
			Order("count DESC").
			Limit(limit).
			Scan(&rows).Error
	default:
		category = "tests"
		err = db.Model(&models.TestAttempt{}).
			Select("users.id AS user_id, users.username, users.display_name, COUNT(test_attempts.id) AS count").
			Joins("JOIN users ON users.id = test_attempts.user_id AND users.is_guest = ?", false).
			Where("test_attempts.passed = ?", true).
			Group("users.id, users.username, users.display_name").
			Order("count DESC").
			Limit(limit).
			Scan(&rows).Error
	}

	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch leaderboard"})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"category":    category,
		"leaderboard": rows,
	})
}
