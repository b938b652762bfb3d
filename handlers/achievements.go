// handlers/achievements.go
package handlers

import (
	"lingocert/database"
	"lingocert/middleware"
	"lingocert/models"
	"lingocert/services"

	"github.com/gofiber/fiber/v2"
)

// GetUserAchievements returns the full catalog merged with the caller's
// progress rows. Entries with no progress row show as progress=0.
func GetUserAchievements(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()

	var rows []models.UserAchievementProgress
	if err := db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch achievement progress"})
	}

	var catalog []models.Achievement
	if err := db.Find(&catalog).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch achievements"})
	}

	progressMap := make(map[uint]models.UserAchievementProgress)
	for _, row := range rows {
		progressMap[row.AchievementID] = row
	}

	achieved := 0
	achievements := make([]fiber.Map, 0, len(catalog))
	for _, achievement := range catalog {
		entry := fiber.Map{
			"id":          achievement.ID,
			"code":        achievement.Code,
			"title":       achievement.Title,
			"description": achievement.Description,
			"icon":        achievement.Icon,
			"progress":    0,
			"achieved":    false,
		}

		if row, ok := progressMap[achievement.ID]; ok {
			entry["progress"] = row.Progress
			entry["achieved"] = row.Achieved
			if row.Achieved {
				entry["achieved_at"] = row.AchievedAt
				achieved++
			}
		}

		achievements = append(achievements, entry)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"achievements": achievements,
		"total":        len(catalog),
		"achieved":     achieved,
	})
}

// EvaluateAchievements re-runs the evaluation pipeline for the caller and
// returns the achievements newly unlocked by this call only.
func EvaluateAchievements(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()
	newAchievements, err := services.NewAchievementService(db).Evaluate(userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to evaluate achievements"})
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"new_achievements": newAchievements,
	})
}
