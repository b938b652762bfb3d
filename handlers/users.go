package handlers

import (
	"lingocert/database"
	"lingocert/middleware"
	"lingocert/models"
	"lingocert/services"

	"github.com/gofiber/fiber/v2"
)

func GetCurrentUser(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)
	db := database.GetDB()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

func UpdateCurrentUser(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		DisplayName *string `json:"display_name"`
		Avatar      *string `json:"avatar"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}

	db := database.GetDB()
	if len(updates) > 0 {
		if err := db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to update profile"})
		}
	}
	return c.JSON(fiber.Map{"success": true})
}

// GetUserStats returns the same statistical facts the achievement
// evaluator consumes, plus attempt totals.
func GetUserStats(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()
	facts, err := services.NewAchievementService(db).CollectFacts(userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to compute stats"})
	}

	var totalAttempts int64
	db.Model(&models.TestAttempt{}).Where("user_id = ?", userID).Count(&totalAttempts)

	return c.JSON(fiber.Map{
		"success": true,
		"stats": fiber.Map{
			"total_attempts":      totalAttempts,
			"tests_passed":        facts.TestsPassed,
			"certificates_earned": facts.CertificatesEarned,
			"donations_count":     facts.DonationsCount,
			"night_tests":         facts.NightTestsCount,
			"has_perfect_score":   facts.HasPerfectScore,
		},
	})
}

func SearchUsers(c *fiber.Ctx) error {
	query := c.Query("q")
	db := database.GetDB()
	var users []models.User
	db.Where("username LIKE ? AND is_guest = ?", "%"+query+"%", false).Limit(20).Find(&users)
	for i := range users {
		users[i].Password = ""
		users[i].Email = nil
	}
	return c.JSON(fiber.Map{"success": true, "users": users})
}

func GetUserProfile(c *fiber.Ctx) error {
	id := c.Params("id")
	db := database.GetDB()
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}
	user.Password = ""
	user.Email = nil
	return c.JSON(fiber.Map{"success": true, "user": user})
}

func GetAttemptHistory(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)
	db := database.GetDB()
	var attempts []models.TestAttempt
	db.Where("user_id = ?", userID).Order("created_at DESC").Limit(20).Find(&attempts)
	return c.JSON(fiber.Map{"success": true, "history": attempts})
}
