package admin

import (
	"errors"

	"lingocert/database"
	"lingocert/models"
	"lingocert/services"

	"github.com/gofiber/fiber/v2"
)

// GetAchievements returns the full achievement catalog
func GetAchievements(c *fiber.Ctx) error {
	db := database.GetDB()

	var achievements []models.Achievement
	if err := db.Find(&achievements).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch achievements"})
	}

	return c.JSON(achievements)
}

// CreateAchievement creates a new achievement
func CreateAchievement(c *fiber.Ctx) error {
	db := database.GetDB()

	var achievement models.Achievement
	if err := c.BodyParser(&achievement); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if achievement.Code == "" || achievement.Title == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Code and title are required"})
	}

	if err := db.Create(&achievement).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create achievement"})
	}

	return c.Status(201).JSON(achievement)
}

// UpdateAchievement updates an existing achievement
func UpdateAchievement(c *fiber.Ctx) error {
	db := database.GetDB()

	var achievement models.Achievement
	if err := db.First(&achievement, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Achievement not found"})
	}

	if err := c.BodyParser(&achievement); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := db.Save(&achievement).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update achievement"})
	}

	return c.JSON(achievement)
}

// DeleteAchievement deletes an achievement
func DeleteAchievement(c *fiber.Ctx) error {
	db := database.GetDB()

	if err := db.Delete(&models.Achievement{}, c.Params("id")).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete achievement"})
	}

	return c.JSON(fiber.Map{"message": "Achievement deleted successfully"})
}

// SetUserProgress sets explicit progress on one achievement for a user.
// POST /api/admin/users/:id/achievements/progress
func SetUserProgress(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid user id"})
	}

	var req struct {
		Code     string `json:"code"`
		Progress int    `json:"progress"`
	}
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Code is required"})
	}

	svc := services.NewAchievementService(database.GetDB())
	if err := svc.SetProgressByCode(uint(userID), req.Code, req.Progress); err != nil {
		if errors.Is(err, services.ErrAchievementNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "Achievement not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to set progress"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// SetUserProgressBatch applies a list of (code, progress) updates for a user.
// Items are independent; the response reports the aggregate outcome.
// POST /api/admin/users/:id/achievements/progress/batch
func SetUserProgressBatch(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid user id"})
	}

	var req struct {
		Items []services.BatchProgressItem `json:"items"`
	}
	if err := c.BodyParser(&req); err != nil || len(req.Items) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Items are required"})
	}

	svc := services.NewAchievementService(database.GetDB())
	result := svc.SetBatchByCode(uint(userID), req.Items)

	return c.JSON(fiber.Map{
		"success": len(result.Failed) == 0,
		"applied": result.Applied,
		"failed":  result.Failed,
	})
}

// UnlockUserAchievement force-unlocks an achievement for a user.
// POST /api/admin/users/:id/achievements/unlock
func UnlockUserAchievement(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid user id"})
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Code is required"})
	}

	svc := services.NewAchievementService(database.GetDB())
	achievement, err := svc.UnlockByCode(uint(userID), req.Code)
	if err != nil {
		if errors.Is(err, services.ErrAchievementNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "Achievement not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to unlock achievement"})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"achievement": achievement,
	})
}
