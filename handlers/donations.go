// handlers/donations.go
package handlers

import (
	"lingocert/database"
	"lingocert/middleware"
	"lingocert/models"
	"lingocert/services"

	"github.com/gofiber/fiber/v2"
)

type RecordDonationRequest struct {
	Amount    int    `json:"amount"` // minor units
	Currency  string `json:"currency"`
	Reference string `json:"reference"` // provider payment id
}

// RecordDonation stores a settled donation and re-evaluates achievements.
// Creating the payment session itself happens at the provider boundary.
func RecordDonation(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req RecordDonationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Amount <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Donation amount must be positive"})
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	db := database.GetDB()
	donation := models.Donation{
		UserID:    userID,
		Amount:    req.Amount,
		Currency:  currency,
		Reference: req.Reference,
		Status:    "completed",
	}

	if err := db.Create(&donation).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to record donation"})
	}

	newAchievements, err := services.NewAchievementService(db).Evaluate(userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to evaluate achievements"})
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"donation":         donation,
		"new_achievements": newAchievements,
	})
}

// GetMyDonations lists the caller's donations, newest first
func GetMyDonations(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()
	var donations []models.Donation
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&donations).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch donations"})
	}

	return c.JSON(fiber.Map{"success": true, "donations": donations})
}
