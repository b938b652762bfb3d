// handlers/certificates.go
package handlers

import (
	"lingocert/database"
	"lingocert/middleware"
	"lingocert/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyCertificates lists the caller's certificates, newest first
func GetMyCertificates(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()
	var certificates []models.Certificate
	if err := db.Where("user_id = ?", userID).Order("issued_at DESC").Find(&certificates).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch certificates"})
	}

	return c.JSON(fiber.Map{"success": true, "certificates": certificates})
}

// VerifyCertificate is the public verification endpoint; anyone holding a
// certificate number can confirm its authenticity.
func VerifyCertificate(c *fiber.Ctx) error {
	number := c.Params("number")
	if number == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Certificate number required"})
	}

	db := database.GetDB()
	var certificate models.Certificate
	if err := db.Preload("User").Where("number = ?", number).First(&certificate).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "valid": false, "error": "Certificate not found"})
	}

	holder := ""
	if certificate.User != nil {
		holder = certificate.User.DisplayName
		if holder == "" {
			holder = certificate.User.Username
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"valid":   true,
		"certificate": fiber.Map{
			"number":    certificate.Number,
			"title":     certificate.Title,
			"language":  certificate.Language,
			"level":     certificate.Level,
			"score":     certificate.Score,
			"issued_at": certificate.IssuedAt,
			"holder":    holder,
		},
	})
}
