package admin

import (
	"lingocert/database"
	"lingocert/models"

	"github.com/gofiber/fiber/v2"
)

// GetTests returns all tests including inactive ones
func GetTests(c *fiber.Ctx) error {
	db := database.GetDB()

	var tests []models.Test
	if err := db.Preload("Questions").Find(&tests).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch tests"})
	}

	return c.JSON(tests)
}

// CreateTest creates a new test, optionally with questions
func CreateTest(c *fiber.Ctx) error {
	db := database.GetDB()

	var test models.Test
	if err := c.BodyParser(&test); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if test.Title == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Title is required"})
	}
	if test.PassThreshold <= 0 || test.PassThreshold > 100 {
		test.PassThreshold = 60
	}

	if err := db.Create(&test).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create test"})
	}

	return c.Status(201).JSON(test)
}

// UpdateTest updates an existing test
func UpdateTest(c *fiber.Ctx) error {
	db := database.GetDB()

	var test models.Test
	if err := db.First(&test, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Test not found"})
	}

	if err := c.BodyParser(&test); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := db.Save(&test).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update test"})
	}

	return c.JSON(test)
}

// DeleteTest deactivates a test (attempts and certificates keep referencing it)
func DeleteTest(c *fiber.Ctx) error {
	db := database.GetDB()

	if err := db.Model(&models.Test{}).Where("id = ?", c.Params("id")).
		Update("is_active", false).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to deactivate test"})
	}

	return c.JSON(fiber.Map{"message": "Test deactivated"})
}

// AddQuestion appends a question to a test
func AddQuestion(c *fiber.Ctx) error {
	db := database.GetDB()

	var test models.Test
	if err := db.First(&test, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Test not found"})
	}

	var question models.Question
	if err := c.BodyParser(&question); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if question.Text == "" || question.CorrectAnswer == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Text and correct answer are required"})
	}

	question.TestID = test.ID
	if err := db.Create(&question).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create question"})
	}

	return c.Status(201).JSON(question)
}

// DeleteQuestion removes a question
func DeleteQuestion(c *fiber.Ctx) error {
	db := database.GetDB()

	if err := db.Delete(&models.Question{}, c.Params("questionId")).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete question"})
	}

	return c.JSON(fiber.Map{"message": "Question deleted"})
}
