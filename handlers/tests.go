// handlers/tests.go - Test catalog and attempt submission
package handlers

import (
	"time"

	"lingocert/database"
	"lingocert/middleware"
	"lingocert/models"
	"lingocert/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SubmitTestRequest struct {
	CorrectAnswers int `json:"correct_answers"`
	TotalQuestions int `json:"total_questions"`
	TimeElapsed    int `json:"time_elapsed"`
}

// GetTests returns active tests, optionally filtered by language
func GetTests(c *fiber.Ctx) error {
	db := database.GetDB()

	query := db.Where("is_active = ?", true)
	if language := c.Query("language"); language != "" {
		query = query.Where("language = ?", language)
	}

	var tests []models.Test
	if err := query.Order("language, level").Find(&tests).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch tests"})
	}

	return c.JSON(fiber.Map{"success": true, "tests": tests})
}

// GetTest returns one test with its questions
func GetTest(c *fiber.Ctx) error {
	db := database.GetDB()

	var test models.Test
	if err := db.Preload("Questions").Where("is_active = ?", true).
		First(&test, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Test not found"})
	}

	// Correct answers stay server-side
	for i := range test.Questions {
		test.Questions[i].CorrectAnswer = ""
	}

	return c.JSON(fiber.Map{"success": true, "test": test})
}

// SubmitTest grades an attempt, issues a certificate on a passing score and
// re-evaluates achievements, returning any newly unlocked ones.
func SubmitTest(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req SubmitTestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.TotalQuestions <= 0 || req.CorrectAnswers < 0 || req.CorrectAnswers > req.TotalQuestions {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid answer counts"})
	}

	db := database.GetDB()

	var test models.Test
	if err := db.Where("is_active = ?", true).First(&test, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Test not found"})
	}

	score := req.CorrectAnswers * 100 / req.TotalQuestions
	passed := score >= test.PassThreshold
	perfect := req.CorrectAnswers == req.TotalQuestions

	now := time.Now()
	attempt := models.TestAttempt{
		UserID:         userID,
		TestID:         test.ID,
		Score:          score,
		CorrectAnswers: req.CorrectAnswers,
		TotalQuestions: req.TotalQuestions,
		TimeElapsed:    req.TimeElapsed,
		Passed:         passed,
		IsPerfect:      perfect,
		IsNight:        now.Hour() < 6,
	}

	if err := db.Create(&attempt).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to record attempt"})
	}

	var certificate *models.Certificate
	if passed {
		certificate = &models.Certificate{
			UserID:   userID,
			TestID:   test.ID,
			Number:   uuid.New().String(),
			Title:    test.Title,
			Language: test.Language,
			Level:    test.Level,
			Score:    score,
			IssuedAt: now,
		}
		if err := db.Create(certificate).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to issue certificate"})
		}
	}

	newAchievements, err := services.NewAchievementService(db).Evaluate(userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to evaluate achievements"})
	}

	response := fiber.Map{
		"success":          true,
		"score":            score,
		"passed":           passed,
		"is_perfect":       perfect,
		"new_achievements": newAchievements,
	}
	if certificate != nil {
		response["certificate"] = certificate
	}

	return c.JSON(response)
}
