package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"lingocert/database"
	"lingocert/middleware"
	"lingocert/models"
	"lingocert/services/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-0123456789012345678901234567")

	db := testutil.NewTestDB(t,
		&models.User{},
		&models.Test{},
		&models.Question{},
		&models.TestAttempt{},
		&models.Certificate{},
		&models.Donation{},
		&models.Achievement{},
		&models.UserAchievementProgress{},
	)
	database.SetDB(db)

	app := fiber.New()
	api := app.Group("/api")
	api.Get("/tests", GetTests)
	api.Get("/tests/:id", GetTest)
	api.Post("/tests/:id/submit", middleware.AuthMiddleware, SubmitTest)
	api.Get("/certificates/verify/:number", VerifyCertificate)

	achievements := api.Group("/achievements", middleware.AuthMiddleware)
	achievements.Get("/", GetUserAchievements)
	achievements.Post("/evaluate", EvaluateAchievements)

	return app, db
}

func authHeader(t *testing.T, user models.User) string {
	t.Helper()
	token, err := generateToken(user)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(t *testing.T, app *fiber.App, method, path, auth string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestSubmitTestFlow(t *testing.T) {
	app, db := setupTestApp(t)

	user := models.User{Username: "learner", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	auth := authHeader(t, user)

	test := models.Test{Title: "Spanish B1", Language: "es", Level: "B1", PassThreshold: 60, IsActive: true}
	require.NoError(t, db.Create(&test).Error)

	testsCond := models.ConditionTestsCompleted
	certsCond := models.ConditionCertificatesEarned
	perfectCond := models.ConditionPerfectScore
	require.NoError(t, db.Create(&[]models.Achievement{
		{Code: "tests_1", Title: "First Pass", ConditionType: &testsCond, ConditionValue: 1},
		{Code: "certs_1", Title: "Certified", ConditionType: &certsCond, ConditionValue: 1},
		{Code: "perfectionist", Title: "Perfectionist", ConditionType: &perfectCond},
	}).Error)

	resp, body := doJSON(t, app, "POST", fmt.Sprintf("/api/tests/%d/submit", test.ID), auth,
		SubmitTestRequest{CorrectAnswers: 5, TotalQuestions: 5, TimeElapsed: 120})
	require.Equal(t, 200, resp.StatusCode)

	require.Equal(t, true, body["success"])
	require.Equal(t, true, body["passed"])
	require.Equal(t, true, body["is_perfect"])
	require.EqualValues(t, 100, body["score"])

	certificate, ok := body["certificate"].(map[string]interface{})
	require.True(t, ok, "a passing attempt must carry a certificate")
	number, _ := certificate["number"].(string)
	require.NotEmpty(t, number)

	unlocked, ok := body["new_achievements"].([]interface{})
	require.True(t, ok)
	codes := make([]string, 0, len(unlocked))
	for _, item := range unlocked {
		entry := item.(map[string]interface{})
		codes = append(codes, entry["code"].(string))
	}
	require.ElementsMatch(t, []string{"tests_1", "certs_1", "perfectionist"}, codes)

	// The unlock queue is drained: a follow-up evaluation reports nothing new
	resp, body = doJSON(t, app, "POST", "/api/achievements/evaluate", auth, nil)
	require.Equal(t, 200, resp.StatusCode)
	require.Empty(t, body["new_achievements"])

	// The issued certificate verifies publicly, without auth
	resp, body = doJSON(t, app, "GET", "/api/certificates/verify/"+number, "", nil)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, true, body["valid"])
}

func TestSubmitTestFailingScore(t *testing.T) {
	app, db := setupTestApp(t)

	user := models.User{Username: "struggler", Password: "x"}
	require.NoError(t, db.Create(&user).Error)

	test := models.Test{Title: "French A2", Language: "fr", Level: "A2", PassThreshold: 60, IsActive: true}
	require.NoError(t, db.Create(&test).Error)

	resp, body := doJSON(t, app, "POST", fmt.Sprintf("/api/tests/%d/submit", test.ID), authHeader(t, user),
		SubmitTestRequest{CorrectAnswers: 2, TotalQuestions: 5, TimeElapsed: 90})
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, false, body["passed"])
	require.NotContains(t, body, "certificate")

	var certCount int64
	require.NoError(t, db.Model(&models.Certificate{}).Where("user_id = ?", user.ID).Count(&certCount).Error)
	require.Zero(t, certCount)
}

func TestSubmitTestValidation(t *testing.T) {
	app, db := setupTestApp(t)

	user := models.User{Username: "edgar", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	auth := authHeader(t, user)

	test := models.Test{Title: "German C1", Language: "de", Level: "C1", PassThreshold: 60, IsActive: true}
	require.NoError(t, db.Create(&test).Error)

	resp, _ := doJSON(t, app, "POST", fmt.Sprintf("/api/tests/%d/submit", test.ID), auth,
		SubmitTestRequest{CorrectAnswers: 6, TotalQuestions: 5})
	require.Equal(t, 400, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/tests/%d/submit", test.ID), auth,
		SubmitTestRequest{CorrectAnswers: 0, TotalQuestions: 0})
	require.Equal(t, 400, resp.StatusCode)
}

func TestSubmitTestRequiresAuth(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, "POST", "/api/tests/1/submit", "",
		SubmitTestRequest{CorrectAnswers: 1, TotalQuestions: 1})
	require.Equal(t, 401, resp.StatusCode)
}

func TestGetTestHidesCorrectAnswers(t *testing.T) {
	app, db := setupTestApp(t)

	test := models.Test{Title: "Italian A1", Language: "it", Level: "A1", PassThreshold: 60, IsActive: true}
	require.NoError(t, db.Create(&test).Error)
	question := models.Question{TestID: test.ID, Text: "Ciao means?", CorrectAnswer: "hello", WrongAnswers: "dog;tree;blue"}
	require.NoError(t, db.Create(&question).Error)

	resp, body := doJSON(t, app, "GET", fmt.Sprintf("/api/tests/%d", test.ID), "", nil)
	require.Equal(t, 200, resp.StatusCode)

	payload := body["test"].(map[string]interface{})
	questions := payload["questions"].([]interface{})
	require.Len(t, questions, 1)
	require.Empty(t, questions[0].(map[string]interface{})["correct_answer"])
}
