package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"lingocert/database"
	"lingocert/models"
	"lingocert/services/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAdminApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

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

	// Auth middleware is exercised in its own package; routes go bare here.
	app := fiber.New()
	users := app.Group("/api/admin/users")
	users.Post("/:id/achievements/progress", SetUserProgress)
	users.Post("/:id/achievements/progress/batch", SetUserProgressBatch)
	users.Post("/:id/achievements/unlock", UnlockUserAchievement)

	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func seedGrantFixtures(t *testing.T, db *gorm.DB) (models.User, models.Achievement) {
	t.Helper()
	user := models.User{Username: "granted", Password: "x"}
	require.NoError(t, db.Create(&user).Error)

	cond := models.ConditionHoliday
	achievement := models.Achievement{Code: "holiday_2025", Title: "Holiday 2025", ConditionType: &cond}
	require.NoError(t, db.Create(&achievement).Error)
	return user, achievement
}

func TestSetUserProgress(t *testing.T) {
	app, db := setupAdminApp(t)
	user, achievement := seedGrantFixtures(t, db)

	path := fmt.Sprintf("/api/admin/users/%d/achievements/progress", user.ID)
	resp, body := postJSON(t, app, path, fiber.Map{"code": "holiday_2025", "progress": 40})
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, true, body["success"])

	var row models.UserAchievementProgress
	require.NoError(t, db.Where("user_id = ? AND achievement_id = ?", user.ID, achievement.ID).First(&row).Error)
	require.Equal(t, 40, row.Progress)
	require.False(t, row.Achieved)

	resp, _ = postJSON(t, app, path, fiber.Map{"code": "missing", "progress": 10})
	require.Equal(t, 404, resp.StatusCode)

	resp, _ = postJSON(t, app, path, fiber.Map{"progress": 10})
	require.Equal(t, 400, resp.StatusCode)
}

func TestSetUserProgressBatch(t *testing.T) {
	app, db := setupAdminApp(t)
	user, achievement := seedGrantFixtures(t, db)

	path := fmt.Sprintf("/api/admin/users/%d/achievements/progress/batch", user.ID)
	resp, body := postJSON(t, app, path, fiber.Map{
		"items": []fiber.Map{
			{"code": "holiday_2025", "progress": 60},
			{"code": "missing", "progress": 10},
		},
	})
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, false, body["success"])
	require.EqualValues(t, 1, body["applied"])

	failed, ok := body["failed"].(map[string]interface{})
	require.True(t, ok)
	require.Contains(t, failed, "missing")

	var row models.UserAchievementProgress
	require.NoError(t, db.Where("user_id = ? AND achievement_id = ?", user.ID, achievement.ID).First(&row).Error)
	require.Equal(t, 60, row.Progress)
}

func TestUnlockUserAchievement(t *testing.T) {
	app, db := setupAdminApp(t)
	user, achievement := seedGrantFixtures(t, db)

	path := fmt.Sprintf("/api/admin/users/%d/achievements/unlock", user.ID)
	resp, body := postJSON(t, app, path, fiber.Map{"code": "holiday_2025"})
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, true, body["success"])

	granted, ok := body["achievement"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "holiday_2025", granted["code"])

	var row models.UserAchievementProgress
	require.NoError(t, db.Where("user_id = ? AND achievement_id = ?", user.ID, achievement.ID).First(&row).Error)
	require.Equal(t, 100, row.Progress)
	require.True(t, row.Achieved)
	require.NotNil(t, row.AchievedAt)

	resp, _ = postJSON(t, app, path, fiber.Map{"code": "missing"})
	require.Equal(t, 404, resp.StatusCode)
}
