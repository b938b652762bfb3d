// database/seed.go - Default achievement catalog
package database

import (
	"log"

	"lingocert/models"

	"gorm.io/gorm"
)

func condition(t models.ConditionType) *models.ConditionType {
	return &t
}

// SeedAchievements inserts the default achievement catalog when it is empty.
// The catalog stays admin-managed afterwards; this only covers first boot.
func SeedAchievements(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Achievement{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []models.Achievement{
		{Code: "tests_1", Title: "First Steps", Description: "Pass your first test", Icon: "🎯", ConditionType: condition(models.ConditionTestsCompleted), ConditionValue: 1},
		{Code: "tests_10", Title: "Getting Serious", Description: "Pass 10 tests", Icon: "📚", ConditionType: condition(models.ConditionTestsCompleted), ConditionValue: 10},
		{Code: "tests_50", Title: "Veteran", Description: "Pass 50 tests", Icon: "🏆", ConditionType: condition(models.ConditionTestsCompleted), ConditionValue: 50},
		{Code: "certs_1", Title: "Certified", Description: "Earn your first certificate", Icon: "📜", ConditionType: condition(models.ConditionCertificatesEarned), ConditionValue: 1},
		{Code: "certs_5", Title: "Wall of Fame", Description: "Earn 5 certificates", Icon: "🖼️", ConditionType: condition(models.ConditionCertificatesEarned), ConditionValue: 5},
		{Code: "donations_1", Title: "Supporter", Description: "Make a donation", Icon: "💝", ConditionType: condition(models.ConditionDonations), ConditionValue: 1},
		{Code: "night_owl", Title: "Night Owl", Description: "Take 5 tests between midnight and dawn", Icon: "🦉", ConditionType: condition(models.ConditionNightTests), ConditionValue: 5},
		{Code: "perfectionist", Title: "Perfectionist", Description: "Score 100% on any test", Icon: "💯", ConditionType: condition(models.ConditionPerfectScore), ConditionValue: 0},
		{Code: "holiday_2025", Title: "Season's Greetings", Description: "Seasonal award for everyone", Icon: "🎄", ConditionType: condition(models.ConditionHoliday), ConditionValue: 0},
		{Code: "language_master", Title: "Language Master", Description: "Master an entire language track", Icon: "🌍", ConditionType: condition(models.ConditionLanguageMaster), ConditionValue: 0},
	}

	if err := db.Create(&defaults).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded %d default achievements", len(defaults))
	return nil
}
