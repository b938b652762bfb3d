// database/migrate.go - Database Migration Runner
package database

import (
	"lingocert/models"
	"log"
)

// RunMigrations runs all database migrations
func RunMigrations() {
	db := GetDB()
	log.Println("🔄 Running database migrations...")

	// Core application models
	if err := db.AutoMigrate(
		&models.User{},
		&models.Test{},
		&models.Question{},
		&models.TestAttempt{},
		&models.Certificate{},
		&models.Donation{},
		&models.Achievement{},
		&models.UserAchievementProgress{},
	); err != nil {
		log.Fatalf("❌ Failed to run core migrations: %v", err)
	}

	log.Println("✅ Core migrations completed")

	// Create indexes for core tables
	createCoreIndexes()

	// Seed the achievement catalog on first boot
	if err := SeedAchievements(db); err != nil {
		log.Fatalf("❌ Failed to seed achievements: %v", err)
	}

	log.Println("✅ All migrations completed successfully")
}

// createCoreIndexes creates indexes for core tables
func createCoreIndexes() {
	db := GetDB()
	log.Println("Creating core indexes...")

	// User indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_guest ON users(is_guest)")

	// Test indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_tests_active ON tests(is_active)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_questions_test ON questions(test_id)")

	// Attempt indexes (the fact collector counts against these)
	db.Exec("CREATE INDEX IF NOT EXISTS idx_test_attempts_user ON test_attempts(user_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_test_attempts_user_passed ON test_attempts(user_id, passed)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_test_attempts_created ON test_attempts(created_at DESC)")

	// Certificate and donation indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_certificates_user ON certificates(user_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_certificates_number ON certificates(number)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_donations_user ON donations(user_id)")

	// Achievement indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_achievements_condition ON achievements(condition_type)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_uap_user ON user_achievement_progress(user_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_uap_user_pending ON user_achievement_progress(user_id, achieved, shown)")

	log.Println("✅ Core indexes created successfully")
}
