package services

import (
	"testing"
	"time"

	"lingocert/models"
	"lingocert/services/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewTestDB(t,
		&models.User{},
		&models.Test{},
		&models.Question{},
		&models.TestAttempt{},
		&models.Certificate{},
		&models.Donation{},
		&models.Achievement{},
		&models.UserAchievementProgress{},
	)
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedAchievement(t *testing.T, db *gorm.DB, code string, conditionType models.ConditionType, value int) models.Achievement {
	t.Helper()
	cond := conditionType
	achievement := models.Achievement{
		Code:           code,
		Title:          code,
		ConditionType:  &cond,
		ConditionValue: value,
	}
	require.NoError(t, db.Create(&achievement).Error)
	return achievement
}

func seedPassedAttempts(t *testing.T, db *gorm.DB, userID uint, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		attempt := models.TestAttempt{UserID: userID, TestID: 1, Score: 80, Passed: true}
		require.NoError(t, db.Create(&attempt).Error)
	}
}

func progressRow(t *testing.T, db *gorm.DB, userID, achievementID uint) models.UserAchievementProgress {
	t.Helper()
	var row models.UserAchievementProgress
	require.NoError(t, db.Where("user_id = ? AND achievement_id = ?", userID, achievementID).First(&row).Error)
	return row
}

func unlockedCodes(unlocked []UnlockedAchievement) []string {
	codes := make([]string, 0, len(unlocked))
	for _, u := range unlocked {
		codes = append(codes, u.Code)
	}
	return codes
}

func TestEvaluateUnlocksAndDrainsExactlyOnce(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "alice")
	achievement := seedAchievement(t, db, "tests_1", models.ConditionTestsCompleted, 1)
	seedPassedAttempts(t, db, user.ID, 1)

	unlocked, err := svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"tests_1"}, unlockedCodes(unlocked))

	row := progressRow(t, db, user.ID, achievement.ID)
	require.Equal(t, 100, row.Progress)
	require.True(t, row.Achieved)
	require.NotNil(t, row.AchievedAt)
	require.True(t, row.Shown)

	// Same facts again: nothing new, no duplicate delivery
	unlocked, err = svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Empty(t, unlocked)
}

func TestEvaluateComputesPartialProgress(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "bob")
	achievement := seedAchievement(t, db, "tests_10", models.ConditionTestsCompleted, 10)
	seedPassedAttempts(t, db, user.ID, 3)

	unlocked, err := svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Empty(t, unlocked)

	row := progressRow(t, db, user.ID, achievement.ID)
	require.Equal(t, 30, row.Progress)
	require.False(t, row.Achieved)
	require.Nil(t, row.AchievedAt)
	require.False(t, row.Shown)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "carol")
	achievement := seedAchievement(t, db, "tests_10", models.ConditionTestsCompleted, 10)
	seedPassedAttempts(t, db, user.ID, 4)

	_, err := svc.Evaluate(user.ID)
	require.NoError(t, err)
	first := progressRow(t, db, user.ID, achievement.ID)

	_, err = svc.Evaluate(user.ID)
	require.NoError(t, err)
	second := progressRow(t, db, user.ID, achievement.ID)

	require.Equal(t, first.Progress, second.Progress)
	require.Equal(t, first.Achieved, second.Achieved)
}

func TestAchievedIsNeverRevoked(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "dave")
	achievement := seedAchievement(t, db, "tests_1", models.ConditionTestsCompleted, 1)
	seedPassedAttempts(t, db, user.ID, 1)

	unlocked, err := svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	before := progressRow(t, db, user.ID, achievement.ID)

	// Facts dropping should never happen, but must be tolerated.
	require.NoError(t, db.Where("user_id = ?", user.ID).Delete(&models.TestAttempt{}).Error)

	time.Sleep(20 * time.Millisecond)
	unlocked, err = svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Empty(t, unlocked, "an unlock must be reported at most once")

	after := progressRow(t, db, user.ID, achievement.ID)
	require.True(t, after.Achieved)
	require.NotNil(t, after.AchievedAt)
	require.WithinDuration(t, *before.AchievedAt, *after.AchievedAt, time.Millisecond,
		"achieved_at must be stable after the false->true transition")
}

func TestZeroConditionValueAlwaysAchieves(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "erin")
	achievement := seedAchievement(t, db, "tests_0", models.ConditionTestsCompleted, 0)

	unlocked, err := svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"tests_0"}, unlockedCodes(unlocked))

	row := progressRow(t, db, user.ID, achievement.ID)
	require.Equal(t, 100, row.Progress)
	require.True(t, row.Achieved)
}

func TestCertificateAndDonationConditions(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "frank")
	seedAchievement(t, db, "certs_1", models.ConditionCertificatesEarned, 1)
	seedAchievement(t, db, "donations_1", models.ConditionDonations, 1)

	require.NoError(t, db.Create(&models.Certificate{UserID: user.ID, TestID: 1, Number: "cert-frank-1"}).Error)

	unlocked, err := svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"certs_1"}, unlockedCodes(unlocked))

	require.NoError(t, db.Create(&models.Donation{UserID: user.ID, Amount: 500}).Error)

	unlocked, err = svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"donations_1"}, unlockedCodes(unlocked))
}

func TestNightTestsCondition(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "grace")
	achievement := seedAchievement(t, db, "night_owl", models.ConditionNightTests, 2)

	require.NoError(t, db.Create(&models.TestAttempt{UserID: user.ID, TestID: 1, Passed: true, IsNight: true}).Error)

	unlocked, err := svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Empty(t, unlocked)
	require.Equal(t, 50, progressRow(t, db, user.ID, achievement.ID).Progress)

	require.NoError(t, db.Create(&models.TestAttempt{UserID: user.ID, TestID: 1, Passed: false, IsNight: true}).Error)

	unlocked, err = svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"night_owl"}, unlockedCodes(unlocked))
}

func TestPerfectScoreCondition(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "heidi")
	achievement := seedAchievement(t, db, "perfectionist", models.ConditionPerfectScore, 0)

	require.NoError(t, db.Create(&models.TestAttempt{UserID: user.ID, TestID: 1, Score: 90, Passed: true}).Error)

	unlocked, err := svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Empty(t, unlocked)
	require.Equal(t, 0, progressRow(t, db, user.ID, achievement.ID).Progress)

	require.NoError(t, db.Create(&models.TestAttempt{UserID: user.ID, TestID: 1, Score: 100, Passed: true, IsPerfect: true}).Error)

	unlocked, err = svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"perfectionist"}, unlockedCodes(unlocked))
}

func TestHolidayIsUnconditional(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "ivan")
	seedAchievement(t, db, "holiday_2025", models.ConditionHoliday, 0)

	unlocked, err := svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"holiday_2025"}, unlockedCodes(unlocked))
}

func TestLanguageMasterNeverProgresses(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "judy")
	achievement := seedAchievement(t, db, "language_master", models.ConditionLanguageMaster, 0)
	seedPassedAttempts(t, db, user.ID, 5)

	unlocked, err := svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Empty(t, unlocked)

	row := progressRow(t, db, user.ID, achievement.ID)
	require.Equal(t, 0, row.Progress)
	require.False(t, row.Achieved)
}

func TestUnrecognizedConditionTypeIsSkipped(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "mallory")
	seedAchievement(t, db, "mystery", models.ConditionType("time_travel"), 3)

	unlocked, err := svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Empty(t, unlocked)

	// No row is ever written for a skipped entry
	var count int64
	require.NoError(t, db.Model(&models.UserAchievementProgress{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestNullConditionTypeIsExcludedFromCatalog(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "nina")
	draft := models.Achievement{Code: "draft", Title: "Draft"}
	require.NoError(t, db.Create(&draft).Error)

	unlocked, err := svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Empty(t, unlocked)

	var count int64
	require.NoError(t, db.Model(&models.UserAchievementProgress{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestDonationsSourceUnavailableDegradesToZero(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "olga")
	achievement := seedAchievement(t, db, "donations_1", models.ConditionDonations, 1)
	seedAchievement(t, db, "tests_1", models.ConditionTestsCompleted, 1)
	seedPassedAttempts(t, db, user.ID, 1)

	require.NoError(t, db.Migrator().DropTable(&models.Donation{}))

	unlocked, err := svc.Evaluate(user.ID)
	require.NoError(t, err, "a missing donations source must not sink the evaluation")
	require.Equal(t, []string{"tests_1"}, unlockedCodes(unlocked))

	row := progressRow(t, db, user.ID, achievement.ID)
	require.Equal(t, 0, row.Progress)
	require.False(t, row.Achieved)
}

func TestCoreFactSourceFailureIsFatal(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "peggy")
	seedAchievement(t, db, "tests_1", models.ConditionTestsCompleted, 1)

	require.NoError(t, db.Migrator().DropTable(&models.TestAttempt{}))

	_, err := svc.Evaluate(user.ID)
	require.Error(t, err)
}

func TestCollectFacts(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "quentin")

	seedPassedAttempts(t, db, user.ID, 2)
	require.NoError(t, db.Create(&models.TestAttempt{UserID: user.ID, TestID: 1, Score: 40}).Error)
	require.NoError(t, db.Create(&models.TestAttempt{UserID: user.ID, TestID: 1, Score: 100, Passed: true, IsPerfect: true, IsNight: true}).Error)
	require.NoError(t, db.Create(&models.Certificate{UserID: user.ID, TestID: 1, Number: "cert-q-1"}).Error)
	require.NoError(t, db.Create(&models.Donation{UserID: user.ID, Amount: 100}).Error)
	require.NoError(t, db.Create(&models.Donation{UserID: user.ID, Amount: 200}).Error)

	facts, err := svc.CollectFacts(user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, facts.TestsPassed)
	require.EqualValues(t, 1, facts.CertificatesEarned)
	require.EqualValues(t, 2, facts.DonationsCount)
	require.EqualValues(t, 1, facts.NightTestsCount)
	require.True(t, facts.HasPerfectScore)
}

func TestSetProgressByCodeKeepsMax(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "rachel")
	achievement := seedAchievement(t, db, "promo", models.ConditionTestsCompleted, 100)

	require.NoError(t, svc.SetProgressByCode(user.ID, "promo", 50))
	require.NoError(t, svc.SetProgressByCode(user.ID, "promo", 30))

	row := progressRow(t, db, user.ID, achievement.ID)
	require.Equal(t, 50, row.Progress, "explicit progress never moves down")
	require.False(t, row.Achieved)
	require.Nil(t, row.AchievedAt)
}

func TestSetProgressByCodeClampsAndAchieves(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "sybil")
	achievement := seedAchievement(t, db, "promo", models.ConditionTestsCompleted, 100)

	require.NoError(t, svc.SetProgressByCode(user.ID, "promo", 150))

	row := progressRow(t, db, user.ID, achievement.ID)
	require.Equal(t, 100, row.Progress)
	require.True(t, row.Achieved)
	require.NotNil(t, row.AchievedAt)

	require.NoError(t, svc.SetProgressByCode(user.ID, "promo", -10))
	row = progressRow(t, db, user.ID, achievement.ID)
	require.Equal(t, 100, row.Progress)
	require.True(t, row.Achieved)
}

func TestSetProgressByCodeUnknownCode(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "trent")

	err := svc.SetProgressByCode(user.ID, "nope", 10)
	require.ErrorIs(t, err, ErrAchievementNotFound)
}

func TestSetBatchByCodeReportsAggregate(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "uma")
	first := seedAchievement(t, db, "promo_a", models.ConditionTestsCompleted, 100)
	second := seedAchievement(t, db, "promo_b", models.ConditionTestsCompleted, 100)

	result := svc.SetBatchByCode(user.ID, []BatchProgressItem{
		{Code: "promo_a", Progress: 40},
		{Code: "missing", Progress: 10},
		{Code: "promo_b", Progress: 70},
	})

	require.Equal(t, 2, result.Applied)
	require.Len(t, result.Failed, 1)
	require.Contains(t, result.Failed, "missing")

	// Earlier and later successes stand despite the failed sibling
	require.Equal(t, 40, progressRow(t, db, user.ID, first.ID).Progress)
	require.Equal(t, 70, progressRow(t, db, user.ID, second.ID).Progress)
}

func TestUnlockByCodeForcesUnlock(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "victor")
	achievement := seedAchievement(t, db, "holiday_2025", models.ConditionHoliday, 0)

	require.NoError(t, svc.SetProgressByCode(user.ID, "holiday_2025", 20))

	got, err := svc.UnlockByCode(user.ID, "holiday_2025")
	require.NoError(t, err)
	require.Equal(t, achievement.ID, got.ID)

	row := progressRow(t, db, user.ID, achievement.ID)
	require.Equal(t, 100, row.Progress)
	require.True(t, row.Achieved)
	require.NotNil(t, row.AchievedAt)
	firstAchievedAt := *row.AchievedAt

	// Unlocking again keeps the original achieved_at
	time.Sleep(20 * time.Millisecond)
	_, err = svc.UnlockByCode(user.ID, "holiday_2025")
	require.NoError(t, err)
	row = progressRow(t, db, user.ID, achievement.ID)
	require.WithinDuration(t, firstAchievedAt, *row.AchievedAt, time.Millisecond)
}

func TestUnlockByCodeUnknownCode(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "walter")

	_, err := svc.UnlockByCode(user.ID, "nope")
	require.ErrorIs(t, err, ErrAchievementNotFound)
}

func TestUnlockByCodeIsDrainedByNextEvaluate(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAchievementService(db)
	user := seedUser(t, db, "xena")
	seedAchievement(t, db, "promo", models.ConditionTestsCompleted, 100)

	_, err := svc.UnlockByCode(user.ID, "promo")
	require.NoError(t, err)

	unlocked, err := svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"promo"}, unlockedCodes(unlocked))

	unlocked, err = svc.Evaluate(user.ID)
	require.NoError(t, err)
	require.Empty(t, unlocked)
}
