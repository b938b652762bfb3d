package database

import (
	"testing"

	"lingocert/models"
	"lingocert/services/testutil"

	"github.com/stretchr/testify/require"
)

func TestSeedAchievementsIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t, &models.Achievement{})

	require.NoError(t, SeedAchievements(db))

	var count int64
	require.NoError(t, db.Model(&models.Achievement{}).Count(&count).Error)
	require.NotZero(t, count)

	// Re-running must not duplicate or overwrite admin-managed entries
	require.NoError(t, db.Model(&models.Achievement{}).
		Where("code = ?", "tests_1").Update("title", "Renamed").Error)
	require.NoError(t, SeedAchievements(db))

	var after int64
	require.NoError(t, db.Model(&models.Achievement{}).Count(&after).Error)
	require.Equal(t, count, after)

	var renamed models.Achievement
	require.NoError(t, db.Where("code = ?", "tests_1").First(&renamed).Error)
	require.Equal(t, "Renamed", renamed.Title)
}

func TestSeededCatalogIsEvaluable(t *testing.T) {
	db := testutil.NewTestDB(t, &models.Achievement{})
	require.NoError(t, SeedAchievements(db))

	var drafts int64
	require.NoError(t, db.Model(&models.Achievement{}).
		Where("condition_type IS NULL").Count(&drafts).Error)
	require.Zero(t, drafts)
}
