// services/achievement_service.go - Achievement Evaluation Engine
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"lingocert/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAchievementNotFound is returned by the by-code entry points when the
// code does not match any catalog entry.
var ErrAchievementNotFound = errors.New("achievement not found")

// UserFacts is the statistical snapshot one evaluation runs against. It is
// computed per call and never persisted; the history tables are owned by the
// test/certificate/donation subsystems.
type UserFacts struct {
	TestsPassed        int64
	CertificatesEarned int64
	DonationsCount     int64
	NightTestsCount    int64
	HasPerfectScore    bool
}

// UnlockedAchievement is the projection of a newly unlocked achievement
// returned to callers of Evaluate.
type UnlockedAchievement struct {
	AchievementID uint   `json:"achievement_id"`
	Code          string `json:"code"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Icon          string `json:"icon"`
}

// BatchProgressItem is one (code, progress) pair for SetBatchByCode.
type BatchProgressItem struct {
	Code     string `json:"code"`
	Progress int    `json:"progress"`
}

// BatchResult reports the aggregate outcome of a batch update. Items are
// independent atomic upserts; one failure never rolls back its siblings.
type BatchResult struct {
	Applied int               `json:"applied"`
	Failed  map[string]string `json:"failed,omitempty"` // code -> reason
}

type AchievementService struct {
	db *gorm.DB
}

func NewAchievementService(db *gorm.DB) *AchievementService {
	return &AchievementService{db: db}
}

// CollectFacts gathers the statistical inputs for one user. Donations is an
// optional feature (the table may not exist on some deployments), so a
// failure there degrades to zero. Every other source is a hard error.
func (s *AchievementService) CollectFacts(userID uint) (*UserFacts, error) {
	facts := &UserFacts{}

	if err := s.db.Model(&models.TestAttempt{}).
		Where("user_id = ? AND passed = ?", userID, true).
		Count(&facts.TestsPassed).Error; err != nil {
		return nil, fmt.Errorf("count passed tests: %w", err)
	}

	if err := s.db.Model(&models.Certificate{}).
		Where("user_id = ?", userID).
		Count(&facts.CertificatesEarned).Error; err != nil {
		return nil, fmt.Errorf("count certificates: %w", err)
	}

	if err := s.db.Model(&models.Donation{}).
		Where("user_id = ?", userID).
		Count(&facts.DonationsCount).Error; err != nil {
		log.Printf("⚠️ Donations unavailable for user %d, counting as 0: %v", userID, err)
		facts.DonationsCount = 0
	}

	if err := s.db.Model(&models.TestAttempt{}).
		Where("user_id = ? AND is_night = ?", userID, true).
		Count(&facts.NightTestsCount).Error; err != nil {
		return nil, fmt.Errorf("count night tests: %w", err)
	}

	var perfect int64
	if err := s.db.Model(&models.TestAttempt{}).
		Where("user_id = ? AND is_perfect = ?", userID, true).
		Count(&perfect).Error; err != nil {
		return nil, fmt.Errorf("count perfect scores: %w", err)
	}
	facts.HasPerfectScore = perfect > 0

	return facts, nil
}

// Evaluate recomputes the user's progress against the full rule catalog and
// returns the achievements newly unlocked by this call. Re-running with
// unchanged facts is idempotent: progress reflects current facts, achieved
// never reverts, and each unlock is reported exactly once.
func (s *AchievementService) Evaluate(userID uint) ([]UnlockedAchievement, error) {
	facts, err := s.CollectFacts(userID)
	if err != nil {
		return nil, err
	}

	var catalog []models.Achievement
	if err := s.db.Where("condition_type IS NOT NULL").Find(&catalog).Error; err != nil {
		return nil, fmt.Errorf("load achievement catalog: %w", err)
	}

	for _, achievement := range catalog {
		progress, achieved, known := evaluateCondition(achievement, facts)
		if !known {
			log.Printf("⚠️ Skipping achievement %q: unrecognized condition type %q",
				achievement.Code, *achievement.ConditionType)
			continue
		}
		if err := s.upsertProgress(userID, achievement.ID, progress, achieved, false); err != nil {
			return nil, fmt.Errorf("upsert progress for %q: %w", achievement.Code, err)
		}
	}

	return s.drainUnlocked(userID)
}

// SetProgressByCode sets an explicit progress value for one achievement,
// clamped to [0,100]. Stored progress only ever moves up, achieved is
// OR-merged, achieved_at is set only on the false->true transition.
func (s *AchievementService) SetProgressByCode(userID uint, code string, progress int) error {
	achievement, err := s.byCode(code)
	if err != nil {
		return err
	}
	progress = clampProgress(progress)
	return s.upsertProgress(userID, achievement.ID, progress, progress >= 100, true)
}

// SetBatchByCode applies SetProgressByCode for each item in order. Items are
// independent; earlier successes stand even when a later item fails.
func (s *AchievementService) SetBatchByCode(userID uint, items []BatchProgressItem) BatchResult {
	result := BatchResult{Failed: map[string]string{}}
	for _, item := range items {
		if err := s.SetProgressByCode(userID, item.Code, item.Progress); err != nil {
			result.Failed[item.Code] = err.Error()
			continue
		}
		result.Applied++
	}
	if len(result.Failed) == 0 {
		result.Failed = nil
	}
	return result
}

// UnlockByCode forces an achievement to progress=100/achieved=true without
// consulting any facts. Used for manually granted awards.
func (s *AchievementService) UnlockByCode(userID uint, code string) (*models.Achievement, error) {
	achievement, err := s.byCode(code)
	if err != nil {
		return nil, err
	}
	if err := s.upsertProgress(userID, achievement.ID, 100, true, true); err != nil {
		return nil, err
	}
	return achievement, nil
}

func (s *AchievementService) byCode(code string) (*models.Achievement, error) {
	var achievement models.Achievement
	if err := s.db.Where("code = ?", code).First(&achievement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAchievementNotFound
		}
		return nil, err
	}
	return &achievement, nil
}

// evaluateCondition computes (progress, achieved) for one catalog entry.
// The third return value is false for condition types outside the known set.
func evaluateCondition(a models.Achievement, facts *UserFacts) (int, bool, bool) {
	if a.ConditionType == nil {
		return 0, false, false
	}

	switch *a.ConditionType {
	case models.ConditionTestsCompleted:
		return counterProgress(facts.TestsPassed, a.ConditionValue),
			facts.TestsPassed >= int64(a.ConditionValue), true
	case models.ConditionCertificatesEarned:
		return counterProgress(facts.CertificatesEarned, a.ConditionValue),
			facts.CertificatesEarned >= int64(a.ConditionValue), true
	case models.ConditionDonations:
		return counterProgress(facts.DonationsCount, a.ConditionValue),
			facts.DonationsCount >= int64(a.ConditionValue), true
	case models.ConditionNightTests:
		return counterProgress(facts.NightTestsCount, a.ConditionValue),
			facts.NightTestsCount >= int64(a.ConditionValue), true
	case models.ConditionPerfectScore:
		if facts.HasPerfectScore {
			return 100, true, true
		}
		return 0, false, true
	case models.ConditionHoliday:
		// Unconditional grant (seasonal/manual catalog entries).
		return 100, true, true
	case models.ConditionLanguageMaster:
		// Reserved: defined in the vocabulary, no facts feed it yet.
		return 0, false, true
	default:
		return 0, false, false
	}
}

// counterProgress converts a raw count against a threshold into a clamped
// percentage. A threshold of zero (or below) never divides; the clamp makes
// such entries always satisfied, matching the achieved check count >= 0.
func counterProgress(count int64, threshold int) int {
	if threshold <= 0 {
		return 100
	}
	progress := int(count * 100 / int64(threshold))
	if progress > 100 {
		progress = 100
	}
	if progress < 0 {
		progress = 0
	}
	return progress
}

func clampProgress(progress int) int {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

// upsertProgress performs one atomic insert-or-update keyed on the
// (user_id, achievement_id) unique index. Monotonicity is enforced in SQL so
// that concurrent evaluations can never read stale state and write it back:
// achieved is OR-merged, achieved_at is only assigned on the false->true
// transition, and progress either tracks the new value (evaluator runs) or
// takes the greater of old and new (explicit by-code updates).
func (s *AchievementService) upsertProgress(userID, achievementID uint, progress int, achieved bool, keepMaxProgress bool) error {
	now := time.Now().UTC()
	row := models.UserAchievementProgress{
		UserID:        userID,
		AchievementID: achievementID,
		Progress:      progress,
		Achieved:      achieved,
	}
	if achieved {
		row.AchievedAt = &now
	}

	progressExpr := gorm.Expr("excluded.progress")
	if keepMaxProgress {
		progressExpr = gorm.Expr(
			"CASE WHEN user_achievement_progress.progress >= excluded.progress" +
				" THEN user_achievement_progress.progress ELSE excluded.progress END")
	}

	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"progress": progressExpr,
			"achieved": gorm.Expr("user_achievement_progress.achieved OR excluded.achieved"),
			"achieved_at": gorm.Expr(
				"CASE WHEN NOT user_achievement_progress.achieved AND excluded.achieved" +
					" THEN excluded.achieved_at ELSE user_achievement_progress.achieved_at END"),
			"updated_at": now,
		}),
	}).Create(&row).Error
}

// drainUnlocked flips shown=true on every achieved-but-unshown row for the
// user and returns those rows, in one atomic UPDATE ... RETURNING. Two
// concurrent drains can never both claim the same unlock.
func (s *AchievementService) drainUnlocked(userID uint) ([]UnlockedAchievement, error) {
	var claimed []models.UserAchievementProgress
	if err := s.db.Model(&claimed).
		Clauses(clause.Returning{}).
		Where("user_id = ? AND achieved = ? AND shown = ?", userID, true, false).
		Update("shown", true).Error; err != nil {
		return nil, fmt.Errorf("drain unlocked achievements: %w", err)
	}

	unlocked := []UnlockedAchievement{}
	if len(claimed) == 0 {
		return unlocked, nil
	}

	ids := make([]uint, 0, len(claimed))
	for _, row := range claimed {
		ids = append(ids, row.AchievementID)
	}

	var achievements []models.Achievement
	if err := s.db.Where("id IN ?", ids).Find(&achievements).Error; err != nil {
		return nil, fmt.Errorf("load unlocked achievements: %w", err)
	}

	for _, a := range achievements {
		unlocked = append(unlocked, UnlockedAchievement{
			AchievementID: a.ID,
			Code:          a.Code,
			Title:         a.Title,
			Description:   a.Description,
			Icon:          a.Icon,
		})
	}
	return unlocked, nil
}
