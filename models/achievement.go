// models/achievement.go
package models

import "time"

// ConditionType is the closed set of rules an achievement can be driven by.
// Unrecognized values in the catalog are skipped by the evaluator, not failed.
type ConditionType string

const (
	ConditionTestsCompleted     ConditionType = "tests_completed"
	ConditionCertificatesEarned ConditionType = "certificates_earned"
	ConditionDonations          ConditionType = "donations"
	ConditionNightTests         ConditionType = "night_tests"
	ConditionPerfectScore       ConditionType = "perfect_score"
	ConditionHoliday            ConditionType = "holiday"
	// ConditionLanguageMaster is reserved: it exists in the catalog vocabulary
	// but no fact feeds it yet, so it always evaluates to 0/false.
	ConditionLanguageMaster ConditionType = "language_master"
)

type Achievement struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"not null;uniqueIndex" json:"code"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Icon        string `json:"icon"`

	// A nil ConditionType means the entry is not evaluable (e.g. still being
	// drafted in the admin dashboard) and is excluded from the rule catalog.
	ConditionType  *ConditionType `gorm:"type:varchar(50);index" json:"condition_type"`
	ConditionValue int            `gorm:"default:0" json:"condition_value"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserAchievementProgress is one row per (user, achievement) pair, created
// lazily on first evaluation. Progress is 0-100; achieved never reverts to
// false; achieved_at is set exactly once, on the false->true transition;
// shown flips to true once the unlock has been delivered to a caller.
type UserAchievementProgress struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;uniqueIndex:idx_user_achievement,priority:1" json:"user_id"`
	AchievementID uint       `gorm:"not null;uniqueIndex:idx_user_achievement,priority:2" json:"achievement_id"`
	Progress      int        `gorm:"default:0" json:"progress"`
	Achieved      bool       `gorm:"default:false" json:"achieved"`
	AchievedAt    *time.Time `json:"achieved_at,omitempty"`
	Shown         bool       `gorm:"default:false" json:"shown"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Relationships
	User        User        `gorm:"foreignKey:UserID" json:"-"`
	Achievement Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
}

func (UserAchievementProgress) TableName() string {
	return "user_achievement_progress"
}
