// models/models.go - Core Models (Achievement models live in achievement.go)
package models

import (
	"time"
)

// Test represents a proficiency test in the catalog
type Test struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	Title         string     `json:"title" gorm:"not null;size:100"`
	Description   string     `json:"description" gorm:"type:text"`
	Language      string     `json:"language" gorm:"size:50;index"`
	Level         string     `json:"level" gorm:"size:20"` // A1..C2
	PassThreshold int        `json:"pass_threshold" gorm:"default:60"` // percent
	IsActive      bool       `json:"is_active" gorm:"default:true"`
	CreatedBy     *uint      `json:"created_by" gorm:"index"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Questions     []Question `json:"questions,omitempty" gorm:"foreignKey:TestID"`
}

// Question represents a single test question
type Question struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	TestID        uint      `json:"test_id" gorm:"not null;index"`
	Test          *Test     `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Text          string    `json:"text" gorm:"not null;type:text"`
	CorrectAnswer string    `json:"correct_answer" gorm:"not null;size:500"`
	WrongAnswers  string    `json:"wrong_answers" gorm:"not null;type:text"`
	Difficulty    string    `json:"difficulty" gorm:"default:'medium';size:20"`
	CreatedAt     time.Time `json:"created_at"`
}

// TestAttempt represents a user's graded attempt at a test
type TestAttempt struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"user_id" gorm:"not null;index"`
	User           *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	TestID         uint      `json:"test_id" gorm:"index"`
	Test           *Test     `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Score          int       `json:"score" gorm:"default:0"` // percent 0-100
	CorrectAnswers int       `json:"correct_answers" gorm:"default:0"`
	TotalQuestions int       `json:"total_questions" gorm:"default:0"`
	TimeElapsed    int       `json:"time_elapsed" gorm:"default:0"` // in seconds
	Passed         bool      `json:"passed" gorm:"default:false;index"`
	IsPerfect      bool      `json:"is_perfect" gorm:"default:false"`
	IsNight        bool      `json:"is_night" gorm:"default:false"` // submitted between 00:00 and 06:00
	CreatedAt      time.Time `json:"created_at"`
}

// Certificate is issued when a user passes a test. Rendering (PDF/QR) is
// handled elsewhere; this record carries everything a renderer needs.
type Certificate struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	UserID   uint   `json:"user_id" gorm:"not null;index"`
	User     *User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	TestID   uint   `json:"test_id" gorm:"index"`
	Test     *Test  `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Number   string `json:"number" gorm:"uniqueIndex;not null;size:64"` // public verification key
	Title    string `json:"title" gorm:"size:150"`
	Language string `json:"language" gorm:"size:50"`
	Level    string `json:"level" gorm:"size:20"`
	Score    int    `json:"score" gorm:"default:0"`

	IssuedAt  time.Time `json:"issued_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Donation records a completed donation. Payment-session creation lives at
// the payment provider boundary; only settled donations are stored here.
type Donation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Amount    int       `json:"amount" gorm:"default:0"` // minor units (cents)
	Currency  string    `json:"currency" gorm:"size:3;default:'USD'"`
	Reference string    `json:"reference" gorm:"size:100"` // provider payment id, opaque
	Status    string    `json:"status" gorm:"default:'completed';size:20"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName methods for custom table names (optional)
func (Test) TableName() string {
	return "tests"
}

func (Question) TableName() string {
	return "questions"
}

func (TestAttempt) TableName() string {
	return "test_attempts"
}

func (Certificate) TableName() string {
	return "certificates"
}

func (Donation) TableName() string {
	return "donations"
}
