package models

import (
	"time"

	"gorm.io/gorm"
)

// Group represents a class with its student roster
type Group struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	Name       string    `json:"name"`
	StudentIDs string    `json:"student_ids"` // JSON-encoded array of student ids
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// QuizSubmission represents a single quiz attempt by a student
type QuizSubmission struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	StudentID string    `gorm:"index" json:"student_id"`
	QuizTitle string    `json:"quiz_title"`
	Score     float64   `json:"score"` // 0-1
	CreatedAt time.Time `json:"created_at"`
}

// TestSubmission represents a single test attempt by a student
type TestSubmission struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	StudentID string    `gorm:"index" json:"student_id"`
	TestTitle string    `json:"test_title"`
	Score     float64   `json:"score"` // 0-1
	CreatedAt time.Time `json:"created_at"`
}

// CrisisLog represents a resolved crisis scenario with its reaction time
type CrisisLog struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	StudentID  string    `gorm:"index" json:"student_id"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// StudentProgress represents a per-student progress record with the role
// chosen during a lesson
type StudentProgress struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	StudentID    string    `gorm:"index" json:"student_id"`
	LessonID     string    `json:"lesson_id,omitempty"`
	SelectedRole string    `json:"selected_role,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// AnalyticsReport is the per-class slot holding the latest generated report.
// There is exactly one row per class; a new run overwrites it.
type AnalyticsReport struct {
	ClassID     string    `gorm:"primaryKey" json:"class_id"`
	Report      string    `json:"report"` // JSON-encoded ClassReport
	GeneratedAt time.Time `json:"generated_at"`
}

// StudentInteraction represents an inbound message captured by the
// Telegram webhook
type StudentInteraction struct {
	ID               string    `gorm:"primaryKey" json:"id"`
	Type             string    `json:"type"` // telegram_message
	StudentID        string    `gorm:"index" json:"student_id"`
	TelegramUsername string    `json:"telegram_username,omitempty"`
	Text             string    `json:"text"`
	CreatedAt        time.Time `json:"created_at"`
}

// AutoMigrate runs all migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Group{},
		&QuizSubmission{},
		&TestSubmission{},
		&CrisisLog{},
		&StudentProgress{},
		&AnalyticsReport{},
		&StudentInteraction{},
	)
}
