package model

import (
	"time"

	"gorm.io/gorm"
)

type QuizStatus string

const (
	QuizStatusDraft     QuizStatus = "draft"
	QuizStatusPublished QuizStatus = "published"
	QuizStatusArchived  QuizStatus = "archived"
)

// RevealPolicy controls when learners may see correct answers.
type RevealPolicy string

const (
	RevealNever            RevealPolicy = "never"
	RevealAfterPass        RevealPolicy = "after_pass"
	RevealAfterMaxAttempts RevealPolicy = "after_max_attempts"
	RevealAlways           RevealPolicy = "always"
)

type Quiz struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description,omitempty"`
	Status      QuizStatus `json:"status" gorm:"type:varchar(16);not null;default:'draft'"`
	AuthorID    uint       `json:"author_id" gorm:"not null;index"`

	// PassThreshold is a percentage of TotalPoints, 0-100.
	PassThreshold int `json:"pass_threshold" gorm:"not null"`
	// TotalPoints is derived: sum of Points over all questions.
	TotalPoints int `json:"total_points" gorm:"not null;default:0"`

	IsModuleQuiz       bool         `json:"is_module_quiz" gorm:"not null;default:false"`
	RequiredToProceed  bool         `json:"required_to_proceed" gorm:"not null;default:false"`
	MaxAttempts        int          `json:"max_attempts" gorm:"not null;default:1"`
	RetryDelayHours    int          `json:"retry_delay_hours" gorm:"not null;default:0"`
	ShowCorrectAnswers RevealPolicy `json:"show_correct_answers" gorm:"type:varchar(32);not null;default:'never'"`
	TimeLimitMinutes   *int         `json:"time_limit_minutes,omitempty"`

	Questions []Question     `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
