package model

import (
	"time"

	"gorm.io/gorm"
)

// Attempt is one run of a quiz by one user. AttemptNumber is 1-based and
// unique per (user, quiz); the composite index backs the atomic numbering
// in the attempt ledger.
type Attempt struct {
	ID            uint `gorm:"primarykey" json:"id"`
	QuizID        uint `json:"quiz_id" gorm:"not null;uniqueIndex:uq_attempts_user_quiz_number,priority:2"`
	Quiz          Quiz `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
	UserID        uint `json:"user_id" gorm:"not null;uniqueIndex:uq_attempts_user_quiz_number,priority:1"`
	AttemptNumber int  `json:"attempt_number" gorm:"not null;uniqueIndex:uq_attempts_user_quiz_number,priority:3"`

	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Score is the auto-graded sum, ManualScore the grader-assigned sum.
	// TotalScore == Score + ManualScore holds after every submit and grade.
	Score       int  `json:"score" gorm:"not null;default:0"`
	ManualScore int  `json:"manual_score" gorm:"not null;default:0"`
	TotalScore  int  `json:"total_score" gorm:"not null;default:0"`
	Passed      bool `json:"passed" gorm:"not null;default:false"`

	Answers   []Answer       `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Completed reports whether the attempt has been submitted.
func (a *Attempt) Completed() bool {
	return a.CompletedAt != nil
}
