package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Answer is one submitted value for one question within an attempt.
// IsCorrect stays nil for text answers until a grader intervenes.
type Answer struct {
	ID         uint     `gorm:"primarykey" json:"id"`
	AttemptID  uint     `json:"attempt_id" gorm:"not null;uniqueIndex:uq_answers_attempt_question,priority:1"`
	QuestionID uint     `json:"question_id" gorm:"not null;uniqueIndex:uq_answers_attempt_question,priority:2"`
	Question   Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`

	Value        datatypes.JSONType[AnswerValue] `json:"answer"`
	IsCorrect    *bool                           `json:"is_correct"`
	PointsEarned int                             `json:"points_earned" gorm:"not null;default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
