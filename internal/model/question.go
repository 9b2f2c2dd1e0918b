package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionTypeRadio    QuestionType = "radio"
	QuestionTypeCheckbox QuestionType = "checkbox"
	QuestionTypeText     QuestionType = "text"
)

// AutoGraded reports whether answers of this type are scored by the engine.
// Text questions only earn points through manual grading.
func (t QuestionType) AutoGraded() bool {
	return t == QuestionTypeRadio || t == QuestionTypeCheckbox
}

type Question struct {
	ID           uint         `gorm:"primarykey" json:"id"`
	QuizID       uint         `json:"quiz_id" gorm:"not null;index"`
	Type         QuestionType `json:"type" gorm:"type:varchar(16);not null"`
	QuestionText string       `json:"question_text" gorm:"type:text;not null"`

	// Points counts toward Quiz.TotalPoints for every type. For text
	// questions it is the manual-grading cap, never auto-awarded.
	Points int `json:"points" gorm:"not null;default:0"`

	Options       datatypes.JSONSlice[string] `json:"options,omitempty"`
	CorrectAnswer datatypes.JSONSlice[string] `json:"correct_answer,omitempty"`
	Explanation   string                      `json:"correct_answer_explanation,omitempty" gorm:"type:text"`

	OrderInQuiz int            `json:"order" gorm:"not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
