package model

import (
	"time"

	"gorm.io/gorm"
)

// CourseModule is the slice of the course-authoring subsystem this engine
// needs: module identity plus its quiz binding. Content, ordering and the
// rest of the module live outside the engine.
type CourseModule struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	CourseID uint   `json:"course_id" gorm:"not null;index"`
	Title    string `json:"title" gorm:"not null"`
	Position int    `json:"position" gorm:"not null;default:1"`

	QuizID       *uint `json:"quiz_id,omitempty" gorm:"index"`
	Quiz         *Quiz `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
	QuizRequired bool  `json:"quiz_required" gorm:"not null;default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
