package repository

import (
	"errors"

	"github.com/lshigami/Bandicoots/internal/apperr"
	"github.com/lshigami/Bandicoots/internal/model"
	"gorm.io/gorm"
)

type AnswerRepository interface {
	Update(answer *model.Answer) error
	FindByID(id uint) (*model.Answer, error)
	FindByAttemptID(attemptID uint) ([]model.Answer, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Update(answer *model.Answer) error {
	return r.db.Save(answer).Error
}

func (r *answerRepository) FindByID(id uint) (*model.Answer, error) {
	var answer model.Answer
	if err := r.db.Preload("Question").First(&answer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("answer", id)
		}
		return nil, err
	}
	return &answer, nil
}

func (r *answerRepository) FindByAttemptID(attemptID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db.Preload("Question").Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}
