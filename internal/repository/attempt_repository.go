package repository

import (
	"errors"

	"github.com/lshigami/Bandicoots/internal/apperr"
	"github.com/lshigami/Bandicoots/internal/model"
	"gorm.io/gorm"
)

type AttemptRepository interface {
	Update(attempt *model.Attempt) error
	FindByID(id uint) (*model.Attempt, error)
	FindAllByUserAndQuiz(userID, quizID uint) ([]model.Attempt, error)
	CountByUserAndQuiz(userID, quizID uint) (int64, error)
	CountByQuiz(quizID uint) (int64, error)
	LatestByUserAndQuiz(userID, quizID uint) (*model.Attempt, error)
	HasPassed(userID, quizID uint) (bool, error)
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Update(attempt *model.Attempt) error {
	return r.db.Save(attempt).Error
}

func (r *attemptRepository) FindByID(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	if err := r.db.First(&attempt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("attempt", id)
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindAllByUserAndQuiz(userID, quizID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("attempt_number DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) CountByUserAndQuiz(userID, quizID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Attempt{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Count(&count).Error
	return count, err
}

func (r *attemptRepository) CountByQuiz(quizID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Attempt{}).Where("quiz_id = ?", quizID).Count(&count).Error
	return count, err
}

// LatestByUserAndQuiz returns the highest-numbered attempt, or nil when the
// user has none for this quiz.
func (r *attemptRepository) LatestByUserAndQuiz(userID, quizID uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.db.
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("attempt_number DESC").
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) HasPassed(userID, quizID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.Attempt{}).
		Where("user_id = ? AND quiz_id = ? AND passed = ? AND completed_at IS NOT NULL", userID, quizID, true).
		Count(&count).Error
	return count > 0, err
}
