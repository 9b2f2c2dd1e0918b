package service

import (
	"errors"
	"fmt"

	"github.com/lshigami/Bandicoots/internal/apperr"
	"github.com/lshigami/Bandicoots/internal/dto"
	"github.com/lshigami/Bandicoots/internal/model"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// GradingReconciler merges manual grades into an attempt's totals and
// re-derives pass/fail against the quiz threshold.
type GradingReconciler interface {
	// PassThreshold is the points needed to pass: ceil of the quiz's
	// percentage threshold applied to its total points.
	PassThreshold(quiz *model.Quiz) int
	RecomputePassStatus(attempt *model.Attempt, quiz *model.Quiz) bool
	// ApplyManualGrades is idempotent: totals are recomputed from the
	// answer rows, never accumulated.
	ApplyManualGrades(actor model.Actor, attemptID uint, grades []dto.ManualGradeDTO) (*model.Attempt, error)
}

type gradingReconciler struct {
	db *gorm.DB
}

func NewGradingReconciler(db *gorm.DB) GradingReconciler {
	return &gradingReconciler{db: db}
}

func (g *gradingReconciler) PassThreshold(quiz *model.Quiz) int {
	// Percentage of points, not of questions. Integer ceil.
	return (quiz.PassThreshold*quiz.TotalPoints + 99) / 100
}

func (g *gradingReconciler) RecomputePassStatus(attempt *model.Attempt, quiz *model.Quiz) bool {
	return attempt.TotalScore >= g.PassThreshold(quiz)
}

func (g *gradingReconciler) ApplyManualGrades(actor model.Actor, attemptID uint, grades []dto.ManualGradeDTO) (*model.Attempt, error) {
	if !actor.CanGrade() {
		return nil, apperr.Forbidden("grade attempts")
	}

	var graded *model.Attempt
	err := g.db.Transaction(func(tx *gorm.DB) error {
		var attempt model.Attempt
		if err := tx.Preload("Answers.Question").First(&attempt, attemptID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NewNotFound("attempt", attemptID)
			}
			return err
		}

		var quiz model.Quiz
		if err := tx.First(&quiz, attempt.QuizID).Error; err != nil {
			return fmt.Errorf("loading quiz %d: %w", attempt.QuizID, err)
		}

		answersByID := make(map[uint]*model.Answer, len(attempt.Answers))
		for i := range attempt.Answers {
			answersByID[attempt.Answers[i].ID] = &attempt.Answers[i]
		}

		for _, grade := range grades {
			answer, ok := answersByID[grade.AnswerID]
			if !ok {
				var stray model.Answer
				if err := tx.First(&stray, grade.AnswerID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return apperr.NewNotFound("answer", grade.AnswerID)
					}
					return err
				}
				return apperr.AnswerAttemptMismatch(grade.AnswerID, attemptID)
			}
			if answer.Question.Type != model.QuestionTypeText {
				return &apperr.ValidationError{Issues: []apperr.FieldIssue{
					{Field: "answer_id", Message: fmt.Sprintf("answer %d is auto-graded and cannot be graded manually", grade.AnswerID)},
				}}
			}

			points := grade.Points
			if points < 0 {
				points = 0
			}
			if points > answer.Question.Points {
				points = answer.Question.Points
			}
			correct := points > 0
			answer.PointsEarned = points
			answer.IsCorrect = &correct
			if err := tx.Save(answer).Error; err != nil {
				return fmt.Errorf("saving grade for answer %d: %w", answer.ID, err)
			}
		}

		autoScore, manualScore := 0, 0
		for i := range attempt.Answers {
			ans := &attempt.Answers[i]
			if ans.Question.Type.AutoGraded() {
				autoScore += ans.PointsEarned
			} else {
				manualScore += ans.PointsEarned
			}
		}

		attempt.Score = autoScore
		attempt.ManualScore = manualScore
		attempt.TotalScore = autoScore + manualScore
		attempt.Passed = g.RecomputePassStatus(&attempt, &quiz)

		if err := tx.Model(&model.Attempt{}).Where("id = ?", attempt.ID).Updates(map[string]interface{}{
			"score":        attempt.Score,
			"manual_score": attempt.ManualScore,
			"total_score":  attempt.TotalScore,
			"passed":       attempt.Passed,
		}).Error; err != nil {
			return fmt.Errorf("saving attempt %d totals: %w", attempt.ID, err)
		}

		graded = &attempt
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("attemptID", graded.ID).
		Int("totalScore", graded.TotalScore).
		Bool("passed", graded.Passed).
		Msg("Manual grades applied")
	return graded, nil
}
