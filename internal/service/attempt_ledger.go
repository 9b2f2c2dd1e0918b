package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/lshigami/Bandicoots/internal/apperr"
	"github.com/lshigami/Bandicoots/internal/dto"
	"github.com/lshigami/Bandicoots/internal/model"
	"github.com/lshigami/Bandicoots/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AttemptLedger owns attempt records and the NotStarted -> InProgress ->
// Completed state machine per (user, quiz). Attempt numbers are assigned
// atomically; the unique (user_id, quiz_id, attempt_number) index is the
// cross-request synchronization point.
type AttemptLedger interface {
	CanStartAttempt(userID uint, quiz *model.Quiz) error
	StartAttempt(actor model.Actor, quizID uint) (*model.Attempt, error)
	SubmitAttempt(actor model.Actor, attemptID uint, req dto.AttemptSubmitDTO) (*model.Attempt, error)
}

type attemptLedger struct {
	quizRepo     repository.QuizRepository
	questionRepo repository.QuestionRepository
	attemptRepo  repository.AttemptRepository
	scorer       ScoringEngine
	reconciler   GradingReconciler
	db           *gorm.DB
	now          func() time.Time
}

func NewAttemptLedger(
	quizRepo repository.QuizRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
	scorer ScoringEngine,
	reconciler GradingReconciler,
	db *gorm.DB,
) AttemptLedger {
	return &attemptLedger{
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		scorer:       scorer,
		reconciler:   reconciler,
		db:           db,
		now:          time.Now,
	}
}

// CanStartAttempt checks the max-attempt and retry-delay policies.
func (s *attemptLedger) CanStartAttempt(userID uint, quiz *model.Quiz) error {
	count, err := s.attemptRepo.CountByUserAndQuiz(userID, quiz.ID)
	if err != nil {
		return fmt.Errorf("counting attempts: %w", err)
	}
	if count >= int64(quiz.MaxAttempts) {
		return apperr.AttemptLimitExceeded(quiz.MaxAttempts)
	}

	if quiz.RetryDelayHours > 0 {
		latest, err := s.attemptRepo.LatestByUserAndQuiz(userID, quiz.ID)
		if err != nil {
			return fmt.Errorf("loading latest attempt: %w", err)
		}
		if latest != nil && latest.CompletedAt != nil {
			availableAt := latest.CompletedAt.Add(time.Duration(quiz.RetryDelayHours) * time.Hour)
			if s.now().Before(availableAt) {
				return apperr.RetryDelayNotElapsed(availableAt)
			}
		}
	}
	return nil
}

func (s *attemptLedger) StartAttempt(actor model.Actor, quizID uint) (*model.Attempt, error) {
	quiz, err := s.quizRepo.FindByID(quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != model.QuizStatusPublished {
		return nil, apperr.QuizNotPublished(quiz.ID)
	}
	if err := s.CanStartAttempt(actor.UserID, quiz); err != nil {
		return nil, err
	}

	// The insert races only with the same user double-submitting; one retry
	// on the unique-index violation is enough. The policy checks above are
	// re-run inside the transaction, where they are authoritative.
	for tries := 0; tries < 2; tries++ {
		attempt, err := s.createAttempt(actor.UserID, quiz)
		if err == nil {
			log.Info().
				Uint("quizID", quiz.ID).
				Uint("userID", actor.UserID).
				Int("attemptNumber", attempt.AttemptNumber).
				Msg("Attempt started")
			return attempt, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		log.Warn().
			Uint("quizID", quiz.ID).
			Uint("userID", actor.UserID).
			Msg("Attempt number collision, retrying once")
	}
	return nil, apperr.DuplicateAttempt(actor.UserID, quiz.ID)
}

func (s *attemptLedger) createAttempt(userID uint, quiz *model.Quiz) (*model.Attempt, error) {
	var created *model.Attempt
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Attempt{}).
			Where("user_id = ? AND quiz_id = ?", userID, quiz.ID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("counting attempts: %w", err)
		}
		if count >= int64(quiz.MaxAttempts) {
			return apperr.AttemptLimitExceeded(quiz.MaxAttempts)
		}

		if quiz.RetryDelayHours > 0 {
			var latest model.Attempt
			err := tx.Where("user_id = ? AND quiz_id = ?", userID, quiz.ID).
				Order("attempt_number DESC").
				First(&latest).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err == nil && latest.CompletedAt != nil {
				availableAt := latest.CompletedAt.Add(time.Duration(quiz.RetryDelayHours) * time.Hour)
				if s.now().Before(availableAt) {
					return apperr.RetryDelayNotElapsed(availableAt)
				}
			}
		}

		var maxNumber int64
		if err := tx.Model(&model.Attempt{}).
			Where("user_id = ? AND quiz_id = ?", userID, quiz.ID).
			Select("COALESCE(MAX(attempt_number), 0)").
			Scan(&maxNumber).Error; err != nil {
			return fmt.Errorf("reading max attempt number: %w", err)
		}

		attempt := model.Attempt{
			QuizID:        quiz.ID,
			UserID:        userID,
			AttemptNumber: int(maxNumber) + 1,
			StartedAt:     s.now(),
		}
		if err := tx.Create(&attempt).Error; err != nil {
			return err
		}
		created = &attempt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *attemptLedger) SubmitAttempt(actor model.Actor, attemptID uint, req dto.AttemptSubmitDTO) (*model.Attempt, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != actor.UserID && !actor.CanAuthor() {
		return nil, apperr.Forbidden("submit another user's attempt")
	}
	if attempt.Completed() {
		return nil, apperr.AttemptAlreadyCompleted(attempt.ID)
	}

	quiz, err := s.quizRepo.FindByID(attempt.QuizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.FindByQuizID(attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("loading questions for quiz %d: %w", quiz.ID, err)
	}
	questionMap := make(map[uint]model.Question, len(questions))
	for _, q := range questions {
		questionMap[q.ID] = q
	}

	// One answer per question; a later entry for the same question wins.
	byQuestion := make(map[uint]model.Answer, len(req.Answers))
	order := make([]uint, 0, len(req.Answers))
	for _, in := range req.Answers {
		question, ok := questionMap[in.QuestionID]
		if !ok {
			log.Warn().
				Uint("questionID", in.QuestionID).
				Uint("quizID", quiz.ID).
				Msg("Submitted answer for a question not in this quiz, skipping")
			continue
		}

		value := answerValueFor(question, in)
		result := s.scorer.Score(question, value)
		if _, seen := byQuestion[in.QuestionID]; !seen {
			order = append(order, in.QuestionID)
		}
		byQuestion[in.QuestionID] = model.Answer{
			AttemptID:    attempt.ID,
			QuestionID:   question.ID,
			Value:        datatypes.NewJSONType(value),
			IsCorrect:    result.IsCorrect,
			PointsEarned: result.PointsEarned,
		}
	}
	if len(byQuestion) == 0 {
		return nil, &apperr.ValidationError{Issues: []apperr.FieldIssue{
			{Field: "answers", Message: "no answers matched the quiz's questions"},
		}}
	}

	answers := make([]model.Answer, 0, len(byQuestion))
	for _, qid := range order {
		answers = append(answers, byQuestion[qid])
	}

	completedAt := s.now()
	attempt.Answers = answers
	attempt.Score = s.scorer.ScoreAttempt(questionMap, answers)
	attempt.ManualScore = 0
	attempt.TotalScore = attempt.Score
	attempt.CompletedAt = &completedAt
	// Provisional for quizzes with text questions, final otherwise.
	attempt.Passed = s.reconciler.RecomputePassStatus(attempt, quiz)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Re-check under the transaction; a concurrent submit may have
		// completed the attempt after the read above.
		var current model.Attempt
		if err := tx.Select("completed_at").First(&current, attempt.ID).Error; err != nil {
			return err
		}
		if current.CompletedAt != nil {
			return apperr.AttemptAlreadyCompleted(attempt.ID)
		}

		if err := tx.Create(&answers).Error; err != nil {
			// The losing side of a concurrent double submit hits the
			// (attempt_id, question_id) unique index.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.AttemptAlreadyCompleted(attempt.ID)
			}
			return fmt.Errorf("persisting answers: %w", err)
		}
		attempt.Answers = answers
		return tx.Model(&model.Attempt{}).Where("id = ?", attempt.ID).Updates(map[string]interface{}{
			"score":        attempt.Score,
			"manual_score": attempt.ManualScore,
			"total_score":  attempt.TotalScore,
			"completed_at": attempt.CompletedAt,
			"passed":       attempt.Passed,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("attemptID", attempt.ID).
		Int("score", attempt.Score).
		Bool("passed", attempt.Passed).
		Msg("Attempt submitted")
	return attempt, nil
}

// answerValueFor shapes the raw submission into the tagged variant matching
// the question's type.
func answerValueFor(question model.Question, in dto.AnswerSubmitDTO) model.AnswerValue {
	switch question.Type {
	case model.QuestionTypeRadio:
		single := ""
		if len(in.Selected) > 0 {
			single = in.Selected[0]
		}
		return model.SingleAnswer(single)
	case model.QuestionTypeCheckbox:
		return model.MultipleAnswer(in.Selected...)
	default:
		return model.TextAnswer(in.Text)
	}
}
