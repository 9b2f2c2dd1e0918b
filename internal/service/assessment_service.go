package service

import (
	"errors"
	"fmt"

	"github.com/lshigami/Bandicoots/internal/apperr"
	"github.com/lshigami/Bandicoots/internal/dto"
	"github.com/lshigami/Bandicoots/internal/model"
	"github.com/lshigami/Bandicoots/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AssessmentService is the public entry point of the engine. Each mutating
// operation runs in one transaction; notification delivery happens after
// commit and is reported, never rolled in.
type AssessmentService interface {
	CreateQuiz(actor model.Actor, req dto.QuizCreateDTO) (*dto.QuizResponseDTO, error)
	UpdateQuiz(actor model.Actor, quizID uint, req dto.QuizUpdateDTO) (*dto.QuizResponseDTO, error)
	DeleteQuiz(actor model.Actor, quizID uint) (*dto.DeleteResultDTO, error)
	CheckAttemptEligibility(actor model.Actor, quizID uint) (*dto.AttemptEligibilityDTO, error)
	StartAttempt(actor model.Actor, quizID uint) (*dto.StartAttemptResponseDTO, error)
	SubmitAttempt(actor model.Actor, attemptID uint, req dto.AttemptSubmitDTO) (*dto.AttemptResultDTO, error)
	GradeAttempt(actor model.Actor, attemptID uint, req dto.GradeAttemptDTO) (*dto.AttemptResultDTO, error)
	CheckModuleGate(userID, moduleID uint) (*dto.ModuleGateDTO, error)
	SaveModule(actor model.Actor, req dto.ModuleUpsertDTO) (*dto.ModuleResponseDTO, error)
}

type assessmentService struct {
	quizRepo    repository.QuizRepository
	attemptRepo repository.AttemptRepository
	moduleRepo  repository.ModuleRepository
	bank        QuestionBankService
	ledger      AttemptLedger
	reconciler  GradingReconciler
	gate        ModuleGate
	notifier    Notifier
	db          *gorm.DB
}

func NewAssessmentService(
	quizRepo repository.QuizRepository,
	attemptRepo repository.AttemptRepository,
	moduleRepo repository.ModuleRepository,
	bank QuestionBankService,
	ledger AttemptLedger,
	reconciler GradingReconciler,
	gate ModuleGate,
	notifier Notifier,
	db *gorm.DB,
) AssessmentService {
	return &assessmentService{
		quizRepo:    quizRepo,
		attemptRepo: attemptRepo,
		moduleRepo:  moduleRepo,
		bank:        bank,
		ledger:      ledger,
		reconciler:  reconciler,
		gate:        gate,
		notifier:    notifier,
		db:          db,
	}
}

func (s *assessmentService) CreateQuiz(actor model.Actor, req dto.QuizCreateDTO) (*dto.QuizResponseDTO, error) {
	if !actor.CanAuthor() {
		return nil, apperr.Forbidden("create quizzes")
	}
	if err := s.bank.Validate(req.Questions); err != nil {
		return nil, err
	}

	questions := s.bank.BuildQuestions(req.Questions)
	quiz := model.Quiz{
		Title:              req.Title,
		Description:        req.Description,
		Status:             model.QuizStatusDraft,
		AuthorID:           actor.UserID,
		PassThreshold:      req.PassThreshold,
		TotalPoints:        s.bank.TotalPoints(questions),
		IsModuleQuiz:       req.IsModuleQuiz,
		RequiredToProceed:  req.RequiredToProceed,
		MaxAttempts:        req.MaxAttempts,
		RetryDelayHours:    req.RetryDelayHours,
		ShowCorrectAnswers: model.RevealNever,
		TimeLimitMinutes:   req.TimeLimitMinutes,
		Questions:          questions,
	}
	if req.Status != "" {
		quiz.Status = model.QuizStatus(req.Status)
	}
	if req.ShowCorrectAnswers != "" {
		quiz.ShowCorrectAnswers = model.RevealPolicy(req.ShowCorrectAnswers)
	}
	if quiz.MaxAttempts < 1 {
		quiz.MaxAttempts = 1
	}

	if err := s.quizRepo.Create(&quiz); err != nil {
		log.Error().Err(err).Msg("Failed to create quiz")
		return nil, fmt.Errorf("database error creating quiz: %w", err)
	}

	log.Info().Uint("quizID", quiz.ID).Int("totalPoints", quiz.TotalPoints).Msg("Quiz created")
	resp := quizToDTO(&quiz, true)
	return resp, nil
}

func (s *assessmentService) UpdateQuiz(actor model.Actor, quizID uint, req dto.QuizUpdateDTO) (*dto.QuizResponseDTO, error) {
	if !actor.CanAuthor() {
		return nil, apperr.Forbidden("edit quizzes")
	}
	quiz, err := s.quizRepo.FindByID(quizID)
	if err != nil {
		return nil, err
	}
	if quiz.AuthorID != actor.UserID && actor.Role != model.RoleAdmin {
		return nil, apperr.Forbidden("edit another author's quiz")
	}
	if err := s.bank.Validate(req.Questions); err != nil {
		return nil, err
	}

	var updated *model.Quiz
	err = s.db.Transaction(func(tx *gorm.DB) error {
		questions, err := s.bank.ReplaceQuestions(tx, quiz.ID, req.Questions)
		if err != nil {
			return err
		}

		quiz.Title = req.Title
		quiz.Description = req.Description
		if req.Status != "" {
			quiz.Status = model.QuizStatus(req.Status)
		}
		quiz.PassThreshold = req.PassThreshold
		quiz.IsModuleQuiz = req.IsModuleQuiz
		quiz.RequiredToProceed = req.RequiredToProceed
		if req.MaxAttempts >= 1 {
			quiz.MaxAttempts = req.MaxAttempts
		}
		quiz.RetryDelayHours = req.RetryDelayHours
		if req.ShowCorrectAnswers != "" {
			quiz.ShowCorrectAnswers = model.RevealPolicy(req.ShowCorrectAnswers)
		}
		quiz.TimeLimitMinutes = req.TimeLimitMinutes
		quiz.TotalPoints = s.bank.TotalPoints(questions)
		quiz.Questions = questions

		if err := tx.Omit("Questions").Save(quiz).Error; err != nil {
			return fmt.Errorf("saving quiz %d: %w", quiz.ID, err)
		}
		updated = quiz
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("quizID", updated.ID).Int("totalPoints", updated.TotalPoints).Msg("Quiz updated")
	return quizToDTO(updated, true), nil
}

// DeleteQuiz refuses to remove a quiz with recorded attempts; that outcome
// is reported as a no-op with a message, not a hard failure.
func (s *assessmentService) DeleteQuiz(actor model.Actor, quizID uint) (*dto.DeleteResultDTO, error) {
	if !actor.CanAuthor() {
		return nil, apperr.Forbidden("delete quizzes")
	}
	quiz, err := s.quizRepo.FindByID(quizID)
	if err != nil {
		return nil, err
	}
	if quiz.AuthorID != actor.UserID && actor.Role != model.RoleAdmin {
		return nil, apperr.Forbidden("delete another author's quiz")
	}

	count, err := s.attemptRepo.CountByQuiz(quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("counting attempts: %w", err)
	}
	if count > 0 {
		integrity := apperr.HasAttempts(quiz.ID)
		log.Info().Uint("quizID", quiz.ID).Int64("attempts", count).Msg("Delete refused, quiz has attempts")
		return &dto.DeleteResultDTO{Deleted: false, Message: integrity.Message}, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Quiz{}, quiz.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("deleting quiz %d: %w", quiz.ID, err)
	}

	log.Info().Uint("quizID", quiz.ID).Msg("Quiz deleted")
	return &dto.DeleteResultDTO{Deleted: true}, nil
}

// CheckAttemptEligibility answers "may I start right now?" without starting
// anything. A closed answer is a normal result here, not an error.
func (s *assessmentService) CheckAttemptEligibility(actor model.Actor, quizID uint) (*dto.AttemptEligibilityDTO, error) {
	quiz, err := s.quizRepo.FindByID(quizID)
	if err != nil {
		return nil, err
	}
	count, err := s.attemptRepo.CountByUserAndQuiz(actor.UserID, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("counting attempts: %w", err)
	}

	resp := &dto.AttemptEligibilityDTO{
		QuizID:       quiz.ID,
		AttemptsUsed: int(count),
		MaxAttempts:  quiz.MaxAttempts,
	}
	if quiz.Status != model.QuizStatusPublished {
		resp.Reason = apperr.CodeQuizNotPublished
		return resp, nil
	}
	if err := s.ledger.CanStartAttempt(actor.UserID, quiz); err != nil {
		var policy *apperr.PolicyViolation
		if !errors.As(err, &policy) {
			return nil, err
		}
		resp.Reason = policy.Code
		resp.AvailableAt = policy.AvailableAt
		return resp, nil
	}

	resp.CanStart = true
	return resp, nil
}

func (s *assessmentService) StartAttempt(actor model.Actor, quizID uint) (*dto.StartAttemptResponseDTO, error) {
	attempt, err := s.ledger.StartAttempt(actor, quizID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.quizRepo.FindByID(quizID)
	if err != nil {
		return nil, err
	}
	return &dto.StartAttemptResponseDTO{
		AttemptID:        attempt.ID,
		AttemptNumber:    attempt.AttemptNumber,
		StartedAt:        attempt.StartedAt,
		TimeLimitMinutes: quiz.TimeLimitMinutes,
	}, nil
}

func (s *assessmentService) SubmitAttempt(actor model.Actor, attemptID uint, req dto.AttemptSubmitDTO) (*dto.AttemptResultDTO, error) {
	attempt, err := s.ledger.SubmitAttempt(actor, attemptID, req)
	if err != nil {
		return nil, err
	}

	result := attemptResult(attempt)
	result.NotificationStatus = s.notifier.Notify(AttemptEvent{
		Event:         "attempt_submitted",
		QuizID:        attempt.QuizID,
		UserID:        attempt.UserID,
		AttemptID:     attempt.ID,
		AttemptNumber: attempt.AttemptNumber,
		TotalScore:    attempt.TotalScore,
		Passed:        attempt.Passed,
		OccurredAt:    *attempt.CompletedAt,
	})
	return result, nil
}

func (s *assessmentService) GradeAttempt(actor model.Actor, attemptID uint, req dto.GradeAttemptDTO) (*dto.AttemptResultDTO, error) {
	attempt, err := s.reconciler.ApplyManualGrades(actor, attemptID, req.Grades)
	if err != nil {
		return nil, err
	}

	result := attemptResult(attempt)
	event := AttemptEvent{
		Event:         "attempt_graded",
		QuizID:        attempt.QuizID,
		UserID:        attempt.UserID,
		AttemptID:     attempt.ID,
		AttemptNumber: attempt.AttemptNumber,
		TotalScore:    attempt.TotalScore,
		Passed:        attempt.Passed,
	}
	if attempt.CompletedAt != nil {
		event.OccurredAt = *attempt.CompletedAt
	}
	result.NotificationStatus = s.notifier.Notify(event)
	return result, nil
}

func (s *assessmentService) CheckModuleGate(userID, moduleID uint) (*dto.ModuleGateDTO, error) {
	return s.gate.CanProceed(userID, moduleID)
}

func (s *assessmentService) SaveModule(actor model.Actor, req dto.ModuleUpsertDTO) (*dto.ModuleResponseDTO, error) {
	if !actor.CanAuthor() {
		return nil, apperr.Forbidden("manage modules")
	}

	module := model.CourseModule{
		CourseID:     req.CourseID,
		Title:        req.Title,
		Position:     req.Position,
		QuizID:       req.QuizID,
		QuizRequired: req.QuizRequired,
	}
	if module.Position < 1 {
		module.Position = 1
	}
	if req.ID != nil {
		existing, err := s.moduleRepo.FindByID(*req.ID)
		if err != nil {
			return nil, err
		}
		module.ID = existing.ID
		module.CreatedAt = existing.CreatedAt
	}
	if req.QuizID != nil {
		if _, err := s.quizRepo.FindByID(*req.QuizID); err != nil {
			return nil, err
		}
	}

	if err := s.moduleRepo.Save(&module); err != nil {
		return nil, fmt.Errorf("saving module: %w", err)
	}

	return &dto.ModuleResponseDTO{
		ID:           module.ID,
		CourseID:     module.CourseID,
		Title:        module.Title,
		Position:     module.Position,
		QuizID:       module.QuizID,
		QuizRequired: module.QuizRequired,
	}, nil
}

func attemptResult(attempt *model.Attempt) *dto.AttemptResultDTO {
	pending := false
	for _, ans := range attempt.Answers {
		if ans.IsCorrect == nil {
			pending = true
			break
		}
	}
	return &dto.AttemptResultDTO{
		AttemptID:     attempt.ID,
		AttemptNumber: attempt.AttemptNumber,
		Score:         attempt.Score,
		ManualScore:   attempt.ManualScore,
		TotalScore:    attempt.TotalScore,
		Passed:        attempt.Passed,
		PendingManual: pending,
	}
}
