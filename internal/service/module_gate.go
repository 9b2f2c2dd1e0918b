package service

import (
	"fmt"

	"github.com/lshigami/Bandicoots/internal/dto"
	"github.com/lshigami/Bandicoots/internal/model"
	"github.com/lshigami/Bandicoots/internal/repository"
	"github.com/rs/zerolog/log"
)

// ModuleGate decides whether a learner may advance past a module. The
// decision is recomputed on every call and never cached: manual grading of
// a prior attempt can flip the outcome retroactively.
type ModuleGate interface {
	CanProceed(userID, moduleID uint) (*dto.ModuleGateDTO, error)
}

type moduleGate struct {
	moduleRepo  repository.ModuleRepository
	attemptRepo repository.AttemptRepository
}

func NewModuleGate(moduleRepo repository.ModuleRepository, attemptRepo repository.AttemptRepository) ModuleGate {
	return &moduleGate{moduleRepo: moduleRepo, attemptRepo: attemptRepo}
}

func (g *moduleGate) CanProceed(userID, moduleID uint) (*dto.ModuleGateDTO, error) {
	module, err := g.moduleRepo.FindByID(moduleID)
	if err != nil {
		return nil, err
	}

	result := &dto.ModuleGateDTO{
		ModuleID: module.ID,
		UserID:   userID,
		HasQuiz:  module.QuizID != nil,
	}

	if !result.HasQuiz || !module.QuizRequired {
		result.CanProceed = true
		return result, nil
	}

	quiz := module.Quiz
	if quiz == nil {
		return nil, fmt.Errorf("module %d references quiz %d which could not be loaded", module.ID, *module.QuizID)
	}

	result.QuizRequired = true
	result.MaxAttempts = quiz.MaxAttempts

	attempts, err := g.attemptRepo.FindAllByUserAndQuiz(userID, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("loading attempts for gate: %w", err)
	}
	result.AttemptsUsed = len(attempts)

	// Latest completed passing attempt wins; otherwise the latest completed
	// attempt explains the closed gate.
	var qualifying *model.Attempt
	for i := range attempts {
		a := &attempts[i]
		if !a.Completed() {
			continue
		}
		if a.Passed {
			qualifying = a
			break
		}
		if qualifying == nil {
			qualifying = a
		}
	}
	if qualifying != nil {
		result.LatestAttempt = &dto.AttemptSummaryDTO{
			ID:            qualifying.ID,
			QuizID:        qualifying.QuizID,
			UserID:        qualifying.UserID,
			AttemptNumber: qualifying.AttemptNumber,
			StartedAt:     qualifying.StartedAt,
			CompletedAt:   qualifying.CompletedAt,
			TotalScore:    qualifying.TotalScore,
			Passed:        qualifying.Passed,
		}
		result.CanProceed = qualifying.Passed
	}

	// Display concern, not a gating one: exhausted learners may still see
	// correct answers under after_max_attempts.
	result.RevealAnswers = revealAnswers(quiz, result.CanProceed, len(attempts))

	log.Debug().
		Uint("moduleID", module.ID).
		Uint("userID", userID).
		Bool("canProceed", result.CanProceed).
		Msg("Module gate evaluated")
	return result, nil
}

// revealAnswers evaluates the quiz's show_correct_answers policy.
func revealAnswers(quiz *model.Quiz, passed bool, attemptsUsed int) bool {
	switch quiz.ShowCorrectAnswers {
	case model.RevealAlways:
		return true
	case model.RevealAfterPass:
		return passed
	case model.RevealAfterMaxAttempts:
		return attemptsUsed >= quiz.MaxAttempts
	default:
		return false
	}
}
