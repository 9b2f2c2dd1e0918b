package service

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lshigami/Bandicoots/internal/apperr"
	"github.com/lshigami/Bandicoots/internal/dto"
	"github.com/lshigami/Bandicoots/internal/model"
	"github.com/lshigami/Bandicoots/internal/repository"
	"github.com/rs/zerolog/log"
)

// QuizQueryService serves read endpoints. Learner views scrub correct
// answers unless the quiz's reveal policy grants them.
type QuizQueryService interface {
	ListQuizzes() ([]dto.QuizSummaryDTO, error)
	GetQuiz(actor model.Actor, quizID uint) (*dto.QuizResponseDTO, error)
	GetAttemptDetails(actor model.Actor, attemptID uint) (*dto.AttemptDetailDTO, error)
	ListUserAttempts(actor model.Actor, quizID, userID uint) ([]dto.AttemptSummaryDTO, error)
	ListModules(courseID uint) ([]dto.ModuleResponseDTO, error)
}

type quizQueryService struct {
	quizRepo    repository.QuizRepository
	attemptRepo repository.AttemptRepository
	answerRepo  repository.AnswerRepository
	moduleRepo  repository.ModuleRepository
}

func NewQuizQueryService(
	quizRepo repository.QuizRepository,
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	moduleRepo repository.ModuleRepository,
) QuizQueryService {
	return &quizQueryService{
		quizRepo:    quizRepo,
		attemptRepo: attemptRepo,
		answerRepo:  answerRepo,
		moduleRepo:  moduleRepo,
	}
}

func (s *quizQueryService) ListQuizzes() ([]dto.QuizSummaryDTO, error) {
	quizzes, err := s.quizRepo.FindAllWithQuestionCount()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list quizzes")
		return nil, fmt.Errorf("error fetching quizzes: %w", err)
	}

	dtos := make([]dto.QuizSummaryDTO, 0, len(quizzes))
	for _, q := range quizzes {
		dtos = append(dtos, dto.QuizSummaryDTO{
			ID:            q.Quiz.ID,
			Title:         q.Quiz.Title,
			Description:   q.Quiz.Description,
			Status:        string(q.Quiz.Status),
			TotalPoints:   q.Quiz.TotalPoints,
			PassThreshold: q.Quiz.PassThreshold,
			QuestionCount: q.QuestionCount,
			CreatedAt:     q.Quiz.CreatedAt,
		})
	}
	return dtos, nil
}

func (s *quizQueryService) GetQuiz(actor model.Actor, quizID uint) (*dto.QuizResponseDTO, error) {
	quiz, err := s.quizRepo.FindByIDWithQuestions(quizID)
	if err != nil {
		return nil, err
	}
	return quizToDTO(quiz, s.mayReveal(actor, quiz)), nil
}

func (s *quizQueryService) GetAttemptDetails(actor model.Actor, attemptID uint) (*dto.AttemptDetailDTO, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != actor.UserID && !actor.CanGrade() {
		return nil, apperr.Forbidden("view another user's attempt")
	}

	quiz, err := s.quizRepo.FindByID(attempt.QuizID)
	if err != nil {
		return nil, err
	}
	answers, err := s.answerRepo.FindByAttemptID(attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("loading answers for attempt %d: %w", attempt.ID, err)
	}

	reveal := s.mayReveal(actor, quiz)
	resp := &dto.AttemptDetailDTO{
		ID:            attempt.ID,
		QuizID:        attempt.QuizID,
		QuizTitle:     quiz.Title,
		UserID:        attempt.UserID,
		AttemptNumber: attempt.AttemptNumber,
		StartedAt:     attempt.StartedAt,
		CompletedAt:   attempt.CompletedAt,
		Score:         attempt.Score,
		ManualScore:   attempt.ManualScore,
		TotalScore:    attempt.TotalScore,
		Passed:        attempt.Passed,
	}

	resp.Answers = make([]dto.AnswerResponseDTO, 0, len(answers))
	for _, ans := range answers {
		value := ans.Value.Data()
		ansDTO := dto.AnswerResponseDTO{
			ID:           ans.ID,
			QuestionID:   ans.QuestionID,
			Question:     questionToDTO(&ans.Question, reveal),
			IsCorrect:    ans.IsCorrect,
			PointsEarned: ans.PointsEarned,
			Text:         value.Text,
		}
		switch value.Kind {
		case model.QuestionTypeRadio:
			if value.Single != "" {
				ansDTO.Selected = []string{value.Single}
			}
		case model.QuestionTypeCheckbox:
			ansDTO.Selected = value.Multiple
		}
		resp.Answers = append(resp.Answers, ansDTO)
	}
	return resp, nil
}

func (s *quizQueryService) ListUserAttempts(actor model.Actor, quizID, userID uint) ([]dto.AttemptSummaryDTO, error) {
	if userID != actor.UserID && !actor.CanGrade() {
		return nil, apperr.Forbidden("list another user's attempts")
	}
	attempts, err := s.attemptRepo.FindAllByUserAndQuiz(userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("error fetching attempts for quiz %d: %w", quizID, err)
	}

	dtos := make([]dto.AttemptSummaryDTO, 0, len(attempts))
	for _, attempt := range attempts {
		var summary dto.AttemptSummaryDTO
		if err := copier.Copy(&summary, &attempt); err != nil {
			log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Error copying attempt to summary DTO")
			continue
		}
		dtos = append(dtos, summary)
	}
	return dtos, nil
}

func (s *quizQueryService) ListModules(courseID uint) ([]dto.ModuleResponseDTO, error) {
	modules, err := s.moduleRepo.FindByCourseID(courseID)
	if err != nil {
		return nil, fmt.Errorf("error fetching modules for course %d: %w", courseID, err)
	}

	dtos := make([]dto.ModuleResponseDTO, 0, len(modules))
	for _, m := range modules {
		dtos = append(dtos, dto.ModuleResponseDTO{
			ID:           m.ID,
			CourseID:     m.CourseID,
			Title:        m.Title,
			Position:     m.Position,
			QuizID:       m.QuizID,
			QuizRequired: m.QuizRequired,
		})
	}
	return dtos, nil
}

// mayReveal decides whether the actor may see correct answers for a quiz.
// Authors and graders always may; learners go through the reveal policy.
func (s *quizQueryService) mayReveal(actor model.Actor, quiz *model.Quiz) bool {
	if actor.CanGrade() {
		return true
	}

	switch quiz.ShowCorrectAnswers {
	case model.RevealAlways:
		return true
	case model.RevealNever:
		return false
	}

	attempts, err := s.attemptRepo.FindAllByUserAndQuiz(actor.UserID, quiz.ID)
	if err != nil {
		log.Warn().Err(err).Uint("quizID", quiz.ID).Msg("Reveal policy check failed, hiding answers")
		return false
	}
	passed := false
	for _, a := range attempts {
		if a.Completed() && a.Passed {
			passed = true
			break
		}
	}
	return revealAnswers(quiz, passed, len(attempts))
}

func quizToDTO(quiz *model.Quiz, reveal bool) *dto.QuizResponseDTO {
	resp := &dto.QuizResponseDTO{
		ID:                 quiz.ID,
		Title:              quiz.Title,
		Description:        quiz.Description,
		Status:             string(quiz.Status),
		AuthorID:           quiz.AuthorID,
		PassThreshold:      quiz.PassThreshold,
		TotalPoints:        quiz.TotalPoints,
		IsModuleQuiz:       quiz.IsModuleQuiz,
		RequiredToProceed:  quiz.RequiredToProceed,
		MaxAttempts:        quiz.MaxAttempts,
		RetryDelayHours:    quiz.RetryDelayHours,
		ShowCorrectAnswers: string(quiz.ShowCorrectAnswers),
		TimeLimitMinutes:   quiz.TimeLimitMinutes,
		CreatedAt:          quiz.CreatedAt,
	}
	resp.Questions = make([]dto.QuestionResponseDTO, 0, len(quiz.Questions))
	for i := range quiz.Questions {
		resp.Questions = append(resp.Questions, questionToDTO(&quiz.Questions[i], reveal))
	}
	return resp
}

func questionToDTO(q *model.Question, reveal bool) dto.QuestionResponseDTO {
	resp := dto.QuestionResponseDTO{
		ID:           q.ID,
		QuizID:       q.QuizID,
		Type:         string(q.Type),
		QuestionText: q.QuestionText,
		Points:       q.Points,
		Options:      []string(q.Options),
		OrderInQuiz:  q.OrderInQuiz,
	}
	if reveal {
		resp.CorrectAnswer = []string(q.CorrectAnswer)
		resp.Explanation = q.Explanation
	}
	return resp
}
