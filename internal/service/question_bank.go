package service

import (
	"fmt"

	"github.com/lshigami/Bandicoots/internal/apperr"
	"github.com/lshigami/Bandicoots/internal/dto"
	"github.com/lshigami/Bandicoots/internal/model"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// QuestionBankService validates and maintains a quiz's ordered question set.
// Validation runs as a single pass collecting every issue before any write.
type QuestionBankService interface {
	Validate(inputs []dto.QuestionInput) error
	BuildQuestions(inputs []dto.QuestionInput) []model.Question
	TotalPoints(questions []model.Question) int
	// ReplaceQuestions reconciles the stored question set with inputs inside
	// the caller's transaction: matched IDs are updated in place, new entries
	// created, and absent questions deleted only when they have no answers.
	ReplaceQuestions(tx *gorm.DB, quizID uint, inputs []dto.QuestionInput) ([]model.Question, error)
}

type questionBankService struct{}

func NewQuestionBankService() QuestionBankService {
	return &questionBankService{}
}

func (s *questionBankService) Validate(inputs []dto.QuestionInput) error {
	var issues []apperr.FieldIssue

	add := func(idx int, field, msg string) {
		issues = append(issues, apperr.FieldIssue{Index: idx, Field: field, Message: msg})
	}

	orders := make(map[int]int, len(inputs))
	for i, in := range inputs {
		qType := model.QuestionType(in.Type)

		if in.QuestionText == "" {
			add(i, "question_text", "must not be empty")
		}
		if in.Order < 1 {
			add(i, "order", "must be a positive integer")
		} else if prev, dup := orders[in.Order]; dup {
			add(i, "order", fmt.Sprintf("duplicates order of question %d", prev))
		} else {
			orders[in.Order] = i
		}

		switch qType {
		case model.QuestionTypeRadio, model.QuestionTypeCheckbox:
			if in.Points <= 0 {
				add(i, "points", "must be positive for auto-graded questions")
			}
			options := model.NormalizedSet(in.Options)
			if len(options) < 2 {
				add(i, "options", "requires at least 2 non-empty options")
			}
			if len(in.CorrectAnswer) == 0 {
				add(i, "correct_answer", "must not be empty")
			} else {
				optionSet := make(map[string]struct{}, len(options))
				for _, o := range options {
					optionSet[o] = struct{}{}
				}
				for _, c := range in.CorrectAnswer {
					if _, ok := optionSet[model.NormalizeOption(c)]; !ok {
						add(i, "correct_answer", fmt.Sprintf("%q is not among the options", c))
					}
				}
				if qType == model.QuestionTypeRadio && len(model.NormalizedSet(in.CorrectAnswer)) != 1 {
					add(i, "correct_answer", "radio questions take exactly one correct answer")
				}
			}
		case model.QuestionTypeText:
			if in.Points < 0 {
				add(i, "points", "must not be negative")
			}
		default:
			add(i, "type", fmt.Sprintf("unknown question type %q", in.Type))
		}
	}

	if len(issues) > 0 {
		return &apperr.ValidationError{Issues: issues}
	}
	return nil
}

func (s *questionBankService) BuildQuestions(inputs []dto.QuestionInput) []model.Question {
	questions := make([]model.Question, 0, len(inputs))
	for _, in := range inputs {
		questions = append(questions, buildQuestion(in))
	}
	return questions
}

func buildQuestion(in dto.QuestionInput) model.Question {
	q := model.Question{
		Type:         model.QuestionType(in.Type),
		QuestionText: in.QuestionText,
		Points:       in.Points,
		Explanation:  in.Explanation,
		OrderInQuiz:  in.Order,
	}
	// Options and correct answers are meaningless for text questions and
	// are not stored for them.
	if q.Type.AutoGraded() {
		q.Options = in.Options
		q.CorrectAnswer = in.CorrectAnswer
	}
	return q
}

// TotalPoints derives Quiz.TotalPoints: every question's worth counts,
// including the manual-grading cap of text questions, so that pass
// thresholds on mixed and text-only quizzes are meaningful.
func (s *questionBankService) TotalPoints(questions []model.Question) int {
	total := 0
	for _, q := range questions {
		total += q.Points
	}
	return total
}

func (s *questionBankService) ReplaceQuestions(tx *gorm.DB, quizID uint, inputs []dto.QuestionInput) ([]model.Question, error) {
	var existing []model.Question
	if err := tx.Where("quiz_id = ?", quizID).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("loading questions for quiz %d: %w", quizID, err)
	}

	existingByID := make(map[uint]model.Question, len(existing))
	for _, q := range existing {
		existingByID[q.ID] = q
	}

	keep := make(map[uint]struct{}, len(inputs))
	result := make([]model.Question, 0, len(inputs))

	for i, in := range inputs {
		if in.ID == nil {
			q := buildQuestion(in)
			q.QuizID = quizID
			if err := tx.Create(&q).Error; err != nil {
				return nil, fmt.Errorf("creating question: %w", err)
			}
			result = append(result, q)
			continue
		}

		current, ok := existingByID[*in.ID]
		if !ok {
			return nil, &apperr.ValidationError{Issues: []apperr.FieldIssue{
				{Index: i, Field: "id", Message: fmt.Sprintf("question %d does not belong to quiz %d", *in.ID, quizID)},
			}}
		}

		updated := buildQuestion(in)
		updated.ID = current.ID
		updated.QuizID = quizID
		updated.CreatedAt = current.CreatedAt
		if err := tx.Save(&updated).Error; err != nil {
			return nil, fmt.Errorf("updating question %d: %w", current.ID, err)
		}
		keep[current.ID] = struct{}{}
		result = append(result, updated)
	}

	// Questions absent from the new set are removed, unless answers exist:
	// historical attempts keep their questions.
	for _, q := range existing {
		if _, kept := keep[q.ID]; kept {
			continue
		}
		var answerCount int64
		if err := tx.Model(&model.Answer{}).Where("question_id = ?", q.ID).Count(&answerCount).Error; err != nil {
			return nil, fmt.Errorf("counting answers for question %d: %w", q.ID, err)
		}
		if answerCount > 0 {
			return nil, apperr.QuestionHasAnswers(q.ID)
		}
		if err := tx.Delete(&model.Question{}, q.ID).Error; err != nil {
			return nil, fmt.Errorf("deleting question %d: %w", q.ID, err)
		}
		log.Info().Uint("questionID", q.ID).Uint("quizID", quizID).Msg("Question removed during quiz edit")
	}

	return result, nil
}
