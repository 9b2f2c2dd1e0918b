package service

import (
	"errors"
	"testing"
	"time"

	"github.com/lshigami/Bandicoots/internal/apperr"
	"github.com/lshigami/Bandicoots/internal/dto"
	"github.com/lshigami/Bandicoots/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func validRadioInput(order int) dto.QuestionInput {
	return dto.QuestionInput{
		Type:          "radio",
		QuestionText:  "Pick one",
		Points:        5,
		Options:       []string{"A", "B"},
		CorrectAnswer: []string{"A"},
		Order:         order,
	}
}

func TestValidateAcceptsWellFormedQuestions(t *testing.T) {
	bank := NewQuestionBankService()

	err := bank.Validate([]dto.QuestionInput{
		validRadioInput(1),
		{
			Type:          "checkbox",
			QuestionText:  "Pick many",
			Points:        4,
			Options:       []string{"A", "B", "C"},
			CorrectAnswer: []string{"A", "C"},
			Order:         2,
		},
		{Type: "text", QuestionText: "Explain", Points: 10, Order: 3},
	})
	assert.NoError(t, err)
}

func TestValidateCollectsEveryIssue(t *testing.T) {
	bank := NewQuestionBankService()

	err := bank.Validate([]dto.QuestionInput{
		{Type: "radio", QuestionText: "", Points: 0, Options: []string{"A"}, CorrectAnswer: nil, Order: 1},
		{Type: "checkbox", QuestionText: "Pick", Points: 3, Options: []string{"A", "B"}, CorrectAnswer: []string{"Z"}, Order: 1},
		{Type: "text", QuestionText: "Essay", Points: -1, Order: 0},
	})
	require.Error(t, err)

	var validation *apperr.ValidationError
	require.True(t, errors.As(err, &validation))

	byField := map[string]int{}
	for _, issue := range validation.Issues {
		byField[issue.Field]++
	}
	// Question 0: empty text, zero points, one option, empty correct answer.
	// Question 1: duplicate order, correct answer not among options.
	// Question 2: negative points, non-positive order.
	assert.Equal(t, 1, byField["question_text"])
	assert.Equal(t, 2, byField["points"])
	assert.Equal(t, 1, byField["options"])
	assert.Equal(t, 2, byField["correct_answer"])
	assert.Equal(t, 2, byField["order"])
}

func TestValidateRadioRequiresExactlyOneCorrectAnswer(t *testing.T) {
	bank := NewQuestionBankService()

	in := validRadioInput(1)
	in.CorrectAnswer = []string{"A", "B"}
	err := bank.Validate([]dto.QuestionInput{in})

	var validation *apperr.ValidationError
	require.True(t, errors.As(err, &validation))
	require.Len(t, validation.Issues, 1)
	assert.Equal(t, "correct_answer", validation.Issues[0].Field)
}

func TestBuildQuestionsDropsOptionsForText(t *testing.T) {
	bank := NewQuestionBankService()

	questions := bank.BuildQuestions([]dto.QuestionInput{
		{Type: "text", QuestionText: "Essay", Points: 10, Order: 1,
			Options: []string{"stray"}, CorrectAnswer: []string{"stray"}},
	})
	require.Len(t, questions, 1)
	assert.Empty(t, questions[0].Options)
	assert.Empty(t, questions[0].CorrectAnswer)
}

func TestTotalPointsCountsEveryQuestionType(t *testing.T) {
	bank := NewQuestionBankService()

	total := bank.TotalPoints([]model.Question{
		{Type: model.QuestionTypeRadio, Points: 10},
		{Type: model.QuestionTypeCheckbox, Points: 5},
		{Type: model.QuestionTypeText, Points: 20},
	})
	assert.Equal(t, 35, total)
}

func TestReplaceQuestionsUpdatesInPlace(t *testing.T) {
	db := newTestDB(t)
	bank := NewQuestionBankService()
	quiz := mixedQuiz(t, db)
	radioID := quiz.Questions[0].ID

	inputs := []dto.QuestionInput{
		{
			ID:            &radioID,
			Type:          "radio",
			QuestionText:  "Which layer does UDP live on?",
			Points:        15,
			Options:       []string{"Transport", "Network"},
			CorrectAnswer: []string{"Transport"},
			Order:         1,
		},
		{Type: "text", QuestionText: "New essay", Points: 5, Order: 2},
	}

	var result []model.Question
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = bank.ReplaceQuestions(tx, quiz.ID, inputs)
		return err
	})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, radioID, result[0].ID)
	assert.Equal(t, 15, result[0].Points)

	var remaining []model.Question
	require.NoError(t, db.Where("quiz_id = ?", quiz.ID).Find(&remaining).Error)
	assert.Len(t, remaining, 2)
}

func TestReplaceQuestionsProtectsAnsweredQuestions(t *testing.T) {
	db := newTestDB(t)
	bank := NewQuestionBankService()
	quiz := mixedQuiz(t, db)

	attempt := model.Attempt{QuizID: quiz.ID, UserID: 7, AttemptNumber: 1, StartedAt: time.Now()}
	require.NoError(t, db.Create(&attempt).Error)
	answer := model.Answer{AttemptID: attempt.ID, QuestionID: quiz.Questions[0].ID}
	require.NoError(t, db.Create(&answer).Error)

	// The new set omits the answered radio question.
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := bank.ReplaceQuestions(tx, quiz.ID, []dto.QuestionInput{
			{Type: "text", QuestionText: "Only question left", Points: 5, Order: 1},
		})
		return err
	})
	require.Error(t, err)
	assert.True(t, apperr.IsIntegrity(err))

	// The rejected edit must not have deleted anything.
	var count int64
	require.NoError(t, db.Model(&model.Question{}).Where("quiz_id = ?", quiz.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestReplaceQuestionsRejectsForeignQuestionID(t *testing.T) {
	db := newTestDB(t)
	bank := NewQuestionBankService()
	quiz := mixedQuiz(t, db)
	other := mixedQuiz(t, db)
	foreignID := other.Questions[0].ID

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := bank.ReplaceQuestions(tx, quiz.ID, []dto.QuestionInput{
			{
				ID:            &foreignID,
				Type:          "radio",
				QuestionText:  "Hijacked",
				Points:        5,
				Options:       []string{"A", "B"},
				CorrectAnswer: []string{"A"},
				Order:         1,
			},
		})
		return err
	})
	assert.True(t, apperr.IsValidation(err))
}
