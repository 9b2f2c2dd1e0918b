package service

import (
	"github.com/lshigami/Bandicoots/internal/model"
)

// ScoreResult is the outcome of scoring one answer. IsCorrect is nil for
// text answers, which stay ungraded until a grader intervenes.
type ScoreResult struct {
	IsCorrect    *bool
	PointsEarned int
}

// ScoringEngine auto-grades submitted answers. It is pure and stateless:
// the same question and value always produce the same result.
type ScoringEngine interface {
	Score(question model.Question, value model.AnswerValue) ScoreResult
	ScoreAttempt(questions map[uint]model.Question, answers []model.Answer) int
}

type scoringEngine struct{}

func NewScoringEngine() ScoringEngine {
	return &scoringEngine{}
}

func (scoringEngine) Score(question model.Question, value model.AnswerValue) ScoreResult {
	switch question.Type {
	case model.QuestionTypeRadio:
		// Full points or zero, no partial credit.
		correct := len(question.CorrectAnswer) == 1 &&
			model.NormalizeOption(value.Single) == model.NormalizeOption(question.CorrectAnswer[0])
		return graded(correct, question.Points)

	case model.QuestionTypeCheckbox:
		// Exact set match. A subset of the correct options earns zero.
		correct := model.SetsEqual(value.Multiple, question.CorrectAnswer)
		return graded(correct, question.Points)

	default:
		// Text is never auto-scored.
		return ScoreResult{IsCorrect: nil, PointsEarned: 0}
	}
}

// ScoreAttempt sums auto-graded points over all answers whose question is
// auto-gradable.
func (scoringEngine) ScoreAttempt(questions map[uint]model.Question, answers []model.Answer) int {
	total := 0
	for _, ans := range answers {
		q, ok := questions[ans.QuestionID]
		if !ok || !q.Type.AutoGraded() {
			continue
		}
		total += ans.PointsEarned
	}
	return total
}

func graded(correct bool, points int) ScoreResult {
	earned := 0
	if correct {
		earned = points
	}
	return ScoreResult{IsCorrect: &correct, PointsEarned: earned}
}
