package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/lshigami/Bandicoots/internal/apperr"
	"github.com/lshigami/Bandicoots/internal/dto"
	"github.com/lshigami/Bandicoots/internal/model"
	"github.com/lshigami/Bandicoots/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newLedger(db *gorm.DB) *attemptLedger {
	return NewAttemptLedger(
		repository.NewQuizRepository(db),
		repository.NewQuestionRepository(db),
		repository.NewAttemptRepository(db),
		NewScoringEngine(),
		NewGradingReconciler(db),
		db,
	).(*attemptLedger)
}

func TestStartAttemptRequiresPublishedQuiz(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)
	quiz := seedQuiz(t, db, &model.Quiz{
		Title: "Draft quiz", Status: model.QuizStatusDraft, AuthorID: 1,
		PassThreshold: 50, TotalPoints: 10, MaxAttempts: 1,
	})

	_, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsPolicy(err))
}

func TestStartAttemptNumbersSequentially(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)
	quiz := mixedQuiz(t, db)

	first, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.AttemptNumber)

	// An in-progress attempt does not block starting another.
	second, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, second.AttemptNumber)

	// Numbering is per (user, quiz).
	otherUser, err := ledger.StartAttempt(learner(8), quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, otherUser.AttemptNumber)
}

func TestStartAttemptEnforcesMaxAttempts(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)
	quiz := seedQuiz(t, db, &model.Quiz{
		Title: "One shot", Status: model.QuizStatusPublished, AuthorID: 1,
		PassThreshold: 50, TotalPoints: 10, MaxAttempts: 1,
		Questions: []model.Question{{
			Type: model.QuestionTypeRadio, QuestionText: "Q", Points: 10,
			Options: []string{"A", "B"}, CorrectAnswer: []string{"A"}, OrderInQuiz: 1,
		}},
	})

	_, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)

	_, err = ledger.StartAttempt(learner(7), quiz.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsPolicy(err))
}

func TestStartAttemptEnforcesRetryDelay(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)
	quiz := seedQuiz(t, db, &model.Quiz{
		Title: "Delayed retries", Status: model.QuizStatusPublished, AuthorID: 1,
		PassThreshold: 50, TotalPoints: 10, MaxAttempts: 3, RetryDelayHours: 24,
		Questions: []model.Question{{
			Type: model.QuestionTypeRadio, QuestionText: "Q", Points: 10,
			Options: []string{"A", "B"}, CorrectAnswer: []string{"A"}, OrderInQuiz: 1,
		}},
	})

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return base }

	attempt, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)
	_, err = ledger.SubmitAttempt(learner(7), attempt.ID, dto.AttemptSubmitDTO{
		Answers: []dto.AnswerSubmitDTO{{QuestionID: quiz.Questions[0].ID, Selected: []string{"B"}}},
	})
	require.NoError(t, err)

	// 23h later: still inside the delay window.
	ledger.now = func() time.Time { return base.Add(23 * time.Hour) }
	_, err = ledger.StartAttempt(learner(7), quiz.ID)
	require.Error(t, err)
	var policy *apperr.PolicyViolation
	require.ErrorAs(t, err, &policy)
	assert.Equal(t, apperr.CodeRetryDelayNotElapsed, policy.Code)
	require.NotNil(t, policy.AvailableAt)
	assert.True(t, policy.AvailableAt.Equal(base.Add(24*time.Hour)))

	// 25h later: the window has passed.
	ledger.now = func() time.Time { return base.Add(25 * time.Hour) }
	retry, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, retry.AttemptNumber)
}

func TestSubmitAttemptScoresAndCompletes(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)
	quiz := mixedQuiz(t, db)

	attempt, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)

	submitted, err := ledger.SubmitAttempt(learner(7), attempt.ID, dto.AttemptSubmitDTO{
		Answers: []dto.AnswerSubmitDTO{
			{QuestionID: quiz.Questions[0].ID, Selected: []string{"Transport"}},
			{QuestionID: quiz.Questions[1].ID, Text: "SYN, SYN-ACK, ACK"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 10, submitted.Score)
	assert.Equal(t, 0, submitted.ManualScore)
	assert.Equal(t, 10, submitted.TotalScore)
	// 15 of 30 needed; the text answer is still worth up to 20.
	assert.False(t, submitted.Passed)
	require.NotNil(t, submitted.CompletedAt)

	var answers []model.Answer
	require.NoError(t, db.Where("attempt_id = ?", attempt.ID).Find(&answers).Error)
	require.Len(t, answers, 2)
}

func TestSubmitAttemptRejectsDoubleSubmission(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)
	quiz := mixedQuiz(t, db)

	attempt, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)

	submission := dto.AttemptSubmitDTO{
		Answers: []dto.AnswerSubmitDTO{{QuestionID: quiz.Questions[0].ID, Selected: []string{"Transport"}}},
	}
	_, err = ledger.SubmitAttempt(learner(7), attempt.ID, submission)
	require.NoError(t, err)

	_, err = ledger.SubmitAttempt(learner(7), attempt.ID, submission)
	require.Error(t, err)
	var policy *apperr.PolicyViolation
	require.ErrorAs(t, err, &policy)
	assert.Equal(t, apperr.CodeAttemptAlreadyCompleted, policy.Code)
}

func TestSubmitAttemptRejectsOtherUsers(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)
	quiz := mixedQuiz(t, db)

	attempt, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)

	_, err = ledger.SubmitAttempt(learner(8), attempt.ID, dto.AttemptSubmitDTO{
		Answers: []dto.AnswerSubmitDTO{{QuestionID: quiz.Questions[0].ID, Selected: []string{"Transport"}}},
	})
	assert.True(t, apperr.IsPolicy(err))
}

func TestSubmitAttemptSkipsUnknownQuestions(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)
	quiz := mixedQuiz(t, db)

	attempt, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)

	submitted, err := ledger.SubmitAttempt(learner(7), attempt.ID, dto.AttemptSubmitDTO{
		Answers: []dto.AnswerSubmitDTO{
			{QuestionID: quiz.Questions[0].ID, Selected: []string{"Transport"}},
			{QuestionID: 99999, Selected: []string{"A"}},
		},
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.Answer{}).Where("attempt_id = ?", submitted.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSubmitAttemptRejectsAllUnknownAnswers(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)
	quiz := mixedQuiz(t, db)

	attempt, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)

	_, err = ledger.SubmitAttempt(learner(7), attempt.ID, dto.AttemptSubmitDTO{
		Answers: []dto.AnswerSubmitDTO{{QuestionID: 99999, Selected: []string{"A"}}},
	})
	assert.True(t, apperr.IsValidation(err))
}

func TestSubmitAttemptLastAnswerPerQuestionWins(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)
	quiz := mixedQuiz(t, db)

	attempt, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)

	submitted, err := ledger.SubmitAttempt(learner(7), attempt.ID, dto.AttemptSubmitDTO{
		Answers: []dto.AnswerSubmitDTO{
			{QuestionID: quiz.Questions[0].ID, Selected: []string{"Network"}},
			{QuestionID: quiz.Questions[0].ID, Selected: []string{"Transport"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, submitted.Score)

	var count int64
	require.NoError(t, db.Model(&model.Answer{}).Where("attempt_id = ?", submitted.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSubmitAttemptAgainstPercentageThreshold(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)

	// Ten single-point questions, 80% threshold: 8 needed to pass.
	questions := make([]model.Question, 0, 10)
	for i := 1; i <= 10; i++ {
		questions = append(questions, model.Question{
			Type:          model.QuestionTypeRadio,
			QuestionText:  fmt.Sprintf("Question %d", i),
			Points:        1,
			Options:       []string{"right", "wrong"},
			CorrectAnswer: []string{"right"},
			OrderInQuiz:   i,
		})
	}
	quiz := seedQuiz(t, db, &model.Quiz{
		Title: "Percentage gate", Status: model.QuizStatusPublished, AuthorID: 1,
		PassThreshold: 80, TotalPoints: 10, MaxAttempts: 1,
		Questions: questions,
	})

	attempt, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)

	// 8 right, 2 wrong.
	answers := make([]dto.AnswerSubmitDTO, 0, 10)
	for i, q := range quiz.Questions {
		choice := "right"
		if i >= 8 {
			choice = "wrong"
		}
		answers = append(answers, dto.AnswerSubmitDTO{QuestionID: q.ID, Selected: []string{choice}})
	}

	submitted, err := ledger.SubmitAttempt(learner(7), attempt.ID, dto.AttemptSubmitDTO{Answers: answers})
	require.NoError(t, err)
	assert.Equal(t, 8, submitted.TotalScore)
	assert.True(t, submitted.Passed)
}

func TestCanStartAttemptReportsPolicyState(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)
	quiz := seedQuiz(t, db, &model.Quiz{
		Title: "Eligibility", Status: model.QuizStatusPublished, AuthorID: 1,
		PassThreshold: 50, TotalPoints: 10, MaxAttempts: 2, RetryDelayHours: 24,
		Questions: []model.Question{{
			Type: model.QuestionTypeRadio, QuestionText: "Q", Points: 10,
			Options: []string{"A", "B"}, CorrectAnswer: []string{"A"}, OrderInQuiz: 1,
		}},
	})

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return base }

	require.NoError(t, ledger.CanStartAttempt(7, quiz))

	attempt, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)
	_, err = ledger.SubmitAttempt(learner(7), attempt.ID, dto.AttemptSubmitDTO{
		Answers: []dto.AnswerSubmitDTO{{QuestionID: quiz.Questions[0].ID, Selected: []string{"A"}}},
	})
	require.NoError(t, err)

	// Inside the retry window.
	ledger.now = func() time.Time { return base.Add(time.Hour) }
	err = ledger.CanStartAttempt(7, quiz)
	var policy *apperr.PolicyViolation
	require.ErrorAs(t, err, &policy)
	assert.Equal(t, apperr.CodeRetryDelayNotElapsed, policy.Code)
	require.NotNil(t, policy.AvailableAt)
	assert.True(t, policy.AvailableAt.Equal(base.Add(24*time.Hour)))

	// Past the window: the second and last attempt may start.
	ledger.now = func() time.Time { return base.Add(25 * time.Hour) }
	require.NoError(t, ledger.CanStartAttempt(7, quiz))
	_, err = ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)

	err = ledger.CanStartAttempt(7, quiz)
	require.ErrorAs(t, err, &policy)
	assert.Equal(t, apperr.CodeAttemptLimitExceeded, policy.Code)
}

func TestStartAttemptRetriesOnceOnNumberCollision(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)
	quiz := mixedQuiz(t, db)

	require.NoError(t, db.Create(&model.Attempt{
		QuizID: quiz.ID, UserID: 7, AttemptNumber: 1, StartedAt: time.Now(),
	}).Error)

	// Force the first insert onto the taken number, as if a concurrent start
	// won the race after this one read MAX(attempt_number).
	collisions := 1
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test_number_collision", func(d *gorm.DB) {
		attempt, ok := d.Statement.Dest.(*model.Attempt)
		if !ok || collisions == 0 {
			return
		}
		collisions--
		attempt.AttemptNumber = 1
	}))

	started, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, started.AttemptNumber)

	var numbers []int
	require.NoError(t, db.Model(&model.Attempt{}).
		Where("user_id = ? AND quiz_id = ?", 7, quiz.ID).
		Order("attempt_number ASC").
		Pluck("attempt_number", &numbers).Error)
	assert.Equal(t, []int{1, 2}, numbers)
}

func TestStartAttemptGivesUpAfterRepeatedCollisions(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)
	quiz := mixedQuiz(t, db)

	require.NoError(t, db.Create(&model.Attempt{
		QuizID: quiz.ID, UserID: 7, AttemptNumber: 1, StartedAt: time.Now(),
	}).Error)

	collisions := 2
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test_number_collision", func(d *gorm.DB) {
		attempt, ok := d.Statement.Dest.(*model.Attempt)
		if !ok || collisions == 0 {
			return
		}
		collisions--
		attempt.AttemptNumber = 1
	}))

	_, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsIntegrity(err))

	var count int64
	require.NoError(t, db.Model(&model.Attempt{}).
		Where("user_id = ? AND quiz_id = ?", 7, quiz.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSubmitAttemptDetectsCompletionDuringSubmit(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)
	quiz := mixedQuiz(t, db)

	attempt, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)

	// Complete the attempt behind the submit's initial read, as a concurrent
	// request committing between the read and the write transaction would.
	fired := false
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test_complete_behind_read", func(d *gorm.DB) {
		if fired || d.Error != nil {
			return
		}
		if _, ok := d.Statement.Dest.(*model.Attempt); !ok {
			return
		}
		fired = true
		d.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE attempts SET completed_at = ? WHERE id = ?", time.Now(), attempt.ID)
	}))

	_, err = ledger.SubmitAttempt(learner(7), attempt.ID, dto.AttemptSubmitDTO{
		Answers: []dto.AnswerSubmitDTO{{QuestionID: quiz.Questions[0].ID, Selected: []string{"Transport"}}},
	})
	require.Error(t, err)
	var policy *apperr.PolicyViolation
	require.ErrorAs(t, err, &policy)
	assert.Equal(t, apperr.CodeAttemptAlreadyCompleted, policy.Code)
}

func TestSubmitAttemptTranslatesDuplicateAnswerRows(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(db)
	quiz := mixedQuiz(t, db)

	attempt, err := ledger.StartAttempt(learner(7), quiz.ID)
	require.NoError(t, err)

	// Slip a competing answer row in just before the insert; the loser of a
	// concurrent double submit lands on the (attempt_id, question_id) index.
	fired := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test_concurrent_answers", func(d *gorm.DB) {
		rows, ok := d.Statement.Dest.(*[]model.Answer)
		if !ok || fired || len(*rows) == 0 {
			return
		}
		fired = true
		first := (*rows)[0]
		d.Session(&gorm.Session{NewDB: true}).
			Exec("INSERT INTO answers (attempt_id, question_id, points_earned, created_at, updated_at) VALUES (?, ?, 0, ?, ?)",
				first.AttemptID, first.QuestionID, time.Now(), time.Now())
	}))

	submission := dto.AttemptSubmitDTO{
		Answers: []dto.AnswerSubmitDTO{{QuestionID: quiz.Questions[0].ID, Selected: []string{"Transport"}}},
	}
	_, err = ledger.SubmitAttempt(learner(7), attempt.ID, submission)
	require.Error(t, err)
	var policy *apperr.PolicyViolation
	require.ErrorAs(t, err, &policy)
	assert.Equal(t, apperr.CodeAttemptAlreadyCompleted, policy.Code)

	// The failed transaction left no partial state behind.
	submitted, err := ledger.SubmitAttempt(learner(7), attempt.ID, submission)
	require.NoError(t, err)
	assert.Equal(t, 10, submitted.Score)
}
