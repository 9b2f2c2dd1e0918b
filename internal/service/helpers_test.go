package service

import (
	"testing"
	"time"

	"github.com/lshigami/Bandicoots/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database. TranslateError matches the
// production config; the attempt ledger depends on gorm.ErrDuplicatedKey.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A pooled second connection would see its own empty :memory: database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Quiz{},
		&model.Question{},
		&model.Attempt{},
		&model.Answer{},
		&model.CourseModule{},
	))
	return db
}

func seedQuiz(t *testing.T, db *gorm.DB, quiz *model.Quiz) *model.Quiz {
	t.Helper()
	require.NoError(t, db.Create(quiz).Error)
	return quiz
}

// mixedQuiz is the grading fixture: one 10-point radio question and one
// 20-point text question, pass threshold 50% of 30 points.
func mixedQuiz(t *testing.T, db *gorm.DB) *model.Quiz {
	t.Helper()
	return seedQuiz(t, db, &model.Quiz{
		Title:         "Networking basics",
		Status:        model.QuizStatusPublished,
		AuthorID:      1,
		PassThreshold: 50,
		TotalPoints:   30,
		MaxAttempts:   3,
		Questions: []model.Question{
			{
				Type:          model.QuestionTypeRadio,
				QuestionText:  "Which layer does TCP live on?",
				Points:        10,
				Options:       []string{"Transport", "Network", "Application"},
				CorrectAnswer: []string{"Transport"},
				OrderInQuiz:   1,
			},
			{
				Type:         model.QuestionTypeText,
				QuestionText: "Explain the three-way handshake.",
				Points:       20,
				OrderInQuiz:  2,
			},
		},
	})
}

func learner(id uint) model.Actor {
	return model.Actor{UserID: id, Role: model.RoleLearner}
}

func instructor(id uint) model.Actor {
	return model.Actor{UserID: id, Role: model.RoleInstructor}
}

// stubNotifier records events and returns a fixed delivery status.
type stubNotifier struct {
	status string
	events []AttemptEvent
}

func (n *stubNotifier) Notify(event AttemptEvent) string {
	n.events = append(n.events, event)
	return n.status
}

func ptrTime(t time.Time) *time.Time { return &t }
