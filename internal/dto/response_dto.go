package dto

import "time"

// ErrorResponse is the uniform error body. Details carries per-field
// validation issues when present.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// QuestionResponseDTO is a question as shown to clients. CorrectAnswer and
// Explanation are cleared unless the reveal policy grants them.
type QuestionResponseDTO struct {
	ID            uint     `json:"id"`
	QuizID        uint     `json:"quiz_id"`
	Type          string   `json:"type"`
	QuestionText  string   `json:"question_text"`
	Points        int      `json:"points"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer []string `json:"correct_answer,omitempty"`
	Explanation   string   `json:"correct_answer_explanation,omitempty"`
	OrderInQuiz   int      `json:"order"`
}

type QuizResponseDTO struct {
	ID                 uint                  `json:"id"`
	Title              string                `json:"title"`
	Description        string                `json:"description,omitempty"`
	Status             string                `json:"status"`
	AuthorID           uint                  `json:"author_id"`
	PassThreshold      int                   `json:"pass_threshold"`
	TotalPoints        int                   `json:"total_points"`
	IsModuleQuiz       bool                  `json:"is_module_quiz"`
	RequiredToProceed  bool                  `json:"required_to_proceed"`
	MaxAttempts        int                   `json:"max_attempts"`
	RetryDelayHours    int                   `json:"retry_delay_hours"`
	ShowCorrectAnswers string                `json:"show_correct_answers"`
	TimeLimitMinutes   *int                  `json:"time_limit_minutes,omitempty"`
	Questions          []QuestionResponseDTO `json:"questions,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
}

type QuizSummaryDTO struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Status        string    `json:"status"`
	TotalPoints   int       `json:"total_points"`
	PassThreshold int       `json:"pass_threshold"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// AnswerResponseDTO is one answer within an attempt detail.
type AnswerResponseDTO struct {
	ID           uint                `json:"id"`
	QuestionID   uint                `json:"question_id"`
	Question     QuestionResponseDTO `json:"question,omitempty"`
	Selected     []string            `json:"selected,omitempty"`
	Text         string              `json:"text,omitempty"`
	IsCorrect    *bool               `json:"is_correct"`
	PointsEarned int                 `json:"points_earned"`
}

// AttemptEligibilityDTO reports whether the caller may open a new attempt
// right now. Reason carries the policy code when they may not.
type AttemptEligibilityDTO struct {
	QuizID       uint       `json:"quiz_id"`
	CanStart     bool       `json:"can_start"`
	Reason       string     `json:"reason,omitempty"`
	AvailableAt  *time.Time `json:"available_at,omitempty"`
	AttemptsUsed int        `json:"attempts_used"`
	MaxAttempts  int        `json:"max_attempts"`
}

// StartAttemptResponseDTO is returned when an attempt is opened.
type StartAttemptResponseDTO struct {
	AttemptID        uint      `json:"attempt_id"`
	AttemptNumber    int       `json:"attempt_number"`
	StartedAt        time.Time `json:"started_at"`
	TimeLimitMinutes *int      `json:"time_limit_minutes,omitempty"`
}

// AttemptResultDTO is returned by submit and grade operations.
// NotificationStatus reports the fire-and-forget event delivery outcome;
// it never affects the scores.
type AttemptResultDTO struct {
	AttemptID          uint   `json:"attempt_id"`
	AttemptNumber      int    `json:"attempt_number"`
	Score              int    `json:"score"`
	ManualScore        int    `json:"manual_score"`
	TotalScore         int    `json:"total_score"`
	Passed             bool   `json:"passed"`
	PendingManual      bool   `json:"pending_manual_grading"`
	NotificationStatus string `json:"notification_status,omitempty"`
}

type AttemptDetailDTO struct {
	ID            uint                `json:"id"`
	QuizID        uint                `json:"quiz_id"`
	QuizTitle     string              `json:"quiz_title,omitempty"`
	UserID        uint                `json:"user_id"`
	AttemptNumber int                 `json:"attempt_number"`
	StartedAt     time.Time           `json:"started_at"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	Score         int                 `json:"score"`
	ManualScore   int                 `json:"manual_score"`
	TotalScore    int                 `json:"total_score"`
	Passed        bool                `json:"passed"`
	Answers       []AnswerResponseDTO `json:"answers,omitempty"`
}

type AttemptSummaryDTO struct {
	ID            uint       `json:"id"`
	QuizID        uint       `json:"quiz_id"`
	UserID        uint       `json:"user_id"`
	AttemptNumber int        `json:"attempt_number"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	TotalScore    int        `json:"total_score"`
	Passed        bool       `json:"passed"`
}

// ModuleGateDTO is the recomputed gate decision for (user, module).
type ModuleGateDTO struct {
	ModuleID      uint               `json:"module_id"`
	UserID        uint               `json:"user_id"`
	HasQuiz       bool               `json:"has_quiz"`
	QuizRequired  bool               `json:"quiz_required"`
	CanProceed    bool               `json:"can_proceed"`
	LatestAttempt *AttemptSummaryDTO `json:"latest_qualifying_attempt,omitempty"`
	RevealAnswers bool               `json:"reveal_answers"`
	AttemptsUsed  int                `json:"attempts_used"`
	MaxAttempts   int                `json:"max_attempts,omitempty"`
}

type ModuleResponseDTO struct {
	ID           uint   `json:"id"`
	CourseID     uint   `json:"course_id"`
	Title        string `json:"title"`
	Position     int    `json:"position"`
	QuizID       *uint  `json:"quiz_id,omitempty"`
	QuizRequired bool   `json:"quiz_required"`
}

// DeleteResultDTO reports a delete outcome. Deleting an in-use quiz is a
// no-op with a message rather than a hard failure.
type DeleteResultDTO struct {
	Deleted bool   `json:"deleted"`
	Message string `json:"message,omitempty"`
}
