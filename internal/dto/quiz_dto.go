package dto

// QuestionInput is one question inside a quiz create/update request. ID is
// set on update to edit an existing question in place; new questions leave
// it nil.
type QuestionInput struct {
	ID            *uint    `json:"id"`
	Type          string   `json:"type" binding:"required,oneof=radio checkbox text"`
	QuestionText  string   `json:"question_text" binding:"required"`
	Points        int      `json:"points"`
	Options       []string `json:"options"`
	CorrectAnswer []string `json:"correct_answer"`
	Explanation   string   `json:"correct_answer_explanation"`
	Order         int      `json:"order" binding:"required,min=1"`
}

// QuizCreateDTO creates a quiz together with its questions.
type QuizCreateDTO struct {
	Title              string          `json:"title" binding:"required"`
	Description        string          `json:"description"`
	Status             string          `json:"status" binding:"omitempty,oneof=draft published archived"`
	PassThreshold      int             `json:"pass_threshold" binding:"min=0,max=100"`
	IsModuleQuiz       bool            `json:"is_module_quiz"`
	RequiredToProceed  bool            `json:"required_to_proceed"`
	MaxAttempts        int             `json:"max_attempts" binding:"omitempty,min=1"`
	RetryDelayHours    int             `json:"retry_delay_hours" binding:"omitempty,min=0"`
	ShowCorrectAnswers string          `json:"show_correct_answers" binding:"omitempty,oneof=never after_pass after_max_attempts always"`
	TimeLimitMinutes   *int            `json:"time_limit_minutes" binding:"omitempty,min=1"`
	Questions          []QuestionInput `json:"questions" binding:"required,min=1,dive"`
}

// QuizUpdateDTO mirrors QuizCreateDTO; the full question set is replaced
// per the in-place update / create / protected-delete rules.
type QuizUpdateDTO = QuizCreateDTO

// ModuleUpsertDTO maintains a module's quiz binding for the gate.
type ModuleUpsertDTO struct {
	ID           *uint  `json:"id"`
	CourseID     uint   `json:"course_id" binding:"required"`
	Title        string `json:"title" binding:"required"`
	Position     int    `json:"position" binding:"omitempty,min=1"`
	QuizID       *uint  `json:"quiz_id"`
	QuizRequired bool   `json:"quiz_required"`
}
