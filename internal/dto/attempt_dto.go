package dto

// AnswerSubmitDTO carries the learner's value for one question. Selected is
// used for radio (one entry) and checkbox (any number); Text for free-text.
type AnswerSubmitDTO struct {
	QuestionID uint     `json:"question_id" binding:"required"`
	Selected   []string `json:"selected"`
	Text       string   `json:"text"`
}

// AttemptSubmitDTO submits all answers for an in-progress attempt.
type AttemptSubmitDTO struct {
	Answers []AnswerSubmitDTO `json:"answers" binding:"required,min=1,dive"`
}

// ManualGradeDTO assigns points to one free-text answer.
type ManualGradeDTO struct {
	AnswerID uint `json:"answer_id" binding:"required"`
	Points   int  `json:"points" binding:"min=0"`
}

// GradeAttemptDTO carries a grader's points for an attempt's text answers.
// Re-submitting the same grades yields the same final state.
type GradeAttemptDTO struct {
	Grades []ManualGradeDTO `json:"grades" binding:"required,min=1,dive"`
}
