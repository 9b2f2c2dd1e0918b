// Package apperr holds the engine's error taxonomy. Validation and policy
// errors are expected, actionable outcomes and are surfaced to callers
// verbatim; integrity errors protect historical data.
package apperr

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// FieldIssue points at one offending field of one authoring input.
type FieldIssue struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every issue found in an authoring request, so
// authors see all problems at once rather than one-at-a-time.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = fmt.Sprintf("question %d: %s: %s", issue.Index, issue.Field, issue.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Validation() {}

// Policy violation codes.
const (
	CodeAttemptLimitExceeded    = "attempt_limit_exceeded"
	CodeRetryDelayNotElapsed    = "retry_delay_not_elapsed"
	CodeAttemptAlreadyCompleted = "attempt_already_completed"
	CodeQuizNotPublished        = "quiz_not_published"
	CodeForbidden               = "forbidden"
)

// PolicyViolation is a business-rule rejection, not a bug.
type PolicyViolation struct {
	Code    string
	Message string
	// AvailableAt is set for retry_delay_not_elapsed.
	AvailableAt *time.Time
}

func (e *PolicyViolation) Error() string { return e.Message }

func (e *PolicyViolation) Policy() {}

func AttemptLimitExceeded(max int) *PolicyViolation {
	return &PolicyViolation{
		Code:    CodeAttemptLimitExceeded,
		Message: fmt.Sprintf("attempt limit of %d reached", max),
	}
}

func RetryDelayNotElapsed(availableAt time.Time) *PolicyViolation {
	return &PolicyViolation{
		Code:        CodeRetryDelayNotElapsed,
		Message:     fmt.Sprintf("retry delay not elapsed, next attempt available at %s", availableAt.UTC().Format(time.RFC3339)),
		AvailableAt: &availableAt,
	}
}

func AttemptAlreadyCompleted(attemptID uint) *PolicyViolation {
	return &PolicyViolation{
		Code:    CodeAttemptAlreadyCompleted,
		Message: fmt.Sprintf("attempt %d is already completed", attemptID),
	}
}

func QuizNotPublished(quizID uint) *PolicyViolation {
	return &PolicyViolation{
		Code:    CodeQuizNotPublished,
		Message: fmt.Sprintf("quiz %d is not published", quizID),
	}
}

func Forbidden(action string) *PolicyViolation {
	return &PolicyViolation{
		Code:    CodeForbidden,
		Message: "actor is not allowed to " + action,
	}
}

// Integrity codes.
const (
	CodeAnswerAttemptMismatch = "answer_attempt_mismatch"
	CodeHasAttempts           = "quiz_has_attempts"
	CodeQuestionHasAnswers    = "question_has_answers"
	CodeDuplicateAttempt      = "duplicate_attempt_number"
)

// IntegrityError protects historical attempt data.
type IntegrityError struct {
	Code    string
	Message string
}

func (e *IntegrityError) Error() string { return e.Message }

func (e *IntegrityError) Integrity() {}

func AnswerAttemptMismatch(answerID, attemptID uint) *IntegrityError {
	return &IntegrityError{
		Code:    CodeAnswerAttemptMismatch,
		Message: fmt.Sprintf("answer %d does not belong to attempt %d", answerID, attemptID),
	}
}

func HasAttempts(quizID uint) *IntegrityError {
	return &IntegrityError{
		Code:    CodeHasAttempts,
		Message: fmt.Sprintf("quiz %d has recorded attempts and cannot be deleted", quizID),
	}
}

func QuestionHasAnswers(questionID uint) *IntegrityError {
	return &IntegrityError{
		Code:    CodeQuestionHasAnswers,
		Message: fmt.Sprintf("question %d has submitted answers and cannot be removed", questionID),
	}
}

func DuplicateAttempt(userID, quizID uint) *IntegrityError {
	return &IntegrityError{
		Code:    CodeDuplicateAttempt,
		Message: fmt.Sprintf("could not assign a unique attempt number for user %d on quiz %d", userID, quizID),
	}
}

// NotFoundError identifies a missing resource.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) NotFound() {}

func NewNotFound(resource string, id uint) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// Predicates used by controllers to map errors to HTTP statuses.

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsPolicy(err error) bool {
	var p *PolicyViolation
	return errors.As(err, &p)
}

func IsIntegrity(err error) bool {
	var i *IntegrityError
	return errors.As(err, &i)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}
