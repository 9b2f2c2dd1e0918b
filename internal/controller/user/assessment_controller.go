package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Bandicoots/internal/auth"
	"github.com/lshigami/Bandicoots/internal/controller"
	"github.com/lshigami/Bandicoots/internal/dto"
	"github.com/lshigami/Bandicoots/internal/service"
	"github.com/rs/zerolog/log"
)

// AssessmentController exposes the learner-facing surface: quiz browsing,
// attempt lifecycle and module gate checks.
type AssessmentController struct {
	assessmentService service.AssessmentService
	queryService      service.QuizQueryService
}

func NewAssessmentController(
	assessmentService service.AssessmentService,
	queryService service.QuizQueryService,
) *AssessmentController {
	return &AssessmentController{
		assessmentService: assessmentService,
		queryService:      queryService,
	}
}

// ListQuizzes godoc
// @Summary List quizzes
// @Tags Quizzes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.QuizSummaryDTO
// @Failure 500 {object} dto.ErrorResponse
// @Router /quizzes [get]
func (ctrl *AssessmentController) ListQuizzes(c *gin.Context) {
	quizzes, err := ctrl.queryService.ListQuizzes()
	if err != nil {
		log.Error().Err(err).Msg("ListQuizzes failed")
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

// GetQuiz godoc
// @Summary Get a quiz with its questions
// @Description Correct answers are included only when the reveal policy grants them to the caller.
// @Tags Quizzes
// @Produce json
// @Security BearerAuth
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {object} dto.QuizResponseDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /quizzes/{quiz_id} [get]
func (ctrl *AssessmentController) GetQuiz(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return
	}
	quizID, ok := controller.ParseUintParam(c, "quiz_id")
	if !ok {
		return
	}

	quiz, err := ctrl.queryService.GetQuiz(actor, quizID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// CheckAttemptEligibility godoc
// @Summary Check whether the caller may start a new attempt
// @Description Evaluates the max-attempt and retry-delay policies without opening an attempt. A closed answer is reported in the body, not as an error.
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {object} dto.AttemptEligibilityDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /quizzes/{quiz_id}/attempt-eligibility [get]
func (ctrl *AssessmentController) CheckAttemptEligibility(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return
	}
	quizID, ok := controller.ParseUintParam(c, "quiz_id")
	if !ok {
		return
	}

	resp, err := ctrl.assessmentService.CheckAttemptEligibility(actor, quizID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StartAttempt godoc
// @Summary Start a new attempt on a quiz
// @Description Enforces the max-attempt and retry-delay policies and assigns the next attempt number atomically.
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param quiz_id path int true "Quiz ID"
// @Success 201 {object} dto.StartAttemptResponseDTO
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Attempt limit reached or retry delay not elapsed"
// @Router /quizzes/{quiz_id}/attempts [post]
func (ctrl *AssessmentController) StartAttempt(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return
	}
	quizID, ok := controller.ParseUintParam(c, "quiz_id")
	if !ok {
		return
	}

	resp, err := ctrl.assessmentService.StartAttempt(actor, quizID)
	if err != nil {
		log.Warn().Err(err).Uint("quizID", quizID).Uint("userID", actor.UserID).Msg("StartAttempt rejected")
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// SubmitAttempt godoc
// @Summary Submit answers for an in-progress attempt
// @Description Auto-grades radio and checkbox answers, computes the provisional pass status, and completes the attempt.
// @Tags Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param submission body dto.AttemptSubmitDTO true "Answers"
// @Success 200 {object} dto.AttemptResultDTO
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Attempt already completed"
// @Router /attempts/{attempt_id}/submission [post]
func (ctrl *AssessmentController) SubmitAttempt(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return
	}
	attemptID, ok := controller.ParseUintParam(c, "attempt_id")
	if !ok {
		return
	}

	var req dto.AttemptSubmitDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("SubmitAttempt: failed to bind request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := ctrl.assessmentService.SubmitAttempt(actor, attemptID, req)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("SubmitAttempt: service error")
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetAttempt godoc
// @Summary Get one attempt with its per-answer breakdown
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptDetailDTO
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id} [get]
func (ctrl *AssessmentController) GetAttempt(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return
	}
	attemptID, ok := controller.ParseUintParam(c, "attempt_id")
	if !ok {
		return
	}

	resp, err := ctrl.queryService.GetAttemptDetails(actor, attemptID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMyAttempts godoc
// @Summary List the caller's attempts for a quiz
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {array} dto.AttemptSummaryDTO
// @Failure 500 {object} dto.ErrorResponse
// @Router /quizzes/{quiz_id}/my-attempts [get]
func (ctrl *AssessmentController) ListMyAttempts(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return
	}
	quizID, ok := controller.ParseUintParam(c, "quiz_id")
	if !ok {
		return
	}

	resp, err := ctrl.queryService.ListUserAttempts(actor, quizID, actor.UserID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CheckModuleGate godoc
// @Summary Check whether the caller may advance past a module
// @Description Recomputed on every call; manual grading of an earlier attempt can flip the outcome.
// @Tags Modules
// @Produce json
// @Security BearerAuth
// @Param module_id path int true "Module ID"
// @Success 200 {object} dto.ModuleGateDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /modules/{module_id}/gate [get]
func (ctrl *AssessmentController) CheckModuleGate(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return
	}
	moduleID, ok := controller.ParseUintParam(c, "module_id")
	if !ok {
		return
	}

	resp, err := ctrl.assessmentService.CheckModuleGate(actor.UserID, moduleID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListModules godoc
// @Summary List a course's modules and their quiz bindings
// @Tags Modules
// @Produce json
// @Security BearerAuth
// @Param course_id path int true "Course ID"
// @Success 200 {array} dto.ModuleResponseDTO
// @Failure 500 {object} dto.ErrorResponse
// @Router /courses/{course_id}/modules [get]
func (ctrl *AssessmentController) ListModules(c *gin.Context) {
	courseID, ok := controller.ParseUintParam(c, "course_id")
	if !ok {
		return
	}

	resp, err := ctrl.queryService.ListModules(courseID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
