package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Bandicoots/internal/auth"
	"github.com/lshigami/Bandicoots/internal/controller"
	"github.com/lshigami/Bandicoots/internal/dto"
	"github.com/lshigami/Bandicoots/internal/service"
	"github.com/rs/zerolog/log"
)

// QuizAdminController exposes quiz authoring, grading and module-binding
// endpoints. All routes sit behind the instructor/admin role middleware.
type QuizAdminController struct {
	assessmentService service.AssessmentService
}

func NewQuizAdminController(assessmentService service.AssessmentService) *QuizAdminController {
	return &QuizAdminController{assessmentService: assessmentService}
}

// CreateQuiz godoc
// @Summary (Admin) Create a quiz with its questions
// @Description Creates a quiz and its full question set. Question validation reports every issue at once.
// @Tags Admin - Quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quiz body dto.QuizCreateDTO true "Quiz data including all questions"
// @Success 201 {object} dto.QuizResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 403 {object} dto.ErrorResponse
// @Router /admin/quizzes [post]
func (ctrl *QuizAdminController) CreateQuiz(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.QuizCreateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("CreateQuiz: failed to bind request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := ctrl.assessmentService.CreateQuiz(actor, req)
	if err != nil {
		log.Error().Err(err).Msg("CreateQuiz: service error")
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdateQuiz godoc
// @Summary (Admin) Update a quiz and replace its question set
// @Description Questions with a matching id are edited in place, new ones created, absent ones deleted unless they already have answers.
// @Tags Admin - Quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quiz_id path int true "Quiz ID"
// @Param quiz body dto.QuizUpdateDTO true "Quiz data"
// @Success 200 {object} dto.QuizResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "A removed question already has answers"
// @Router /admin/quizzes/{quiz_id} [put]
func (ctrl *QuizAdminController) UpdateQuiz(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return
	}
	quizID, ok := controller.ParseUintParam(c, "quiz_id")
	if !ok {
		return
	}

	var req dto.QuizUpdateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := ctrl.assessmentService.UpdateQuiz(actor, quizID, req)
	if err != nil {
		log.Error().Err(err).Uint("quizID", quizID).Msg("UpdateQuiz: service error")
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteQuiz godoc
// @Summary (Admin) Delete a quiz
// @Description Deleting a quiz with recorded attempts is a no-op with a message; historical data is protected.
// @Tags Admin - Quizzes
// @Produce json
// @Security BearerAuth
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {object} dto.DeleteResultDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/quizzes/{quiz_id} [delete]
func (ctrl *QuizAdminController) DeleteQuiz(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return
	}
	quizID, ok := controller.ParseUintParam(c, "quiz_id")
	if !ok {
		return
	}

	resp, err := ctrl.assessmentService.DeleteQuiz(actor, quizID)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GradeAttempt godoc
// @Summary (Admin) Apply manual grades to an attempt's text answers
// @Description Clamps each grade to the question's points and recomputes totals and pass status. Safe to call repeatedly.
// @Tags Admin - Grading
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param grades body dto.GradeAttemptDTO true "Points per answer"
// @Success 200 {object} dto.AttemptResultDTO
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Answer belongs to a different attempt"
// @Router /admin/attempts/{attempt_id}/grades [post]
func (ctrl *QuizAdminController) GradeAttempt(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return
	}
	attemptID, ok := controller.ParseUintParam(c, "attempt_id")
	if !ok {
		return
	}

	var req dto.GradeAttemptDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := ctrl.assessmentService.GradeAttempt(actor, attemptID, req)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("GradeAttempt: service error")
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SaveModule godoc
// @Summary (Admin) Create or update a module's quiz binding
// @Tags Admin - Modules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param module body dto.ModuleUpsertDTO true "Module data"
// @Success 200 {object} dto.ModuleResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Bound quiz not found"
// @Router /admin/modules [put]
func (ctrl *QuizAdminController) SaveModule(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.ModuleUpsertDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := ctrl.assessmentService.SaveModule(actor, req)
	if err != nil {
		controller.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
