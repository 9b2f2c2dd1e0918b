package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/Bandicoots/config"
	"github.com/lshigami/Bandicoots/database"
	_ "github.com/lshigami/Bandicoots/docs" // Swagger docs
	"github.com/lshigami/Bandicoots/internal/auth"
	adminctrl "github.com/lshigami/Bandicoots/internal/controller/admin"
	userctrl "github.com/lshigami/Bandicoots/internal/controller/user"
	"github.com/lshigami/Bandicoots/internal/logger"
	"github.com/lshigami/Bandicoots/internal/model"
	"github.com/lshigami/Bandicoots/internal/repository"
	"github.com/lshigami/Bandicoots/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Quiz & Module-Gating Assessment API
// @version 1.0
// @description Quiz authoring, attempt grading and module-gate evaluation for the course back office.
// @contact.name API Support
// @contact.email support@example.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	app := fx.New(
		// Core application components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		// Repositories layer
		fx.Provide(
			repository.NewQuizRepository,
			repository.NewQuestionRepository,
			repository.NewAttemptRepository,
			repository.NewAnswerRepository,
			repository.NewModuleRepository,
		),

		// Services layer
		fx.Provide(
			service.NewQuestionBankService,
			service.NewScoringEngine,
			service.NewGradingReconciler,
			service.NewAttemptLedger,
			service.NewModuleGate,
			service.NewWebhookNotifier,
			service.NewAssessmentService,
			service.NewQuizQueryService,
		),

		// API controllers layer
		fx.Provide(
			adminctrl.NewQuizAdminController,
			userctrl.NewAssessmentController,
		),

		fx.Invoke(AutoMigrateDB),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	// Request logging through the global zerolog instance.
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI at /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	quizAdminCtrl *adminctrl.QuizAdminController,
	assessmentCtrl *userctrl.AssessmentController,
) {
	authenticated := auth.Middleware(cfg.JWTSecret)

	// Admin routes: quiz authoring, manual grading, module bindings.
	adminGroup := router.Group("/api/v1/admin")
	adminGroup.Use(authenticated, auth.RequireRole(model.RoleAdmin, model.RoleInstructor))
	{
		adminGroup.POST("/quizzes", quizAdminCtrl.CreateQuiz)
		adminGroup.PUT("/quizzes/:quiz_id", quizAdminCtrl.UpdateQuiz)
		adminGroup.DELETE("/quizzes/:quiz_id", quizAdminCtrl.DeleteQuiz)
		adminGroup.POST("/attempts/:attempt_id/grades", quizAdminCtrl.GradeAttempt)
		adminGroup.PUT("/modules", quizAdminCtrl.SaveModule)
	}

	// Learner routes: quiz browsing, attempts, gate checks.
	userGroup := router.Group("/api/v1")
	userGroup.Use(authenticated)
	{
		userGroup.GET("/quizzes", assessmentCtrl.ListQuizzes)
		userGroup.GET("/quizzes/:quiz_id", assessmentCtrl.GetQuiz)
		userGroup.GET("/quizzes/:quiz_id/attempt-eligibility", assessmentCtrl.CheckAttemptEligibility)
		userGroup.POST("/quizzes/:quiz_id/attempts", assessmentCtrl.StartAttempt)
		userGroup.GET("/quizzes/:quiz_id/my-attempts", assessmentCtrl.ListMyAttempts)
		userGroup.POST("/attempts/:attempt_id/submission", assessmentCtrl.SubmitAttempt)
		userGroup.GET("/attempts/:attempt_id", assessmentCtrl.GetAttempt)
		userGroup.GET("/modules/:module_id/gate", assessmentCtrl.CheckModuleGate)
		userGroup.GET("/courses/:course_id/modules", assessmentCtrl.ListModules)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Assessment API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Quiz{},
		&model.Question{},
		&model.Attempt{},
		&model.Answer{},
		&model.CourseModule{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
