package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const serviceName = "quiz-service"

type HandlerManager struct {
	subjectHandler  *SubjectHandler
	questionHandler *QuestionHandler
	gradingHandler  *GradingHandler
	attemptHandler  *AttemptHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		subjectHandler:  NewSubjectHandler(serviceManager.Subject(), logger),
		questionHandler: NewQuestionHandler(serviceManager.Question(), serviceManager.ImportExport(), logger),
		gradingHandler:  NewGradingHandler(serviceManager.Scoring(), logger),
		attemptHandler:  NewAttemptHandler(serviceManager.Attempt(), serviceManager.ImportExport(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	api := router.Group("/api")
	{
		subjects := api.Group("/subjects")
		{
			subjects.GET("", hm.subjectHandler.ListSubjects)
			subjects.POST("", hm.subjectHandler.CreateSubject)
			subjects.GET("/:id", hm.subjectHandler.GetSubject)

			// Play and grading
			subjects.GET("/:id/questions", hm.questionHandler.ListQuestions)
			subjects.POST("/:id/check", hm.gradingHandler.CheckAnswers)

			// Authoring
			subjects.POST("/:id/questions", hm.questionHandler.CreateQuestion)
			subjects.GET("/:id/questions/admin", hm.questionHandler.ListQuestionsAdmin)
			subjects.POST("/:id/questions/import", hm.questionHandler.ImportQuestions)
			subjects.GET("/:id/questions/export", hm.questionHandler.ExportQuestions)

			// History
			subjects.GET("/:id/attempts", hm.attemptHandler.ListAttempts)
			subjects.GET("/:id/attempts/export", hm.attemptHandler.ExportAttempts)
		}

		api.POST("/attempts", hm.attemptHandler.CreateAttempt)
	}
}

// NewRouter builds the gin engine with the shared middleware and every route
func NewRouter(serviceManager services.ServiceManager, logger utils.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ContextLogger(logger))
	router.Use(utils.LoggerMiddleware(logger))

	NewHandlerManager(serviceManager, logger).SetupRoutes(router)
	return router
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}
