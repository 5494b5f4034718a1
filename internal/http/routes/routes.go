package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/sign-recognition/internal/http/handlers"
	"github.com/phambaophuc/sign-recognition/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	recognitionHandler *handlers.RecognitionHandler
	jobHandler         *handlers.JobHandler
	chatHandler        *handlers.ChatHandler
	systemHandler      *handlers.SystemHandler
	maxFileSize        int64
	logger             *zap.Logger
}

func NewRouter(
	recognitionHandler *handlers.RecognitionHandler,
	jobHandler *handlers.JobHandler,
	chatHandler *handlers.ChatHandler,
	systemHandler *handlers.SystemHandler,
	maxFileSize int64,
	logger *zap.Logger,
) *Router {
	return &Router{
		recognitionHandler: recognitionHandler,
		jobHandler:         jobHandler,
		chatHandler:        chatHandler,
		systemHandler:      systemHandler,
		maxFileSize:        maxFileSize,
		logger:             logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	upload := middleware.RequireImageUpload(r.maxFileSize)

	router.GET("/", r.systemHandler.Root)
	router.POST("/predict", upload, r.recognitionHandler.Predict)

	api := router.Group("/api")
	{
		api.POST("/recognize", upload, r.recognitionHandler.Predict)
		api.POST("/chat", r.chatHandler.Chat)
	}

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.systemHandler.HealthCheck)
		v1.GET("/stats", r.systemHandler.GetStats)

		v1.POST("/recognize", upload, r.recognitionHandler.Predict)
		v1.POST("/recognize/async", r.jobHandler.Submit)
		v1.GET("/jobs/:id", r.jobHandler.Status)
		v1.GET("/history", r.recognitionHandler.History)
		v1.DELETE("/cache", r.recognitionHandler.ClearCache)

		chat := v1.Group("/chat")
		{
			chat.GET("/history", r.chatHandler.History)
			chat.GET("/signs", r.chatHandler.Signs)
		}
	}

	return router
}
