package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/sign-recognition/internal/config"
	"github.com/phambaophuc/sign-recognition/internal/http/handlers"
	"github.com/phambaophuc/sign-recognition/internal/http/routes"
	"github.com/phambaophuc/sign-recognition/internal/services/chat"
	"github.com/phambaophuc/sign-recognition/internal/services/classifier"
	"github.com/phambaophuc/sign-recognition/internal/services/classifier/tflite"
	"github.com/phambaophuc/sign-recognition/internal/services/cropper"
	"github.com/phambaophuc/sign-recognition/internal/services/detector"
	"github.com/phambaophuc/sign-recognition/internal/services/diagnostics"
	"github.com/phambaophuc/sign-recognition/internal/services/history"
	"github.com/phambaophuc/sign-recognition/internal/services/processor"
	"github.com/phambaophuc/sign-recognition/internal/services/queue"
	"github.com/phambaophuc/sign-recognition/internal/services/recognizer"
	"github.com/phambaophuc/sign-recognition/internal/services/storage"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	gin.SetMode(cfg.Server.Mode)

	// Model
	labels, err := classifier.LoadLabels(cfg.Model.LabelsPath)
	if err != nil {
		logger.Fatal("Failed to load class names", zap.String("path", cfg.Model.LabelsPath), zap.Error(err))
	}

	order, err := processor.ParseChannelOrder(cfg.Model.ChannelOrder)
	if err != nil {
		logger.Fatal("Invalid channel order", zap.Error(err))
	}
	imageProcessor := processor.NewImageProcessor(cfg.Model.InputSize, order)

	models, err := tflite.LoadPool(cfg.Model.Path, imageProcessor.TensorLen(), cfg.Model.Threads, cfg.Model.PoolSize)
	if err != nil {
		logger.Fatal("Failed to load model", zap.String("path", cfg.Model.Path), zap.Error(err))
	}

	classifierService, err := classifier.New(labels, models, classifier.Options{ApplySoftmax: cfg.Model.ApplySoftmax}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize classifier", zap.Error(err))
	}
	defer classifierService.Close()

	// Storage and cache
	storageService, err := storage.NewStorageService(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}
	defer storageService.Close()

	// Recognition pipeline
	var handDetector detector.Detector = detector.NopDetector{}
	if cfg.Detector.Enabled {
		handDetector, err = detector.NewMediaPipeDetector(detector.Config{
			Command:       cfg.Detector.Command,
			MaxHands:      cfg.Detector.MaxHands,
			MinConfidence: cfg.Detector.MinConfidence,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize hand detector", zap.Error(err))
		}
	}

	opts := []recognizer.Option{recognizer.WithDetectTimeout(cfg.Detector.Timeout)}
	switch cfg.Diagnostics.Mode {
	case config.DiagnosticsDir:
		sink, err := diagnostics.NewDirSink(cfg.Diagnostics.Dir, cfg.Diagnostics.Format, cfg.Diagnostics.Quality)
		if err != nil {
			logger.Fatal("Failed to initialize diagnostics", zap.Error(err))
		}
		opts = append(opts, recognizer.WithDiagnostics(sink))
	case config.DiagnosticsStorage:
		opts = append(opts, recognizer.WithDiagnostics(
			diagnostics.NewStorageSink(storageService, cfg.Diagnostics.Format, cfg.Diagnostics.Quality)))
	}

	handCropper := cropper.New(cfg.Detector.Padding)
	signRecognizer := recognizer.New(
		handDetector,
		handCropper,
		imageProcessor,
		classifierService,
		logger,
		opts...,
	)
	defer signRecognizer.Close()

	// History
	var (
		predictionHistory handlers.PredictionHistory
		chatHistory       handlers.ChatHistory
		queueHistory      queue.HistoryRecorder
		historyStore      *history.Store
	)
	if cfg.History.Path != "" {
		historyStore, err = history.New(cfg.History.Path)
		if err != nil {
			logger.Fatal("Failed to open history database", zap.Error(err))
		}
		defer historyStore.Close()
		predictionHistory = historyStore.Predictions()
		chatHistory = historyStore.Chats()
		queueHistory = historyStore.Predictions()
	}

	var cache handlers.PredictionCache
	var jobReader handlers.JobReader
	if storageService.CacheEnabled() {
		cache = storageService
		jobReader = storageService
	}

	var jobObjects queue.ObjectSource
	if storageService.StorageEnabled() {
		jobObjects = storageService
	}

	// Async recognition
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var jobPublisher handlers.JobPublisher
	var queueService *queue.QueueService
	if cfg.RabbitMQ.URL != "" && storageService.CacheEnabled() {
		jobProcessor := queue.NewJobProcessor(signRecognizer, storageService, jobObjects, queueHistory, cfg.Storage.MaxFileSize, logger)
		queueService, err = queue.NewQueueService(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, jobProcessor, logger)
		if err != nil {
			// Continue without async recognition
			logger.Warn("Failed to initialize queue service", zap.Error(err))
		} else {
			defer queueService.Close()
			jobPublisher = queueService
			for i := 1; i <= cfg.RabbitMQ.Workers; i++ {
				if err := queueService.StartWorker(ctx, i); err != nil {
					logger.Error("Failed to start worker", zap.Int("worker_id", i), zap.Error(err))
				}
			}
		}
	} else {
		logger.Info("Async recognition disabled; it needs RABBITMQ_URL and REDIS_ADDR")
	}

	// Health and stats
	checks := []handlers.HealthFunc{storageService.HealthCheck}
	stats := map[string]handlers.StatsFunc{
		"model": func(ctx context.Context) (interface{}, error) {
			return gin.H{
				"classes":        len(classifierService.Labels()),
				"input_size":     imageProcessor.InputSize(),
				"channel_order":  order,
				"padding":        handCropper.Padding(),
				"hand_detection": cfg.Detector.Enabled,
			}, nil
		},
	}
	if storageService.CacheEnabled() {
		stats["cache"] = func(ctx context.Context) (interface{}, error) {
			return storageService.GetCacheStats(ctx)
		}
	}
	if queueService != nil {
		checks = append(checks, func(ctx context.Context) map[string]string {
			return map[string]string{"rabbitmq": queueService.HealthCheck()}
		})
		stats["queue"] = func(ctx context.Context) (interface{}, error) {
			return queueService.GetQueueStats()
		}
	}
	if historyStore != nil {
		checks = append(checks, func(ctx context.Context) map[string]string {
			if err := historyStore.Ping(); err != nil {
				return map[string]string{"history": "unhealthy: " + err.Error()}
			}
			return map[string]string{"history": "healthy"}
		})
		stats["predictions"] = func(ctx context.Context) (interface{}, error) {
			return historyStore.Predictions().CountByLabel(ctx)
		}
	}

	// Initialize handlers
	router := routes.NewRouter(
		handlers.NewRecognitionHandler(signRecognizer, cache, predictionHistory, handCropper.Padding(), cfg.Storage.MaxFileSize, logger),
		handlers.NewJobHandler(jobPublisher, jobReader, logger),
		handlers.NewChatHandler(chat.New(nil), chatHistory, logger),
		handlers.NewSystemHandler(checks, stats, logger),
		cfg.Storage.MaxFileSize,
		logger,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
