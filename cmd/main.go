package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fashion-ai/config"
	"fashion-ai/internal/api/rest"
	telegram "fashion-ai/internal/api/telegram"
	"fashion-ai/internal/container"
	"fashion-ai/internal/domain/port"
	"fashion-ai/internal/infrastructure/inference"
	"fashion-ai/internal/infrastructure/logging"
	"fashion-ai/internal/infrastructure/storage"
	"fashion-ai/internal/infrastructure/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid config: %v", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	taxonomy, err := cfg.LoadTaxonomy()
	if err != nil {
		logger.Fatalf("Failed to load taxonomy: %v", err)
	}

	// Клиенты моделей создаются один раз и живут до остановки сервиса
	retry := inference.RetryPolicy{Attempts: cfg.Inference.RetryAttempts, Delay: cfg.Inference.RetryDelay}
	hf := inference.NewHuggingFace(inference.HuggingFaceConfig{
		URL:             cfg.Inference.HuggingFace.URL,
		Token:           cfg.Inference.HuggingFace.Token,
		CaptionModel:    cfg.Inference.HuggingFace.CaptionModel,
		ClassifierModel: cfg.Inference.HuggingFace.ClassifierModel,
		Timeout:         cfg.Inference.Timeout,
		Retry:           retry,
	}, logger)

	var captioner port.Captioner = hf
	if cfg.Inference.CaptionerBackend == config.BackendOpenAI {
		captioner = inference.NewOpenAICaptioner(inference.OpenAIConfig{
			APIKey:  cfg.Inference.OpenAI.APIKey,
			BaseURL: cfg.Inference.OpenAI.BaseURL,
			Model:   cfg.Inference.OpenAI.Model,
			Timeout: cfg.Inference.Timeout,
			Retry:   retry,
		}, logger)
	}

	// Собираем сервисы приложения
	appContainer := container.New(container.Backends{
		Users:        storage.NewMemoryUserRepository(),
		Preprocessor: vision.NewPreprocessor(cfg.Preprocess.MaxSide, cfg.Preprocess.MinSide),
		Captioner:    captioner,
		Classifier:   hf,
	}, taxonomy, cfg.Attributes.Concurrency, logger)

	if !logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := rest.NewHandler(appContainer.PredictionService, cfg.MaxUploadBytes(), logger.WithField("component", "http"))
	router := rest.NewRouter(handler, rest.RouterOptions{APIToken: cfg.Server.APIToken}, logger.WithField("component", "http"))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Inference.Timeout*2 + 10*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.UserService, appContainer.PredictionService, cfg.MaxUploadBytes(), logger)
		if err != nil {
			logger.Fatalf("Failed to create bot: %v", err)
		}
		go func() {
			if err := bot.Run(ctx); err != nil {
				logger.Errorf("Bot error: %v", err)
			}
		}()
		logger.Info("Bot is running...")
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":       cfg.Addr(),
			"captioner":  cfg.Inference.CaptionerBackend,
			"caption":    cfg.Inference.HuggingFace.CaptionModel,
			"zero_shot":  cfg.Inference.HuggingFace.ClassifierModel,
			"categories": taxonomy.Names(),
		}).Info("Fashion AI is listening")
		logger.Info("Endpoints: GET /, GET /health, GET /attributes, GET /attributes/:category, POST /predict, POST /classify")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown error: %v", err)
	}
}
