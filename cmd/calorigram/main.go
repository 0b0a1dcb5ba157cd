package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/calorigram/internal/config"
	"github.com/vbonduro/calorigram/internal/db"
	"github.com/vbonduro/calorigram/internal/logging"
	"github.com/vbonduro/calorigram/internal/photostore"
	"github.com/vbonduro/calorigram/internal/photostore/local"
	s3photostore "github.com/vbonduro/calorigram/internal/photostore/s3"
	"github.com/vbonduro/calorigram/internal/service"
	"github.com/vbonduro/calorigram/internal/store"
	"github.com/vbonduro/calorigram/internal/telegram"
	"github.com/vbonduro/calorigram/internal/vision"
	claudevision "github.com/vbonduro/calorigram/internal/vision/claude"
	geminivision "github.com/vbonduro/calorigram/internal/vision/gemini"
	ollamavision "github.com/vbonduro/calorigram/internal/vision/ollama"
	"github.com/vbonduro/calorigram/internal/web"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := run(cfg, logger); err != nil {
		logger.Error("calorigram stopped", "error", err)
		cleanup()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	userStore := store.NewUserStore(database)
	mealStore := store.NewMealStore(database)

	photoStg, err := newPhotoStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	analyzer := newVisionAnalyzer(cfg, logger)

	defaultLoc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		return fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", cfg.DefaultTimezone, err)
	}

	profiles := service.NewProfileService(userStore, cfg.DefaultTimezone, logger)
	limiter := service.NewLimiter(cfg.AnalysisRatePerMinute, cfg.AnalysisBurst)
	meals := service.NewMealService(mealStore, userStore, analyzer, photoStg, limiter, defaultLoc, logger)

	g, gctx := errgroup.WithContext(ctx)

	httpServer := web.NewServer(profiles, meals, cfg.APIToken, logger).HTTPServer(cfg.ListenAddr)
	g.Go(func() error {
		logger.Info("starting server", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down server")
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.TelegramToken != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("failed to connect to telegram: %w", err)
		}
		logger.Info("telegram bot authorized", "username", bot.Self.UserName)
		router := telegram.NewRouter(bot, profiles, meals, logger)
		g.Go(func() error { return router.Run(gctx) })
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN is empty, running HTTP API only")
	}

	return g.Wait()
}

func newPhotoStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (photostore.PhotoStore, error) {
	switch cfg.PhotoBackend {
	case "s3":
		logger.Info("using S3 photo store", "bucket", cfg.S3Bucket, "endpoint", cfg.S3Endpoint)
		stg, err := s3photostore.NewS3PhotoStore(ctx, s3photostore.Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize photo store: %w", err)
		}
		return stg, nil
	default:
		logger.Info("using local photo store", "path", cfg.PhotoPath)
		stg, err := local.NewLocalPhotoStore(cfg.PhotoPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize photo store: %w", err)
		}
		return stg, nil
	}
}

func newVisionAnalyzer(cfg *config.Config, logger *slog.Logger) vision.Analyzer {
	switch cfg.VisionBackend {
	case "gemini":
		logger.Info("using Gemini vision backend", "model", cfg.GeminiModel)
		return geminivision.NewGeminiAnalyzer(cfg.GeminiAPIKey, cfg.GeminiModel)
	case "ollama":
		logger.Info("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaAnalyzer(cfg.OllamaHost, cfg.OllamaModel)
	default:
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeAnalyzer(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	}
}
