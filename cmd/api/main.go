package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-assurance/internal/application"
	"github.com/bryanwahyu/automaton-assurance/internal/application/analysis"
	"github.com/bryanwahyu/automaton-assurance/internal/application/auth"
	"github.com/bryanwahyu/automaton-assurance/internal/application/ingest"
	"github.com/bryanwahyu/automaton-assurance/internal/application/reports"
	"github.com/bryanwahyu/automaton-assurance/internal/application/users"
	"github.com/bryanwahyu/automaton-assurance/internal/config"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/audit"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/identity"
	domreports "github.com/bryanwahyu/automaton-assurance/internal/domain/reports"
	"github.com/bryanwahyu/automaton-assurance/internal/export/pdf"
	"github.com/bryanwahyu/automaton-assurance/internal/infra/ai"
	"github.com/bryanwahyu/automaton-assurance/internal/infra/db/memory"
	"github.com/bryanwahyu/automaton-assurance/internal/infra/db/postgres"
	"github.com/bryanwahyu/automaton-assurance/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/automaton-assurance/internal/infra/storage"
	"github.com/bryanwahyu/automaton-assurance/internal/logging"
	"github.com/bryanwahyu/automaton-assurance/internal/middleware"
	"github.com/bryanwahyu/automaton-assurance/internal/render"
)

type repositories struct {
	reports  domreports.Repository
	users    identity.UserRepository
	sessions identity.SessionRepository
	audit    audit.Repository
	db       *sql.DB // nil for the memory driver
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.Database.Driver == "memory" {
		m := memory.New()
		return &repositories{reports: m, users: m, sessions: m, audit: m.Audit()}, nil
	}

	db, err := postgres.Connect(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &repositories{
		reports:  postgres.NewReportRepository(db),
		users:    postgres.NewUserRepository(db),
		sessions: postgres.NewSessionRepository(db),
		audit:    postgres.NewAuditRepository(db),
		db:       db,
	}, nil
}

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// connect database
	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		logger.Fatal("database init error", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	if repos.db != nil {
		defer repos.db.Close()
	}

	provider, model, err := ai.New(ctx, cfg)
	if err != nil {
		logger.Fatal("ai provider init error", zap.Error(err))
	}
	analyzer := analysis.NewService(provider, model, cfg.AI.MaxTokens, logger.Named("analysis"))
	analyzer.Observe = middleware.ObserveAnalysis

	views, err := render.New()
	if err != nil {
		logger.Fatal("template init error", zap.Error(err))
	}

	clock := application.SystemClock{}
	reportSvc := &reports.Service{
		Repo:     repos.reports,
		Audit:    repos.audit,
		Views:    views,
		Clock:    clock,
		Log:      logger.Named("reports"),
		OnExport: middleware.IncrementExports,
	}

	var printer *pdf.Renderer
	if cfg.PDF.Enabled {
		printer = pdf.New(pdf.Config{
			ChromeBin:   cfg.PDF.ChromeBin,
			DebuggerURL: cfg.PDF.DebuggerURL,
			Timeout:     cfg.PDF.Timeout,
		}, logger.Named("pdf"))
		reportSvc.PDF = printer
	} else {
		reportSvc.PDF = pdf.Disabled{}
	}

	health := map[string]middleware.HealthChecker{}
	if repos.db != nil {
		health["database"] = &middleware.DatabaseHealthChecker{DB: repos.db}
	}

	// init minio
	if cfg.MinioEnabled() {
		store, err := minioStore.New(ctx, minioStore.Options{
			Endpoint:   cfg.Minio.Endpoint,
			Region:     cfg.Minio.Region,
			Bucket:     cfg.Minio.BucketName,
			AccessKey:  cfg.Minio.AccessKey,
			SecretKey:  cfg.Minio.SecretKey,
			UseSSL:     cfg.Minio.UseSSL,
			PresignTTL: cfg.Minio.PresignTTL,
		})
		if err != nil {
			logger.Fatal("minio init error", zap.Error(err))
		}
		reportSvc.Artifacts = store
		health["storage"] = store
	}

	authSvc := &auth.Service{
		Users:      repos.users,
		Sessions:   repos.sessions,
		Audit:      repos.audit,
		Secret:     []byte(cfg.Auth.JWTSecret),
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
		Clock:      clock,
		Log:        logger.Named("auth"),
	}
	userSvc := &users.Service{
		Users:       repos.users,
		Sessions:    repos.sessions,
		Audit:       repos.audit,
		FrontendURL: cfg.Server.FrontendURL,
		Clock:       clock,
		Log:         logger.Named("users"),
	}

	handler := httpserver.NewRouter(httpserver.Deps{
		Auth:        authSvc,
		Users:       userSvc,
		Analysis:    analyzer,
		Reports:     reportSvc,
		Ingest:      ingest.Ingestor{MaxBytes: cfg.Ingest.MaxFileBytes},
		Log:         logger,
		Health:      health,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst),
		FrontendURL: cfg.Server.FrontendURL,
		CookieName:  cfg.Auth.CookieName,
		BodyLimit:   cfg.Server.BodyLimitMB << 20,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server listening",
			zap.String("addr", addr),
			zap.String("provider", cfg.AI.Provider),
			zap.String("model", model),
			zap.String("database", cfg.Database.Driver),
			zap.Bool("pdf", printer != nil),
			zap.Bool("archive", cfg.MinioEnabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	if printer != nil {
		if err := printer.Close(); err != nil {
			logger.Warn("browser close error", zap.Error(err))
		}
	}
}
