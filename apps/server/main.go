package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	otelcontrib "go.temporal.io/sdk/contrib/opentelemetry"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/pagecraft/pagecraft/apps/server/internal/credentials"
	"github.com/pagecraft/pagecraft/apps/server/internal/platform/config"
	"github.com/pagecraft/pagecraft/apps/server/internal/platform/github"
	"github.com/pagecraft/pagecraft/apps/server/internal/platform/logger"
	"github.com/pagecraft/pagecraft/apps/server/internal/platform/postgres"
	"github.com/pagecraft/pagecraft/apps/server/internal/platform/telemetry"
	temporalplatform "github.com/pagecraft/pagecraft/apps/server/internal/platform/temporal"
	"github.com/pagecraft/pagecraft/apps/server/internal/platform/validation"
	"github.com/pagecraft/pagecraft/apps/server/internal/sync"
	"github.com/pagecraft/pagecraft/apps/server/internal/sync/execution"
	"github.com/pagecraft/pagecraft/apps/server/internal/sync/handler"
	"github.com/pagecraft/pagecraft/apps/server/migrations"
	"github.com/pagecraft/pagecraft/schemas"
)

func main() {
	slog := logger.New()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	// --- Observability ---

	// Default the service name before any OTel init.
	if os.Getenv("OTEL_SERVICE_NAME") == "" {
		os.Setenv("OTEL_SERVICE_NAME", "pagecraft-sync") //nolint:errcheck
	}

	ctx := context.Background()
	tel, err := telemetry.New(ctx, cfg.OTelEnabled)
	if err != nil {
		slog.Error("telemetry init failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	// --- Platform: credential store ---

	var store credentials.Store
	switch {
	case cfg.RedisAddr != "":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("redis ping failed", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		store = credentials.NewRedisStore(rdb)
		slog.Info("using redis credential store", "addr", cfg.RedisAddr)
	case cfg.PostgresURL != "":
		pool, err := postgres.New(ctx, cfg.PostgresURL, migrations.FS)
		if err != nil {
			slog.Error("postgres init failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		store = credentials.NewPGStore(pool)
		slog.Info("using postgres credential store")
	default:
		slog.Error("no credential store configured, set REDIS_ADDR or POSTGRES_URL")
		os.Exit(1)
	}

	cipher := credentials.NewCipher(cfg.KeySource)

	// --- Platform: Temporal ---

	tc, err := client.Dial(client.Options{HostPort: cfg.TemporalHostPort})
	if err != nil {
		slog.Error("temporal client init failed", "error", err)
		os.Exit(1)
	}
	defer tc.Close()

	engine := temporalplatform.NewEngine(tc)

	// --- Service ---

	var githubHTTP *http.Client
	switch {
	case cfg.GitHubAppID != 0:
		githubHTTP, err = github.NewAppHTTPClient(cfg.GitHubAppID, cfg.GitHubAppInstallationID, cfg.GitHubAppKeyPath, cfg.GitHubBaseURL)
		if err != nil {
			slog.Error("github app auth init failed", "appId", cfg.GitHubAppID, "error", err)
			os.Exit(1)
		}
		slog.Info("github auth: app installation", "appId", cfg.GitHubAppID, "installationId", cfg.GitHubAppInstallationID)
	case cfg.GitHubToken != "":
		githubHTTP = github.NewTokenHTTPClient(cfg.GitHubToken)
		slog.Info("github auth: static token")
	}

	host := github.NewClient(cfg.GitHubBaseURL, githubHTTP)
	svc := sync.NewService(host, slog)

	// --- Temporal Worker ---

	activities := execution.NewActivities(store, cipher, svc, slog)

	workerOpts := worker.Options{}
	if cfg.OTelEnabled {
		tracingInterceptor, err := otelcontrib.NewTracingInterceptor(otelcontrib.TracerOptions{})
		if err != nil {
			slog.Error("temporal tracing interceptor init failed", "error", err)
			os.Exit(1)
		}
		workerOpts.Interceptors = []interceptor.WorkerInterceptor{tracingInterceptor}
	}

	w := worker.New(tc, temporalplatform.TaskQueue(), workerOpts)
	w.RegisterWorkflowWithOptions(execution.PublishOrchestrator, workflow.RegisterOptions{
		Name: "PublishOrchestrator",
	})
	w.RegisterActivity(activities)

	go func() {
		if err := w.Run(worker.InterruptCh()); err != nil {
			log.Fatalf("temporal worker failed: %v", err)
		}
	}()
	slog.Info("temporal worker started", "taskQueue", temporalplatform.TaskQueue())

	// --- HTTP ---

	router := gin.New()

	validator, err := validation.New(schemas.OpenAPISpec)
	if err != nil {
		slog.Error("openapi validation middleware init failed", "error", err)
		os.Exit(1)
	}

	router.Use(gin.Recovery(), otelgin.Middleware("pagecraft-sync"), validator)
	handler.RegisterRoutes(router, svc, store, cipher, engine, slog)

	slog.Info("starting pagecraft sync", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
