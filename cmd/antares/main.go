package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/antares-fit/antares/internal/app"
	"github.com/antares-fit/antares/internal/auth"
	"github.com/antares-fit/antares/internal/catalog"
	"github.com/antares-fit/antares/internal/gyms"
	"github.com/antares-fit/antares/internal/memberships"
	"github.com/antares-fit/antares/internal/observability"
	"github.com/antares-fit/antares/internal/platform/cache"
	"github.com/antares-fit/antares/internal/platform/db"
	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/scores"
	"github.com/antares-fit/antares/internal/shared"
	"github.com/antares-fit/antares/internal/users"
	"github.com/antares-fit/antares/internal/workouts"
	"github.com/antares-fit/antares/jobs"
)

// recomputeEnqueuer adapts the jobs client to the scores service port.
type recomputeEnqueuer struct {
	client *jobs.Client
}

func (e recomputeEnqueuer) EnqueueRecordRecompute(ctx context.Context, userID, workoutID int64) error {
	_, err := e.client.EnqueueRecordRecompute(ctx, userID, workoutID)
	return err
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "antares_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	metrics := observability.NewMetrics()

	usersRepo := users.NewRepository(pool)
	gymsRepo := gyms.NewRepository(pool)
	membershipsRepo := memberships.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	workoutsRepo := workouts.NewRepository(pool)
	scoresRepo := scores.NewRepository(pool)

	engine := policy.NewEngine(nil)
	engine.RegisterKind(policy.KindWorkout, workoutsRepo, policy.PermWodWrite)
	engine.RegisterKind(policy.KindScore, scoresRepo, policy.PermScoreWrite)
	engine.SetDecisionHook(metrics.DecisionHook())

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, membershipsRepo)
	welcome := func(email, name string) error {
		_, err := jobsClient.EnqueueWelcomeEmail(context.Background(), jobs.WelcomeEmailPayload{Email: email, Name: name})
		return err
	}
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, welcome)

	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService)

	gymsService := gyms.NewService(gymsRepo, engine, auditLogger)
	gymsHandler := gyms.NewHandler(logger, gymsService)

	membershipsService := memberships.NewService(membershipsRepo, usersRepo, gymsRepo, engine, auditLogger)
	membershipsHandler := memberships.NewHandler(logger, membershipsService)

	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	workoutsService := workouts.NewService(workoutsRepo, engine, auditLogger)
	workoutsHandler := workouts.NewHandler(logger, workoutsService)

	scoresService := scores.NewService(scoresRepo, engine, workoutsRepo, idempotencyStore, recomputeEnqueuer{client: jobsClient}, auditLogger)
	scoresHandler := scores.NewHandler(logger, scoresService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthService:        authService,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		GymsHandler:        gymsHandler,
		MembershipsHandler: membershipsHandler,
		CatalogHandler:     catalogHandler,
		WorkoutsHandler:    workoutsHandler,
		ScoresHandler:      scoresHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
