// Package app wires configuration into the services shared by every entrypoint.
package app

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/assistant"
	"github.com/hiufpe/hub-api/internal/repository"
	"github.com/hiufpe/hub-api/internal/repository/memstore"
	"github.com/hiufpe/hub-api/internal/service"
	"github.com/hiufpe/hub-api/internal/tools"
	"github.com/hiufpe/hub-api/migrations"
	"github.com/hiufpe/hub-api/pkg/cache"
	"github.com/hiufpe/hub-api/pkg/config"
	"github.com/hiufpe/hub-api/pkg/database"
)

// App holds the long-lived services of a process.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Metrics     *service.MetricsService
	Tokens      *service.TokenService
	Outcomes    *service.OutcomeService
	Enrollments *service.EnrollmentService
	Methods     *service.EvaluationMethodService
	Assessments *service.AssessmentService
	Absences    *service.AbsenceService
	Projections *service.ProjectionService
	Courses     *service.CourseService
	Schedule    *service.ScheduleService
	Standing    *service.StandingService
	Reconcile   *service.ReconcileService
	Tools       *tools.Registry
	Assistant   *assistant.Assistant

	closers []func() error
}

// New opens storage and builds every service.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}
	validate := validator.New()
	a.Metrics = service.NewMetricsService()
	a.Tokens = service.NewTokenService(cfg.JWT)

	var (
		store         service.LedgerStore
		conversations assistant.ConversationStore
	)
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory ledger; data is lost on restart")
		store = memstore.New()
		conversations = memstore.NewConversations()
	case config.DriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if cfg.Database.AutoMigrate {
			applied, err := database.Migrate(ctx, db, migrations.Files)
			if err != nil {
				a.Close()
				return nil, err
			}
			logger.Info("schema migrated", zap.Strings("files", applied))
		}
		store = repository.NewStore(db)
		conversations = repository.NewConversationRepository(db)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	cacheSvc, err := a.cache(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Outcomes = service.NewOutcomeService(store, cacheSvc, a.Metrics, logger)
	a.Enrollments = service.NewEnrollmentService(store, a.Outcomes, cfg.Evaluation, validate, logger)
	a.Methods = service.NewEvaluationMethodService(store, a.Outcomes, validate, logger)
	a.Assessments = service.NewAssessmentService(store, a.Outcomes, validate, logger)
	a.Absences = service.NewAbsenceService(store, a.Outcomes, validate, logger)
	a.Projections = service.NewProjectionService(store, validate, logger)
	a.Courses = service.NewCourseService(store, validate, logger)
	a.Schedule = service.NewScheduleService(store, cfg.Evaluation, logger)
	a.Standing = service.NewStandingService(store, cacheSvc, cfg.Evaluation, logger, nil, nil)

	if cfg.Reconcile.Enabled {
		a.Reconcile = service.NewReconcileService(store, a.Outcomes, cfg.Reconcile, logger)
	}

	a.Tools = tools.NewCatalog(tools.Services{
		Enrollments: a.Enrollments,
		Methods:     a.Methods,
		Assessments: a.Assessments,
		Absences:    a.Absences,
		Projections: a.Projections,
		Schedule:    a.Schedule,
		Standing:    a.Standing,
	}, validate, a.Metrics, logger)

	if cfg.Assistant.Enabled {
		model, err := assistant.NewOpenAIModel(cfg.Assistant)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("assistant model: %w", err)
		}
		prompts := assistant.NewPromptBuilder(a.Enrollments, a.Schedule, cfg.Evaluation.ActiveTerm)
		a.Assistant = assistant.New(model, a.Tools, conversations, prompts, a.Metrics, assistant.Config{
			MaxToolRounds: cfg.Assistant.MaxToolRounds,
			HistoryWindow: cfg.Assistant.HistoryWindow,
		}, validate, logger.Named("assistant"))
	}
	return a, nil
}

func (a *App) cache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*service.StandingCache, error) {
	if !cfg.Redis.Enabled {
		return service.NewStandingCache(nil, a.Metrics, cfg.Evaluation.StandingCacheTTL, logger), nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	repo := repository.NewCacheRepository(client, logger)
	a.closers = append(a.closers, repo.Close)
	return service.NewStandingCache(repo, a.Metrics, cfg.Evaluation.StandingCacheTTL, logger), nil
}

// Start launches background workers.
func (a *App) Start(ctx context.Context) error {
	if a.Reconcile == nil {
		return nil
	}
	return a.Reconcile.Start(ctx)
}

// Close stops workers and releases connections.
func (a *App) Close() {
	if a.Reconcile != nil {
		a.Reconcile.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("close resource", zap.Error(err))
		}
	}
	a.closers = nil
}
