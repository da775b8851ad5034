package cli

import (
	"context"
	stderrors "errors"
	"sync"

	"jobpilot/internal/ai"
	"jobpilot/internal/common"
	"jobpilot/internal/config"
	"jobpilot/internal/errors"
	"jobpilot/internal/events"
	"jobpilot/internal/lifecycle"
	"jobpilot/internal/resume"
	"jobpilot/internal/search"
	"jobpilot/internal/server"
	"jobpilot/internal/storage"
	"jobpilot/internal/store"
	"jobpilot/internal/types"

	"github.com/spf13/cobra"
)

// services are the collaborators shared by serve and the client commands
type services struct {
	db        *store.Store
	publisher events.Publisher
	files     storage.Store
	search    *search.Client
	models    map[string]*lazyAI

	resumes      *resume.Service
	jobs         *search.Service
	applications *lifecycle.Manager
	generator    *lazyAI

	logger *errors.Logger
}

// openServices connects to the database, storage and broker and builds the
// services on top of them. AI providers are created on first use.
func openServices(ctx context.Context, cfg *config.Config, recorder ai.UsageRecorder, logger *errors.Logger) (*services, error) {
	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	publisher, err := events.NewPublisher(cfg.Events, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &services{
		db:        db,
		publisher: publisher,
		files:     files,
		search:    search.NewClient(cfg.Search, logger),
		models:    make(map[string]*lazyAI, 3),
		logger:    logger,
	}
	for _, op := range []string{config.OperationParseResume, config.OperationAnalyzeJobs, config.OperationGenerateTest} {
		s.models[op] = newLazyAI(cfg.GetOperationConfig(op), op, recorder, logger)
	}
	s.generator = s.models[config.OperationGenerateTest]

	s.resumes = resume.NewService(db, files, s.models[config.OperationParseResume], logger,
		cfg.Storage.PublicBaseURL, cfg.Storage.MaxUploadSize)
	s.jobs = search.NewService(s.search, s.models[config.OperationAnalyzeJobs], logger)
	s.applications = lifecycle.NewManager(db, s.generator, publisher, cfg.Lifecycle, logger)

	logger.Debug("Services initialized",
		"database", db.Driver(),
		"storage", cfg.Storage.Backend,
		"events_enabled", cfg.Events.Enabled)
	return s, nil
}

// dependencies exposes the services to the HTTP server
func (s *services) dependencies() server.Dependencies {
	deps := server.Dependencies{
		Applications: s.applications,
		Resumes:      s.resumes,
		Jobs:         s.jobs,
		Generator:    s.generator,
		Database:     s.db,
		Models:       make(map[string]server.ModelChecker, len(s.models)),
		Breakers:     map[string]func() map[string]any{"search": s.search.Stats},
	}
	for op, model := range s.models {
		deps.Models[op] = model
		deps.Breakers[op] = model.Stats
	}
	return deps
}

func (s *services) Close() error {
	var errs []error
	for _, model := range s.models {
		errs = append(errs, model.Close())
	}
	errs = append(errs, s.publisher.Close(), s.db.Close())
	return stderrors.Join(errs...)
}

// withServices opens the services for one client command and closes them
// when fn returns
func withServices(cmd *cobra.Command, fn func(ctx context.Context, s *services) error) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	s, err := openServices(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("Failed to close services", "error", err)
		}
	}()
	return fn(ctx, s)
}

// printResult runs op and prints its result with the shared output flags
func printResult[Output any](cmd *cobra.Command, op common.OperationFunc[Output]) error {
	logger := getLoggerFromContext(cmd.Context())
	return common.RunCommand(cmd.Context(), logger, outputConfig, cmd.OutOrStdout(), op)
}

// lazyAI creates the AI service for one operation on first use, so
// commands that never reach the model run without an API key
type lazyAI struct {
	cfg       config.OperationAIConfig
	operation string
	recorder  ai.UsageRecorder
	logger    *errors.Logger

	mu      sync.Mutex
	service *ai.Service
	err     error
}

func newLazyAI(cfg config.OperationAIConfig, operation string, recorder ai.UsageRecorder, logger *errors.Logger) *lazyAI {
	return &lazyAI{cfg: cfg, operation: operation, recorder: recorder, logger: logger}
}

// get builds the service once. A configuration error is kept and returned
// to every later caller.
func (l *lazyAI) get() (*ai.Service, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.service == nil && l.err == nil {
		l.service, l.err = ai.NewService(&l.cfg, l.operation, l.logger)
		if l.err == nil && l.recorder != nil {
			l.service.SetRecorder(l.recorder)
		}
	}
	return l.service, l.err
}

func (l *lazyAI) current() *ai.Service {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.service
}

func (l *lazyAI) ParseResume(ctx context.Context, text string) (*types.ParsedResume, error) {
	svc, err := l.get()
	if err != nil {
		return nil, err
	}
	return svc.ParseResume(ctx, text)
}

func (l *lazyAI) AnalyzeJobs(ctx context.Context, input types.AnalyzeJobsInput) (*types.JobAnalysis, error) {
	svc, err := l.get()
	if err != nil {
		return nil, err
	}
	return svc.AnalyzeJobs(ctx, input)
}

func (l *lazyAI) GenerateTest(ctx context.Context, input *types.GenerateTestInput) (*types.GeneratedTest, error) {
	svc, err := l.get()
	if err != nil {
		return nil, err
	}
	return svc.GenerateTest(ctx, input)
}

func (l *lazyAI) GetModelInfo(ctx context.Context) *ai.ModelInfo {
	svc, err := l.get()
	if err != nil {
		return &ai.ModelInfo{Name: l.cfg.Model, Available: false, Error: errors.UserMessage(err)}
	}
	return svc.GetModelInfo(ctx)
}

// Stats reports the provider's circuit breakers once it exists
func (l *lazyAI) Stats() map[string]any {
	svc := l.current()
	if svc == nil {
		return map[string]any{"initialized": false}
	}
	if p, ok := svc.Provider.(interface{ CircuitBreakerStats() map[string]any }); ok {
		return p.CircuitBreakerStats()
	}
	return map[string]any{"initialized": true}
}

func (l *lazyAI) Close() error {
	svc := l.current()
	if svc == nil {
		return nil
	}
	return svc.Provider.Close()
}
