package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/penalty-tracker/external/sofascore"
	"github.com/riskibarqy/penalty-tracker/internal/config"
	"github.com/riskibarqy/penalty-tracker/internal/domain/match"
	"github.com/riskibarqy/penalty-tracker/internal/domain/penalty"
	"github.com/riskibarqy/penalty-tracker/internal/domain/rawdata"
	"github.com/riskibarqy/penalty-tracker/internal/infrastructure/export"
	filerepo "github.com/riskibarqy/penalty-tracker/internal/infrastructure/repository/file"
	"github.com/riskibarqy/penalty-tracker/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/penalty-tracker/internal/observability"
	idgen "github.com/riskibarqy/penalty-tracker/internal/platform/id"
	"github.com/riskibarqy/penalty-tracker/internal/platform/logging"
	"github.com/riskibarqy/penalty-tracker/internal/platform/resilience"
	"github.com/riskibarqy/penalty-tracker/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Options replaces collaborators in tests. Zero values build the real ones.
type Options struct {
	Provider  usecase.SportDataProvider
	Penalties penalty.Repository
	Sleeper   resilience.Sleeper
	IDs       idgen.Generator
	Now       func() time.Time
}

// App owns every long-lived dependency of one CLI invocation.
type App struct {
	cfg       config.Config
	logger    *logging.Logger
	metrics   *observability.Metrics
	db        *sqlx.DB
	ids       idgen.Generator
	crawler   *usecase.CrawlService
	teams     *usecase.TeamPenaltyService
	penalties penalty.Repository
	exporter  *export.Exporter
	closers   []func(context.Context) error
}

type CrawlOutcome struct {
	Result  usecase.CrawlResult
	Summary usecase.Summary
	Files   []string
}

type TeamOutcome struct {
	RunID  string
	Report usecase.TeamReport
	Files  []string
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	return NewWithOptions(ctx, cfg, logger, Options{})
}

func NewWithOptions(ctx context.Context, cfg config.Config, logger *logging.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	a := &App{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(),
		ids:     opts.IDs,
	}
	if a.ids == nil {
		a.ids = idgen.NewUUIDGenerator()
	}

	if err := a.initObservability(); err != nil {
		a.closeQuietly()
		return nil, err
	}

	if cfg.NeedsDatabase() {
		db, err := openDB(ctx, cfg.Storage.DBURL, logger)
		if err != nil {
			a.closeQuietly()
			return nil, err
		}
		a.db = db
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
	}

	archive, err := a.rawArchive()
	if err != nil {
		a.closeQuietly()
		return nil, err
	}
	switch {
	case opts.Penalties != nil:
		a.penalties = opts.Penalties
	case cfg.Storage.PersistPenalties:
		a.penalties = postgres.NewPenaltyRepository(a.db)
	}

	provider := opts.Provider
	if provider == nil {
		provider = sofascore.NewClient(sofascore.ClientConfig{
			BaseURL:        cfg.Provider.BaseURL,
			UserAgent:      cfg.Provider.UserAgent,
			AcceptLanguage: cfg.Provider.AcceptLanguage,
			Referer:        cfg.Provider.Referer,
			Timeout:        cfg.Provider.Timeout,
			Retry: resilience.RetryConfig{
				MaxAttempts: cfg.Provider.MaxAttempts,
				BackoffBase: cfg.Provider.BackoffBase,
				BackoffUnit: cfg.Provider.BackoffUnit,
			},
			Sleeper: opts.Sleeper,
			Logger:  logger.With("component", "sofascore"),
			Metrics: a.metrics,
		})
	}

	discovery := usecase.NewDiscoveryService(provider, archive, usecase.DiscoveryConfig{
		TournamentID:   cfg.Competition.TournamentID,
		SeasonID:       cfg.Competition.SeasonID,
		FilterBySeason: cfg.Competition.FilterBySeason,
		EventPages:     cfg.Provider.EventPages,
	}, logger)
	incidents := usecase.NewIncidentService(provider, archive, logger)
	pacer := resilience.NewPacer(cfg.Provider.PacingDelay, opts.Sleeper)

	a.crawler = usecase.NewCrawlService(discovery, incidents, pacer, a.ids, a.metrics, usecase.CrawlConfig{
		Workers:           cfg.Crawl.Workers,
		MaxTeamExpansions: cfg.Crawl.MaxTeamExpansions,
	}, logger)
	a.teams = usecase.NewTeamPenaltyService(discovery, incidents, pacer, a.metrics, logger)

	a.exporter = export.NewExporter(cfg.Export.OutputDir, cfg.Export.Formats, logger)
	if opts.Now != nil {
		a.exporter.SetClock(opts.Now)
	}
	return a, nil
}

func (a *App) initObservability() error {
	shutdownTracing, err := observability.InitUptrace(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	a.closers = append(a.closers, shutdownTracing)

	stopProfiler, err := observability.InitPyroscope(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return stopProfiler() })

	stopMetrics, err := observability.ServeMetrics(a.metrics, a.cfg.Observability.MetricsAddr, a.logger)
	if err != nil {
		return fmt.Errorf("serve metrics: %w", err)
	}
	a.closers = append(a.closers, stopMetrics)
	return nil
}

func (a *App) rawArchive() (rawdata.Repository, error) {
	switch a.cfg.Storage.RawArchive {
	case config.RawArchiveNone:
		return nil, nil
	case config.RawArchiveFile:
		return filerepo.NewRawDataRepository(filepath.Join(a.cfg.Export.OutputDir, "raw")), nil
	case config.RawArchivePostgres:
		return postgres.NewRawDataRepository(a.db), nil
	default:
		return nil, fmt.Errorf("unsupported raw archive %q", a.cfg.Storage.RawArchive)
	}
}

// RunCrawl runs the competition-wide traversal from the configured seeds,
// then persists and exports the records. A failed crawl writes nothing.
func (a *App) RunCrawl(ctx context.Context) (CrawlOutcome, error) {
	ctx, cancel := a.withRunTimeout(ctx)
	defer cancel()

	seeds := make([]match.Team, 0, len(a.cfg.Seeds))
	for _, seed := range a.cfg.Seeds {
		seeds = append(seeds, match.Team{ID: seed.ID, Name: seed.Name})
	}

	result, err := a.crawler.Crawl(ctx, seeds)
	if err != nil {
		return CrawlOutcome{}, err
	}

	if err := a.persist(ctx, result.RunID, result.Records); err != nil {
		return CrawlOutcome{}, err
	}

	files, err := a.exporter.Export(ctx, export.RecordsDataset(a.cfg.Competition.Name, result.Records))
	if err != nil {
		return CrawlOutcome{}, fmt.Errorf("export crawl results: %w", err)
	}

	return CrawlOutcome{
		Result:  result,
		Summary: usecase.Summarize(result.Records),
		Files:   files,
	}, nil
}

// RunTeam collects the penalties of one team's recent competition matches.
func (a *App) RunTeam(ctx context.Context, team match.Team) (TeamOutcome, error) {
	ctx, cancel := a.withRunTimeout(ctx)
	defer cancel()

	records, err := a.teams.Collect(ctx, team)
	if err != nil {
		return TeamOutcome{}, err
	}

	runID, err := a.ids.NewID()
	if err != nil {
		return TeamOutcome{}, fmt.Errorf("generate run id: %w", err)
	}
	if err := a.persist(ctx, runID, records); err != nil {
		return TeamOutcome{}, err
	}

	report := usecase.BuildTeamReport(records, team.Name)
	files, err := a.exporter.Export(ctx, export.TeamDataset(report))
	if err != nil {
		return TeamOutcome{}, fmt.Errorf("export team results: %w", err)
	}

	return TeamOutcome{
		RunID:  runID,
		Report: report,
		Files:  files,
	}, nil
}

func (a *App) persist(ctx context.Context, runID string, records []penalty.Record) error {
	if a.penalties == nil || len(records) == 0 {
		return nil
	}
	if err := a.penalties.UpsertMany(ctx, runID, records); err != nil {
		return fmt.Errorf("persist penalties run_id=%s: %w", runID, err)
	}
	a.logger.InfoContext(ctx, "penalties persisted", "run_id", runID, "count", len(records))
	return nil
}

func (a *App) withRunTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Crawl.Timeout > 0 {
		return context.WithTimeout(ctx, a.cfg.Crawl.Timeout)
	}
	return context.WithCancel(ctx)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) closeQuietly() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		a.logger.Warn("close after failed start", "error", err)
	}
}
