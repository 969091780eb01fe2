package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/riskibarqy/penalty-tracker/internal/app"
	"github.com/riskibarqy/penalty-tracker/internal/config"
	"github.com/riskibarqy/penalty-tracker/internal/domain/match"
	"github.com/riskibarqy/penalty-tracker/internal/platform/logging"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1

	closeTimeout = 10 * time.Second
)

// Runner is the part of app.App the commands drive.
type Runner interface {
	RunCrawl(ctx context.Context) (app.CrawlOutcome, error)
	RunTeam(ctx context.Context, team match.Team) (app.TeamOutcome, error)
	Close(ctx context.Context) error
}

// RunnerFactory builds a Runner from the resolved configuration.
type RunnerFactory func(ctx context.Context, cfg config.Config, logger *logging.Logger) (Runner, error)

func defaultFactory(ctx context.Context, cfg config.Config, logger *logging.Logger) (Runner, error) {
	return app.New(ctx, cfg, logger)
}

type rootOptions struct {
	configPath string
	outputDir  string
	formats    string
	logLevel   string
	workers    int

	stdout  io.Writer
	stderr  io.Writer
	factory RunnerFactory
}

// NewRootCmd builds the penalties command tree. A nil factory uses app.New.
func NewRootCmd(factory RunnerFactory, stdout, stderr io.Writer) *cobra.Command {
	if factory == nil {
		factory = defaultFactory
	}
	opts := &rootOptions{
		stdout:  stdout,
		stderr:  stderr,
		factory: factory,
	}

	cmd := &cobra.Command{
		Use:   "penalties",
		Short: "Collect penalty kicks from SofaScore match incidents",
		Long: `Collects penalty kicks from SofaScore match incident feeds for one competition.
"crawl" walks the competition breadth-first from the configured seed teams;
"team" reads a single team's recent matches.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file (or env: PENALTY_CONFIG)")
	flags.StringVar(&opts.outputDir, "output-dir", "", "Directory for export files")
	flags.StringVar(&opts.formats, "format", "", "Export formats: csv,json")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.IntVar(&opts.workers, "workers", 0, "Concurrent incident fetches per team expansion")

	cmd.AddCommand(newCrawlCmd(opts), newTeamCmd(opts))
	return cmd
}

func newCrawlCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Traverse the competition from the seed teams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withRunner(cmd.Context(), func(ctx context.Context, cfg config.Config, runner Runner) error {
				out, err := runner.RunCrawl(ctx)
				if err != nil {
					return err
				}
				return WriteCrawlSummary(opts.stdout, cfg.Competition.Name, out.Result, out.Summary, out.Files)
			})
		},
	}
}

func newTeamCmd(opts *rootOptions) *cobra.Command {
	var (
		teamID   int64
		teamName string
	)
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Collect penalties from one team's recent matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if teamID <= 0 {
				return fmt.Errorf("--id must be a positive team id")
			}
			name := strings.TrimSpace(teamName)
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			team := match.Team{ID: teamID, Name: name}

			return opts.withRunner(cmd.Context(), func(ctx context.Context, _ config.Config, runner Runner) error {
				fmt.Fprintf(opts.stdout, "Starting to collect penalty data for %s...\n", team.Name)
				out, err := runner.RunTeam(ctx, team)
				if err != nil {
					return err
				}
				return WriteTeamSummary(opts.stdout, out.Report, out.Files)
			})
		},
	}
	cmd.Flags().Int64Var(&teamID, "id", 0, "Provider team id (required)")
	cmd.Flags().StringVar(&teamName, "name", "", "Team display name as the provider spells it (required)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (o *rootOptions) withRunner(ctx context.Context, fn func(ctx context.Context, cfg config.Config, runner Runner) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := o.resolveConfig()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogFormat, cfg.Level()).With("service", cfg.ServiceName, "env", cfg.AppEnv)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	runner, err := o.factory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := runner.Close(closeCtx); err != nil {
			logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	return fn(ctx, cfg, runner)
}

// resolveConfig layers command-line flags over config.Load.
func (o *rootOptions) resolveConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.outputDir != "" {
		cfg.Export.OutputDir = o.outputDir
	}
	if o.formats != "" {
		cfg.Export.Formats = config.SplitCSV(strings.ToLower(o.formats))
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.workers != 0 {
		cfg.Crawl.Workers = o.workers
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// Execute runs the CLI with process signals wired to cancellation and
// returns the exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCmd(nil, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}
