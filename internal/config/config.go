package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/riskibarqy/penalty-tracker/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"

	RawArchiveNone     = "none"
	RawArchiveFile     = "file"
	RawArchivePostgres = "postgres"

	FormatCSV  = "csv"
	FormatJSON = "json"

	envPrefix     = "PENALTY_"
	envConfigPath = "PENALTY_CONFIG"
)

// Config stores runtime configuration for a run. It is built once and passed
// by value.
type Config struct {
	AppEnv         string `koanf:"app_env" validate:"oneof=dev stage prod"`
	ServiceName    string `koanf:"service_name" validate:"required"`
	ServiceVersion string `koanf:"service_version"`
	LogLevel       string `koanf:"log_level"`
	LogFormat      string `koanf:"log_format" validate:"oneof=json console"`

	Competition   CompetitionConfig   `koanf:"competition"`
	Provider      ProviderConfig      `koanf:"provider"`
	Crawl         CrawlConfig         `koanf:"crawl"`
	Seeds         []Seed              `koanf:"seeds" validate:"dive"`
	Export        ExportConfig        `koanf:"export"`
	Storage       StorageConfig       `koanf:"storage"`
	Observability ObservabilityConfig `koanf:"observability"`
}

type CompetitionConfig struct {
	TournamentID   int64  `koanf:"tournament_id" validate:"gt=0"`
	Name           string `koanf:"name" validate:"required"`
	SeasonID       int64  `koanf:"season_id" validate:"gte=0"`
	FilterBySeason bool   `koanf:"filter_by_season"`
}

type ProviderConfig struct {
	BaseURL        string        `koanf:"base_url" validate:"required,url"`
	UserAgent      string        `koanf:"user_agent"`
	AcceptLanguage string        `koanf:"accept_language"`
	Referer        string        `koanf:"referer"`
	Timeout        time.Duration `koanf:"timeout" validate:"gte=0s"`
	MaxAttempts    int           `koanf:"max_attempts" validate:"gte=1,lte=10"`
	BackoffBase    float64       `koanf:"backoff_base" validate:"gte=1"`
	BackoffUnit    time.Duration `koanf:"backoff_unit" validate:"gte=0s"`
	PacingDelay    time.Duration `koanf:"pacing_delay" validate:"gte=0s"`
	EventPages     int           `koanf:"event_pages" validate:"gte=1"`
}

type CrawlConfig struct {
	Workers           int           `koanf:"workers" validate:"gte=1,lte=64"`
	MaxTeamExpansions int           `koanf:"max_team_expansions"`
	Timeout           time.Duration `koanf:"timeout" validate:"gte=0s"`
}

type Seed struct {
	ID   int64  `koanf:"id" validate:"gt=0"`
	Name string `koanf:"name" validate:"required"`
}

type ExportConfig struct {
	OutputDir string   `koanf:"output_dir" validate:"required"`
	Formats   []string `koanf:"formats" validate:"min=1,dive,oneof=csv json"`
}

type StorageConfig struct {
	RawArchive       string `koanf:"raw_archive" validate:"oneof=none file postgres"`
	PersistPenalties bool   `koanf:"persist_penalties"`
	DBURL            string `koanf:"db_url"`
}

type ObservabilityConfig struct {
	MetricsAddr                string        `koanf:"metrics_addr"`
	UptraceEnabled             bool          `koanf:"uptrace_enabled"`
	UptraceDSN                 string        `koanf:"uptrace_dsn"`
	PyroscopeEnabled           bool          `koanf:"pyroscope_enabled"`
	PyroscopeServerAddress     string        `koanf:"pyroscope_server_address"`
	PyroscopeAppName           string        `koanf:"pyroscope_app_name"`
	PyroscopeAuthToken         string        `koanf:"pyroscope_auth_token"`
	PyroscopeBasicAuthUser     string        `koanf:"pyroscope_basic_auth_user"`
	PyroscopeBasicAuthPassword string        `koanf:"pyroscope_basic_auth_password"`
	PyroscopeUploadRate        time.Duration `koanf:"pyroscope_upload_rate"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		AppEnv:         EnvDev,
		ServiceName:    "penalty-tracker",
		ServiceVersion: "dev",
		LogLevel:       "info",
		LogFormat:      logging.FormatConsole,
		Competition: CompetitionConfig{
			TournamentID: 52,
			Name:         "Super Lig",
			SeasonID:     63814,
		},
		Provider: ProviderConfig{
			BaseURL:     "https://api.sofascore.com/api/v1",
			Timeout:     20 * time.Second,
			MaxAttempts: 3,
			BackoffBase: 2,
			BackoffUnit: time.Second,
			PacingDelay: time.Second,
			EventPages:  1,
		},
		Crawl: CrawlConfig{
			Workers:           1,
			MaxTeamExpansions: 1000,
		},
		Seeds: []Seed{{ID: 3061, Name: "Galatasaray"}},
		Export: ExportConfig{
			OutputDir: "data",
			Formats:   []string{FormatCSV, FormatJSON},
		},
		Storage: StorageConfig{
			RawArchive: RawArchiveNone,
		},
		Observability: ObservabilityConfig{
			PyroscopeAppName:    "penalty-tracker",
			PyroscopeUploadRate: 15 * time.Second,
		},
	}
}

// Load layers defaults, an optional YAML file and PENALTY_* environment
// variables, in that order. An empty path falls back to PENALTY_CONFIG.
// Nested keys use a double underscore: PENALTY_PROVIDER__PACING_DELAY=2s.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if strings.TrimSpace(path) == "" {
		path = os.Getenv(envConfigPath)
	}
	if path = strings.TrimSpace(path); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, crerr.Wrapf(err, "load config file %s", path)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, crerr.Wrap(err, "load environment config")
	}
	k.Delete("config")

	var envSeeds []Seed
	if raw, ok := k.Get("seeds").(string); ok {
		parsed, err := parseSeeds(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PENALTY_SEEDS: %w", err)
		}
		envSeeds = parsed
		k.Delete("seeds")
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			ZeroFields:       true,
		},
	}); err != nil {
		return Config{}, crerr.Wrap(err, "decode config")
	}
	if envSeeds != nil {
		cfg.Seeds = envSeeds
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.Storage.RawArchive = strings.ToLower(strings.TrimSpace(c.Storage.RawArchive))
	if c.Storage.RawArchive == "" {
		c.Storage.RawArchive = RawArchiveNone
	}
	c.Export.Formats = normalizeFormats(c.Export.Formats)
	c.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(c.Provider.BaseURL), "/")
	for i := range c.Seeds {
		c.Seeds[i].Name = strings.TrimSpace(c.Seeds[i].Name)
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs the struct rules plus checks that span several fields.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return crerr.Wrap(err, "invalid config")
	}

	if c.Storage.PersistPenalties && strings.TrimSpace(c.Storage.DBURL) == "" {
		return fmt.Errorf("PENALTY_STORAGE__DB_URL is required when PENALTY_STORAGE__PERSIST_PENALTIES=true")
	}
	if c.Storage.RawArchive == RawArchivePostgres && strings.TrimSpace(c.Storage.DBURL) == "" {
		return fmt.Errorf("PENALTY_STORAGE__DB_URL is required when PENALTY_STORAGE__RAW_ARCHIVE=postgres")
	}
	if c.Observability.UptraceEnabled && strings.TrimSpace(c.Observability.UptraceDSN) == "" {
		return fmt.Errorf("PENALTY_OBSERVABILITY__UPTRACE_DSN is required when PENALTY_OBSERVABILITY__UPTRACE_ENABLED=true")
	}
	if c.Observability.PyroscopeEnabled && strings.TrimSpace(c.Observability.PyroscopeServerAddress) == "" {
		return fmt.Errorf("PENALTY_OBSERVABILITY__PYROSCOPE_SERVER_ADDRESS is required when PENALTY_OBSERVABILITY__PYROSCOPE_ENABLED=true")
	}

	seen := make(map[int64]struct{}, len(c.Seeds))
	for _, seed := range c.Seeds {
		if _, dup := seen[seed.ID]; dup {
			return fmt.Errorf("duplicate seed team id %d", seed.ID)
		}
		seen[seed.ID] = struct{}{}
	}
	return nil
}

// Level is the parsed log level; unknown values fall back to info.
func (c Config) Level() logging.Level {
	return parseLogLevel(c.LogLevel)
}

// Wants reports whether the export format is enabled.
func (c Config) Wants(format string) bool {
	for _, item := range c.Export.Formats {
		if item == format {
			return true
		}
	}
	return false
}

// NeedsDatabase is true when any component writes to Postgres.
func (c Config) NeedsDatabase() bool {
	return c.Storage.PersistPenalties || c.Storage.RawArchive == RawArchivePostgres
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

// SplitCSV splits a comma separated flag or env value, dropping blanks.
func SplitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func normalizeFormats(formats []string) []string {
	out := make([]string, 0, len(formats))
	seen := make(map[string]struct{}, len(formats))
	for _, item := range formats {
		for _, format := range SplitCSV(item) {
			format = strings.ToLower(format)
			if _, dup := seen[format]; dup {
				continue
			}
			seen[format] = struct{}{}
			out = append(out, format)
		}
	}
	return out
}

// parseSeeds reads the compact "id:name,id:name" form.
func parseSeeds(raw string) ([]Seed, error) {
	out := make([]Seed, 0)
	for _, item := range SplitCSV(raw) {
		segments := strings.SplitN(item, ":", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid seed %q, expected team_id:name", item)
		}

		id, err := strconv.ParseInt(strings.TrimSpace(segments[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid team id in seed %q: %w", item, err)
		}
		if id <= 0 {
			return nil, fmt.Errorf("team id must be > 0 in seed %q", item)
		}
		name := strings.TrimSpace(segments[1])
		if name == "" {
			return nil, fmt.Errorf("empty team name in seed %q", item)
		}

		out = append(out, Seed{ID: id, Name: name})
	}
	return out, nil
}
