package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/riskibarqy/penalty-tracker/internal/platform/logging"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "penalty.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Competition.TournamentID != 52 || cfg.Competition.SeasonID != 63814 {
		t.Fatalf("unexpected competition: %+v", cfg.Competition)
	}
	if len(cfg.Seeds) != 1 || cfg.Seeds[0].ID != 3061 {
		t.Fatalf("unexpected seeds: %+v", cfg.Seeds)
	}
	if cfg.Provider.MaxAttempts != 3 || cfg.Provider.BackoffBase != 2 || cfg.Provider.PacingDelay != time.Second {
		t.Fatalf("unexpected provider defaults: %+v", cfg.Provider)
	}
	if !cfg.Wants(FormatCSV) || !cfg.Wants(FormatJSON) {
		t.Fatalf("expected both export formats by default")
	}
	if cfg.NeedsDatabase() {
		t.Fatalf("database must be optional")
	}
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	path := writeConfigFile(t, `
competition:
  tournament_id: 17
  name: Premier League
provider:
  pacing_delay: 3s
  max_attempts: 5
seeds:
  - id: 17
    name: Manchester City
  - id: 42
    name: Arsenal
export:
  formats: [json]
`)
	t.Setenv("PENALTY_PROVIDER__PACING_DELAY", "250ms")
	t.Setenv("PENALTY_CRAWL__WORKERS", "4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Competition.TournamentID != 17 || cfg.Competition.Name != "Premier League" {
		t.Fatalf("file values not applied: %+v", cfg.Competition)
	}
	if cfg.Competition.SeasonID != 63814 {
		t.Fatalf("absent keys must keep defaults, got season=%d", cfg.Competition.SeasonID)
	}
	if cfg.Provider.PacingDelay != 250*time.Millisecond {
		t.Fatalf("env must override file, got=%s", cfg.Provider.PacingDelay)
	}
	if cfg.Provider.MaxAttempts != 5 || cfg.Crawl.Workers != 4 {
		t.Fatalf("unexpected values: attempts=%d workers=%d", cfg.Provider.MaxAttempts, cfg.Crawl.Workers)
	}
	if len(cfg.Seeds) != 2 || cfg.Seeds[1].Name != "Arsenal" {
		t.Fatalf("unexpected seeds: %+v", cfg.Seeds)
	}
	if cfg.Wants(FormatCSV) || !cfg.Wants(FormatJSON) {
		t.Fatalf("unexpected formats: %v", cfg.Export.Formats)
	}
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	path := writeConfigFile(t, "log_level: debug\n")
	t.Setenv("PENALTY_CONFIG", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Level() != logging.LevelDebug {
		t.Fatalf("expected debug level, got=%s", cfg.Level())
	}
}

func TestLoad_SeedsAndFormatsFromEnv(t *testing.T) {
	t.Setenv("PENALTY_SEEDS", "3061:Galatasaray, 3052:Fenerbahçe")
	t.Setenv("PENALTY_EXPORT__FORMATS", "CSV")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.Seeds) != 2 || cfg.Seeds[1].ID != 3052 || cfg.Seeds[1].Name != "Fenerbahçe" {
		t.Fatalf("unexpected seeds: %+v", cfg.Seeds)
	}
	if len(cfg.Export.Formats) != 1 || cfg.Export.Formats[0] != FormatCSV {
		t.Fatalf("unexpected formats: %v", cfg.Export.Formats)
	}
}

func TestLoad_InvalidSeeds(t *testing.T) {
	t.Setenv("PENALTY_SEEDS", "galatasaray")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for malformed PENALTY_SEEDS")
	}
}

func TestLoad_PersistPenaltiesRequiresDBURL(t *testing.T) {
	t.Setenv("PENALTY_STORAGE__PERSIST_PENALTIES", "true")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error when persist_penalties=true without db_url")
	}
}

func TestLoad_PostgresArchiveRequiresDBURL(t *testing.T) {
	t.Setenv("PENALTY_STORAGE__RAW_ARCHIVE", "postgres")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error when raw_archive=postgres without db_url")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("PENALTY_OBSERVABILITY__UPTRACE_ENABLED", "true")
	t.Setenv("PENALTY_OBSERVABILITY__UPTRACE_DSN", "")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error when uptrace is enabled without dsn")
	}
}

func TestLoad_RejectsUnknownFormat(t *testing.T) {
	t.Setenv("PENALTY_EXPORT__FORMATS", "csv,xlsx")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unsupported export format")
	}
}

func TestLoad_RejectsZeroAttempts(t *testing.T) {
	t.Setenv("PENALTY_PROVIDER__MAX_ATTEMPTS", "0")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for max_attempts=0")
	}
}

func TestValidate_DuplicateSeeds(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Seeds = []Seed{{ID: 1, Name: "A"}, {ID: 1, Name: "B"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected duplicate seed error")
	}
}

func TestParseSeeds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"3061:Galatasaray", 1, false},
		{"3061:Galatasaray,,3052:Fenerbahçe", 2, false},
		{"", 0, false},
		{"0:Nobody", 0, true},
		{"abc:Name", 0, true},
		{"3061:", 0, true},
	}
	for _, tc := range cases {
		got, err := parseSeeds(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseSeeds(%q) expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseSeeds(%q): %v", tc.raw, err)
		}
		if len(got) != tc.want {
			t.Fatalf("parseSeeds(%q) len=%d want=%d", tc.raw, len(got), tc.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	if parseLogLevel("WARNING") != logging.LevelWarn {
		t.Fatalf("expected warn level")
	}
	if parseLogLevel("verbose") != logging.LevelInfo {
		t.Fatalf("unknown levels fall back to info")
	}
}
