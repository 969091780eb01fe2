package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/penalty-tracker/internal/domain/penalty"
	"github.com/riskibarqy/penalty-tracker/internal/platform/logging"
	"github.com/riskibarqy/penalty-tracker/internal/usecase"
)

func ptrInt(v int) *int { return &v }

func sampleRecords() []penalty.Record {
	return []penalty.Record{
		{
			MatchID:        11352380,
			IncidentIndex:  4,
			StartTimestamp: 1727539200,
			MatchDate:      "2024-09-28",
			HomeTeam:       "Galatasaray",
			AwayTeam:       "Fenerbahçe",
			Round:          ptrInt(7),
			Minute:         ptrInt(54),
			TakerName:      "Mauro Icardi",
			TakerTeam:      "Galatasaray",
			IncidentType:   "goal",
			IncidentClass:  "regular",
			Origin:         "penalty",
			Outcome:        penalty.OutcomeScored,
			ScoreAtTime:    "1-0",
			RawIncident:    `{"incidentType":"goal","from":"penalty"}`,
		},
	}
}

func newTestExporter(dir string, formats ...string) *Exporter {
	e := NewExporter(dir, formats, logging.NewNop())
	e.now = func() time.Time { return time.Date(2026, 10, 15, 23, 30, 0, 0, time.UTC) }
	return e
}

func TestExporter_WritesBothFormats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths, err := newTestExporter(dir, FormatCSV, FormatJSON).Export(context.Background(), RecordsDataset("Super Lig", sampleRecords()))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 files, got=%v", paths)
	}
	if filepath.Base(paths[0]) != "penalties_super-lig_20261015.csv" || filepath.Base(paths[1]) != "penalties_super-lig_20261015.json" {
		t.Fatalf("unexpected file names: %v", paths)
	}

	raw, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 || len(rows[1]) != len(RecordColumns) {
		t.Fatalf("unexpected csv shape: %d rows", len(rows))
	}
	if rows[1][0] != "11352380" || rows[1][14] != "scored" || rows[1][8] != "" {
		t.Fatalf("unexpected csv row: %v", rows[1])
	}

	var decoded []penalty.Record
	raw, err = os.ReadFile(paths[1])
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(decoded) != 1 || decoded[0].TakerName != "Mauro Icardi" || decoded[0].AddedTime != nil {
		t.Fatalf("unexpected json records: %+v", decoded)
	}
}

func TestExporter_EmptyResultIsValid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths, err := newTestExporter(dir, FormatCSV, FormatJSON).Export(context.Background(), RecordsDataset("Super Lig", nil))
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	csvRaw, _ := os.ReadFile(paths[0])
	if strings.TrimSpace(string(csvRaw)) != strings.Join(RecordColumns, ",") {
		t.Fatalf("expected header-only csv, got=%q", csvRaw)
	}
	jsonRaw, _ := os.ReadFile(paths[1])
	if strings.TrimSpace(string(jsonRaw)) != "[]" {
		t.Fatalf("expected empty json array, got=%q", jsonRaw)
	}
}

func TestExporter_TeamDatasetAddsColumns(t *testing.T) {
	t.Parallel()

	report := usecase.BuildTeamReport(sampleRecords(), "Fenerbahçe")
	var buf bytes.Buffer
	if err := WriteCSV(&buf, TeamDataset(report)); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	last := len(rows[0]) - 1
	if rows[0][last] != "opposition" || rows[0][last-1] != "is_for_team" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][last] != "Galatasaray" || rows[1][last-1] != "false" {
		t.Fatalf("unexpected team row: %v", rows[1])
	}
}

func TestExporter_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := newTestExporter(t.TempDir(), "xlsx").Export(context.Background(), RecordsDataset("x", nil))
	if err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

type unencodable struct{}

func (unencodable) MarshalJSON() ([]byte, error) { return nil, errors.New("cannot encode") }

func TestExporter_FailedFormatWritesNoFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ds := RecordsDataset("Super Lig", sampleRecords())
	ds.JSON = unencodable{}

	_, err := newTestExporter(dir, FormatCSV, FormatJSON).Export(context.Background(), ds)
	if err == nil {
		t.Fatalf("expected json encode error")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		t.Fatalf("expected no files after failed export, got %v", names)
	}
}

func TestSlug(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Super Lig":        "super-lig",
		"  Galatasaray  ":  "galatasaray",
		"Fenerbahçe":       "fenerbahçe",
		"a/b":              "a-b",
		"":                 "all",
		"Premier   League": "premier-league",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Fatalf("Slug(%q)=%q want=%q", in, got, want)
		}
	}
}
