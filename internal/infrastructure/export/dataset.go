package export

import (
	"strconv"

	"github.com/riskibarqy/penalty-tracker/internal/domain/penalty"
	"github.com/riskibarqy/penalty-tracker/internal/usecase"
)

// RecordColumns is the fixed CSV layout, one row per penalty.
var RecordColumns = []string{
	"match_id",
	"incident_index",
	"timestamp",
	"match_date",
	"home_team",
	"away_team",
	"round",
	"match_minute",
	"added_time",
	"taker_name",
	"taker_team",
	"incident_type",
	"incident_class",
	"from",
	"outcome",
	"score_at_time",
	"reason",
	"raw_incident",
}

var teamColumns = append(append([]string(nil), RecordColumns...), "is_for_team", "opposition")

// Dataset is a table plus the value serialized for JSON output.
type Dataset struct {
	Scope  string
	Header []string
	Rows   [][]string
	JSON   any
}

func RecordsDataset(scope string, records []penalty.Record) Dataset {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, recordRow(rec))
	}
	if records == nil {
		records = []penalty.Record{}
	}
	return Dataset{
		Scope:  scope,
		Header: RecordColumns,
		Rows:   rows,
		JSON:   records,
	}
}

func TeamDataset(report usecase.TeamReport) Dataset {
	rows := make([][]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		rows = append(rows, append(recordRow(row.Record), strconv.FormatBool(row.IsForTeam), row.Opposition))
	}
	items := report.Rows
	if items == nil {
		items = []usecase.TeamReportRow{}
	}
	return Dataset{
		Scope:  report.Team,
		Header: teamColumns,
		Rows:   rows,
		JSON:   items,
	}
}

func recordRow(rec penalty.Record) []string {
	return []string{
		strconv.FormatInt(rec.MatchID, 10),
		strconv.Itoa(rec.IncidentIndex),
		strconv.FormatInt(rec.StartTimestamp, 10),
		rec.MatchDate,
		rec.HomeTeam,
		rec.AwayTeam,
		optionalInt(rec.Round),
		optionalInt(rec.Minute),
		optionalInt(rec.AddedTime),
		rec.TakerName,
		rec.TakerTeam,
		rec.IncidentType,
		rec.IncidentClass,
		rec.Origin,
		string(rec.Outcome),
		rec.ScoreAtTime,
		rec.Reason,
		rec.RawIncident,
	}
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
