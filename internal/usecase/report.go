package usecase

import (
	"sort"

	"github.com/riskibarqy/penalty-tracker/internal/domain/penalty"
)

// Tally counts penalties by outcome. NotScored covers missed, saved and
// not awarded alike.
type Tally struct {
	Total     int `json:"total"`
	Scored    int `json:"scored"`
	NotScored int `json:"not_scored"`
}

func (t *Tally) add(rec penalty.Record) {
	t.Total++
	if rec.Scored() {
		t.Scored++
		return
	}
	t.NotScored++
}

type TakerTeamTally struct {
	Team string `json:"team"`
	Tally
}

type Summary struct {
	Overall     Tally            `json:"overall"`
	ByTakerTeam []TakerTeamTally `json:"by_taker_team"`
}

// Summarize totals records overall and per taker team. Teams are ordered by
// total descending, then name.
func Summarize(records []penalty.Record) Summary {
	var out Summary
	byTeam := make(map[string]*Tally)
	for _, rec := range records {
		out.Overall.add(rec)
		tally, ok := byTeam[rec.TakerTeam]
		if !ok {
			tally = &Tally{}
			byTeam[rec.TakerTeam] = tally
		}
		tally.add(rec)
	}

	out.ByTakerTeam = make([]TakerTeamTally, 0, len(byTeam))
	for name, tally := range byTeam {
		out.ByTakerTeam = append(out.ByTakerTeam, TakerTeamTally{Team: name, Tally: *tally})
	}
	sort.Slice(out.ByTakerTeam, func(i, j int) bool {
		if out.ByTakerTeam[i].Total != out.ByTakerTeam[j].Total {
			return out.ByTakerTeam[i].Total > out.ByTakerTeam[j].Total
		}
		return out.ByTakerTeam[i].Team < out.ByTakerTeam[j].Team
	})
	return out
}

type TeamReportRow struct {
	penalty.Record
	IsForTeam  bool   `json:"is_for_team"`
	Opposition string `json:"opposition"`
}

type TeamReport struct {
	Team    string          `json:"team"`
	Rows    []TeamReportRow `json:"rows"`
	For     Tally           `json:"for"`
	Against Tally           `json:"against"`
}

// BuildTeamReport keeps the records involving teamName and splits them into
// penalties taken by the team and against it.
func BuildTeamReport(records []penalty.Record, teamName string) TeamReport {
	report := TeamReport{
		Team: teamName,
		Rows: make([]TeamReportRow, 0, len(records)),
	}
	for _, rec := range records {
		if !rec.InvolvesTeam(teamName) {
			continue
		}
		row := TeamReportRow{
			Record:     rec,
			IsForTeam:  rec.TakerTeam == teamName,
			Opposition: rec.HomeTeam,
		}
		if rec.HomeTeam == teamName {
			row.Opposition = rec.AwayTeam
		}
		if row.IsForTeam {
			report.For.add(rec)
		} else {
			report.Against.add(rec)
		}
		report.Rows = append(report.Rows, row)
	}
	return report
}

// Records strips the report annotations.
func (r TeamReport) Records() []penalty.Record {
	out := make([]penalty.Record, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, row.Record)
	}
	return out
}
