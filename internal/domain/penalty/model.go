package penalty

import (
	"sort"
)

type Outcome string

const (
	OutcomeScored             Outcome = "scored"
	OutcomeNotAwardedOrMissed Outcome = "not_awarded_or_missed"
)

// Record is one normalized penalty fact. Optional provider values stay nil
// rather than being replaced by zero.
type Record struct {
	MatchID        int64   `json:"match_id"`
	IncidentIndex  int     `json:"incident_index"`
	StartTimestamp int64   `json:"timestamp"`
	MatchDate      string  `json:"match_date"`
	HomeTeam       string  `json:"home_team"`
	AwayTeam       string  `json:"away_team"`
	Round          *int    `json:"round"`
	Minute         *int    `json:"match_minute"`
	AddedTime      *int    `json:"added_time"`
	TakerName      string  `json:"taker_name"`
	TakerTeam      string  `json:"taker_team"`
	IncidentType   string  `json:"incident_type"`
	IncidentClass  string  `json:"incident_class"`
	Origin         string  `json:"from"`
	Outcome        Outcome `json:"outcome"`
	ScoreAtTime    string  `json:"score_at_time"`
	Reason         string  `json:"reason"`
	RawIncident    string  `json:"raw_incident,omitempty"`
}

func (r Record) Scored() bool {
	return r.Outcome == OutcomeScored
}

// InvolvesTeam matches on either side's display name.
func (r Record) InvolvesTeam(name string) bool {
	return r.HomeTeam == name || r.AwayTeam == name
}

// SortByKickoff orders records by kickoff, then match, then feed position.
func SortByKickoff(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].StartTimestamp != records[j].StartTimestamp {
			return records[i].StartTimestamp < records[j].StartTimestamp
		}
		if records[i].MatchID != records[j].MatchID {
			return records[i].MatchID < records[j].MatchID
		}
		return records[i].IncidentIndex < records[j].IncidentIndex
	})
}
