package penalty

import (
	"fmt"

	"github.com/riskibarqy/penalty-tracker/internal/domain/match"
)

// Incident type and class tags used by the provider feed.
const (
	TypeGoal         = "goal"
	TypeVARDecision  = "varDecision"
	TypeCard         = "card"
	TypeSubstitution = "substitution"
	TypePeriod       = "period"

	ClassPenalty           = "penalty"
	ClassPenaltyNotAwarded = "penaltyNotAwarded"

	FromPenalty = "penalty"
)

// Incident is one entry of a match incident feed. Type is the discriminator;
// which of the remaining fields carry data depends on it, so every field is
// optional and absent values decode to nil or "".
type Incident struct {
	Type       string
	Class      string
	From       string
	IsHome     *bool
	Time       *int
	AddedTime  *int
	PlayerName string
	HomeScore  *int
	AwayScore  *int
	Reason     string
	Raw        string
}

// IsPenalty applies the first-match-wins rule:
//  1. goals count only when scored from the spot;
//  2. VAR decisions count only when a penalty was not awarded;
//  3. anything else counts when its class is penalty.
func IsPenalty(in Incident) bool {
	switch in.Type {
	case TypeGoal:
		return in.From == FromPenalty
	case TypeVARDecision:
		return in.Class == ClassPenaltyNotAwarded
	default:
		return in.Class == ClassPenalty
	}
}

// OutcomeOf is scored only for goal incidents. A varDecision never scores,
// which downstream success rates rely on.
func OutcomeOf(in Incident) Outcome {
	if in.Type == TypeGoal {
		return OutcomeScored
	}
	return OutcomeNotAwardedOrMissed
}

// NewRecord builds the record for an incident already known to be a penalty.
// index is the incident's position in the feed.
func NewRecord(m match.Match, in Incident, index int) Record {
	takerTeam := m.AwayTeam.Name
	if in.IsHome != nil && *in.IsHome {
		takerTeam = m.HomeTeam.Name
	}

	return Record{
		MatchID:        m.ID,
		IncidentIndex:  index,
		StartTimestamp: m.StartTimestamp,
		MatchDate:      m.Date(),
		HomeTeam:       m.HomeTeam.Name,
		AwayTeam:       m.AwayTeam.Name,
		Round:          m.Round,
		Minute:         in.Time,
		AddedTime:      in.AddedTime,
		TakerName:      in.PlayerName,
		TakerTeam:      takerTeam,
		IncidentType:   in.Type,
		IncidentClass:  in.Class,
		Origin:         in.From,
		Outcome:        OutcomeOf(in),
		ScoreAtTime:    FormatScore(in.HomeScore, in.AwayScore),
		Reason:         in.Reason,
		RawIncident:    in.Raw,
	}
}

// Classify keeps the penalties of a feed in feed order.
func Classify(m match.Match, incidents []Incident) []Record {
	out := make([]Record, 0)
	for idx, item := range incidents {
		if !IsPenalty(item) {
			continue
		}
		out = append(out, NewRecord(m, item, idx))
	}
	return out
}

func FormatScore(home, away *int) string {
	return fmt.Sprintf("%d-%d", valueOrZero(home), valueOrZero(away))
}

func valueOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
