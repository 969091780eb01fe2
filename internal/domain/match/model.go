package match

import (
	"strings"
	"time"
)

const (
	StatusFinished   = "finished"
	StatusInProgress = "inprogress"
	StatusNotStarted = "notstarted"
	StatusPostponed  = "postponed"
	StatusCanceled   = "canceled"
)

// Team is a club as the provider identifies it.
type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Match is one in-competition event returned by discovery.
type Match struct {
	ID             int64
	TournamentID   int64
	SeasonID       int64
	HomeTeam       Team
	AwayTeam       Team
	StartTimestamp int64
	Status         string
	Round          *int
}

func NormalizeStatus(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// IsFinished reports whether incidents for the match are complete.
func (m Match) IsFinished() bool {
	return NormalizeStatus(m.Status) == StatusFinished
}

// KickoffAt converts the provider epoch seconds to UTC.
func (m Match) KickoffAt() time.Time {
	return time.Unix(m.StartTimestamp, 0).UTC()
}

// Date is the kickoff calendar date in UTC, formatted YYYY-MM-DD.
func (m Match) Date() string {
	return m.KickoffAt().Format(time.DateOnly)
}

func (m Match) Participants() []Team {
	return []Team{m.HomeTeam, m.AwayTeam}
}

// HasTeamNames is false when either side lacks a display name.
func (m Match) HasTeamNames() bool {
	return strings.TrimSpace(m.HomeTeam.Name) != "" && strings.TrimSpace(m.AwayTeam.Name) != ""
}
