package usecase

import (
	"context"

	"github.com/riskibarqy/penalty-tracker/internal/domain/match"
	"github.com/riskibarqy/penalty-tracker/internal/domain/penalty"
	"github.com/riskibarqy/penalty-tracker/internal/domain/rawdata"
)

// SportDataProvider is the read-only view of the upstream statistics API.
type SportDataProvider interface {
	FetchTeamEvents(ctx context.Context, teamID int64, page int) (ExternalTeamEvents, error)
	FetchEventIncidents(ctx context.Context, eventID int64) (ExternalIncidentFeed, error)
}

type ExternalTeamEvents struct {
	Events      []ExternalEvent
	HasNextPage bool
	Payload     rawdata.Payload
}

type ExternalEvent struct {
	ID             int64
	TournamentID   int64
	SeasonID       int64
	HomeTeam       match.Team
	AwayTeam       match.Team
	StartTimestamp int64
	StatusType     string
	Round          *int
}

type ExternalIncidentFeed struct {
	Incidents []penalty.Incident
	Payload   rawdata.Payload
}

// CrawlObserver receives progress signals; metrics hang off it.
type CrawlObserver interface {
	TeamExpanded()
	MatchProcessed()
	PenaltyFound(outcome penalty.Outcome)
}

type noopObserver struct{}

func (noopObserver) TeamExpanded()                {}
func (noopObserver) MatchProcessed()              {}
func (noopObserver) PenaltyFound(penalty.Outcome) {}
