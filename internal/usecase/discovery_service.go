package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/penalty-tracker/internal/domain/match"
	"github.com/riskibarqy/penalty-tracker/internal/domain/rawdata"
	"github.com/riskibarqy/penalty-tracker/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

type DiscoveryConfig struct {
	TournamentID   int64
	SeasonID       int64
	FilterBySeason bool
	// EventPages caps how many history pages are read per team.
	EventPages int
}

type DiscoveryService struct {
	provider SportDataProvider
	archive  rawdata.Repository
	cfg      DiscoveryConfig
	logger   *logging.Logger
}

func NewDiscoveryService(provider SportDataProvider, archive rawdata.Repository, cfg DiscoveryConfig, logger *logging.Logger) *DiscoveryService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.EventPages <= 0 {
		cfg.EventPages = 1
	}
	return &DiscoveryService{
		provider: provider,
		archive:  archive,
		cfg:      cfg,
		logger:   logger,
	}
}

// ListMatches returns the team's recent matches in the configured competition,
// in provider order. Status is not filtered here.
func (s *DiscoveryService) ListMatches(ctx context.Context, teamID int64) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DiscoveryService.ListMatches")
	defer span.End()
	span.SetAttributes(attribute.Int64("team_id", teamID))

	if teamID <= 0 {
		return nil, fmt.Errorf("%w: team id must be positive, got %d", ErrInvalidInput, teamID)
	}

	out := make([]match.Match, 0)
	for page := 0; page < s.cfg.EventPages; page++ {
		resp, err := s.provider.FetchTeamEvents(ctx, teamID, page)
		if err != nil {
			return nil, fmt.Errorf("fetch events team_id=%d page=%d: %w", teamID, page, err)
		}
		s.archivePayload(ctx, resp.Payload)

		for _, ev := range resp.Events {
			if ev.ID <= 0 {
				s.logger.WarnContext(ctx, "skip malformed event without id", "team_id", teamID, "page", page)
				continue
			}
			if ev.TournamentID != s.cfg.TournamentID {
				continue
			}
			if s.cfg.FilterBySeason && ev.SeasonID != s.cfg.SeasonID {
				continue
			}
			out = append(out, toMatch(ev))
		}

		if !resp.HasNextPage {
			break
		}
	}

	s.logger.DebugContext(ctx, "matches discovered", "team_id", teamID, "count", len(out))
	return out, nil
}

func (s *DiscoveryService) archivePayload(ctx context.Context, payload rawdata.Payload) {
	if s.archive == nil || payload.PayloadJSON == "" {
		return
	}
	if err := s.archive.UpsertMany(ctx, []rawdata.Payload{payload}); err != nil {
		s.logger.WarnContext(ctx, "archive raw payload failed", "entity_type", payload.EntityType, "entity_key", payload.EntityKey, "error", err)
	}
}

func toMatch(ev ExternalEvent) match.Match {
	return match.Match{
		ID:             ev.ID,
		TournamentID:   ev.TournamentID,
		SeasonID:       ev.SeasonID,
		HomeTeam:       ev.HomeTeam,
		AwayTeam:       ev.AwayTeam,
		StartTimestamp: ev.StartTimestamp,
		Status:         match.NormalizeStatus(ev.StatusType),
		Round:          ev.Round,
	}
}
