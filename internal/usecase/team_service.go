package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/penalty-tracker/internal/domain/match"
	"github.com/riskibarqy/penalty-tracker/internal/domain/penalty"
	"github.com/riskibarqy/penalty-tracker/internal/platform/logging"
	"github.com/riskibarqy/penalty-tracker/internal/platform/resilience"
	"go.opentelemetry.io/otel/attribute"
)

// TeamPenaltyService gathers penalties for one team's recent matches without
// expanding to opponents.
type TeamPenaltyService struct {
	discovery matchLister
	incidents penaltyExtractor
	pacer     *resilience.Pacer
	observer  CrawlObserver
	logger    *logging.Logger
}

func NewTeamPenaltyService(discovery matchLister, incidents penaltyExtractor, pacer *resilience.Pacer, observer CrawlObserver, logger *logging.Logger) *TeamPenaltyService {
	if logger == nil {
		logger = logging.Default()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &TeamPenaltyService{
		discovery: discovery,
		incidents: incidents,
		pacer:     pacer,
		observer:  observer,
		logger:    logger,
	}
}

func (s *TeamPenaltyService) Collect(ctx context.Context, team match.Team) ([]penalty.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamPenaltyService.Collect")
	defer span.End()
	span.SetAttributes(attribute.Int64("team_id", team.ID))

	if team.ID <= 0 {
		return nil, fmt.Errorf("%w: team id must be positive, got %d", ErrInvalidInput, team.ID)
	}
	if strings.TrimSpace(team.Name) == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}

	s.observer.TeamExpanded()
	matches, err := s.discovery.ListMatches(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("list matches team_id=%d: %w", team.ID, err)
	}

	seen := make(map[int64]struct{}, len(matches))
	out := make([]penalty.Record, 0)
	for _, m := range matches {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		if !m.IsFinished() {
			s.logger.DebugContext(ctx, "skip unfinished match", "match_id", m.ID, "status", m.Status)
			continue
		}

		if err := s.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		records, err := s.incidents.ExtractPenalties(ctx, m)
		if errors.Is(err, ErrMalformedRecord) {
			s.logger.WarnContext(ctx, "skip malformed match", "match_id", m.ID, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		s.observer.MatchProcessed()

		for _, rec := range records {
			if !rec.InvolvesTeam(team.Name) {
				continue
			}
			s.observer.PenaltyFound(rec.Outcome)
			out = append(out, rec)
		}
	}

	penalty.SortByKickoff(out)
	s.logger.InfoContext(ctx, "team penalties collected", "team_id", team.ID, "team_name", team.Name, "matches", len(seen), "penalties", len(out))
	return out, nil
}
