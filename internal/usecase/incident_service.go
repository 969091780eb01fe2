package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/penalty-tracker/internal/domain/match"
	"github.com/riskibarqy/penalty-tracker/internal/domain/penalty"
	"github.com/riskibarqy/penalty-tracker/internal/domain/rawdata"
	"github.com/riskibarqy/penalty-tracker/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

type IncidentService struct {
	provider SportDataProvider
	archive  rawdata.Repository
	logger   *logging.Logger
}

func NewIncidentService(provider SportDataProvider, archive rawdata.Repository, logger *logging.Logger) *IncidentService {
	if logger == nil {
		logger = logging.Default()
	}
	return &IncidentService{
		provider: provider,
		archive:  archive,
		logger:   logger,
	}
}

// ExtractPenalties fetches the match incident feed once and returns its
// penalty events in feed order.
func (s *IncidentService) ExtractPenalties(ctx context.Context, m match.Match) ([]penalty.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IncidentService.ExtractPenalties")
	defer span.End()
	span.SetAttributes(attribute.Int64("match_id", m.ID))

	if m.ID <= 0 {
		return nil, fmt.Errorf("%w: match id must be positive, got %d", ErrInvalidInput, m.ID)
	}
	if !m.HasTeamNames() {
		return nil, fmt.Errorf("%w: match_id=%d is missing team names", ErrMalformedRecord, m.ID)
	}

	feed, err := s.provider.FetchEventIncidents(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch incidents match_id=%d: %w", m.ID, err)
	}
	if s.archive != nil && feed.Payload.PayloadJSON != "" {
		if err := s.archive.UpsertMany(ctx, []rawdata.Payload{feed.Payload}); err != nil {
			s.logger.WarnContext(ctx, "archive raw payload failed", "entity_type", feed.Payload.EntityType, "entity_key", feed.Payload.EntityKey, "error", err)
		}
	}

	records := penalty.Classify(m, feed.Incidents)
	if len(records) > 0 {
		s.logger.DebugContext(ctx, "penalties found", "match_id", m.ID, "count", len(records))
	}
	return records, nil
}
