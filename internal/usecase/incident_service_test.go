package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/penalty-tracker/internal/domain/match"
	"github.com/riskibarqy/penalty-tracker/internal/domain/penalty"
	"github.com/riskibarqy/penalty-tracker/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func finishedMatch(id int64) match.Match {
	return toMatch(event(id, teamGalatasaray, teamFenerbahce, "finished", 1727539200))
}

func TestIncidentService_ExtractPenalties_FeedOrder(t *testing.T) {
	t.Parallel()

	provider := newProviderMock(t)
	provider.
		On("FetchEventIncidents", mock.Anything, int64(11)).
		Return(ExternalIncidentFeed{Incidents: []penalty.Incident{
			{Type: penalty.TypePeriod},
			scoredHomePenalty(54),
			{Type: penalty.TypeCard, Class: "yellow"},
			varNotAwarded(71),
		}}, nil).
		Once()

	svc := NewIncidentService(provider, nil, logging.NewNop())
	got, err := svc.ExtractPenalties(context.Background(), finishedMatch(11))
	if err != nil {
		t.Fatalf("extract penalties: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 penalties, got=%d", len(got))
	}
	if got[0].Outcome != penalty.OutcomeScored || got[0].TakerTeam != "Galatasaray" {
		t.Fatalf("unexpected first record: %+v", got[0])
	}
	if got[1].Outcome != penalty.OutcomeNotAwardedOrMissed || got[1].TakerName != "" || got[1].TakerTeam != "Fenerbahçe" {
		t.Fatalf("unexpected second record: %+v", got[1])
	}
}

func TestIncidentService_ExtractPenalties_EmptyFeed(t *testing.T) {
	t.Parallel()

	provider := newProviderMock(t)
	provider.
		On("FetchEventIncidents", mock.Anything, int64(12)).
		Return(ExternalIncidentFeed{}, nil).
		Once()

	svc := NewIncidentService(provider, nil, logging.NewNop())
	got, err := svc.ExtractPenalties(context.Background(), finishedMatch(12))
	if err != nil {
		t.Fatalf("extract penalties: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no penalties, got=%d", len(got))
	}
}

func TestIncidentService_ExtractPenalties_MalformedMatchIsNotFetched(t *testing.T) {
	t.Parallel()

	m := finishedMatch(13)
	m.AwayTeam.Name = ""

	svc := NewIncidentService(newProviderMock(t), nil, logging.NewNop())
	_, err := svc.ExtractPenalties(context.Background(), m)
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected malformed record, got=%v", err)
	}
}
