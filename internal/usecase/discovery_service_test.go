package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/penalty-tracker/internal/domain/rawdata"
	rawdatamock "github.com/riskibarqy/penalty-tracker/internal/mocks/domain/rawdata"
	"github.com/riskibarqy/penalty-tracker/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func TestDiscoveryService_ListMatches_FiltersByTournament(t *testing.T) {
	t.Parallel()

	provider := newProviderMock(t)
	other := event(7, teamGalatasaray, teamBesiktas, "finished", 100)
	other.TournamentID = 17
	provider.
		On("FetchTeamEvents", mock.Anything, teamGalatasaray.ID, 0).
		Return(ExternalTeamEvents{Events: []ExternalEvent{
			event(1, teamGalatasaray, teamFenerbahce, "finished", 200),
			other,
			event(0, teamGalatasaray, teamFenerbahce, "finished", 300),
			event(2, teamBesiktas, teamGalatasaray, "inprogress", 400),
		}}, nil).
		Once()

	svc := NewDiscoveryService(provider, nil, DiscoveryConfig{TournamentID: testTournamentID}, logging.NewNop())
	got, err := svc.ListMatches(context.Background(), teamGalatasaray.ID)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 in-competition matches, got=%d", len(got))
	}
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("expected provider order, got=%d,%d", got[0].ID, got[1].ID)
	}
	if got[1].IsFinished() {
		t.Fatalf("status filtering belongs to the caller")
	}
}

func TestDiscoveryService_ListMatches_SeasonFilterIsOptIn(t *testing.T) {
	t.Parallel()

	oldSeason := event(5, teamGalatasaray, teamFenerbahce, "finished", 100)
	oldSeason.SeasonID = 52000

	for _, tc := range []struct {
		name   string
		filter bool
		want   int
	}{
		{"off", false, 2},
		{"on", true, 1},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			provider := newProviderMock(t)
			provider.
				On("FetchTeamEvents", mock.Anything, teamGalatasaray.ID, 0).
				Return(ExternalTeamEvents{Events: []ExternalEvent{oldSeason, event(6, teamGalatasaray, teamBesiktas, "finished", 200)}}, nil).
				Once()

			svc := NewDiscoveryService(provider, nil, DiscoveryConfig{
				TournamentID:   testTournamentID,
				SeasonID:       63814,
				FilterBySeason: tc.filter,
			}, logging.NewNop())
			got, err := svc.ListMatches(context.Background(), teamGalatasaray.ID)
			if err != nil {
				t.Fatalf("list matches: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("expected %d matches, got=%d", tc.want, len(got))
			}
		})
	}
}

func TestDiscoveryService_ListMatches_FollowsPagesUpToLimit(t *testing.T) {
	t.Parallel()

	provider := newProviderMock(t)
	provider.
		On("FetchTeamEvents", mock.Anything, teamGalatasaray.ID, 0).
		Return(ExternalTeamEvents{Events: []ExternalEvent{event(1, teamGalatasaray, teamFenerbahce, "finished", 100)}, HasNextPage: true}, nil).
		Once()
	provider.
		On("FetchTeamEvents", mock.Anything, teamGalatasaray.ID, 1).
		Return(ExternalTeamEvents{Events: []ExternalEvent{event(2, teamBesiktas, teamGalatasaray, "finished", 50)}, HasNextPage: true}, nil).
		Once()

	svc := NewDiscoveryService(provider, nil, DiscoveryConfig{TournamentID: testTournamentID, EventPages: 2}, logging.NewNop())
	got, err := svc.ListMatches(context.Background(), teamGalatasaray.ID)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected matches from both pages, got=%d", len(got))
	}
}

func TestDiscoveryService_ListMatches_EmptyHistory(t *testing.T) {
	t.Parallel()

	provider := newProviderMock(t)
	provider.
		On("FetchTeamEvents", mock.Anything, teamGalatasaray.ID, 0).
		Return(ExternalTeamEvents{}, nil).
		Once()

	svc := NewDiscoveryService(provider, nil, DiscoveryConfig{TournamentID: testTournamentID}, logging.NewNop())
	got, err := svc.ListMatches(context.Background(), teamGalatasaray.ID)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got=%#v", got)
	}
}

func TestDiscoveryService_ListMatches_ArchivesPayload(t *testing.T) {
	t.Parallel()

	payload := rawdata.Payload{
		Source:      rawdata.SourceSofascore,
		EntityType:  rawdata.EntityTeamEvents,
		EntityKey:   "3061:0",
		PayloadJSON: `{"events":[]}`,
	}
	provider := newProviderMock(t)
	provider.
		On("FetchTeamEvents", mock.Anything, teamGalatasaray.ID, 0).
		Return(ExternalTeamEvents{Payload: payload}, nil).
		Once()
	archive := rawdatamock.NewRepository(t)
	archive.
		On("UpsertMany", mock.Anything, []rawdata.Payload{payload}).
		Return(errors.New("disk full")).
		Once()

	svc := NewDiscoveryService(provider, archive, DiscoveryConfig{TournamentID: testTournamentID}, logging.NewNop())
	if _, err := svc.ListMatches(context.Background(), teamGalatasaray.ID); err != nil {
		t.Fatalf("archive failures must not fail discovery: %v", err)
	}
}

func TestDiscoveryService_ListMatches_PropagatesTransportError(t *testing.T) {
	t.Parallel()

	provider := newProviderMock(t)
	provider.
		On("FetchTeamEvents", mock.Anything, teamGalatasaray.ID, 0).
		Return(ExternalTeamEvents{}, &TransportError{Path: "/team/3061/events/last/0", Attempts: 3, Err: errors.New("status 503")}).
		Once()

	svc := NewDiscoveryService(provider, nil, DiscoveryConfig{TournamentID: testTournamentID}, logging.NewNop())
	_, err := svc.ListMatches(context.Background(), teamGalatasaray.ID)

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected transport error, got=%v", err)
	}
	if transportErr.Attempts != 3 {
		t.Fatalf("unexpected attempts: %d", transportErr.Attempts)
	}
}

func TestDiscoveryService_ListMatches_RejectsInvalidTeam(t *testing.T) {
	t.Parallel()

	svc := NewDiscoveryService(newProviderMock(t), nil, DiscoveryConfig{}, logging.NewNop())
	if _, err := svc.ListMatches(context.Background(), 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got=%v", err)
	}
}
