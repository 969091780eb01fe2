package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/penalty-tracker/internal/domain/match"
	"github.com/riskibarqy/penalty-tracker/internal/domain/penalty"
	"github.com/stretchr/testify/mock"
)

const testTournamentID = 52

type providerMock struct {
	mock.Mock
}

func newProviderMock(t interface {
	mock.TestingT
	Cleanup(func())
}) *providerMock {
	m := &providerMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *providerMock) FetchTeamEvents(ctx context.Context, teamID int64, page int) (ExternalTeamEvents, error) {
	args := m.Called(ctx, teamID, page)
	return args.Get(0).(ExternalTeamEvents), args.Error(1)
}

func (m *providerMock) FetchEventIncidents(ctx context.Context, eventID int64) (ExternalIncidentFeed, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(ExternalIncidentFeed), args.Error(1)
}

type countingObserver struct {
	mu       sync.Mutex
	teams    int
	matches  int
	outcomes map[penalty.Outcome]int
}

func (o *countingObserver) TeamExpanded() {
	o.mu.Lock()
	o.teams++
	o.mu.Unlock()
}

func (o *countingObserver) MatchProcessed() {
	o.mu.Lock()
	o.matches++
	o.mu.Unlock()
}

func (o *countingObserver) PenaltyFound(outcome penalty.Outcome) {
	o.mu.Lock()
	if o.outcomes == nil {
		o.outcomes = make(map[penalty.Outcome]int)
	}
	o.outcomes[outcome]++
	o.mu.Unlock()
}

type pacingRecorder struct {
	mu    sync.Mutex
	calls int
}

func (r *pacingRecorder) sleep(ctx context.Context, _ time.Duration) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return ctx.Err()
}

func (r *pacingRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func ptrBool(v bool) *bool { return &v }
func ptrInt(v int) *int    { return &v }

var (
	teamGalatasaray = match.Team{ID: 3061, Name: "Galatasaray"}
	teamFenerbahce  = match.Team{ID: 3052, Name: "Fenerbahçe"}
	teamBesiktas    = match.Team{ID: 3050, Name: "Beşiktaş"}
)

func event(id int64, home, away match.Team, status string, kickoff int64) ExternalEvent {
	return ExternalEvent{
		ID:             id,
		TournamentID:   testTournamentID,
		SeasonID:       63814,
		HomeTeam:       home,
		AwayTeam:       away,
		StartTimestamp: kickoff,
		StatusType:     status,
	}
}

func scoredHomePenalty(minute int) penalty.Incident {
	return penalty.Incident{
		Type:       penalty.TypeGoal,
		Class:      "regular",
		From:       penalty.FromPenalty,
		IsHome:     ptrBool(true),
		Time:       ptrInt(minute),
		PlayerName: "Mauro Icardi",
		HomeScore:  ptrInt(1),
		AwayScore:  ptrInt(0),
	}
}

func varNotAwarded(minute int) penalty.Incident {
	return penalty.Incident{
		Type:   penalty.TypeVARDecision,
		Class:  penalty.ClassPenaltyNotAwarded,
		IsHome: ptrBool(false),
		Time:   ptrInt(minute),
	}
}
