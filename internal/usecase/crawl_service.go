package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/penalty-tracker/internal/domain/match"
	"github.com/riskibarqy/penalty-tracker/internal/domain/penalty"
	"github.com/riskibarqy/penalty-tracker/internal/platform/id"
	"github.com/riskibarqy/penalty-tracker/internal/platform/logging"
	"github.com/riskibarqy/penalty-tracker/internal/platform/resilience"
	"go.opentelemetry.io/otel/attribute"
)

const defaultMaxTeamExpansions = 1000

type matchLister interface {
	ListMatches(ctx context.Context, teamID int64) ([]match.Match, error)
}

type penaltyExtractor interface {
	ExtractPenalties(ctx context.Context, m match.Match) ([]penalty.Record, error)
}

type CrawlConfig struct {
	// Workers > 1 extracts the matches of one expansion concurrently.
	Workers int
	// MaxTeamExpansions stops the traversal once this many teams were
	// expanded. Zero means the default; negative disables the ceiling.
	MaxTeamExpansions int
}

type CrawlResult struct {
	RunID            string           `json:"run_id"`
	Records          []penalty.Record `json:"records"`
	TeamsVisited     int              `json:"teams_visited"`
	MatchesVisited   int              `json:"matches_visited"`
	MatchesSkipped   int              `json:"matches_skipped"`
	MalformedSkipped int              `json:"malformed_skipped"`
	Truncated        bool             `json:"truncated"`
	StartedAt        time.Time        `json:"started_at"`
	FinishedAt       time.Time        `json:"finished_at"`
}

type CrawlService struct {
	discovery matchLister
	incidents penaltyExtractor
	pacer     *resilience.Pacer
	ids       id.Generator
	observer  CrawlObserver
	cfg       CrawlConfig
	logger    *logging.Logger
	now       func() time.Time
}

func NewCrawlService(
	discovery matchLister,
	incidents penaltyExtractor,
	pacer *resilience.Pacer,
	ids id.Generator,
	observer CrawlObserver,
	cfg CrawlConfig,
	logger *logging.Logger,
) *CrawlService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxTeamExpansions == 0 {
		cfg.MaxTeamExpansions = defaultMaxTeamExpansions
	}
	return &CrawlService{
		discovery: discovery,
		incidents: incidents,
		pacer:     pacer,
		ids:       ids,
		observer:  observer,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

type crawlState struct {
	queue        []match.Team
	visitedTeams map[int64]struct{}
	visitedMatch map[int64]struct{}
	expansions   int
}

func newCrawlState(seeds []match.Team) *crawlState {
	queue := make([]match.Team, len(seeds))
	copy(queue, seeds)
	return &crawlState{
		queue:        queue,
		visitedTeams: make(map[int64]struct{}),
		visitedMatch: make(map[int64]struct{}),
	}
}

func (s *crawlState) pop() match.Team {
	head := s.queue[0]
	s.queue = s.queue[1:]
	return head
}

// dropVisitedHead discards queued teams that were expanded after they were
// enqueued, so the head is always a team still waiting for expansion.
func (s *crawlState) dropVisitedHead() {
	for len(s.queue) > 0 {
		if _, seen := s.visitedTeams[s.queue[0].ID]; !seen {
			return
		}
		s.queue = s.queue[1:]
	}
}

func (s *crawlState) enqueue(team match.Team) {
	if team.ID <= 0 {
		return
	}
	if _, seen := s.visitedTeams[team.ID]; seen {
		return
	}
	s.queue = append(s.queue, team)
}

type extraction struct {
	records   []penalty.Record
	malformed bool
}

// Crawl walks the competition breadth-first from seeds and returns every
// penalty found in finished matches. Any transport failure aborts the run.
func (s *CrawlService) Crawl(ctx context.Context, seeds []match.Team) (CrawlResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CrawlService.Crawl")
	defer span.End()

	if len(seeds) == 0 {
		return CrawlResult{}, fmt.Errorf("%w: at least one seed team is required", ErrInvalidInput)
	}

	runID, err := s.ids.NewID()
	if err != nil {
		return CrawlResult{}, err
	}
	span.SetAttributes(attribute.String("run_id", runID))
	logger := s.logger.With("run_id", runID)

	var pool *ants.Pool
	if s.cfg.Workers > 1 {
		pool, err = ants.NewPool(s.cfg.Workers)
		if err != nil {
			return CrawlResult{}, fmt.Errorf("create worker pool: %w", err)
		}
		defer pool.Release()
	}

	result := CrawlResult{
		RunID:     runID,
		Records:   make([]penalty.Record, 0),
		StartedAt: s.now().UTC(),
	}
	state := newCrawlState(seeds)
	logger.InfoContext(ctx, "crawl started", "seeds", len(seeds), "workers", s.cfg.Workers)

	for state.dropVisitedHead(); len(state.queue) > 0; state.dropVisitedHead() {
		if err := ctx.Err(); err != nil {
			return CrawlResult{}, err
		}
		if s.cfg.MaxTeamExpansions > 0 && state.expansions >= s.cfg.MaxTeamExpansions {
			result.Truncated = true
			logger.WarnContext(ctx, "team expansion ceiling reached, stopping crawl",
				"max_team_expansions", s.cfg.MaxTeamExpansions,
				"queued", len(state.queue),
			)
			break
		}

		team := state.pop()
		state.visitedTeams[team.ID] = struct{}{}
		state.expansions++
		s.observer.TeamExpanded()

		matches, err := s.discovery.ListMatches(ctx, team.ID)
		if err != nil {
			return CrawlResult{}, fmt.Errorf("expand team_id=%d name=%q: %w", team.ID, team.Name, err)
		}

		batch := make([]match.Match, 0, len(matches))
		for _, m := range matches {
			if _, seen := state.visitedMatch[m.ID]; seen {
				continue
			}
			if !m.IsFinished() {
				result.MatchesSkipped++
				logger.DebugContext(ctx, "skip unfinished match", "match_id", m.ID, "status", m.Status)
				continue
			}
			state.visitedMatch[m.ID] = struct{}{}
			batch = append(batch, m)
		}

		extracted, err := s.extractAll(ctx, pool, batch)
		if err != nil {
			return CrawlResult{}, err
		}

		for i, m := range batch {
			s.observer.MatchProcessed()
			if extracted[i].malformed {
				result.MalformedSkipped++
			} else {
				for _, rec := range extracted[i].records {
					s.observer.PenaltyFound(rec.Outcome)
				}
				result.Records = append(result.Records, extracted[i].records...)
			}
			for _, participant := range m.Participants() {
				state.enqueue(participant)
			}
		}

		logger.InfoContext(ctx, "team expanded",
			"team_id", team.ID,
			"team_name", team.Name,
			"matches", len(batch),
			"queued", len(state.queue),
			"penalties_total", len(result.Records),
		)
	}

	penalty.SortByKickoff(result.Records)
	result.TeamsVisited = len(state.visitedTeams)
	result.MatchesVisited = len(state.visitedMatch)
	result.FinishedAt = s.now().UTC()

	logger.InfoContext(ctx, "crawl finished",
		"teams_visited", result.TeamsVisited,
		"matches_visited", result.MatchesVisited,
		"matches_skipped", result.MatchesSkipped,
		"malformed_skipped", result.MalformedSkipped,
		"penalties", len(result.Records),
		"truncated", result.Truncated,
	)
	return result, nil
}

func (s *CrawlService) extractAll(ctx context.Context, pool *ants.Pool, batch []match.Match) ([]extraction, error) {
	out := make([]extraction, len(batch))
	if pool == nil || len(batch) <= 1 {
		for i, m := range batch {
			item, err := s.extractOne(ctx, m)
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		workers  sync.WaitGroup
		failOnce sync.Once
		firstErr error
	)
	fail := func(err error) {
		failOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i, m := range batch {
		i, m := i, m
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			if ctx.Err() != nil {
				return
			}
			item, err := s.extractOne(ctx, m)
			if err != nil {
				fail(err)
				return
			}
			out[i] = item
		}); err != nil {
			workers.Done()
			fail(fmt.Errorf("submit task to worker pool: %w", err))
			break
		}
	}
	workers.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CrawlService) extractOne(ctx context.Context, m match.Match) (extraction, error) {
	if err := s.pacer.Wait(ctx); err != nil {
		return extraction{}, err
	}
	records, err := s.incidents.ExtractPenalties(ctx, m)
	if errors.Is(err, ErrMalformedRecord) {
		s.logger.WarnContext(ctx, "skip malformed match", "match_id", m.ID, "error", err)
		return extraction{malformed: true}, nil
	}
	if err != nil {
		return extraction{}, err
	}
	return extraction{records: records}, nil
}
