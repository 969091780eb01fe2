package sofascore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/penalty-tracker/internal/domain/match"
	"github.com/riskibarqy/penalty-tracker/internal/domain/penalty"
	"github.com/riskibarqy/penalty-tracker/internal/domain/rawdata"
	"github.com/riskibarqy/penalty-tracker/internal/usecase"
)

var _ usecase.SportDataProvider = (*Client)(nil)

func (c *Client) FetchTeamEvents(ctx context.Context, teamID int64, page int) (usecase.ExternalTeamEvents, error) {
	if teamID <= 0 {
		return usecase.ExternalTeamEvents{}, fmt.Errorf("%w: team id must be greater than zero", usecase.ErrInvalidInput)
	}
	if page < 0 {
		page = 0
	}

	path := teamEventsPath(teamID, page)
	raw, err := c.fetch(ctx, resourceTeamEvents, path)
	if err != nil {
		return usecase.ExternalTeamEvents{}, err
	}

	var envelope teamEventsEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return usecase.ExternalTeamEvents{}, crerr.Wrapf(err, "decode team events team_id=%d page=%d", teamID, page)
	}

	out := usecase.ExternalTeamEvents{
		Events:      make([]usecase.ExternalEvent, 0, len(envelope.Events)),
		HasNextPage: envelope.HasNextPage,
		Payload:     c.buildPayload(rawdata.EntityTeamEvents, fmt.Sprintf("%d:%d", teamID, page), path, raw),
	}
	for i, item := range envelope.Events {
		var ev eventItem
		if err := sonic.Unmarshal(item, &ev); err != nil {
			c.logger.WarnContext(ctx, "skip undecodable event", "team_id", teamID, "page", page, "index", i, "error", err)
			continue
		}
		out.Events = append(out.Events, ev.toExternal())
	}
	return out, nil
}

func (c *Client) FetchEventIncidents(ctx context.Context, eventID int64) (usecase.ExternalIncidentFeed, error) {
	if eventID <= 0 {
		return usecase.ExternalIncidentFeed{}, fmt.Errorf("%w: event id must be greater than zero", usecase.ErrInvalidInput)
	}

	path := incidentsPath(eventID)
	raw, err := c.fetch(ctx, resourceIncidents, path)
	if err != nil {
		return usecase.ExternalIncidentFeed{}, err
	}

	var envelope incidentsEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return usecase.ExternalIncidentFeed{}, crerr.Wrapf(err, "decode incidents event_id=%d", eventID)
	}

	out := usecase.ExternalIncidentFeed{
		Incidents: make([]penalty.Incident, 0, len(envelope.Incidents)),
		Payload:   c.buildPayload(rawdata.EntityEventIncidents, strconv.FormatInt(eventID, 10), path, raw),
	}
	for i, item := range envelope.Incidents {
		var in incidentItem
		if err := sonic.Unmarshal(item, &in); err != nil {
			c.logger.WarnContext(ctx, "skip undecodable incident", "event_id", eventID, "index", i, "error", err)
			continue
		}
		out.Incidents = append(out.Incidents, in.toIncident(string(item)))
	}
	return out, nil
}

func (c *Client) buildPayload(entityType, entityKey, path string, raw []byte) rawdata.Payload {
	body := string(raw)
	return rawdata.Payload{
		Source:      rawdata.SourceSofascore,
		EntityType:  entityType,
		EntityKey:   entityKey,
		Path:        path,
		PayloadJSON: body,
		PayloadHash: rawdata.Hash(body),
		FetchedAt:   c.now().UTC(),
	}
}

// Items are kept raw so one odd record does not sink the whole page.
type teamEventsEnvelope struct {
	Events      []json.RawMessage `json:"events"`
	HasNextPage bool              `json:"hasNextPage"`
}

type incidentsEnvelope struct {
	Incidents []json.RawMessage `json:"incidents"`
}

type idRef struct {
	ID int64 `json:"id"`
}

type teamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type eventItem struct {
	ID         int64 `json:"id"`
	Tournament *struct {
		UniqueTournament *idRef `json:"uniqueTournament"`
	} `json:"tournament"`
	Season   *idRef   `json:"season"`
	HomeTeam *teamRef `json:"homeTeam"`
	AwayTeam *teamRef `json:"awayTeam"`
	Status   *struct {
		Type string `json:"type"`
	} `json:"status"`
	StartTimestamp int64 `json:"startTimestamp"`
	RoundInfo      *struct {
		Round *int `json:"round"`
	} `json:"roundInfo"`
}

func (e eventItem) toExternal() usecase.ExternalEvent {
	out := usecase.ExternalEvent{
		ID:             e.ID,
		StartTimestamp: e.StartTimestamp,
	}
	if e.Tournament != nil && e.Tournament.UniqueTournament != nil {
		out.TournamentID = e.Tournament.UniqueTournament.ID
	}
	if e.Season != nil {
		out.SeasonID = e.Season.ID
	}
	if e.HomeTeam != nil {
		out.HomeTeam = match.Team{ID: e.HomeTeam.ID, Name: e.HomeTeam.Name}
	}
	if e.AwayTeam != nil {
		out.AwayTeam = match.Team{ID: e.AwayTeam.ID, Name: e.AwayTeam.Name}
	}
	if e.Status != nil {
		out.StatusType = e.Status.Type
	}
	if e.RoundInfo != nil {
		out.Round = e.RoundInfo.Round
	}
	return out
}

type incidentItem struct {
	IncidentType  string `json:"incidentType"`
	IncidentClass string `json:"incidentClass"`
	From          string `json:"from"`
	IsHome        *bool  `json:"isHome"`
	Time          *int   `json:"time"`
	AddedTime     *int   `json:"addedTime"`
	Player        *struct {
		Name string `json:"name"`
	} `json:"player"`
	HomeScore *int   `json:"homeScore"`
	AwayScore *int   `json:"awayScore"`
	Reason    string `json:"reason"`
}

func (i incidentItem) toIncident(raw string) penalty.Incident {
	out := penalty.Incident{
		Type:      i.IncidentType,
		Class:     i.IncidentClass,
		From:      i.From,
		IsHome:    i.IsHome,
		Time:      i.Time,
		AddedTime: i.AddedTime,
		HomeScore: i.HomeScore,
		AwayScore: i.AwayScore,
		Reason:    i.Reason,
		Raw:       raw,
	}
	if i.Player != nil {
		out.PlayerName = i.Player.Name
	}
	return out
}
