package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/penalty-tracker/internal/domain/penalty"
	qb "github.com/riskibarqy/penalty-tracker/internal/platform/querybuilder"
)

const penaltyUpsertBatchSize = 200

// A rerun overwrites every column of the existing row.
var penaltyUpsertSuffix = penaltyConflict().String()

func penaltyConflict() *qb.ConflictClause {
	// penaltyInsertModel is a fixed struct with db tags, so this cannot fail.
	cols, _ := qb.ModelColumns(penaltyInsertModel{})
	return qb.OnConflict("match_id", "incident_index").
		DoUpdate(cols...).
		Set("updated_at = NOW()")
}

type PenaltyRepository struct {
	db *sqlx.DB
}

func NewPenaltyRepository(db *sqlx.DB) *PenaltyRepository {
	return &PenaltyRepository{db: db}
}

// UpsertMany stores records keyed by (match_id, incident_index); a later run
// overwrites the row and stamps its run id.
func (r *PenaltyRepository) UpsertMany(ctx context.Context, runID string, records []penalty.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert penalties: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for start := 0; start < len(records); start += penaltyUpsertBatchSize {
		end := start + penaltyUpsertBatchSize
		if end > len(records) {
			end = len(records)
		}

		models := make([]any, 0, end-start)
		for _, rec := range records[start:end] {
			models = append(models, newPenaltyInsertModel(runID, rec))
		}

		query, args, err := qb.InsertModels("penalty_records", models, penaltyUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert penalties query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert penalties batch=%d-%d: %w", start, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert penalties tx: %w", err)
	}

	return nil
}

type penaltyInsertModel struct {
	RunID          string         `db:"run_id"`
	MatchID        int64          `db:"match_id"`
	IncidentIndex  int            `db:"incident_index"`
	MatchTimestamp int64          `db:"match_timestamp"`
	MatchDate      string         `db:"match_date"`
	HomeTeam       string         `db:"home_team"`
	AwayTeam       string         `db:"away_team"`
	Round          sql.NullInt64  `db:"round"`
	MatchMinute    sql.NullInt64  `db:"match_minute"`
	AddedTime      sql.NullInt64  `db:"added_time"`
	TakerName      sql.NullString `db:"taker_name"`
	TakerTeam      string         `db:"taker_team"`
	IncidentType   string         `db:"incident_type"`
	IncidentClass  string         `db:"incident_class"`
	Origin         string         `db:"origin"`
	Outcome        string         `db:"outcome"`
	ScoreAtTime    string         `db:"score_at_time"`
	Reason         sql.NullString `db:"reason"`
	RawIncident    sql.NullString `db:"raw_incident"`
}

func newPenaltyInsertModel(runID string, rec penalty.Record) penaltyInsertModel {
	return penaltyInsertModel{
		RunID:          runID,
		MatchID:        rec.MatchID,
		IncidentIndex:  rec.IncidentIndex,
		MatchTimestamp: rec.StartTimestamp,
		MatchDate:      rec.MatchDate,
		HomeTeam:       rec.HomeTeam,
		AwayTeam:       rec.AwayTeam,
		Round:          nullableInt(rec.Round),
		MatchMinute:    nullableInt(rec.Minute),
		AddedTime:      nullableInt(rec.AddedTime),
		TakerName:      nullableString(rec.TakerName),
		TakerTeam:      rec.TakerTeam,
		IncidentType:   rec.IncidentType,
		IncidentClass:  rec.IncidentClass,
		Origin:         rec.Origin,
		Outcome:        string(rec.Outcome),
		ScoreAtTime:    rec.ScoreAtTime,
		Reason:         nullableString(rec.Reason),
		RawIncident:    nullableString(rec.RawIncident),
	}
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullableString(v string) sql.NullString {
	if strings.TrimSpace(v) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
