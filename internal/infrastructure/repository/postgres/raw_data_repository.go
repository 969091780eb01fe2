package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/penalty-tracker/internal/domain/rawdata"
	qb "github.com/riskibarqy/penalty-tracker/internal/platform/querybuilder"
)

// Unchanged payloads keep their original ingested_at.
var rawPayloadUpsertSuffix = qb.OnConflict("source", "entity_type", "entity_key").
	DoUpdate("path", "payload", "payload_hash", "fetched_at").
	Set("ingested_at = NOW()").
	Where("raw_payloads.payload_hash IS DISTINCT FROM EXCLUDED.payload_hash").
	String()

type RawDataRepository struct {
	db *sqlx.DB
}

func NewRawDataRepository(db *sqlx.DB) *RawDataRepository {
	return &RawDataRepository{db: db}
}

func (r *RawDataRepository) UpsertMany(ctx context.Context, items []rawdata.Payload) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert raw payloads: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		query, args, err := qb.InsertModel("raw_payloads", newRawPayloadInsertModel(item), rawPayloadUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert raw payload query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert raw payload entity=%s key=%s: %w", item.EntityType, item.EntityKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert raw payloads tx: %w", err)
	}

	return nil
}

type rawPayloadInsertModel struct {
	Source      string    `db:"source"`
	EntityType  string    `db:"entity_type"`
	EntityKey   string    `db:"entity_key"`
	Path        string    `db:"path"`
	Payload     string    `db:"payload"`
	PayloadHash string    `db:"payload_hash"`
	FetchedAt   time.Time `db:"fetched_at"`
}

func newRawPayloadInsertModel(item rawdata.Payload) rawPayloadInsertModel {
	hash := item.PayloadHash
	if hash == "" {
		hash = rawdata.Hash(item.PayloadJSON)
	}
	fetchedAt := item.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}
	return rawPayloadInsertModel{
		Source:      item.Source,
		EntityType:  item.EntityType,
		EntityKey:   item.EntityKey,
		Path:        item.Path,
		Payload:     item.PayloadJSON,
		PayloadHash: hash,
		FetchedAt:   fetchedAt,
	}
}
