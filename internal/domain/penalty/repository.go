package penalty

import "context"

type Repository interface {
	UpsertMany(ctx context.Context, runID string, records []Record) error
}
