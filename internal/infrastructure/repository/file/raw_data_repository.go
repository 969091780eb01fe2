package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/riskibarqy/penalty-tracker/internal/domain/rawdata"
	"github.com/riskibarqy/penalty-tracker/internal/platform/atomicfile"
)

// RawDataRepository dumps provider responses into a directory for offline
// inspection. Later writes of the same entity replace earlier ones.
type RawDataRepository struct {
	dir string
}

func NewRawDataRepository(dir string) *RawDataRepository {
	return &RawDataRepository{dir: dir}
}

func (r *RawDataRepository) UpsertMany(ctx context.Context, items []rawdata.Payload) error {
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		name, err := fileName(item)
		if err != nil {
			return err
		}
		if err := atomicfile.WriteBytes(filepath.Join(r.dir, name), 0o644, []byte(item.PayloadJSON)); err != nil {
			return fmt.Errorf("write raw payload %s: %w", name, err)
		}
	}
	return nil
}

func fileName(item rawdata.Payload) (string, error) {
	key := sanitize(item.EntityKey)
	if key == "" {
		return "", fmt.Errorf("raw payload entity_type=%s has empty key", item.EntityType)
	}

	switch item.EntityType {
	case rawdata.EntityTeamEvents:
		team, page, found := strings.Cut(item.EntityKey, ":")
		if !found {
			return "raw_matches_" + key + ".json", nil
		}
		return fmt.Sprintf("raw_matches_%s_p%s.json", sanitize(team), sanitize(page)), nil
	case rawdata.EntityEventIncidents:
		return "incidents_" + key + ".json", nil
	default:
		return sanitize(item.EntityType) + "_" + key + ".json", nil
	}
}

func sanitize(v string) string {
	v = strings.TrimSpace(v)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, v)
}
