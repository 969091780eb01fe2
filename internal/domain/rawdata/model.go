package rawdata

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const (
	SourceSofascore = "sofascore"

	EntityTeamEvents     = "team_events"
	EntityEventIncidents = "event_incidents"
)

// Payload is an unmodified provider response kept for auditing.
type Payload struct {
	Source      string
	EntityType  string
	EntityKey   string
	Path        string
	PayloadJSON string
	PayloadHash string
	FetchedAt   time.Time
}

func Hash(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
