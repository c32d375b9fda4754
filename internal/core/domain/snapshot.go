package domain

import (
	"encoding/json"
	"time"
)

// SnapshotVersion is bumped when the persisted cache layout changes.
// Snapshots with another version are ignored on restore.
const SnapshotVersion = 1

// CacheSnapshot is the serialised query cache written to durable storage.
type CacheSnapshot struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"savedAt"`
	Entries []SnapshotEntry `json:"entries"`
}

// SnapshotEntry is one persisted query result.
type SnapshotEntry struct {
	Key       QueryKey        `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Stale     bool            `json:"stale,omitempty"`
}
