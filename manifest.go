package staticgen

import "time"

// ManifestEntry records one output path: its content fingerprint, size, when
// it was last written, and which publish targets have confirmed the current
// fingerprint.
type ManifestEntry struct {
	Path        string    `json:"path"`
	Fingerprint string    `json:"fingerprint"`
	Size        int64     `json:"size"`
	WrittenAt   time.Time `json:"writtenAt"`

	// Pushed maps publish target names to the fingerprint last confirmed
	// pushed to that target. An entry needs publishing to a target whenever
	// Pushed[target] differs from Fingerprint.
	Pushed map[string]string `json:"pushed,omitempty"`

	// Deleted marks a path that was pruned locally and is awaiting remote
	// deletion. The entry is dropped once no target has a pushed record.
	Deleted bool `json:"deleted,omitempty"`
}

// NeedsPush reports whether the entry's current fingerprint has not been
// confirmed pushed to the named target.
func (e *ManifestEntry) NeedsPush(target string) bool {
	return !e.Deleted && e.Pushed[target] != e.Fingerprint
}

// ManifestStore is the durable record of previously written and published
// paths. It is the single source of truth for "what changed" and "what is
// already remote". All methods are safe for concurrent use and atomic per
// key; Flush persists the current state durably.
type ManifestStore interface {
	// Get returns a copy of the entry for path.
	Get(path string) (ManifestEntry, bool)

	// Upsert replaces the entry for e.Path, preserving any existing pushed
	// records when the incoming entry carries none.
	Upsert(e ManifestEntry)

	// MarkTouched records that path was produced by the current run.
	MarkTouched(path string)

	// SetPushed records that fingerprint was confirmed pushed to target.
	SetPushed(path, target, fingerprint string)

	// ClearPushed removes the pushed record for target, dropping the entry
	// entirely once a deleted path has no pushed records left.
	ClearPushed(path, target string)

	// MarkDeleted flags a pruned path for remote deletion. Entries never
	// pushed anywhere are dropped immediately.
	MarkDeleted(path string)

	// Delete removes the entry for path.
	Delete(path string)

	// Untouched returns entries not touched by the current run and not
	// already flagged deleted, sorted by path. These are prune candidates.
	Untouched() []ManifestEntry

	// Entries returns copies of all entries, sorted by path.
	Entries() []ManifestEntry

	// Flush persists the manifest durably.
	Flush() error
}
