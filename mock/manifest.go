package mock

import "github.com/fwojciec/staticgen"

var _ staticgen.ManifestStore = (*ManifestStore)(nil)

// ManifestStore is a mock implementation of staticgen.ManifestStore.
type ManifestStore struct {
	GetFn         func(path string) (staticgen.ManifestEntry, bool)
	UpsertFn      func(e staticgen.ManifestEntry)
	MarkTouchedFn func(path string)
	SetPushedFn   func(path, target, fingerprint string)
	ClearPushedFn func(path, target string)
	MarkDeletedFn func(path string)
	DeleteFn      func(path string)
	UntouchedFn   func() []staticgen.ManifestEntry
	EntriesFn     func() []staticgen.ManifestEntry
	FlushFn       func() error
}

func (m *ManifestStore) Get(path string) (staticgen.ManifestEntry, bool) {
	return m.GetFn(path)
}

func (m *ManifestStore) Upsert(e staticgen.ManifestEntry) {
	m.UpsertFn(e)
}

func (m *ManifestStore) MarkTouched(path string) {
	m.MarkTouchedFn(path)
}

func (m *ManifestStore) SetPushed(path, target, fingerprint string) {
	m.SetPushedFn(path, target, fingerprint)
}

func (m *ManifestStore) ClearPushed(path, target string) {
	m.ClearPushedFn(path, target)
}

func (m *ManifestStore) MarkDeleted(path string) {
	m.MarkDeletedFn(path)
}

func (m *ManifestStore) Delete(path string) {
	m.DeleteFn(path)
}

func (m *ManifestStore) Untouched() []staticgen.ManifestEntry {
	return m.UntouchedFn()
}

func (m *ManifestStore) Entries() []staticgen.ManifestEntry {
	return m.EntriesFn()
}

func (m *ManifestStore) Flush() error {
	return m.FlushFn()
}
