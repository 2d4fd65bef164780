package staticgen

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Publisher pushes generated output to one remote publishing backend.
// Implementations classify their failures as EPUBLISHTRANSIENT (retried with
// backoff) or EPUBLISHPERMANENT (recorded immediately, never retried).
type Publisher interface {
	// Upload stores content at path with the given content type.
	Upload(ctx context.Context, path string, content []byte, contentType string) error

	// Delete removes path from the remote store. Deleting a path that does
	// not exist remotely is not an error.
	Delete(ctx context.Context, path string) error

	// ListRemote returns every path currently present in the remote store.
	ListRemote(ctx context.Context) ([]string, error)
}

// PublishTarget configures one remote publishing destination. Supplied
// externally and validated once at startup.
type PublishTarget struct {
	// Unique target name, e.g. "production".
	Name string

	// Engine names the backend implementation, resolved through an
	// EngineRegistry at configuration-validation time.
	Engine string

	// PublicURL is the base URL the published site is served from.
	PublicURL string

	// Object store settings (s3 engine).
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string

	// Directory is the destination tree for the fs engine.
	Directory string

	// DefaultContentType is used when a path's content type cannot be
	// derived from its extension. Defaults to application/octet-stream.
	DefaultContentType string

	// SkipPaths lists path prefixes never pushed to this target.
	SkipPaths []string

	// Concurrency bounds the upload/delete worker pool. Defaults to 4.
	Concurrency int

	// RateLimit caps remote operations per second. Zero means unlimited.
	RateLimit float64
}

// Validate returns an error if the target configuration is incomplete.
func (t *PublishTarget) Validate() error {
	if t.Name == "" {
		return Errorf(ECONFIG, "publish target name required")
	}
	if t.Engine == "" {
		return Errorf(ECONFIG, "publish target %q: engine required", t.Name)
	}
	if t.Concurrency < 0 {
		return Errorf(ECONFIG, "publish target %q: concurrency cannot be negative", t.Name)
	}
	return nil
}

// Skips reports whether the target's skip rules exclude the output path.
func (t *PublishTarget) Skips(path string) bool {
	for _, prefix := range t.SkipPaths {
		p := strings.Trim(prefix, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// EngineFunc constructs a Publisher for a validated target configuration.
type EngineFunc func(target PublishTarget) (Publisher, error)

// EngineRegistry maps engine names to publisher constructors. Engines are
// registered at startup and resolved once per target at
// configuration-validation time, not per call.
type EngineRegistry struct {
	mu      sync.Mutex
	engines map[string]EngineFunc
}

// NewEngineRegistry returns an empty engine registry.
func NewEngineRegistry() *EngineRegistry {
	return &EngineRegistry{engines: make(map[string]EngineFunc)}
}

// Register adds an engine under name, replacing any previous registration.
func (r *EngineRegistry) Register(name string, fn EngineFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[name] = fn
}

// Engines returns the registered engine names, sorted.
func (r *EngineRegistry) Engines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve validates the target and constructs its publisher.
// Returns ECONFIG if the engine is unknown.
func (r *EngineRegistry) Resolve(target PublishTarget) (Publisher, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	fn, ok := r.engines[target.Engine]
	r.mu.Unlock()
	if !ok {
		return nil, Errorf(ECONFIG, "publish target %q: unknown engine %q", target.Name, target.Engine)
	}
	return fn(target)
}
