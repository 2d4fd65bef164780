package staticgen

import (
	"os"
	"time"
)

// RedirectPolicy controls how 3xx render responses are handled.
type RedirectPolicy string

const (
	// RedirectFollow follows the redirect once (bounded to one hop) and
	// writes the destination's content at the original path.
	RedirectFollow RedirectPolicy = "follow"

	// RedirectSkip records the page as skipped without writing anything.
	RedirectSkip RedirectPolicy = "skip"
)

// Config is the engine configuration, constructed once per run and passed
// down explicitly; no component reads ambient state.
type Config struct {
	// OutputDir is the base directory the static tree is written to.
	OutputDir string

	// DefaultLanguage is generated without a language path prefix.
	DefaultLanguage string

	// Languages are the enabled languages, applied to routes that declare
	// none of their own. Empty means language-neutral generation.
	Languages []string

	// StaticDir, when set, is a tree of static assets copied into the
	// output under StaticPrefix and tracked in the manifest like pages.
	StaticDir    string
	StaticPrefix string

	// SkipDirs excludes URL and static paths under the listed directories.
	SkipDirs []string

	// SkipAdmin excludes routes under administrative URL prefixes.
	SkipAdmin bool

	// Redirects maps old URL paths to destination URLs; each produces a
	// static meta-refresh stub page.
	Redirects map[string]string

	// RedirectPolicy controls 3xx handling during rendering.
	RedirectPolicy RedirectPolicy

	// PruneStale deletes local files whose manifest entries were not
	// touched by the run and schedules them for remote deletion.
	PruneStale bool

	// Concurrency bounds the render/write worker pool.
	Concurrency int

	// Retry parameters for transient publish failures.
	MaxAttempts    int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// Targets are the configured publish destinations.
	Targets []PublishTarget
}

// DefaultConfig returns the configuration defaults. Pruning is enabled by
// default; an untouched manifest entry is stale output.
func DefaultConfig() Config {
	return Config{
		DefaultLanguage: "",
		StaticPrefix:    "static",
		SkipAdmin:       true,
		RedirectPolicy:  RedirectFollow,
		PruneStale:      true,
		Concurrency:     8,
		MaxAttempts:     3,
		RetryBaseDelay:  500 * time.Millisecond,
		RetryMaxDelay:   15 * time.Second,
	}
}

// Validate returns ECONFIG if the configuration cannot support a run.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return Errorf(ECONFIG, "output directory required")
	}
	if c.Concurrency <= 0 {
		return Errorf(ECONFIG, "concurrency must be positive")
	}
	if c.MaxAttempts <= 0 {
		return Errorf(ECONFIG, "max attempts must be positive")
	}
	switch c.RedirectPolicy {
	case RedirectFollow, RedirectSkip:
	default:
		return Errorf(ECONFIG, "invalid redirect policy %q", c.RedirectPolicy)
	}
	if c.StaticDir != "" {
		if info, err := os.Stat(c.StaticDir); err != nil || !info.IsDir() {
			return Errorf(ECONFIG, "static directory does not exist: %s", c.StaticDir)
		}
	}
	seen := make(map[string]bool, len(c.Targets))
	for i := range c.Targets {
		t := &c.Targets[i]
		if err := t.Validate(); err != nil {
			return err
		}
		if seen[t.Name] {
			return Errorf(ECONFIG, "duplicate publish target %q", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// Target returns the named publish target.
// Returns ENOTFOUND if the target is not configured.
func (c *Config) Target(name string) (*PublishTarget, error) {
	for i := range c.Targets {
		if c.Targets[i].Name == name {
			return &c.Targets[i], nil
		}
	}
	return nil, Errorf(ENOTFOUND, "publish target %q not configured", name)
}

// Filter returns the path filter derived from the configuration.
func (c *Config) Filter() *PathFilter {
	return &PathFilter{
		SkipDirs:  c.SkipDirs,
		SkipAdmin: c.SkipAdmin,
	}
}
