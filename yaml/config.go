// Package yaml loads staticgen configuration and route declarations from a
// YAML file. Routes declared in the file carry literal argument sets; routes
// with programmatic argument generators are registered in code by embedders.
package yaml

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"github.com/fwojciec/staticgen"
	"gopkg.in/yaml.v3"
)

// file mirrors staticgen.Config for YAML decoding. Optional booleans use
// pointers so that absent keys fall back to defaults instead of false.
type file struct {
	OutputDir       string            `yaml:"outputDir"`
	BaseURL         string            `yaml:"baseURL"`
	DefaultLanguage string            `yaml:"defaultLanguage"`
	Languages       []string          `yaml:"languages"`
	StaticDir       string            `yaml:"staticDir"`
	StaticPrefix    string            `yaml:"staticPrefix"`
	SkipDirs        []string          `yaml:"skipDirs"`
	SkipAdmin       *bool             `yaml:"skipAdmin"`
	Redirects       map[string]string `yaml:"redirects"`
	RedirectPolicy  string            `yaml:"redirectPolicy"`
	PruneStale      *bool             `yaml:"pruneStale"`
	Concurrency     int               `yaml:"concurrency"`

	Retry struct {
		MaxAttempts int    `yaml:"maxAttempts"`
		BaseDelay   string `yaml:"baseDelay"`
		MaxDelay    string `yaml:"maxDelay"`
	} `yaml:"retry"`

	Targets []targetFile `yaml:"targets"`
	Routes  []routeFile  `yaml:"routes"`
}

type targetFile struct {
	Name               string   `yaml:"name"`
	Engine             string   `yaml:"engine"`
	PublicURL          string   `yaml:"publicURL"`
	Endpoint           string   `yaml:"endpoint"`
	Bucket             string   `yaml:"bucket"`
	AccessKey          string   `yaml:"accessKey"`
	SecretKey          string   `yaml:"secretKey"`
	Directory          string   `yaml:"directory"`
	DefaultContentType string   `yaml:"defaultContentType"`
	SkipPaths          []string `yaml:"skipPaths"`
	Concurrency        int      `yaml:"concurrency"`
	RateLimit          float64  `yaml:"rateLimit"`
}

type routeFile struct {
	Name        string              `yaml:"name"`
	Pattern     string              `yaml:"pattern"`
	Languages   []string            `yaml:"languages"`
	Args        []map[string]string `yaml:"args"`
	Filename    string              `yaml:"filename"`
	StatusCodes []int               `yaml:"statusCodes"`
	Skip        bool                `yaml:"skip"`
	Headers     map[string]string   `yaml:"headers"`
}

// Load reads the YAML file at path and returns the engine configuration,
// the base URL pages are rendered from, and the declared route registry.
func Load(path string) (staticgen.Config, string, *staticgen.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return staticgen.Config{}, "", nil, staticgen.Errorf(staticgen.ECONFIG, "read config %s: %v", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes. Unknown keys are rejected so that
// typos surface at startup instead of silently disabling options.
func Parse(data []byte) (staticgen.Config, string, *staticgen.Registry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f file
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return staticgen.Config{}, "", nil, staticgen.Errorf(staticgen.ECONFIG, "parse config: %v", err)
	}

	cfg := staticgen.DefaultConfig()
	cfg.OutputDir = f.OutputDir
	cfg.DefaultLanguage = f.DefaultLanguage
	cfg.Languages = f.Languages
	cfg.StaticDir = f.StaticDir
	if f.StaticPrefix != "" {
		cfg.StaticPrefix = f.StaticPrefix
	}
	cfg.SkipDirs = f.SkipDirs
	if f.SkipAdmin != nil {
		cfg.SkipAdmin = *f.SkipAdmin
	}
	cfg.Redirects = f.Redirects
	if f.RedirectPolicy != "" {
		cfg.RedirectPolicy = staticgen.RedirectPolicy(f.RedirectPolicy)
	}
	if f.PruneStale != nil {
		cfg.PruneStale = *f.PruneStale
	}
	if f.Concurrency > 0 {
		cfg.Concurrency = f.Concurrency
	}
	if f.Retry.MaxAttempts > 0 {
		cfg.MaxAttempts = f.Retry.MaxAttempts
	}
	if f.Retry.BaseDelay != "" {
		d, err := time.ParseDuration(f.Retry.BaseDelay)
		if err != nil {
			return staticgen.Config{}, "", nil, staticgen.Errorf(staticgen.ECONFIG, "parse retry base delay: %v", err)
		}
		cfg.RetryBaseDelay = d
	}
	if f.Retry.MaxDelay != "" {
		d, err := time.ParseDuration(f.Retry.MaxDelay)
		if err != nil {
			return staticgen.Config{}, "", nil, staticgen.Errorf(staticgen.ECONFIG, "parse retry max delay: %v", err)
		}
		cfg.RetryMaxDelay = d
	}

	for _, t := range f.Targets {
		cfg.Targets = append(cfg.Targets, staticgen.PublishTarget{
			Name:               t.Name,
			Engine:             t.Engine,
			PublicURL:          t.PublicURL,
			Endpoint:           t.Endpoint,
			Bucket:             t.Bucket,
			AccessKey:          t.AccessKey,
			SecretKey:          t.SecretKey,
			Directory:          t.Directory,
			DefaultContentType: t.DefaultContentType,
			SkipPaths:          t.SkipPaths,
			Concurrency:        t.Concurrency,
			RateLimit:          t.RateLimit,
		})
	}

	registry := staticgen.NewRegistry()
	for _, r := range f.Routes {
		route := &staticgen.Route{
			Name:        r.Name,
			URLPattern:  r.Pattern,
			Languages:   r.Languages,
			Filename:    r.Filename,
			StatusCodes: r.StatusCodes,
			Skip:        r.Skip,
		}
		if len(r.Headers) > 0 {
			route.RenderOptions = staticgen.RenderOptions(r.Headers)
		}
		if len(r.Args) > 0 {
			sets := make([]staticgen.ArgSet, len(r.Args))
			for i, args := range r.Args {
				sets[i] = staticgen.ArgSet(args)
			}
			route.Args = staticgen.LiteralArgs(sets...)
		}
		if err := registry.Register(route); err != nil {
			return staticgen.Config{}, "", nil, err
		}
	}

	return cfg, f.BaseURL, registry, nil
}
