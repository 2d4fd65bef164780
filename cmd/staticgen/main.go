package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/staticgen"
	"github.com/fwojciec/staticgen/fs"
	"github.com/fwojciec/staticgen/s3"
	"github.com/fwojciec/staticgen/sqlite"
	"github.com/fwojciec/staticgen/yaml"
	"github.com/joho/godotenv"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Configuration file path. Set before calling Run().
	ConfigPath string

	// Run-history database path. Set before calling Run().
	DBPath string

	// SQLite database used by the run-history service.
	DB *sqlite.DB

	// Services for end-to-end testing.
	RunService staticgen.RunService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		ConfigPath: defaultConfigPath(),
		DBPath:     defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Load credentials from .env when present; absence is not an error.
	_ = godotenv.Load()

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("staticgen"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'staticgen --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	configPath := m.ConfigPath
	if cli.Config != "" {
		configPath = cli.Config
	}
	config, baseURL, registry, err := yaml.Load(configPath)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Pass --config or set STATICGEN_CONFIG to use a different config file")
		return err
	}
	deps.Config = config
	deps.BaseURL = baseURL
	deps.Registry = registry

	logLevel := slog.LevelWarn
	if cli.Verbose {
		logLevel = slog.LevelInfo
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel}))

	deps.Engines = staticgen.NewEngineRegistry()
	deps.Engines.Register("s3", func(target staticgen.PublishTarget) (staticgen.Publisher, error) {
		return s3.NewPublisher(target)
	})
	deps.Engines.Register("fs", func(target staticgen.PublishTarget) (staticgen.Publisher, error) {
		return fs.NewPublisher(target)
	})

	// Run history is best effort: a broken history database disables the
	// history command but never blocks generation or publishing.
	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "warning: run history unavailable: %s\n", err)
		m.DB = nil
	} else {
		defer m.Close()
		m.RunService = sqlite.NewRunService(m.DB)
		deps.Runs = m.RunService
	}

	return kongCtx.Run(deps)
}

func defaultConfigPath() string {
	if path := os.Getenv("STATICGEN_CONFIG"); path != "" {
		return path
	}
	return "staticgen.yml"
}

func defaultDBPath() string {
	if path := os.Getenv("STATICGEN_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "staticgen.db"
	}
	dir := filepath.Join(home, ".staticgen")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "staticgen.db")
}
