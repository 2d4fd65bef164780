package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/staticgen"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Config   staticgen.Config
	BaseURL  string
	Registry *staticgen.Registry
	Engines  *staticgen.EngineRegistry
	Runs     staticgen.RunService
	Logger   *slog.Logger
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path" type:"path"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Generate GenerateCmd `cmd:"" help:"Render all routes into the output directory"`
	Publish  PublishCmd  `cmd:"" help:"Push changed output to publish targets"`
	Routes   RoutesCmd   `cmd:"" help:"List registered routes and their expanded URLs"`
	Targets  TargetsCmd  `cmd:"" help:"List publish targets, optionally testing connectivity"`
	History  HistoryCmd  `cmd:"" help:"Show past generation and publish runs"`
}

// GenerateCmd is the "generate" subcommand.
type GenerateCmd struct {
	Route   []string `short:"r" help:"Generate only the named routes (repeatable)"`
	BaseURL string   `help:"Override the configured render base URL"`
	DryRun  bool     `help:"Expand routes and report what would be written without rendering"`
}

// PublishCmd is the "publish" subcommand.
type PublishCmd struct {
	Target []string `short:"t" help:"Publish only the named targets (repeatable)"`
	DryRun bool     `help:"Show the pending diff without pushing anything"`
}

// RoutesCmd is the "routes" subcommand.
type RoutesCmd struct {
	Expand bool `help:"Expand each route into its concrete URLs"`
}

// TargetsCmd is the "targets" subcommand.
type TargetsCmd struct {
	Test string `help:"Run a connectivity probe against the named target"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Kind  string `help:"Filter by run kind (generate or publish)"`
	Limit int    `default:"20" help:"Maximum number of runs to show"`
}
