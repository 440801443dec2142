// Command olivia runs the conversational math tutoring service.
//
// Usage:
//
//	olivia serve --config olivia.yaml
//	olivia run "Explain linear equations"
//	olivia validate --config olivia.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/Javi111003/OlivIA-RAG/pkg/config"
	"github.com/Javi111003/OlivIA-RAG/pkg/logger"
	"github.com/Javi111003/OlivIA-RAG/pkg/pipeline"
	"github.com/Javi111003/OlivIA-RAG/pkg/server"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the HTTP tutoring server."`
	Run      RunCmd      `cmd:"" help:"Answer one query and exit."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`
	Graph    GraphCmd    `cmd:"" help:"Print the tutoring graph as mermaid."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("olivia version %s\n", version)
	return nil
}

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	Port  int  `help:"Port to listen on (overrides config)." default:"0"`
	Watch bool `help:"Watch the config file for changes."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	cfg, loader, err := loadConfig(cli.Config, c.Watch)
	if err != nil {
		return err
	}
	if loader != nil {
		defer loader.Stop()
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	pipe, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer pipe.Close()

	metrics := pipe.Metrics()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metrics.Shutdown(shutdownCtx)
	}()

	srv := server.New(&cfg.Server, pipe, metrics)

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	fmt.Printf("OlivIA tutoring server ready on %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("   Conversations: POST /v1/conversations\n")
	fmt.Printf("   Health:        GET  /healthz\n")
	if cfg.Metrics.Enabled {
		fmt.Printf("   Metrics:       GET  /metrics\n")
	}
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start()
}

// RunCmd answers a single query on the command line.
type RunCmd struct {
	Query string `arg:"" help:"Student query to answer."`
}

func (c *RunCmd) Run(cli *CLI) error {
	cfg, loader, err := loadConfig(cli.Config, false)
	if err != nil {
		return err
	}
	if loader != nil {
		defer loader.Stop()
	}

	pipe, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer pipe.Close()

	answer, err := pipe.Answer(context.Background(), c.Query)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

// ValidateCmd checks a configuration file.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	if cli.Config == "" {
		return fmt.Errorf("--config is required for validate")
	}

	loader, err := config.NewLoader(config.LoaderOptions{Path: cli.Config})
	if err != nil {
		return err
	}
	defer loader.Stop()

	if _, err := loader.Load(); err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}
	fmt.Printf("Configuration %s is valid\n", cli.Config)
	return nil
}

// GraphCmd prints the tutoring topology.
type GraphCmd struct{}

func (c *GraphCmd) Run(cli *CLI) error {
	cfg, loader, err := loadConfig(cli.Config, false)
	if err != nil {
		return err
	}
	if loader != nil {
		defer loader.Stop()
	}

	pipe, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer pipe.Close()

	rendered, err := pipe.Mermaid()
	if err != nil {
		return err
	}
	fmt.Println(rendered)
	return nil
}

// loadConfig loads from file when given, defaults otherwise.
func loadConfig(path string, watch bool) (*config.Config, *config.Loader, error) {
	if path == "" {
		slog.Info("No config file given, using defaults")
		return config.Default(), nil, nil
	}

	loader, err := config.NewLoader(config.LoaderOptions{
		Path:  path,
		Watch: watch,
		OnChange: func(cfg *config.Config) error {
			slog.Info("Configuration reloaded", "path", path)
			return nil
		},
	})
	if err != nil {
		return nil, nil, err
	}

	cfg, err := loader.Load()
	if err != nil {
		loader.Stop()
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.Info("Loaded configuration", "path", path)
	return cfg, loader, nil
}

func main() {
	_ = godotenv.Load()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("olivia"),
		kong.Description("OlivIA - conversational math tutoring backend"),
		kong.UsageOnError(),
	)

	if err := logger.Init(logger.Options{
		Level:  cli.LogLevel,
		File:   cli.LogFile,
		Format: cli.LogFormat,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
