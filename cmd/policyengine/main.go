// Command policyengine is the CLI for the policy retrieval engine.
//
// Usage:
//
//	policyengine query "What is Section 12 of RTE Act?" --config config.yaml
//	policyengine query "teacher recruitment framework" --mode deep_think
//	policyengine warm --config config.yaml
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/config"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/engine"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/logger"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/observability"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Query   QueryCmd   `cmd:"" help:"Run one query against the engine."`
	Warm    WarmCmd    `cmd:"" help:"Prebuild the process-wide caches and exit."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFormat string `help:"Log format (simple, text)." default:"simple"`
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
	fmt.Printf("policyengine version %s\n", version)
	return nil
}

// QueryCmd runs one query and prints the JSON response.
type QueryCmd struct {
	Text string `arg:"" help:"Query text."`

	Mode     string `help:"Explicit mode (qa, deep_think, brainstorm)."`
	Internet bool   `help:"Force the internet pseudo-vertical on."`
	Pretty   bool   `default:"true" negatable:"" help:"Pretty-print the JSON response."`
}

func (c *QueryCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	eng, err := buildEngine(cli)
	if err != nil {
		return err
	}
	defer eng.Close()

	resp := eng.Query(ctx, engine.Request{
		Query:       c.Text,
		Mode:        c.Mode,
		UseInternet: c.Internet,
	})

	var out []byte
	if c.Pretty {
		out, err = json.MarshalIndent(resp, "", "  ")
	} else {
		out, err = json.Marshal(resp)
	}
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	fmt.Println(string(out))

	if !resp.Success {
		os.Exit(1)
	}
	return nil
}

// WarmCmd builds the supersession graph and warms the embedders.
type WarmCmd struct{}

func (c *WarmCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	eng, err := buildEngine(cli)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.Warm(ctx); err != nil {
		return fmt.Errorf("warm-up failed: %w", err)
	}
	fmt.Println("warm-up complete")
	return nil
}

func buildEngine(cli *CLI) (*engine.Engine, error) {
	var cfg *config.Config
	var err error
	if cli.Config != "" {
		cfg, err = config.Load(cli.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg = config.Default()
	}

	if cfg.Observability.MetricsEnabled {
		observability.SetGlobalMetrics(observability.NewPrometheusMetrics(nil))
	}
	if _, err := observability.InitGlobalTracer(context.Background(), cfg.Observability.TracingEnabled, cfg.Name); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	return engine.New(cfg)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("policyengine"),
		kong.Description("Multi-vertical policy knowledge retrieval engine"),
		kong.UsageOnError(),
	)

	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(1)
	}
	logger.Init(level, os.Stderr, cli.LogFormat)

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
