// Command aslrun loads an ASL workflow document and executes it.
//
// Usage:
//
//	aslrun run order.json --input input.json --config aslrun.yaml
//	aslrun validate order.json
//	aslrun resume order.json ckpt-123 --config aslrun.yaml
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"

	"github.com/dshills/asl-go/asl"
	"github.com/dshills/asl-go/metrics"
	"github.com/dshills/asl-go/trace"
)

// CLI defines the aslrun command surface.
type CLI struct {
	Run      RunCmd      `cmd:"" help:"Execute a workflow document."`
	Validate ValidateCmd `cmd:"" help:"Validate a workflow document without running it."`
	Resume   ResumeCmd   `cmd:"" help:"Resume a checkpointed run."`

	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info"`
	EnvFile  string `help:"Path to a .env file with agent credentials." default:".env"`
}

// RunCmd executes a workflow to completion.
type RunCmd struct {
	Workflow string `arg:"" help:"Path to the workflow JSON document." type:"path"`
	Input    string `help:"Path to a JSON input document (defaults to {})." type:"path"`
	Config   string `help:"Path to the aslrun YAML config (agents, store, observability)." type:"path"`
	RunID    string `help:"Run ID to use (defaults to a generated ULID)."`
}

func (c *RunCmd) Run(cli *CLI) error {
	wf, err := loadWorkflow(c.Workflow)
	if err != nil {
		return err
	}
	input, err := loadInput(c.Input)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}

	eng, closeFn, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	runID := c.RunID
	if runID == "" {
		runID = ulid.Make().String()
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := eng.Run(ctx, runID, wf, input)
	return report(runID, res, err)
}

// ResumeCmd continues a previously checkpointed run.
type ResumeCmd struct {
	Workflow   string `arg:"" help:"Path to the workflow JSON document." type:"path"`
	Checkpoint string `arg:"" help:"Checkpoint ID to resume from."`
	Config     string `help:"Path to the aslrun YAML config." type:"path"`
}

func (c *ResumeCmd) Run(cli *CLI) error {
	wf, err := loadWorkflow(c.Workflow)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	eng, closeFn, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := signalContext()
	defer cancel()

	res, err := eng.Resume(ctx, wf, c.Checkpoint)
	return report(c.Checkpoint, res, err)
}

// ValidateCmd checks a workflow document's structural invariants (C9)
// without executing it.
type ValidateCmd struct {
	Workflow string `arg:"" help:"Path to the workflow JSON document." type:"path"`
}

func (c *ValidateCmd) Run(cli *CLI) error {
	wf, err := loadWorkflow(c.Workflow)
	if err != nil {
		return err
	}
	errs := asl.Validate(wf)
	if len(errs) == 0 {
		fmt.Println("ok")
		return nil
	}
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, e)
	}
	return fmt.Errorf("%d validation error(s)", len(errs))
}

func loadWorkflow(path string) (*asl.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow: %w", err)
	}
	wf, err := asl.ParseWorkflow(data)
	if err != nil {
		return nil, fmt.Errorf("parse workflow: %w", err)
	}
	return wf, nil
}

func loadInput(path string) (asl.Document, error) {
	if path == "" {
		return asl.Document{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	var doc asl.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	return doc, nil
}

// buildEngine wires a Registry, Store, Emitter, and MetricsSink from config,
// grounded on the teacher's pattern of composing an Engine from functional
// Options (engine.go) rather than a builder struct.
func buildEngine(cfg *RunConfig) (*asl.Engine, func(), error) {
	reg, err := buildRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}
	st, closeFn, err := buildStore(cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	var emitter asl.Emitter = trace.NewLog(os.Stderr, false)
	if cfg.OTel {
		emitter = trace.NewOTel(otel.Tracer("aslrun"))
	}
	opts := []asl.Option{
		asl.WithStore(st),
		asl.WithEmitter(emitter),
	}
	if cfg.Metrics {
		opts = append(opts, asl.WithMetrics(metrics.NewPrometheus(nil)))
	}

	return asl.New(reg, opts...), closeFn, nil
}

func report(label string, res asl.Result, err error) error {
	if err != nil {
		return fmt.Errorf("run %s failed: %w", label, err)
	}
	out, _ := json.MarshalIndent(res.Output, "", "  ")
	fmt.Println(string(out))
	slog.Info("run complete", "succeeded", res.Succeeded, "steps", res.Steps, "cost", res.Cost, "tokens", res.Tokens)
	if !res.Succeeded && res.Error != nil {
		return fmt.Errorf("workflow failed: %s: %s", res.Error.Name, res.Error.Cause)
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Warn("shutting down")
		cancel()
	}()
	return ctx, cancel
}

func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("aslrun"),
		kong.Description("Execute Agent State Language workflow documents."),
		kong.UsageOnError(),
	)

	setupLogger(cli.LogLevel)
	if cli.EnvFile != "" {
		_ = godotenv.Load(cli.EnvFile)
	}

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
