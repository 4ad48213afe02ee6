package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alexflint/go-arg"

	"github.com/alan-mat/webanswer/internal/api"
	"github.com/alan-mat/webanswer/internal/config"
	"github.com/alan-mat/webanswer/internal/extract"
	"github.com/alan-mat/webanswer/internal/pipeline"
	"github.com/alan-mat/webanswer/internal/provider"
	"github.com/alan-mat/webanswer/internal/synth"
	"github.com/alan-mat/webanswer/server"
)

const (
	ProgramName   = "WebAnswer"
	Version       = "v0.1.0"
	RepositoryUrl = "github.com/alan-mat/webanswer"

	defaultConfigPath = "webanswer.yaml"
)

type serveCmd struct{}

type askCmd struct {
	ID    int64  `arg:"--id" default:"0" help:"request id echoed back in the answer"`
	Query string `arg:"positional,required" help:"question to answer"`
}

type args struct {
	Config string    `arg:"--config,-c,env:WEBANSWER_CONFIG" help:"path to the YAML config file [default: webanswer.yaml if present]"`
	Serve  *serveCmd `arg:"subcommand:serve" help:"start the HTTP server"`
	Ask    *askCmd   `arg:"subcommand:ask" help:"answer a single question and print the result"`
}

func (args) Version() string {
	return fmt.Sprintf("%s %s", ProgramName, Version)
}

func (args) Epilogue() string {
	return fmt.Sprintf("For more information visit %s", RepositoryUrl)
}

func main() {
	var args args

	p, err := arg.NewParser(arg.Config{Program: strings.ToLower(ProgramName)}, &args)
	if err != nil {
		log.Fatalf("there was an error in the definition of the Go struct: %v", err)
	}
	p.MustParse(os.Args[1:])

	if p.Subcommand() == nil {
		p.WriteUsage(os.Stdout)
		os.Exit(0)
	}

	conf, err := config.Load(configPath(args.Config))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(os.Stderr, conf.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd := p.Subcommand().(type) {
	case *serveCmd:
		err = startServer(ctx, conf)
	case *askCmd:
		err = ask(ctx, conf, cmd, os.Stdout)
	default:
		p.FailSubcommand("unrecognized command", p.SubcommandNames()...)
	}

	if err != nil {
		slog.Error("command failed", "err", err)
		stop()
		os.Exit(1)
	}
}

// configPath falls back to the default config file only when it exists.
func configPath(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return defaultConfigPath
}

func newLogger(w io.Writer, conf config.LogConfig) (*slog.Logger, error) {
	level, err := config.ParseLogLevel(conf.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(conf.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: unknown log.format '%s'", config.ErrInvalidSetting, conf.Format)
	}
}

// newOrchestrator builds the answer pipeline from the configured providers.
func newOrchestrator(ctx context.Context, conf *config.Config) (*pipeline.Orchestrator, error) {
	search, err := provider.NewWebSearchProvider(conf.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize web search provider: %w", err)
	}

	lm, err := provider.NewLMProvider(ctx, conf.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize lmprovider: %w", err)
	}

	return pipeline.New(
		search,
		extract.FromConfig(conf.Extract),
		synth.New(lm, conf.LLM),
		conf.Pipeline,
	), nil
}

func startServer(ctx context.Context, conf *config.Config) error {
	o, err := newOrchestrator(ctx, conf)
	if err != nil {
		return err
	}

	srv := server.New(conf.Server, o)
	return srv.Serve(ctx)
}

func ask(ctx context.Context, conf *config.Config, cmd *askCmd, out io.Writer) error {
	o, err := newOrchestrator(ctx, conf)
	if err != nil {
		return err
	}

	if timeout := conf.Server.RequestTimeout.Std(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	a, err := o.Run(ctx, api.Query{ID: cmd.ID, Query: cmd.Query})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}
