// Command snippeter builds a snippet engine over one document and answers
// queries typed on stdin, one per line, printing each snippet and how long
// it took to produce.
//
// Usage:
//
//	go run ./cmd/snippeter [--config configs/development.yaml] [--doc assets/document.txt] [--charset utf-8]
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/loader"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Snippet-Engine/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "snippeter: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "snippeter",
		Usage: "Answer snippet queries read from stdin, one per line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
			},
			&cli.StringFlag{
				Name:    "doc",
				Aliases: []string{"d"},
				Usage:   "Document to index (overrides document.path)",
			},
			&cli.StringFlag{
				Name:  "charset",
				Usage: "Document charset (overrides document.charset)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if doc := c.String("doc"); doc != "" {
		cfg.Document.Source = "file"
		cfg.Document.Path = doc
	}
	if charset := c.String("charset"); charset != "" {
		cfg.Document.Charset = charset
	}
	if level := c.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	logger.SetupWriter(c.App.ErrWriter, cfg.Logging.Level, "text")

	exec, err := build(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("building snippet engine: %w", err)
	}
	return repl(c.Context, exec, c.App.Reader, c.App.Writer)
}

func build(ctx context.Context, cfg *config.Config) (*executor.Executor, error) {
	if cfg.Document.Source != "file" {
		return nil, fmt.Errorf("snippeter reads documents from files only, got source %q", cfg.Document.Source)
	}
	l := &loader.FileLoader{Path: cfg.Document.Path, Charset: cfg.Document.Charset}
	text, source, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	engine, err := indexer.NewEngine(text, cfg.Indexer)
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", source, err)
	}
	stats := engine.Stats()
	slog.Info("document indexed",
		"source", source,
		"sentences", stats.Sentences,
		"terms", stats.Terms,
		"build_time", stats.BuildDuration,
	)
	return executor.New(engine, cfg.Snippet), nil
}

// repl answers each line of in until EOF or ctx is cancelled.
func repl(ctx context.Context, exec *executor.Executor, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	w := bufio.NewWriter(out)
	defer w.Flush()

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		start := time.Now()
		snippet := exec.Snippet(ctx, scanner.Text())
		elapsed := time.Since(start)
		fmt.Fprintln(w, snippet)
		fmt.Fprintf(w, "Snippet creation time: %s\n", elapsed)
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return scanner.Err()
}
