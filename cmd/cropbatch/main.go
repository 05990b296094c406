// Package main provides the entry point for the cropbatch CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hyase/cropbatch/internal/catalog"
	"github.com/hyase/cropbatch/internal/config"
	"github.com/hyase/cropbatch/internal/executor"
	"github.com/hyase/cropbatch/internal/geometry"
	"github.com/hyase/cropbatch/internal/supervise"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rectFlag := flag.String("rect", "", "crop rectangle as x,y,w,h in source pixels")
	outFlag := flag.String("out", "", "output directory (overrides OUTPUT_DIR)")
	refFlag := flag.String("ref", "", "reference file for the batch dimensions (defaults to the first input)")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		return errors.New("no input files given")
	}

	rect, err := parseRect(*rectFlag)
	if err != nil {
		return err
	}

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	outDir := cfg.OutputDir
	if *outFlag != "" {
		outDir = *outFlag
	}

	logger.Info("starting cropbatch",
		slog.Int("inputs", len(files)),
		slog.String("output_dir", outDir),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.Bool("hw_encode", cfg.HWEncode),
	)

	// An interrupt cancels the batch: the in-flight job is stopped and
	// cleaned up, already completed outputs are kept.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prober := catalog.NewProber(cfg.FFmpegPath, cfg.FFprobePath)
	cat := catalog.New(prober, logger)

	added, unreadable := cat.Add(ctx, files...)
	if unreadable > 0 {
		logger.Warn("some inputs were unreadable", slog.Int("count", unreadable))
	}
	if added == 0 {
		return errors.New("no readable input files")
	}

	refPath := *refFlag
	if refPath == "" {
		refPath = files[0]
	}
	ref, ok := cat.Get(refPath)
	if !ok {
		return fmt.Errorf("reference file %s is not among the readable inputs", refPath)
	}

	if groups := cat.SizeGroups(); len(groups) > 1 {
		logger.Warn("inputs mix dimensions, only those matching the reference are processed",
			slog.Int("size_groups", len(groups)),
			slog.String("reference", fmt.Sprintf("%dx%d", ref.Width, ref.Height)),
		)
	}

	exec := executor.New(cfg.FFmpegPath, cfg.HWEncode, prober, logger)

	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		render(exec.Events())
	}()

	sum, err := exec.Run(ctx, executor.Request{
		Region:    rect,
		RefWidth:  ref.Width,
		RefHeight: ref.Height,
		OutputDir: outDir,
		Items:     cat.Items(),
	})
	<-rendered
	if err != nil {
		return err
	}

	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", sum.Failed, sum.Total())
	}
	return nil
}

// parseRect parses the -rect flag value "x,y,w,h".
func parseRect(s string) (geometry.Rect, error) {
	if s == "" {
		return geometry.Rect{}, errors.New("missing -rect flag, expected x,y,w,h")
	}

	var r geometry.Rect
	if _, err := fmt.Sscanf(s, "%d,%d,%d,%d", &r.X, &r.Y, &r.W, &r.H); err != nil {
		return geometry.Rect{}, fmt.Errorf("invalid -rect %q, expected x,y,w,h: %w", s, err)
	}
	if r.IsEmpty() {
		return geometry.Rect{}, fmt.Errorf("invalid -rect %q, width and height must be positive", s)
	}
	return r, nil
}

// render consumes executor events and writes progress to stdout, leaving
// stderr to the logger.
func render(events <-chan executor.Event) {
	for ev := range events {
		switch ev := ev.(type) {
		case executor.ProgressUpdate:
			if ev.Percent == supervise.Indeterminate {
				fmt.Printf("\r[%d/%d] %s: working...", ev.Index, ev.Total, filepath.Base(ev.Source))
			} else {
				fmt.Printf("\r[%d/%d] %s: %5.1f%%", ev.Index, ev.Total, filepath.Base(ev.Source), ev.Percent)
			}
		case executor.JobCompleted:
			fmt.Printf("\r[%d/%d] %s: %s\n", ev.Index, ev.Total, filepath.Base(ev.Source), ev.Outcome)
		case executor.BatchCompleted:
			s := ev.Summary
			fmt.Printf("done: %d succeeded, %d skipped, %d failed, %d cancelled\n",
				s.Succeeded, s.Skipped, s.Failed, s.Cancelled)
		}
	}
}
