package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thywilljoshua/boq2xlsx/internal/ai"
	"github.com/thywilljoshua/boq2xlsx/internal/cache"
	"github.com/thywilljoshua/boq2xlsx/internal/config"
	"github.com/thywilljoshua/boq2xlsx/internal/convert"
	"github.com/thywilljoshua/boq2xlsx/internal/logging"
)

func extractCmd() *cobra.Command {
	var (
		from, to   int
		out        string
		configPath string
		model      string
		zoom       float64
		retries    int
		cachePath  string
		logLevel   string
		noPartial  bool
	)

	cmd := &cobra.Command{
		Use:   "extract <pdf>",
		Short: "Extract the BOQ tables on a page range into an .xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pdfPath := args[0]

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("model") {
				cfg.Model = model
			}
			if flags.Changed("zoom") {
				cfg.Zoom = zoom
			}
			if flags.Changed("retries") {
				cfg.Retries = retries
			}
			if flags.Changed("cache") {
				cfg.Cache = cachePath
			}
			if flags.Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if out == "" {
				out = strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ".xlsx"
			}

			log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			// a second interrupt kills the process
			go func() {
				<-ctx.Done()
				stop()
			}()

			gemini, err := ai.NewGemini(ctx, cfg.APIKey, cfg.Model)
			if err != nil {
				return err
			}
			client := ai.NewClient(gemini)
			if cfg.Cache != "" {
				store, err := cache.Open(ctx, cfg.Cache)
				if err != nil {
					return err
				}
				defer store.Close()
				client = client.WithCache(store)
			}

			orch := convert.NewOrchestrator(convert.FitzRenderer{}, client,
				convert.WithLogger(log),
				convert.WithRetries(cfg.Retries, convert.Backoff),
			)
			req := convert.Request{Path: pdfPath, From: from, To: to, Zoom: cfg.Zoom}
			if err := orch.CheckRequest(req); err != nil {
				return err
			}
			conf := convert.Config{
				Output:        out,
				ExportPartial: !noPartial,
				Reference:     cfg.Reference,
			}

			return runExtract(ctx, cmd, orch, req, conf)
		},
	}

	cmd.Flags().IntVar(&from, "from", 1, "first page to extract (1-based)")
	cmd.Flags().IntVar(&to, "to", 0, "last page to extract, inclusive")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output workbook (default: <pdf name>.xlsx)")
	cmd.Flags().StringVar(&configPath, "config", "", "optional YAML config file")
	cmd.Flags().StringVar(&model, "model", config.DefaultModel, "Gemini model name")
	cmd.Flags().Float64Var(&zoom, "zoom", config.DefaultZoom, "rasterization zoom factor (1 = 72 DPI)")
	cmd.Flags().IntVar(&retries, "retries", 0, "extra attempts per failed page")
	cmd.Flags().StringVar(&cachePath, "cache", "", "SQLite file caching model responses per page image")
	cmd.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level: debug|info|warn|error")
	cmd.Flags().BoolVar(&noPartial, "no-partial", false, "do not write a workbook when the run is cancelled")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// runExtract runs the pipeline on one goroutine while another renders its
// progress events.
func runExtract(ctx context.Context, cmd *cobra.Command, orch *convert.Orchestrator, req convert.Request, conf convert.Config) error {
	progress := convert.NewProgress(64)
	view := newProgressView(cmd.ErrOrStderr(), req.To-req.From+1)

	var (
		g       errgroup.Group
		outcome convert.Outcome
	)
	g.Go(func() error {
		defer progress.Close()
		var err error
		outcome, err = convert.Run(ctx, orch, req, conf, progress)
		return err
	})
	g.Go(func() error {
		view.drain(progress.Events())
		return nil
	})
	if err := g.Wait(); err != nil {
		if len(outcome.Failures) > 0 {
			view.failures(outcome.Failures)
		}
		return fmt.Errorf("extraction %s: %w", outcome.State, err)
	}

	view.summary(outcome)
	return nil
}

func pagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pages <pdf>",
		Short: "Print the page count of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := convert.PageCount(args[0])
			if n == 0 {
				return fmt.Errorf("could not read page count of %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}
