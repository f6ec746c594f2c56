// Command riskreport scores the NCR hazard dataset offline and writes the
// result as JSON records, an XLSX spreadsheet, a PDF report, or a per-tier
// summary. With --publish it also sends every scored location to Kafka.
//
// Usage:
//
//	go run ./cmd/riskreport --city "Manila, Quezon City" --format pdf --out Risk_Report.pdf
//	go run ./cmd/riskreport --hazard flood --format xlsx --out flood.xlsx
//	go run ./cmd/riskreport --format summary --publish
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	kafkaadapter "github.com/couchcryptid/ncr-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/ncr-risk-service/internal/adapter/mapbox"
	"github.com/couchcryptid/ncr-risk-service/internal/config"
	"github.com/couchcryptid/ncr-risk-service/internal/dataset"
	"github.com/couchcryptid/ncr-risk-service/internal/domain"
	"github.com/couchcryptid/ncr-risk-service/internal/export"
	"github.com/couchcryptid/ncr-risk-service/internal/observability"
	"github.com/couchcryptid/ncr-risk-service/internal/pipeline"
	"github.com/spf13/cobra"
)

const formatSummary = "summary"

type reportOptions struct {
	dataPath string
	idColumn string
	city     string
	hazard   string
	format   string
	out      string
	publish  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:           "riskreport",
		Short:         "Score NCR locations and write a risk report",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			f := cmd.Flags()
			if !f.Changed("data") {
				opts.dataPath = cfg.DataPath
			}
			if !f.Changed("id-column") {
				opts.idColumn = cfg.IDColumn
			}
			return run(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dataPath, "data", "", "path to the hazard CSV (default RISK_DATA_PATH)")
	f.StringVar(&opts.idColumn, "id-column", "", "column holding location names (default RISK_ID_COLUMN)")
	f.StringVar(&opts.city, "city", "", "comma-separated locations to keep (default all)")
	f.StringVar(&opts.hazard, "hazard", "", "single hazard column to keep (default all)")
	f.StringVar(&opts.format, "format", "json", "output format: json, xlsx, pdf or summary")
	f.StringVar(&opts.out, "out", "-", "output file, - for stdout")
	f.BoolVar(&opts.publish, "publish", false, "publish scored locations to KAFKA_SINK_TOPIC")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, opts reportOptions, stdout io.Writer) error {
	logger := observability.NewLoggerTo(os.Stderr, cfg)
	metrics := observability.NewUnregisteredMetrics()

	var popts []pipeline.Option
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		popts = append(popts, pipeline.WithGeocoder(mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics), cfg.MapboxRegion))
	}

	p := pipeline.New(
		dataset.NewLoader(opts.dataPath, opts.idColumn),
		domain.NewKMeans(cfg.KMeansSeed, cfg.KMeansInits),
		logger, metrics, popts...,
	)

	var buf bytes.Buffer
	if err := writeReport(ctx, p, opts, &buf); err != nil {
		return err
	}
	if err := writeOutput(opts.out, buf.Bytes(), stdout); err != nil {
		return err
	}

	if opts.publish {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer writer.Close()

		n, err := p.Publish(ctx, writer, opts.city)
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		logger.Info("published", "topic", cfg.KafkaSinkTopic, "locations", n)
	}
	return nil
}

func writeReport(ctx context.Context, p *pipeline.Pipeline, opts reportOptions, w io.Writer) error {
	if opts.format == formatSummary {
		summary, err := p.Summary(ctx, opts.city)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		return nil
	}

	f, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	view, err := p.Records(ctx, opts.city, opts.hazard)
	if err != nil {
		return err
	}
	return export.Write(w, f, view)
}

// writeOutput sends a rendered report to stdout for "-" and to a new file
// otherwise. The file is only created once rendering has succeeded.
func writeOutput(path string, report []byte, stdout io.Writer) error {
	if path == "-" || path == "" {
		_, err := stdout.Write(report)
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(report); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
