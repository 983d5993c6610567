// Package cmd is the hotelprices command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"hotelprices/config"
	"hotelprices/internal/metrics"
	"hotelprices/internal/objectstore"
	"hotelprices/logger"
)

// app holds what every subcommand shares once the configuration is loaded.
type app struct {
	configPath string
	cfg        *config.Config
	log        *logger.Log
	metrics    *metrics.Recorder
	publisher  *metrics.CloudWatchPublisher
}

// Execute runs the command line with args taken from os.Args.
func Execute(ctx context.Context, log *logger.Log) error {
	return run(ctx, log, nil)
}

func run(ctx context.Context, log *logger.Log, args []string) error {
	a := &app{log: log}
	root := a.rootCommand()
	if args != nil {
		root.SetArgs(args)
	}

	err := root.ExecuteContext(ctx)
	if flushErr := a.publisher.Flush(ctx); flushErr != nil {
		log.WithComponent("main").WithError(flushErr).Warn("failed to publish run metrics")
	}
	return err
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "hotelprices",
		Short:         "Sample hotel room prices and report new all-time lows",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultConfigPath, "path to the configuration file")

	root.AddCommand(
		a.collectCommand(),
		a.aggregateCommand(),
		a.analyzeCommand(),
		a.compactCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if err := a.log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}

	a.cfg = cfg
	a.metrics = metrics.NewRecorder(a.log)
	a.publisher = metrics.NewCloudWatchPublisher(cmd.Context(), cfg.Metrics.CloudWatch, a.log)
	a.publisher.Attach(a.metrics)

	a.log.WithFields(logger.Fields{
		"service": cfg.HotelPrices.Name,
		"version": cfg.HotelPrices.Version,
		"command": cmd.Name(),
	}).WithEnv("APP_ENV").Info("starting hotelprices")
	return nil
}

// open resolves a storage location flag to a backend and key prefix.
func (a *app) open(ctx context.Context, raw string) (objectstore.Store, string, error) {
	loc, err := objectstore.ParseLocation(raw)
	if err != nil {
		return nil, "", err
	}
	return objectstore.Open(ctx, loc, a.cfg.Storage.S3, a.log)
}
