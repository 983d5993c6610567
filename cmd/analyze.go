package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hotelprices/alert"
	"hotelprices/config"
	"hotelprices/internal/objectstore"
	"hotelprices/models"
	"hotelprices/writer"
)

func (a *app) analyzeCommand() *cobra.Command {
	var (
		input      string
		webhookURL string
		recipients []string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Report rooms whose latest price is the lowest ever seen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			alertCfg := a.cfg.Alert
			if webhookURL != "" {
				alertCfg.WebhookURL = webhookURL
			}
			if len(recipients) > 0 {
				alertCfg.Recipients = recipients
			}
			if alertCfg.WebhookURL == "" && config.IsProductionLike(config.AppEnvironment()) {
				return fmt.Errorf("alert.webhook_url is required in %s", config.AppEnvironment())
			}

			observations, err := a.readTable(ctx, input)
			if err != nil {
				return err
			}

			notifier := alert.NewWebhookNotifier(alertCfg.WebhookURL, alertCfg.Timeout, a.log)
			rows, err := alert.NewAnalyzer(alertCfg, a.cfg.Source.Hotel, notifier, a.metrics, a.log).Run(ctx, observations)
			if err != nil {
				return err
			}

			if len(rows) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), alert.RenderTable(rows))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "table location: a .parquet object or the directory holding it")
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "chat webhook (defaults to alert.webhook_url)")
	cmd.Flags().StringSliceVar(&recipients, "recipient", nil, "chat user id to mention (repeatable)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) readTable(ctx context.Context, input string) ([]models.PriceObservation, error) {
	objects, prefix, err := a.open(ctx, input)
	if err != nil {
		return nil, err
	}
	key := prefix
	if !strings.HasSuffix(prefix, ".parquet") {
		key = objectstore.Join(prefix, a.cfg.Writer.Parquet.FileName)
	}
	return writer.ReadTable(ctx, objects, key)
}
