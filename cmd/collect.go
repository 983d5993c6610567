package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hotelprices/reader"
	"hotelprices/snapshot"
)

func (a *app) collectCommand() *cobra.Command {
	var (
		output      string
		start, stop string
		stays       []string
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch the booking page and store one snapshot per stay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			requested, err := collectStays(start, stop, stays)
			if err != nil {
				return err
			}

			objects, prefix, err := a.open(ctx, output)
			if err != nil {
				return err
			}

			collector := reader.NewCollector(
				a.cfg.Source,
				reader.NewHTTPFetcher(a.cfg.Source, a.log),
				snapshot.NewStore(objects, a.log),
				a.metrics,
				a.log,
			)
			paths, err := collector.CollectAll(ctx, prefix, requested)
			if err != nil {
				return err
			}

			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "snapshot location (s3://bucket/prefix, file:///dir or a path)")
	cmd.Flags().StringVar(&start, "start", "", "check-in date as entered on the booking page")
	cmd.Flags().StringVar(&stop, "stop", "", "check-out date as entered on the booking page")
	cmd.Flags().StringArrayVar(&stays, "stay", nil, "additional stay as start:stop (repeatable)")
	_ = cmd.MarkFlagRequired("output")
	cmd.MarkFlagsRequiredTogether("start", "stop")
	return cmd
}

func collectStays(start, stop string, extra []string) ([]reader.Stay, error) {
	var stays []reader.Stay
	if start != "" || stop != "" {
		stays = append(stays, reader.Stay{Start: start, Stop: stop})
	}
	for _, raw := range extra {
		stay, err := reader.ParseStay(raw)
		if err != nil {
			return nil, err
		}
		stays = append(stays, stay)
	}
	if len(stays) == 0 {
		return nil, fmt.Errorf("no stay given: use --start/--stop or --stay")
	}
	return stays, nil
}
