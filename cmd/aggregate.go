package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hotelprices/processor"
	"hotelprices/snapshot"
	"hotelprices/writer"
)

func (a *app) aggregateCommand() *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Flatten every snapshot into the parquet observation table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			in, inPrefix, err := a.open(ctx, input)
			if err != nil {
				return err
			}
			out, outPrefix, err := a.open(ctx, output)
			if err != nil {
				return err
			}

			files, err := snapshot.NewStore(in, a.log).ReadAll(ctx, inPrefix)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no snapshot files under %s", input)
			}

			rows, err := processor.NewAggregator(a.metrics, a.log).Aggregate(files)
			if err != nil {
				return err
			}

			key, err := writer.NewTableWriter(out, a.cfg.Writer.Parquet, a.metrics, a.log).Write(ctx, outPrefix, rows)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "snapshot location")
	cmd.Flags().StringVar(&output, "output", "", "location the table is written to")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
