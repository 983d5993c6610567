package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"hotelprices/logger"
	"hotelprices/snapshot"
)

func (a *app) compactCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Merge single-run snapshot files into one range file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := a.log.WithFields(logger.Fields{"run_id": uuid.NewString()})

			objects, prefix, err := a.open(ctx, input)
			if err != nil {
				return err
			}

			result, err := snapshot.NewStore(objects, a.log).Compact(ctx, prefix)
			if err != nil {
				log.WithError(err).WithFields(logger.Fields{
					"target":  result.Target,
					"deleted": result.Deleted,
				}).Error("compaction incomplete")
				return err
			}

			a.metrics.Emit("compaction", "files_compacted", float64(len(result.Sources)), "count", nil)
			if result.Target != "" {
				fmt.Fprintln(cmd.OutOrStdout(), result.Target)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "snapshot location")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
