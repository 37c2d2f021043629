package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/regtools/tagreap/pkg/api/config"
	zlog "github.com/regtools/tagreap/pkg/log"
)

func newSweepCmd(conf *config.Config) *cobra.Command {
	execute := false

	sweepCmd := &cobra.Command{
		Use:   "sweep <config>",
		Short: "`sweep` deletes images that fall outside the retention policy",
		Long: "`sweep` computes the retention plan, prints it, and deletes the images " +
			"in the delete partitions. Without --execute it stops after printing, " +
			"which is the always-safe default.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := LoadConfiguration(conf, args[0]); err != nil {
				return err
			}

			cmd.SilenceUsage = true

			log := zlog.NewLogger(conf.Log.Level, conf.Log.Output)

			dryRun := !execute

			plan, client, err := computePlan(cmd.Context(), conf, dryRun)
			if err != nil {
				return err
			}

			printPlanReport(cmd.OutOrStdout(), plan)

			digests := plan.DeleteDigests()

			if dryRun {
				log.Warn().Int("count", len(digests)).
					Msg("dry run, pass --execute to delete the listed images")

				return nil
			}

			if len(digests) == 0 {
				log.Info().Msg("no images to delete")

				return nil
			}

			failures, err := client.DeleteDigests(cmd.Context(), plan.Repository, digests)
			if err != nil {
				return err
			}

			if len(failures) > 0 {
				// the plan stays valid, a rerun recomputes and retries
				return fmt.Errorf("failed to delete %d of %d images", len(failures), len(digests))
			}

			log.Info().Int("count", len(digests)).Msg("deleted images")

			return nil
		},
	}

	sweepCmd.Flags().BoolVar(&execute, "execute", false,
		"actually delete images; the default is a dry run")

	return sweepCmd
}
