package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/regtools/tagreap/pkg/api/config"
	zlog "github.com/regtools/tagreap/pkg/log"
	"github.com/regtools/tagreap/pkg/registry/ecr"
	"github.com/regtools/tagreap/pkg/retention"
	"github.com/regtools/tagreap/pkg/retention/types"
)

func newPlanCmd(conf *config.Config) *cobra.Command {
	planCmd := &cobra.Command{
		Use:     "plan <config>",
		Aliases: []string{"dry-run"},
		Short:   "`plan` computes the retention plan and prints the report",
		Long: "`plan` computes which image tags each retention policy would keep and " +
			"delete, without touching the registry",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := LoadConfiguration(conf, args[0]); err != nil {
				return err
			}

			cmd.SilenceUsage = true

			plan, _, err := computePlan(cmd.Context(), conf, true)
			if err != nil {
				return err
			}

			printPlanReport(cmd.OutOrStdout(), plan)

			return nil
		},
	}

	return planCmd
}

// computePlan wires the collaborators around the pure planner: policy lookup,
// registry listing, then plan computation. Deletion stays with the caller.
func computePlan(ctx context.Context, conf *config.Config, dryRun bool,
) (types.Plan, *ecr.Client, error) {
	log := zlog.NewLogger(conf.Log.Level, conf.Log.Output)

	var auditLog *zlog.Logger
	if conf.Log.Audit != "" {
		auditLog = zlog.NewAuditLogger(conf.Log.Level, conf.Log.Audit)
	}

	repo := conf.Registry.Repository

	policy, err := conf.PolicyForRepo(repo)
	if err != nil {
		log.Error().Err(err).Str("repository", repo).Msg("no keep policy for repository")

		return types.Plan{}, nil, err
	}

	planner, err := retention.NewPlanner(policy, dryRun, log, auditLog)
	if err != nil {
		return types.Plan{}, nil, err
	}

	client, err := ecr.New(ctx, conf.Registry.Region, conf.Registry.BatchSize, log)
	if err != nil {
		return types.Plan{}, nil, err
	}

	images, err := client.ListImages(ctx, repo)
	if err != nil {
		return types.Plan{}, nil, err
	}

	plan, err := planner.Plan(ctx, repo, images)
	if err != nil {
		return types.Plan{}, nil, err
	}

	return plan, client, nil
}
