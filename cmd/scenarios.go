package cmd

import (
	"github.com/spf13/cobra"

	"irisload/internal/cli"
	"irisload/internal/logger"
	"irisload/internal/scenario"
)

var (
	planFile   string
	pauseScale float64
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios <target_url>",
	Short: "Run a multi-scenario bottleneck plan against one target",
	Long: `Runs each scenario of a plan in order, pausing between them, then prints a
comparison table. Without --plan the built-in plan runs normal (100/5),
high (1000/10) and extreme (2000/20) load.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan := scenario.DefaultPlan()
		if planFile != "" {
			p, err := scenario.LoadFile(planFile)
			if err != nil {
				return err
			}
			plan = p
			logger.Info("scenario", "loaded plan %s with %d scenarios", plan.Name, len(plan.Scenarios))
		}
		if err := plan.Validate(); err != nil {
			return err
		}
		plan = plan.ScalePauses(pauseScale)

		base := baseConfig(args[0])
		if err := base.Validate(); err != nil {
			return err
		}
		cmd.SilenceUsage = true

		opts, cleanup, err := sinkOptions()
		if err != nil {
			return err
		}
		defer cleanup()

		_, err = cli.RunScenarios(cmd.Context(), base, plan, opts)
		return err
	},
}

func init() {
	scenariosCmd.Flags().StringVarP(&planFile, "plan", "p", "", "scenario plan file (.yaml, .yml or .json)")
	scenariosCmd.Flags().Float64Var(&pauseScale, "pause-scale", 1, "multiply every pause by this factor (0 disables pauses)")
}
