package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"irisload/internal/dummy"
	"irisload/internal/logger"
)

var dummyCfg dummy.ServerConfig

var dummyCmd = &cobra.Command{
	Use:   "dummy",
	Short: "Run a stub IRIS prediction API to load test against",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		server := dummy.Start(dummyCfg)
		<-cmd.Context().Done()

		logger.Info("dummy", "shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	},
}

func init() {
	f := dummyCmd.Flags()
	f.IntVarP(&dummyCfg.Port, "port", "p", 8000, "port to listen on")
	f.DurationVar(&dummyCfg.Delay, "delay", 0, "fixed delay added to every prediction")
	f.DurationVar(&dummyCfg.Jitter, "jitter", 0, "random extra delay up to this much")
	f.Float64Var(&dummyCfg.FailRate, "fail-rate", 0, "share of predictions answered with 500 (0..1)")
	f.BoolVar(&dummyCfg.Unloaded, "unloaded", false, "answer 503 as if no model were loaded")
}
