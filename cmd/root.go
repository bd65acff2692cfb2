package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"irisload/internal/banner"
	"irisload/internal/cli"
	"irisload/internal/logger"
	"irisload/internal/publish"
	"irisload/internal/runner"
	"irisload/internal/storage"
)

var (
	cfgFile   string
	verbose   bool
	tuiMode   bool
	save      bool
	outPrefix string
)

var rootCmd = &cobra.Command{
	Use:   "irisload <target_url> [total_requests] [concurrency]",
	Short: "irisload - load generator for the IRIS prediction API",
	Long: `
irisload fires total_requests POSTs at {target_url}/predict through a pool of
concurrency workers and reports throughput and latency percentiles.

Defaults: 1000 requests, 10 workers, 10s per-request timeout.`,
	Args: cobra.RangeArgs(1, 3),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.Default.SetLevel(logger.LevelDebug)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(args)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		cmd.SilenceUsage = true

		opts, cleanup, err := sinkOptions()
		if err != nil {
			return err
		}
		defer cleanup()

		_, err = cli.Start(cmd.Context(), cfg, opts)
		return err
	},
}

func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(scenariosCmd, dummyCmd, historyCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.irisload.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")

	pf.Duration("timeout", runner.DefaultTimeout, "per-request timeout")
	pf.Int("progress-every", runner.DefaultProgressEvery, "print progress every N completed requests")
	pf.Bool("http2", false, "negotiate HTTP/2 with the target")
	pf.Bool("insecure", false, "skip TLS certificate verification")
	pf.BoolVar(&tuiMode, "tui", false, "show a live terminal dashboard while running")
	pf.StringVarP(&outPrefix, "out", "o", "", "write <prefix>.csv, <prefix>.json and <prefix>_summary.json")
	pf.BoolVar(&save, "save", false, "save the run summary to the history database")
	pf.String("history-db", "", "history database path (default is $HOME/.irisload/history.db)")
	pf.StringSlice("kafka-broker", nil, "publish the run summary to this Kafka broker (repeatable)")
	pf.String("kafka-topic", publish.DefaultTopic, "Kafka topic for run summaries")

	p := runner.DefaultPayload()
	pf.Float64("sepal-length", p.SepalLength, "payload sepal_length")
	pf.Float64("sepal-width", p.SepalWidth, "payload sepal_width")
	pf.Float64("petal-length", p.PetalLength, "payload petal_length")
	pf.Float64("petal-width", p.PetalWidth, "payload petal_width")

	configureViper()
}

// configureViper binds config keys to their flags; a set flag wins over the
// config file, which wins over the flag default.
func configureViper() {
	keys := map[string]string{
		"timeout":              "timeout",
		"progress_every":       "progress-every",
		"http2":                "http2",
		"insecure":             "insecure",
		"history_db":           "history-db",
		"kafka.brokers":        "kafka-broker",
		"kafka.topic":          "kafka-topic",
		"payload.sepal_length": "sepal-length",
		"payload.sepal_width":  "sepal-width",
		"payload.petal_length": "petal-length",
		"payload.petal_width":  "petal-width",
	}
	for key, flag := range keys {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind %s: %v", flag, err))
		}
	}
	viper.SetDefault("requests", runner.DefaultTotalRequests)
	viper.SetDefault("concurrency", runner.DefaultConcurrency)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".irisload")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			logger.Warn("config", "reading config: %v", err)
		}
		return
	}
	logger.Debug("config", "using config file %s", viper.ConfigFileUsed())
}

// buildConfig turns <target_url> [total_requests] [concurrency] plus flags
// and config-file defaults into a run config. It does not validate ranges.
func buildConfig(args []string) (runner.Config, error) {
	cfg := baseConfig(args[0])

	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return cfg, fmt.Errorf("%w: total_requests %q is not an integer", runner.ErrInvalidConfiguration, args[1])
		}
		cfg.TotalRequests = n
	}
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return cfg, fmt.Errorf("%w: concurrency %q is not an integer", runner.ErrInvalidConfiguration, args[2])
		}
		cfg.Concurrency = n
	}
	return cfg, nil
}

func baseConfig(target string) runner.Config {
	cfg := runner.DefaultConfig(target)
	cfg.TotalRequests = viper.GetInt("requests")
	cfg.Concurrency = viper.GetInt("concurrency")
	cfg.Timeout = viper.GetDuration("timeout")
	cfg.ProgressEvery = viper.GetInt("progress_every")
	cfg.HTTP2 = viper.GetBool("http2")
	cfg.Insecure = viper.GetBool("insecure")
	cfg.Payload = runner.Payload{
		SepalLength: viper.GetFloat64("payload.sepal_length"),
		SepalWidth:  viper.GetFloat64("payload.sepal_width"),
		PetalLength: viper.GetFloat64("payload.petal_length"),
		PetalWidth:  viper.GetFloat64("payload.petal_width"),
	}
	return cfg
}

func historyPath() (string, error) {
	if p := viper.GetString("history_db"); p != "" {
		return p, nil
	}
	return storage.DefaultPath()
}

// sinkOptions opens the history store and Kafka publisher the flags ask for.
func sinkOptions() (cli.Options, func(), error) {
	opts := cli.Options{TUI: tuiMode, OutPrefix: outPrefix}
	var closers []func() error

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("cli", "close: %v", err)
			}
		}
	}

	if save {
		path, err := historyPath()
		if err != nil {
			return opts, cleanup, err
		}
		store, err := storage.Open(path)
		if err != nil {
			return opts, cleanup, err
		}
		opts.Store = store
		closers = append(closers, store.Close)
	}

	if brokers := viper.GetStringSlice("kafka.brokers"); len(brokers) > 0 {
		pub, err := publish.NewKafkaPublisher(brokers, viper.GetString("kafka.topic"))
		if err != nil {
			cleanup()
			return opts, func() {}, err
		}
		opts.Publisher = pub
		closers = append(closers, pub.Close)
	}

	return opts, cleanup, nil
}
