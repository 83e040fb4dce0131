package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	clientcmd "sessionflow/internal/cmd/client"
	runcmd "sessionflow/internal/cmd/run"
	cfgpkg "sessionflow/internal/config"
	logpkg "sessionflow/pkg/log"
)

func main() {
	// initialize logger for CLI output; the run command builds its own
	// process logger from config
	level := os.Getenv("SESSIONFLOW_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "sessionflow",
		Short: "Sessionflow routing pipeline CLI",
		Long:  "Sessionflow consumes shopping-session events from a partitioned log, enriches them, and republishes them to per-country destination topics.",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the routing pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			backend, _ := cmd.Flags().GetString("backend")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			topic, _ := cmd.Flags().GetString("topic")
			startPolicy, _ := cmd.Flags().GetString("start")
			filter, _ := cmd.Flags().GetString("filter")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")

			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return err
			}
			cfgpkg.FromEnv(&cfg)

			// Flags override file and env.
			if backend != "" {
				cfg.Backend = backend
			}
			if dataDir != "" {
				cfg.Storage.DataDir = dataDir
			}
			if topic != "" {
				cfg.Source.Topic = topic
			}
			if startPolicy != "" {
				cfg.Source.StartPolicy = startPolicy
			}
			if filter != "" {
				cfg.Pipeline.Filter = filter
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}

			if err := runcmd.Run(context.Background(), runcmd.Options{Config: cfg}); err != nil {
				return fmt.Errorf("pipeline error: %w", err)
			}
			return nil
		},
	}
	runCmd.Flags().String("config", os.Getenv("SESSIONFLOW_CONFIG"), "Path to JSON config file")
	runCmd.Flags().String("backend", "", "Backend: embedded|kafka (overrides config)")
	runCmd.Flags().String("data-dir", "", "Data directory for the embedded backend")
	runCmd.Flags().String("topic", "", "Source topic (overrides config)")
	runCmd.Flags().String("start", "", "Start policy: latest|earliest (overrides config)")
	runCmd.Flags().String("filter", "", "CEL filter expression over decoded sessions")
	runCmd.Flags().String("log-level", os.Getenv("SESSIONFLOW_LOG_LEVEL"), "Log level: debug|info|warn|error")
	runCmd.Flags().String("log-format", os.Getenv("SESSIONFLOW_LOG_FORMAT"), "Log format: text|json")
	rootCmd.AddCommand(runCmd)

	rootCmd.AddCommand(clientcmd.NewSeedCommand())
	rootCmd.AddCommand(clientcmd.NewTailCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
