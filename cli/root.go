// Package cli implements the imchat command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"imchat/config"
	"imchat/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "imchat",
	Short: "Instant-messaging client with a local history cache",
	Long: `imchat drives a chat session through an instant-messaging provider,
keeps conversation state consistent with optimistic sends and caches
confirmed history in a local SQLite database.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It is called once by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().String("data-dir", "", "data directory (overrides "+config.EnvDataDir+")")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("env-file", ".env", "KEY=VALUE file loaded before reading the environment")
}

// environment is the resolved configuration shared by subcommands.
type environment struct {
	cfg     *config.ClientConfig
	cfgPath string
	dataDir string
	log     *zap.Logger
}

func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadEnvFiles(envFile); err != nil {
		return nil, err
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		if err := os.Setenv(config.EnvDataDir, dataDir); err != nil {
			return nil, fmt.Errorf("set data dir: %w", err)
		}
	}

	cfg, cfgPath, dataDir, err := config.LoadOrCreate()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := config.EffectiveLogLevel(cfg)
	if flagLevel, _ := cmd.Flags().GetString("log-level"); flagLevel != "" {
		level = flagLevel
	}

	return &environment{
		cfg:     cfg,
		cfgPath: cfgPath,
		dataDir: dataDir,
		log:     logger.New(level),
	}, nil
}
