package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"jvmget/config"
	"jvmget/downloader"
	"jvmget/logging"
)

// shutdownTimeout bounds how long pending tasks get to clean up on exit
const shutdownTimeout = 10 * time.Second

var (
	cfg     *config.Config
	manager *downloader.Manager
)

// Global flags
var configFile string

// Root command
var rootCmd = &cobra.Command{
	Use:           "jvmget",
	Short:         "jvmget - Java runtime installer",
	Long:          `jvmget makes sure a Java runtime of a given feature version is installed, downloading it from an Adoptium-compatible catalog when it is missing.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if err := logging.InitLogger(cfg.General.LogPath, cfg.General.LogLevel, jsonOutput || jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := config.EnsureDirectoriesExist(cfg); err != nil {
			return fmt.Errorf("error ensuring directories: %w", err)
		}

		manager = downloader.NewManager(cfg)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return stopTasks()
	},
}

func init() {
	logging.PreLog("DEBUG", "Initializing jvmget...")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(availableCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(cleanCmd)

	rootCmd.Flags().SetInterspersed(true)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file (default: JVMGET_CONFIG_PATH or ./jvmget.toml)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Output logs in JSON format")
}

// stopTasks cancels whatever the command left running
func stopTasks() error {
	if manager == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := manager.Shutdown(ctx); err != nil {
		return fmt.Errorf("pending tasks did not stop: %w", err)
	}
	return nil
}

// setContext gives c and all its subcommands ctx. ExecuteContext only fills
// in a missing context, so a second run would otherwise inherit the first
// run's cancelled one.
func setContext(c *cobra.Command, ctx context.Context) {
	c.SetContext(ctx)
	for _, sub := range c.Commands() {
		setContext(sub, ctx)
	}
}

// run executes the root command with args, cancelling on SIGINT or SIGTERM
func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	setContext(rootCmd, ctx)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		// PersistentPostRunE is skipped when RunE fails
		_ = stopTasks()
	}
	return err
}

// Execute runs the root command
func Execute() {
	if err := run(os.Args[1:]); err != nil {
		ExitWithError(err)
	}
	logging.Sync()
}
