package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"shinobi-relay/internal/config"
	"shinobi-relay/internal/shinobi"
	"shinobi-relay/internal/telemetry"
)

var cfgFile string
var jsonOutput bool
var logLevel string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shinobi-relay",
	Short: "Relay Shinobi camera snapshots to Telegram",
	Long: `Sends a snapshot from every Shinobi monitor to a Telegram chat when
Shinobi calls the webhook or when someone asks the bot for /photo.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.shinobi-relay.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
}

// loadConfig reads the configuration and builds the logger it describes.
func loadConfig() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

func newShinobiClient(cfg config.Config) *shinobi.Client {
	return shinobi.New(shinobi.ClientConfig{
		BaseURL: cfg.Shinobi.BaseURL(),
		Token:   cfg.Shinobi.Token,
		Timeout: cfg.Shinobi.Timeout,
	})
}
