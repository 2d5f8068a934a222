package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shinobi-relay/internal/config"
)

// Variables to hold flag values
var (
	host     string
	port     int
	scheme   string
	token    string
	groupKey string
	botKey   string
	chatID   int64
	listen   string
)

// configureCmd represents the configure command
var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Check Shinobi credentials and save them to the config file",
	Long: `Lists the monitors of the group with the provided credentials to make sure
they work, then writes them to the config file so 'serve' and the other
commands can start without environment variables.

Example:
  shinobi-relay configure --host 192.168.1.20 --token APIKEY --group-key house --bot-key 123:ABC --chat-id -1001234`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Start from whatever is already configured so unset flags keep it.
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("host") {
			cfg.Shinobi.Host = strings.TrimSpace(host)
		}
		if flags.Changed("port") {
			cfg.Shinobi.Port = port
		}
		if flags.Changed("scheme") {
			cfg.Shinobi.Scheme = scheme
		}
		if flags.Changed("token") {
			cfg.Shinobi.Token = token
		}
		if flags.Changed("group-key") {
			cfg.Shinobi.GroupKey = groupKey
		}
		if flags.Changed("bot-key") {
			cfg.Telegram.BotKey = botKey
		}
		if flags.Changed("chat-id") {
			cfg.Telegram.ChatID = chatID
		}
		if flags.Changed("listen") {
			cfg.HTTP.ListenAddr = listen
		}

		if err := cfg.ValidateShinobi(); err != nil {
			return err
		}

		fmt.Printf("Checking %s (group '%s')...\n", cfg.Shinobi.BaseURL(), cfg.Shinobi.GroupKey)

		monitors, err := newShinobiClient(cfg).ListMonitors(context.Background(), cfg.Shinobi.GroupKey)
		if err != nil {
			return fmt.Errorf("credentials check failed: %w", err)
		}

		fmt.Printf("Found %d monitors. Saving configuration...\n", len(monitors))

		path, err := config.Save(cfg, cfgFile)
		if err != nil {
			return err
		}

		fmt.Printf("Configuration saved to %s.\n", path)
		if err := cfg.Validate(); err != nil {
			fmt.Printf("Note: 'serve' still needs: %v\n", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)

	// We use local flags because these are specific only to the configure action.
	configureCmd.Flags().StringVar(&host, "host", "", "Shinobi host (e.g. 192.168.1.20)")
	configureCmd.Flags().IntVar(&port, "port", 8080, "Shinobi port")
	configureCmd.Flags().StringVar(&scheme, "scheme", "http", "Shinobi URL scheme (http or https)")
	configureCmd.Flags().StringVar(&token, "token", "", "Shinobi API key")
	configureCmd.Flags().StringVar(&groupKey, "group-key", "", "Shinobi group key")
	configureCmd.Flags().StringVar(&botKey, "bot-key", "", "Telegram bot token")
	configureCmd.Flags().Int64Var(&chatID, "chat-id", 0, "Telegram chat that receives motion alerts")
	configureCmd.Flags().StringVar(&listen, "listen", "", "Address for the webhook listener (e.g. :8090)")
}
