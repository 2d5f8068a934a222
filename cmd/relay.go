package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shinobi-relay/internal/relay"
	"shinobi-relay/internal/telegram"
	"shinobi-relay/pkg/models"
)

var relayChatID int64

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Send a snapshot from every monitor to Telegram once",
	Long: `Runs a single relay, the same one /photo triggers, and exits.
The armed state does not apply: manual relays are never suppressed.`,
	Example: `  shinobi-relay relay
  shinobi-relay relay --chat-id -1001234567890`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if relayChatID != 0 {
			cfg.Telegram.ChatID = relayChatID
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		api, err := telegram.NewBotAPI(cfg.Telegram.BotKey, cfg.Telegram.SendTimeout)
		if err != nil {
			return err
		}

		pipeline := newPipeline(cfg, telegram.NewSink(api, logger), logger, nil)
		out, err := pipeline.Run(context.Background(), relay.Request{
			Destination: models.Destination(cfg.Telegram.ChatID),
			Trigger:     relay.TriggerCLI,
		})

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(out); encErr != nil {
				return encErr
			}
			return err
		}

		if err != nil {
			return fmt.Errorf("relay %s failed: %w", out.ID, err)
		}

		fmt.Printf("Relay %s: %s, %d of %d monitors sent.\n", out.ID, out.Status, out.Sent, out.Monitors)
		for _, f := range out.Failed {
			fmt.Printf("  skipped %s: %v\n", f.MonitorID, f.Err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.Flags().Int64Var(&relayChatID, "chat-id", 0, "Telegram chat to send to (default from config)")
}
