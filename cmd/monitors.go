package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shinobi-relay/internal/shinobi"
)

// Variables to hold flag values
var (
	monitorID  string
	outputFile string
)

// Helper to load config and build the Shinobi client for the group.
func setupShinobiClient() (*shinobi.Client, string, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	if err := cfg.ValidateShinobi(); err != nil {
		return nil, "", err
	}
	return newShinobiClient(cfg), cfg.Shinobi.GroupKey, nil
}

// Parent Command
var monitorsCmd = &cobra.Command{
	Use:     "monitors",
	Aliases: []string{"cameras"},
	Short:   "Inspect Shinobi monitors",
	Long:    `List the monitors of the configured group or save one monitor's current snapshot.`,
}

// List Command
var monitorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all monitors in the group",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, group, err := setupShinobiClient()
		if err != nil {
			return err
		}

		monitors, err := api.ListMonitors(context.Background(), group)
		if err != nil {
			return fmt.Errorf("fetching monitors: %w", err)
		}

		// --- JSON OUTPUT ---
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(monitors)
		}
		// -------------------

		if len(monitors) == 0 {
			fmt.Println("No monitors found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTATUS")
		fmt.Fprintln(w, "--\t----\t------")

		for _, m := range monitors {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Name, m.Status)
		}
		return w.Flush()
	},
}

// Snapshot Command
var monitorsSnapshotCmd = &cobra.Command{
	Use:     "snapshot",
	Short:   "Save a JPEG snapshot from one monitor",
	Example: `  shinobi-relay monitors snapshot --id "monitor_id" --output "image.jpg"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, group, err := setupShinobiClient()
		if err != nil {
			return err
		}

		fmt.Printf("Requesting snapshot for monitor %s ...\n", monitorID)

		snap, err := api.FetchSnapshot(context.Background(), group, monitorID)
		if err != nil {
			return fmt.Errorf("getting snapshot: %w", err)
		}

		if err := os.WriteFile(outputFile, snap.Data, 0644); err != nil {
			return fmt.Errorf("writing file: %w", err)
		}

		fmt.Printf("Snapshot saved to %s (%d bytes)\n", outputFile, snap.Size())
		return nil
	},
}

func init() {
	// Register Parent
	rootCmd.AddCommand(monitorsCmd)

	// Register Subcommands
	monitorsCmd.AddCommand(monitorsListCmd)
	monitorsCmd.AddCommand(monitorsSnapshotCmd)

	// Flags for Snapshot
	monitorsSnapshotCmd.Flags().StringVar(&monitorID, "id", "", "ID (mid) of the monitor")
	monitorsSnapshotCmd.Flags().StringVar(&outputFile, "output", "snapshot.jpg", "Output filename")
	_ = monitorsSnapshotCmd.MarkFlagRequired("id")
}
