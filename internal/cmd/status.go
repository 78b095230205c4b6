package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/chessrelay/internal/gameclient"
	"github.com/BioHazard786/chessrelay/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the rooms on a relay server",
	Long: `Fetch the server's room snapshot and print it as a table.

Examples:
  chessrelay status
  chessrelay status --server wss://chess.example/ws`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return status(cmd.Context())
	},
}

func status(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stats, err := gameclient.FetchStats(ctx, cfg.StatsURL())
	if err != nil {
		return err
	}

	fmt.Println(ui.StatsView(stats))
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
