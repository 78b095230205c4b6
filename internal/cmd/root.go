package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/chessrelay/internal/ui"
	"github.com/BioHazard786/chessrelay/internal/version"
)

// Shared by every subcommand.
var (
	flagServer string
	flagCodec  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "chessrelay",
	Short:   "Play chess against whoever connects next",
	Long:    `chessrelay connects to a chess relay server, gets seated in a two-player room as white or black, and relays moves with the opponent in a terminal UI.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "", "Relay websocket URL (default \"ws://localhost:3001/ws\")")
	rootCmd.PersistentFlags().StringVar(&flagCodec, "codec", "", "Wire codec: json or msgpack (default \"json\")")
}
