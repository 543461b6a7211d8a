package cli

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "genna-quiz",
		Short:        "Melkam Genna quiz: HTTP/WebSocket server, Telegram bot and terminal client",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFlags(log.LstdFlags | log.Lmsgprefix)
			log.SetPrefix("genna: ")
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", configPath, "path to YAML config (a missing file means defaults plus environment)")
	cmd.AddCommand(
		NewStartCmd(&configPath),
		NewMigrateCmd(&configPath),
		NewPlayCmd(&configPath),
		NewBotCmd(&configPath),
	)
	return cmd
}
