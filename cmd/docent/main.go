// Command docent is an MCP chat client: it connects an LLM provider to a
// set of MCP tool servers and routes chat, @mentions, and /commands through
// them.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "docent",
		Short: "Chat with an LLM wired to MCP tool servers",
		Long: "docent connects an LLM provider to MCP tool servers and routes chat,\n" +
			"@resource mentions, and /prompt commands through them.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "docent.yaml", "path to configuration file")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(chatCmd(), webCmd(), initCmd())

	// Running docent with no subcommand starts the chat.
	root.RunE = chatCmd().RunE

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads .env if present and builds the logger. A missing .env is not
// an error; the config file's ${VAR} references just stay unexpanded.
func setup() *slog.Logger {
	_ = godotenv.Load()

	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
