// Command relayd runs the topic relay: an HTTP API that stores messages per
// topic and relays them to Telegram in the background.
//
// @title                      Topic Relay API
// @version                    1.0
// @description                Topic/message ingestion with fire-and-forget Telegram relay.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "relayd",
	Short:         "Topic relay service",
	Long:          "relayd stores messages posted to topics and relays them to Telegram chats.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		// A missing .env is normal outside development.
		_ = godotenv.Load()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the relayd version",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("relayd %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("relayd failed")
		os.Exit(1)
	}
}
