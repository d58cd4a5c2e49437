package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ssokit",
	Short: "ssokit is a sandbox OAuth 2.0 / OpenID Connect authorization code issuer",
	Long: `A self-contained OAuth 2.0 / OpenID Connect issuer for integration testing:
it registers a single sandbox client, issues single-use authorization codes,
and exchanges them for access tokens and signed ID tokens.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
