package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"credmint/internal/platform/config"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(config.FromEnv()).Execute(); err != nil {
		slog.Error("failed to run credmintctl", "err", err)
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Server) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "credmintctl",
		Short:         "Credmint operator CLI",
		Long:          "credmintctl checks proof payloads and inspects credential ownership on chain.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newOwnedCmd(cfg.Chain))
	rootCmd.AddCommand(newKYCCmd(cfg.Chain))
	rootCmd.AddCommand(newFetchConfigCmd(cfg.Verification))
	return rootCmd
}
