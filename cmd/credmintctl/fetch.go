package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"credmint/internal/platform/config"
	"credmint/internal/platform/logger"
	"credmint/internal/proofrequest"
)

func newFetchConfigCmd(defaults config.Verification) *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "fetch-config <provider>",
		Short: "Fetch and parse a proof-request config",
		Long:  "Fetches /verification-config/{provider} the way verification sessions do and prints the parsed config.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher := proofrequest.NewFetcher(proofrequest.FetcherConfig{
				BaseURL: baseURL,
				Timeout: defaults.FetchTimeout,
				Retries: defaults.FetchRetries,
				Logger:  logger.Discard(),
			})
			raw, err := fetcher.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cfg, err := proofrequest.ParseConfig(raw)
			if err != nil {
				return fmt.Errorf("parse config: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", defaults.ConfigBaseURL, "config endpoint base URL (env VERIFICATION_CONFIG_URL)")
	return cmd
}
