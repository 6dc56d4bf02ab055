package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"credmint/internal/chain"
	"credmint/internal/collections"
	"credmint/internal/mint"
	"credmint/internal/ownership"
	"credmint/internal/platform/config"
	"credmint/internal/platform/logger"
)

type chainFlags struct {
	rpcURL       string
	nftAddress   string
	vaultAddress string
}

func (f *chainFlags) bind(cmd *cobra.Command, defaults config.Chain) {
	cmd.Flags().StringVar(&f.rpcURL, "rpc-url", defaults.RPCURL, "JSON-RPC endpoint (env CHAIN_RPC_URL)")
	cmd.Flags().StringVar(&f.nftAddress, "nft-address", defaults.NFTAddress, "credential contract address")
	cmd.Flags().StringVar(&f.vaultAddress, "vault-address", defaults.VaultAddress, "KYC vault contract address")
}

// coordinator builds a read-only coordinator over an in-memory store.
func (f *chainFlags) coordinator(cmd *cobra.Command) (*mint.Coordinator, func(), error) {
	if f.rpcURL == "" {
		return nil, nil, fmt.Errorf("--rpc-url is required")
	}
	nft, err := chain.ParseAddress(f.nftAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("nft address: %w", err)
	}
	vault, err := chain.ParseAddress(f.vaultAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("vault address: %w", err)
	}
	client, err := chain.Dial(cmd.Context(), f.rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to chain: %w", err)
	}
	c := mint.New(
		chain.NewCredential(nft, client, client, nil),
		ownership.NewInMemoryStore(),
		collections.Default(),
		mint.WithVault(chain.NewVault(vault, client)),
		mint.WithLogger(logger.Discard()),
	)
	return c, client.Close, nil
}

func newOwnedCmd(defaults config.Chain) *cobra.Command {
	flags := &chainFlags{}

	cmd := &cobra.Command{
		Use:   "owned <address>",
		Short: "List the credentials an address holds on chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, closeFn, err := flags.coordinator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			creds, err := c.Reconcile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(creds)
		},
	}
	flags.bind(cmd, defaults)
	return cmd
}

func newKYCCmd(defaults config.Chain) *cobra.Command {
	flags := &chainFlags{}

	cmd := &cobra.Command{
		Use:   "kyc <address>",
		Short: "Ask the vault whether an address holds an accepted KYC credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, closeFn, err := flags.coordinator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			ok, err := c.HasValidKYC(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	}
	flags.bind(cmd, defaults)
	return cmd
}
