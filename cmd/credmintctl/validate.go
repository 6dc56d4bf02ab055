package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"credmint/internal/platform/logger"
	"credmint/internal/proof"
)

var errInvalidProof = errors.New("proof rejected")

type validateCommandFlags struct {
	printCompact bool
}

func newValidateCmd() *cobra.Command {
	flags := &validateCommandFlags{}

	cmd := &cobra.Command{
		Use:   "validate <file|->",
		Short: "Check a proof payload",
		Long:  "Runs the structural proof check the mint path uses on a JSON file, or stdin when the argument is -.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			accepted, ok := proof.NewValidator(logger.Discard()).Accept(raw)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "invalid")
				return errInvalidProof
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			if flags.printCompact {
				fmt.Fprintln(cmd.OutOrStdout(), accepted.String())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flags.printCompact, "print", false, "print the proof string that would be minted")
	return cmd
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read proof file: %w", err)
	}
	return raw, nil
}
