package main

import (
	"fmt"

	"github.com/af-corp/shipsense/internal/auth"
	"github.com/spf13/cobra"
)

func newKeygenCmd() *cobra.Command {
	var env string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an API key and the hash to list under auth.key_hashes",
		RunE: func(cmd *cobra.Command, args []string) error {
			rawKey, err := auth.GenerateKey(env)
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "=== ShipSense API Key Generated ===")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  Key Prefix: %s\n", auth.KeyPrefix(rawKey))
			fmt.Fprintf(out, "  Key Hash:   %s\n", auth.HashKey(rawKey))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  API Key (save this, it will NOT be shown again):")
			fmt.Fprintf(out, "  %s\n", rawKey)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  Add the hash to auth.key_hashes in shipsense.yaml.")
			return nil
		},
	}

	cmd.Flags().StringVar(&env, "env", "prod", "environment prefix")
	return cmd
}
