package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/BetterCallFirewall/techscope/internal/config"
)

func newWhoisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whois <domain>",
		Short: "Look up registration data for a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, true, false)
			if err != nil {
				return err
			}

			findings, err := a.whois.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(findings)
		},
	}
}
