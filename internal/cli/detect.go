package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/BetterCallFirewall/techscope/internal/config"
	"github.com/BetterCallFirewall/techscope/internal/models"
)

type detectOptions struct {
	Whois       bool
	Concurrency int
}

// detectResult одна запись вывода `techscope detect`.
type detectResult struct {
	URL    string         `json:"url"`
	Report *models.Report `json:"report,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func newDetectCmd() *cobra.Command {
	opts := &detectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <url>...",
		Short: "Fetch pages and print their detection reports as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Concurrency < 1 {
				return fmt.Errorf("concurrency must be at least 1 (got %d)", opts.Concurrency)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, opts.Whois, false)
			if err != nil {
				return err
			}

			results := make([]detectResult, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(opts.Concurrency)
			for i, url := range args {
				tab := a.browser.Open(url, false)
				g.Go(func() error {
					results[i] = detectResult{URL: url}
					if err := a.orchestrator.Start(ctx, tab.ID); err != nil {
						results[i].Error = err.Error()
						return nil
					}
					results[i].Report = a.orchestrator.State(tab.ID).Report
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				return err
			}

			for _, r := range results {
				if r.Error != "" {
					return errors.New("some pages could not be analyzed")
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.Whois, "whois", false, "Merge WHOIS registration data into each report")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 4, "Pages analyzed in parallel")
	return cmd
}
