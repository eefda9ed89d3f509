package cli

import (
	"github.com/spf13/cobra"

	"github.com/BetterCallFirewall/techscope/internal/config"
	"github.com/BetterCallFirewall/techscope/internal/web"
)

func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the detection service for the browser UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Web.ListenAddr = listen
			}

			a, err := newApp(cfg, true, true)
			if err != nil {
				return err
			}
			server := web.NewServer(cfg.Web, a.orchestrator, a.browser, a.events)
			return server.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides WEB_LISTEN_ADDR)")
	return cmd
}
