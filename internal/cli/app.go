package cli

import (
	"fmt"
	"log"

	"github.com/BetterCallFirewall/techscope/internal/broker"
	"github.com/BetterCallFirewall/techscope/internal/config"
	"github.com/BetterCallFirewall/techscope/internal/detector"
	"github.com/BetterCallFirewall/techscope/internal/host"
	"github.com/BetterCallFirewall/techscope/internal/models"
	"github.com/BetterCallFirewall/techscope/internal/orchestrator"
	"github.com/BetterCallFirewall/techscope/internal/signatures"
	"github.com/BetterCallFirewall/techscope/internal/utils"
	"github.com/BetterCallFirewall/techscope/internal/whois"
)

// app хранит компоненты, общие для всех команд.
type app struct {
	config       *config.Config
	engine       *detector.Engine
	browser      *host.Browser
	whois        *whois.Client
	events       *broker.Broker[models.Event]
	orchestrator *orchestrator.Orchestrator
}

// newApp собирает граф компонентов. withWhois=false отключает WHOIS,
// withEvents=false оставляет оркестратор без брокера событий.
func newApp(cfg *config.Config, withWhois, withEvents bool) (*app, error) {
	rules := signatures.Default()
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid signature rules: %w", err)
	}

	opts := []detector.Option{detector.WithSniffWindow(cfg.Detector.SniffWindow)}
	if cfg.Detector.Fingerprint {
		fp, err := detector.NewFingerprinter()
		if err != nil {
			log.Printf("⚠️ Fingerprints disabled: %v", err)
		} else {
			opts = append(opts, detector.WithFingerprinter(fp))
		}
	}
	engine := detector.New(rules, opts...)

	domains, err := utils.NewDomainResolver(cfg.Domain.Mode)
	if err != nil {
		return nil, err
	}

	browser := host.NewBrowser(
		utils.NewAccessFilter(cfg.Host.DeniedHosts),
		host.NewHTTPLoader(host.HTTPLoaderConfig{Timeout: cfg.Host.FetchTimeout}),
	)
	client := whois.NewClient(whois.Config{
		URLTemplate: cfg.Whois.URLTemplate,
		Timeout:     cfg.Whois.Timeout,
		UserAgent:   cfg.Whois.UserAgent,
	})

	var (
		events    *broker.Broker[models.Event]
		publisher orchestrator.Publisher
	)
	if withEvents {
		events = broker.New[models.Event](cfg.Events.Buffer)
		publisher = events
	}

	var fetcher orchestrator.Fetcher
	if withWhois {
		fetcher = client
		if cfg.Whois.CacheTTL > 0 {
			fetcher = whois.NewCachedFetcher(client, cfg.Whois.CacheTTL, cfg.Whois.CacheSize)
		}
	}
	orch := orchestrator.New(browser, engine.Detect, fetcher, publisher, domains, orchestrator.Config{
		WhoisTimeout: cfg.Whois.Timeout,
	})

	return &app{
		config:       cfg,
		engine:       engine,
		browser:      browser,
		whois:        client,
		events:       events,
		orchestrator: orch,
	}, nil
}
