package host

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/BetterCallFirewall/techscope/internal/page"
)

// Loader строит снимок по URL, если агент страницы его не прислал
type Loader interface {
	Load(ctx context.Context, url string) (page.Snapshot, error)
}

// HTTPLoaderConfig конфигурация загрузчика страниц
type HTTPLoaderConfig struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

// HTTPLoader загружает страницы по HTTP, глобальные переменные выводятся позже из разметки
type HTTPLoader struct {
	httpClient *http.Client
	config     HTTPLoaderConfig
}

func NewHTTPLoader(config HTTPLoaderConfig) *HTTPLoader {
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "Mozilla/5.0 (compatible; techscope/1.0)"
	}
	if config.MaxBodyBytes == 0 {
		config.MaxBodyBytes = 5 << 20
	}
	return &HTTPLoader{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
}

func (l *HTTPLoader) Load(ctx context.Context, url string) (page.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return page.Snapshot{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", l.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return page.Snapshot{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return page.Snapshot{}, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.config.MaxBodyBytes))
	if err != nil {
		return page.Snapshot{}, fmt.Errorf("reading response body: %w", err)
	}

	snap := page.Snapshot{
		URL:     resp.Request.URL.String(),
		HTML:    string(body),
		Headers: resp.Header.Clone(),
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		snap.CharacterSet = params["charset"]
	}
	return snap, nil
}
