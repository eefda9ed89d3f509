// Package whois парсит регистрационные данные домена с публичного WHOIS сайта.
package whois

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BetterCallFirewall/techscope/internal/models"
)

const (
	DefaultURLTemplate  = "https://www.whois.com/whois/%s"
	DefaultTimeout      = 10 * time.Second
	DefaultUserAgent    = "techscope-whois/1.0"
	DefaultMaxBodyBytes = 2 << 20
)

var ErrEmptyDomain = errors.New("empty domain")

// FetchError страницу поиска получить не удалось. Вызывающий считает это
// отсутствием дополнительных данных.
type FetchError struct {
	Domain     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("whois lookup for %q: unexpected status %d", e.Domain, e.StatusCode)
	}
	return fmt.Sprintf("whois lookup for %q: %v", e.Domain, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Config конфигурация клиента
type Config struct {
	// URLTemplate должен содержать один %s для домена
	URLTemplate  string
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

// Client выполняет один запрос к сайту WHOIS на домен
type Client struct {
	httpClient *http.Client
	config     Config
	now        func() time.Time
}

// NewClient заполняет пустые поля config значениями по умолчанию.
func NewClient(config Config) *Client {
	if config.URLTemplate == "" {
		config.URLTemplate = DefaultURLTemplate
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.MaxBodyBytes == 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}

	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		now:        time.Now,
	}
}

// Fetch загружает и разбирает страницу поиска домена. Ошибки транспорта и
// статуса возвращаются как *FetchError. Страница без данных даёт пустой срез
// без ошибки.
func (c *Client) Fetch(ctx context.Context, domain string) ([]models.Finding, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil, &FetchError{Err: ErrEmptyDomain}
	}

	target := fmt.Sprintf(c.config.URLTemplate, url.PathEscape(domain))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Domain: domain, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "text/html")

	log.Printf("🔍 WHOIS lookup: %s", target)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Domain: domain, Err: fmt.Errorf("executing request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Domain: domain, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes))
	if err != nil {
		return nil, &FetchError{Domain: domain, Err: fmt.Errorf("reading response body: %w", err)}
	}

	findings := Parse(string(body), c.now())
	log.Printf("✅ WHOIS lookup for %s: %d fields", domain, len(findings))
	return findings, nil
}
