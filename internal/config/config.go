package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/BetterCallFirewall/techscope/internal/utils"
)

// EnvConfigPath указывает необязательный YAML файл, читаемый до переменных окружения.
const EnvConfigPath = "TECHSCOPE_CONFIG"

type Config struct {
	Web      WebConfig      `yaml:"web"`
	Whois    WhoisConfig    `yaml:"whois"`
	Detector DetectorConfig `yaml:"detector"`
	Domain   DomainConfig   `yaml:"domain"`
	Host     HostConfig     `yaml:"host"`
	Events   EventsConfig   `yaml:"events"`
}

type WebConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type WhoisConfig struct {
	URLTemplate string        `yaml:"url_template"`
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent"`

	// CacheTTL = 0 выключает кеш запросов
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	CacheSize int           `yaml:"cache_size"`
}

type DetectorConfig struct {
	SniffWindow time.Duration `yaml:"sniff_window"`
	Fingerprint bool          `yaml:"fingerprint"`
}

// DomainConfig выбирает способ вычисления регистрируемого домена
type DomainConfig struct {
	Mode utils.DomainMode `yaml:"mode"`
}

type HostConfig struct {
	DeniedHosts  []string      `yaml:"denied_hosts"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

type EventsConfig struct {
	Buffer uint `yaml:"buffer"`
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	return &Config{
		Web: WebConfig{
			ListenAddr:     ":8090",
			AllowedOrigins: []string{"*"},
		},
		Whois: WhoisConfig{
			URLTemplate: "https://www.whois.com/whois/%s",
			Timeout:     10 * time.Second,
			UserAgent:   "techscope-whois/1.0",
			CacheTTL:    time.Hour,
			CacheSize:   512,
		},
		Detector: DetectorConfig{
			SniffWindow: 3 * time.Second,
			Fingerprint: true,
		},
		Domain: DomainConfig{Mode: utils.DomainModeWWW},
		Host: HostConfig{
			FetchTimeout: 15 * time.Second,
		},
		Events: EventsConfig{Buffer: 256},
	}
}

// Load читает .env (если есть), затем YAML из TECHSCOPE_CONFIG, затем
// переменные окружения. Более поздний источник побеждает.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return load(os.Getenv(EnvConfigPath), os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("WEB_LISTEN_ADDR", &c.Web.ListenAddr)
	list("WEB_ALLOWED_ORIGINS", &c.Web.AllowedOrigins)
	str("WHOIS_URL_TEMPLATE", &c.Whois.URLTemplate)
	str("WHOIS_USER_AGENT", &c.Whois.UserAgent)
	list("HOST_DENIED_HOSTS", &c.Host.DeniedHosts)

	var mode string
	str("DOMAIN_MODE", &mode)
	if mode != "" {
		c.Domain.Mode = utils.DomainMode(strings.ToLower(mode))
	}

	if err := dur("WHOIS_TIMEOUT", &c.Whois.Timeout); err != nil {
		return err
	}
	if err := dur("WHOIS_CACHE_TTL", &c.Whois.CacheTTL); err != nil {
		return err
	}
	if err := dur("DETECTOR_SNIFF_WINDOW", &c.Detector.SniffWindow); err != nil {
		return err
	}
	if err := dur("HOST_FETCH_TIMEOUT", &c.Host.FetchTimeout); err != nil {
		return err
	}

	if v, ok := lookup("DETECTOR_FINGERPRINT"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DETECTOR_FINGERPRINT: %w", err)
		}
		c.Detector.Fingerprint = b
	}
	if v, ok := lookup("WHOIS_CACHE_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WHOIS_CACHE_SIZE: %w", err)
		}
		c.Whois.CacheSize = n
	}
	if v, ok := lookup("EVENTS_BUFFER"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("EVENTS_BUFFER: %w", err)
		}
		c.Events.Buffer = uint(n)
	}
	return nil
}

// Validate отклоняет конфигурацию, с которой сервис не запустится.
func (c *Config) Validate() error {
	var errs []error
	if c.Web.ListenAddr == "" {
		errs = append(errs, errors.New("web listen address is empty"))
	}
	if strings.Count(c.Whois.URLTemplate, "%s") != 1 {
		errs = append(errs, fmt.Errorf("whois url template %q must contain exactly one %%s", c.Whois.URLTemplate))
	}
	if c.Whois.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("whois timeout must be positive (got %s)", c.Whois.Timeout))
	}
	if c.Whois.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("whois cache ttl cannot be negative (got %s)", c.Whois.CacheTTL))
	}
	if c.Whois.CacheTTL > 0 && c.Whois.CacheSize < 1 {
		errs = append(errs, fmt.Errorf("whois cache size must be at least 1 (got %d)", c.Whois.CacheSize))
	}
	if c.Detector.SniffWindow < 0 {
		errs = append(errs, fmt.Errorf("sniff window cannot be negative (got %s)", c.Detector.SniffWindow))
	}
	if !c.Domain.Mode.Valid() {
		errs = append(errs, fmt.Errorf("unknown domain mode %q", c.Domain.Mode))
	}
	if c.Host.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("host fetch timeout must be positive (got %s)", c.Host.FetchTimeout))
	}
	if c.Events.Buffer == 0 {
		errs = append(errs, errors.New("events buffer must be at least 1"))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
