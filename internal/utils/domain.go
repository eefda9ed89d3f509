package utils

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DomainMode задаёт способ получения регистрируемого домена из хоста.
type DomainMode string

const (
	// DomainModeWWW только отрезает ведущий "www"
	DomainModeWWW DomainMode = "www"
	// DomainModePublicSuffix использует public suffix list (eTLD+1)
	DomainModePublicSuffix DomainMode = "publicsuffix"
)

// Valid проверяет, что режим известен.
func (m DomainMode) Valid() bool {
	return m == DomainModeWWW || m == DomainModePublicSuffix
}

// DomainResolver извлекает регистрируемый домен из URL вкладки
type DomainResolver struct {
	mode DomainMode
}

func NewDomainResolver(mode DomainMode) (*DomainResolver, error) {
	if mode == "" {
		mode = DomainModeWWW
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown domain mode %q", mode)
	}
	return &DomainResolver{mode: mode}, nil
}

// Registrable возвращает домен для WHOIS запроса.
func (r *DomainResolver) Registrable(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	if r.mode == DomainModePublicSuffix && net.ParseIP(host) == nil {
		// Хосты без публичного суффикса (localhost, intranet) обрабатываем как раньше
		if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
			return domain, nil
		}
	}
	return StripWWW(host), nil
}

// StripWWW убирает ведущий "www", если остаётся больше двух меток.
func StripWWW(host string) string {
	labels := strings.Split(host, ".")
	if len(labels) > 2 && labels[0] == "www" {
		labels = labels[1:]
	}
	return strings.Join(labels, ".")
}
