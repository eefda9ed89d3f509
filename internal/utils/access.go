package utils

import (
	"net/url"
	"strings"
	"sync"
)

// DefaultDeniedHosts страницы, куда браузеры не пускают скрипты расширений.
var DefaultDeniedHosts = []string{
	"chrome.google.com",
	"chromewebstore.google.com",
	"addons.mozilla.org",
	"microsoftedge.microsoft.com",
}

// AccessFilter решает, можно ли запускать детектор на странице
type AccessFilter struct {
	allowedSchemes []string
	deniedHosts    []string

	mu    sync.Mutex
	cache map[string]string
}

// NewAccessFilter запрещает переданные хосты и их поддомены вдобавок к
// DefaultDeniedHosts.
func NewAccessFilter(deniedHosts []string) *AccessFilter {
	hosts := append([]string{}, DefaultDeniedHosts...)
	for _, h := range deniedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts = append(hosts, h)
		}
	}
	return &AccessFilter{
		allowedSchemes: []string{"http", "https"},
		deniedHosts:    hosts,
		cache:          make(map[string]string),
	}
}

// DenyReason возвращает причину запрета или "", если страница доступна.
func (f *AccessFilter) DenyReason(rawURL string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if reason, ok := f.cache[rawURL]; ok {
		return reason
	}
	reason := f.evaluate(rawURL)
	if len(f.cache) > 1024 {
		f.cache = make(map[string]string)
	}
	f.cache[rawURL] = reason
	return reason
}

// Allowed проверяет, можно ли запускать детектор на rawURL.
func (f *AccessFilter) Allowed(rawURL string) bool {
	return f.DenyReason(rawURL) == ""
}

func (f *AccessFilter) evaluate(rawURL string) string {
	if rawURL == "" {
		return "tab has no url"
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unparsable url"
	}

	// 1. Только веб-страницы
	scheme := strings.ToLower(u.Scheme)
	allowed := false
	for _, s := range f.allowedSchemes {
		if scheme == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return "unsupported scheme: " + scheme
	}

	// 2. Хосты, закрытые для расширений
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "url has no host"
	}
	for _, denied := range f.deniedHosts {
		if host == denied || strings.HasSuffix(host, "."+denied) {
			return "restricted host: " + denied
		}
	}
	return ""
}
