package detector

import (
	"strings"
	"sync"
	"time"

	"github.com/BetterCallFirewall/techscope/internal/page"
)

// sniffScope ограниченный по времени перехват сетевых запросов страницы.
// Собирает URL с /api/ до закрытия. close срабатывает один раз: по истечении
// окна или когда владелец выходит раньше.
type sniffScope struct {
	mu        sync.Mutex
	endpoints []string
	seen      map[string]struct{}

	restore func()
	once    sync.Once
}

func startSniff(n *page.Network, window time.Duration) *sniffScope {
	s := &sniffScope{seen: make(map[string]struct{})}
	s.restore = n.Hook(s.observe)
	if window <= 0 {
		s.close()
		return s
	}
	time.AfterFunc(window, s.close)
	return s
}

func (s *sniffScope) observe(url string) {
	if !strings.Contains(url, "/api/") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[url]; ok {
		return
	}
	s.seen[url] = struct{}{}
	s.endpoints = append(s.endpoints, url)
}

// collected возвращает собранное на текущий момент.
func (s *sniffScope) collected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.endpoints))
	copy(out, s.endpoints)
	return out
}

func (s *sniffScope) close() {
	s.once.Do(s.restore)
}
