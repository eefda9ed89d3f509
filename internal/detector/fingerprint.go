package detector

import (
	"fmt"
	"sort"
	"strings"

	wappalyzer "github.com/projectdiscovery/wappalyzergo"

	"github.com/BetterCallFirewall/techscope/internal/models"
	"github.com/BetterCallFirewall/techscope/internal/page"
)

// Fingerprinter сверяет заголовки и тело ответа с внешней базой отпечатков.
// Реализуется *wappalyzer.Wappalyze.
type Fingerprinter interface {
	Fingerprint(headers map[string][]string, body []byte) map[string]struct{}
}

// NewFingerprinter загружает встроенную базу wappalyzer.
func NewFingerprinter() (Fingerprinter, error) {
	client, err := wappalyzer.New()
	if err != nil {
		return nil, fmt.Errorf("loading fingerprints: %w", err)
	}
	return client, nil
}

func fingerprint(f Fingerprinter, p *page.Page) (models.Finding, bool) {
	headers := map[string][]string(p.Headers())
	if headers == nil {
		headers = map[string][]string{}
	}
	found := f.Fingerprint(headers, []byte(p.Raw()))
	if len(found) == 0 {
		return models.Finding{}, false
	}
	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return models.Finding{Name: "Fingerprints", Version: strings.Join(names, ", "), Icon: "🧬"}, true
}
