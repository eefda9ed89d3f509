package whois

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/BetterCallFirewall/techscope/internal/models"
)

const maxValueRunes = 50

var containerSelectors = []string{".whois-data", "#registryData", ".df-block"}

var (
	creationLabels = []string{
		"Creation Date:", "Registered on:", "Domain Registration Date:",
		"Registration Date:", "Created on:", "Created:", "Domain Created:",
	}
	expirationLabels = []string{
		"Expiration Date:", "Registry Expiry Date:", "Expires on:",
		"Expiry Date:", "Expires:", "Domain Expires:",
	}
	registrarLabels = []string{"Registrar:", "Sponsoring Registrar:"}
)

type datePattern struct {
	re      *regexp.Regexp
	layouts []string
}

// Проверяются по порядку, побеждает первый совпавший
var datePatterns = []datePattern{
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`), []string{"2006-01-02"}},
	{regexp.MustCompile(`(\d{2}-\w{3}-\d{4})`), []string{"02-Jan-2006"}},
	{regexp.MustCompile(`(\d{2}/\d{2}/\d{4})`), []string{"01/02/2006", "02/01/2006"}},
	{regexp.MustCompile(`(\w+ \d{1,2}, \d{4})`), []string{"January 2, 2006", "Jan 2, 2006"}},
	{regexp.MustCompile(`(\d{1,2}-\w+-\d{4})`), []string{"2-Jan-2006", "2-January-2006"}},
	{regexp.MustCompile(`(\d{1,2} \w+ \d{4})`), []string{"2 January 2006", "2 Jan 2006"}},
}

// Parse достаёт регистрационные находки со страницы поиска. Без разметки или
// с битыми полями находок просто меньше.
func Parse(html string, now time.Time) []models.Finding {
	findings := []models.Finding{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return findings
	}

	var text string
	found := false
	for _, sel := range containerSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			text, found = s.Text(), true
			break
		}
	}
	if !found {
		return findings
	}

	if created, _, ok := labeledDate(text, creationLabels); ok {
		findings = append(findings, models.Finding{Name: "Registration Date", Version: created, Icon: "📅"})
	}

	if expires, parsed, ok := labeledDate(text, expirationLabels); ok {
		findings = append(findings, models.Finding{Name: "Expiration Date", Version: expires, Icon: "⏱️"})
		if !parsed.IsZero() {
			status, icon := ExpirationStatus(DaysLeft(parsed, now))
			findings = append(findings, models.Finding{Name: "Expiration Status", Version: status, Icon: icon})
		}
	}

	for _, label := range registrarLabels {
		if v := afterLabel(text, label); v != "" {
			findings = append(findings, models.Finding{Name: "Registrar", Version: truncate(v), Icon: "🏢"})
			break
		}
	}

	if ns := nameServers(text); ns != "" {
		findings = append(findings, models.Finding{Name: "Name Servers", Version: ns, Icon: "🌐"})
	}

	if v := afterLabel(text, "Domain Status:"); v != "" {
		findings = append(findings, models.Finding{Name: "Domain Status", Version: truncate(v), Icon: "🔒"})
	}

	return findings
}

// afterLabel возвращает остаток строки после первого вхождения label.
func afterLabel(text, label string) string {
	_, rest, ok := strings.Cut(text, label)
	if !ok {
		return ""
	}
	line, _, _ := strings.Cut(rest, "\n")
	return strings.TrimSpace(line)
}

// labeledDate перебирает метки по приоритету и возвращает первую найденную
// после них дату и её разобранное значение, если формат подошёл.
func labeledDate(text string, labels []string) (string, time.Time, bool) {
	for _, label := range labels {
		if !strings.Contains(text, label) {
			continue
		}
		if raw, parsed, ok := extractDate(afterLabel(text, label)); ok {
			return raw, parsed, true
		}
	}
	return "", time.Time{}, false
}

func extractDate(s string) (string, time.Time, bool) {
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		for _, layout := range p.layouts {
			if t, err := time.Parse(layout, m[1]); err == nil {
				return m[1], t, true
			}
		}
		return m[1], time.Time{}, true
	}
	return "", time.Time{}, false
}

func nameServers(text string) string {
	_, rest, ok := strings.Cut(text, "Name Server:")
	if !ok {
		return ""
	}
	var servers []string
	for _, line := range strings.Split(rest, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "Name Server:"))
		if line == "" || !strings.Contains(line, ".") {
			continue
		}
		servers = append(servers, line)
		if len(servers) == 2 {
			break
		}
	}
	return strings.Join(servers, ", ")
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxValueRunes {
		return s
	}
	return strings.TrimSpace(string(r[:maxValueRunes]))
}

// DaysLeft = ceil((exp - now) / 24h).
func DaysLeft(exp, now time.Time) int {
	return int(math.Ceil(exp.Sub(now).Hours() / 24))
}

// ExpirationStatus оценивает оставшийся срок регистрации и возвращает текст
// и иконку.
func ExpirationStatus(daysLeft int) (status, icon string) {
	switch {
	case daysLeft < 0:
		return "Expired", "⚠️"
	case daysLeft < 30:
		return fmt.Sprintf("Expiring soon (%d days)", daysLeft), "⚠️"
	default:
		return fmt.Sprintf("Valid (%d days left)", daysLeft), "✅"
	}
}

var expirationFindings = map[string]bool{
	"Registration Date": true,
	"Expiration Date":   true,
	"Expiration Status": true,
}

// IsExpirationFinding проверяет, относится ли находка к domainExpiration, а не к whois.
func IsExpirationFinding(name string) bool {
	return expirationFindings[name]
}

// Split делит находки на domainExpiration и whois, сохраняя порядок.
func Split(findings []models.Finding) (expiration, other []models.Finding) {
	for _, f := range findings {
		if IsExpirationFinding(f.Name) {
			expiration = append(expiration, f)
		} else {
			other = append(other, f)
		}
	}
	return expiration, other
}
