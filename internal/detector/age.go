package detector

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/BetterCallFirewall/techscope/internal/page"
)

var structuredTypes = map[string]bool{
	"WebSite":      true,
	"WebPage":      true,
	"Organization": true,
}

// structuredData возвращает первый JSON-LD объект с разрешённым @type.
// Битые данные пропускаются.
func structuredData(p *page.Page) map[string]any {
	var found map[string]any
	p.Document().Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		switch v := data.(type) {
		case map[string]any:
			if t, _ := v["@type"].(string); structuredTypes[t] {
				found = v
				return false
			}
		case []any:
			for _, item := range v {
				obj, ok := item.(map[string]any)
				if !ok {
					continue
				}
				if t, _ := obj["@type"].(string); structuredTypes[t] {
					found = obj
					return false
				}
			}
		}
		return true
	})
	return found
}

var copyrightStatement = regexp.MustCompile(`©\s*(?:[^0-9]*)\s*((?:19|20)\d{2}(?:\s*[-–—]\s*(?:20)?\d{2})?)[^\n]*`)

// copyrightNotice ищет элемент с самым коротким текстом, где есть знак
// копирайта, и возвращает текст начиная с этого знака.
func copyrightNotice(p *page.Page) string {
	var best string
	bestLen := -1
	p.Document().Find("*").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if !strings.Contains(text, "©") {
			return
		}
		if bestLen < 0 || len(text) <= bestLen {
			best, bestLen = text, len(text)
		}
	})
	if bestLen < 0 {
		return ""
	}
	m := copyrightStatement.FindString(strings.TrimSpace(best))
	return strings.TrimSpace(m)
}

var (
	yearToken     = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	creationMetas = []string{
		`meta[name="created"]`,
		`meta[name="date"]`,
		`meta[property="article:published_time"]`,
		`meta[name="DC.date.created"]`,
	}
)

// estimateAge строит "~N years (since Y)" по самому раннему году копирайта
// или по meta тегу создания. Без них возвращает "".
func estimateAge(p *page.Page, now time.Time) string {
	year := 0
	if notice := copyrightNotice(p); notice != "" {
		for _, tok := range yearToken.FindAllString(notice, -1) {
			y, err := strconv.Atoi(tok)
			if err == nil && (year == 0 || y < year) {
				year = y
			}
		}
	}

	if year == 0 {
		for _, sel := range creationMetas {
			content, _ := p.Attr(sel, "content")
			if content == "" {
				continue
			}
			if t, ok := parseLooseDate(content); ok {
				year = t.Year()
				break
			}
		}
	}

	if year == 0 {
		return ""
	}
	return fmt.Sprintf("~%d years (since %d)", now.Year()-year, year)
}

var looseDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	time.RFC1123,
	time.RFC1123Z,
	"2006-01",
	"2006",
}

func parseLooseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range looseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
