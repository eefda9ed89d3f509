package page

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var globalAssignments = []*regexp.Regexp{
	regexp.MustCompile(`\bwindow\.([A-Za-z_$][\w$]*)\s*=[^=]`),
	regexp.MustCompile(`\bwindow\[["']([A-Za-z_$][\w$]*)["']\]\s*=[^=]`),
	regexp.MustCompile(`\bself\.([A-Za-z_$][\w$]*)\s*=[^=]`),
}

// Глобальными считаются только объявления вне блоков
var topLevelDeclaration = regexp.MustCompile(`(?m)(?:^|;)\s*(?:var|let|const)\s+([A-Za-z_$][\w$]*)\s*=`)

// id скриптов, которые фреймворки гидрируют в одноимённую глобальную переменную
var hydrationScripts = map[string]string{
	"__NEXT_DATA__": "__NEXT_DATA__",
	"__NUXT_DATA__": "__NUXT__",
}

// InferGlobals выводит глобальные имена из inline скриптов, когда агент не
// прислал живой scope. Версии не выводятся.
func InferGlobals(doc *goquery.Document) map[string]Global {
	out := make(map[string]Global)
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("id"); ok {
			if name, known := hydrationScripts[id]; known {
				out[name] = Global{}
			}
		}
		if _, external := s.Attr("src"); external {
			return
		}
		body := s.Text()
		for _, re := range globalAssignments {
			for _, m := range re.FindAllStringSubmatch(body, -1) {
				out[m[1]] = Global{}
			}
		}
		for _, m := range topLevelDeclaration.FindAllStringSubmatch(topLevel(body), -1) {
			out[m[1]] = Global{}
		}
	})
	return out
}

// topLevel затирает всё внутри фигурных скобок, переводы строк остаются.
func topLevel(body string) string {
	var b strings.Builder
	b.Grow(len(body))
	depth := 0
	for _, c := range body {
		switch {
		case c == '{':
			depth++
			b.WriteByte(' ')
		case c == '}':
			if depth > 0 {
				depth--
			}
			b.WriteByte(' ')
		case c == '\n' || depth == 0:
			b.WriteRune(c)
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}
