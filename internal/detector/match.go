package detector

import (
	"strings"

	"github.com/BetterCallFirewall/techscope/internal/models"
	"github.com/BetterCallFirewall/techscope/internal/page"
	"github.com/BetterCallFirewall/techscope/internal/signatures"
)

// sources строки-кандидаты, собранные один раз за прогон.
type sources struct {
	scripts []string
	iframes []string
	images  []string
	links   []string
	anchors []string
	html    string
}

func collectSources(p *page.Page) sources {
	return sources{
		scripts: p.ScriptSources(),
		iframes: p.IframeSources(),
		images:  p.ImageSources(),
		links:   p.StylesheetHrefs(),
		anchors: p.AnchorHrefs(),
		html:    p.HTML(),
	}
}

// of возвращает выбранные k строки в фиксированном порядке: URL скриптов,
// iframe, картинок, стилей и ссылок, затем разметка.
func (s sources) of(k signatures.SourceKind) []string {
	var out []string
	if k.Has(signatures.ScriptSrc) {
		out = append(out, s.scripts...)
	}
	if k.Has(signatures.IframeSrc) {
		out = append(out, s.iframes...)
	}
	if k.Has(signatures.ImageSrc) {
		out = append(out, s.images...)
	}
	if k.Has(signatures.LinkHref) {
		out = append(out, s.links...)
	}
	if k.Has(signatures.AnchorHref) {
		out = append(out, s.anchors...)
	}
	if k.Has(signatures.RawHTML) {
		out = append(out, s.html)
	}
	return out
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// matches срабатывает, если сработал любой из признаков правила.
func matches(p *page.Page, src sources, r signatures.Rule) bool {
	scope := p.Scope()
	for _, g := range r.Globals {
		if scope.Lookup(g).Found() {
			return true
		}
	}
	for _, prefix := range r.GlobalPrefixes {
		if scope.HasPrefix(prefix) {
			return true
		}
	}
	for _, sub := range r.GlobalContains {
		if scope.HasSubstring(sub) {
			return true
		}
	}
	for _, sel := range r.Selectors {
		if p.Exists(sel) {
			return true
		}
	}
	if len(r.HeadMarkers) > 0 && containsAny(p.HeadHTML(), r.HeadMarkers) {
		return true
	}
	if len(r.Patterns) > 0 {
		for _, s := range src.of(r.Sources) {
			if containsAny(s, r.Patterns) {
				return true
			}
		}
	}
	return false
}

// identity даёт по строке на каждое сработавшее правило. Дочерние правила
// проверяются только после родителя и идут сразу за ним.
func (e *Engine) identity(p *page.Page, src sources, rules []signatures.Rule) []models.Finding {
	findings := []models.Finding{}
	for _, r := range rules {
		var hit bool
		e.guard(r.Category, r.Name, func() { hit = matches(p, src, r) })
		if !hit {
			continue
		}
		version := "Detected"
		e.guard(r.Category, r.Name, func() { version = e.version(p, src, r) })
		findings = append(findings, models.Finding{
			Name:    r.Name,
			Version: version,
			Icon:    r.Icon,
		})
		if len(r.Children) > 0 {
			findings = append(findings, e.identity(p, src, r.Children)...)
		}
	}
	return findings
}

// summary даёт не больше одной строки со списком сработавших правил в порядке
// первого совпадения. Источники проверяются раньше глобальных переменных.
func (e *Engine) summary(p *page.Page, src sources, rules []signatures.Rule, name, icon string) []models.Finding {
	var names []string
	seen := make(map[string]bool)
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}

	kinds := make(map[signatures.SourceKind][]string)
	var order []signatures.SourceKind
	for _, r := range rules {
		if _, ok := kinds[r.Sources]; !ok {
			kinds[r.Sources] = src.of(r.Sources)
			order = append(order, r.Sources)
		}
	}

	for _, k := range order {
		for _, s := range kinds[k] {
			for _, r := range rules {
				if r.Sources != k || seen[r.Name] {
					continue
				}
				var hit bool
				e.guard(r.Category, r.Name, func() { hit = containsAny(s, r.Patterns) })
				if hit {
					add(r.Name)
				}
			}
		}
	}

	scope := p.Scope()
	for _, r := range rules {
		if seen[r.Name] {
			continue
		}
		for _, g := range r.Globals {
			if scope.Lookup(g).Found() {
				add(r.Name)
				break
			}
		}
	}

	return joined(names, name, icon)
}

// tally то же, что summary, но по одному инструменту за раз: сначала
// паттерны скриптов правила, потом его глобальные переменные. Порядок имён
// совпадает с порядком таблицы.
func (e *Engine) tally(p *page.Page, src sources, rules []signatures.Rule, name, icon string) []models.Finding {
	var names []string
	seen := make(map[string]bool)
	scope := p.Scope()
	for _, r := range rules {
		if seen[r.Name] {
			continue
		}
		var hit bool
		e.guard(r.Category, r.Name, func() {
			for _, s := range src.of(r.Sources) {
				if containsAny(s, r.Patterns) {
					hit = true
					return
				}
			}
			for _, g := range r.Globals {
				if scope.Lookup(g).Found() {
					hit = true
					return
				}
			}
		})
		if hit {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
	}
	return joined(names, name, icon)
}

func joined(names []string, name, icon string) []models.Finding {
	if len(names) == 0 {
		return []models.Finding{}
	}
	return []models.Finding{{Name: name, Version: strings.Join(names, ", "), Icon: icon}}
}

// version ищет версию в глобальных переменных, затем токен name@X.Y.Z в URL
// скриптов (и стилей, если разрешено), затем в DOM атрибуте.
func (e *Engine) version(p *page.Page, src sources, r signatures.Rule) string {
	v := r.Version
	scope := p.Scope()
	for _, g := range v.Globals {
		if found := scope.Lookup(g); found.Presence == page.PresentWithVersion {
			return found.Version
		}
	}

	if re, ok := e.versionTokens[v.ScriptToken]; ok && v.ScriptToken != "" {
		candidates := src.scripts
		if v.LinkToken {
			candidates = append(append([]string{}, src.links...), src.scripts...)
		}
		for _, s := range candidates {
			if m := re.FindStringSubmatch(s); m != nil {
				return m[1]
			}
		}
	}

	if v.Attribute.Selector != "" {
		if val, ok := p.Attr(v.Attribute.Selector, v.Attribute.Attr); ok && val != "" {
			return val
		}
	}

	if v.Fallback != "" {
		return v.Fallback
	}
	return "Detected"
}
