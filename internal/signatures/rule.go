// Package signatures содержит декларативные таблицы правил для распознавания
// технологий. Правила это данные, сопоставление живёт в пакете detector.
package signatures

import (
	"errors"
	"fmt"

	"github.com/BetterCallFirewall/techscope/internal/models"
)

// SourceKind выбирает строки страницы, по которым проверяются паттерны правила
type SourceKind uint8

const (
	ScriptSrc SourceKind = 1 << iota
	IframeSrc
	ImageSrc
	LinkHref
	AnchorHref
	RawHTML
)

// Has проверяет, что k содержит все биты other.
func (k SourceKind) Has(other SourceKind) bool {
	return k&other == other
}

// Rule распознаёт одну технологию. Правило срабатывает по любому признаку:
// паттерн в выбранном источнике, глобальная переменная, селектор или маркер в head.
type Rule struct {
	Category models.Category
	Name     string
	Icon     string

	Patterns []string
	Sources  SourceKind

	Globals        []string
	GlobalPrefixes []string
	GlobalContains []string

	Selectors   []string
	HeadMarkers []string

	Version VersionSource

	// Children проверяются только если сработало это правило
	Children []Rule
}

// AttrRef атрибут первого элемента под Selector
type AttrRef struct {
	Selector string
	Attr     string
}

// VersionSource где искать версию, по приоритету: глобальные переменные,
// токен name@X.Y.Z в URL скрипта (или стиля), DOM атрибут, затем Fallback.
type VersionSource struct {
	Globals     []string
	ScriptToken string
	LinkToken   bool
	Attribute   AttrRef
	Fallback    string
}

// HasSignal проверяет, может ли правило вообще сработать.
func (r Rule) HasSignal() bool {
	return (len(r.Patterns) > 0 && r.Sources != 0) ||
		len(r.Globals) > 0 ||
		len(r.GlobalPrefixes) > 0 ||
		len(r.GlobalContains) > 0 ||
		len(r.Selectors) > 0 ||
		len(r.HeadMarkers) > 0
}

// Set полная таблица правил по категориям
type Set struct {
	Frameworks      []Rule
	Libraries       []Rule
	BuildTools      []Rule
	Trackers        []Rule
	Analytics       []Rule
	AdNetworks      []Rule
	TagManagers     []Rule
	PaymentGateways []Rule
	SocialPlatforms []Rule
	CDNs            []Rule
}

// All возвращает все правила вместе с дочерними в порядке таблицы.
func (s Set) All() []Rule {
	var out []Rule
	var walk func(rules []Rule)
	walk = func(rules []Rule) {
		for _, r := range rules {
			out = append(out, r)
			walk(r.Children)
		}
	}
	for _, table := range [][]Rule{
		s.Frameworks, s.Libraries, s.BuildTools, s.Trackers, s.Analytics,
		s.AdNetworks, s.TagManagers, s.PaymentGateways, s.SocialPlatforms, s.CDNs,
	} {
		walk(table)
	}
	return out
}

// Validate проверяет, что каждое правило пригодно.
func (s Set) Validate() error {
	var errs []error
	for _, r := range s.All() {
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("rule in %s has no name", r.Category))
			continue
		}
		if !r.Category.Valid() {
			errs = append(errs, fmt.Errorf("rule %q: unknown category %q", r.Name, r.Category))
		}
		if !r.HasSignal() {
			errs = append(errs, fmt.Errorf("rule %q: no detection signal", r.Name))
		}
	}
	return errors.Join(errs...)
}
