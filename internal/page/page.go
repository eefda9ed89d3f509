// Package page описывает документ, по которому работает детектор: разметку,
// глобальный scope и сетевую активность страницы.
package page

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Snapshot снимок вкладки от агента страницы. Обязателен только HTML.
type Snapshot struct {
	URL              string            `json:"url"`
	HTML             string            `json:"html"`
	Headers          http.Header       `json:"headers,omitempty"`
	CharacterSet     string            `json:"characterSet,omitempty"`
	Globals          map[string]Global `json:"globals,omitempty"`
	BackgroundImages []string          `json:"backgroundImages,omitempty"`
	Requests         []string          `json:"requests,omitempty"`
}

// Page разобранный снимок, безопасен для конкурентного чтения.
type Page struct {
	raw              string
	url              *url.URL
	doc              *goquery.Document
	headers          http.Header
	characterSet     string
	backgroundImages []string
	scope            Scope
	network          *Network
}

// Load разбирает снимок. Глобальные переменные берутся из снимка, а если их
// нет, выводятся из inline скриптов.
func Load(snap Snapshot) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		return nil, fmt.Errorf("parsing markup: %w", err)
	}

	var u *url.URL
	if snap.URL != "" {
		u, err = url.Parse(snap.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing page url: %w", err)
		}
	}

	globals := snap.Globals
	if globals == nil {
		globals = InferGlobals(doc)
	}

	p := &Page{
		raw:              snap.HTML,
		url:              u,
		doc:              doc,
		headers:          snap.Headers,
		characterSet:     snap.CharacterSet,
		backgroundImages: snap.BackgroundImages,
		scope:            NewScope(globals),
		network:          NewNetwork(),
	}
	for _, req := range snap.Requests {
		p.network.Observe(req)
	}
	return p, nil
}

// Document goquery документ для проверок с обходом DOM.
func (p *Page) Document() *goquery.Document { return p.doc }

// Raw разметка как она была снята.
func (p *Page) Raw() string { return p.raw }

// Scope глобальный scope страницы.
func (p *Page) Scope() Scope { return p.scope }

// Network монитор сети страницы.
func (p *Page) Network() *Network { return p.network }

// Headers заголовки ответа, с которыми снят снимок, если есть.
func (p *Page) Headers() http.Header { return p.headers }

// CharacterSet кодировка документа по данным агента.
func (p *Page) CharacterSet() string { return p.characterSet }

// BackgroundImages вычисленные CSS background-image от агента.
func (p *Page) BackgroundImages() []string { return p.backgroundImages }

// URL адрес страницы или nil.
func (p *Page) URL() *url.URL { return p.url }

// Hostname хост страницы без порта.
func (p *Page) Hostname() string {
	if p.url == nil {
		return ""
	}
	return p.url.Hostname()
}

// HTML внутренняя разметка корневого элемента.
func (p *Page) HTML() string {
	out, err := p.doc.Find("html").First().Html()
	if err != nil {
		return ""
	}
	return out
}

// HeadHTML внутренняя разметка <head>.
func (p *Page) HeadHTML() string {
	out, err := p.doc.Find("head").First().Html()
	if err != nil {
		return ""
	}
	return out
}

// Exists проверяет, есть ли элемент под селектор.
func (p *Page) Exists(selector string) bool {
	return p.doc.Find(selector).Length() > 0
}

// Attr атрибут первого элемента под селектор.
func (p *Page) Attr(selector, attr string) (string, bool) {
	return p.doc.Find(selector).First().Attr(attr)
}

// Meta content у <meta name="...">.
func (p *Page) Meta(name string) string {
	v, _ := p.Attr(fmt.Sprintf(`meta[name=%q]`, name), "content")
	return v
}

// ScriptSources абсолютные src скриптов.
func (p *Page) ScriptSources() []string { return p.resolvedAttrs("script[src]", "src") }

// IframeSources абсолютные src iframe.
func (p *Page) IframeSources() []string { return p.resolvedAttrs("iframe[src]", "src") }

// ImageSources абсолютные src картинок.
func (p *Page) ImageSources() []string { return p.resolvedAttrs("img[src]", "src") }

// StylesheetHrefs абсолютные href стилей.
func (p *Page) StylesheetHrefs() []string {
	return p.resolvedAttrs(`link[rel="stylesheet"][href]`, "href")
}

// AnchorHrefs абсолютные href ссылок.
func (p *Page) AnchorHrefs() []string { return p.resolvedAttrs("a[href]", "href") }

func (p *Page) resolvedAttrs(selector, attr string) []string {
	var out []string
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		v, ok := s.Attr(attr)
		if !ok || v == "" {
			return
		}
		out = append(out, p.Resolve(v))
	})
	return out
}

// Resolve превращает ссылку в абсолютный URL так же, как браузер отдаёт её
// через свойства элемента.
func (p *Page) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if p.url == nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return p.url.ResolveReference(parsed).String()
}

// Doctype объявление типа документа.
type Doctype struct {
	Name     string
	PublicID string
	SystemID string
}

// Doctype возвращает объявление типа документа, если оно было.
func (p *Page) Doctype() (Doctype, bool) {
	for _, root := range p.doc.Nodes {
		for n := root.FirstChild; n != nil; n = n.NextSibling {
			if n.Type != html.DoctypeNode {
				continue
			}
			d := Doctype{Name: n.Data}
			for _, a := range n.Attr {
				switch a.Key {
				case "public":
					d.PublicID = a.Val
				case "system":
					d.SystemID = a.Val
				}
			}
			return d, true
		}
	}
	return Doctype{}, false
}
