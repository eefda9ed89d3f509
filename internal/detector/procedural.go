package detector

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/BetterCallFirewall/techscope/internal/models"
	"github.com/BetterCallFirewall/techscope/internal/page"
)

const detected = "Detected"

func (e *Engine) serverTech(p *page.Page) []models.Finding {
	findings := []models.Finding{}
	if v := p.Meta("generator"); v != "" {
		findings = append(findings, models.Finding{Name: "Generator", Version: v, Icon: "⚙️"})
	}
	if v := p.Meta("powered-by"); v != "" {
		findings = append(findings, models.Finding{Name: "Powered By", Version: v, Icon: "🔋"})
	}
	if e.fingerprinter != nil {
		e.guard(models.CategoryServerTech, "Fingerprints", func() {
			if f, ok := fingerprint(e.fingerprinter, p); ok {
				findings = append(findings, f)
			}
		})
	}
	return findings
}

func fullStack(p *page.Page) []models.Finding {
	scope := p.Scope()
	hasMongoDB := p.Exists(`script[src*="mongodb"]`) || scope.Has("MongoDB") ||
		p.Exists(`meta[name="database"][content*="MongoDB"]`)
	hasExpress := p.Exists(`script[src*="express"]`) ||
		p.Exists(`meta[name="powered-by"][content*="Express"]`)
	hasNode := p.Exists(`script[src*="node_modules"]`) ||
		p.Exists(`meta[name="powered-by"][content*="Node"]`)
	hasReact := scope.Has("React") || p.Exists("[data-reactroot]")
	hasAngular := scope.Has("angular") || p.Exists("[ng-app]")

	findings := []models.Finding{}
	base := hasMongoDB && hasExpress && hasNode
	if base && hasReact {
		findings = append(findings, models.Finding{Name: "MERN Stack", Version: detected, Icon: "🚀"})
	}
	if base && hasAngular {
		findings = append(findings, models.Finding{Name: "MEAN Stack", Version: detected, Icon: "🚀"})
	}
	return findings
}

func markup(p *page.Page) []models.Finding {
	findings := []models.Finding{}
	if d, ok := p.Doctype(); ok {
		var info string
		switch {
		case d.Name == "html" && d.PublicID == "" && d.SystemID == "":
			info = "HTML5"
		case strings.Contains(d.PublicID, "XHTML"):
			info = "XHTML"
		case strings.Contains(d.PublicID, "HTML 4.01"):
			info = "HTML 4.01"
		default:
			public := d.PublicID
			if public == "" {
				public = "No Public ID"
			}
			info = fmt.Sprintf("%s (%s)", d.Name, public)
		}
		findings = append(findings, models.Finding{Name: "Document Type", Version: info, Icon: "📝"})
	}
	if p.Exists("*[xmlns]") {
		findings = append(findings, models.Finding{Name: "XML Namespaces", Version: detected, Icon: "🔖"})
	}
	if p.Exists("svg") {
		findings = append(findings, models.Finding{Name: "SVG", Version: detected, Icon: "🖋️"})
	}
	if p.Exists("math") {
		findings = append(findings, models.Finding{Name: "MathML", Version: detected, Icon: "🧮"})
	}
	return findings
}

var charsetParam = regexp.MustCompile(`(?i)charset=([^;]+)`)

func encoding(p *page.Page) []models.Finding {
	row := func(v string) []models.Finding {
		return []models.Finding{{Name: "Character Encoding", Version: v, Icon: "🔤"}}
	}

	if v, ok := p.Attr("meta[charset]", "charset"); ok {
		return row(v)
	}

	var contentType *goquery.Selection
	p.Document().Find("meta[http-equiv]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.EqualFold(s.AttrOr("http-equiv", ""), "Content-Type") {
			contentType = s
			return false
		}
		return true
	})
	if contentType != nil {
		if m := charsetParam.FindStringSubmatch(contentType.AttrOr("content", "")); m != nil {
			return row(m[1])
		}
		return []models.Finding{}
	}

	if cs := p.CharacterSet(); cs != "" {
		return row(cs)
	}
	return row("Unknown")
}

var backgroundExt = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp|svg|avif)[?'")]`)

func images(p *page.Page) []models.Finding {
	counts := make(map[string]int)
	var order []string
	add := func(ext string) {
		if ext == "" {
			return
		}
		if _, ok := counts[ext]; !ok {
			order = append(order, ext)
		}
		counts[ext]++
	}

	for _, src := range p.ImageSources() {
		ext := src[strings.LastIndex(src, ".")+1:]
		ext = strings.ToLower(strings.SplitN(ext, "?", 2)[0])
		add(ext)
	}

	backgrounds := append([]string{}, p.BackgroundImages()...)
	p.Document().Find("[style]").Each(func(_ int, s *goquery.Selection) {
		if style := s.AttrOr("style", ""); strings.Contains(strings.ToLower(style), "background") {
			backgrounds = append(backgrounds, style)
		}
	})
	for _, bg := range backgrounds {
		if bg == "" || bg == "none" {
			continue
		}
		if m := backgroundExt.FindStringSubmatch(bg); m != nil {
			add(strings.ToLower(m[1]))
		}
	}

	findings := []models.Finding{}
	for _, ext := range order {
		icon := "🖼️"
		switch ext {
		case "svg":
			icon = "🖋️"
		case "webp", "avif":
			icon = "🚀"
		case "gif":
			icon = "🎞️"
		}
		findings = append(findings, models.Finding{
			Name:    strings.ToUpper(ext),
			Version: fmt.Sprintf("%d images", counts[ext]),
			Icon:    icon,
		})
	}
	return findings
}

func (e *Engine) serverInfo(p *page.Page, src sources) []models.Finding {
	findings := []models.Finding{}
	if v, ok := p.Attr(`meta[name="server"], meta[name="host-server"]`, "content"); ok {
		findings = append(findings, models.Finding{Name: "Server", Version: v, Icon: "🖥️"})
	} else if v := p.Headers().Get("Server"); v != "" {
		findings = append(findings, models.Finding{Name: "Server", Version: v, Icon: "🖥️"})
	}

	seen := make(map[string]bool)
	for _, s := range append(append([]string{}, src.scripts...), src.links...) {
		for _, r := range e.rules.CDNs {
			if seen[r.Name] {
				continue
			}
			var hit bool
			e.guard(r.Category, r.Name, func() { hit = containsAny(s, r.Patterns) })
			if hit {
				seen[r.Name] = true
				findings = append(findings, models.Finding{Name: "CDN", Version: r.Name, Icon: "🌐"})
			}
		}
	}
	return findings
}

// mailtoAddresses возвращает адреса из всех mailto: ссылок.
func mailtoAddresses(p *page.Page) []string {
	var out []string
	p.Document().Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
		addr := strings.TrimPrefix(s.AttrOr("href", ""), "mailto:")
		addr = strings.TrimSpace(strings.SplitN(addr, "?", 2)[0])
		out = append(out, addr)
	})
	return out
}

func emailServer(p *page.Page) []models.Finding {
	findings := []models.Finding{}
	addrs := mailtoAddresses(p)
	if len(addrs) > 0 {
		findings = append(findings, models.Finding{
			Name:    "Email Links",
			Version: fmt.Sprintf("%d detected", len(addrs)),
			Icon:    "📧",
		})

		var domains []string
		seen := make(map[string]bool)
		for _, addr := range addrs {
			_, domain, ok := strings.Cut(addr, "@")
			if !ok || domain == "" || seen[domain] {
				continue
			}
			seen[domain] = true
			domains = append(domains, domain)
		}
		if len(domains) > 0 {
			findings = append(findings, models.Finding{
				Name:    "Email Domains",
				Version: strings.Join(domains, ", "),
				Icon:    "🌐",
			})
		}
	}

	if v := p.Meta("x-mail-server"); v != "" {
		findings = append(findings, models.Finding{Name: "Mail Server", Version: v, Icon: "📨"})
	}
	return findings
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

func emails(p *page.Page) []models.Finding {
	var unique []string
	seen := make(map[string]bool)
	add := func(addr string) {
		if addr != "" && !seen[addr] {
			seen[addr] = true
			unique = append(unique, addr)
		}
	}
	for _, m := range emailPattern.FindAllString(p.HTML(), -1) {
		add(m)
	}
	for _, addr := range mailtoAddresses(p) {
		add(addr)
	}

	if len(unique) == 0 {
		return []models.Finding{}
	}
	version := strings.Join(unique, ", ")
	if len(unique) > 5 {
		version = fmt.Sprintf("%s... (%d total)", strings.Join(unique[:5], ", "), len(unique))
	}
	return []models.Finding{{Name: "Email Addresses", Version: version, Icon: "📧"}}
}

func forms(p *page.Page) []models.Finding {
	all := p.Document().Find("form")
	if all.Length() == 0 {
		return []models.Finding{}
	}

	tagged := func(s *goquery.Selection, word string) bool {
		return strings.Contains(strings.ToLower(s.AttrOr("id", "")), word) ||
			strings.Contains(strings.ToLower(s.AttrOr("class", "")), word)
	}

	var login, search, contact int
	all.Each(func(_ int, s *goquery.Selection) {
		if s.Find(`input[type="password"]`).Length() > 0 || tagged(s, "login") {
			login++
		}
		if s.Find(`input[type="search"]`).Length() > 0 || tagged(s, "search") {
			search++
		}
		if tagged(s, "contact") {
			contact++
		}
	})

	findings := []models.Finding{{Name: "Forms Detected", Version: fmt.Sprintf("%d forms", all.Length()), Icon: "📝"}}
	if login > 0 {
		findings = append(findings, models.Finding{Name: "Login Forms", Version: fmt.Sprintf("%d detected", login), Icon: "🔑"})
	}
	if search > 0 {
		findings = append(findings, models.Finding{Name: "Search Forms", Version: fmt.Sprintf("%d detected", search), Icon: "🔍"})
	}
	if contact > 0 {
		findings = append(findings, models.Finding{Name: "Contact Forms", Version: fmt.Sprintf("%d detected", contact), Icon: "✉️"})
	}
	return findings
}

func dnsInfo(p *page.Page) []models.Finding {
	host := p.Hostname()
	if host == "" {
		return []models.Finding{}
	}
	findings := []models.Finding{{Name: "Domain", Version: host, Icon: "🌐"}}
	if labels := strings.Split(host, "."); len(labels) > 2 {
		findings = append(findings, models.Finding{Name: "Subdomain", Version: labels[0], Icon: "🏷️"})
	}
	return findings
}

// baseDomain оставляет две последние метки хоста.
func baseDomain(host string) (domain, tld string) {
	labels := strings.Split(host, ".")
	tld = labels[len(labels)-1]
	if len(labels) < 2 {
		return host, tld
	}
	return labels[len(labels)-2] + "." + tld, tld
}

var organizationMetas = []string{
	`meta[name="organization"]`,
	`meta[property="og:site_name"]`,
	`meta[name="author"]`,
	`meta[name="copyright"]`,
}

func whoisInfo(p *page.Page) []models.Finding {
	host := p.Hostname()
	if host == "" {
		return []models.Finding{}
	}
	domain, tld := baseDomain(host)
	findings := []models.Finding{
		{Name: "Domain", Version: domain, Icon: "🌐"},
		{Name: "TLD", Version: "." + tld, Icon: "🔍"},
	}

	for _, sel := range organizationMetas {
		if v, _ := p.Attr(sel, "content"); v != "" {
			findings = append(findings, models.Finding{Name: "Organization", Version: v, Icon: "🏢"})
			break
		}
	}

	if c := copyrightNotice(p); c != "" {
		findings = append(findings, models.Finding{Name: "Copyright", Version: c, Icon: "©️"})
	}
	return findings
}

func (e *Engine) apis(p *page.Page, src sources) (findings []models.Finding) {
	sniff := startSniff(p.Network(), e.sniffWindow)
	defer func() {
		if r := recover(); r != nil {
			sniff.close()
			panic(r)
		}
	}()

	findings = []models.Finding{}
	scope := p.Scope()
	if scope.Has("axios") {
		findings = append(findings, models.Finding{Name: "API Client", Version: "Axios detected", Icon: "🔄"})
	}
	if scope.Has("gapi") {
		findings = append(findings, models.Finding{Name: "API Client", Version: "Google API Client", Icon: "🔄"})
	}

	endpoints := sniff.collected()
	seen := make(map[string]bool, len(endpoints))
	for _, ep := range endpoints {
		seen[ep] = true
	}
	for _, s := range src.scripts {
		if (strings.Contains(s, "api.") || strings.Contains(s, "/api/")) && !seen[s] {
			seen[s] = true
			endpoints = append(endpoints, s)
		}
	}

	graphQL := scope.Has("__APOLLO_CLIENT__") || scope.Has("__APOLLO_STATE__")
	if !graphQL {
		p.Document().Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if strings.Contains(s.AttrOr("src", ""), "graphql") || strings.Contains(s.Text(), "graphql") {
				graphQL = true
				return false
			}
			return true
		})
	}
	if graphQL {
		findings = append(findings, models.Finding{Name: "GraphQL", Version: detected, Icon: "📊"})
	}

	if len(endpoints) > 0 {
		version := strings.Join(endpoints[:min(3, len(endpoints))], ", ")
		if len(endpoints) > 3 {
			version += fmt.Sprintf(" (%d total)", len(endpoints))
		}
		findings = append(findings, models.Finding{Name: "API Endpoints", Version: version, Icon: "🔌"})
	}
	return findings
}

func (e *Engine) domainExpiration(p *page.Page) []models.Finding {
	findings := []models.Finding{}
	if host := p.Hostname(); host != "" {
		domain, _ := baseDomain(host)
		findings = append(findings, models.Finding{Name: "Domain", Version: domain, Icon: "🌐"})
	}

	if data := structuredData(p); data != nil {
		if created, ok := data["dateCreated"].(string); ok {
			if t, ok := parseLooseDate(created); ok {
				findings = append(findings, models.Finding{Name: "Page Created", Version: t.Format("1/2/2006"), Icon: "📄"})
			}
		}
	}

	if age := estimateAge(p, e.now()); age != "" {
		findings = append(findings, models.Finding{Name: "Estimated Age", Version: age, Icon: "⏳"})
	}
	return findings
}
