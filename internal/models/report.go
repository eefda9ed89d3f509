package models

import (
	"bytes"
	"encoding/json"
)

// Category раздел отчёта детекции
type Category string

const (
	CategoryFrameworks       Category = "frameworks"
	CategoryLibraries        Category = "libraries"
	CategoryBuildTools       Category = "buildTools"
	CategoryServerTech       Category = "serverTech"
	CategoryFullStack        Category = "fullStack"
	CategoryMarkup           Category = "markup"
	CategoryEncoding         Category = "encoding"
	CategoryImages           Category = "images"
	CategoryServerInfo       Category = "serverInfo"
	CategoryEmailServer      Category = "emailServer"
	CategoryDNSInfo          Category = "dnsInfo"
	CategoryWhois            Category = "whois"
	CategoryEmails           Category = "emails"
	CategoryForms            Category = "forms"
	CategoryAPIs             Category = "apis"
	CategoryDomainExpiration Category = "domainExpiration"
	CategoryAdNetworks       Category = "adNetworks"
	CategoryTagManagers      Category = "tagManagers"
	CategoryTrackers         Category = "trackers"
	CategoryAnalytics        Category = "analytics"
	CategoryPaymentGateways  Category = "paymentGateways"
	CategorySocialMediaLinks Category = "socialMediaLinks"
)

var categoryOrder = []Category{
	CategoryFrameworks,
	CategoryLibraries,
	CategoryBuildTools,
	CategoryServerTech,
	CategoryFullStack,
	CategoryMarkup,
	CategoryEncoding,
	CategoryImages,
	CategoryServerInfo,
	CategoryEmailServer,
	CategoryDNSInfo,
	CategoryWhois,
	CategoryEmails,
	CategoryForms,
	CategoryAPIs,
	CategoryDomainExpiration,
	CategoryAdNetworks,
	CategoryTagManagers,
	CategoryTrackers,
	CategoryAnalytics,
	CategoryPaymentGateways,
	CategorySocialMediaLinks,
}

// Categories возвращает порядок отображения категорий.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Valid проверяет, что категория известна.
func (c Category) Valid() bool {
	for _, known := range categoryOrder {
		if known == c {
			return true
		}
	}
	return false
}

// Finding одна находка. Version свободный текст только для отображения.
type Finding struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Icon    string `json:"icon"`
}

// Report находки по категориям в порядке выполнения проверок.
type Report struct {
	sections map[Category][]Finding
}

// NewReport возвращает отчёт со всеми категориями, пустыми.
func NewReport() *Report {
	r := &Report{sections: make(map[Category][]Finding, len(categoryOrder))}
	for _, c := range categoryOrder {
		r.sections[c] = []Finding{}
	}
	return r
}

// Set заменяет находки категории.
func (r *Report) Set(c Category, findings []Finding) {
	r.ensure()
	if findings == nil {
		findings = []Finding{}
	}
	r.sections[c] = findings
}

// Append добавляет находки в конец категории.
func (r *Report) Append(c Category, findings ...Finding) {
	r.ensure()
	r.sections[c] = append(r.sections[c], findings...)
}

func (r *Report) ensure() {
	if r.sections == nil {
		r.sections = make(map[Category][]Finding, len(categoryOrder))
	}
}

// Get возвращает находки категории. Срез менять нельзя.
func (r *Report) Get(c Category) []Finding {
	if r == nil {
		return nil
	}
	return r.sections[c]
}

// Find возвращает первую находку категории с таким именем.
func (r *Report) Find(c Category, name string) (Finding, bool) {
	for _, f := range r.Get(c) {
		if f.Name == name {
			return f, true
		}
	}
	return Finding{}, false
}

// Len возвращает общее число находок.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, findings := range r.sections {
		n += len(findings)
	}
	return n
}

// Clone глубокая копия, чтобы дополнять уже опубликованный отчёт.
func (r *Report) Clone() *Report {
	out := NewReport()
	if r == nil {
		return out
	}
	for c, findings := range r.sections {
		cp := make([]Finding, len(findings))
		copy(cp, findings)
		out.sections[c] = cp
	}
	return out
}

// MarshalJSON пишет категории в порядке отображения.
func (r *Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range categoryOrder {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(c))
		if err != nil {
			return nil, err
		}
		findings := r.sections[c]
		if findings == nil {
			findings = []Finding{}
		}
		val, err := json.Marshal(findings)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON читает объект в формате MarshalJSON. Неизвестные категории
// пропускаются.
func (r *Report) UnmarshalJSON(data []byte) error {
	var raw map[Category][]Finding
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = *NewReport()
	for c, findings := range raw {
		if c.Valid() {
			r.Set(c, findings)
		}
	}
	return nil
}
