package page

import (
	"sort"
	"strings"
)

// Presence результат поиска в глобальном scope из трёх состояний
type Presence uint8

const (
	Absent Presence = iota
	Present
	PresentWithVersion
)

func (p Presence) String() string {
	switch p {
	case Present:
		return "present"
	case PresentWithVersion:
		return "present-with-version"
	default:
		return "absent"
	}
}

// Global имя из глобального scope страницы. Version заполнен, если объект
// сообщил версию в рантайме.
type Global struct {
	Version string `json:"version,omitempty"`
}

// Lookup ответ на вопрос "есть ли такая глобальная переменная"
type Lookup struct {
	Presence Presence
	Version  string
}

// Found true, если переменная есть, с версией или без.
func (p Lookup) Found() bool { return p.Presence != Absent }

// Scope глобальные имена страницы (только чтение)
type Scope struct {
	globals map[string]Global
	names   []string
}

// NewScope копирует globals в scope.
func NewScope(globals map[string]Global) Scope {
	s := Scope{globals: make(map[string]Global, len(globals))}
	for name, g := range globals {
		if name == "" {
			continue
		}
		s.globals[name] = g
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)
	return s
}

// Lookup ищет переменную по точному имени.
func (s Scope) Lookup(name string) Lookup {
	g, ok := s.globals[name]
	switch {
	case !ok:
		return Lookup{Presence: Absent}
	case g.Version != "":
		return Lookup{Presence: PresentWithVersion, Version: g.Version}
	default:
		return Lookup{Presence: Present}
	}
}

// Has проверяет наличие имени.
func (s Scope) Has(name string) bool {
	_, ok := s.globals[name]
	return ok
}

// HasPrefix проверяет, начинается ли какое-то имя с prefix.
func (s Scope) HasPrefix(prefix string) bool {
	i := sort.SearchStrings(s.names, prefix)
	return i < len(s.names) && strings.HasPrefix(s.names[i], prefix)
}

// HasSubstring проверяет, содержит ли какое-то имя sub.
func (s Scope) HasSubstring(sub string) bool {
	for _, name := range s.names {
		if strings.Contains(name, sub) {
			return true
		}
	}
	return false
}

// Names возвращает отсортированные имена.
func (s Scope) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len число глобальных имён.
func (s Scope) Len() int { return len(s.names) }
