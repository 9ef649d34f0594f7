// Package lang maps stored language preference codes to the native-script
// names used inside prompts.
package lang

import (
	"sort"
	"strings"
)

// Table is an immutable code -> display name mapping. The zero value is usable
// and resolves every code to itself.
type Table struct {
	names map[string]string
}

var nativeNames = map[string]string{
	"en": "English",
	"hi": "हिंदी",
	"bn": "বাংলা",
	"te": "తెలుగు",
	"mr": "मराठी",
	"ta": "தமிழ்",
	"gu": "ગુજરાતી",
	"kn": "ಕನ್ನಡ",
	"ml": "മലയാളം",
	"or": "ଓଡ଼ିଆ",
	"pa": "ਪੰਜਾਬੀ",
}

// DefaultTable returns the built-in set of Indian languages plus English.
func DefaultTable() Table {
	return NewTable(nativeNames)
}

func NewTable(names map[string]string) Table {
	m := make(map[string]string, len(names))
	for k, v := range names {
		m[normalize(k)] = v
	}
	return Table{names: m}
}

// With returns a copy of t with code mapped to name.
func (t Table) With(code, name string) Table {
	m := make(map[string]string, len(t.names)+1)
	for k, v := range t.names {
		m[k] = v
	}
	m[normalize(code)] = name
	return Table{names: m}
}

// Resolve never fails: unknown codes come back unchanged.
func (t Table) Resolve(code string) string {
	if name, ok := t.names[normalize(code)]; ok {
		return name
	}
	return code
}

// Known reports whether code has a display name of its own.
func (t Table) Known(code string) bool {
	_, ok := t.names[normalize(code)]
	return ok
}

// Codes returns the mapped codes, sorted.
func (t Table) Codes() []string {
	out := make([]string, 0, len(t.names))
	for k := range t.names {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ParsePairs reads "code=Name,code=Name" overrides; malformed pairs are skipped.
func ParsePairs(s string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		code, name, ok := strings.Cut(pair, "=")
		code, name = strings.TrimSpace(code), strings.TrimSpace(name)
		if !ok || code == "" || name == "" {
			continue
		}
		out[code] = name
	}
	return out
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
