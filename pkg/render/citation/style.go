package citation

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"
)

//go:embed styles/*.yaml
var styleFS embed.FS

// Name formats understood by NameRules.
const (
	FormatFamilyInitials        = "family-initials"
	FormatFamilyInitialsCompact = "family-initials-compact"
	FormatInitialsFamily        = "initials-family"
	FormatFamilyGiven           = "family-given"
	FormatGivenFamily           = "given-family"
)

// NameRules controls how an author list is rendered.
type NameRules struct {
	Format        string `yaml:"format"`
	FirstFormat   string `yaml:"first-format"`
	Separator     string `yaml:"separator"`
	TwoSeparator  string `yaml:"two-separator"`
	LastSeparator string `yaml:"last-separator"`
	EtAlMin       int    `yaml:"et-al-min"`
	EtAlUseFirst  int    `yaml:"et-al-use-first"`
	EtAlTerm      string `yaml:"et-al-term"`
}

// Style is a citation style definition loaded from YAML. Templates are keyed
// by CSL type with "default" as the fallback.
type Style struct {
	ID        string            `yaml:"id"`
	Title     string            `yaml:"title"`
	Numbered  bool              `yaml:"numbered"`
	NoDate    string            `yaml:"no-date"`
	Names     NameRules         `yaml:"names"`
	Templates map[string]string `yaml:"templates"`

	compiled map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"term": terminate,
}

// ParseStyle decodes and compiles a YAML style definition.
func ParseStyle(data []byte) (*Style, error) {
	var s Style
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode style: %w", err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("style has no id")
	}
	if _, ok := s.Templates["default"]; !ok {
		return nil, fmt.Errorf("style %s: missing default template", s.ID)
	}
	if s.NoDate == "" {
		s.NoDate = NoDate
	}
	if s.Names.Format == "" {
		s.Names.Format = FormatFamilyInitials
	}

	s.compiled = make(map[string]*template.Template, len(s.Templates))
	for typ, text := range s.Templates {
		t, err := template.New(s.ID + "/" + typ).Funcs(templateFuncs).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("style %s: template %s: %w", s.ID, typ, err)
		}
		s.compiled[typ] = t
	}
	return &s, nil
}

// loadStyles reads every embedded style.
func loadStyles() (map[string]*Style, error) {
	files, err := styleFS.ReadDir("styles")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Style, len(files))
	for _, f := range files {
		data, err := styleFS.ReadFile(path.Join("styles", f.Name()))
		if err != nil {
			return nil, err
		}
		s, err := ParseStyle(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name(), err)
		}
		out[s.ID] = s
	}
	return out, nil
}

func (s *Style) template(cslType string) *template.Template {
	if t, ok := s.compiled[cslType]; ok {
		return t
	}
	return s.compiled["default"]
}

// FormatNames renders an author list under the style's name rules.
func (s *Style) FormatNames(names []Name) string {
	r := s.Names
	etAl := false
	if r.EtAlMin > 0 && len(names) >= r.EtAlMin && r.EtAlUseFirst > 0 && r.EtAlUseFirst < len(names) {
		names = names[:r.EtAlUseFirst]
		etAl = true
	}

	parts := make([]string, len(names))
	for i, n := range names {
		format := r.Format
		if i == 0 && r.FirstFormat != "" {
			format = r.FirstFormat
		}
		parts[i] = formatName(n, format)
	}

	switch {
	case etAl:
		return strings.Join(parts, r.Separator) + r.EtAlTerm
	case len(parts) == 0:
		return UnknownAuthor
	case len(parts) == 1:
		return parts[0]
	case len(parts) == 2:
		return parts[0] + r.TwoSeparator + parts[1]
	default:
		last := len(parts) - 1
		return strings.Join(parts[:last], r.Separator) + r.LastSeparator + parts[last]
	}
}

func formatName(n Name, format string) string {
	if n.Literal != "" {
		return n.Literal
	}
	if n.Given == "" {
		return n.Family
	}
	switch format {
	case FormatFamilyInitialsCompact:
		return n.Family + ", " + initials(n.Given, "")
	case FormatInitialsFamily:
		return initials(n.Given, " ") + " " + n.Family
	case FormatFamilyGiven:
		return n.Family + ", " + n.Given
	case FormatGivenFamily:
		return n.Given + " " + n.Family
	default:
		return n.Family + ", " + initials(n.Given, " ")
	}
}

// initials abbreviates given names: "Jean-Paul Marie" becomes "J.-P. M.".
func initials(given, sep string) string {
	var tokens []string
	for _, word := range strings.Fields(given) {
		var parts []string
		for _, p := range strings.Split(word, "-") {
			r, _ := utf8.DecodeRuneInString(p)
			if r == utf8.RuneError {
				continue
			}
			parts = append(parts, string(unicode.ToUpper(r))+".")
		}
		if len(parts) > 0 {
			tokens = append(tokens, strings.Join(parts, "-"))
		}
	}
	return strings.Join(tokens, sep)
}

// terminate ends s with a period unless it already carries terminal punctuation.
func terminate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	switch s[len(s)-1] {
	case '.', '?', '!':
		return s
	}
	return s + "."
}

func sortedIDs(m map[string]*Style) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
