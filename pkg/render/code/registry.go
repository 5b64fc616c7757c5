package code

import (
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultTheme is used when no theme is requested.
const DefaultTheme = "github"

// Registry is the read-only set of languages and themes loaded at startup.
type Registry struct {
	lexers       map[string]chroma.Lexer
	languages    []string
	themes       map[string]*chroma.Style
	themeNames   []string
	defaultTheme string
}

// NewRegistry loads every chroma lexer (by name and alias) and style. When
// allow is non-empty only those languages are registered. An unknown
// defaultTheme falls back to DefaultTheme.
func NewRegistry(allow []string, defaultTheme string) *Registry {
	r := &Registry{
		lexers: make(map[string]chroma.Lexer),
		themes: make(map[string]*chroma.Style),
	}

	allowed := make(map[string]bool, len(allow))
	for _, a := range allow {
		allowed[strings.ToLower(a)] = true
	}

	for _, l := range lexers.GlobalLexerRegistry.Lexers {
		cfg := l.Config()
		names := append([]string{cfg.Name}, cfg.Aliases...)
		if len(allowed) > 0 && !anyAllowed(allowed, names) {
			continue
		}
		r.languages = append(r.languages, strings.ToLower(cfg.Name))
		for _, n := range names {
			key := strings.ToLower(n)
			if _, exists := r.lexers[key]; !exists {
				r.lexers[key] = chroma.Coalesce(l)
			}
		}
	}
	slices.Sort(r.languages)
	r.languages = slices.Compact(r.languages)

	for _, name := range styles.Names() {
		r.themes[name] = styles.Get(name)
		r.themeNames = append(r.themeNames, name)
	}
	slices.Sort(r.themeNames)

	if _, ok := r.themes[defaultTheme]; !ok {
		defaultTheme = DefaultTheme
	}
	r.defaultTheme = defaultTheme
	return r
}

func anyAllowed(allowed map[string]bool, names []string) bool {
	for _, n := range names {
		if allowed[strings.ToLower(n)] {
			return true
		}
	}
	return false
}

// Lexer returns the lexer registered for a language name or alias.
func (r *Registry) Lexer(language string) (chroma.Lexer, bool) {
	l, ok := r.lexers[strings.ToLower(strings.TrimSpace(language))]
	return l, ok
}

// Theme returns the named style.
func (r *Registry) Theme(name string) (*chroma.Style, bool) {
	s, ok := r.themes[name]
	return s, ok
}

// DefaultTheme returns the configured default theme name.
func (r *Registry) DefaultTheme() string {
	return r.defaultTheme
}

// Languages returns the sorted canonical language names.
func (r *Registry) Languages() []string {
	return slices.Clone(r.languages)
}

// Themes returns the sorted theme names.
func (r *Registry) Themes() []string {
	return slices.Clone(r.themeNames)
}
