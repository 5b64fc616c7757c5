// Package citation formats bibliographic records into reference strings.
//
// Styles are YAML documents embedded at build time, one per style, with a
// text/template per CSL reference type. Every record is formatted in
// isolation: a record that cannot be formatted yields a plain fallback
// string and never affects its siblings.
package citation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
)

// DefaultStyle is used when a request names no style.
const DefaultStyle = "apa"

// Formatted is the result for one record, in request order.
type Formatted struct {
	Index     int    `json:"index"`
	Formatted string `json:"formatted"`
	Fallback  bool   `json:"fallback,omitempty"`
	Error     string `json:"error,omitempty"`
}

// view is the data handed to style templates.
type view struct {
	Number    int
	Type      string
	Authors   string
	Year      string
	Title     string
	Container string
	Publisher string
	Medium    string
	Volume    string
	Issue     string
	Pages     string
	DOI       string
	URL       string
}

// Formatter holds the compiled style set. It is safe for concurrent use.
type Formatter struct {
	styles       map[string]*Style
	defaultStyle string
}

// NewFormatter loads the embedded styles. An empty defaultStyle selects APA.
func NewFormatter(defaultStyle string) (*Formatter, error) {
	styles, err := loadStyles()
	if err != nil {
		return nil, fmt.Errorf("load citation styles: %w", err)
	}
	if defaultStyle == "" {
		defaultStyle = DefaultStyle
	}
	defaultStyle = strings.ToLower(defaultStyle)
	if _, ok := styles[defaultStyle]; !ok {
		return nil, errors.New(errors.ErrCodeInvalidStyle, "unknown default citation style %q", defaultStyle).
			WithHint("available styles: %s", strings.Join(sortedIDs(styles), ", "))
	}
	return &Formatter{styles: styles, defaultStyle: defaultStyle}, nil
}

// Styles lists the available style ids.
func (f *Formatter) Styles() []string { return sortedIDs(f.styles) }

// DefaultStyle returns the style used for empty style names.
func (f *Formatter) DefaultStyle() string { return f.defaultStyle }

// Style looks up a style by id, case-insensitively. An empty id resolves to
// the default style.
func (f *Formatter) Style(id string) (*Style, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		id = f.defaultStyle
	}
	s, ok := f.styles[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidStyle, "unknown citation style %q", id).
			WithHint("available styles: %s", strings.Join(f.Styles(), ", "))
	}
	return s, nil
}

// Format renders records in order. The only error is an unknown style;
// per-record problems are reported on the record as a fallback.
func (f *Formatter) Format(records []Record, style string) ([]Formatted, error) {
	s, err := f.Style(style)
	if err != nil {
		return nil, err
	}
	out := make([]Formatted, len(records))
	for i, r := range records {
		out[i] = FormatRecord(s, i, r)
	}
	return out, nil
}

// FormatRecord renders a single record at position index. It never fails;
// errors and panics degrade to the fallback form.
func FormatRecord(s *Style, index int, r Record) (res Formatted) {
	res.Index = index
	defer func() {
		if p := recover(); p != nil {
			res = fallback(index, r, fmt.Errorf("formatter panic: %v", p))
		}
	}()

	text, err := format(s, index, r)
	if err != nil {
		return fallback(index, r, err)
	}
	res.Formatted = text
	return res
}

func format(s *Style, index int, r Record) (string, error) {
	e, err := NewEntry(r)
	if err != nil {
		return "", err
	}
	v := view{
		Number:    index + 1,
		Type:      e.Type,
		Authors:   s.FormatNames(e.Author),
		Year:      e.YearText(s.NoDate),
		Title:     e.Title,
		Container: e.Container,
		Publisher: e.Publisher,
		Medium:    e.Medium,
		Volume:    e.Volume,
		Issue:     e.Issue,
		Pages:     e.Page,
		DOI:       e.DOI,
		URL:       e.URL,
	}
	var b strings.Builder
	if err := s.template(e.Type).Execute(&b, v); err != nil {
		return "", fmt.Errorf("apply %s template: %w", s.ID, err)
	}
	return tidy(b.String()), nil
}

var (
	spaceRun  = regexp.MustCompile(`[ \t]{2,}`)
	periodRun = regexp.MustCompile(`\.{2,}`)
)

// tidy normalizes whitespace and the punctuation left behind when a
// template field already ends in a period ("n.d." followed by ".").
// Ellipses survive.
func tidy(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = spaceRun.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, " ,", ",")
	s = strings.ReplaceAll(s, " .", ".")
	s = periodRun.ReplaceAllStringFunc(s, func(run string) string {
		if len(run) == 2 {
			return "."
		}
		return run
	})
	s = strings.ReplaceAll(s, `.".`, `."`)
	s = strings.ReplaceAll(s, `?".`, `?"`)
	s = strings.ReplaceAll(s, `!".`, `!"`)
	return strings.TrimSpace(s)
}

// fallback renders "{author} ({year}). {title}." from the raw record.
func fallback(index int, r Record, err error) Formatted {
	author := strings.TrimSpace(r.Author)
	if author == "" && len(r.Authors) > 0 {
		author = strings.Join(r.Authors, ", ")
	}
	if author == "" {
		author = UnknownAuthor
	}
	year := strings.TrimSpace(r.Year)
	if year == "" {
		year = NoDate
	}
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = Untitled
	}
	return Formatted{
		Index:     index,
		Formatted: fmt.Sprintf("%s (%s). %s.", author, year, title),
		Fallback:  true,
		Error:     err.Error(),
	}
}
