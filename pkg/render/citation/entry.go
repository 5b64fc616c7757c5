package citation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Placeholders substituted for missing metadata.
const (
	UnknownAuthor = "Unknown Author"
	NoDate        = "n.d."
	Untitled      = "Untitled"
)

// Name is a CSL name: either family/given parts or a literal.
type Name struct {
	Family  string `json:"family,omitempty" yaml:"family,omitempty"`
	Given   string `json:"given,omitempty" yaml:"given,omitempty"`
	Literal string `json:"literal,omitempty" yaml:"literal,omitempty"`
}

// Date holds CSL date-parts.
type Date struct {
	DateParts [][]int `json:"date-parts" yaml:"date-parts"`
	Suffix    string  `json:"-" yaml:"-"`
}

// Entry is a normalized CSL item built from a Record.
type Entry struct {
	Type      string `json:"type" yaml:"type"`
	Title     string `json:"title" yaml:"title"`
	Author    []Name `json:"author,omitempty" yaml:"author,omitempty"`
	Issued    *Date  `json:"issued,omitempty" yaml:"issued,omitempty"`
	Container string `json:"container-title,omitempty" yaml:"container-title,omitempty"`
	Publisher string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Medium    string `json:"medium,omitempty" yaml:"medium,omitempty"`
	Volume    string `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue     string `json:"issue,omitempty" yaml:"issue,omitempty"`
	Page      string `json:"page,omitempty" yaml:"page,omitempty"`
	DOI       string `json:"DOI,omitempty" yaml:"DOI,omitempty"`
	URL       string `json:"URL,omitempty" yaml:"URL,omitempty"`
}

var (
	yearRe   = regexp.MustCompile(`^(\d{4})(?:-(\d{1,2})(?:-(\d{1,2}))?)?([a-z])?$`)
	noDateRe = regexp.MustCompile(`(?i)^(n\.?\s?d\.?|no date)$`)
	doiRe    = regexp.MustCompile(`(?i)^(?:https?://(?:dx\.)?doi\.org/|doi:\s*)`)
)

// NewEntry normalizes r. It fails only for metadata that is present but
// unusable, such as a year that is not a year.
func NewEntry(r Record) (Entry, error) {
	st, ok := ParseSourceType(r.SourceType)
	e := Entry{
		Type:      "document",
		Title:     strings.TrimSpace(r.Title),
		Container: strings.TrimSpace(r.Container),
		Publisher: strings.TrimSpace(r.Publisher),
		Medium:    strings.TrimSpace(r.Medium),
		Volume:    strings.TrimSpace(r.Volume),
		Issue:     strings.TrimSpace(r.Issue),
		Page:      strings.TrimSpace(r.Pages),
		DOI:       doiRe.ReplaceAllString(strings.TrimSpace(r.DOI), ""),
		URL:       strings.TrimSpace(r.URL),
	}
	if ok {
		e.Type = st.CSLType()
	}
	if e.Title == "" {
		e.Title = Untitled
	}

	for _, a := range authorList(r) {
		e.Author = append(e.Author, ParseName(a))
	}
	if len(e.Author) == 0 {
		e.Author = []Name{{Literal: UnknownAuthor}}
	}

	issued, err := parseYear(r.Year)
	if err != nil {
		return Entry{}, err
	}
	e.Issued = issued
	return e, nil
}

// authorList collects author strings from the list field or the
// semicolon-separated single field.
func authorList(r Record) []string {
	var out []string
	src := r.Authors
	if len(src) == 0 {
		src = strings.Split(r.Author, ";")
	}
	for _, a := range src {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// ParseName splits a full name into CSL parts. The last whitespace-delimited
// token is the family name and the remainder the given names; "Family, Given"
// input is honored as already inverted. Single tokens become literals.
func ParseName(name string) Name {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return Name{}
	}
	if family, given, ok := strings.Cut(name, ","); ok && strings.TrimSpace(given) != "" {
		return Name{Family: strings.TrimSpace(family), Given: strings.TrimSpace(given)}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return Name{Literal: name}
	}
	return Name{Given: name[:idx], Family: name[idx+1:]}
}

// parseYear returns nil for a missing or explicit no-date year.
func parseYear(raw string) (*Date, error) {
	y := strings.TrimSpace(raw)
	if y == "" || noDateRe.MatchString(y) {
		return nil, nil
	}
	m := yearRe.FindStringSubmatch(y)
	if m == nil {
		return nil, fmt.Errorf("unparseable year %q", raw)
	}
	var parts []int
	for _, p := range m[1:4] {
		if p == "" {
			break
		}
		n, _ := strconv.Atoi(p)
		parts = append(parts, n)
	}
	if len(parts) > 1 && (parts[1] < 1 || parts[1] > 12) {
		return nil, fmt.Errorf("unparseable year %q: month out of range", raw)
	}
	return &Date{DateParts: [][]int{parts}, Suffix: m[4]}, nil
}

// YearText renders the issued year with its disambiguation suffix, or NoDate.
func (e Entry) YearText(noDate string) string {
	if e.Issued == nil || len(e.Issued.DateParts) == 0 || len(e.Issued.DateParts[0]) == 0 {
		return noDate
	}
	return fmt.Sprintf("%d%s", e.Issued.DateParts[0][0], e.Issued.Suffix)
}
