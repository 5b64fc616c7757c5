package citation

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SourceType classifies the cited work.
type SourceType string

// Source types accepted in records.
const (
	SourceJournal    SourceType = "journal"
	SourceBook       SourceType = "book"
	SourceWebsite    SourceType = "website"
	SourceImage      SourceType = "image"
	SourceReport     SourceType = "report"
	SourcePatent     SourceType = "patent"
	SourceConference SourceType = "conference"
)

// sourceAliases maps loose source type names onto the canonical set.
var sourceAliases = map[string]SourceType{
	"":                 SourceJournal,
	"journal":          SourceJournal,
	"article":          SourceJournal,
	"article-journal":  SourceJournal,
	"paper":            SourceConference,
	"conference":       SourceConference,
	"paper-conference": SourceConference,
	"proceedings":      SourceConference,
	"book":             SourceBook,
	"chapter":          SourceBook,
	"website":          SourceWebsite,
	"web":              SourceWebsite,
	"webpage":          SourceWebsite,
	"online":           SourceWebsite,
	"image":            SourceImage,
	"figure":           SourceImage,
	"graphic":          SourceImage,
	"report":           SourceReport,
	"thesis":           SourceReport,
	"preprint":         SourceReport,
	"patent":           SourcePatent,
}

// cslTypes maps source types onto CSL reference types.
var cslTypes = map[SourceType]string{
	SourceJournal:    "article-journal",
	SourceBook:       "book",
	SourceWebsite:    "webpage",
	SourceImage:      "graphic",
	SourceReport:     "report",
	SourcePatent:     "patent",
	SourceConference: "paper-conference",
}

// ParseSourceType normalizes s. Unknown values report ok=false.
func ParseSourceType(s string) (SourceType, bool) {
	t, ok := sourceAliases[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// CSLType returns the CSL reference type, or "document" for unknown values.
func (t SourceType) CSLType() string {
	if c, ok := cslTypes[t]; ok {
		return c
	}
	return "document"
}

// Record is the bibliographic metadata for one citation.
type Record struct {
	Author     string   `json:"author"`
	Authors    []string `json:"authors,omitempty"`
	Year       string   `json:"year"`
	Title      string   `json:"title"`
	SourceType string   `json:"sourceType"`
	DOI        string   `json:"doi,omitempty"`
	URL        string   `json:"url,omitempty"`
	Publisher  string   `json:"publisher,omitempty"`
	Medium     string   `json:"medium,omitempty"`
	Container  string   `json:"container,omitempty"`
	Volume     string   `json:"volume,omitempty"`
	Issue      string   `json:"issue,omitempty"`
	Pages      string   `json:"pages,omitempty"`
}

// UnmarshalJSON accepts a numeric year and the snake_case field names used
// by upstream research tooling (source_type, source_name).
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var aux struct {
		plain
		Year          json.RawMessage `json:"year"`
		SourceTypeAlt string          `json:"source_type"`
		SourceName    string          `json:"source_name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Record(aux.plain)
	r.Year = rawYear(aux.Year)
	if r.SourceType == "" {
		r.SourceType = aux.SourceTypeAlt
	}
	if r.Container == "" {
		r.Container = aux.SourceName
	}
	return nil
}

// rawYear keeps the year text as sent; numbers keep their literal digits.
func rawYear(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
