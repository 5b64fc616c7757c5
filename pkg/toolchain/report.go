package toolchain

import (
	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
)

// Candidates lists the probe order for every tool.
type Candidates struct {
	Browser    []string
	Compiler   []string
	Converters map[string][]string
	// ConverterOrder fixes the order converters are tried in.
	ConverterOrder []string
}

// Resolution is the outcome of discovering one tool.
type Resolution struct {
	Tool string `json:"tool"`
	Path string `json:"path,omitempty"`
	Err  error  `json:"-"`
}

// Found reports whether the tool was located.
func (r Resolution) Found() bool {
	return r.Err == nil && r.Path != ""
}

// Error returns the discovery error message, or empty string.
func (r Resolution) Error() string {
	if r.Err == nil {
		return ""
	}
	return errors.UserMessage(r.Err)
}

// Report is the cached result of discovery.
type Report struct {
	Browser    Resolution   `json:"browser"`
	Compiler   Resolution   `json:"compiler"`
	Converters []Resolution `json:"converters"`
}

// Discover resolves every configured tool once.
func Discover(f Finder, c Candidates) Report {
	var r Report
	r.Browser = resolve(f, Browser, c.Browser)
	r.Compiler = resolve(f, PDFLaTeX, c.Compiler)
	for _, name := range c.ConverterOrder {
		candidates, ok := c.Converters[name]
		if !ok || len(candidates) == 0 {
			candidates = []string{name}
		}
		r.Converters = append(r.Converters, resolve(f, name, candidates))
	}
	return r
}

func resolve(f Finder, tool string, candidates []string) Resolution {
	path, err := f.Resolve(tool, candidates)
	return Resolution{Tool: tool, Path: path, Err: err}
}

// Converter returns the resolution for the named converter.
func (r Report) Converter(name string) (Resolution, bool) {
	for _, c := range r.Converters {
		if c.Tool == name {
			return c, true
		}
	}
	return Resolution{}, false
}
