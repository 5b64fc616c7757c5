package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// SVGNamespace is the namespace every standalone SVG root must declare.
const SVGNamespace = "http://www.w3.org/2000/svg"

// XLinkNamespace is declared on the root when xlink:href attributes are present.
const XLinkNamespace = "http://www.w3.org/1999/xlink"

var (
	svgTagRe     = regexp.MustCompile(`<svg\b[^>]*>`)
	viewBoxRe    = regexp.MustCompile(`viewBox="\s*(-?[0-9.]+)[\s,]+(-?[0-9.]+)[\s,]+([0-9.]+)[\s,]+([0-9.]+)\s*"`)
	widthAttrRe  = regexp.MustCompile(`\swidth="([0-9.]+)(pt|px)?"`)
	heightAttrRe = regexp.MustCompile(`\sheight="([0-9.]+)(pt|px)?"`)
	prologRe     = regexp.MustCompile(`(?s)^.*?(<svg\b)`)
)

// ValidateSVG checks that svg is a single well-formed XML document whose root
// element is <svg>.
func ValidateSVG(svg string) error {
	dec := xml.NewDecoder(strings.NewReader(svg))
	depth := 0
	sawRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("malformed svg: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if sawRoot {
					return fmt.Errorf("malformed svg: multiple root elements")
				}
				if t.Name.Local != "svg" {
					return fmt.Errorf("malformed svg: root element is <%s>", t.Name.Local)
				}
				sawRoot = true
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	if !sawRoot {
		return fmt.Errorf("malformed svg: no <svg> element")
	}
	return nil
}

// StripProlog removes everything before the root <svg> tag, such as the XML
// declaration, DOCTYPE and leading comments emitted by external converters.
func StripProlog(svg string) string {
	return prologRe.ReplaceAllString(svg, "$1")
}

// StampNamespace ensures the root <svg> tag declares the SVG namespace, and the
// xlink namespace when the document uses xlink attributes. Markup extracted from
// an HTML DOM omits both.
func StampNamespace(svg string) string {
	loc := svgTagRe.FindStringIndex(svg)
	if loc == nil {
		return svg
	}
	tag := svg[loc[0]:loc[1]]
	stamped := tag
	if !strings.Contains(tag, `xmlns="`) {
		stamped = strings.Replace(stamped, "<svg", `<svg xmlns="`+SVGNamespace+`"`, 1)
	}
	if strings.Contains(svg, "xlink:") && !strings.Contains(tag, "xmlns:xlink=") {
		stamped = strings.Replace(stamped, "<svg", `<svg xmlns:xlink="`+XLinkNamespace+`"`, 1)
	}
	return svg[:loc[0]] + stamped + svg[loc[1]:]
}

// MeasureSVG reads the root element's size, preferring explicit width/height
// attributes and falling back to the viewBox. Returns nil when neither exists.
func MeasureSVG(svg string) *Dimensions {
	tag := svgTagRe.FindString(svg)
	if tag == "" {
		return nil
	}
	if w, h := attrFloat(widthAttrRe, tag), attrFloat(heightAttrRe, tag); w > 0 && h > 0 {
		return &Dimensions{Width: int(math.Ceil(w)), Height: int(math.Ceil(h))}
	}
	m := viewBoxRe.FindStringSubmatch(tag)
	if m == nil {
		return nil
	}
	w, _ := strconv.ParseFloat(m[3], 64)
	h, _ := strconv.ParseFloat(m[4], 64)
	if w <= 0 || h <= 0 {
		return nil
	}
	return &Dimensions{Width: int(math.Ceil(w)), Height: int(math.Ceil(h))}
}

func attrFloat(re *regexp.Regexp, tag string) float64 {
	m := re.FindStringSubmatch(tag)
	if m == nil {
		return 0
	}
	v, _ := strconv.ParseFloat(m[1], 64)
	return v
}

// EscapeText escapes s for use as XML character data or attribute values.
func EscapeText(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
