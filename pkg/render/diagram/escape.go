package diagram

import "strings"

var templateLiteralEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"${", `\${`,
	"</", `<\/`,
)

// EscapeTemplateLiteral escapes s for embedding between backticks in an
// inline <script>. The literal evaluates back to exactly s: backslashes,
// backticks and interpolation openers are escaped, and "</" is broken up so
// the text cannot close the surrounding script element.
func EscapeTemplateLiteral(s string) string {
	return templateLiteralEscaper.Replace(s)
}
