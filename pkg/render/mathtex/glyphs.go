package mathtex

import "strings"

// encoding identifies how a Computer Modern font lays out its 128 slots.
type encoding int

const (
	encText      encoding = iota // OT1: cmr, cmbx, cmti, cmsl, cmtt, cmss
	encMathItal                  // cmmi, cmmib
	encMathSym                   // cmsy, cmbsy
	encExtension                 // cmex
)

// fontStyle describes how a TeX font maps to SVG text attributes.
type fontStyle struct {
	enc    encoding
	attrs  string
	family string
}

// styleFor maps a TeX font name such as "cmmi10" or "cmbx7" to its encoding
// and SVG attributes.
func styleFor(name string) fontStyle {
	base := strings.TrimRight(name, "0123456789")
	switch base {
	case "cmmi":
		return fontStyle{enc: encMathItal, attrs: ` font-style="italic"`}
	case "cmmib":
		return fontStyle{enc: encMathItal, attrs: ` font-style="italic" font-weight="bold"`}
	case "cmsy":
		return fontStyle{enc: encMathSym}
	case "cmbsy":
		return fontStyle{enc: encMathSym, attrs: ` font-weight="bold"`}
	case "cmex":
		return fontStyle{enc: encExtension}
	case "cmti", "cmu":
		return fontStyle{enc: encText, attrs: ` font-style="italic"`}
	case "cmsl":
		return fontStyle{enc: encText, attrs: ` font-style="oblique"`}
	case "cmbx", "cmb":
		return fontStyle{enc: encText, attrs: ` font-weight="bold"`}
	case "cmtt", "cmsltt", "cmitt":
		return fontStyle{enc: encText, family: "monospace"}
	case "cmss", "cmssi", "cmssbx":
		return fontStyle{enc: encText, family: "sans-serif"}
	default:
		return fontStyle{enc: encText}
	}
}

// glyph returns the Unicode text for slot c, or "" when the slot has no
// useful character representation.
func (s fontStyle) glyph(c int) string {
	if c < 0 || c > 127 {
		return ""
	}
	var table *[128]string
	switch s.enc {
	case encMathItal:
		table = &mathItalGlyphs
	case encMathSym:
		table = &mathSymGlyphs
	case encExtension:
		table = &extensionGlyphs
	default:
		table = &textGlyphs
	}
	return table[c]
}

var greekUpper = [11]string{"Γ", "Δ", "Θ", "Λ", "Ξ", "Π", "Σ", "Υ", "Φ", "Ψ", "Ω"}

var textGlyphs = func() (t [128]string) {
	for c := 0x21; c < 0x7f; c++ {
		t[c] = string(rune(c))
	}
	copy(t[:11], greekUpper[:])
	for c, g := range map[int]string{
		0x0b: "ff", 0x0c: "fi", 0x0d: "fl", 0x0e: "ffi", 0x0f: "ffl",
		0x10: "ı", 0x11: "ȷ", 0x12: "`", 0x13: "´", 0x14: "ˇ", 0x15: "˘",
		0x16: "¯", 0x17: "˚", 0x18: "¸", 0x19: "ß", 0x1a: "æ", 0x1b: "œ",
		0x1c: "ø", 0x1d: "Æ", 0x1e: "Œ", 0x1f: "Ø", 0x22: "”", 0x3c: "¡",
		0x3e: "¿", 0x5c: "“", 0x5f: "˙", 0x7b: "–", 0x7c: "—", 0x7d: "˝",
		0x7e: "˜", 0x7f: "¨",
	} {
		t[c] = g
	}
	return t
}()

var mathItalGlyphs = func() (t [128]string) {
	copy(t[:11], greekUpper[:])
	lower := []string{
		"α", "β", "γ", "δ", "ϵ", "ζ", "η", "θ", "ι", "κ", "λ", "μ", "ν", "ξ",
		"π", "ρ", "σ", "τ", "υ", "ϕ", "χ", "ψ", "ω", "ε", "ϑ", "ϖ", "ϱ", "ς", "φ",
	}
	copy(t[0x0b:], lower)
	for c := '0'; c <= '9'; c++ {
		t[c] = string(c)
	}
	for c := 'A'; c <= 'Z'; c++ {
		t[c] = string(c)
	}
	for c := 'a'; c <= 'z'; c++ {
		t[c] = string(c)
	}
	for c, g := range map[int]string{
		0x28: "↼", 0x29: "↽", 0x2a: "⇀", 0x2b: "⇁", 0x2e: "▹", 0x2f: "◃",
		0x3a: ".", 0x3b: ",", 0x3c: "<", 0x3d: "/", 0x3e: ">", 0x3f: "⋆",
		0x40: "∂", 0x5b: "♭", 0x5c: "♮", 0x5d: "♯", 0x5e: "⌣", 0x5f: "⌢",
		0x60: "ℓ", 0x7b: "ı", 0x7c: "ȷ", 0x7d: "℘", 0x7e: "→", 0x7f: "⁀",
	} {
		t[c] = g
	}
	return t
}()

var mathSymGlyphs = func() (t [128]string) {
	syms := []string{
		"−", "·", "×", "∗", "÷", "⋄", "±", "∓", "⊕", "⊖", "⊗", "⊘", "⊙", "◯", "∘", "∙",
		"≍", "≡", "⊆", "⊇", "≤", "≥", "⪯", "⪰", "∼", "≈", "⊂", "⊃", "≪", "≫", "≺", "≻",
		"←", "→", "↑", "↓", "↔", "↗", "↘", "≃", "⇐", "⇒", "⇑", "⇓", "⇔", "↖", "↙", "∝",
		"′", "∞", "∈", "∋", "△", "▽", "/", "", "∀", "∃", "¬", "∅", "ℜ", "ℑ", "⊤", "⊥",
		"ℵ",
	}
	copy(t[:], syms)
	for c := 'A'; c <= 'Z'; c++ {
		t[c] = string(c)
	}
	copy(t[0x5b:], []string{
		"∪", "∩", "⊎", "∧", "∨", "⊢", "⊣", "⌊", "⌋", "⌈", "⌉", "{", "}", "⟨", "⟩", "|",
		"‖", "↕", "⇕", "\\", "≀", "√", "⨿", "∇", "∫", "⊔", "⊓", "⊑", "⊒", "§", "†", "‡",
		"¶", "♣", "♢", "♡", "♠",
	})
	return t
}()

var extensionGlyphs = func() (t [128]string) {
	delims := []string{"(", ")", "[", "]", "⌊", "⌋", "⌈", "⌉", "{", "}", "⟨", "⟩", "|", "‖", "/", "\\"}
	copy(t[0x00:], delims)
	copy(t[0x10:], []string{"(", ")", "(", ")", "[", "]", "⌊", "⌋", "⌈", "⌉", "{", "}", "⟨", "⟩", "/", "\\"})
	copy(t[0x20:], []string{"(", ")", "[", "]", "⌊", "⌋", "⌈", "⌉", "{", "}", "⟨", "⟩", "/", "\\", "/", "\\"})
	copy(t[0x30:], []string{
		"⎛", "⎞", "⎡", "⎤", "⎣", "⎦", "⎢", "⎥", "⎧", "⎫", "⎩", "⎭", "⎨", "⎬", "⎪", "⏐",
		"⎝", "⎠", "⎜", "⎟", "⟨", "⟩", "⊔", "⊔", "∮", "∮", "⊙", "⊙", "⊕", "⊕", "⊗", "⊗",
		"∑", "∏", "∫", "⋃", "⋂", "⊎", "⋀", "⋁", "∑", "∏", "∫", "⋃", "⋂", "⊎", "⋀", "⋁",
		"∐", "∐", "^", "^", "^", "~", "~", "~", "[", "]", "⌊", "⌋", "⌈", "⌉", "{", "}",
		"√", "√", "√", "√", "√", "⎷", "", "", "↑", "↓", "", "", "", "", "⇑", "⇓",
	})
	return t
}()
