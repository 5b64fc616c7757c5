package mathtex

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DVI opcodes used by TeX's \shipout.
const (
	opSet1     = 128
	opSetRule  = 132
	opPut1     = 133
	opPutRule  = 137
	opNop      = 138
	opBop      = 139
	opEop      = 140
	opPush     = 141
	opPop      = 142
	opRight1   = 143
	opW0       = 147
	opW1       = 148
	opX0       = 152
	opX1       = 153
	opDown1    = 157
	opY0       = 161
	opY1       = 162
	opZ0       = 166
	opZ1       = 167
	opFntNum0  = 171
	opFnt1     = 235
	opXXX1     = 239
	opFntDef1  = 243
	opPre      = 247
	opPost     = 248
	opPostPost = 249
)

// page is one shipped-out box in points, origin at its top-left corner.
type page struct {
	width, height float64
	glyphs        []placedGlyph
	rules         []placedRule
}

type placedGlyph struct {
	x, y float64 // baseline origin
	size float64 // font size in points
	font string
	code int
	// extent is the glyph's height plus depth in points, used to size
	// extensible delimiters and large operators.
	extent float64
}

type placedRule struct {
	x, y, w, h float64
}

type dviFont struct {
	name  string
	scale int32 // at-size in DVI units
	tfm   *metrics
}

type dviRegs struct {
	h, v, w, x, y, z int32
}

// dviReader interprets the DVI stream TeX writes for a single \shipout.
type dviReader struct {
	buf  []byte
	pos  int
	unit float64 // points per DVI unit

	fonts   map[int32]*dviFont
	metrics *fontMetrics
}

// decodeDVI interprets a DVI stream and returns its first page.
func decodeDVI(raw []byte, fm *fontMetrics) (pg page, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("dvi: %v", p)
		}
	}()
	r := &dviReader{buf: raw, fonts: make(map[int32]*dviFont), metrics: fm}
	return r.run()
}

func (r *dviReader) run() (page, error) {
	var (
		pg    page
		regs  dviRegs
		stack []dviRegs
		cur   *dviFont
		seen  bool
	)
	for r.pos < len(r.buf) {
		op := int(r.u(1))
		switch {
		case op < opSet1:
			r.glyph(&pg, cur, regs, op)
			regs.h += r.advance(cur, op)
		case op < opSetRule:
			c := int(r.u(op - opSet1 + 1))
			r.glyph(&pg, cur, regs, c)
			regs.h += r.advance(cur, c)
		case op == opSetRule, op == opPutRule:
			a, b := r.s(4), r.s(4)
			if a > 0 && b > 0 {
				pg.rules = append(pg.rules, placedRule{
					x: r.pt(regs.h), y: r.pt(regs.v - a), w: r.pt(b), h: r.pt(a),
				})
			}
			if op == opSetRule {
				regs.h += b
			}
		case op < opPutRule:
			r.glyph(&pg, cur, regs, int(r.u(op-opPut1+1)))
		case op == opNop:
		case op == opBop:
			if seen {
				return pg, nil
			}
			seen = true
			r.pos += 44
			regs, stack = dviRegs{}, stack[:0]
		case op == opEop:
		case op == opPush:
			stack = append(stack, regs)
		case op == opPop:
			if len(stack) == 0 {
				return pg, fmt.Errorf("dvi: pop on empty stack")
			}
			regs, stack = stack[len(stack)-1], stack[:len(stack)-1]
		case op < opW0:
			regs.h += r.s(op - opRight1 + 1)
		case op == opW0:
			regs.h += regs.w
		case op < opX0:
			regs.w = r.s(op - opW1 + 1)
			regs.h += regs.w
		case op == opX0:
			regs.h += regs.x
		case op < opDown1:
			regs.x = r.s(op - opX1 + 1)
			regs.h += regs.x
		case op < opY0:
			regs.v += r.s(op - opDown1 + 1)
		case op == opY0:
			regs.v += regs.y
		case op < opZ0:
			regs.y = r.s(op - opY1 + 1)
			regs.v += regs.y
		case op == opZ0:
			regs.v += regs.z
		case op < opFntNum0:
			regs.z = r.s(op - opZ1 + 1)
			regs.v += regs.z
		case op < opFnt1:
			cur = r.fonts[int32(op-opFntNum0)]
		case op < opXXX1:
			cur = r.fonts[int32(r.u(op-opFnt1+1))]
		case op < opFntDef1:
			r.pos += int(r.u(op - opXXX1 + 1))
		case op < opPre:
			if err := r.defineFont(op - opFntDef1 + 1); err != nil {
				return pg, err
			}
		case op == opPre:
			r.pos++ // id
			num, den, mag := r.u(4), r.u(4), r.u(4)
			r.pos += int(r.u(1))
			// num/den are 10^-7 m per DVI unit; one point is 254000/72.27 of those.
			r.unit = float64(num) / float64(den) * float64(mag) / 1000 * 72.27 / 254000
		case op == opPost:
			r.pos += 4 + 12 // p, num, den, mag
			pg.height = r.pt(r.s(4))
			pg.width = r.pt(r.s(4))
			r.pos += 4 // s, t
		case op == opPostPost:
			return pg, nil
		default:
			return pg, fmt.Errorf("dvi: unexpected opcode %d", op)
		}
	}
	return pg, nil
}

func (r *dviReader) defineFont(n int) error {
	k := int32(r.u(n))
	r.pos += 4 // checksum
	scale := r.s(4)
	r.pos += 4 // design size
	a, l := int(r.u(1)), int(r.u(1))
	name := string(r.buf[r.pos+a : r.pos+a+l])
	r.pos += a + l

	if _, ok := r.fonts[k]; ok {
		return nil // the postamble repeats every definition
	}
	tfm, err := r.metrics.get(name)
	if err != nil {
		return err
	}
	r.fonts[k] = &dviFont{name: name, scale: scale, tfm: tfm}
	return nil
}

func (r *dviReader) glyph(pg *page, f *dviFont, regs dviRegs, c int) {
	if f == nil {
		return
	}
	_, h, d, _ := f.tfm.char(c)
	pg.glyphs = append(pg.glyphs, placedGlyph{
		x:      r.pt(regs.h),
		y:      r.pt(regs.v),
		size:   r.pt(f.scale),
		font:   f.name,
		code:   c,
		extent: r.pt(scaled(h, f.scale) + scaled(d, f.scale)),
	})
}

func (r *dviReader) advance(f *dviFont, c int) int32 {
	if f == nil {
		return 0
	}
	w, _, _, _ := f.tfm.char(c)
	return scaled(w, f.scale)
}

// scaled converts a TFM fix_word to DVI units at the given at-size.
func scaled(fix, size int32) int32 {
	return int32(math.Round(float64(fix) * float64(size) / (1 << 20)))
}

func (r *dviReader) pt(v int32) float64 {
	return float64(v) * r.unit
}

// u reads an n-byte unsigned big-endian integer.
func (r *dviReader) u(n int) uint32 {
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	switch n {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(binary.BigEndian.Uint16(b))
	case 3:
		return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	default:
		return binary.BigEndian.Uint32(b)
	}
}

// s reads an n-byte signed big-endian integer.
func (r *dviReader) s(n int) int32 {
	v := r.u(n)
	shift := 32 - 8*uint(n)
	return int32(v<<shift) >> shift
}
