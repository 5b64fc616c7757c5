package mathtex

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"star-tex.org/x/tex/kpath"
)

// metrics holds the per-character dimensions of a TFM file as fractions of
// the design size (TFM fix_words, 2^-20 units).
type metrics struct {
	bc, ec int
	width  []int32
	height []int32
	depth  []int32
}

// char returns the fix_word width, height and depth of c. ok is false for
// characters the font does not define.
func (m *metrics) char(c int) (w, h, d int32, ok bool) {
	if m == nil || c < m.bc || c > m.ec {
		return 0, 0, 0, false
	}
	i := c - m.bc
	return m.width[i], m.height[i], m.depth[i], m.width[i] != 0
}

// fontMetrics loads and memoizes TFM files from the engine's embedded
// TeX tree.
type fontMetrics struct {
	ctx kpath.Context

	mu    sync.Mutex
	fonts map[string]*metrics
}

func newFontMetrics() *fontMetrics {
	return &fontMetrics{ctx: kpath.New(), fonts: make(map[string]*metrics)}
}

func (fm *fontMetrics) get(name string) (*metrics, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	if m, ok := fm.fonts[name]; ok {
		return m, nil
	}

	f, err := fm.ctx.Open(name + ".tfm")
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", name, err)
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", name, err)
	}
	m, err := parseTFM(raw)
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", name, err)
	}
	fm.fonts[name] = m
	return m, nil
}

// parseTFM decodes the char_info, width, height and depth tables of a TeX
// font metric file.
func parseTFM(raw []byte) (*metrics, error) {
	if len(raw) < 24 {
		return nil, fmt.Errorf("tfm: short header")
	}
	word := func(i int) int { return int(binary.BigEndian.Uint16(raw[2*i:])) }
	lf, lh, bc, ec := word(0), word(1), word(2), word(3)
	nw, nh, nd := word(4), word(5), word(6)
	if lf*4 > len(raw) || bc > ec+1 || ec > 255 {
		return nil, fmt.Errorf("tfm: inconsistent header")
	}

	n := ec - bc + 1
	infoBase := 24 + 4*lh
	widthBase := infoBase + 4*n
	heightBase := widthBase + 4*nw
	depthBase := heightBase + 4*nh
	if depthBase+4*nd > len(raw) {
		return nil, fmt.Errorf("tfm: truncated tables")
	}
	fix := func(base, idx, limit int) int32 {
		if idx >= limit {
			return 0
		}
		return int32(binary.BigEndian.Uint32(raw[base+4*idx:]))
	}

	m := &metrics{
		bc: bc, ec: ec,
		width:  make([]int32, n),
		height: make([]int32, n),
		depth:  make([]int32, n),
	}
	for i := range n {
		info := raw[infoBase+4*i : infoBase+4*i+4]
		m.width[i] = fix(widthBase, int(info[0]), nw)
		m.height[i] = fix(heightBase, int(info[1]>>4), nh)
		m.depth[i] = fix(depthBase, int(info[1]&0x0f), nd)
	}
	return m, nil
}
