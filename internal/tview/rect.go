package tview

import "github.com/samcharles93/qconv/internal/qmath"

// Rect is a half-open sub-rectangle of the output tensor.
type Rect struct {
	RowBeg, RowEnd int
	ColBeg, ColEnd int
}

// Full covers an outH x outW output.
func Full(outH, outW int) Rect {
	return Rect{RowEnd: outH, ColEnd: outW}
}

// Empty reports whether r covers no element.
func (r Rect) Empty() bool {
	return r.RowBeg >= r.RowEnd || r.ColBeg >= r.ColEnd
}

// Valid reports whether r is ordered and inside an outH x outW output.
func (r Rect) Valid(outH, outW int) bool {
	return r.RowBeg >= 0 && r.ColBeg >= 0 &&
		r.RowBeg <= r.RowEnd && r.ColBeg <= r.ColEnd &&
		r.RowEnd <= outH && r.ColEnd <= outW
}

// Area is the number of output elements per channel covered by r.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return (r.RowEnd - r.RowBeg) * (r.ColEnd - r.ColBeg)
}

// Axis describes one spatial axis of a sliding window.
type Axis struct {
	In       int // input extent
	Out      int // output extent
	Kernel   int
	Stride   int
	Dilation int
	PadBeg   int
}

// Interior returns [beg, end) of output positions whose every kernel tap
// lands inside the input.
func (a Axis) Interior() (beg, end int) {
	eff := (a.Kernel-1)*a.Dilation + 1
	beg = qmath.CeilDiv(a.PadBeg, a.Stride)
	last := a.In - eff + a.PadBeg
	if last < 0 {
		return 0, 0
	}
	end = last/a.Stride + 1
	beg = min(max(beg, 0), a.Out)
	end = min(max(end, 0), a.Out)
	if end < beg {
		end = beg
	}
	return beg, end
}

// Clip returns the first valid kernel tap and the number of valid taps for
// output position pos, together with the input coordinate of the first
// valid tap.
func (a Axis) Clip(pos int) (first, count, origin int) {
	base := pos*a.Stride - a.PadBeg
	if base < 0 {
		first = qmath.CeilDiv(-base, a.Dilation)
	}
	last := a.Kernel
	if lim := qmath.CeilDiv(a.In-base, a.Dilation); lim < last {
		last = lim
	}
	count = last - first
	if count < 0 {
		count = 0
	}
	return first, count, base + first*a.Dilation
}

// InteriorRect intersects the interiors of both axes with r.
func InteriorRect(r Rect, rows, cols Axis) Rect {
	rb, re := rows.Interior()
	cb, ce := cols.Interior()
	out := Rect{
		RowBeg: max(r.RowBeg, rb),
		RowEnd: min(r.RowEnd, re),
		ColBeg: max(r.ColBeg, cb),
		ColEnd: min(r.ColEnd, ce),
	}
	if out.Empty() {
		return Rect{RowBeg: r.RowBeg, RowEnd: r.RowBeg, ColBeg: r.ColBeg, ColEnd: r.ColBeg}
	}
	return out
}

// Borders returns the up to four rectangles of r outside inner: top and
// bottom bands span full width, left and right bands the inner rows only.
// inner must lie within r. An empty inner yields r itself.
func Borders(r, inner Rect) []Rect {
	if inner.Empty() {
		if r.Empty() {
			return nil
		}
		return []Rect{r}
	}
	out := make([]Rect, 0, 4)
	add := func(b Rect) {
		if !b.Empty() {
			out = append(out, b)
		}
	}
	add(Rect{RowBeg: r.RowBeg, RowEnd: inner.RowBeg, ColBeg: r.ColBeg, ColEnd: r.ColEnd})
	add(Rect{RowBeg: inner.RowEnd, RowEnd: r.RowEnd, ColBeg: r.ColBeg, ColEnd: r.ColEnd})
	add(Rect{RowBeg: inner.RowBeg, RowEnd: inner.RowEnd, ColBeg: r.ColBeg, ColEnd: inner.ColBeg})
	add(Rect{RowBeg: inner.RowBeg, RowEnd: inner.RowEnd, ColBeg: inner.ColEnd, ColEnd: r.ColEnd})
	return out
}
