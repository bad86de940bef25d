// Package engine implements the sliding-window loops shared by every
// convolution, pooling and fully connected kernel.
//
// A call walks one output rectangle. For every output element it locates the
// input window, clips it to the valid input when padding is involved,
// accumulates bias, products and zero-point corrections, requantizes, clamps
// and stores. Each output element inside the rectangle is written exactly
// once; nothing outside it is touched.
package engine

import (
	"golang.org/x/exp/constraints"

	"github.com/samcharles93/qconv/internal/assert"
	"github.com/samcharles93/qconv/internal/dotprod"
	"github.com/samcharles93/qconv/internal/qmath"
	"github.com/samcharles93/qconv/internal/quant"
	"github.com/samcharles93/qconv/internal/tview"
)

// PadMode selects how a loop treats padding.
type PadMode uint8

const (
	// PadNone assumes every kernel tap of the rectangle is inside the input.
	PadNone PadMode = iota
	// PadKernel clips every window to the valid input.
	PadKernel
	// PadSplit runs PadNone over the interior and PadKernel over the borders.
	PadSplit
)

func (m PadMode) String() string {
	switch m {
	case PadNone:
		return "nopad"
	case PadKernel:
		return "krnpad"
	case PadSplit:
		return "split"
	default:
		return "unknown"
	}
}

// Fixed is the kernel extent and padding regime a variant was selected for.
// The extents are checked against the weights in debug builds and select
// nothing else: every variant runs the nopad, split or krnpad loop. A zero
// KW or KH takes the size from the weights.
type Fixed struct {
	KW  int
	KH  int
	Pad PadMode
}

// Geometry is the stride, padding and dilation of a sliding window.
type Geometry struct {
	StrideW, StrideH int
	PadLeft          int
	PadRight         int
	PadTop           int
	PadBottom        int
	DilW, DilH       int
}

func (g Geometry) norm() Geometry {
	g.StrideW = max(g.StrideW, 1)
	g.StrideH = max(g.StrideH, 1)
	g.DilW = max(g.DilW, 1)
	g.DilH = max(g.DilH, 1)
	return g
}

// NoPadding reports whether all four sides are zero.
func (g Geometry) NoPadding() bool {
	return g.PadLeft == 0 && g.PadRight == 0 && g.PadTop == 0 && g.PadBottom == 0
}

// ConvArgs bundles the views and parameters of one convolution call.
type ConvArgs[I, W, B qmath.Storage, A constraints.Signed] struct {
	In      tview.Tensor[I]
	Weights tview.Weights[W]
	Bias    []B
	Out     tview.Tensor[I]
	Geometry
	// Rect is the output region to compute; the zero Rect means all of it.
	Rect  tview.Rect
	Quant quant.Params[B, A]
	// Min and Max are the activation clamp in the output domain.
	Min, Max int64
	Backend  dotprod.Kind
}

func (a *ConvArgs[I, W, B, A]) rect() tview.Rect {
	if a.Rect == (tview.Rect{}) {
		return tview.Full(a.Out.Height, a.Out.Width)
	}
	assert.That(a.Rect.Valid(a.Out.Height, a.Out.Width), "rect %+v outside %dx%d output", a.Rect, a.Out.Height, a.Out.Width)
	return a.Rect
}

func (a *ConvArgs[I, W, B, A]) axes(kw, kh int) (rows, cols tview.Axis) {
	g := a.Geometry
	rows = tview.Axis{In: a.In.Height, Out: a.Out.Height, Kernel: kh, Stride: g.StrideH, Dilation: g.DilH, PadBeg: g.PadTop}
	cols = tview.Axis{In: a.In.Width, Out: a.Out.Width, Kernel: kw, Stride: g.StrideW, Dilation: g.DilW, PadBeg: g.PadLeft}
	return rows, cols
}

func (a *ConvArgs[I, W, B, A]) kernelSize(fix Fixed) (kw, kh int) {
	kw, kh = a.Weights.Width, a.Weights.Height
	if fix.KW != 0 {
		assert.That(fix.KW == kw, "fixed kernel width %d, weights have %d", fix.KW, kw)
		kw = fix.KW
	}
	if fix.KH != 0 {
		assert.That(fix.KH == kh, "fixed kernel height %d, weights have %d", fix.KH, kh)
		kh = fix.KH
	}
	return kw, kh
}

func (a *ConvArgs[I, W, B, A]) store(row, col, ch int, acc A) {
	v := qmath.Clamp(a.Quant.Result(acc, ch), a.Min, a.Max)
	a.Out.Data[a.Out.At(row, col, ch)] = qmath.Sat[I](v)
}

// region runs body over r according to pad. body receives whether windows
// in its rectangle need clipping.
func region(r tview.Rect, rows, cols tview.Axis, pad PadMode, body func(r tview.Rect, clip bool)) {
	if r.Empty() {
		return
	}
	switch pad {
	case PadNone:
		assert.That(tview.InteriorRect(r, rows, cols) == r, "nopad loop over %+v needs padding", r)
		body(r, false)
	case PadSplit:
		inner := tview.InteriorRect(r, rows, cols)
		if !inner.Empty() {
			body(inner, false)
		}
		for _, b := range tview.Borders(r, inner) {
			body(b, true)
		}
	default:
		body(r, true)
	}
}

// window is the clipped input window of one output position.
type window struct {
	ky, kx int // first valid kernel tap
	nky    int
	nkx    int
	y, x   int // input coordinate of the first valid tap
}

func (w window) empty() bool { return w.nky <= 0 || w.nkx <= 0 }

func locate(rows, cols tview.Axis, row, col int, clip bool) window {
	if !clip {
		return window{
			nky: rows.Kernel,
			nkx: cols.Kernel,
			y:   row*rows.Stride - rows.PadBeg,
			x:   col*cols.Stride - cols.PadBeg,
		}
	}
	ky, nky, y := rows.Clip(row)
	kx, nkx, x := cols.Clip(col)
	return window{ky: ky, kx: kx, nky: nky, nkx: nkx, y: y, x: x}
}

// macs accumulates one input-channel window against one weight window,
// including the zero-point corrections
// -zin*sum(w) - zw*sum(in) + zin*zw*taps.
type macs[I, W qmath.Storage, A constraints.Signed] struct {
	dot  dotprod.Ops[I, W, A]
	wsum func(x []W, width, height, col, row int, acc A) A
}

func newMacs[I, W qmath.Storage, A constraints.Signed](kind dotprod.Kind) macs[I, W, A] {
	return macs[I, W, A]{
		dot:  dotprod.For[I, W, A](kind),
		wsum: dotprod.For[W, W, A](kind).Reduce2D,
	}
}

func (m *macs[I, W, A]) window(in []I, w []W, win dotprod.Window, zin, zw, acc A) A {
	acc = m.dot.Dot2D(in, w, win, acc)
	if zin != 0 {
		acc -= zin * m.wsum(w, win.Width, win.Height, win.WCol, win.WRow, 0)
	}
	if zw != 0 {
		acc -= zw * m.dot.Reduce2D(in, win.Width, win.Height, win.InCol, win.InRow, 0)
		acc += zin * zw * A(win.Width*win.Height)
	}
	return acc
}

func (m *macs[I, W, A]) line(in []I, inStep int, w []W, wStep, n int, zin, zw, acc A) A {
	acc = m.dot.Dot1D(in, inStep, w, wStep, n, acc)
	if zin != 0 {
		acc -= zin * m.wsum(w, n, 1, wStep, 0, 0)
	}
	if zw != 0 {
		acc -= zw * m.dot.Reduce2D(in, n, 1, inStep, 0, 0)
		acc += zin * zw * A(n)
	}
	return acc
}
