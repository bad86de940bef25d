package engine

import (
	"github.com/samcharles93/qconv/internal/assert"
	"github.com/samcharles93/qconv/internal/dotprod"
	"github.com/samcharles93/qconv/internal/qmath"
	"github.com/samcharles93/qconv/internal/tview"
)

// PoolOp selects the reduction of a pooling window.
type PoolOp uint8

const (
	PoolMax PoolOp = iota
	PoolAvg
)

func (op PoolOp) String() string {
	if op == PoolAvg {
		return "avepool"
	}
	return "maxpool"
}

// PoolArgs bundles the views and parameters of one pooling call. Input and
// output share quantization, so no requantization takes place.
type PoolArgs[I qmath.Storage] struct {
	In  tview.Tensor[I]
	Out tview.Tensor[I]
	Op  PoolOp
	KW  int
	KH  int
	Geometry
	Rect     tview.Rect
	Rounding qmath.Rounding
	Backend  dotprod.Kind
}

// Pool computes max or average pooling over a.Rect. Padding taps are
// excluded: a max ignores them and an average divides by the number of
// valid taps.
func Pool[I qmath.Storage](a *PoolArgs[I], fix Fixed) {
	a.Geometry = a.Geometry.norm()
	kw, kh := a.KW, a.KH
	if fix.KW != 0 {
		assert.That(fix.KW == kw && fix.KH == kh, "fixed pool %dx%d, config %dx%d", fix.KW, fix.KH, kw, kh)
	}
	rows := tview.Axis{In: a.In.Height, Out: a.Out.Height, Kernel: kh, Stride: a.StrideH, Dilation: 1, PadBeg: a.PadTop}
	cols := tview.Axis{In: a.In.Width, Out: a.Out.Width, Kernel: kw, Stride: a.StrideW, Dilation: 1, PadBeg: a.PadLeft}
	ops := dotprod.For[I, I, int64](a.Backend)
	lo, _ := qmath.Limits[I]()

	r := a.Rect
	if r == (tview.Rect{}) {
		r = tview.Full(a.Out.Height, a.Out.Width)
	}
	in := &a.In
	region(r, rows, cols, fix.Pad, func(r tview.Rect, clip bool) {
		for row := r.RowBeg; row < r.RowEnd; row++ {
			for col := r.ColBeg; col < r.ColEnd; col++ {
				win := locate(rows, cols, row, col, clip)
				assert.That(!win.empty(), "pool window at (%d, %d) lies in padding", row, col)
				for c := range in.Ch {
					var v int64
					if !win.empty() {
						src := in.Data[in.At(win.y, win.x, c):]
						switch a.Op {
						case PoolAvg:
							sum := ops.Reduce2D(src, win.nkx, win.nky, in.ColStride, in.RowStride, 0)
							v = qmath.RoundDiv(sum, int64(win.nkx*win.nky), a.Rounding)
						default:
							v = int64(ops.Max2D(src, win.nkx, win.nky, in.ColStride, in.RowStride, I(lo)))
						}
					}
					a.Out.Data[a.Out.At(row, col, c)] = qmath.Sat[I](v)
				}
			}
		}
	})
}
