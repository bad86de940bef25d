package engine

import (
	"golang.org/x/exp/constraints"

	"github.com/samcharles93/qconv/internal/dotprod"
	"github.com/samcharles93/qconv/internal/qmath"
	"github.com/samcharles93/qconv/internal/tview"
)

// Conv2D computes a full HWC convolution over a.Rect: every output channel
// sums every input channel.
func Conv2D[I, W, B qmath.Storage, A constraints.Signed](a *ConvArgs[I, W, B, A], fix Fixed) {
	a.Geometry = a.Geometry.norm()
	kw, kh := a.kernelSize(fix)
	rows, cols := a.axes(kw, kh)
	m := newMacs[I, W, A](a.Backend)
	zin := a.Quant.InputOffset()

	in, w := &a.In, &a.Weights
	inCol := in.ColStride * a.DilW
	inRow := in.RowStride * a.DilH

	region(a.rect(), rows, cols, fix.Pad, func(r tview.Rect, clip bool) {
		for row := r.RowBeg; row < r.RowEnd; row++ {
			for col := r.ColBeg; col < r.ColEnd; col++ {
				win := locate(rows, cols, row, col, clip)
				dw := dotprod.Window{
					Width: win.nkx, Height: win.nky,
					InCol: inCol, InRow: inRow,
					WCol: w.ColStride, WRow: w.RowStride,
				}
				for o := range w.OutCh {
					acc := a.Quant.BiasAdditive(a.Bias[o], o)
					if !win.empty() {
						zw := a.Quant.WeightOffset(o)
						for c := range w.InCh {
							acc = m.window(
								in.Data[in.At(win.y, win.x, c):],
								w.Data[w.At(win.ky, win.kx, c, o):],
								dw, zin, zw, acc)
						}
					}
					a.store(row, col, o, acc)
				}
			}
		}
	})
}

// Depthwise computes a depthwise convolution over a.Rect: output channel o
// reads input channel o only. Weights are [kh, kw, 1, channels].
func Depthwise[I, W, B qmath.Storage, A constraints.Signed](a *ConvArgs[I, W, B, A], fix Fixed) {
	a.Geometry = a.Geometry.norm()
	kw, kh := a.kernelSize(fix)
	rows, cols := a.axes(kw, kh)
	m := newMacs[I, W, A](a.Backend)
	zin := a.Quant.InputOffset()

	in, w := &a.In, &a.Weights
	inCol := in.ColStride * a.DilW
	inRow := in.RowStride * a.DilH

	region(a.rect(), rows, cols, fix.Pad, func(r tview.Rect, clip bool) {
		for row := r.RowBeg; row < r.RowEnd; row++ {
			for col := r.ColBeg; col < r.ColEnd; col++ {
				win := locate(rows, cols, row, col, clip)
				dw := dotprod.Window{
					Width: win.nkx, Height: win.nky,
					InCol: inCol, InRow: inRow,
					WCol: w.ColStride, WRow: w.RowStride,
				}
				for o := range w.OutCh {
					acc := a.Quant.BiasAdditive(a.Bias[o], o)
					if !win.empty() {
						acc = m.window(
							in.Data[in.At(win.y, win.x, o):],
							w.Data[w.At(win.ky, win.kx, 0, o):],
							dw, zin, a.Quant.WeightOffset(o), acc)
					}
					a.store(row, col, o, acc)
				}
			}
		}
	})
}

// Pointwise computes a 1x1 convolution as a per-pixel matrix product over
// the input channels. Pixels that fall in the padding hold the requantized
// bias.
func Pointwise[I, W, B qmath.Storage, A constraints.Signed](a *ConvArgs[I, W, B, A]) {
	a.Geometry = a.Geometry.norm()
	rows, cols := a.axes(1, 1)
	m := newMacs[I, W, A](a.Backend)
	zin := a.Quant.InputOffset()
	in, w := &a.In, &a.Weights

	r := a.rect()
	for row := r.RowBeg; row < r.RowEnd; row++ {
		y := row*rows.Stride - rows.PadBeg
		for col := r.ColBeg; col < r.ColEnd; col++ {
			x := col*cols.Stride - cols.PadBeg
			inside := y >= 0 && y < in.Height && x >= 0 && x < in.Width
			for o := range w.OutCh {
				acc := a.Quant.BiasAdditive(a.Bias[o], o)
				if inside {
					acc = m.line(
						in.Data[in.At(y, x, 0):], in.ChStride,
						w.Data[w.At(0, 0, 0, o):], w.InChStride,
						w.InCh, zin, a.Quant.WeightOffset(o), acc)
				}
				a.store(row, col, o, acc)
			}
		}
	}
}
