package engine

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samcharles93/qconv/internal/dotprod"
	"github.com/samcharles93/qconv/internal/qmath"
	"github.com/samcharles93/qconv/internal/quant"
	"github.com/samcharles93/qconv/internal/tview"
)

type convCase struct {
	inH, inW, inC int
	kh, kw, outC  int
	depthwise     bool
	g             Geometry
}

func (c convCase) String() string {
	return fmt.Sprintf("in=%dx%dx%d k=%dx%d out=%d dw=%v g=%+v", c.inH, c.inW, c.inC, c.kh, c.kw, c.outC, c.depthwise, c.g)
}

func (c convCase) outDims() (h, w int) {
	g := c.g.norm()
	h = tview.OutDim(c.inH, g.PadTop, g.PadBottom, c.kh, g.StrideH, g.DilH)
	w = tview.OutDim(c.inW, g.PadLeft, g.PadRight, c.kw, g.StrideW, g.DilW)
	return h, w
}

func randInt8(r *rand.Rand, n int) []int8 {
	out := make([]int8, n)
	for i := range out {
		out[i] = int8(r.IntN(256) - 128)
	}
	return out
}

// sa8Args builds an sa8 convolution with non-zero input and weight zero
// points and per-axis weight scales.
func sa8Args(r *rand.Rand, c convCase) *ConvArgs[int8, int8, int32, int32] {
	wIn := c.inC
	if c.depthwise {
		wIn = 1
	}
	outH, outW := c.outDims()
	in := randInt8(r, c.inH*c.inW*c.inC)
	w := randInt8(r, c.kh*c.kw*wIn*c.outC)
	bias := make([]int32, c.outC)
	for i := range bias {
		bias[i] = int32(r.IntN(2001) - 1000)
	}
	scales := make([]int16, c.outC)
	fracs := make([]int8, c.outC)
	zeros := make([]int16, c.outC)
	for i := range scales {
		scales[i] = int16(16384 + r.IntN(16000))
		fracs[i] = 22
		zeros[i] = int16(r.IntN(5) - 2)
	}
	p, err := quant.DefineSA8(
		quant.Affine{Scale: []int16{20000}, FracBits: []int8{21}, ZeroPoint: []int16{-7}},
		quant.Affine{Scale: scales, FracBits: fracs, ZeroPoint: zeros},
		quant.Affine{Scale: []int16{30000}, FracBits: []int8{21}, ZeroPoint: []int16{3}},
		c.outC, qmath.RoundUp)
	if err != nil {
		panic(err)
	}
	return &ConvArgs[int8, int8, int32, int32]{
		In:       tview.HWC(in, []int{c.inH, c.inW, c.inC}, nil, tview.MemDefault),
		Weights:  tview.HWCN(w, []int{c.kh, c.kw, wIn, c.outC}, nil),
		Bias:     bias,
		Out:      tview.HWC(make([]int8, outH*outW*c.outC), []int{outH, outW, c.outC}, nil, tview.MemDefault),
		Geometry: c.g,
		Quant:    p,
		Min:      -128,
		Max:      127,
	}
}

// naiveConv is a direct, unclipped translation of the convolution sum in
// which padded taps contribute nothing.
func naiveConv[I, W, B qmath.Storage, A int32 | int64](a *ConvArgs[I, W, B, A], depthwise bool) []I {
	g := a.Geometry.norm()
	out := make([]I, len(a.Out.Data))
	zin := a.Quant.InputOffset()
	for y := range a.Out.Height {
		for x := range a.Out.Width {
			for o := range a.Weights.OutCh {
				acc := a.Quant.BiasAdditive(a.Bias[o], o)
				zw := a.Quant.WeightOffset(o)
				for ky := range a.Weights.Height {
					for kx := range a.Weights.Width {
						iy := y*g.StrideH - g.PadTop + ky*g.DilH
						ix := x*g.StrideW - g.PadLeft + kx*g.DilW
						if iy < 0 || iy >= a.In.Height || ix < 0 || ix >= a.In.Width {
							continue
						}
						if depthwise {
							iv := A(a.In.Data[a.In.At(iy, ix, o)])
							wv := A(a.Weights.Data[a.Weights.At(ky, kx, 0, o)])
							acc += (iv - zin) * (wv - zw)
							continue
						}
						for c := range a.Weights.InCh {
							iv := A(a.In.Data[a.In.At(iy, ix, c)])
							wv := A(a.Weights.Data[a.Weights.At(ky, kx, c, o)])
							acc += (iv - zin) * (wv - zw)
						}
					}
				}
				v := qmath.Clamp(a.Quant.Result(acc, o), a.Min, a.Max)
				out[a.Out.At(y, x, o)] = qmath.Sat[I](v)
			}
		}
	}
	return out
}

var convCases = []convCase{
	{inH: 6, inW: 7, inC: 3, kh: 3, kw: 3, outC: 4},
	{inH: 6, inW: 7, inC: 3, kh: 3, kw: 3, outC: 4, g: Geometry{PadLeft: 1, PadRight: 1, PadTop: 1, PadBottom: 1}},
	{inH: 9, inW: 8, inC: 2, kh: 5, kw: 5, outC: 3, g: Geometry{StrideW: 2, StrideH: 2, PadLeft: 2, PadRight: 2, PadTop: 2, PadBottom: 2}},
	{inH: 12, inW: 12, inC: 2, kh: 10, kw: 10, outC: 2, g: Geometry{PadLeft: 4, PadRight: 5, PadTop: 4, PadBottom: 5}},
	{inH: 7, inW: 9, inC: 4, kh: 1, kw: 4, outC: 3, g: Geometry{PadLeft: 1, PadRight: 2}},
	{inH: 9, inW: 7, inC: 4, kh: 4, kw: 1, outC: 3, g: Geometry{PadTop: 2, PadBottom: 1}},
	{inH: 10, inW: 10, inC: 3, kh: 3, kw: 3, outC: 2, g: Geometry{DilW: 2, DilH: 3, PadLeft: 2, PadRight: 1, PadTop: 3, PadBottom: 3}},
	{inH: 5, inW: 6, inC: 3, kh: 2, kw: 3, outC: 5, g: Geometry{StrideW: 3, StrideH: 2, PadRight: 1, PadBottom: 1}},
	{inH: 3, inW: 3, inC: 2, kh: 3, kw: 3, outC: 2, g: Geometry{PadLeft: 3, PadRight: 3, PadTop: 3, PadBottom: 3}},
}

func TestConv2DMatchesNaive(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(42, 1))
	for _, c := range convCases {
		for _, kind := range dotprod.Kinds {
			for _, pad := range []PadMode{PadKernel, PadSplit} {
				a := sa8Args(r, c)
				a.Backend = kind
				want := naiveConv(a, false)
				Conv2D(a, Fixed{Pad: pad})
				require.Equal(t, want, a.Out.Data, "%s backend=%s pad=%s", c, kind, pad)
			}
		}
	}
}

func TestDepthwiseMatchesNaive(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(42, 2))
	for _, c := range convCases {
		c.depthwise = true
		c.outC = c.inC
		for _, kind := range dotprod.Kinds {
			for _, pad := range []PadMode{PadKernel, PadSplit} {
				a := sa8Args(r, c)
				a.Backend = kind
				want := naiveConv(a, true)
				Depthwise(a, Fixed{Pad: pad})
				require.Equal(t, want, a.Out.Data, "%s backend=%s pad=%s", c, kind, pad)
			}
		}
	}
}

func TestPaddingSymmetry(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(5, 5))
	c := convCase{inH: 8, inW: 9, inC: 3, kh: 3, kw: 3, outC: 4, g: Geometry{StrideW: 2}}
	base := sa8Args(r, c)
	var outs [][]int8
	for _, fix := range []Fixed{{KW: 3, KH: 3, Pad: PadNone}, {KW: 3, KH: 3, Pad: PadKernel}, {Pad: PadSplit}} {
		a := *base
		a.Out.Data = make([]int8, len(base.Out.Data))
		Conv2D(&a, fix)
		outs = append(outs, a.Out.Data)
	}
	require.Equal(t, outs[0], outs[1])
	require.Equal(t, outs[0], outs[2])
}

func TestConv2DRectTouchesOnlyRect(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(8, 8))
	c := convCases[1]
	a := sa8Args(r, c)
	want := naiveConv(a, false)
	for i := range a.Out.Data {
		a.Out.Data[i] = 99
	}
	a.Rect = tview.Rect{RowBeg: 1, RowEnd: 4, ColBeg: 2, ColEnd: 5}
	Conv2D(a, Fixed{Pad: PadSplit})
	for y := range a.Out.Height {
		for x := range a.Out.Width {
			for o := range a.Out.Ch {
				idx := a.Out.At(y, x, o)
				if y >= 1 && y < 4 && x >= 2 && x < 5 {
					require.Equal(t, want[idx], a.Out.Data[idx])
				} else {
					require.Equal(t, int8(99), a.Out.Data[idx], "(%d,%d,%d) written outside rect", y, x, o)
				}
			}
		}
	}
}

func TestConv2DFX16(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(9, 9))
	in := make([]int16, 7*7*3)
	for i := range in {
		in[i] = int16(r.IntN(4096) - 2048)
	}
	w := make([]int8, 3*3*3*2)
	for i := range w {
		w[i] = int8(r.IntN(256) - 128)
	}
	lo, hi := quant.FXBounds[int16](qmath.ReluGen, 8)
	mk := func(kind dotprod.Kind) *ConvArgs[int16, int8, int8, int64] {
		return &ConvArgs[int16, int8, int8, int64]{
			In:       tview.HWC(in, []int{7, 7, 3}, nil, tview.MemDefault),
			Weights:  tview.HWCN(w, []int{3, 3, 3, 2}, nil),
			Bias:     []int8{12, -40},
			Out:      tview.HWC(make([]int16, 7*7*2), []int{7, 7, 2}, nil, tview.MemDefault),
			Geometry: Geometry{PadLeft: 1, PadRight: 1, PadTop: 1, PadBottom: 1},
			Quant:    quant.DefineFX[int8, int64](10, 7, 5, 8, qmath.RoundConvergent),
			Min:      lo,
			Max:      hi,
			Backend:  kind,
		}
	}
	ref := mk(dotprod.Reference)
	want := naiveConv(ref, false)
	for _, kind := range dotprod.Kinds {
		a := mk(kind)
		Conv2D(a, Fixed{KW: 3, KH: 3, Pad: PadSplit})
		require.Equal(t, want, a.Out.Data, kind.String())
	}
	for _, v := range want {
		require.GreaterOrEqual(t, v, int16(0), "relu clamp")
	}
}

func TestPointwiseBordersHoldBias(t *testing.T) {
	t.Parallel()
	// 5x5x3 input, 1x1 kernel, padding 1 on every side: a 7x7 output whose
	// outer ring sees only padding.
	r := rand.New(rand.NewPCG(3, 3))
	c := convCase{inH: 5, inW: 5, inC: 3, kh: 1, kw: 1, outC: 4, g: Geometry{PadLeft: 1, PadRight: 1, PadTop: 1, PadBottom: 1}}
	for _, kind := range dotprod.Kinds {
		a := sa8Args(r, c)
		a.Backend = kind
		require.Equal(t, 7, a.Out.Height)
		require.Equal(t, 7, a.Out.Width)
		want := naiveConv(a, false)
		Pointwise(a)
		require.Equal(t, want, a.Out.Data, kind.String())
		for o := range 4 {
			bias := qmath.Sat[int8](qmath.Clamp(a.Quant.Result(a.Bias[o], o), -128, 127))
			for i := range 7 {
				require.Equal(t, bias, a.Out.Data[a.Out.At(0, i, o)])
				require.Equal(t, bias, a.Out.Data[a.Out.At(6, i, o)])
				require.Equal(t, bias, a.Out.Data[a.Out.At(i, 0, o)])
				require.Equal(t, bias, a.Out.Data[a.Out.At(i, 6, o)])
			}
		}
		// Generic path agrees with the pointwise loop.
		b := *a
		b.Out.Data = make([]int8, len(a.Out.Data))
		Conv2D(&b, Fixed{Pad: PadKernel})
		require.Equal(t, want, b.Out.Data)
	}
}

func TestDepthwiseBoxFilter(t *testing.T) {
	t.Parallel()
	// All-ones 3x3 kernel over an 8x8x4 input with padding 1: each output is
	// the sum of its valid neighbourhood.
	in := make([]int8, 8*8*4)
	for i := range in {
		in[i] = int8(i%7 - 3)
	}
	w := make([]int8, 3*3*4)
	for i := range w {
		w[i] = 1
	}
	p, err := quant.DefineSA8(
		quant.Affine{Scale: []int16{1 << 14}, FracBits: []int8{14}},
		quant.Affine{Scale: []int16{1 << 14}, FracBits: []int8{14}},
		quant.Affine{Scale: []int16{1 << 14}, FracBits: []int8{14}},
		4, qmath.RoundUp)
	require.NoError(t, err)
	for _, kind := range dotprod.Kinds {
		a := &ConvArgs[int8, int8, int32, int32]{
			In:       tview.HWC(in, []int{8, 8, 4}, nil, tview.MemDefault),
			Weights:  tview.HW1N(w, []int{3, 3, 1, 4}, nil),
			Bias:     make([]int32, 4),
			Out:      tview.HWC(make([]int8, 8*8*4), []int{8, 8, 4}, nil, tview.MemDefault),
			Geometry: Geometry{PadLeft: 1, PadRight: 1, PadTop: 1, PadBottom: 1},
			Quant:    p,
			Min:      -128,
			Max:      127,
			Backend:  kind,
		}
		Depthwise(a, Fixed{KW: 3, KH: 3, Pad: PadSplit})
		for y := range 8 {
			for x := range 8 {
				for ch := range 4 {
					var sum int
					for dy := -1; dy <= 1; dy++ {
						for dx := -1; dx <= 1; dx++ {
							if yy, xx := y+dy, x+dx; yy >= 0 && yy < 8 && xx >= 0 && xx < 8 {
								sum += int(in[(yy*8+xx)*4+ch])
							}
						}
					}
					require.Equal(t, int8(sum), a.Out.Data[(y*8+x)*4+ch], "(%d,%d,%d) %s", y, x, ch, kind)
				}
			}
		}
	}
}

func naivePool(a *PoolArgs[int8]) []int8 {
	g := a.Geometry.norm()
	out := make([]int8, len(a.Out.Data))
	for y := range a.Out.Height {
		for x := range a.Out.Width {
			for c := range a.In.Ch {
				var sum, n int64
				best := int64(-128)
				for ky := range a.KH {
					for kx := range a.KW {
						iy := y*g.StrideH - g.PadTop + ky
						ix := x*g.StrideW - g.PadLeft + kx
						if iy < 0 || iy >= a.In.Height || ix < 0 || ix >= a.In.Width {
							continue
						}
						v := int64(a.In.Data[a.In.At(iy, ix, c)])
						sum += v
						n++
						best = max(best, v)
					}
				}
				if a.Op == PoolAvg {
					best = qmath.RoundDiv(sum, n, a.Rounding)
				}
				out[a.Out.At(y, x, c)] = int8(best)
			}
		}
	}
	return out
}

func TestPoolMatchesNaive(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(6, 6))
	geoms := []struct {
		k int
		g Geometry
	}{
		{2, Geometry{StrideW: 2, StrideH: 2}},
		{3, Geometry{PadLeft: 1, PadRight: 1, PadTop: 1, PadBottom: 1}},
		{3, Geometry{StrideW: 2, StrideH: 2, PadRight: 1, PadBottom: 1}},
		{4, Geometry{StrideW: 3, StrideH: 1, PadLeft: 2, PadTop: 1}},
	}
	for _, gc := range geoms {
		for _, op := range []PoolOp{PoolMax, PoolAvg} {
			for _, kind := range dotprod.Kinds {
				in := randInt8(r, 9*10*3)
				g := gc.g.norm()
				outH := tview.OutDim(9, g.PadTop, g.PadBottom, gc.k, g.StrideH, 1)
				outW := tview.OutDim(10, g.PadLeft, g.PadRight, gc.k, g.StrideW, 1)
				a := &PoolArgs[int8]{
					In:       tview.HWC(in, []int{9, 10, 3}, nil, tview.MemDefault),
					Out:      tview.HWC(make([]int8, outH*outW*3), []int{outH, outW, 3}, nil, tview.MemDefault),
					Op:       op,
					KW:       gc.k,
					KH:       gc.k,
					Geometry: gc.g,
					Rounding: qmath.RoundConvergent,
					Backend:  kind,
				}
				want := naivePool(a)
				Pool(a, Fixed{Pad: PadSplit})
				require.Equal(t, want, a.Out.Data, "k=%d op=%s backend=%s", gc.k, op, kind)
			}
		}
	}
}

func TestFullyConnected(t *testing.T) {
	t.Parallel()
	in := []int16{256, -512, 1024}
	w := []int16{ // [in=3, out=2]
		128, -128,
		64, 64,
		-32, 256,
	}
	for _, kind := range dotprod.Kinds {
		out := make([]int16, 2)
		a := &FCArgs[int16, int16, int16, int64]{
			In:      in,
			Weights: tview.Matrix(w, []int{3, 2}, nil),
			Bias:    []int16{8, 0},
			Out:     out,
			Quant:   quant.DefineFX[int16, int64](8, 7, 7, 8, qmath.RoundUp),
			Min:     -32768,
			Max:     32767,
			Backend: kind,
		}
		FullyConnected(a)
		// Real values: in = [1, -2, 4], w col0 = [1, .5, -.25], col1 = [-1, .5, 2].
		// out0 = 1 - 1 - 1 + bias(8/128) = -0.9375; out1 = -1 - 1 + 8 = 6.
		require.Equal(t, []int16{-240, 1536}, out, kind.String())
	}
}
