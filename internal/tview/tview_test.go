package tview

import (
	"testing"
)

func TestOutDim(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name                                 string
		in, pb, pa, kernel, stride, dilation int
		want                                 int
	}{
		{"valid 3x3", 8, 0, 0, 3, 1, 1, 6},
		{"same 3x3", 8, 1, 1, 3, 1, 1, 8},
		{"stride 2 odd", 7, 0, 0, 3, 2, 1, 3},
		{"stride 2 same", 8, 0, 1, 3, 2, 1, 4},
		{"dilated", 10, 0, 0, 3, 1, 2, 6},
		{"pointwise", 5, 1, 1, 1, 1, 1, 7},
		{"asymmetric 10x10", 20, 4, 5, 10, 1, 1, 20},
		{"zero dilation treated as one", 8, 0, 0, 3, 1, 0, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := OutDim(tt.in, tt.pb, tt.pa, tt.kernel, tt.stride, tt.dilation); got != tt.want {
				t.Fatalf("OutDim=%d want %d", got, tt.want)
			}
		})
	}
}

func TestHWCStrides(t *testing.T) {
	t.Parallel()
	data := make([]int8, 4*5*3)
	v := HWC(data, []int{4, 5, 3}, nil, MemXY)
	if v.Height != 4 || v.Width != 5 || v.Ch != 3 {
		t.Fatalf("unexpected dims %+v", v)
	}
	if v.RowStride != 15 || v.ColStride != 3 || v.ChStride != 1 {
		t.Fatalf("unexpected strides row=%d col=%d ch=%d", v.RowStride, v.ColStride, v.ChStride)
	}
	if got := v.At(2, 3, 1); got != 2*15+3*3+1 {
		t.Fatalf("At=%d", got)
	}
	if v.Space.String() != "xy" {
		t.Fatalf("space=%s", v.Space)
	}

	// A padded row stride survives while zero strides fall back to packed.
	p := HWC(make([]int8, 4*32), []int{4, 5, 3}, []int{32, 0, 0}, MemDefault)
	if p.RowStride != 32 || p.ColStride != 3 || p.ChStride != 1 {
		t.Fatalf("unexpected strides row=%d col=%d ch=%d", p.RowStride, p.ColStride, p.ChStride)
	}
}

func TestHWCNAndMatrix(t *testing.T) {
	t.Parallel()
	w := HWCN(make([]int8, 3*2*4*5), []int{3, 2, 4, 5}, nil)
	if w.RowStride != 40 || w.ColStride != 20 || w.InChStride != 5 || w.OutChStride != 1 {
		t.Fatalf("unexpected strides %+v", w)
	}
	m := Matrix(make([]int16, 6*2), []int{6, 2}, nil)
	if m.InCh != 6 || m.OutCh != 2 || m.InChStride != 2 || m.OutChStride != 1 {
		t.Fatalf("unexpected matrix view %+v", m)
	}
}

// naiveTaps enumerates the kernel taps that land inside the input.
func naiveTaps(a Axis, pos int) (first, count int) {
	first = -1
	for k := range a.Kernel {
		x := pos*a.Stride - a.PadBeg + k*a.Dilation
		if x >= 0 && x < a.In {
			if first < 0 {
				first = k
			}
			count++
		}
	}
	if first < 0 {
		first = 0
	}
	return first, count
}

func TestAxisClipMatchesNaive(t *testing.T) {
	t.Parallel()
	for in := 1; in <= 9; in++ {
		for kernel := 1; kernel <= 5; kernel++ {
			for stride := 1; stride <= 3; stride++ {
				for dil := 1; dil <= 2; dil++ {
					for pad := 0; pad < kernel; pad++ {
						out := OutDim(in, pad, pad, kernel, stride, dil)
						a := Axis{In: in, Out: out, Kernel: kernel, Stride: stride, Dilation: dil, PadBeg: pad}
						beg, end := a.Interior()
						for pos := range out {
							wantFirst, wantCount := naiveTaps(a, pos)
							first, count, origin := a.Clip(pos)
							if count != wantCount || (count > 0 && first != wantFirst) {
								t.Fatalf("%+v pos=%d: Clip=(%d,%d) want (%d,%d)", a, pos, first, count, wantFirst, wantCount)
							}
							if count > 0 && origin != pos*stride-pad+first*dil {
								t.Fatalf("%+v pos=%d: origin=%d", a, pos, origin)
							}
							inside := count == kernel
							if inside != (pos >= beg && pos < end) {
								t.Fatalf("%+v pos=%d: interior [%d,%d) disagrees with full=%v", a, pos, beg, end, inside)
							}
						}
					}
				}
			}
		}
	}
}

func TestBordersPartition(t *testing.T) {
	t.Parallel()
	r := Full(7, 9)
	rows := Axis{In: 7, Out: 7, Kernel: 3, Stride: 1, Dilation: 1, PadBeg: 1}
	cols := Axis{In: 9, Out: 9, Kernel: 5, Stride: 1, Dilation: 1, PadBeg: 2}
	inner := InteriorRect(r, rows, cols)
	if inner != (Rect{RowBeg: 1, RowEnd: 6, ColBeg: 2, ColEnd: 7}) {
		t.Fatalf("unexpected interior %+v", inner)
	}
	seen := make([]int, 7*9)
	mark := func(b Rect) {
		for y := b.RowBeg; y < b.RowEnd; y++ {
			for x := b.ColBeg; x < b.ColEnd; x++ {
				seen[y*9+x]++
			}
		}
	}
	mark(inner)
	for _, b := range Borders(r, inner) {
		if !b.Valid(7, 9) {
			t.Fatalf("border %+v escapes output", b)
		}
		mark(b)
	}
	for i, n := range seen {
		if n != 1 {
			t.Fatalf("element %d covered %d times", i, n)
		}
	}
}

func TestBordersEmptyInterior(t *testing.T) {
	t.Parallel()
	r := Full(2, 2)
	a := Axis{In: 2, Out: 2, Kernel: 3, Stride: 1, Dilation: 1, PadBeg: 1}
	inner := InteriorRect(r, a, a)
	if !inner.Empty() {
		t.Fatalf("expected empty interior, got %+v", inner)
	}
	b := Borders(r, inner)
	if len(b) != 1 || b[0] != r {
		t.Fatalf("expected the whole rect back, got %+v", b)
	}
	if r.Area() != 4 || inner.Area() != 0 {
		t.Fatalf("unexpected areas %d %d", r.Area(), inner.Area())
	}
}
