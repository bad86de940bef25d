package dotprod

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func randSlice[T int8 | int16 | int32](r *rand.Rand, n int, lo, hi int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = T(lo + r.IntN(hi-lo+1))
	}
	return out
}

func TestParseKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"ref", Reference, false},
		{"DSP", DSP, false},
		{" vdsp ", Vector, false},
		{"vector", Vector, false},
		{"avx512", Reference, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseKind(%q) err=%v wantErr=%v", tt.in, err, tt.wantErr)
		}
		if !tt.wantErr && got != tt.want {
			t.Fatalf("ParseKind(%q)=%v want %v", tt.in, got, tt.want)
		}
	}
	for _, k := range Kinds {
		back, err := ParseKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, back)
	}
}

func TestDot2DSmall(t *testing.T) {
	t.Parallel()
	// 2x3 window over a 4-wide row-major buffer against packed weights.
	in := []int8{
		1, 2, 3, 0,
		4, 5, 6, 0,
	}
	w := []int8{1, 1, 1, 2, 2, 2}
	win := Window{Width: 3, Height: 2, InCol: 1, InRow: 4, WCol: 1, WRow: 3}
	for _, k := range Kinds {
		ops := For[int8, int8, int32](k)
		require.Equal(t, int32(1+2+3+2*(4+5+6)), ops.Dot2D(in, w, win, 0), k.String())
		require.Equal(t, int32(100+36), ops.Dot2D(in, w, win, 100), k.String())
	}
}

func TestBackendsAgree(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(7, 11))
	shapes := [][2]int{{1, 1}, {1, 7}, {7, 1}, {2, 2}, {3, 3}, {5, 4}, {10, 10}, {1, 13}, {0, 3}}
	for _, sh := range shapes {
		width, height := sh[0], sh[1]
		const inCol, inRow = 3, 41
		in := randSlice[int8](r, inRow*max(height, 1)+inCol*max(width, 1), -128, 127)
		w := randSlice[int8](r, max(width*height, 1)*2, -128, 127)
		win := Window{Width: width, Height: height, InCol: inCol, InRow: inRow, WCol: 2, WRow: 2 * width}

		ref := For[int8, int8, int32](Reference)
		want := ref.Dot2D(in, w, win, -5)
		wantSum := ref.Reduce2D(in, width, height, inCol, inRow, 9)
		wantMax := ref.Max2D(in, width, height, inCol, inRow, -128)
		for _, k := range Kinds[1:] {
			ops := For[int8, int8, int32](k)
			require.Equal(t, want, ops.Dot2D(in, w, win, -5), "dot %s %dx%d", k, width, height)
			require.Equal(t, wantSum, ops.Reduce2D(in, width, height, inCol, inRow, 9), "sum %s %dx%d", k, width, height)
			require.Equal(t, wantMax, ops.Max2D(in, width, height, inCol, inRow, -128), "max %s %dx%d", k, width, height)
		}
	}
}

func TestDot1DTails(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(3, 5))
	for n := 0; n <= 9; n++ {
		in := randSlice[int16](r, n*2+1, -32768, 32767)
		w := randSlice[int8](r, n*3+1, -128, 127)
		want := For[int16, int8, int64](Reference).Dot1D(in, 2, w, 3, n, 17)
		for _, k := range Kinds[1:] {
			got := For[int16, int8, int64](k).Dot1D(in, 2, w, 3, n, 17)
			require.Equal(t, want, got, "n=%d backend=%s", n, k)
		}
	}
}

func TestWrapAroundAgrees(t *testing.T) {
	t.Parallel()
	// 16-bit products summed into int32 overflow after a few thousand taps.
	n := 4099
	in := make([]int16, n)
	w := make([]int16, n)
	for i := range in {
		in[i] = 32767
		w[i] = 32767
	}
	want := For[int16, int16, int32](Reference).Dot1D(in, 1, w, 1, n, 0)
	for _, k := range Kinds[1:] {
		require.Equal(t, want, For[int16, int16, int32](k).Dot1D(in, 1, w, 1, n, 0), k.String())
	}
}

func TestMax2DKeepsInit(t *testing.T) {
	t.Parallel()
	x := []int8{-9, -8, -7, -6}
	for _, k := range Kinds {
		ops := For[int8, int8, int32](k)
		require.Equal(t, int8(-1), ops.Max2D(x, 2, 2, 1, 2, -1), k.String())
		require.Equal(t, int8(-6), ops.Max2D(x, 2, 2, 1, 2, -128), k.String())
		require.Equal(t, int8(-128), ops.Max2D(x, 0, 0, 1, 2, -128), k.String())
	}
}
