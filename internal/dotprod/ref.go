package dotprod

import "golang.org/x/exp/constraints"

func dot2DRef[I, W, A constraints.Signed](in []I, w []W, win Window, acc A) A {
	for r := range win.Height {
		for c := range win.Width {
			acc += A(in[r*win.InRow+c*win.InCol]) * A(w[r*win.WRow+c*win.WCol])
		}
	}
	return acc
}

func dot1DRef[I, W, A constraints.Signed](in []I, inStep int, w []W, wStep int, n int, acc A) A {
	for i := range n {
		acc += A(in[i*inStep]) * A(w[i*wStep])
	}
	return acc
}

func reduce2DRef[I, A constraints.Signed](x []I, width, height, col, row int, acc A) A {
	for r := range height {
		for c := range width {
			acc += A(x[r*row+c*col])
		}
	}
	return acc
}

func max2DRef[I constraints.Signed](x []I, width, height, col, row int, init I) I {
	m := init
	for r := range height {
		for c := range width {
			if v := x[r*row+c*col]; v > m {
				m = v
			}
		}
	}
	return m
}
