package dotprod

import "golang.org/x/exp/constraints"

// Pair-wise variants: load two, process two, with a single odd tail element.

func dot2DX2[I, W, A constraints.Signed](in []I, w []W, win Window, acc A) A {
	if win.Height == 1 {
		return dot1DX2(in, win.InCol, w, win.WCol, win.Width, acc)
	}
	if win.Width == 1 {
		return dot1DX2(in, win.InRow, w, win.WRow, win.Height, acc)
	}
	for r := range win.Height {
		acc = dot1DX2(in[r*win.InRow:], win.InCol, w[r*win.WRow:], win.WCol, win.Width, acc)
	}
	return acc
}

func dot1DX2[I, W, A constraints.Signed](in []I, inStep int, w []W, wStep int, n int, acc A) A {
	var acc1 A
	i := 0
	for ; i+2 <= n; i += 2 {
		acc += A(in[i*inStep]) * A(w[i*wStep])
		acc1 += A(in[(i+1)*inStep]) * A(w[(i+1)*wStep])
	}
	if i < n {
		acc += A(in[i*inStep]) * A(w[i*wStep])
	}
	return acc + acc1
}

func reduce2DX2[I, A constraints.Signed](x []I, width, height, col, row int, acc A) A {
	if height == 1 {
		return reduce1DX2(x, col, width, acc)
	}
	if width == 1 {
		return reduce1DX2(x, row, height, acc)
	}
	for r := range height {
		acc = reduce1DX2(x[r*row:], col, width, acc)
	}
	return acc
}

func reduce1DX2[I, A constraints.Signed](x []I, step, n int, acc A) A {
	var acc1 A
	i := 0
	for ; i+2 <= n; i += 2 {
		acc += A(x[i*step])
		acc1 += A(x[(i+1)*step])
	}
	if i < n {
		acc += A(x[i*step])
	}
	return acc + acc1
}

func max2DX2[I constraints.Signed](x []I, width, height, col, row int, init I) I {
	if height == 1 {
		return max1DX2(x, col, width, init)
	}
	if width == 1 {
		return max1DX2(x, row, height, init)
	}
	m := init
	for r := range height {
		m = max1DX2(x[r*row:], col, width, m)
	}
	return m
}

func max1DX2[I constraints.Signed](x []I, step, n int, init I) I {
	m0, m1 := init, init
	i := 0
	for ; i+2 <= n; i += 2 {
		m0 = max(m0, x[i*step])
		m1 = max(m1, x[(i+1)*step])
	}
	if i < n {
		m0 = max(m0, x[i*step])
	}
	return max(m0, m1)
}
