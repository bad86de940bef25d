package dotprod

import "golang.org/x/exp/constraints"

// Four-lane variants: load four, process four, scalar tail of up to three.

func dot2DX4[I, W, A constraints.Signed](in []I, w []W, win Window, acc A) A {
	if win.Height == 1 {
		return dot1DX4(in, win.InCol, w, win.WCol, win.Width, acc)
	}
	if win.Width == 1 {
		return dot1DX4(in, win.InRow, w, win.WRow, win.Height, acc)
	}
	for r := range win.Height {
		acc = dot1DX4(in[r*win.InRow:], win.InCol, w[r*win.WRow:], win.WCol, win.Width, acc)
	}
	return acc
}

func dot1DX4[I, W, A constraints.Signed](in []I, inStep int, w []W, wStep int, n int, acc A) A {
	var acc1, acc2, acc3 A
	i := 0
	for ; i+4 <= n; i += 4 {
		acc += A(in[i*inStep]) * A(w[i*wStep])
		acc1 += A(in[(i+1)*inStep]) * A(w[(i+1)*wStep])
		acc2 += A(in[(i+2)*inStep]) * A(w[(i+2)*wStep])
		acc3 += A(in[(i+3)*inStep]) * A(w[(i+3)*wStep])
	}
	for ; i < n; i++ {
		acc += A(in[i*inStep]) * A(w[i*wStep])
	}
	return acc + acc1 + acc2 + acc3
}

func reduce2DX4[I, A constraints.Signed](x []I, width, height, col, row int, acc A) A {
	if height == 1 {
		return reduce1DX4(x, col, width, acc)
	}
	if width == 1 {
		return reduce1DX4(x, row, height, acc)
	}
	for r := range height {
		acc = reduce1DX4(x[r*row:], col, width, acc)
	}
	return acc
}

func reduce1DX4[I, A constraints.Signed](x []I, step, n int, acc A) A {
	var acc1, acc2, acc3 A
	i := 0
	for ; i+4 <= n; i += 4 {
		acc += A(x[i*step])
		acc1 += A(x[(i+1)*step])
		acc2 += A(x[(i+2)*step])
		acc3 += A(x[(i+3)*step])
	}
	for ; i < n; i++ {
		acc += A(x[i*step])
	}
	return acc + acc1 + acc2 + acc3
}

func max2DX4[I constraints.Signed](x []I, width, height, col, row int, init I) I {
	if height == 1 {
		return max1DX4(x, col, width, init)
	}
	if width == 1 {
		return max1DX4(x, row, height, init)
	}
	m := init
	for r := range height {
		m = max1DX4(x[r*row:], col, width, m)
	}
	return m
}

func max1DX4[I constraints.Signed](x []I, step, n int, init I) I {
	m0, m1, m2, m3 := init, init, init, init
	i := 0
	for ; i+4 <= n; i += 4 {
		m0 = max(m0, x[i*step])
		m1 = max(m1, x[(i+1)*step])
		m2 = max(m2, x[(i+2)*step])
		m3 = max(m3, x[(i+3)*step])
	}
	for ; i < n; i++ {
		m0 = max(m0, x[i*step])
	}
	return max(max(m0, m1), max(m2, m3))
}
