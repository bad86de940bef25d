package engine

import (
	"golang.org/x/exp/constraints"

	"github.com/samcharles93/qconv/internal/dotprod"
	"github.com/samcharles93/qconv/internal/qmath"
	"github.com/samcharles93/qconv/internal/quant"
	"github.com/samcharles93/qconv/internal/tview"
)

// FCArgs bundles one fully connected call. In is the flattened input and
// Out the flattened output; Weights is an [in, out] matrix view.
type FCArgs[I, W, B qmath.Storage, A constraints.Signed] struct {
	In       []I
	Weights  tview.Weights[W]
	Bias     []B
	Out      []I
	Quant    quant.Params[B, A]
	Min, Max int64
	Backend  dotprod.Kind
}

// FullyConnected computes out[o] = requant(bias[o] + sum_i in[i]*w[i, o]).
func FullyConnected[I, W, B qmath.Storage, A constraints.Signed](a *FCArgs[I, W, B, A]) {
	m := newMacs[I, W, A](a.Backend)
	zin := a.Quant.InputOffset()
	w := &a.Weights
	for o := range w.OutCh {
		acc := a.Quant.BiasAdditive(a.Bias[o], o)
		acc = m.line(a.In, 1, w.Data[o*w.OutChStride:], w.InChStride, w.InCh, zin, a.Quant.WeightOffset(o), acc)
		v := qmath.Clamp(a.Quant.Result(acc, o), a.Min, a.Max)
		a.Out[o] = qmath.Sat[I](v)
	}
}
