package quant

import (
	"github.com/samcharles93/qconv/internal/qmath"
	"golang.org/x/exp/constraints"
)

// FX holds the shifts of symmetric power-of-two quantization. Biases are
// brought to the accumulator domain by BiasShift and results to the output
// domain by OutShift; negative shifts shift left.
type FX[B, A constraints.Signed] struct {
	BiasShift int
	OutShift  int
	Mode      qmath.Rounding
}

// DefineFX builds the shifts for fractional bit counts of the input,
// weights, bias and output tensors.
func DefineFX[B, A constraints.Signed](inFrac, wFrac, biasFrac, outFrac int, mode qmath.Rounding) FX[B, A] {
	return FX[B, A]{
		BiasShift: inFrac + wFrac - biasFrac,
		OutShift:  inFrac + wFrac - outFrac,
		Mode:      mode,
	}
}

func (p FX[B, A]) BiasAdditive(b B, _ int) A {
	return A(qmath.AsrRnd64(int64(b), -p.BiasShift, p.Mode))
}

func (FX[B, A]) InputOffset() A { return 0 }

func (FX[B, A]) WeightOffset(int) A { return 0 }

func (p FX[B, A]) Result(acc A, _ int) int64 {
	return qmath.AsrRnd64(int64(acc), p.OutShift, p.Mode)
}

func (p FX[B, A]) Rounding() qmath.Rounding { return p.Mode }

// FXBounds returns the activation clamp of an fx output with outFrac
// fractional bits stored as T.
func FXBounds[T qmath.Storage](relu qmath.Relu, outFrac int) (lo, hi int64) {
	var one int64
	if outFrac >= 0 {
		one = int64(1) << min(outFrac, 40)
	}
	return qmath.Bounds[T](relu, 0, one)
}
