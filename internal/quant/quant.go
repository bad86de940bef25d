// Package quant derives the per-call requantization parameters of the
// quantized kernels and implements the accumulator contract the sliding
// window engine drives.
package quant

import (
	"math"

	"github.com/samcharles93/qconv/internal/qmath"
	"golang.org/x/exp/constraints"
)

// Params is the contract between a quantization scheme and the engine.
//
// For every output element the engine computes
//
//	acc = BiasAdditive(bias[ch], ch)
//	    + sum((in - InputOffset()) * (w - WeightOffset(ch)))
//
// over the valid kernel taps, then stores clamp(Result(acc, ch)).
type Params[B, A constraints.Signed] interface {
	BiasAdditive(b B, ch int) A
	InputOffset() A
	WeightOffset(ch int) A
	Result(acc A, ch int) int64
	Rounding() qmath.Rounding
}

// Affine describes the asymmetric quantization of one tensor. A slice of
// length one applies to every channel.
type Affine struct {
	Scale     []int16
	FracBits  []int8
	ZeroPoint []int16
}

// Len is the number of channels the parameters are given for.
func (a Affine) Len() int {
	return max(len(a.Scale), len(a.FracBits), len(a.ZeroPoint))
}

// PerAxis reports whether the parameters vary per channel.
func (a Affine) PerAxis() bool {
	return a.Len() > 1
}

func (a Affine) scale(i int) int64 {
	return int64(pick(a.Scale, i))
}

func (a Affine) frac(i int) int {
	return int(pick(a.FracBits, i))
}

func (a Affine) zero(i int) int64 {
	return int64(pick(a.ZeroPoint, i))
}

// EffectiveScale returns scale[i] / 2^frac[i].
func (a Affine) EffectiveScale(i int) float64 {
	return math.Ldexp(float64(a.scale(i)), -a.frac(i))
}

func pick[T any](s []T, i int) T {
	var zero T
	switch {
	case len(s) == 0:
		return zero
	case len(s) == 1:
		return s[0]
	case i < len(s):
		return s[i]
	default:
		return zero
	}
}
