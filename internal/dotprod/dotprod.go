// Package dotprod implements the windowed multiply-accumulate primitives that
// every convolution, pooling and fully connected kernel is built on.
//
// Three backends implement the same contract: a scalar reference, a 2-wide
// variant in the style of fixed-point DSP pair instructions, and a 4-wide
// variant in the style of wide vector units. All three produce identical
// results for every input, including accumulator wrap-around, because they
// only reorder additions in two's-complement arithmetic.
package dotprod

import (
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
)

// Kind identifies a dot-product backend.
type Kind uint8

const (
	// Reference is the portable scalar implementation.
	Reference Kind = iota
	// DSP processes element pairs with two partial accumulators.
	DSP
	// Vector processes four elements per step with four partial accumulators.
	Vector
)

// Kinds lists every backend in increasing width.
var Kinds = []Kind{Reference, DSP, Vector}

func (k Kind) String() string {
	switch k {
	case Reference:
		return "ref"
	case DSP:
		return "dsp"
	case Vector:
		return "vdsp"
	default:
		return "unknown"
	}
}

// Lanes is the number of elements processed per inner step.
func (k Kind) Lanes() int {
	switch k {
	case DSP:
		return 2
	case Vector:
		return 4
	default:
		return 1
	}
}

// ParseKind accepts the names returned by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ref", "reference", "scalar":
		return Reference, nil
	case "dsp":
		return DSP, nil
	case "vdsp", "vector":
		return Vector, nil
	default:
		return Reference, fmt.Errorf("unknown dot-product backend %q (expected ref, dsp or vdsp)", s)
	}
}

// Window addresses a 2D window in two independently strided buffers.
// InCol/InRow step the input, WCol/WRow step the weights.
type Window struct {
	Width  int
	Height int
	InCol  int
	InRow  int
	WCol   int
	WRow   int
}

// Ops is the function table of one backend for one element combination.
type Ops[I, W, A constraints.Signed] struct {
	Kind Kind

	// Dot2D adds the width*height products of the window to acc.
	Dot2D func(in []I, w []W, win Window, acc A) A
	// Dot1D adds n products in[i*inStep]*w[i*wStep] to acc.
	Dot1D func(in []I, inStep int, w []W, wStep int, n int, acc A) A
	// Reduce2D adds the width*height input samples of the window to acc.
	Reduce2D func(x []I, width, height, col, row int, acc A) A
	// Max2D returns the maximum of init and the window samples.
	Max2D func(x []I, width, height, col, row int, init I) I
}

// For returns the function table of backend kind.
func For[I, W, A constraints.Signed](kind Kind) Ops[I, W, A] {
	switch kind {
	case DSP:
		return Ops[I, W, A]{
			Kind:     DSP,
			Dot2D:    dot2DX2[I, W, A],
			Dot1D:    dot1DX2[I, W, A],
			Reduce2D: reduce2DX2[I, A],
			Max2D:    max2DX2[I],
		}
	case Vector:
		return Ops[I, W, A]{
			Kind:     Vector,
			Dot2D:    dot2DX4[I, W, A],
			Dot1D:    dot1DX4[I, W, A],
			Reduce2D: reduce2DX4[I, A],
			Max2D:    max2DX4[I],
		}
	default:
		return Ops[I, W, A]{
			Kind:     Reference,
			Dot2D:    dot2DRef[I, W, A],
			Dot1D:    dot1DRef[I, W, A],
			Reduce2D: reduce2DRef[I, A],
			Max2D:    max2DRef[I],
		}
	}
}
