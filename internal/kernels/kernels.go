// Package kernels picks, for a runtime kernel shape and padding, the
// shape-specialised engine variant that computes it.
//
// Selection and naming share one code path: the dispatchers run the variant
// returned by the Select functions and the Name functions print it, so a
// debug name always describes the code that actually ran.
package kernels

import (
	"golang.org/x/exp/constraints"

	"github.com/samcharles93/qconv/internal/engine"
	"github.com/samcharles93/qconv/internal/qmath"
)

//go:generate go run ../cmd/variantgen

// Variant identifies one specialised kernel.
type Variant uint8

type family uint8

const (
	familyConv2D family = iota
	familyDepthwise
	familyPool
)

type form uint8

const (
	// formFixed is a square k x k kernel.
	formFixed form = iota
	// formPointwise is the 1x1 kernel without padding.
	formPointwise
	// formColumn is a kernel one column wide and any height.
	formColumn
	// formRow is a kernel one row high and any width.
	formRow
	formGeneric
)

type variantInfo struct {
	family family
	prefix string
	suffix string
	form   form
	k      int
	pad    engine.PadMode
}

func (v Variant) String() string {
	if v >= numVariants {
		return "unknown"
	}
	info := &variantTable[v]
	return info.prefix + "_" + info.suffix
}

// Suffix is the name without its family prefix, e.g. "k3x3_krnpad".
func (v Variant) Suffix() string {
	if v >= numVariants {
		return "unknown"
	}
	return variantTable[v].suffix
}

// Pad is the padding regime the variant runs under.
func (v Variant) Pad() engine.PadMode {
	return variantTable[v].pad
}

// Generic reports whether v is the fallback of its family.
func (v Variant) Generic() bool {
	return variantTable[v].form == formGeneric
}

// Shape is what selection looks at: kernel extent and the four paddings.
type Shape struct {
	KernelW, KernelH int
	PadLeft          int
	PadRight         int
	PadTop           int
	PadBottom        int
}

// ShapeOf combines a kernel extent with the padding of g.
func ShapeOf(kw, kh int, g engine.Geometry) Shape {
	return Shape{
		KernelW: kw, KernelH: kh,
		PadLeft: g.PadLeft, PadRight: g.PadRight,
		PadTop: g.PadTop, PadBottom: g.PadBottom,
	}
}

// NoPadding reports whether all four sides are zero.
func (s Shape) NoPadding() bool {
	return s.PadLeft == 0 && s.PadRight == 0 && s.PadTop == 0 && s.PadBottom == 0
}

// PadBounds returns the largest padding before and after a kernel extent k
// that a specialised variant accepts: the SAME-padding envelope, with the
// extra element of an even kernel going after.
func PadBounds(k int) (before, after int) {
	return (k - 1) / 2, k / 2
}

func (s Shape) within(kw, kh int) bool {
	left, right := PadBounds(kw)
	top, bottom := PadBounds(kh)
	return s.PadLeft >= 0 && s.PadRight >= 0 && s.PadTop >= 0 && s.PadBottom >= 0 &&
		s.PadLeft <= left && s.PadRight <= right &&
		s.PadTop <= top && s.PadBottom <= bottom
}

func (v Variant) matches(s Shape) bool {
	info := &variantTable[v]
	switch info.form {
	case formFixed:
		if s.KernelW != info.k || s.KernelH != info.k {
			return false
		}
		if info.pad == engine.PadNone {
			return s.NoPadding()
		}
		return s.within(info.k, info.k)
	case formPointwise:
		return s.KernelW == 1 && s.KernelH == 1 && s.NoPadding()
	case formColumn:
		return s.KernelW == 1 && s.within(1, s.KernelH)
	case formRow:
		return s.KernelH == 1 && s.within(s.KernelW, 1)
	default:
		return true
	}
}

func selectFrom(order []Variant, s Shape) Variant {
	for _, v := range order {
		if v.matches(s) {
			return v
		}
	}
	return order[len(order)-1]
}

// SelectConv2D returns the convolution variant for s.
func SelectConv2D(s Shape) Variant { return selectFrom(conv2DOrder, s) }

// SelectDepthwise returns the depthwise convolution variant for s.
func SelectDepthwise(s Shape) Variant { return selectFrom(depthwiseOrder, s) }

// SelectPool returns the pooling variant for s.
func SelectPool(s Shape) Variant { return selectFrom(poolOrder, s) }

// Conv2DName is the name of the variant Conv2D runs for s.
func Conv2DName(s Shape) string { return SelectConv2D(s).String() }

// DepthwiseName is the name of the variant Depthwise runs for s.
func DepthwiseName(s Shape) string { return SelectDepthwise(s).String() }

// PoolName is the name of the variant Pool runs for s, prefixed by op.
func PoolName(op engine.PoolOp, s Shape) string {
	return op.String() + "_" + SelectPool(s).Suffix()
}

// Variants lists every variant of the family that v belongs to, in
// dispatch order.
func Variants(v Variant) []Variant {
	switch variantTable[v].family {
	case familyDepthwise:
		return depthwiseOrder
	case familyPool:
		return poolOrder
	default:
		return conv2DOrder
	}
}

// Conv2D runs the convolution variant selected for the weights and padding
// of a and returns it.
func Conv2D[I, W, B qmath.Storage, A constraints.Signed](a *engine.ConvArgs[I, W, B, A]) Variant {
	v := SelectConv2D(ShapeOf(a.Weights.Width, a.Weights.Height, a.Geometry))
	runConv2D(v, a)
	return v
}

// Depthwise runs the selected depthwise convolution variant and returns it.
func Depthwise[I, W, B qmath.Storage, A constraints.Signed](a *engine.ConvArgs[I, W, B, A]) Variant {
	v := SelectDepthwise(ShapeOf(a.Weights.Width, a.Weights.Height, a.Geometry))
	runDepthwise(v, a)
	return v
}

// Pool runs the selected pooling variant and returns it.
func Pool[I qmath.Storage](a *engine.PoolArgs[I]) Variant {
	v := SelectPool(ShapeOf(a.KW, a.KH, a.Geometry))
	runPool(v, a)
	return v
}

// Run executes v directly, bypassing selection. The caller must ensure v
// accepts the shape of a; the generic variant accepts every shape.
func Run[I, W, B qmath.Storage, A constraints.Signed](v Variant, a *engine.ConvArgs[I, W, B, A]) {
	switch variantTable[v].family {
	case familyDepthwise:
		runDepthwise(v, a)
	default:
		runConv2D(v, a)
	}
}
