/***** File generated by ./internal/cmd/variantgen. Don't edit it directly. *****/

package kernels

import (
	"golang.org/x/exp/constraints"

	"github.com/samcharles93/qconv/internal/engine"
	"github.com/samcharles93/qconv/internal/qmath"
)

const (
	Conv2DK10x10Nopad Variant = iota
	Conv2DK10x10Krnpad
	Conv2DK9x9Nopad
	Conv2DK9x9Krnpad
	Conv2DK8x8Nopad
	Conv2DK8x8Krnpad
	Conv2DK7x7Nopad
	Conv2DK7x7Krnpad
	Conv2DK6x6Nopad
	Conv2DK6x6Krnpad
	Conv2DK5x5Nopad
	Conv2DK5x5Krnpad
	Conv2DK4x4Nopad
	Conv2DK4x4Krnpad
	Conv2DK3x3Nopad
	Conv2DK3x3Krnpad
	Conv2DK2x2Nopad
	Conv2DK2x2Krnpad
	Conv2DK1x1Nopad
	Conv2DK1xnKrnpad
	Conv2DKnx1Krnpad
	Conv2DGeneric
	DepthwiseK7x7Nopad
	DepthwiseK7x7Krnpad
	DepthwiseK5x5Nopad
	DepthwiseK5x5Krnpad
	DepthwiseK3x3Nopad
	DepthwiseK3x3Krnpad
	DepthwiseK1xnKrnpad
	DepthwiseKnx1Krnpad
	DepthwiseGeneric
	PoolK3x3Nopad
	PoolK3x3Krnpad
	PoolK2x2Nopad
	PoolK2x2Krnpad
	PoolGeneric
	numVariants
)

var variantTable = [numVariants]variantInfo{
	Conv2DK10x10Nopad:   {family: familyConv2D, prefix: "conv2d", suffix: "k10x10_nopad", form: formFixed, k: 10, pad: engine.PadNone},
	Conv2DK10x10Krnpad:  {family: familyConv2D, prefix: "conv2d", suffix: "k10x10_krnpad", form: formFixed, k: 10, pad: engine.PadSplit},
	Conv2DK9x9Nopad:     {family: familyConv2D, prefix: "conv2d", suffix: "k9x9_nopad", form: formFixed, k: 9, pad: engine.PadNone},
	Conv2DK9x9Krnpad:    {family: familyConv2D, prefix: "conv2d", suffix: "k9x9_krnpad", form: formFixed, k: 9, pad: engine.PadSplit},
	Conv2DK8x8Nopad:     {family: familyConv2D, prefix: "conv2d", suffix: "k8x8_nopad", form: formFixed, k: 8, pad: engine.PadNone},
	Conv2DK8x8Krnpad:    {family: familyConv2D, prefix: "conv2d", suffix: "k8x8_krnpad", form: formFixed, k: 8, pad: engine.PadSplit},
	Conv2DK7x7Nopad:     {family: familyConv2D, prefix: "conv2d", suffix: "k7x7_nopad", form: formFixed, k: 7, pad: engine.PadNone},
	Conv2DK7x7Krnpad:    {family: familyConv2D, prefix: "conv2d", suffix: "k7x7_krnpad", form: formFixed, k: 7, pad: engine.PadSplit},
	Conv2DK6x6Nopad:     {family: familyConv2D, prefix: "conv2d", suffix: "k6x6_nopad", form: formFixed, k: 6, pad: engine.PadNone},
	Conv2DK6x6Krnpad:    {family: familyConv2D, prefix: "conv2d", suffix: "k6x6_krnpad", form: formFixed, k: 6, pad: engine.PadSplit},
	Conv2DK5x5Nopad:     {family: familyConv2D, prefix: "conv2d", suffix: "k5x5_nopad", form: formFixed, k: 5, pad: engine.PadNone},
	Conv2DK5x5Krnpad:    {family: familyConv2D, prefix: "conv2d", suffix: "k5x5_krnpad", form: formFixed, k: 5, pad: engine.PadSplit},
	Conv2DK4x4Nopad:     {family: familyConv2D, prefix: "conv2d", suffix: "k4x4_nopad", form: formFixed, k: 4, pad: engine.PadNone},
	Conv2DK4x4Krnpad:    {family: familyConv2D, prefix: "conv2d", suffix: "k4x4_krnpad", form: formFixed, k: 4, pad: engine.PadSplit},
	Conv2DK3x3Nopad:     {family: familyConv2D, prefix: "conv2d", suffix: "k3x3_nopad", form: formFixed, k: 3, pad: engine.PadNone},
	Conv2DK3x3Krnpad:    {family: familyConv2D, prefix: "conv2d", suffix: "k3x3_krnpad", form: formFixed, k: 3, pad: engine.PadSplit},
	Conv2DK2x2Nopad:     {family: familyConv2D, prefix: "conv2d", suffix: "k2x2_nopad", form: formFixed, k: 2, pad: engine.PadNone},
	Conv2DK2x2Krnpad:    {family: familyConv2D, prefix: "conv2d", suffix: "k2x2_krnpad", form: formFixed, k: 2, pad: engine.PadSplit},
	Conv2DK1x1Nopad:     {family: familyConv2D, prefix: "conv2d", suffix: "k1x1_nopad", form: formPointwise, k: 1, pad: engine.PadNone},
	Conv2DK1xnKrnpad:    {family: familyConv2D, prefix: "conv2d", suffix: "k1xn_krnpad", form: formColumn, k: 0, pad: engine.PadSplit},
	Conv2DKnx1Krnpad:    {family: familyConv2D, prefix: "conv2d", suffix: "knx1_krnpad", form: formRow, k: 0, pad: engine.PadSplit},
	Conv2DGeneric:       {family: familyConv2D, prefix: "conv2d", suffix: "generic", form: formGeneric, k: 0, pad: engine.PadKernel},
	DepthwiseK7x7Nopad:  {family: familyDepthwise, prefix: "depthwise_conv2d", suffix: "k7x7_nopad", form: formFixed, k: 7, pad: engine.PadNone},
	DepthwiseK7x7Krnpad: {family: familyDepthwise, prefix: "depthwise_conv2d", suffix: "k7x7_krnpad", form: formFixed, k: 7, pad: engine.PadSplit},
	DepthwiseK5x5Nopad:  {family: familyDepthwise, prefix: "depthwise_conv2d", suffix: "k5x5_nopad", form: formFixed, k: 5, pad: engine.PadNone},
	DepthwiseK5x5Krnpad: {family: familyDepthwise, prefix: "depthwise_conv2d", suffix: "k5x5_krnpad", form: formFixed, k: 5, pad: engine.PadSplit},
	DepthwiseK3x3Nopad:  {family: familyDepthwise, prefix: "depthwise_conv2d", suffix: "k3x3_nopad", form: formFixed, k: 3, pad: engine.PadNone},
	DepthwiseK3x3Krnpad: {family: familyDepthwise, prefix: "depthwise_conv2d", suffix: "k3x3_krnpad", form: formFixed, k: 3, pad: engine.PadSplit},
	DepthwiseK1xnKrnpad: {family: familyDepthwise, prefix: "depthwise_conv2d", suffix: "k1xn_krnpad", form: formColumn, k: 0, pad: engine.PadSplit},
	DepthwiseKnx1Krnpad: {family: familyDepthwise, prefix: "depthwise_conv2d", suffix: "knx1_krnpad", form: formRow, k: 0, pad: engine.PadSplit},
	DepthwiseGeneric:    {family: familyDepthwise, prefix: "depthwise_conv2d", suffix: "generic", form: formGeneric, k: 0, pad: engine.PadKernel},
	PoolK3x3Nopad:       {family: familyPool, prefix: "pool", suffix: "k3x3_nopad", form: formFixed, k: 3, pad: engine.PadNone},
	PoolK3x3Krnpad:      {family: familyPool, prefix: "pool", suffix: "k3x3_krnpad", form: formFixed, k: 3, pad: engine.PadSplit},
	PoolK2x2Nopad:       {family: familyPool, prefix: "pool", suffix: "k2x2_nopad", form: formFixed, k: 2, pad: engine.PadNone},
	PoolK2x2Krnpad:      {family: familyPool, prefix: "pool", suffix: "k2x2_krnpad", form: formFixed, k: 2, pad: engine.PadSplit},
	PoolGeneric:         {family: familyPool, prefix: "pool", suffix: "generic", form: formGeneric, k: 0, pad: engine.PadKernel},
}

// conv2DOrder is the dispatch precedence of the conv2d variants.
var conv2DOrder = []Variant{
	Conv2DK10x10Nopad,
	Conv2DK10x10Krnpad,
	Conv2DK9x9Nopad,
	Conv2DK9x9Krnpad,
	Conv2DK8x8Nopad,
	Conv2DK8x8Krnpad,
	Conv2DK7x7Nopad,
	Conv2DK7x7Krnpad,
	Conv2DK6x6Nopad,
	Conv2DK6x6Krnpad,
	Conv2DK5x5Nopad,
	Conv2DK5x5Krnpad,
	Conv2DK4x4Nopad,
	Conv2DK4x4Krnpad,
	Conv2DK3x3Nopad,
	Conv2DK3x3Krnpad,
	Conv2DK2x2Nopad,
	Conv2DK2x2Krnpad,
	Conv2DK1x1Nopad,
	Conv2DK1xnKrnpad,
	Conv2DKnx1Krnpad,
	Conv2DGeneric,
}

// depthwiseOrder is the dispatch precedence of the depthwise_conv2d variants.
var depthwiseOrder = []Variant{
	DepthwiseK7x7Nopad,
	DepthwiseK7x7Krnpad,
	DepthwiseK5x5Nopad,
	DepthwiseK5x5Krnpad,
	DepthwiseK3x3Nopad,
	DepthwiseK3x3Krnpad,
	DepthwiseK1xnKrnpad,
	DepthwiseKnx1Krnpad,
	DepthwiseGeneric,
}

// poolOrder is the dispatch precedence of the pool variants.
var poolOrder = []Variant{
	PoolK3x3Nopad,
	PoolK3x3Krnpad,
	PoolK2x2Nopad,
	PoolK2x2Krnpad,
	PoolGeneric,
}

func runConv2D[I, W, B qmath.Storage, A constraints.Signed](v Variant, a *engine.ConvArgs[I, W, B, A]) {
	switch v {
	case Conv2DK10x10Nopad:
		engine.Conv2D(a, engine.Fixed{KW: 10, KH: 10, Pad: engine.PadNone})
	case Conv2DK10x10Krnpad:
		engine.Conv2D(a, engine.Fixed{KW: 10, KH: 10, Pad: engine.PadSplit})
	case Conv2DK9x9Nopad:
		engine.Conv2D(a, engine.Fixed{KW: 9, KH: 9, Pad: engine.PadNone})
	case Conv2DK9x9Krnpad:
		engine.Conv2D(a, engine.Fixed{KW: 9, KH: 9, Pad: engine.PadSplit})
	case Conv2DK8x8Nopad:
		engine.Conv2D(a, engine.Fixed{KW: 8, KH: 8, Pad: engine.PadNone})
	case Conv2DK8x8Krnpad:
		engine.Conv2D(a, engine.Fixed{KW: 8, KH: 8, Pad: engine.PadSplit})
	case Conv2DK7x7Nopad:
		engine.Conv2D(a, engine.Fixed{KW: 7, KH: 7, Pad: engine.PadNone})
	case Conv2DK7x7Krnpad:
		engine.Conv2D(a, engine.Fixed{KW: 7, KH: 7, Pad: engine.PadSplit})
	case Conv2DK6x6Nopad:
		engine.Conv2D(a, engine.Fixed{KW: 6, KH: 6, Pad: engine.PadNone})
	case Conv2DK6x6Krnpad:
		engine.Conv2D(a, engine.Fixed{KW: 6, KH: 6, Pad: engine.PadSplit})
	case Conv2DK5x5Nopad:
		engine.Conv2D(a, engine.Fixed{KW: 5, KH: 5, Pad: engine.PadNone})
	case Conv2DK5x5Krnpad:
		engine.Conv2D(a, engine.Fixed{KW: 5, KH: 5, Pad: engine.PadSplit})
	case Conv2DK4x4Nopad:
		engine.Conv2D(a, engine.Fixed{KW: 4, KH: 4, Pad: engine.PadNone})
	case Conv2DK4x4Krnpad:
		engine.Conv2D(a, engine.Fixed{KW: 4, KH: 4, Pad: engine.PadSplit})
	case Conv2DK3x3Nopad:
		engine.Conv2D(a, engine.Fixed{KW: 3, KH: 3, Pad: engine.PadNone})
	case Conv2DK3x3Krnpad:
		engine.Conv2D(a, engine.Fixed{KW: 3, KH: 3, Pad: engine.PadSplit})
	case Conv2DK2x2Nopad:
		engine.Conv2D(a, engine.Fixed{KW: 2, KH: 2, Pad: engine.PadNone})
	case Conv2DK2x2Krnpad:
		engine.Conv2D(a, engine.Fixed{KW: 2, KH: 2, Pad: engine.PadSplit})
	case Conv2DK1x1Nopad:
		engine.Pointwise(a)
	case Conv2DK1xnKrnpad:
		engine.Conv2D(a, engine.Fixed{KW: 1, Pad: engine.PadSplit})
	case Conv2DKnx1Krnpad:
		engine.Conv2D(a, engine.Fixed{KH: 1, Pad: engine.PadSplit})
	case Conv2DGeneric:
		engine.Conv2D(a, engine.Fixed{Pad: engine.PadKernel})
	default:
		panic("kernels: runConv2D given variant " + v.String())
	}
}

func runDepthwise[I, W, B qmath.Storage, A constraints.Signed](v Variant, a *engine.ConvArgs[I, W, B, A]) {
	switch v {
	case DepthwiseK7x7Nopad:
		engine.Depthwise(a, engine.Fixed{KW: 7, KH: 7, Pad: engine.PadNone})
	case DepthwiseK7x7Krnpad:
		engine.Depthwise(a, engine.Fixed{KW: 7, KH: 7, Pad: engine.PadSplit})
	case DepthwiseK5x5Nopad:
		engine.Depthwise(a, engine.Fixed{KW: 5, KH: 5, Pad: engine.PadNone})
	case DepthwiseK5x5Krnpad:
		engine.Depthwise(a, engine.Fixed{KW: 5, KH: 5, Pad: engine.PadSplit})
	case DepthwiseK3x3Nopad:
		engine.Depthwise(a, engine.Fixed{KW: 3, KH: 3, Pad: engine.PadNone})
	case DepthwiseK3x3Krnpad:
		engine.Depthwise(a, engine.Fixed{KW: 3, KH: 3, Pad: engine.PadSplit})
	case DepthwiseK1xnKrnpad:
		engine.Depthwise(a, engine.Fixed{KW: 1, Pad: engine.PadSplit})
	case DepthwiseKnx1Krnpad:
		engine.Depthwise(a, engine.Fixed{KH: 1, Pad: engine.PadSplit})
	case DepthwiseGeneric:
		engine.Depthwise(a, engine.Fixed{Pad: engine.PadKernel})
	default:
		panic("kernels: runDepthwise given variant " + v.String())
	}
}

func runPool[I qmath.Storage](v Variant, a *engine.PoolArgs[I]) {
	switch v {
	case PoolK3x3Nopad:
		engine.Pool(a, engine.Fixed{KW: 3, KH: 3, Pad: engine.PadNone})
	case PoolK3x3Krnpad:
		engine.Pool(a, engine.Fixed{KW: 3, KH: 3, Pad: engine.PadSplit})
	case PoolK2x2Nopad:
		engine.Pool(a, engine.Fixed{KW: 2, KH: 2, Pad: engine.PadNone})
	case PoolK2x2Krnpad:
		engine.Pool(a, engine.Fixed{KW: 2, KH: 2, Pad: engine.PadSplit})
	case PoolGeneric:
		engine.Pool(a, engine.Fixed{Pad: engine.PadKernel})
	default:
		panic("kernels: runPool given variant " + v.String())
	}
}
