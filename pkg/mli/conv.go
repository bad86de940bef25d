package mli

import (
	"golang.org/x/exp/constraints"

	"github.com/samcharles93/qconv/internal/engine"
	"github.com/samcharles93/qconv/internal/kernels"
	"github.com/samcharles93/qconv/internal/qmath"
	"github.com/samcharles93/qconv/internal/quant"
	"github.com/samcharles93/qconv/internal/tview"
)

// Conv2DFX16 convolves a 16-bit fixed-point HWC input with [kh, kw, cin,
// cout] weights and one bias per output channel.
func (l *Library) Conv2DFX16(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	return convFX[int16, int16](l, specConvFX16, in, weights, bias, cfg, out)
}

// Conv2DFX16FX8FX8 is Conv2DFX16 with 8-bit weights and biases.
func (l *Library) Conv2DFX16FX8FX8(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	return convFX[int8, int8](l, specConvFX16FX8FX8, in, weights, bias, cfg, out)
}

// Conv2DSA8SA8SA32 convolves an asymmetric 8-bit input with 8-bit weights,
// per tensor or per output channel, and 32-bit biases expressed in the
// accumulator scale.
func (l *Library) Conv2DSA8SA8SA32(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	return convSA8(l, specConvSA8SA8SA32, in, weights, bias, cfg, out)
}

// DepthwiseConv2DFX16 convolves every channel of a 16-bit fixed-point HWC
// input with its own [kh, kw] filter. Weights are [kh, kw, 1, channels].
func (l *Library) DepthwiseConv2DFX16(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	return convFX[int16, int16](l, specDepthFX16, in, weights, bias, cfg, out)
}

// DepthwiseConv2DFX16FX8FX8 is DepthwiseConv2DFX16 with 8-bit weights and
// biases.
func (l *Library) DepthwiseConv2DFX16FX8FX8(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	return convFX[int8, int8](l, specDepthFX16FX8FX8, in, weights, bias, cfg, out)
}

// DepthwiseConv2DSA8SA8SA32 is the asymmetric 8-bit depthwise convolution.
func (l *Library) DepthwiseConv2DSA8SA8SA32(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	return convSA8(l, specDepthSA8SA8SA32, in, weights, bias, cfg, out)
}

func convFX[W, B qmath.Storage](l *Library, sp convSpec, in, w, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	shape, err := chkConv(sp, in, w, bias, cfg, out)
	if err != nil {
		return err
	}
	q := quant.DefineFX[B, int64](in.FX.FracBits, w.FX.FracBits, bias.FX.FracBits, out.FX.FracBits, l.rounding)
	lo, hi := quant.FXBounds[int16](qmath.Relu(cfg.Relu), out.FX.FracBits)
	convolve[int16, W, B, int64](l, sp, shape, in, w, bias, cfg, out,
		in.Data.I16, elems[W](&w.Data), elems[B](&bias.Data), out.Data.I16, q, lo, hi)
	return nil
}

// elems returns the slice of b that holds T elements. Callers have checked
// the tensor's element type.
func elems[T qmath.Storage](b *Buffer) []T {
	var s any
	switch any(T(0)).(type) {
	case int8:
		s = b.I8
	case int16:
		s = b.I16
	default:
		s = b.I32
	}
	return s.([]T)
}

func convSA8(l *Library, sp convSpec, in, w, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	shape, err := chkConv(sp, in, w, bias, cfg, out)
	if err != nil {
		return err
	}
	q, err := quant.DefineSA8(affine(in), affine(w), affine(out), shape[2], l.rounding)
	if err != nil {
		return fail(StatusSpecParamMismatch, "%s: %v", sp.name, err)
	}
	lo, hi := quant.SA8Bounds(qmath.Relu(cfg.Relu), affine(out))
	convolve[int8, int8, int32, int32](l, sp, shape, in, w, bias, cfg, out, in.Data.I8, w.Data.I8, bias.Data.I32, out.Data.I8, q, lo, hi)
	return nil
}

func convolve[I, W, B qmath.Storage, A constraints.Signed](
	l *Library, sp convSpec, shape [3]int,
	in, w, bias *Tensor, cfg *ConvConfig, out *Tensor,
	inData []I, wData []W, bData []B, outData []I,
	q quant.Params[B, A], lo, hi int64,
) {
	args := &engine.ConvArgs[I, W, B, A]{
		In:       tview.HWC(inData, in.Dims(), in.MemStride[:3], tview.MemSpace(in.Data.Space)),
		Weights:  tview.HWCN(wData, w.Dims(), w.MemStride[:4]),
		Bias:     vector(bData, bias),
		Out:      tview.HWC(outData, shape[:], nil, tview.MemSpace(out.Data.Space)),
		Geometry: convGeometry(cfg),
		Quant:    q,
		Min:      lo,
		Max:      hi,
		Backend:  l.kind,
	}
	var v kernels.Variant
	if sp.depthwise {
		v = kernels.Depthwise(args)
	} else {
		v = kernels.Conv2D(args)
	}
	setOutput(out, sp.in, shape[:])
	l.traced(sp.name, v.String())
}

func convGeometry(cfg *ConvConfig) engine.Geometry {
	return engine.Geometry{
		StrideW:   cfg.StrideWidth,
		StrideH:   cfg.StrideHeight,
		PadLeft:   cfg.PaddingLeft,
		PadRight:  cfg.PaddingRight,
		PadTop:    cfg.PaddingTop,
		PadBottom: cfg.PaddingBottom,
		DilW:      cfg.DilationWidth,
		DilH:      cfg.DilationHeight,
	}
}

func affine(t *Tensor) quant.Affine {
	p := &t.SA
	a := quant.Affine{Scale: p.Scale, FracBits: p.ScaleFracBits, ZeroPoint: p.ZeroPoint}
	if !p.PerAxis() {
		a.Scale = a.Scale[:min(len(a.Scale), 1)]
		a.FracBits = a.FracBits[:min(len(a.FracBits), 1)]
		a.ZeroPoint = a.ZeroPoint[:min(len(a.ZeroPoint), 1)]
	}
	return a
}

// vector returns the elements of a rank-1 tensor as a packed slice.
func vector[T any](data []T, t *Tensor) []T {
	n := t.Shape[0]
	stride := t.Strides()[0]
	if stride == 1 {
		return data[:n]
	}
	out := make([]T, n)
	for i := range out {
		out[i] = data[i*stride]
	}
	return out
}
