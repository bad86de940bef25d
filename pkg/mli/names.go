package mli

import (
	"github.com/samcharles93/qconv/internal/kernels"
)

// Conv2DVariantName returns the name of the specialised variant a
// convolution with these weights and config runs, e.g.
// "conv2d_k3x3_krnpad" or "conv2d_generic".
func (l *Library) Conv2DVariantName(weights *Tensor, cfg *ConvConfig) string {
	return kernels.Conv2DName(convShape(weights, cfg))
}

// DepthwiseVariantName is Conv2DVariantName for depthwise convolutions.
func (l *Library) DepthwiseVariantName(weights *Tensor, cfg *ConvConfig) string {
	return kernels.DepthwiseName(convShape(weights, cfg))
}

// PoolVariantName returns the name of the pooling variant cfg selects.
func (l *Library) PoolVariantName(kind PoolKind, cfg *PoolConfig) string {
	s := kernels.Shape{
		KernelW: cfg.KernelWidth, KernelH: cfg.KernelHeight,
		PadLeft: cfg.PaddingLeft, PadRight: cfg.PaddingRight,
		PadTop: cfg.PaddingTop, PadBottom: cfg.PaddingBottom,
	}
	return kernels.PoolName(poolOp(kind), s)
}

func convShape(w *Tensor, cfg *ConvConfig) kernels.Shape {
	return kernels.Shape{
		KernelW: w.Shape[1], KernelH: w.Shape[0],
		PadLeft: cfg.PaddingLeft, PadRight: cfg.PaddingRight,
		PadTop: cfg.PaddingTop, PadBottom: cfg.PaddingBottom,
	}
}
