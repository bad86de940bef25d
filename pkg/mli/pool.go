package mli

import (
	"github.com/samcharles93/qconv/internal/engine"
	"github.com/samcharles93/qconv/internal/kernels"
	"github.com/samcharles93/qconv/internal/qmath"
	"github.com/samcharles93/qconv/internal/tview"
)

// MaxPoolFX16 takes the maximum of every pooling window. Output and input
// share fractional bits.
func (l *Library) MaxPoolFX16(in *Tensor, cfg *PoolConfig, out *Tensor) error {
	return poolFX16(l, MaxPool, in, cfg, out)
}

// AvePoolFX16 averages every pooling window over its valid taps.
func (l *Library) AvePoolFX16(in *Tensor, cfg *PoolConfig, out *Tensor) error {
	return poolFX16(l, AvePool, in, cfg, out)
}

// MaxPoolSA8 takes the maximum of every pooling window. Output and input
// share scale and zero point.
func (l *Library) MaxPoolSA8(in *Tensor, cfg *PoolConfig, out *Tensor) error {
	return poolSA8(l, MaxPool, in, cfg, out)
}

// AvePoolSA8 averages every pooling window over its valid taps.
func (l *Library) AvePoolSA8(in *Tensor, cfg *PoolConfig, out *Tensor) error {
	return poolSA8(l, AvePool, in, cfg, out)
}

func poolFX16(l *Library, kind PoolKind, in *Tensor, cfg *PoolConfig, out *Tensor) error {
	shape, err := chkPool(FX16, in, cfg, out)
	if err != nil {
		return err
	}
	pool(l, kind, FX16, shape, in, cfg, out, in.Data.I16, out.Data.I16)
	return nil
}

func poolSA8(l *Library, kind PoolKind, in *Tensor, cfg *PoolConfig, out *Tensor) error {
	shape, err := chkPool(SA8, in, cfg, out)
	if err != nil {
		return err
	}
	pool(l, kind, SA8, shape, in, cfg, out, in.Data.I8, out.Data.I8)
	return nil
}

func pool[I qmath.Storage](l *Library, kind PoolKind, et ElType, shape [3]int, in *Tensor, cfg *PoolConfig, out *Tensor, inData, outData []I) {
	args := &engine.PoolArgs[I]{
		In:       tview.HWC(inData, in.Dims(), in.MemStride[:3], tview.MemSpace(in.Data.Space)),
		Out:      tview.HWC(outData, shape[:], nil, tview.MemSpace(out.Data.Space)),
		Op:       poolOp(kind),
		KW:       cfg.KernelWidth,
		KH:       cfg.KernelHeight,
		Geometry: poolGeometry(cfg),
		Rounding: l.rounding,
		Backend:  l.kind,
	}
	v := kernels.Pool(args)
	setOutput(out, et, shape[:])
	l.traced(kind.String()+"_"+et.String(), kind.String()+"_"+v.Suffix())
}

func poolOp(kind PoolKind) engine.PoolOp {
	if kind == AvePool {
		return engine.PoolAvg
	}
	return engine.PoolMax
}

func poolGeometry(cfg *PoolConfig) engine.Geometry {
	return engine.Geometry{
		StrideW:   cfg.StrideWidth,
		StrideH:   cfg.StrideHeight,
		PadLeft:   cfg.PaddingLeft,
		PadRight:  cfg.PaddingRight,
		PadTop:    cfg.PaddingTop,
		PadBottom: cfg.PaddingBottom,
	}
}
