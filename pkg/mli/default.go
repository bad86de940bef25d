package mli

// Package-level entry points run on Default().

func Conv2DFX16(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	return Default().Conv2DFX16(in, weights, bias, cfg, out)
}

func Conv2DFX16FX8FX8(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	return Default().Conv2DFX16FX8FX8(in, weights, bias, cfg, out)
}

func Conv2DSA8SA8SA32(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	return Default().Conv2DSA8SA8SA32(in, weights, bias, cfg, out)
}

func DepthwiseConv2DFX16(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	return Default().DepthwiseConv2DFX16(in, weights, bias, cfg, out)
}

func DepthwiseConv2DFX16FX8FX8(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	return Default().DepthwiseConv2DFX16FX8FX8(in, weights, bias, cfg, out)
}

func DepthwiseConv2DSA8SA8SA32(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	return Default().DepthwiseConv2DSA8SA8SA32(in, weights, bias, cfg, out)
}

func MaxPoolFX16(in *Tensor, cfg *PoolConfig, out *Tensor) error {
	return Default().MaxPoolFX16(in, cfg, out)
}

func MaxPoolSA8(in *Tensor, cfg *PoolConfig, out *Tensor) error {
	return Default().MaxPoolSA8(in, cfg, out)
}

func AvePoolFX16(in *Tensor, cfg *PoolConfig, out *Tensor) error {
	return Default().AvePoolFX16(in, cfg, out)
}

func AvePoolSA8(in *Tensor, cfg *PoolConfig, out *Tensor) error {
	return Default().AvePoolSA8(in, cfg, out)
}

func FullyConnectedFX16(in, weights, bias *Tensor, cfg *FCConfig, out *Tensor) error {
	return Default().FullyConnectedFX16(in, weights, bias, cfg, out)
}

func FullyConnectedSA8SA8SA32(in, weights, bias *Tensor, cfg *FCConfig, out *Tensor) error {
	return Default().FullyConnectedSA8SA8SA32(in, weights, bias, cfg, out)
}

func Conv2DVariantName(weights *Tensor, cfg *ConvConfig) string {
	return Default().Conv2DVariantName(weights, cfg)
}

func DepthwiseVariantName(weights *Tensor, cfg *ConvConfig) string {
	return Default().DepthwiseVariantName(weights, cfg)
}

func PoolVariantName(kind PoolKind, cfg *PoolConfig) string {
	return Default().PoolVariantName(kind, cfg)
}
