package mli

import (
	"math"

	"github.com/samcharles93/qconv/internal/tview"
)

// convSpec names the element types of one convolution entry point.
type convSpec struct {
	name      string
	in, w, b  ElType
	depthwise bool
}

var (
	specConvFX16        = convSpec{name: "conv2d_fx16", in: FX16, w: FX16, b: FX16}
	specConvFX16FX8FX8  = convSpec{name: "conv2d_fx16_fx8_fx8", in: FX16, w: FX8, b: FX8}
	specConvSA8SA8SA32  = convSpec{name: "conv2d_sa8_sa8_sa32", in: SA8, w: SA8, b: SA32}
	specDepthFX16       = convSpec{name: "depthwise_conv2d_fx16", in: FX16, w: FX16, b: FX16, depthwise: true}
	specDepthFX16FX8FX8 = convSpec{name: "depthwise_conv2d_fx16_fx8_fx8", in: FX16, w: FX8, b: FX8, depthwise: true}
	specDepthSA8SA8SA32 = convSpec{name: "depthwise_conv2d_sa8_sa8_sa32", in: SA8, w: SA8, b: SA32, depthwise: true}
)

// ChkConv2DFX16 validates the arguments of Conv2DFX16.
func ChkConv2DFX16(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	_, err := chkConv(specConvFX16, in, weights, bias, cfg, out)
	return err
}

// ChkConv2DFX16FX8FX8 validates the arguments of Conv2DFX16FX8FX8.
func ChkConv2DFX16FX8FX8(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	_, err := chkConv(specConvFX16FX8FX8, in, weights, bias, cfg, out)
	return err
}

// ChkConv2DSA8SA8SA32 validates the arguments of Conv2DSA8SA8SA32.
func ChkConv2DSA8SA8SA32(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	_, err := chkConv(specConvSA8SA8SA32, in, weights, bias, cfg, out)
	return err
}

// ChkDepthwiseConv2DFX16 validates the arguments of DepthwiseConv2DFX16.
func ChkDepthwiseConv2DFX16(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	_, err := chkConv(specDepthFX16, in, weights, bias, cfg, out)
	return err
}

// ChkDepthwiseConv2DFX16FX8FX8 validates the arguments of
// DepthwiseConv2DFX16FX8FX8.
func ChkDepthwiseConv2DFX16FX8FX8(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	_, err := chkConv(specDepthFX16FX8FX8, in, weights, bias, cfg, out)
	return err
}

// ChkDepthwiseConv2DSA8SA8SA32 validates the arguments of
// DepthwiseConv2DSA8SA8SA32.
func ChkDepthwiseConv2DSA8SA8SA32(in, weights, bias *Tensor, cfg *ConvConfig, out *Tensor) error {
	_, err := chkConv(specDepthSA8SA8SA32, in, weights, bias, cfg, out)
	return err
}

// ChkPoolFX16 validates the arguments of MaxPoolFX16 and AvePoolFX16.
func ChkPoolFX16(in *Tensor, cfg *PoolConfig, out *Tensor) error {
	_, err := chkPool(FX16, in, cfg, out)
	return err
}

// ChkPoolSA8 validates the arguments of MaxPoolSA8 and AvePoolSA8.
func ChkPoolSA8(in *Tensor, cfg *PoolConfig, out *Tensor) error {
	_, err := chkPool(SA8, in, cfg, out)
	return err
}

// ChkFullyConnectedFX16 validates the arguments of FullyConnectedFX16.
func ChkFullyConnectedFX16(in, weights, bias *Tensor, cfg *FCConfig, out *Tensor) error {
	return chkFC(FX16, FX16, FX16, in, weights, bias, cfg, out)
}

// ChkFullyConnectedSA8SA8SA32 validates the arguments of
// FullyConnectedSA8SA8SA32.
func ChkFullyConnectedSA8SA8SA32(in, weights, bias *Tensor, cfg *FCConfig, out *Tensor) error {
	return chkFC(SA8, SA8, SA32, in, weights, bias, cfg, out)
}

func chkConv(sp convSpec, in, w, bias *Tensor, cfg *ConvConfig, out *Tensor) ([3]int, error) {
	var shape [3]int
	if cfg == nil {
		return shape, fail(StatusBadFuncCfg, "%s: nil config", sp.name)
	}
	if err := chkTensor(sp.name, "input", in, sp.in, 3); err != nil {
		return shape, err
	}
	if err := chkTensor(sp.name, "weights", w, sp.w, 4); err != nil {
		return shape, err
	}
	if err := chkTensor(sp.name, "bias", bias, sp.b, 1); err != nil {
		return shape, err
	}

	kh, kw, wIn, cout := w.Shape[0], w.Shape[1], w.Shape[2], w.Shape[3]
	cin := in.Shape[2]
	if sp.depthwise {
		if wIn != 1 || cout != cin {
			return shape, fail(StatusShapeMismatch, "%s: depthwise weights [%d,%d,%d,%d] for %d input channels", sp.name, kh, kw, wIn, cout, cin)
		}
	} else if wIn != cin {
		return shape, fail(StatusShapeMismatch, "%s: weights expect %d input channels, input has %d", sp.name, wIn, cin)
	}
	if bias.Shape[0] != cout {
		return shape, fail(StatusShapeMismatch, "%s: %d biases for %d output channels", sp.name, bias.Shape[0], cout)
	}

	if cfg.StrideWidth < 1 || cfg.StrideHeight < 1 || cfg.DilationWidth < 0 || cfg.DilationHeight < 0 {
		return shape, fail(StatusBadFuncCfg, "%s: stride %dx%d dilation %dx%d", sp.name, cfg.StrideWidth, cfg.StrideHeight, cfg.DilationWidth, cfg.DilationHeight)
	}
	effW := (kw-1)*max(cfg.DilationWidth, 1) + 1
	effH := (kh-1)*max(cfg.DilationHeight, 1) + 1
	if err := chkPadding(sp.name, effW, effH, cfg.PaddingLeft, cfg.PaddingRight, cfg.PaddingTop, cfg.PaddingBottom); err != nil {
		return shape, err
	}
	outH := tview.OutDim(in.Shape[0], cfg.PaddingTop, cfg.PaddingBottom, kh, cfg.StrideHeight, cfg.DilationHeight)
	outW := tview.OutDim(in.Shape[1], cfg.PaddingLeft, cfg.PaddingRight, kw, cfg.StrideWidth, cfg.DilationWidth)
	if outH < 1 || outW < 1 {
		return shape, fail(StatusBadFuncCfg, "%s: empty %dx%d output", sp.name, outH, outW)
	}
	shape = [3]int{outH, outW, cout}

	if sp.in == SA8 {
		if err := chkSAConv(sp.name, in, w, out, 3, cout); err != nil {
			return shape, err
		}
	}
	return shape, chkOutput(sp.name, out, sp.in, shape[:])
}

func chkPool(et ElType, in *Tensor, cfg *PoolConfig, out *Tensor) ([3]int, error) {
	var shape [3]int
	name := "pool_" + et.String()
	if cfg == nil {
		return shape, fail(StatusBadFuncCfg, "%s: nil config", name)
	}
	if err := chkTensor(name, "input", in, et, 3); err != nil {
		return shape, err
	}
	if cfg.KernelWidth < 1 || cfg.KernelHeight < 1 || cfg.StrideWidth < 1 || cfg.StrideHeight < 1 {
		return shape, fail(StatusBadFuncCfg, "%s: kernel %dx%d stride %dx%d", name, cfg.KernelWidth, cfg.KernelHeight, cfg.StrideWidth, cfg.StrideHeight)
	}
	if err := chkPadding(name, cfg.KernelWidth, cfg.KernelHeight, cfg.PaddingLeft, cfg.PaddingRight, cfg.PaddingTop, cfg.PaddingBottom); err != nil {
		return shape, err
	}
	outH := tview.OutDim(in.Shape[0], cfg.PaddingTop, cfg.PaddingBottom, cfg.KernelHeight, cfg.StrideHeight, 1)
	outW := tview.OutDim(in.Shape[1], cfg.PaddingLeft, cfg.PaddingRight, cfg.KernelWidth, cfg.StrideWidth, 1)
	if outH < 1 || outW < 1 {
		return shape, fail(StatusBadFuncCfg, "%s: empty %dx%d output", name, outH, outW)
	}
	shape = [3]int{outH, outW, in.Shape[2]}

	if out == nil {
		return shape, fail(StatusBadTensor, "%s: nil output", name)
	}
	switch et {
	case SA8:
		if err := chkPerTensor(name, "input", in); err != nil {
			return shape, err
		}
		if in.SA.Zero(0) != out.SA.Zero(0) || in.SA.EffectiveScale(0) != out.SA.EffectiveScale(0) {
			return shape, fail(StatusIncompatibleTensors, "%s: output quantization differs from input", name)
		}
	default:
		if in.FX.FracBits != out.FX.FracBits {
			return shape, fail(StatusIncompatibleTensors, "%s: output has %d fractional bits, input %d", name, out.FX.FracBits, in.FX.FracBits)
		}
	}
	return shape, chkOutput(name, out, et, shape[:])
}

func chkFC(inT, wT, bT ElType, in, w, bias *Tensor, cfg *FCConfig, out *Tensor) error {
	name := "fully_connected_" + inT.String()
	if cfg == nil {
		return fail(StatusBadFuncCfg, "%s: nil config", name)
	}
	if in == nil || in.Rank < 1 || in.Rank > MaxRank {
		return fail(StatusBadTensor, "%s: input rank", name)
	}
	if err := chkTensor(name, "input", in, inT, in.Rank); err != nil {
		return err
	}
	if err := chkTensor(name, "weights", w, wT, 2); err != nil {
		return err
	}
	if err := chkTensor(name, "bias", bias, bT, 1); err != nil {
		return err
	}
	if in.Elements() != w.Shape[0] {
		return fail(StatusShapeMismatch, "%s: %d inputs for [%d,%d] weights", name, in.Elements(), w.Shape[0], w.Shape[1])
	}
	if bias.Shape[0] != w.Shape[1] {
		return fail(StatusShapeMismatch, "%s: %d biases for %d outputs", name, bias.Shape[0], w.Shape[1])
	}
	if !packed(in) {
		return fail(StatusNotSupported, "%s: input must be packed", name)
	}
	if inT == SA8 {
		if err := chkSAConv(name, in, w, out, 1, w.Shape[1]); err != nil {
			return err
		}
	}
	return chkOutput(name, out, inT, []int{w.Shape[1]})
}

func chkPadding(name string, kw, kh, left, right, top, bottom int) error {
	if left < 0 || right < 0 || top < 0 || bottom < 0 {
		return fail(StatusBadFuncCfg, "%s: negative padding", name)
	}
	if left >= kw || right >= kw || top >= kh || bottom >= kh {
		return fail(StatusBadFuncCfg, "%s: padding l=%d r=%d t=%d b=%d not below kernel %dx%d", name, left, right, top, bottom, kw, kh)
	}
	return nil
}

// chkTensor checks type, rank, shape and that the buffer covers the shape.
func chkTensor(fn, role string, t *Tensor, et ElType, rank int) error {
	if t == nil {
		return fail(StatusBadTensor, "%s: nil %s", fn, role)
	}
	if t.ElType != et {
		return fail(StatusTypeMismatch, "%s: %s is %s, want %s", fn, role, t.ElType, et)
	}
	if t.Rank != rank {
		return fail(StatusBadTensor, "%s: %s has rank %d, want %d", fn, role, t.Rank, rank)
	}
	for i, d := range t.Dims() {
		if d < 1 {
			return fail(StatusBadTensor, "%s: %s dim %d is %d", fn, role, i, d)
		}
		if t.MemStride[i] < 0 {
			return fail(StatusBadTensor, "%s: %s stride %d is negative", fn, role, i)
		}
	}
	if n := bufferLen(t, et); n < t.span() {
		return fail(StatusBadTensor, "%s: %s buffer holds %d elements, shape needs %d", fn, role, n, t.span())
	}
	return nil
}

// chkOutput checks that out can receive shape as a packed et tensor.
func chkOutput(fn string, out *Tensor, et ElType, shape []int) error {
	if out == nil {
		return fail(StatusBadTensor, "%s: nil output", fn)
	}
	if out.ElType != ElUnknown && out.ElType != et {
		return fail(StatusTypeMismatch, "%s: output is %s, want %s", fn, out.ElType, et)
	}
	need := 1
	for _, d := range shape {
		need *= d
	}
	if n := bufferLen(out, et); n < need {
		return fail(StatusNotEnoughMem, "%s: output buffer holds %d elements, result needs %d", fn, n, need)
	}
	return nil
}

// chkSAConv checks the asymmetric parameters of input, weights and output.
// Weights may be per-tensor or per-axis along wDim with one entry per
// output channel.
func chkSAConv(fn string, in, w, out *Tensor, wDim, channels int) error {
	if err := chkPerTensor(fn, "input", in); err != nil {
		return err
	}
	if out == nil {
		return fail(StatusBadTensor, "%s: nil output", fn)
	}
	if err := chkPerTensor(fn, "output", out); err != nil {
		return err
	}
	p := &w.SA
	if !p.PerAxis() {
		return chkPerTensor(fn, "weights", w)
	}
	if p.Dim != wDim {
		return fail(StatusSpecParamMismatch, "%s: weights quantized along axis %d, want %d", fn, p.Dim, wDim)
	}
	if len(p.Scale) != channels || len(p.ScaleFracBits) != channels ||
		(len(p.ZeroPoint) > 1 && len(p.ZeroPoint) != channels) {
		return fail(StatusSpecParamMismatch, "%s: weights carry %d scales for %d channels", fn, len(p.Scale), channels)
	}
	for ch := range channels {
		if p.Scale[ch] <= 0 {
			return fail(StatusBadTensor, "%s: weight scale %d at channel %d", fn, p.Scale[ch], ch)
		}
	}
	return nil
}

func chkPerTensor(fn, role string, t *Tensor) error {
	p := &t.SA
	if p.PerAxis() {
		return fail(StatusSpecParamMismatch, "%s: %s must be quantized per tensor", fn, role)
	}
	if len(p.Scale) == 0 || len(p.ScaleFracBits) == 0 || p.Scale[0] <= 0 {
		return fail(StatusBadTensor, "%s: %s has no positive scale", fn, role)
	}
	if z := p.Zero(0); z < math.MinInt8 || z > math.MaxInt8 {
		return fail(StatusBadTensor, "%s: %s zero point %d outside int8", fn, role, z)
	}
	return nil
}

func bufferLen(t *Tensor, et ElType) int {
	switch et {
	case FX8, SA8:
		return len(t.Data.I8)
	case FX16:
		return len(t.Data.I16)
	case SA32:
		return len(t.Data.I32)
	case FP32:
		return len(t.Data.F32)
	default:
		return 0
	}
}

func packed(t *Tensor) bool {
	want := tview.Contiguous(t.Dims())
	for i, s := range t.Strides() {
		if s != want[i] {
			return false
		}
	}
	return true
}

// setOutput overwrites the layout fields of out for a packed result.
func setOutput(out *Tensor, et ElType, shape []int) {
	out.ElType = et
	out.Rank = len(shape)
	out.Shape = [MaxRank]int{}
	out.MemStride = [MaxRank]int{}
	copy(out.Shape[:], shape)
	copy(out.MemStride[:], tview.Contiguous(shape))
}
