package mli

import (
	"golang.org/x/exp/constraints"

	"github.com/samcharles93/qconv/internal/engine"
	"github.com/samcharles93/qconv/internal/qmath"
	"github.com/samcharles93/qconv/internal/quant"
	"github.com/samcharles93/qconv/internal/tview"
)

// FullyConnectedFX16 multiplies the flattened input by [in, out] weights
// and adds one bias per output.
func (l *Library) FullyConnectedFX16(in, weights, bias *Tensor, cfg *FCConfig, out *Tensor) error {
	if err := chkFC(FX16, FX16, FX16, in, weights, bias, cfg, out); err != nil {
		return err
	}
	q := quant.DefineFX[int16, int64](in.FX.FracBits, weights.FX.FracBits, bias.FX.FracBits, out.FX.FracBits, l.rounding)
	lo, hi := quant.FXBounds[int16](qmath.Relu(cfg.Relu), out.FX.FracBits)
	fullyConnected[int16, int16, int16, int64](l, FX16, in, weights, bias, out, in.Data.I16, weights.Data.I16, bias.Data.I16, out.Data.I16, q, lo, hi)
	return nil
}

// FullyConnectedSA8SA8SA32 is the asymmetric 8-bit fully connected layer.
// Weights may be quantized per output neuron along axis 1.
func (l *Library) FullyConnectedSA8SA8SA32(in, weights, bias *Tensor, cfg *FCConfig, out *Tensor) error {
	if err := chkFC(SA8, SA8, SA32, in, weights, bias, cfg, out); err != nil {
		return err
	}
	q, err := quant.DefineSA8(affine(in), affine(weights), affine(out), weights.Shape[1], l.rounding)
	if err != nil {
		return fail(StatusSpecParamMismatch, "fully_connected_sa8: %v", err)
	}
	lo, hi := quant.SA8Bounds(qmath.Relu(cfg.Relu), affine(out))
	fullyConnected[int8, int8, int32, int32](l, SA8, in, weights, bias, out, in.Data.I8, weights.Data.I8, bias.Data.I32, out.Data.I8, q, lo, hi)
	return nil
}

func fullyConnected[I, W, B qmath.Storage, A constraints.Signed](
	l *Library, et ElType,
	in, w, bias, out *Tensor,
	inData []I, wData []W, bData []B, outData []I,
	q quant.Params[B, A], lo, hi int64,
) {
	n := w.Shape[1]
	engine.FullyConnected(&engine.FCArgs[I, W, B, A]{
		In:      inData[:in.Elements()],
		Weights: tview.Matrix(wData, w.Dims(), w.MemStride[:2]),
		Bias:    vector(bData, bias),
		Out:     outData[:n],
		Quant:   q,
		Min:     lo,
		Max:     hi,
		Backend: l.kind,
	})
	setOutput(out, et, []int{n})
	l.traced("fully_connected_"+et.String(), "fully_connected")
}
