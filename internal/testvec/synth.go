package testvec

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/samcharles93/qconv/internal/quant"
	"github.com/samcharles93/qconv/pkg/mli"
)

// Synth describes a randomly generated case. Inputs are drawn from
// [-1, 1) and quantized; kernel sizes and paddings are square.
type Synth struct {
	Op          string
	Height      int
	Width       int
	Channels    int
	OutChannels int
	Kernel      int
	Stride      int
	Pad         int
	Relu        mli.ReluType
	PerAxis     bool
	Seed        uint64
}

const (
	inFrac   = 12
	outFrac  = 8
	wFrac16  = 14
	wFrac8   = 7
	saInZero = -3
)

// Synthesize builds a Case from s. The result has no recorded checksum.
func Synthesize(s Synth) (*Case, error) {
	k, ok := kernels[s.Op]
	if !ok {
		return nil, errors.Errorf("unknown op %q", s.Op)
	}
	if s.Height < 1 || s.Width < 1 || s.Channels < 1 {
		return nil, errors.Errorf("input %dx%dx%d", s.Height, s.Width, s.Channels)
	}
	s.Kernel = max(s.Kernel, 1)
	s.Stride = max(s.Stride, 1)
	s.OutChannels = max(s.OutChannels, 1)
	if k.depthwise || k.pool != nil {
		s.OutChannels = s.Channels
	}
	r := rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))
	c := &Case{
		Name: fmt.Sprintf("%s_%dx%dx%d_k%d_s%d_p%d_seed%d", s.Op, s.Height, s.Width, s.Channels, s.Kernel, s.Stride, s.Pad, s.Seed),
		Op:   s.Op,
	}

	inShape := []int{s.Height, s.Width, s.Channels}
	if k.fc != nil {
		inShape = []int{s.Height * s.Width * s.Channels}
	}
	c.Input = s.tensor(r, k.in, inShape, 1)

	switch {
	case k.pool != nil:
		c.Pool = &mli.PoolConfig{
			KernelWidth: s.Kernel, KernelHeight: s.Kernel,
			StrideWidth: s.Stride, StrideHeight: s.Stride,
			PaddingLeft: s.Pad, PaddingRight: s.Pad, PaddingTop: s.Pad, PaddingBottom: s.Pad,
		}
		c.Output = c.Input
		c.Output.Shape, c.Output.Data, c.Output.Type = nil, nil, ""
		return c, nil
	case k.fc != nil:
		c.FC = &mli.FCConfig{Relu: s.Relu}
		w := s.weights(r, k.w, []int{inShape[0], s.OutChannels}, 1)
		c.Weights = &w
		c.Bias = s.bias(r, k, &c.Input, &w)
		c.Output = s.output(k.in, inShape[0])
		return c, nil
	}

	c.Conv = &mli.ConvConfig{
		Relu:        s.Relu,
		StrideWidth: s.Stride, StrideHeight: s.Stride,
		PaddingLeft: s.Pad, PaddingRight: s.Pad, PaddingTop: s.Pad, PaddingBottom: s.Pad,
	}
	wIn := s.Channels
	if k.depthwise {
		wIn = 1
	}
	w := s.weights(r, k.w, []int{s.Kernel, s.Kernel, wIn, s.OutChannels}, 3)
	c.Weights = &w
	c.Bias = s.bias(r, k, &c.Input, &w)
	c.Output = s.output(k.in, s.Kernel*s.Kernel*wIn)
	return c, nil
}

func (s Synth) tensor(r *rand.Rand, et mli.ElType, shape []int, span float64) TensorSpec {
	n := 1
	for _, d := range shape {
		n *= d
	}
	t := TensorSpec{Type: et.String(), Shape: shape, Data: make([]int32, n)}
	switch et {
	case mli.FX16:
		t.FracBits = inFrac
		for i := range t.Data {
			t.Data[i] = int32(quant.QuantizeFX[int16](span*(2*r.Float64()-1), inFrac))
		}
	case mli.SA8:
		scale := 2 * span / 255
		sc, f := quant.ScaleFromFloat(scale)
		t.ZeroPoint, t.Scale, t.ScaleFracBits = []int16{saInZero}, []int16{sc}, []int8{f}
		for i := range t.Data {
			t.Data[i] = int32(quant.Quantize[int8](span*(2*r.Float64()-1), scale, saInZero))
		}
	}
	return t
}

// weights draws weights in [-0.5, 0.5). Per-axis sa8 weights get one
// random scale per output channel along axis dim.
func (s Synth) weights(r *rand.Rand, et mli.ElType, shape []int, dim int) TensorSpec {
	n := 1
	for _, d := range shape {
		n *= d
	}
	cout := shape[len(shape)-1]
	t := TensorSpec{Type: et.String(), Shape: shape, Data: make([]int32, n)}
	switch et {
	case mli.FX16, mli.FX8:
		t.FracBits = wFrac16
		if et == mli.FX8 {
			t.FracBits = wFrac8
		}
		for i := range t.Data {
			v := r.Float64() - 0.5
			if et == mli.FX8 {
				t.Data[i] = int32(quant.QuantizeFX[int8](v, t.FracBits))
			} else {
				t.Data[i] = int32(quant.QuantizeFX[int16](v, t.FracBits))
			}
		}
	case mli.SA8:
		scales := []float64{1.0 / 254}
		if s.PerAxis {
			t.Dim = &dim
			scales = make([]float64, cout)
			for ch := range scales {
				scales[ch] = (0.5 + r.Float64()) / 254
			}
		}
		for _, sc := range scales {
			m, f := quant.ScaleFromFloat(sc)
			t.Scale = append(t.Scale, m)
			t.ScaleFracBits = append(t.ScaleFracBits, f)
			t.ZeroPoint = append(t.ZeroPoint, 0)
		}
		for i := range t.Data {
			ch := i % cout
			sc := scales[min(ch, len(scales)-1)]
			t.Data[i] = int32(quant.Quantize[int8](r.Float64()-0.5, sc, 0))
		}
	}
	return t
}

// bias draws biases in [-0.25, 0.25). sa32 biases are in the accumulator
// scale of their channel.
func (s Synth) bias(r *rand.Rand, k kernel, in, w *TensorSpec) *TensorSpec {
	cout := w.Shape[len(w.Shape)-1]
	t := &TensorSpec{Type: k.b.String(), Shape: []int{cout}, Data: make([]int32, cout)}
	switch k.b {
	case mli.FX16, mli.FX8:
		t.FracBits = min(in.FracBits+w.FracBits, 15)
		if k.b == mli.FX8 {
			t.FracBits = 7
		}
		for i := range t.Data {
			v := (r.Float64() - 0.5) / 2
			if k.b == mli.FX8 {
				t.Data[i] = int32(quant.QuantizeFX[int8](v, t.FracBits))
			} else {
				t.Data[i] = int32(quant.QuantizeFX[int16](v, t.FracBits))
			}
		}
	case mli.SA32:
		inScale := math.Ldexp(float64(in.Scale[0]), -int(in.ScaleFracBits[0]))
		for i := range t.Data {
			j := min(i, len(w.Scale)-1)
			wScale := math.Ldexp(float64(w.Scale[j]), -int(w.ScaleFracBits[j]))
			t.Data[i] = quant.Quantize[int32]((r.Float64()-0.5)/2, inScale*wScale, 0)
		}
	}
	return t
}

// output picks output quantization wide enough for a dot product over taps
// terms.
func (s Synth) output(et mli.ElType, taps int) TensorSpec {
	spread := math.Sqrt(float64(taps)) / 2
	if et == mli.FX16 {
		return TensorSpec{FracBits: outFrac}
	}
	sc, f := quant.ScaleFromFloat(2 * spread / 255)
	return TensorSpec{ZeroPoint: []int16{0}, Scale: []int16{sc}, ScaleFracBits: []int8{f}}
}
