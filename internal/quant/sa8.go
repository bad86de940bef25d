package quant

import (
	"github.com/pkg/errors"

	"github.com/samcharles93/qconv/internal/qmath"
)

// MaxOutShift bounds the requantization shift so acc*mul never needs more
// than 63 bits of right shift.
const MaxOutShift = 62

// ErrShiftRange reports scales whose ratio cannot be represented by a 31-bit
// multiplier and a shift in [0, MaxOutShift].
var ErrShiftRange = errors.New("requantization shift out of range")

// SA8 holds the asymmetric 8-bit parameters of one kernel call: zero points
// of input and output, per-channel weight zero points and per-channel
// multiplier/shift pairs that take the int32 accumulator to the output scale.
type SA8 struct {
	InZero     int32
	OutZero    int32
	WeightZero []int32
	OutMul     []int32
	OutShift   []int
	PerAxis    bool
	Mode       qmath.Rounding
}

// DefineSA8 derives the parameters for channels output channels. The bias is
// expected in the accumulator domain: scale in*w[ch] and zero point 0.
func DefineSA8(in, w, out Affine, channels int, mode qmath.Rounding) (*SA8, error) {
	if channels < 1 {
		return nil, errors.Errorf("sa8 params need at least one channel, got %d", channels)
	}
	perAxis := w.PerAxis()
	if perAxis && w.Len() < channels {
		return nil, errors.Errorf("weights carry %d scales for %d channels", w.Len(), channels)
	}
	if in.scale(0) <= 0 || out.scale(0) <= 0 {
		return nil, errors.Errorf("non-positive scale (input %d, output %d)", in.scale(0), out.scale(0))
	}

	n := 1
	if perAxis {
		n = channels
	}
	p := &SA8{
		InZero:     int32(in.zero(0)),
		OutZero:    int32(out.zero(0)),
		WeightZero: make([]int32, n),
		OutMul:     make([]int32, n),
		OutShift:   make([]int, n),
		PerAxis:    perAxis,
		Mode:       mode,
	}
	for ch := range n {
		ws := w.scale(ch)
		if ws <= 0 {
			return nil, errors.Errorf("non-positive weight scale %d at channel %d", ws, ch)
		}
		base := in.frac(0) + w.frac(ch) - out.frac(0)
		mul, k := normMultiplier(in.scale(0)*ws, out.scale(0), MaxOutShift-base)
		shift := base + k
		if mul == 0 || shift < 0 || shift > MaxOutShift {
			return nil, errors.Wrapf(ErrShiftRange, "channel %d: shift %d", ch, shift)
		}
		p.WeightZero[ch] = int32(w.zero(ch))
		p.OutMul[ch] = int32(mul)
		p.OutShift[ch] = shift
	}
	return p, nil
}

// normMultiplier returns q and k with q/2^k ~= num/den and q in [2^30, 2^31)
// where k allows; k is at most kMax.
func normMultiplier(num, den int64, kMax int) (q int64, k int) {
	k = 31
	x := num << 31
	q, r := x/den, x%den
	for q >= 1<<31 {
		q >>= 1
		k--
	}
	for q < 1<<30 && k < kMax {
		r <<= 1
		q = q<<1 | r/den
		r %= den
		k++
	}
	for k > kMax && q > 0 {
		q >>= 1
		k--
	}
	return q, k
}

func (p *SA8) idx(ch int) int {
	if p.PerAxis {
		return ch
	}
	return 0
}

func (*SA8) BiasAdditive(b int32, _ int) int32 { return b }

func (p *SA8) InputOffset() int32 { return p.InZero }

func (p *SA8) WeightOffset(ch int) int32 { return p.WeightZero[p.idx(ch)] }

func (p *SA8) Result(acc int32, ch int) int64 {
	i := p.idx(ch)
	return qmath.MulShift(int64(acc), p.OutMul[i], p.OutShift[i], p.Mode) + int64(p.OutZero)
}

func (p *SA8) Rounding() qmath.Rounding { return p.Mode }

// SA8Bounds returns the activation clamp of an sa8 output.
func SA8Bounds(relu qmath.Relu, out Affine) (lo, hi int64) {
	return qmath.Bounds[int8](relu, out.zero(0), qmath.OneCode(out.scale(0), out.frac(0)))
}
