package qmath

// Relu selects the activation clamp applied to kernel outputs.
type Relu uint8

const (
	ReluNone Relu = iota
	ReluGen
	Relu1
	Relu6
)

// Bounds returns the clamp interval for relu in a quantized domain where
// zero is the code of real 0 and one is the code distance of real 1.
// The result is intersected with the storage range of T.
func Bounds[T Storage](relu Relu, zero, one int64) (lo, hi int64) {
	lo, hi = Limits[T]()
	switch relu {
	case ReluGen:
		lo = Clamp(zero, lo, hi)
	case Relu1:
		lo, hi = Clamp(zero-one, lo, hi), Clamp(zero+one, lo, hi)
	case Relu6:
		lo, hi = Clamp(zero, lo, hi), Clamp(zero+6*one, lo, hi)
	}
	return lo, hi
}

// OneCode returns round(2^frac / scale): the number of codes spanning the
// real value 1 for a tensor with effective scale scale/2^frac.
func OneCode(scale int64, frac int) int64 {
	if scale <= 0 {
		return 0
	}
	if frac < 0 {
		return RoundDiv(1, scale<<min(-frac, 40), RoundUp)
	}
	if frac > 62 {
		frac = 62
	}
	return RoundDiv(int64(1)<<frac, scale, RoundUp)
}
