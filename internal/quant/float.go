package quant

import (
	"math"

	"github.com/samcharles93/qconv/internal/qmath"
)

// ScaleFromFloat encodes a positive real scale as a 16-bit mantissa and a
// fractional bit count so that scale ~= s / 2^frac.
func ScaleFromFloat(scale float64) (s int16, frac int8) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return 0, 0
	}
	m, e := math.Frexp(scale)
	f := 15 - e
	v := math.Round(m * (1 << 15))
	if v >= 1<<15 {
		v /= 2
		f--
	}
	if f > math.MaxInt8 {
		return int16(v) >> min(f-math.MaxInt8, 15), math.MaxInt8
	}
	if f < math.MinInt8 {
		return math.MaxInt16, math.MinInt8
	}
	return int16(v), int8(f)
}

// Quantize maps x to the nearest code of an asymmetric tensor with effective
// scale scale and zero point zero, saturated to T.
func Quantize[T qmath.Storage](x, scale float64, zero int) T {
	return qmath.Sat[T](int64(math.Round(x/scale)) + int64(zero))
}

// Dequantize maps a code back to a real value.
func Dequantize[T qmath.Storage](q T, scale float64, zero int) float64 {
	return float64(int64(q)-int64(zero)) * scale
}

// QuantizeFX maps x to a symmetric fixed-point code with frac fractional bits.
func QuantizeFX[T qmath.Storage](x float64, frac int) T {
	return qmath.Sat[T](int64(math.Round(math.Ldexp(x, frac))))
}

// DequantizeFX maps a fixed-point code back to a real value.
func DequantizeFX[T qmath.Storage](q T, frac int) float64 {
	return math.Ldexp(float64(q), -frac)
}
