// Package qmath implements the integer primitives behind quantized kernels:
// rounding shifts, saturation, normalisation and activation bounds.
package qmath

import (
	"fmt"
	"math/bits"
	"strings"
	"unsafe"
)

// Rounding selects how a right shift or division resolves ties.
type Rounding uint8

const (
	// RoundUp rounds half toward +inf: (x + 2^(s-1)) >> s.
	RoundUp Rounding = iota
	// RoundConvergent rounds half to even.
	RoundConvergent
)

func (r Rounding) String() string {
	switch r {
	case RoundUp:
		return "up"
	case RoundConvergent:
		return "convergent"
	default:
		return "unknown"
	}
}

// ParseRounding accepts "up", "convergent" and "even" (alias of convergent).
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "up":
		return RoundUp, nil
	case "convergent", "even":
		return RoundConvergent, nil
	default:
		return RoundUp, fmt.Errorf("unknown rounding mode %q (expected up or convergent)", s)
	}
}

// Storage is the set of narrow integer types a kernel can store.
type Storage interface {
	~int8 | ~int16 | ~int32
}

// Limits returns the representable range of T.
func Limits[T Storage]() (lo, hi int64) {
	var z T
	n := unsafe.Sizeof(z) * 8
	hi = int64(1)<<(n-1) - 1
	return -hi - 1, hi
}

// Sat narrows x to T, clamping to its range.
func Sat[T Storage](x int64) T {
	lo, hi := Limits[T]()
	if x < lo {
		return T(lo)
	}
	if x > hi {
		return T(hi)
	}
	return T(x)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi int64) int64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// AsrRnd64 shifts x right by shift with the given rounding. A non-positive
// shift is a saturating left shift by -shift.
func AsrRnd64(x int64, shift int, mode Rounding) int64 {
	if shift <= 0 {
		return shl64Sat(x, -shift)
	}
	if shift > 63 {
		shift = 63
	}
	q := x >> shift
	rem := x - q<<shift
	half := int64(1) << (shift - 1)
	switch mode {
	case RoundConvergent:
		if rem > half || (rem == half && q&1 != 0) {
			q++
		}
	default:
		if rem >= half {
			q++
		}
	}
	return q
}

func shl64Sat(x int64, s int) int64 {
	if x == 0 || s == 0 {
		return x
	}
	if s >= 63 {
		if x > 0 {
			return 1<<63 - 1
		}
		return -1 << 63
	}
	if x > (1<<63-1)>>s {
		return 1<<63 - 1
	}
	if x < (-1<<63)>>s {
		return -1 << 63
	}
	return x << s
}

// Norm32 returns the number of redundant sign bits of x, i.e. how far x can
// be shifted left without overflow. 0 and -1 report 31.
func Norm32(x int32) int {
	if x == 0 || x == -1 {
		return 31
	}
	if x < 0 {
		x = ^x
	}
	return bits.LeadingZeros32(uint32(x)) - 1
}

// MulShift scales acc by mul / 2^shift.
func MulShift(acc int64, mul int32, shift int, mode Rounding) int64 {
	return AsrRnd64(acc*int64(mul), shift, mode)
}

// RoundDiv divides sum by a positive count with the given rounding.
func RoundDiv(sum, count int64, mode Rounding) int64 {
	q := sum / count
	r := sum - q*count
	if r < 0 {
		q--
		r += count
	}
	twice := 2 * r
	switch mode {
	case RoundConvergent:
		if twice > count || (twice == count && q&1 != 0) {
			q++
		}
	default:
		if twice >= count {
			q++
		}
	}
	return q
}

// CeilDiv is ceil(a / b) for b > 0.
func CeilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a > 0) == (b > 0) {
		q++
	}
	return q
}
