// Package mli is the public surface of the quantized kernel library:
// tensors, kernel configurations, status codes and the convolution,
// pooling and fully connected entry points.
//
// Every entry point validates its arguments first and leaves the output
// untouched on failure. On success it fills the output data and overwrites
// the output element type, rank, shape and memory strides. Output
// quantization parameters are read, never written.
package mli

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/samcharles93/qconv/internal/tview"
)

// MaxRank is the highest tensor rank the kernels accept.
const MaxRank = 4

// ElType is the element type of a tensor.
type ElType uint8

const (
	ElUnknown ElType = iota
	FX8
	FX16
	SA8
	SA32
	FP32
)

func (t ElType) String() string {
	switch t {
	case FX8:
		return "fx8"
	case FX16:
		return "fx16"
	case SA8:
		return "sa8"
	case SA32:
		return "sa32"
	case FP32:
		return "fp32"
	default:
		return "unknown"
	}
}

// ParseElType accepts the names returned by ElType.String.
func ParseElType(s string) (ElType, error) {
	for t := FX8; t <= FP32; t++ {
		if strings.EqualFold(strings.TrimSpace(s), t.String()) {
			return t, nil
		}
	}
	return ElUnknown, fmt.Errorf("unknown element type %q", s)
}

// Bits is the storage width of one element.
func (t ElType) Bits() int {
	switch t {
	case FX8, SA8:
		return 8
	case FX16:
		return 16
	case SA32, FP32:
		return 32
	default:
		return 0
	}
}

// MemSpace tags the memory bank a buffer was placed in.
type MemSpace uint8

const (
	MemDefault MemSpace = MemSpace(tview.MemDefault)
	MemXY      MemSpace = MemSpace(tview.MemXY)
	MemVCCM    MemSpace = MemSpace(tview.MemVCCM)
)

func (m MemSpace) String() string { return tview.MemSpace(m).String() }

// Buffer holds the storage of a tensor. Exactly one slice is set, matching
// the tensor's element type.
type Buffer struct {
	I8    []int8
	I16   []int16
	I32   []int32
	F32   []float32
	Space MemSpace
}

// FXParams quantizes a symmetric fixed-point tensor: value = code / 2^FracBits.
type FXParams struct {
	FracBits int
}

// SAParams quantizes an asymmetric tensor:
// value = (code - ZeroPoint) * Scale / 2^ScaleFracBits.
//
// Dim < 0 selects per-tensor parameters (one value each). Otherwise the
// parameters vary along axis Dim, one value per index.
type SAParams struct {
	Dim           int
	ZeroPoint     []int16
	Scale         []int16
	ScaleFracBits []int8
}

// PerAxis reports whether the parameters vary along an axis.
func (p *SAParams) PerAxis() bool { return p.Dim >= 0 }

// EffectiveScale returns Scale[i] / 2^ScaleFracBits[i].
func (p *SAParams) EffectiveScale(i int) float64 {
	s, f := at(p.Scale, i), at(p.ScaleFracBits, i)
	return math.Ldexp(float64(s), -int(f))
}

// Zero returns the zero point of index i.
func (p *SAParams) Zero(i int) int {
	return int(at(p.ZeroPoint, i))
}

func at[T any](s []T, i int) T {
	var zero T
	if len(s) == 0 {
		return zero
	}
	if len(s) == 1 || i >= len(s) {
		return s[0]
	}
	return s[i]
}

// Tensor describes caller-owned data. MemStride entries of zero mean the
// axis is packed.
type Tensor struct {
	Data      Buffer
	Shape     [MaxRank]int
	MemStride [MaxRank]int
	Rank      int
	ElType    ElType
	FX        FXParams
	SA        SAParams
}

// Dims returns the first Rank entries of Shape.
func (t *Tensor) Dims() []int {
	return t.Shape[:min(max(t.Rank, 0), MaxRank)]
}

// Strides returns the memory strides with packed axes resolved.
func (t *Tensor) Strides() []int {
	return tview.Resolve(t.Dims(), t.MemStride[:len(t.Dims())])
}

// Elements is the number of elements the shape describes.
func (t *Tensor) Elements() int {
	n := 1
	for _, d := range t.Dims() {
		n *= d
	}
	return n
}

// span is the number of buffer elements the shape and strides reach.
func (t *Tensor) span() int {
	s := 1
	strides := t.Strides()
	for i, d := range t.Dims() {
		if d <= 0 {
			return 0
		}
		s += (d - 1) * strides[i]
	}
	return s
}

// Bytes serialises the elements in logical order, little endian.
func (t *Tensor) Bytes() []byte {
	n := t.Elements()
	out := make([]byte, 0, n*max(t.ElType.Bits()/8, 1))
	dims, strides := t.Dims(), t.Strides()
	idx := make([]int, len(dims))
	for range n {
		off := 0
		for i := range dims {
			off += idx[i] * strides[i]
		}
		switch {
		case t.Data.I8 != nil:
			out = append(out, byte(t.Data.I8[off]))
		case t.Data.I16 != nil:
			out = binary.LittleEndian.AppendUint16(out, uint16(t.Data.I16[off]))
		case t.Data.I32 != nil:
			out = binary.LittleEndian.AppendUint32(out, uint32(t.Data.I32[off]))
		case t.Data.F32 != nil:
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(t.Data.F32[off]))
		}
		for i := len(dims) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < dims[i] {
				break
			}
			idx[i] = 0
		}
	}
	return out
}

func newTensor(et ElType, data Buffer, shape []int) Tensor {
	t := Tensor{Data: data, Rank: len(shape), ElType: et, SA: SAParams{Dim: -1}}
	copy(t.Shape[:], shape)
	return t
}

// NewFX8 wraps data as an fx8 tensor of the given shape.
func NewFX8(data []int8, fracBits int, shape ...int) Tensor {
	t := newTensor(FX8, Buffer{I8: data}, shape)
	t.FX.FracBits = fracBits
	return t
}

// NewFX16 wraps data as an fx16 tensor of the given shape.
func NewFX16(data []int16, fracBits int, shape ...int) Tensor {
	t := newTensor(FX16, Buffer{I16: data}, shape)
	t.FX.FracBits = fracBits
	return t
}

// NewSA8 wraps data as an sa8 tensor of the given shape.
func NewSA8(data []int8, params SAParams, shape ...int) Tensor {
	t := newTensor(SA8, Buffer{I8: data}, shape)
	t.SA = params
	return t
}

// NewSA32 wraps data as an sa32 tensor of the given shape.
func NewSA32(data []int32, params SAParams, shape ...int) Tensor {
	t := newTensor(SA32, Buffer{I32: data}, shape)
	t.SA = params
	return t
}

// PerTensor builds per-tensor asymmetric parameters.
func PerTensor(zero, scale int16, fracBits int8) SAParams {
	return SAParams{Dim: -1, ZeroPoint: []int16{zero}, Scale: []int16{scale}, ScaleFracBits: []int8{fracBits}}
}

// ReluType selects the activation applied to kernel outputs.
type ReluType uint8

const (
	ReluNone ReluType = iota
	ReluGen
	Relu1
	Relu6
)

func (r ReluType) String() string {
	switch r {
	case ReluNone:
		return "none"
	case ReluGen:
		return "relu"
	case Relu1:
		return "relu1"
	case Relu6:
		return "relu6"
	default:
		return "unknown"
	}
}

// ParseRelu accepts the names returned by ReluType.String.
func ParseRelu(s string) (ReluType, error) {
	for r := ReluNone; r <= Relu6; r++ {
		if strings.EqualFold(strings.TrimSpace(s), r.String()) {
			return r, nil
		}
	}
	if strings.TrimSpace(s) == "" {
		return ReluNone, nil
	}
	return ReluNone, fmt.Errorf("unknown relu %q", s)
}

func (r ReluType) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *ReluType) UnmarshalText(b []byte) error {
	v, err := ParseRelu(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ConvConfig configures the convolution and depthwise convolution kernels.
// A zero dilation is read as 1.
type ConvConfig struct {
	Relu           ReluType `json:"relu"`
	StrideWidth    int      `json:"stride_width"`
	StrideHeight   int      `json:"stride_height"`
	PaddingLeft    int      `json:"padding_left"`
	PaddingRight   int      `json:"padding_right"`
	PaddingTop     int      `json:"padding_top"`
	PaddingBottom  int      `json:"padding_bottom"`
	DilationWidth  int      `json:"dilation_width"`
	DilationHeight int      `json:"dilation_height"`
}

// PoolConfig configures the pooling kernels.
type PoolConfig struct {
	KernelWidth   int `json:"kernel_width"`
	KernelHeight  int `json:"kernel_height"`
	StrideWidth   int `json:"stride_width"`
	StrideHeight  int `json:"stride_height"`
	PaddingLeft   int `json:"padding_left"`
	PaddingRight  int `json:"padding_right"`
	PaddingTop    int `json:"padding_top"`
	PaddingBottom int `json:"padding_bottom"`
}

// FCConfig configures the fully connected kernels.
type FCConfig struct {
	Relu ReluType `json:"relu"`
}

// PoolKind selects max or average pooling.
type PoolKind uint8

const (
	MaxPool PoolKind = iota
	AvePool
)

func (k PoolKind) String() string {
	if k == AvePool {
		return "avepool"
	}
	return "maxpool"
}
