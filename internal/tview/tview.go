// Package tview converts caller tensors into the flat strided views consumed
// by the dot-product primitives and the sliding-window engine.
//
// Views never own data. Strides are element counts, not bytes. A view lives
// for one kernel call.
package tview

import (
	"github.com/samcharles93/qconv/internal/assert"
	"github.com/samcharles93/qconv/internal/qmath"
)

// MemSpace tags the memory bank a buffer lives in.
type MemSpace uint8

const (
	MemDefault MemSpace = iota
	MemXY
	MemVCCM
)

func (m MemSpace) String() string {
	switch m {
	case MemDefault:
		return "default"
	case MemXY:
		return "xy"
	case MemVCCM:
		return "vccm"
	default:
		return "unknown"
	}
}

// Tensor is a strided view of an HWC feature map.
type Tensor[T any] struct {
	Data      []T
	Width     int
	Height    int
	Ch        int
	ColStride int
	RowStride int
	ChStride  int
	Space     MemSpace
}

// At returns the flat index of (row, col, ch).
func (t *Tensor[T]) At(row, col, ch int) int {
	return row*t.RowStride + col*t.ColStride + ch*t.ChStride
}

// Weights is a strided view of convolution weights with the output channel
// as a separate axis.
type Weights[T any] struct {
	Data        []T
	Width       int
	Height      int
	InCh        int
	OutCh       int
	ColStride   int
	RowStride   int
	InChStride  int
	OutChStride int
}

// At returns the flat index of (row, col, inCh, outCh).
func (w *Weights[T]) At(row, col, in, out int) int {
	return row*w.RowStride + col*w.ColStride + in*w.InChStride + out*w.OutChStride
}

// Contiguous returns the packed strides for shape.
func Contiguous(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// Resolve replaces zero strides with the packed strides for shape.
func Resolve(shape, stride []int) []int {
	packed := Contiguous(shape)
	if len(stride) < len(shape) {
		return packed
	}
	out := make([]int, len(shape))
	for i := range shape {
		if stride[i] != 0 {
			out[i] = stride[i]
		} else {
			out[i] = packed[i]
		}
	}
	return out
}

// HWC views a rank-3 [height, width, channels] tensor.
func HWC[T any](data []T, shape, stride []int, space MemSpace) Tensor[T] {
	assert.That(len(shape) >= 3, "HWC view needs rank 3, got %d", len(shape))
	s := Resolve(shape[:3], stride)
	return Tensor[T]{
		Data:      data,
		Height:    shape[0],
		Width:     shape[1],
		Ch:        shape[2],
		RowStride: s[0],
		ColStride: s[1],
		ChStride:  s[2],
		Space:     space,
	}
}

// HWCN views rank-4 [height, width, in_ch, out_ch] convolution weights.
func HWCN[T any](data []T, shape, stride []int) Weights[T] {
	assert.That(len(shape) >= 4, "HWCN view needs rank 4, got %d", len(shape))
	s := Resolve(shape[:4], stride)
	return Weights[T]{
		Data:        data,
		Height:      shape[0],
		Width:       shape[1],
		InCh:        shape[2],
		OutCh:       shape[3],
		RowStride:   s[0],
		ColStride:   s[1],
		InChStride:  s[2],
		OutChStride: s[3],
	}
}

// HW1N views rank-4 [height, width, 1, channels] depthwise weights.
func HW1N[T any](data []T, shape, stride []int) Weights[T] {
	w := HWCN(data, shape, stride)
	assert.That(w.InCh == 1, "HW1N view needs a unit input-channel axis, got %d", w.InCh)
	return w
}

// Matrix views rank-2 [in, out] fully connected weights.
func Matrix[T any](data []T, shape, stride []int) Weights[T] {
	assert.That(len(shape) >= 2, "matrix view needs rank 2, got %d", len(shape))
	s := Resolve(shape[:2], stride)
	return Weights[T]{
		Data:        data,
		Height:      1,
		Width:       1,
		InCh:        shape[0],
		OutCh:       shape[1],
		InChStride:  s[0],
		OutChStride: s[1],
	}
}

// OutDim returns the output extent of one spatial axis:
// ceil_div(in + padBefore + padAfter - effKernel + 1, stride), where
// effKernel = (kernel-1)*dilation + 1.
func OutDim(in, padBefore, padAfter, kernel, stride, dilation int) int {
	if dilation < 1 {
		dilation = 1
	}
	eff := (kernel-1)*dilation + 1
	return qmath.CeilDiv(in+padBefore+padAfter-eff+1, stride)
}
