// Package testvec reads, writes and runs kernel test vectors: a kernel name,
// its configuration, quantized input tensors and the CRC32 of the expected
// output bytes.
package testvec

import (
	"encoding/binary"
	"hash/crc32"
	"io"
	"math"
	"os"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/samcharles93/qconv/pkg/mli"
)

// ErrMismatch is returned by Check when an output differs from the recorded
// checksum.
var ErrMismatch = errors.New("output checksum mismatch")

// TensorSpec is the serialised form of a quantized tensor. Data holds the
// integer codes in logical order. A nil Dim means per-tensor parameters.
type TensorSpec struct {
	Type          string  `json:"type,omitempty"`
	Shape         []int   `json:"shape,omitempty"`
	FracBits      int     `json:"frac_bits,omitempty"`
	Dim           *int    `json:"dim,omitempty"`
	ZeroPoint     []int16 `json:"zero_point,omitempty"`
	Scale         []int16 `json:"scale,omitempty"`
	ScaleFracBits []int8  `json:"scale_frac_bits,omitempty"`
	Data          []int32 `json:"data,omitempty"`
}

// Case is one kernel invocation. Exactly one of Conv, Pool and FC is set,
// matching Op. Output carries the output quantization only; its buffer is
// sized from the kernel's result shape.
type Case struct {
	Name    string          `json:"name"`
	Op      string          `json:"op"`
	Conv    *mli.ConvConfig `json:"conv,omitempty"`
	Pool    *mli.PoolConfig `json:"pool,omitempty"`
	FC      *mli.FCConfig   `json:"fc,omitempty"`
	Input   TensorSpec      `json:"input"`
	Weights *TensorSpec     `json:"weights,omitempty"`
	Bias    *TensorSpec     `json:"bias,omitempty"`
	Output  TensorSpec      `json:"output"`
	CRC     uint32          `json:"crc,omitempty"`
	Variant string          `json:"variant,omitempty"`
}

// File is a set of cases.
type File struct {
	Cases []Case `json:"cases"`
}

// Decode reads a File from r.
func Decode(r io.Reader) (*File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decode test vectors")
	}
	for i := range f.Cases {
		if _, ok := kernels[f.Cases[i].Op]; !ok {
			return nil, errors.Errorf("case %d (%q): unknown op %q", i, f.Cases[i].Name, f.Cases[i].Op)
		}
	}
	return &f, nil
}

// Encode writes f to w as indented JSON.
func Encode(w io.Writer, f *File) error {
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode test vectors")
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// Load reads a File from path.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer fh.Close()
	f, err := Decode(fh)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return f, nil
}

// Save writes f to path.
func Save(path string, f *File) error {
	fh, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := Encode(fh, f); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

// Checksum is the CRC32 (IEEE) of the tensor's elements in logical order.
func Checksum(t *mli.Tensor) uint32 {
	return crc32.ChecksumIEEE(t.Bytes())
}

// Tensor decodes s into an mli tensor with its own buffer.
func (s *TensorSpec) Tensor() (mli.Tensor, error) {
	et, err := mli.ParseElType(s.Type)
	if err != nil {
		return mli.Tensor{}, errors.WithStack(err)
	}
	n := 1
	for _, d := range s.Shape {
		n *= d
	}
	if len(s.Data) != n {
		return mli.Tensor{}, errors.Errorf("%s tensor %v holds %d values", et, s.Shape, len(s.Data))
	}
	t := mli.Tensor{Rank: len(s.Shape), ElType: et}
	if t.Rank > mli.MaxRank {
		return mli.Tensor{}, errors.Errorf("rank %d above %d", t.Rank, mli.MaxRank)
	}
	copy(t.Shape[:], s.Shape)
	t.Data, err = buffer(et, s.Data, n)
	if err != nil {
		return mli.Tensor{}, err
	}
	s.params(&t)
	return t, nil
}

// output allocates an output tensor of n elements carrying s's quantization.
func (s *TensorSpec) output(et mli.ElType, n int) (mli.Tensor, error) {
	if s.Type != "" && s.Type != et.String() {
		return mli.Tensor{}, errors.Errorf("output type %s, kernel writes %s", s.Type, et)
	}
	t := mli.Tensor{ElType: et}
	var err error
	if t.Data, err = buffer(et, nil, n); err != nil {
		return mli.Tensor{}, err
	}
	s.params(&t)
	return t, nil
}

func (s *TensorSpec) params(t *mli.Tensor) {
	t.FX.FracBits = s.FracBits
	t.SA = mli.SAParams{Dim: -1, ZeroPoint: s.ZeroPoint, Scale: s.Scale, ScaleFracBits: s.ScaleFracBits}
	if s.Dim != nil {
		t.SA.Dim = *s.Dim
	}
}

func buffer(et mli.ElType, codes []int32, n int) (mli.Buffer, error) {
	var b mli.Buffer
	switch et {
	case mli.FX8, mli.SA8:
		b.I8 = make([]int8, n)
		for i, v := range codes {
			if v < math.MinInt8 || v > math.MaxInt8 {
				return b, errors.Errorf("value %d at %d outside %s", v, i, et)
			}
			b.I8[i] = int8(v)
		}
	case mli.FX16:
		b.I16 = make([]int16, n)
		for i, v := range codes {
			if v < math.MinInt16 || v > math.MaxInt16 {
				return b, errors.Errorf("value %d at %d outside %s", v, i, et)
			}
			b.I16[i] = int16(v)
		}
	case mli.SA32:
		b.I32 = make([]int32, n)
		copy(b.I32, codes)
	default:
		return b, errors.Errorf("element type %s has no integer codes", et)
	}
	return b, nil
}

// Codes returns the elements of t in logical order as integers.
func Codes(t *mli.Tensor) []int32 {
	raw := t.Bytes()
	out := make([]int32, 0, t.Elements())
	switch t.ElType.Bits() {
	case 8:
		for _, b := range raw {
			out = append(out, int32(int8(b)))
		}
	case 16:
		for i := 0; i+1 < len(raw); i += 2 {
			out = append(out, int32(int16(binary.LittleEndian.Uint16(raw[i:]))))
		}
	case 32:
		for i := 0; i+3 < len(raw); i += 4 {
			out = append(out, int32(binary.LittleEndian.Uint32(raw[i:])))
		}
	}
	return out
}

// Spec encodes t, including its codes, as a TensorSpec.
func Spec(t *mli.Tensor) TensorSpec {
	s := TensorSpec{
		Type:  t.ElType.String(),
		Shape: append([]int(nil), t.Dims()...),
		Data:  Codes(t),
	}
	switch t.ElType {
	case mli.FX8, mli.FX16:
		s.FracBits = t.FX.FracBits
	default:
		s.ZeroPoint = t.SA.ZeroPoint
		s.Scale = t.SA.Scale
		s.ScaleFracBits = t.SA.ScaleFracBits
		if t.SA.PerAxis() {
			dim := t.SA.Dim
			s.Dim = &dim
		}
	}
	return s
}
