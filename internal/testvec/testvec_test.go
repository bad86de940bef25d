package testvec

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samcharles93/qconv/pkg/mli"
)

func libraries(t *testing.T) []*mli.Library {
	t.Helper()
	var out []*mli.Library
	for _, b := range []string{"ref", "dsp", "vdsp"} {
		l, err := mli.New(mli.Options{Backend: b})
		require.NoError(t, err)
		out = append(out, l)
	}
	return out
}

func synthFor(op string) Synth {
	return Synth{Op: op, Height: 9, Width: 7, Channels: 3, OutChannels: 4, Kernel: 3, Stride: 1, Pad: 1, Relu: mli.Relu6, PerAxis: true, Seed: 11}
}

func TestEveryOpAgreesAcrossBackends(t *testing.T) {
	t.Parallel()
	for _, op := range Ops() {
		t.Run(op, func(t *testing.T) {
			t.Parallel()
			c, err := Synthesize(synthFor(op))
			require.NoError(t, err)
			var crcs []uint32
			for _, lib := range libraries(t) {
				res, err := Run(lib, c)
				require.NoError(t, err)
				require.NotEmpty(t, res.Variant)
				crcs = append(crcs, res.CRC)
			}
			require.Equal(t, crcs[0], crcs[1])
			require.Equal(t, crcs[0], crcs[2])
		})
	}
}

func TestRecordAndReplay(t *testing.T) {
	t.Parallel()
	lib := libraries(t)[0]
	c, err := Synthesize(synthFor("depthwise_conv2d_sa8_sa8_sa32"))
	require.NoError(t, err)
	res, err := Run(lib, c)
	require.NoError(t, err)
	require.Equal(t, "depthwise_conv2d_k3x3_krnpad", res.Variant)
	c.CRC, c.Variant = res.CRC, res.Variant

	path := filepath.Join(t.TempDir(), "cases.json")
	require.NoError(t, Save(path, &File{Cases: []Case{*c}}))
	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f.Cases, 1)

	again, err := Run(lib, &f.Cases[0])
	require.NoError(t, err)
	require.NoError(t, Check(&f.Cases[0], again))

	f.Cases[0].CRC ^= 1
	err = Check(&f.Cases[0], again)
	require.True(t, errors.Is(err, ErrMismatch))
}

func TestEncodeWritesNamedRelu(t *testing.T) {
	t.Parallel()
	c, err := Synthesize(synthFor("conv2d_fx16"))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, &File{Cases: []Case{*c}}))
	require.Contains(t, buf.String(), `"relu": "relu6"`)

	f, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, mli.Relu6, f.Cases[0].Conv.Relu)
}

func TestDecodeRejectsUnknownOp(t *testing.T) {
	t.Parallel()
	_, err := Decode(strings.NewReader(`{"cases":[{"name":"x","op":"conv3d"}]}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "conv3d")
}

func TestRunCarriesKernelStatus(t *testing.T) {
	t.Parallel()
	c, err := Synthesize(synthFor("conv2d_sa8_sa8_sa32"))
	require.NoError(t, err)
	c.Conv.PaddingTop = 3
	_, err = Run(libraries(t)[0], c)
	require.Equal(t, mli.StatusBadFuncCfg, mli.StatusOf(err))
	require.ErrorIs(t, err, ErrInvalidCase)

	c.Conv.PaddingTop = 1
	c.Input.Data = c.Input.Data[:5]
	_, err = Run(libraries(t)[0], c)
	require.Error(t, err)
	require.Contains(t, err.Error(), "input")
}

func TestPinnedVectors(t *testing.T) {
	t.Parallel()
	f, err := Load("testdata/pinned.json")
	require.NoError(t, err)
	require.NotEmpty(t, f.Cases)
	for _, lib := range libraries(t) {
		for i := range f.Cases {
			c := &f.Cases[i]
			require.NotZero(t, c.CRC, c.Name)
			require.NotEmpty(t, c.Variant, c.Name)
			r, err := Run(lib, c)
			require.NoError(t, err, c.Name)
			require.NoError(t, Check(c, r), "%s on %s", c.Name, lib.Backend())
		}
	}
}

func TestRunRejectsOversizedOutput(t *testing.T) {
	t.Parallel()
	in := mli.NewFX16([]int16{1, 2, 3, 4}, 8, 2, 2, 1)
	huge := 1 << 25
	c := &Case{
		Name:   "huge",
		Op:     "maxpool_fx16",
		Pool:   &mli.PoolConfig{KernelWidth: huge + 1, KernelHeight: huge + 1, StrideWidth: 1, StrideHeight: 1, PaddingLeft: huge, PaddingRight: huge, PaddingTop: huge, PaddingBottom: huge},
		Input:  Spec(&in),
		Output: TensorSpec{FracBits: 8},
	}
	_, err := Run(libraries(t)[0], c)
	require.ErrorIs(t, err, ErrInvalidCase)
	require.Equal(t, mli.StatusNotEnoughMem, mli.StatusOf(err))

	// Padding at the kernel extent is rejected before any sizing.
	c.Pool.KernelWidth, c.Pool.KernelHeight = huge, huge
	_, err = Run(libraries(t)[0], c)
	require.ErrorIs(t, err, ErrInvalidCase)
	require.Equal(t, mli.StatusBadFuncCfg, mli.StatusOf(err))
}

func TestTensorSpecConversion(t *testing.T) {
	t.Parallel()
	data := []int16{-32768, -1, 0, 1, 32767, 1234}
	tn := mli.NewFX16(data, 9, 2, 3)
	s := Spec(&tn)
	require.Equal(t, []int32{-32768, -1, 0, 1, 32767, 1234}, s.Data)
	back, err := s.Tensor()
	require.NoError(t, err)
	require.Equal(t, tn.Bytes(), back.Bytes())
	require.Equal(t, Checksum(&tn), Checksum(&back))

	sa := mli.NewSA8([]int8{-128, 5, 127}, mli.SAParams{Dim: 0, ZeroPoint: []int16{0, 0, 0}, Scale: []int16{1, 2, 3}, ScaleFracBits: []int8{1, 1, 1}}, 3)
	ss := Spec(&sa)
	require.NotNil(t, ss.Dim)
	back, err = ss.Tensor()
	require.NoError(t, err)
	require.Equal(t, sa.SA, back.SA)

	bad := TensorSpec{Type: "sa8", Shape: []int{1}, Data: []int32{200}}
	_, err = bad.Tensor()
	require.Error(t, err)
}

func TestSynthesizeRejectsUnknownOp(t *testing.T) {
	t.Parallel()
	_, err := Synthesize(Synth{Op: "softmax", Height: 1, Width: 1, Channels: 1})
	require.Error(t, err)
}
