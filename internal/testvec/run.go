package testvec

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/samcharles93/qconv/internal/tview"
	"github.com/samcharles93/qconv/pkg/mli"
)

type (
	convFunc func(*mli.Library, *mli.Tensor, *mli.Tensor, *mli.Tensor, *mli.ConvConfig, *mli.Tensor) error
	poolFunc func(*mli.Library, *mli.Tensor, *mli.PoolConfig, *mli.Tensor) error
	fcFunc   func(*mli.Library, *mli.Tensor, *mli.Tensor, *mli.Tensor, *mli.FCConfig, *mli.Tensor) error
	convChk  func(*mli.Tensor, *mli.Tensor, *mli.Tensor, *mli.ConvConfig, *mli.Tensor) error
	poolChk  func(*mli.Tensor, *mli.PoolConfig, *mli.Tensor) error
	fcChk    func(*mli.Tensor, *mli.Tensor, *mli.Tensor, *mli.FCConfig, *mli.Tensor) error
)

// kernel binds an op name to its entry point and validation hook.
type kernel struct {
	in, w, b  mli.ElType
	conv      convFunc
	convChk   convChk
	depthwise bool
	pool      poolFunc
	poolChk   poolChk
	poolKind  mli.PoolKind
	fc        fcFunc
	fcChk     fcChk
}

var kernels = map[string]kernel{
	"conv2d_fx16":                   {in: mli.FX16, w: mli.FX16, b: mli.FX16, conv: (*mli.Library).Conv2DFX16, convChk: mli.ChkConv2DFX16},
	"conv2d_fx16_fx8_fx8":           {in: mli.FX16, w: mli.FX8, b: mli.FX8, conv: (*mli.Library).Conv2DFX16FX8FX8, convChk: mli.ChkConv2DFX16FX8FX8},
	"conv2d_sa8_sa8_sa32":           {in: mli.SA8, w: mli.SA8, b: mli.SA32, conv: (*mli.Library).Conv2DSA8SA8SA32, convChk: mli.ChkConv2DSA8SA8SA32},
	"depthwise_conv2d_fx16":         {in: mli.FX16, w: mli.FX16, b: mli.FX16, conv: (*mli.Library).DepthwiseConv2DFX16, convChk: mli.ChkDepthwiseConv2DFX16, depthwise: true},
	"depthwise_conv2d_fx16_fx8_fx8": {in: mli.FX16, w: mli.FX8, b: mli.FX8, conv: (*mli.Library).DepthwiseConv2DFX16FX8FX8, convChk: mli.ChkDepthwiseConv2DFX16FX8FX8, depthwise: true},
	"depthwise_conv2d_sa8_sa8_sa32": {in: mli.SA8, w: mli.SA8, b: mli.SA32, conv: (*mli.Library).DepthwiseConv2DSA8SA8SA32, convChk: mli.ChkDepthwiseConv2DSA8SA8SA32, depthwise: true},
	"maxpool_fx16":                  {in: mli.FX16, pool: (*mli.Library).MaxPoolFX16, poolChk: mli.ChkPoolFX16, poolKind: mli.MaxPool},
	"maxpool_sa8":                   {in: mli.SA8, pool: (*mli.Library).MaxPoolSA8, poolChk: mli.ChkPoolSA8, poolKind: mli.MaxPool},
	"avepool_fx16":                  {in: mli.FX16, pool: (*mli.Library).AvePoolFX16, poolChk: mli.ChkPoolFX16, poolKind: mli.AvePool},
	"avepool_sa8":                   {in: mli.SA8, pool: (*mli.Library).AvePoolSA8, poolChk: mli.ChkPoolSA8, poolKind: mli.AvePool},
	"fully_connected_fx16":          {in: mli.FX16, w: mli.FX16, b: mli.FX16, fc: (*mli.Library).FullyConnectedFX16, fcChk: mli.ChkFullyConnectedFX16},
	"fully_connected_sa8_sa8_sa32":  {in: mli.SA8, w: mli.SA8, b: mli.SA32, fc: (*mli.Library).FullyConnectedSA8SA8SA32, fcChk: mli.ChkFullyConnectedSA8SA8SA32},
}

// MaxOutputElements bounds the output buffer Run allocates for one case.
const MaxOutputElements = 1 << 24

// ErrInvalidCase is matched by every error raised before a case reaches its
// kernel: malformed tensors, configurations the validation hook rejects and
// outputs larger than MaxOutputElements. Errors from the hook keep their
// mli status.
var ErrInvalidCase = errors.New("invalid case")

type invalidCase struct{ err error }

func (e *invalidCase) Error() string { return e.err.Error() }

func (e *invalidCase) Unwrap() []error { return []error{ErrInvalidCase, e.err} }

// Ops lists the kernel names a Case may name, sorted.
func Ops() []string {
	ops := make([]string, 0, len(kernels))
	for op := range kernels {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	return ops
}

// Result is the outcome of running a Case.
type Result struct {
	Output  mli.Tensor
	CRC     uint32
	Variant string
}

// operands holds the decoded tensors and configuration of a case.
type operands struct {
	k                kernel
	in, w, bias, out mli.Tensor
	conv             *mli.ConvConfig
	pool             *mli.PoolConfig
	fc               *mli.FCConfig
}

func (c *Case) decode() (*operands, error) {
	k, ok := kernels[c.Op]
	if !ok {
		return nil, errors.Errorf("unknown op %q", c.Op)
	}
	o := &operands{k: k, conv: c.Conv, pool: c.Pool, fc: c.FC}
	switch {
	case k.conv != nil && o.conv == nil:
		o.conv = &mli.ConvConfig{StrideWidth: 1, StrideHeight: 1}
	case k.pool != nil && o.pool == nil:
		return nil, errors.Errorf("%s needs a pool config", c.Op)
	case k.fc != nil && o.fc == nil:
		o.fc = &mli.FCConfig{}
	}
	var err error
	if o.in, err = c.Input.Tensor(); err != nil {
		return nil, errors.Wrap(err, "input")
	}
	if k.pool == nil {
		if c.Weights == nil || c.Bias == nil {
			return nil, errors.Errorf("%s needs weights and bias", c.Op)
		}
		if o.w, err = c.Weights.Tensor(); err != nil {
			return nil, errors.Wrap(err, "weights")
		}
		if o.bias, err = c.Bias.Tensor(); err != nil {
			return nil, errors.Wrap(err, "bias")
		}
	}
	if o.out, err = c.Output.output(k.in, 0); err != nil {
		return nil, errors.Wrap(err, "output")
	}

	// With an empty output buffer the hook fails on the buffer size only
	// once everything else is valid.
	if err := o.check(); err != nil && mli.StatusOf(err) != mli.StatusNotEnoughMem {
		return nil, err
	}
	n, ok := o.outputLen()
	if !ok {
		return nil, errors.Wrapf(mli.StatusNotEnoughMem, "output exceeds %d elements", MaxOutputElements)
	}
	if o.out.Data, err = buffer(k.in, nil, n); err != nil {
		return nil, errors.Wrap(err, "output")
	}
	return o, nil
}

func (o *operands) check() error {
	switch {
	case o.k.conv != nil:
		return o.k.convChk(&o.in, &o.w, &o.bias, o.conv, &o.out)
	case o.k.pool != nil:
		return o.k.poolChk(&o.in, o.pool, &o.out)
	default:
		return o.k.fcChk(&o.in, &o.w, &o.bias, o.fc, &o.out)
	}
}

// outputLen sizes the output buffer of a validated case. It reports false
// when the result would exceed MaxOutputElements.
func (o *operands) outputLen() (int, bool) {
	in := &o.in
	switch {
	case o.k.conv != nil:
		cfg := o.conv
		h := tview.OutDim(in.Shape[0], cfg.PaddingTop, cfg.PaddingBottom, o.w.Shape[0], cfg.StrideHeight, cfg.DilationHeight)
		w := tview.OutDim(in.Shape[1], cfg.PaddingLeft, cfg.PaddingRight, o.w.Shape[1], cfg.StrideWidth, cfg.DilationWidth)
		return boundedProduct(h, w, o.w.Shape[3])
	case o.k.pool != nil:
		cfg := o.pool
		h := tview.OutDim(in.Shape[0], cfg.PaddingTop, cfg.PaddingBottom, cfg.KernelHeight, cfg.StrideHeight, 1)
		w := tview.OutDim(in.Shape[1], cfg.PaddingLeft, cfg.PaddingRight, cfg.KernelWidth, cfg.StrideWidth, 1)
		return boundedProduct(h, w, in.Shape[2])
	default:
		return boundedProduct(o.w.Shape[1])
	}
}

func boundedProduct(dims ...int) (int, bool) {
	n := 1
	for _, d := range dims {
		if d < 1 || n > MaxOutputElements/d {
			return 0, false
		}
		n *= d
	}
	return n, true
}

// Run executes c on lib. Errors wrapping ErrInvalidCase mean the case never
// reached its kernel; kernel failures are returned as mli errors, so
// mli.StatusOf recovers their status either way.
func Run(lib *mli.Library, c *Case) (*Result, error) {
	o, err := c.decode()
	if err != nil {
		return nil, errors.Wrapf(&invalidCase{err}, "case %q", c.Name)
	}
	var variant string
	switch {
	case o.k.conv != nil:
		err = o.k.conv(lib, &o.in, &o.w, &o.bias, o.conv, &o.out)
		if o.k.depthwise {
			variant = lib.DepthwiseVariantName(&o.w, o.conv)
		} else {
			variant = lib.Conv2DVariantName(&o.w, o.conv)
		}
	case o.k.pool != nil:
		err = o.k.pool(lib, &o.in, o.pool, &o.out)
		variant = lib.PoolVariantName(o.k.poolKind, o.pool)
	default:
		err = o.k.fc(lib, &o.in, &o.w, &o.bias, o.fc, &o.out)
		variant = c.Op
	}
	if err != nil {
		return nil, errors.Wrapf(err, "case %q", c.Name)
	}
	return &Result{Output: o.out, CRC: Checksum(&o.out), Variant: variant}, nil
}

// Check compares r against the checksum recorded in c. A case without a
// recorded checksum always passes.
func Check(c *Case, r *Result) error {
	if c.CRC != 0 && c.CRC != r.CRC {
		return errors.Wrapf(ErrMismatch, "case %q: got %08x, want %08x", c.Name, r.CRC, c.CRC)
	}
	if c.Variant != "" && c.Variant != r.Variant {
		return errors.Wrapf(ErrMismatch, "case %q: ran %s, recorded %s", c.Name, r.Variant, c.Variant)
	}
	return nil
}
