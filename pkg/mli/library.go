package mli

import (
	"log/slog"
	"sync"

	"github.com/samcharles93/qconv/internal/backend"
	"github.com/samcharles93/qconv/internal/dotprod"
	"github.com/samcharles93/qconv/internal/logger"
	"github.com/samcharles93/qconv/internal/qmath"
)

// Rounding selects how requantization resolves ties.
type Rounding uint8

const (
	// RoundUp rounds half toward +inf.
	RoundUp Rounding = Rounding(qmath.RoundUp)
	// RoundConvergent rounds half to even.
	RoundConvergent Rounding = Rounding(qmath.RoundConvergent)
)

func (r Rounding) String() string { return qmath.Rounding(r).String() }

// ParseRounding accepts "up", "convergent" and "even".
func ParseRounding(s string) (Rounding, error) {
	r, err := qmath.ParseRounding(s)
	return Rounding(r), err
}

// Options configures a Library.
type Options struct {
	// Backend is one of auto, ref, dsp or vdsp. Empty means auto.
	Backend string
	// Rounding is the requantization tie-break policy.
	Rounding Rounding
	// Logger receives the chosen kernel variant of every call at debug
	// level. Nil discards.
	Logger *slog.Logger
}

// Library holds the process-wide choices of the kernels: backend and
// rounding. A Library is immutable and safe for concurrent use.
type Library struct {
	kind     dotprod.Kind
	rounding qmath.Rounding
	log      logger.Logger
}

// New resolves opts into a Library.
func New(opts Options) (*Library, error) {
	kind, err := backend.Resolve(opts.Backend)
	if err != nil {
		return nil, fail(StatusNotSupported, "%v", err)
	}
	return &Library{
		kind:     kind,
		rounding: qmath.Rounding(opts.Rounding),
		log:      logger.FromSlog(opts.Logger),
	}, nil
}

var (
	defaultOnce sync.Once
	defaultLib  *Library
)

// Default returns the Library used by the package-level functions: backend
// from the environment and CPU detection, round-up requantization.
func Default() *Library {
	defaultOnce.Do(func() {
		defaultLib = &Library{
			kind:     backend.FromEnv(),
			rounding: qmath.RoundUp,
			log:      logger.Discard(),
		}
	})
	return defaultLib
}

// Backend is the name of the dot-product backend in use.
func (l *Library) Backend() string { return l.kind.String() }

// Rounding is the requantization policy in use.
func (l *Library) Rounding() Rounding { return Rounding(l.rounding) }

func (l *Library) traced(kernel, variant string) {
	l.log.Debug("kernel variant", "kernel", kernel, "variant", variant, "backend", l.kind.String())
}
