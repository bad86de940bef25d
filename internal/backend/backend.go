// Package backend picks the dot-product backend a kernel library runs on.
package backend

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/samcharles93/qconv/internal/dotprod"
)

const (
	Ref  = "ref"
	DSP  = "dsp"
	VDSP = "vdsp"
	Auto = "auto"
)

const (
	// EnvBackend overrides detection with one of ref, dsp, vdsp or auto.
	EnvBackend = "QCONV_BACKEND"
	// EnvNoSIMD forces the reference backend when set to a true value.
	EnvNoSIMD = "QCONV_NO_SIMD"
)

func Normalize(name string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(name))
	if backend == "" {
		return Auto, nil
	}
	switch backend {
	case Ref, DSP, VDSP, Auto:
		return backend, nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected auto, ref, dsp, or vdsp)", backend)
	}
}

// Resolve maps a backend name to a dot-product kind. Auto resolves through
// the environment and CPU detection.
func Resolve(name string) (dotprod.Kind, error) {
	backend, err := Normalize(name)
	if err != nil {
		return dotprod.Reference, err
	}
	if backend == Auto {
		return FromEnv(), nil
	}
	return dotprod.ParseKind(backend)
}

var (
	detectOnce sync.Once
	detected   dotprod.Kind
)

// Detect returns the widest backend the CPU supports. Detection runs once.
func Detect() dotprod.Kind {
	detectOnce.Do(func() {
		detected = pick(cpuFeatures())
	})
	return detected
}

// FromEnv applies EnvNoSIMD and EnvBackend on top of Detect.
func FromEnv() dotprod.Kind {
	if NoSIMDEnv() {
		return dotprod.Reference
	}
	if v := os.Getenv(EnvBackend); v != "" {
		if backend, err := Normalize(v); err == nil && backend != Auto {
			if kind, err := dotprod.ParseKind(backend); err == nil {
				return kind
			}
		}
	}
	return Detect()
}

// NoSIMDEnv reports whether EnvNoSIMD is set. Any non-empty value that does
// not parse as false counts.
func NoSIMDEnv() bool {
	val := os.Getenv(EnvNoSIMD)
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}
