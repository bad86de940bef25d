package backend

import (
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/samcharles93/qconv/internal/dotprod"
)

type features struct {
	arch  string
	avx2  bool
	asimd bool
}

func cpuFeatures() features {
	return features{
		arch:  runtime.GOARCH,
		avx2:  cpu.X86.HasAVX2,
		asimd: cpu.ARM64.HasASIMD,
	}
}

// pick maps CPU features to a backend: wide vector units get the 4-lane
// kernels, other 64-bit x86 parts the 2-lane ones.
func pick(f features) dotprod.Kind {
	switch {
	case f.avx2, f.asimd:
		return dotprod.Vector
	case f.arch == "amd64":
		return dotprod.DSP
	default:
		return dotprod.Reference
	}
}

// Report describes the host as backend detection sees it.
type Report struct {
	GoVersion string          `json:"go_version"`
	GoOS      string          `json:"go_os"`
	GoArch    string          `json:"go_arch"`
	CPUs      int             `json:"cpus"`
	Features  map[string]bool `json:"features"`
	Detected  string          `json:"detected"`
	Available string          `json:"available"`
}

// Describe reports the CPU features relevant to backend selection.
func Describe() Report {
	return Report{
		GoVersion: runtime.Version(),
		GoOS:      runtime.GOOS,
		GoArch:    runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		Features: map[string]bool{
			"SSE41":      cpu.X86.HasSSE41,
			"AVX":        cpu.X86.HasAVX,
			"AVX2":       cpu.X86.HasAVX2,
			"FMA":        cpu.X86.HasFMA,
			"AVX512F":    cpu.X86.HasAVX512F,
			"AVX512VNNI": cpu.X86.HasAVX512VNNI,
			"ASIMD":      cpu.ARM64.HasASIMD,
			"ASIMDDP":    cpu.ARM64.HasASIMDDP,
		},
		Detected:  Detect().String(),
		Available: Available(),
	}
}
