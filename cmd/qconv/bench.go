package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qconv/internal/dotprod"
	"github.com/samcharles93/qconv/internal/logger"
	"github.com/samcharles93/qconv/internal/testvec"
	"github.com/samcharles93/qconv/pkg/mli"
)

type benchResult struct {
	Backend string
	Lanes   int
	Variant string
	CRC     uint32
	PerOp   time.Duration
	MACs    int64
}

func benchCmd() *cli.Command {
	var (
		warmupRuns int64
		benchRuns  int64
		synth      testvec.Synth
		relu       string
		dims       synthDims
	)

	flags := []cli.Flag{
		&cli.Int64Flag{
			Name:        "warmup",
			Usage:       "number of warmup runs per backend",
			Value:       3,
			Destination: &warmupRuns,
		},
		&cli.Int64Flag{
			Name:        "runs",
			Usage:       "number of timed runs per backend",
			Value:       50,
			Destination: &benchRuns,
		},
	}
	flags = append(flags, synthFlags(&synth, &relu, &dims)...)

	return &cli.Command{
		Name:  "bench",
		Usage: "Time a synthetic case on every backend",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if err := dims.apply(&synth, relu); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			c, err := testvec.Synthesize(synth)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			r, err := mli.ParseRounding(rounding)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			runID := uuid.NewString()
			log.Info("benchmark", "run_id", runID, "case", c.Name)
			fmt.Println("=== qconv Benchmark ===")
			fmt.Printf("Run:        %s\n", runID)
			fmt.Printf("Case:       %s\n", c.Name)
			fmt.Printf("CPUs:       %d\n", runtime.NumCPU())
			fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
			fmt.Printf("Warmup:     %d runs\n", warmupRuns)
			fmt.Printf("Runs:       %d\n", benchRuns)
			fmt.Println()

			results := make([]benchResult, 0, len(dotprod.Kinds))
			for _, k := range dotprod.Kinds {
				lib, err := mli.New(mli.Options{Backend: k.String(), Rounding: r})
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				res, err := benchOne(ctx, lib, c, int(warmupRuns), int(benchRuns))
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %s: %v", k, err), 1)
				}
				res.Lanes = k.Lanes()
				log.Debug("backend timed", "backend", k.String(), "per_op", res.PerOp)
				results = append(results, res)
			}
			printBench(os.Stdout, results)

			for _, res := range results[1:] {
				if res.CRC != results[0].CRC {
					return cli.Exit(fmt.Sprintf("error: backend %s disagrees with %s", res.Backend, results[0].Backend), 1)
				}
			}
			return nil
		},
	}
}

func benchOne(ctx context.Context, lib *mli.Library, c *testvec.Case, warmup, runs int) (benchResult, error) {
	var (
		res *testvec.Result
		err error
	)
	for range max(warmup, 1) {
		if res, err = testvec.Run(lib, c); err != nil {
			return benchResult{}, err
		}
	}
	runs = max(runs, 1)
	start := time.Now()
	for range runs {
		if err := ctx.Err(); err != nil {
			return benchResult{}, err
		}
		if _, err := testvec.Run(lib, c); err != nil {
			return benchResult{}, err
		}
	}
	return benchResult{
		Backend: lib.Backend(),
		Variant: res.Variant,
		CRC:     res.CRC,
		PerOp:   time.Since(start) / time.Duration(runs),
		MACs:    macs(c, &res.Output),
	}, nil
}

// macs counts the multiply-accumulates, or window taps for pooling, of one
// run of c.
func macs(c *testvec.Case, out *mli.Tensor) int64 {
	n := int64(out.Elements())
	switch {
	case c.Pool != nil:
		return n * int64(c.Pool.KernelWidth*c.Pool.KernelHeight)
	case c.Weights != nil && len(c.Weights.Shape) == 4:
		w := c.Weights.Shape
		return n * int64(w[0]*w[1]*w[2])
	case c.Weights != nil && len(c.Weights.Shape) == 2:
		return n * int64(c.Weights.Shape[0])
	}
	return n
}

func printBench(w io.Writer, results []benchResult) {
	_, _ = fmt.Fprintln(w, "=== Results ===")
	_, _ = fmt.Fprintf(w, "%-8s %5s %-32s %14s %16s %s\n", "Backend", "Lanes", "Variant", "ns/op", "throughput", "crc")
	for _, r := range results {
		rate := 0.0
		if r.PerOp > 0 {
			rate = float64(r.MACs) / r.PerOp.Seconds()
		}
		_, _ = fmt.Fprintf(w, "%-8s %5d %-32s %14s %16s %08x\n",
			r.Backend, r.Lanes, r.Variant,
			humanize.Comma(r.PerOp.Nanoseconds()),
			humanize.SIWithDigits(rate, 2, "MAC/s"),
			r.CRC)
	}
}
