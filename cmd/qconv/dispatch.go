package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qconv/internal/engine"
	"github.com/samcharles93/qconv/internal/kernels"
)

func dispatchCmd() *cli.Command {
	var (
		op                       string
		kw, kh                   int64
		left, right, top, bottom int64
		sweep                    bool
	)

	return &cli.Command{
		Name:  "dispatch",
		Usage: "Print the kernel variant a shape dispatches to",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "op", Usage: "conv2d, depthwise_conv2d, maxpool or avepool", Value: "conv2d", Destination: &op},
			&cli.Int64Flag{Name: "kw", Usage: "kernel width", Value: 3, Destination: &kw},
			&cli.Int64Flag{Name: "kh", Usage: "kernel height", Value: 3, Destination: &kh},
			&cli.Int64Flag{Name: "pad-left", Destination: &left},
			&cli.Int64Flag{Name: "pad-right", Destination: &right},
			&cli.Int64Flag{Name: "pad-top", Destination: &top},
			&cli.Int64Flag{Name: "pad-bottom", Destination: &bottom},
			&cli.BoolFlag{
				Name:        "sweep",
				Usage:       "print the padding boundary table of every square kernel instead",
				Destination: &sweep,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name, ok := variantNamer(op)
			if !ok {
				return cli.Exit(fmt.Sprintf("error: unknown op %q", op), 1)
			}
			if sweep {
				printSweep(os.Stdout, op, name)
				return nil
			}
			s := kernels.Shape{
				KernelW: int(kw), KernelH: int(kh),
				PadLeft: int(left), PadRight: int(right),
				PadTop: int(top), PadBottom: int(bottom),
			}
			fmt.Println(name(s))
			return nil
		},
	}
}

func variantNamer(op string) (func(kernels.Shape) string, bool) {
	switch op {
	case "conv2d":
		return kernels.Conv2DName, true
	case "depthwise_conv2d":
		return kernels.DepthwiseName, true
	case "maxpool":
		return func(s kernels.Shape) string { return kernels.PoolName(engine.PoolMax, s) }, true
	case "avepool":
		return func(s kernels.Shape) string { return kernels.PoolName(engine.PoolAvg, s) }, true
	default:
		return nil, false
	}
}

// printSweep prints, for square kernels 1..10, the variant at the widest
// accepted padding and one step past it on each side.
func printSweep(w io.Writer, op string, name func(kernels.Shape) string) {
	_, _ = fmt.Fprintf(w, "%s padding bounds (top/left <= before, bottom/right <= after)\n", op)
	_, _ = fmt.Fprintf(w, "%-6s %-8s %-32s %-32s %-32s\n", "KERNEL", "BOUNDS", "NOPAD", "AT BOUND", "PAST BOUND")
	for k := 10; k >= 1; k-- {
		before, after := kernels.PadBounds(k)
		at := kernels.Shape{KernelW: k, KernelH: k, PadLeft: before, PadRight: after, PadTop: before, PadBottom: after}
		past := at
		past.PadTop++
		_, _ = fmt.Fprintf(w, "%-6s %-8s %-32s %-32s %-32s\n",
			fmt.Sprintf("%dx%d", k, k),
			fmt.Sprintf("<=%d/%d", before, after),
			name(kernels.Shape{KernelW: k, KernelH: k}),
			name(at),
			name(past),
		)
	}
}
