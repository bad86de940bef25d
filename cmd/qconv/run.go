package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qconv/internal/golden"
	"github.com/samcharles93/qconv/internal/logger"
	"github.com/samcharles93/qconv/internal/testvec"
	"github.com/samcharles93/qconv/pkg/mli"
)

// synthFlags binds the flags that describe a synthetic case.
func synthFlags(s *testvec.Synth, relu *string, dims *synthDims) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "op", Usage: "kernel (" + fmt.Sprint(testvec.Ops()) + ")", Value: "conv2d_sa8_sa8_sa32", Destination: &s.Op},
		&cli.Int64Flag{Name: "height", Usage: "input height", Value: 16, Destination: &dims.height},
		&cli.Int64Flag{Name: "width", Usage: "input width", Value: 16, Destination: &dims.width},
		&cli.Int64Flag{Name: "channels", Usage: "input channels", Value: 8, Destination: &dims.channels},
		&cli.Int64Flag{Name: "out-channels", Usage: "output channels (conv, fully connected)", Value: 8, Destination: &dims.outChannels},
		&cli.Int64Flag{Name: "kernel", Aliases: []string{"k"}, Usage: "square kernel size", Value: 3, Destination: &dims.kernel},
		&cli.Int64Flag{Name: "stride", Usage: "stride", Value: 1, Destination: &dims.stride},
		&cli.Int64Flag{Name: "pad", Usage: "padding on every side", Value: 1, Destination: &dims.pad},
		&cli.StringFlag{Name: "relu", Usage: "activation (none, relu, relu1, relu6)", Value: "none", Destination: relu},
		&cli.BoolFlag{Name: "per-axis", Usage: "per-output-channel sa8 weight scales", Destination: &s.PerAxis},
		&cli.Int64Flag{Name: "seed", Usage: "random seed", Value: 1, Destination: &dims.seed},
	}
}

type synthDims struct {
	height, width, channels, outChannels int64
	kernel, stride, pad, seed            int64
}

func (d synthDims) apply(s *testvec.Synth, relu string) error {
	r, err := mli.ParseRelu(relu)
	if err != nil {
		return err
	}
	s.Height, s.Width, s.Channels = int(d.height), int(d.width), int(d.channels)
	s.OutChannels, s.Kernel, s.Stride, s.Pad = int(d.outChannels), int(d.kernel), int(d.stride), int(d.pad)
	s.Seed = uint64(d.seed)
	s.Relu = r
	return nil
}

func runCmd() *cli.Command {
	var (
		file   string
		write  string
		record bool
		verify bool
		synth  testvec.Synth
		relu   string
		dims   synthDims
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "test-vector JSON file; without it a synthetic case is generated",
			Destination: &file,
		},
		&cli.StringFlag{
			Name:        "write",
			Aliases:     []string{"o"},
			Usage:       "write the cases with their checksums and variants to this file",
			Destination: &write,
		},
		&cli.BoolFlag{
			Name:        "record",
			Usage:       "record checksums in the golden store",
			Destination: &record,
		},
		&cli.BoolFlag{
			Name:        "verify",
			Usage:       "verify checksums against the golden store",
			Destination: &verify,
		},
	}
	flags = append(flags, synthFlags(&synth, &relu, &dims)...)

	return &cli.Command{
		Name:  "run",
		Usage: "Run test-vector cases and print their checksums",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if record && verify {
				return cli.Exit("error: --record and --verify are mutually exclusive", 1)
			}

			var cases *testvec.File
			if file != "" {
				f, err := testvec.Load(file)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				cases = f
			} else {
				if err := dims.apply(&synth, relu); err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				c, err := testvec.Synthesize(synth)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				cases = &testvec.File{Cases: []testvec.Case{*c}}
			}

			lib, err := newLibrary(log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			var store *golden.Store
			if record || verify {
				if goldenDir == "" {
					return cli.Exit("error: --record and --verify need --golden-dir", 1)
				}
				if store, err = golden.Open(goldenDir); err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				defer func() { _ = store.Close() }()
			}

			log.Info("running cases", "count", len(cases.Cases), "backend", lib.Backend())
			failed := runCases(os.Stdout, lib, store, cases, record, verify)
			if write != "" {
				if err := testvec.Save(write, cases); err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
			}
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("error: %d of %d cases failed", failed, len(cases.Cases)), 1)
			}
			return nil
		},
	}
}

// runCases runs every case, prints one line per case and stores the
// observed checksum and variant back into the case. It returns the number
// of failed cases.
func runCases(w io.Writer, lib *mli.Library, store *golden.Store, f *testvec.File, record, verify bool) int {
	failed := 0
	_, _ = fmt.Fprintf(w, "%-48s %-36s %-8s %s\n", "CASE", "VARIANT", "CRC", "STATUS")
	for i := range f.Cases {
		c := &f.Cases[i]
		res, err := testvec.Run(lib, c)
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(w, "%-48s %-36s %-8s %s\n", c.Name, "-", "-", errorStatus(err))
			continue
		}
		status := "ok"
		if err := testvec.Check(c, res); err != nil {
			status = "mismatch"
		}
		switch {
		case store != nil && record:
			err = store.Record(golden.Entry{Name: c.Name, CRC: res.CRC, Variant: res.Variant, Backend: lib.Backend()})
			if err == nil {
				status = "recorded"
			}
		case store != nil && verify:
			err = store.Verify(c.Name, res.CRC, res.Variant)
			if errors.Is(err, golden.ErrNotRecorded) {
				status = "not recorded"
				err = nil
			} else if errors.Is(err, golden.ErrMismatch) {
				status = "golden mismatch"
			}
		}
		if status == "mismatch" || status == "golden mismatch" || err != nil {
			failed++
		}
		if err != nil && !errors.Is(err, golden.ErrMismatch) {
			status = err.Error()
		}
		c.CRC, c.Variant = res.CRC, res.Variant
		_, _ = fmt.Fprintf(w, "%-48s %-36s %08x %s\n", c.Name, res.Variant, res.CRC, status)
	}
	return failed
}

func errorStatus(err error) string {
	if st := mli.StatusOf(err); st != mli.StatusNotSupported {
		return st.String()
	}
	return err.Error()
}
