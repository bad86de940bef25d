package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qconv/internal/backend"
	"github.com/samcharles93/qconv/internal/version"
)

func versionCmd() *cli.Command {
	var features bool

	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "features",
				Usage:       "print the CPU features and backend selection as JSON",
				Destination: &features,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if features {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(backend.Describe()); err != nil {
					return cli.Exit(fmt.Sprintf("error: encode: %v", err), 1)
				}
				return nil
			}
			info := version.Resolve()
			fmt.Printf("version:    %s\n", info.Version)
			if info.Commit != "" {
				fmt.Printf("commit:     %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				fmt.Printf("build time: %s\n", info.BuildTime)
			}
			fmt.Printf("backends:   %s\n", backend.Available())
			return nil
		},
	}
}
