package main

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qconv/internal/logger"
	"github.com/samcharles93/qconv/pkg/mli"
)

var (
	backendName string
	rounding    string
	goldenDir   string
	configFile  string
	logLevel    string
	logFormat   string
	debug       bool
	noColor     bool
)

func libraryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "dot-product backend (auto, ref, dsp, vdsp)",
			Value:       "auto",
			Sources:     cli.EnvVars("QCONV_BACKEND"),
			Destination: &backendName,
		},
		&cli.StringFlag{
			Name:        "rounding",
			Usage:       "requantization rounding (up, convergent)",
			Value:       "up",
			Destination: &rounding,
		},
		&cli.StringFlag{
			Name:        "golden-dir",
			Usage:       "directory of the golden checksum store",
			Destination: &goldenDir,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "config file (default $XDG_CONFIG_HOME/qconv/config.yaml)",
			Destination: &configFile,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "disable ANSI colors in pretty logs",
			Destination: &noColor,
		},
	}
}

// setup applies the config file under the flags and puts the logger in ctx.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := configFile
	if path == "" {
		path = configPath()
	}
	applyRootConfig(cmd, LoadConfig(path))
	log, err := newLogger()
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx, log), nil
}

func newLogger() (logger.Logger, error) {
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	return logger.Open(logger.Options{
		Format:  logger.Format(logFormat),
		Level:   level,
		NoColor: noColor,
	})
}

// newLibrary builds the kernel library from the global flags.
func newLibrary(log logger.Logger) (*mli.Library, error) {
	r, err := mli.ParseRounding(rounding)
	if err != nil {
		return nil, err
	}
	return mli.New(mli.Options{
		Backend:  backendName,
		Rounding: r,
		Logger:   logger.ToSlog(log),
	})
}
