package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qconv/internal/api"
	"github.com/samcharles93/qconv/internal/golden"
	"github.com/samcharles93/qconv/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		keepRuns    int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the kernel REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "keep-runs",
				Usage:       "number of recent runs kept for GET /v1/runs/:id",
				Value:       api.DefaultRunCapacity,
				Destination: &keepRuns,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, activeConfig(), &addr)

			lib, err := newLibrary(log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			cfg := api.Config{Library: lib, Runs: api.NewRunStore(int(keepRuns)), Logger: log}
			if goldenDir != "" {
				store, err := golden.Open(goldenDir)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				defer func() { _ = store.Close() }()
				cfg.Golden = store
			}

			server := api.NewServer(cfg)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "backend", lib.Backend(), "golden", goldenDir != "")
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
