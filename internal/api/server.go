// Package api serves the kernels over HTTP: backend inventory, variant
// dispatch queries and test-vector runs.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/qconv/internal/backend"
	"github.com/samcharles93/qconv/internal/dotprod"
	"github.com/samcharles93/qconv/internal/engine"
	"github.com/samcharles93/qconv/internal/golden"
	"github.com/samcharles93/qconv/internal/kernels"
	"github.com/samcharles93/qconv/internal/logger"
	"github.com/samcharles93/qconv/internal/testvec"
	"github.com/samcharles93/qconv/pkg/mli"
)

type Config struct {
	Library *mli.Library
	// Golden, when set, lets runs record and verify checksums.
	Golden *golden.Store
	Runs   *RunStore
	Logger logger.Logger
}

type Server struct {
	lib    *mli.Library
	golden *golden.Store
	runs   *RunStore
	log    logger.Logger
	clock  func() time.Time
}

func NewServer(cfg Config) *Server {
	s := &Server{
		lib:    cfg.Library,
		golden: cfg.Golden,
		runs:   cfg.Runs,
		log:    cfg.Logger,
		clock:  time.Now,
	}
	if s.lib == nil {
		s.lib = mli.Default()
	}
	if s.runs == nil {
		s.runs = NewRunStore(DefaultRunCapacity)
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	return s
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/backends", s.handleBackends)
	e.GET("/v1/dispatch", s.handleDispatch)
	e.POST("/v1/kernels/:op", s.handleRunKernel)
	e.GET("/v1/runs/:id", s.handleGetRun)
	e.DELETE("/v1/runs/:id", s.handleDeleteRun)
}

func (s *Server) handleBackends(c *echo.Context) error {
	names := make([]string, 0, len(dotprod.Kinds))
	for _, k := range dotprod.Kinds {
		names = append(names, k.String())
	}
	return c.JSON(http.StatusOK, BackendsResponse{
		Object:    "list",
		Available: names,
		Detected:  backend.Detect().String(),
		Active:    s.lib.Backend(),
		Rounding:  s.lib.Rounding().String(),
	})
}

func (s *Server) handleDispatch(c *echo.Context) error {
	op := c.QueryParam("op")
	shape, err := dispatchShape(c)
	if err != nil {
		return writeBadRequest(c, err)
	}
	var v kernels.Variant
	name := ""
	switch op {
	case "conv2d", "":
		op = "conv2d"
		v = kernels.SelectConv2D(shape)
		name = v.String()
	case "depthwise_conv2d":
		v = kernels.SelectDepthwise(shape)
		name = v.String()
	case "maxpool":
		v = kernels.SelectPool(shape)
		name = kernels.PoolName(engine.PoolMax, shape)
	case "avepool":
		v = kernels.SelectPool(shape)
		name = kernels.PoolName(engine.PoolAvg, shape)
	default:
		return writeBadRequest(c, badParam("op", "unknown op %q", op))
	}
	return c.JSON(http.StatusOK, DispatchResponse{
		Object:  "dispatch",
		Op:      op,
		Kernel:  fmt.Sprintf("%dx%d", shape.KernelW, shape.KernelH),
		Variant: name,
		Loop:    v.Pad().String(),
		Generic: v.Generic(),
	})
}

func dispatchShape(c *echo.Context) (kernels.Shape, error) {
	var s kernels.Shape
	fields := []struct {
		name string
		dst  *int
	}{
		{"kw", &s.KernelW},
		{"kh", &s.KernelH},
		{"pad_left", &s.PadLeft},
		{"pad_right", &s.PadRight},
		{"pad_top", &s.PadTop},
		{"pad_bottom", &s.PadBottom},
	}
	for _, f := range fields {
		v, err := queryInt(c, f.name, 0)
		if err != nil {
			return s, err
		}
		*f.dst = v
	}
	if s.KernelW < 1 || s.KernelH < 1 {
		return s, badParam("kw", "kw and kh must be at least 1")
	}
	return s, nil
}

// handleRunKernel runs the test-vector case in the body. The op in the path
// wins over the case's own. ?record=true stores the checksum in the golden
// store, ?verify=true checks against it.
func (s *Server) handleRunKernel(c *echo.Context) error {
	op := c.Param("op")
	tc, err := decodeJSON[testvec.Case](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err)
	}
	if tc.Op != "" && tc.Op != op {
		return writeBadRequest(c, badParam("op", "path op %s, body op %s", op, tc.Op))
	}
	tc.Op = op
	if tc.Name == "" {
		tc.Name = op
	}
	record, verify := queryBool(c, "record"), queryBool(c, "verify")
	if (record || verify) && s.golden == nil {
		return writeBadRequest(c, badParam("record", "no golden store configured"))
	}

	res, err := testvec.Run(s.lib, &tc)
	if err != nil {
		if errors.Is(err, testvec.ErrInvalidCase) {
			return writeInvalidCase(c, err)
		}
		return writeKernelError(c, err)
	}

	run := &RunResponse{
		ID:        newRunID(),
		Object:    "kernel.run",
		CreatedAt: s.clock().Unix(),
		Case:      tc.Name,
		Op:        op,
		Backend:   s.lib.Backend(),
		Variant:   res.Variant,
		CRC:       fmt.Sprintf("%08x", res.CRC),
	}
	if !queryBool(c, "omit_output") {
		out := testvec.Spec(&res.Output)
		run.Output = &out
	}

	switch {
	case verify:
		err := s.golden.Verify(tc.Name, res.CRC, res.Variant)
		switch {
		case err == nil:
			run.Golden = "match"
		case errors.Is(err, golden.ErrNotRecorded):
			return writeNotFound(c, err.Error())
		default:
			run.Golden = "mismatch"
		}
	case record:
		entry := golden.Entry{Name: tc.Name, CRC: res.CRC, Variant: res.Variant, Backend: s.lib.Backend()}
		if err := s.golden.Record(entry); err != nil {
			return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
		}
		run.Golden = "recorded"
	}

	s.runs.Put(run)
	s.log.Debug("kernel run", "id", run.ID, "op", op, "variant", run.Variant, "crc", run.CRC)
	return c.JSON(http.StatusOK, run)
}

func (s *Server) handleGetRun(c *echo.Context) error {
	id := c.Param("id")
	run, ok := s.runs.Get(id)
	if !ok {
		return writeNotFound(c, "run not found")
	}
	return c.JSON(http.StatusOK, run)
}

func (s *Server) handleDeleteRun(c *echo.Context) error {
	id := c.Param("id")
	if !s.runs.Delete(id) {
		return writeNotFound(c, "run not found")
	}
	return c.JSON(http.StatusOK, DeleteRunResp{ID: id, Object: "kernel.run.deleted", Deleted: true})
}
