package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/qconv/pkg/mli"
)

func writeBadRequest(c *echo.Context, err error) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), paramOf(err), "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

// writeKernelError reports a failed kernel call. Validation failures are
// the caller's fault and map to 422 with the status name as code.
func writeKernelError(c *echo.Context, err error) error {
	st := mli.StatusOf(err)
	code := http.StatusUnprocessableEntity
	if st == mli.StatusNotSupported {
		code = http.StatusBadRequest
	}
	return writeError(c, code, "kernel_error", err.Error(), "", st.String())
}

// writeInvalidCase reports a case rejected before its kernel ran. Rejections
// by the kernel's validation hook carry the status name as code.
func writeInvalidCase(c *echo.Context, err error) error {
	code := ""
	var st mli.Status
	if errors.As(err, &st) {
		code = st.String()
	}
	return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "", code)
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, badParam("", "decode body: %v", err)
	}
	return out, nil
}

// queryInt reads a non-negative integer query parameter, def when absent.
func queryInt(c *echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, badParam(name, "%s must be a non-negative integer, got %q", name, raw)
	}
	return v, nil
}

func queryBool(c *echo.Context, name string) bool {
	v, _ := strconv.ParseBool(c.QueryParam(name))
	return v
}

func newRunID() string {
	return "run_" + uuid.NewString()
}
