package mli

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// Status is the outcome class of a kernel call. Every non-OK Status is an
// error; entry points may wrap it with context, so compare with errors.Is
// or recover it with StatusOf.
type Status uint8

const (
	StatusOK Status = iota
	StatusBadTensor
	StatusShapeMismatch
	StatusBadFuncCfg
	StatusNotEnoughMem
	StatusNotSupported
	StatusSpecParamMismatch
	StatusTypeMismatch
	StatusIncompatibleTensors
	StatusMisalignment
)

var statusNames = [...]string{
	StatusOK:                  "ok",
	StatusBadTensor:           "bad tensor",
	StatusShapeMismatch:       "shape mismatch",
	StatusBadFuncCfg:          "bad function config",
	StatusNotEnoughMem:        "not enough memory",
	StatusNotSupported:        "not supported",
	StatusSpecParamMismatch:   "spec param mismatch",
	StatusTypeMismatch:        "type mismatch",
	StatusIncompatibleTensors: "incompatible tensors",
	StatusMisalignment:        "misalignment",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown status"
}

func (s Status) Error() string { return "mli: " + s.String() }

// StatusOf recovers the Status carried by err: StatusOK for nil and
// StatusNotSupported for errors that carry none.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return StatusNotSupported
}

func fail(s Status, format string, args ...any) error {
	return pkgerrors.Wrapf(s, format, args...)
}
