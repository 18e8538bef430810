package cli

import (
	"errors"
	"io/fs"

	"github.com/mesh-intelligence/sheetplan/internal/workbook"
	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError attaches an exit code to an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// sysErr marks err as an environment or storage failure (exit 2).
func sysErr(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitSysError, err: err}
}

// userErr marks err as a usage or input problem (exit 1).
func userErr(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitUserError, err: err}
}

// exitCode maps err to an exit code. Unmarked errors, including cobra's
// argument and flag errors, are user errors.
func exitCode(err error) int {
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return exitUserError
}

// userSentinels are the errors caused by bad input rather than by the
// environment.
var userSentinels = []error{
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrInvalidData,
	types.ErrInvalidName,
	types.ErrDuplicateName,
	types.ErrInvalidOperator,
	types.ErrInvalidLogic,
	types.ErrInvalidCoordinate,
	types.ErrInvalidRowRange,
	types.ErrInvalidCondition,
	types.ErrIndexOutOfRange,
	types.ErrInvalidTieBreak,
	types.ErrSettingNotFound,
	types.ErrFieldNotFound,
	types.ErrTableNotFound,
	types.ErrDuplicateColumn,
	types.ErrBackendEmpty,
	types.ErrBackendUnknown,
	types.ErrWorkersNegative,
	workbook.ErrFileTooLarge,
	workbook.ErrTooManyFiles,
	workbook.ErrUnsupportedFormat,
	workbook.ErrDuplicateTable,
	workbook.ErrTooManyTables,
	fs.ErrNotExist,
}

// classify marks err with an exit code unless it already carries one.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var e *exitError
	if errors.As(err, &e) {
		return err
	}
	for _, s := range userSentinels {
		if errors.Is(err, s) {
			return userErr(err)
		}
	}
	return sysErr(err)
}
