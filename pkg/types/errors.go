package types

import (
	"errors"
	"fmt"
)

// Engine errors. FieldNotFound aborts the owning rule or mapping;
// TypeMismatch is isolated to the offending row.
var (
	ErrFieldNotFound = errors.New("field not found")
	ErrTypeMismatch  = errors.New("type mismatch")
	ErrTableNotFound = errors.New("table not found")
)

// Construction and validation errors.
var (
	ErrInvalidName       = errors.New("invalid name")
	ErrDuplicateName     = errors.New("duplicate name")
	ErrInvalidOperator   = errors.New("invalid operator")
	ErrInvalidLogic      = errors.New("invalid logic operator")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidRowRange   = errors.New("invalid row range")
	ErrInvalidCondition  = errors.New("invalid condition")
	ErrDuplicateColumn   = errors.New("duplicate column name")
	ErrRowWidth          = errors.New("row width does not match column count")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrInvalidTieBreak   = errors.New("invalid tie-break policy")
)

// Repository errors.
var (
	ErrNotFound        = errors.New("plan not found")
	ErrInvalidID       = errors.New("invalid plan ID")
	ErrInvalidData     = errors.New("invalid data")
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrSettingNotFound = errors.New("setting not found")
)

// Unit kinds for UnitError.
const (
	UnitRule    = "rule"
	UnitMapping = "mapping"
)

// UnitError attributes an error to one rule or mapping of a plan.
type UnitError struct {
	Unit string // UnitRule or UnitMapping
	Name string
	Err  error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Unit, e.Name, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }
