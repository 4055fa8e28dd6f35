package store

import (
	"errors"

	"github.com/kaykim0310/wmsd-report/internal/survey/schema"
)

var (
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	ErrUnknownTable      = errors.New("unknown table")
	ErrRowNotFound       = errors.New("row not found")
	ErrScopeNotFound     = errors.New("table scope not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrDuplicateTask     = errors.New("task name already in use")
	ErrFixedRows         = errors.New("table has a fixed set of rows")
	ErrImageNotFound     = errors.New("image not found")

	ErrUnknownColumn  = schema.ErrUnknownColumn
	ErrReadOnlyColumn = schema.ErrReadOnlyColumn
	ErrInvalidValue   = schema.ErrInvalidValue
)
