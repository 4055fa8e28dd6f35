package export

import (
	"errors"
	"fmt"
)

var (
	// ErrExportPartialFailure marks a table that was skipped.
	ErrExportPartialFailure = errors.New("export partial failure")
	// ErrRenderingResourceUnavailable marks a missing font or similar
	// resource that was replaced by a fallback.
	ErrRenderingResourceUnavailable = errors.New("rendering resource unavailable")
)

// Warning 내보내기 중 건너뛴 표 또는 대체된 자원
type Warning struct {
	Table string
	Err   error
}

func (w Warning) Error() string {
	if w.Table == "" {
		return w.Err.Error()
	}
	return fmt.Sprintf("%s: %v", w.Table, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

// Result 내보내기 결과
type Result struct {
	Data     []byte
	MIME     string
	Sheets   []string
	Warnings []Warning
}

// Err joins the warnings; nil when the export was complete.
func (r *Result) Err() error {
	if len(r.Warnings) == 0 {
		return nil
	}
	errs := make([]error, len(r.Warnings))
	for i, w := range r.Warnings {
		errs[i] = w
	}
	return errors.Join(errs...)
}

// Messages 경고 메시지 목록
func (r *Result) Messages() []string {
	out := make([]string, len(r.Warnings))
	for i, w := range r.Warnings {
		out[i] = w.Error()
	}
	return out
}

func skipped(table string, err error) Warning {
	return Warning{Table: table, Err: fmt.Errorf("%w: %w", ErrExportPartialFailure, err)}
}
