package analysis

import (
	"errors"
	"fmt"
)

// Error categories reported in Result.ErrorType. Input problems (missing
// or malformed source material) are distinguished from processing
// failures so callers can decide whether a retry is worthwhile.
const (
	ErrorTypeVideo      = "VideoError"
	ErrorTypeProcessing = "ProcessingError"
	ErrorTypeCanceled   = "Canceled"
)

// categoryError tags an error chain with a Result error category.
type categoryError struct {
	category string
	err      error
}

func (e *categoryError) Error() string { return e.err.Error() }
func (e *categoryError) Unwrap() error { return e.err }

func videoErrorf(format string, args ...any) error {
	return &categoryError{category: ErrorTypeVideo, err: fmt.Errorf(format, args...)}
}

func processingErrorf(format string, args ...any) error {
	return &categoryError{category: ErrorTypeProcessing, err: fmt.Errorf(format, args...)}
}

// classify maps an error to its Result category. Uncategorised errors
// count as processing failures.
func classify(err error) string {
	var ce *categoryError
	if errors.As(err, &ce) {
		return ce.category
	}
	if errors.Is(err, errCanceled) {
		return ErrorTypeCanceled
	}
	return ErrorTypeProcessing
}

var errCanceled = errors.New("analysis canceled")
