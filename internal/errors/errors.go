package errors

import (
	stderrors "errors"
	"fmt"
)

type Kind string

const (
	InvalidConfig  Kind = "invalid_config"
	NotFound       Kind = "not_found"
	UnknownPreset  Kind = "unknown_preset"
	ExifFailure    Kind = "exif_failure"
	IOFailure      Kind = "io_failure"
	PartialFailure Kind = "partial_failure"
	Internal       Kind = "internal"
)

type AppError struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *AppError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Kind: kind,
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// KindOf reports the kind of the outermost AppError in err's chain.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if KindOf(err) == PartialFailure {
		return 2
	}
	return 1
}

func UserMessage(err error) string {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return err.Error()
	}
	switch appErr.Kind {
	case InvalidConfig:
		return fmt.Sprintf("Invalid configuration: %v", appErr.Err)
	case NotFound:
		return fmt.Sprintf("Path not found: %s", appErr.Path)
	case UnknownPreset:
		return fmt.Sprintf("Unknown preset: %v", appErr.Err)
	case ExifFailure:
		return fmt.Sprintf("EXIF read failed: %s", appErr.Path)
	case IOFailure:
		return fmt.Sprintf("I/O error: %s", appErr.Path)
	case PartialFailure:
		return fmt.Sprintf("Some photos failed: %v", appErr.Err)
	default:
		return fmt.Sprintf("Unexpected error: %v", appErr.Err)
	}
}
