package loader

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Load error codes (E200-E209)
const (
	ErrCodeNotFound  = "E200" // content root missing
	ErrCodeRead      = "E201" // directory or file unreadable
	ErrCodeDecode    = "E202" // document is not valid YAML
	ErrCodeSchema    = "E203" // document violates the event schema
	ErrCodeDuplicate = "E204" // event id already loaded
)

// LoadError describes a file or directory that was skipped.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Path, e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
}

// IsLoadError reports whether err wraps a *LoadError with the given code.
// An empty code matches any LoadError.
func IsLoadError(err error, code string) bool {
	var le *LoadError
	if !errors.As(err, &le) {
		return false
	}
	return code == "" || le.Code == code
}

// cueError converts a CUE error into a LoadError, keeping the position of
// the first reported problem.
func cueError(code, path string, err error) *LoadError {
	le := &LoadError{Code: code, Path: path, Message: err.Error()}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return le
	}
	first := errs[0]
	le.Message = first.Error()
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
