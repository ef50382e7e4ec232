package archive

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLoadFailed wraps every failure to read or decode a directory file.
	ErrLoadFailed = errors.New("failed to load archive")

	// ErrUnsafePath is returned for tree paths that would be written outside
	// the extraction root.
	ErrUnsafePath = errors.New("path escapes extraction root")

	// ErrNotDirectory is returned when an archive source root is not a
	// directory.
	ErrNotDirectory = errors.New("source is not a directory")
)

// ExtractError collects the destination files that could not be written
// during an extraction.
type ExtractError struct {
	Failed []string
	Errs   []error
}

func (e *ExtractError) add(dest string, err error) {
	e.Failed = append(e.Failed, dest)
	e.Errs = append(e.Errs, fmt.Errorf("%s: %w", dest, err))
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("failed to write %d files: %s", len(e.Failed), strings.Join(e.Failed, ", "))
}

func (e *ExtractError) Unwrap() []error {
	return e.Errs
}
