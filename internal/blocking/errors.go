package blocking

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers used to classify pass-level failures. Configuration and
// not-found conditions are absorbed at the pass boundary (the pass is skipped
// with a diagnostic); anything else aborts the run.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes pass context while tagging it
// with the provided marker for later classification.
func Wrap(marker error, pass, operation, message string, err error) error {
	detail := buildDetail(pass, operation, message)
	if marker == nil {
		return fmt.Errorf("%s: %w", detail, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Recoverable reports whether an error may be absorbed as a pass skip.
func Recoverable(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrNotFound)
}

func buildDetail(pass, operation, message string) string {
	parts := make([]string, 0, 3)
	if pass = strings.TrimSpace(pass); pass != "" {
		parts = append(parts, pass)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "blocking failure"
	}
	return strings.Join(parts, ": ")
}
