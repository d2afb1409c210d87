package artifact

import "fmt"

// PatternError wraps a syntactically invalid glob pattern.
type PatternError struct {
	Pattern Pattern
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// PatternUnmatchedError indicates a pattern matched zero files in a context
// where at least one match is required (inputs of a step about to run).
type PatternUnmatchedError struct {
	Pattern Pattern
}

func (e *PatternUnmatchedError) Error() string {
	return fmt.Sprintf("pattern %q matched no files", e.Pattern)
}

// UnreadableError indicates a matched file could not be opened or read,
// usually due to permissions. Build-fatal for the owning step.
type UnreadableError struct {
	Path string
	Err  error
}

func (e *UnreadableError) Error() string {
	return fmt.Sprintf("artifact %q unreadable: %v", e.Path, e.Err)
}

func (e *UnreadableError) Unwrap() error { return e.Err }
