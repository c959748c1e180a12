package internal

import "fmt"

// ParseError means a file contained no recognizable structure at all. It is
// fatal for that one file only; callers processing a batch skip the file and
// continue.
type ParseError struct {
	Source string // "guiding", "imaging"
	Path   string // file path, or "" when parsing raw text
	Err    error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse error [%s]: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StoreError represents errors accessing the analysis cache database.
type StoreError struct {
	Path string
	Op   string // "open", "query", "write"
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during report export.
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
