package fileio

import "fmt"

// FileNotFoundError is returned by read_file/write_file when the
// target path does not exist inside the container (read) or its
// parent cannot be created (write).
type FileNotFoundError struct {
	Path  string
	Cause error
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s: %v", e.Path, e.Cause)
}

func (e *FileNotFoundError) Unwrap() error { return e.Cause }

// DocstringExtractionFailedError is returned when the in-container
// Python introspection used by read_docstring cannot load the module.
type DocstringExtractionFailedError struct {
	Path         string
	FunctionName string
	Cause        error
}

func (e *DocstringExtractionFailedError) Error() string {
	return fmt.Sprintf("docstring extraction failed for %s in %s: %v", e.FunctionName, e.Path, e.Cause)
}

func (e *DocstringExtractionFailedError) Unwrap() error { return e.Cause }

// ArtifactNotFoundError is returned by get_artifact when the named
// file does not exist in /artifacts.
type ArtifactNotFoundError struct {
	Name string
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("artifact not found: %s", e.Name)
}

// PathViolationError is returned when an artifact name contains a path
// separator or begins with a dot.
type PathViolationError struct {
	Name string
}

func (e *PathViolationError) Error() string {
	return fmt.Sprintf("invalid artifact name: %q", e.Name)
}

// ArtifactTooLargeError is returned when an artifact exceeds the
// configured size limit. The transfer is rejected before any bytes are
// read from the container.
type ArtifactTooLargeError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e *ArtifactTooLargeError) Error() string {
	return fmt.Sprintf("artifact %q is %d bytes, exceeds limit of %d", e.Name, e.Size, e.Limit)
}
