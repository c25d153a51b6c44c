package parser

import (
	"fmt"
	"strings"
)

// ParseError locates a syntax error in a string module.
type ParseError struct {
	Message string
	File    string
	Line    uint32
	Column  uint32
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// UnsupportedLanguageError is returned for a language or file extension no
// grammar is registered for. File is the module path relative to the source
// root when the error came from a file name.
type UnsupportedLanguageError struct {
	Language string
	File     string
}

func (e *UnsupportedLanguageError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: unsupported extension %q (want one of %s)",
			e.File, e.Language, strings.Join(SupportedExtensions(), ", "))
	}
	return fmt.Sprintf("unsupported language: %s", e.Language)
}

// FileReadError wraps a failure to read a string module. Path is relative to
// the source root.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read string module %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}
