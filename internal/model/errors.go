package model

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrFileTooLarge     = errors.New("file too large")
)

// ErrorKind classifies failures that callers are expected to react to differently.
type ErrorKind int

const (
	KindUnsupportedFile ErrorKind = iota + 1
	KindParsing
	KindDatabaseConnection
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnsupportedFile:
		return "unsupported_file"
	case KindParsing:
		return "parsing"
	case KindDatabaseConnection:
		return "database_connection"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	var prefix string
	switch e.Kind {
	case KindUnsupportedFile:
		prefix = "unsupported file format"
	case KindParsing:
		prefix = "error parsing document"
	case KindDatabaseConnection:
		prefix = "database connection error"
	default:
		prefix = "error"
	}
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func UnsupportedFile(extension string) *Error {
	return &Error{Kind: KindUnsupportedFile, Message: extension}
}

func Parsing(message string, cause error) *Error {
	if cause != nil {
		message = fmt.Sprintf("%s: %v", message, cause)
	}
	return &Error{Kind: KindParsing, Message: message, Err: cause}
}

func DatabaseConnection(message string, cause error) *Error {
	if cause != nil {
		message = fmt.Sprintf("%s: %v", message, cause)
	}
	return &Error{Kind: KindDatabaseConnection, Message: message, Err: cause}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind, true
	}
	return 0, false
}

func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
