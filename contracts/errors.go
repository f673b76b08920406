package contracts

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindFileNotFound
	KindUnsupportedImage
	KindNotDirectory
	KindNoMatches
	KindEncodeOrWrite
)

func (k ErrorKind) String() string {
	switch k {
	case KindFileNotFound:
		return "file not found"
	case KindUnsupportedImage:
		return "unsupported or corrupt image"
	case KindNotDirectory:
		return "not a directory"
	case KindNoMatches:
		return "no files matched"
	case KindEncodeOrWrite:
		return "encode or write failure"
	}
	return "unknown"
}

type ConversionError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, path string, err error) error {
	return &ConversionError{Kind: kind, Path: path, Err: err}
}

// KindOf returns KindUnknown for nil and for errors not produced by NewError.
func KindOf(err error) ErrorKind {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}
