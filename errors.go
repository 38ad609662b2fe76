package marginblank

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the stage that produced it.
type Kind int

const (
	KindUnknown Kind = iota
	KindNoFileSelected
	KindDocumentOpen
	KindPageIndex
	KindRender
	KindRedactionWrite
	KindConversion
	KindInvalidMargin
)

// Sentinel errors, one per Kind. An *Error matches the sentinel of its Kind
// under errors.Is.
var (
	ErrNoFileSelected = errors.New("marginblank: no file selected")
	ErrDocumentOpen   = errors.New("marginblank: document cannot be opened")
	ErrPageIndex      = errors.New("marginblank: page index out of range")
	ErrRender         = errors.New("marginblank: page cannot be rendered")
	ErrRedactionWrite = errors.New("marginblank: redacted document cannot be written")
	ErrConversion     = errors.New("marginblank: conversion failed")
	ErrInvalidMargin  = errors.New("marginblank: invalid margin")
)

var kindNames = map[Kind]string{
	KindUnknown:        "Unknown",
	KindNoFileSelected: "NoFileSelected",
	KindDocumentOpen:   "DocumentOpenError",
	KindPageIndex:      "PageIndexError",
	KindRender:         "RenderError",
	KindRedactionWrite: "RedactionWriteError",
	KindConversion:     "ConversionError",
	KindInvalidMargin:  "InvalidMargin",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) sentinel() error {
	switch k {
	case KindNoFileSelected:
		return ErrNoFileSelected
	case KindDocumentOpen:
		return ErrDocumentOpen
	case KindPageIndex:
		return ErrPageIndex
	case KindRender:
		return ErrRender
	case KindRedactionWrite:
		return ErrRedactionWrite
	case KindConversion:
		return ErrConversion
	case KindInvalidMargin:
		return ErrInvalidMargin
	}
	return nil
}

// Error is a failure of a named operation, optionally tied to a file.
type Error struct {
	Kind Kind   // failure class
	Op   string // operation name, e.g. "Open", "Redact", "Convert"
	Path string // file involved, if any
	Err  error  // underlying error
}

// NewError returns an *Error of the given kind. A nil err is replaced by the
// kind's sentinel.
func NewError(kind Kind, op, path string, err error) *Error {
	if err == nil {
		err = kind.sentinel()
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func (e *Error) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("marginblank.%s %s: %s", e.Op, e.Path, msg)
	}
	return fmt.Sprintf("marginblank.%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's Kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// Message returns the single line shown to the operator.
func (e *Error) Message() string {
	var cause string
	if e.Err != nil && e.Err != e.Kind.sentinel() {
		cause = ": " + e.Err.Error()
	}
	switch e.Kind {
	case KindNoFileSelected:
		return "Please select a PDF file first."
	case KindDocumentOpen:
		return "Failed to load PDF" + cause
	case KindPageIndex:
		return "No such page" + cause
	case KindRender:
		return "Failed to render page" + cause
	case KindRedactionWrite:
		return "Failed to write blanked PDF" + cause
	case KindConversion:
		return "Blanked PDF is intact, but conversion failed" + cause
	case KindInvalidMargin:
		return "Invalid margin" + cause
	}
	return "An error occurred" + cause
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the operator-facing message for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message()
	}
	return "An error occurred: " + err.Error()
}
