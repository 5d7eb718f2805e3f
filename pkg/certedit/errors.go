package certedit

import (
	"errors"
	"fmt"
)

var (
	ErrExportInProgress    = errors.New("an export is already in progress")
	ErrEditorClosed        = errors.New("editor is closed")
	ErrTaintedImage        = errors.New("image origin is not trusted")
	ErrUnknownDocumentType = errors.New("unknown document type")
	ErrBlobNotFound        = errors.New("blob not found")
)

// UnknownFieldError reports a field key that does not belong to the template's
// closed field set. It always denotes a caller bug.
type UnknownFieldError struct {
	Key          FieldKey
	DocumentType DocumentType
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q for %s template", e.Key, e.DocumentType)
}

// RasterizationError wraps any failure while capturing the template to a bitmap.
type RasterizationError struct {
	Err error
}

func (e *RasterizationError) Error() string {
	return fmt.Sprintf("rasterization failed: %v", e.Err)
}

func (e *RasterizationError) Unwrap() error {
	return e.Err
}
