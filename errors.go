// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"errors"
	"fmt"
)

// Errors
var (

	// ErrFileOpen is returned when a product file can not be opened.
	ErrFileOpen = errors.New("could not open file")

	// ErrFileRead is returned when data can not be read from a product file.
	ErrFileRead = errors.New("could not read from file")

	// ErrInvalidArgument is returned when a function argument is invalid.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidIndex is returned when a record field or array element index
	// is outside its valid range.
	ErrInvalidIndex = errors.New("invalid index")

	// ErrInvalidDatetime is returned when a date/time value or string can not
	// be interpreted.
	ErrInvalidDatetime = errors.New("invalid date/time")

	// ErrInvalidFormat is returned when a format string is malformed.
	ErrInvalidFormat = errors.New("invalid format string")

	// ErrInvalidName is returned when a record does not have a field with the
	// given name.
	ErrInvalidName = errors.New("invalid name")

	// ErrArrayOutOfBounds is returned when an array subscript is outside the
	// array dimensions.
	ErrArrayOutOfBounds = errors.New("array index out of bounds")

	// ErrArrayNumDimsMismatch is returned when the number of subscripts does
	// not equal the number of array dimensions.
	ErrArrayNumDimsMismatch = errors.New("incorrect number of dimensions")

	// ErrOutOfMemory is returned when a buffer can not be allocated.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrExpression is returned when an expression can not be parsed or does
	// not have the required result type.
	ErrExpression = errors.New("invalid expression")

	// ErrDataDefinition is returned when dynamic data does not match its data
	// definition.
	ErrDataDefinition = errors.New("data definition mismatch")

	// ErrProduct is returned when a product file contains inconsistent data.
	ErrProduct = errors.New("invalid product")

	// ErrUnsupportedProduct is returned when the product file type or version
	// is not supported.
	ErrUnsupportedProduct = errors.New("unsupported product")

	// ErrNoParent is returned when goto parent is used on a cursor that
	// points to the product root.
	ErrNoParent = errors.New("cursor has no parent")

	// ErrHDF5 wraps an error reported by the HDF5 library.
	ErrHDF5 = errors.New("HDF5 error")
)

// An Error pairs one of the fixed error kinds with a formatted message.
// errors.Is resolves a wrapped Error to its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}
