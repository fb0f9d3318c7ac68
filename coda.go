// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package coda provides a uniform navigation and read interface over
// heterogeneous scientific and earth-observation file formats. Clients open
// a product, attach a cursor to it and walk a logical tree of records,
// arrays and scalars; the library translates cursor moves into
// format-specific physical reads.
package coda

import (
	"github.com/saferwall/coda/log"
)

// Version of the library.
const Version = "2.0.0"

// Format identifies the storage format of a product.
type Format int

// Product storage formats.
const (
	FormatASCII Format = iota
	FormatBinary
	FormatXML
	FormatHDF4
	FormatHDF5
	FormatCDF
	FormatNetCDF
	FormatGRIB
	FormatRINEX
	FormatSP3

	numFormats
)

func (f Format) String() string {
	switch f {
	case FormatASCII:
		return "ascii"
	case FormatBinary:
		return "binary"
	case FormatXML:
		return "xml"
	case FormatHDF4:
		return "hdf4"
	case FormatHDF5:
		return "hdf5"
	case FormatCDF:
		return "cdf"
	case FormatNetCDF:
		return "netcdf"
	case FormatGRIB:
		return "grib"
	case FormatRINEX:
		return "rinex"
	case FormatSP3:
		return "sp3"
	}
	return "unknown"
}

// Backend identifies the implementation behind a dynamic type. For the ascii
// and binary backends the dynamic type equals the static type and data is
// decoded straight from the file; the remaining backends carry separate
// instance state.
type Backend int

// Cursor backends.
const (
	BackendASCII Backend = iota
	BackendBinary
	BackendMemory
	BackendHDF4
	BackendHDF5
	BackendCDF
	BackendNetCDF
	BackendGRIB
)

// TypeClass divides types into the fundamental shape categories.
type TypeClass int

// Type classes.
const (
	RecordClass TypeClass = iota
	ArrayClass
	IntegerClass
	RealClass
	TextClass
	RawClass
	SpecialClass
)

func (c TypeClass) String() string {
	switch c {
	case RecordClass:
		return "record"
	case ArrayClass:
		return "array"
	case IntegerClass:
		return "integer"
	case RealClass:
		return "real"
	case TextClass:
		return "text"
	case RawClass:
		return "raw"
	case SpecialClass:
		return "special"
	}
	return "unknown"
}

// NativeType is the primitive representation a value decodes to.
type NativeType int

// Native read types.
const (
	NativeTypeNotAvailable NativeType = iota - 1
	NativeTypeInt8
	NativeTypeUint8
	NativeTypeInt16
	NativeTypeUint16
	NativeTypeInt32
	NativeTypeUint32
	NativeTypeInt64
	NativeTypeUint64
	NativeTypeFloat
	NativeTypeDouble
	NativeTypeChar
	NativeTypeString
	NativeTypeBytes
)

func (t NativeType) String() string {
	switch t {
	case NativeTypeInt8:
		return "int8"
	case NativeTypeUint8:
		return "uint8"
	case NativeTypeInt16:
		return "int16"
	case NativeTypeUint16:
		return "uint16"
	case NativeTypeInt32:
		return "int32"
	case NativeTypeUint32:
		return "uint32"
	case NativeTypeInt64:
		return "int64"
	case NativeTypeUint64:
		return "uint64"
	case NativeTypeFloat:
		return "float"
	case NativeTypeDouble:
		return "double"
	case NativeTypeChar:
		return "char"
	case NativeTypeString:
		return "string"
	case NativeTypeBytes:
		return "bytes"
	}
	return "unavailable"
}

// bitSize returns the storage width of a fixed width native type, or -1.
func (t NativeType) bitSize() int64 {
	switch t {
	case NativeTypeInt8, NativeTypeUint8, NativeTypeChar:
		return 8
	case NativeTypeInt16, NativeTypeUint16:
		return 16
	case NativeTypeInt32, NativeTypeUint32, NativeTypeFloat:
		return 32
	case NativeTypeInt64, NativeTypeUint64, NativeTypeDouble:
		return 64
	}
	return -1
}

// SpecialKind identifies the interpretation of a special type.
type SpecialKind int

// Special type kinds.
const (
	SpecialNoData SpecialKind = iota
	SpecialTime
)

// Endianness of binary numeric data.
type Endianness int

// Byte orders.
const (
	BigEndian Endianness = iota
	LittleEndian
)

// Options control product parsing.
type Options struct {

	// Disable index range verification on array element access, by
	// default (false).
	SkipBoundaryChecks bool

	// Do not memory-map the product file, by default (false). The
	// CODA_USE_MMAP environment variable set to "0" has the same effect.
	DisableMmap bool

	// A custom logger.
	Logger log.Logger
}
