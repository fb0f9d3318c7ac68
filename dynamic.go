// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

// DynamicType is the instance specific type information of a data element.
// It is the type used for the root of a product and within cursor frames.
// For the ascii and binary backends a dynamic type is the static type
// itself; the other backends pair the static definition with backend state.
type DynamicType interface {
	Backend() Backend
	// Definition returns the static type; it is non-nil for every dynamic
	// type, including the raw base of a no-data value.
	Definition() Type
}

// The capability interfaces below are what the cursor dispatches on. Every
// backend that carries record, array or scalar state implements the
// applicable subset; the in-memory backend is one implementation, the HDF5
// backend is another.

// recordInstance is implemented by dynamic types with record semantics.
type recordInstance interface {
	DynamicType
	numRecordFields() int64
	// recordField returns the dynamic type of field i. The result is nil
	// (without error) when the field is absent.
	recordField(i int64) (DynamicType, error)
}

// arrayInstance is implemented by dynamic types with array semantics.
type arrayInstance interface {
	DynamicType
	numArrayElements() int64
	arrayElement(i int64) (DynamicType, error)
	arrayDims() []int64
}

// attributedInstance exposes the attributes of a dynamic type; the result
// may be nil when the definition carries no attributes.
type attributedInstance interface {
	attributesType() DynamicType
}

// specialInstance is implemented by dynamic types with special semantics.
type specialInstance interface {
	DynamicType
	specialBase() DynamicType
}

// scalarInstance is implemented by dynamic types holding a readable value.
type scalarInstance interface {
	DynamicType
	readInt64(p *Product) (int64, error)
	readUint64(p *Product) (uint64, error)
	readDouble(p *Product) (float64, error)
	readString(p *Product) (string, error)
	readBytes(p *Product, offset, length int64) ([]byte, error)
	byteLength(p *Product) (int64, error)
}
