// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"fmt"
	"math"
)

// maxCursorDepth is the maximum nesting depth a cursor can traverse. The
// deepest known product trees stay well below this limit.
const maxCursorDepth = 32

type cursorFrame struct {
	typ DynamicType
	// index is the position of this frame within its parent; -1 for the
	// root and for attribute records.
	index int64
	// bitOffset is backend specific; -1 for in-memory backed types.
	bitOffset int64
}

// Cursor is a value-like stack of frames used to navigate the dynamic type
// tree of a product. A cursor references its product but never mutates it;
// it must not outlive the product.
type Cursor struct {
	product *Product
	n       int
	stack   [maxCursorDepth]cursorFrame
}

// SetProduct initializes the cursor to point at the root of product.
func (c *Cursor) SetProduct(product *Product) error {
	if product == nil {
		return newError(ErrInvalidArgument, "product argument is nil")
	}
	if product.rootType == nil {
		return newError(ErrProduct, "product has no root type")
	}
	c.product = product
	c.n = 1
	c.stack[0] = cursorFrame{typ: product.rootType, index: -1, bitOffset: -1}
	return nil
}

func (c *Cursor) current() *cursorFrame {
	return &c.stack[c.n-1]
}

func (c *Cursor) push(typ DynamicType, index int64) error {
	if c.n >= maxCursorDepth {
		return newError(ErrInvalidArgument, "maximum cursor depth (%d) exceeded", maxCursorDepth)
	}
	c.stack[c.n] = cursorFrame{typ: typ, index: index, bitOffset: -1}
	c.n++
	return nil
}

func (c *Cursor) checkInitialized() error {
	if c.n == 0 {
		return newError(ErrInvalidArgument, "cursor is not initialized")
	}
	return nil
}

// checkBackend asserts that the current dynamic type belongs to one of the
// known backends. A backend outside the fixed set indicates a programming
// error inside the library and is not recoverable.
func checkBackend(t DynamicType) {
	switch t.Backend() {
	case BackendASCII, BackendBinary, BackendMemory, BackendHDF4, BackendHDF5,
		BackendCDF, BackendNetCDF, BackendGRIB:
	default:
		panic(fmt.Sprintf("coda: invalid backend (%d)", t.Backend()))
	}
}

// GotoRecordFieldByIndex moves the cursor to field i of the current record.
// An absent optional field yields the no-data type.
func (c *Cursor) GotoRecordFieldByIndex(i int64) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	cur := c.current().typ
	checkBackend(cur)
	record, ok := cur.(recordInstance)
	if !ok {
		return newError(ErrInvalidArgument, "cursor does not refer to a record")
	}
	if i < 0 || i >= record.numRecordFields() {
		return newError(ErrInvalidIndex,
			"field index (%d) is not in the range [0,%d)", i, record.numRecordFields())
	}
	field, err := record.recordField(i)
	if err != nil {
		return err
	}
	if field == nil {
		field = memNoData(cur.Definition().Format())
	}
	return c.push(field, i)
}

// GotoRecordFieldByName moves the cursor to the record field with the given
// name.
func (c *Cursor) GotoRecordFieldByName(name string) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	cur := c.current().typ
	record, ok := cur.Definition().(*RecordType)
	if !ok {
		return newError(ErrInvalidArgument, "cursor does not refer to a record")
	}
	index := record.FieldIndexFromName(name)
	if index < 0 {
		return newError(ErrInvalidName, "record does not have a field with name '%s'", name)
	}
	return c.GotoRecordFieldByIndex(int64(index))
}

// GotoNextRecordField moves the cursor from a record field to the next
// field of the same record.
func (c *Cursor) GotoNextRecordField() error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	if c.n < 2 {
		return newError(ErrNoParent, "cursor has no parent record")
	}
	index := c.current().index
	c.n--
	if err := c.GotoRecordFieldByIndex(index + 1); err != nil {
		// restore the cursor so the caller still points at the old field
		c.n++
		return err
	}
	return nil
}

// GotoArrayElement moves the cursor to the array element with the given
// subscripts. Subscripts are linearized in row-major order: the last
// subscript is the fastest running.
func (c *Cursor) GotoArrayElement(subs []int64) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	cur := c.current().typ
	checkBackend(cur)
	array, ok := cur.(arrayInstance)
	if !ok {
		return newError(ErrInvalidArgument, "cursor does not refer to an array")
	}
	dims := array.arrayDims()
	if len(subs) != len(dims) {
		return newError(ErrArrayNumDimsMismatch,
			"number of subscripts (%d) does not match number of dimensions (%d)",
			len(subs), len(dims))
	}
	index := int64(0)
	for k := 0; k < len(dims); k++ {
		if subs[k] < 0 || subs[k] >= dims[k] {
			return newError(ErrArrayOutOfBounds,
				"subscript %d (%d) exceeds dimension size (%d)", k, subs[k], dims[k])
		}
		index = index*dims[k] + subs[k]
	}
	element, err := array.arrayElement(index)
	if err != nil {
		return err
	}
	return c.push(element, index)
}

// GotoArrayElementByIndex moves the cursor to the array element with the
// given linear index. The index is range checked unless boundary checks are
// disabled on the product.
func (c *Cursor) GotoArrayElementByIndex(index int64) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	cur := c.current().typ
	checkBackend(cur)
	array, ok := cur.(arrayInstance)
	if !ok {
		return newError(ErrInvalidArgument, "cursor does not refer to an array")
	}
	if c.performBoundaryChecks() {
		if index < 0 || index >= array.numArrayElements() {
			return newError(ErrArrayOutOfBounds,
				"array index (%d) is not in the range [0,%d)", index, array.numArrayElements())
		}
	}
	element, err := array.arrayElement(index)
	if err != nil {
		return err
	}
	return c.push(element, index)
}

// GotoNextArrayElement moves the cursor from an array element to the next
// element of the same array.
func (c *Cursor) GotoNextArrayElement() error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	if c.n < 2 {
		return newError(ErrNoParent, "cursor has no parent array")
	}
	index := c.current().index
	c.n--
	if err := c.GotoArrayElementByIndex(index + 1); err != nil {
		c.n++
		return err
	}
	return nil
}

// GotoAttributes moves the cursor to the attributes record of the current
// type. Types without attributes yield the canonical empty record of their
// format.
func (c *Cursor) GotoAttributes() error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	cur := c.current().typ
	checkBackend(cur)
	var attrs DynamicType
	if at, ok := cur.(attributedInstance); ok {
		attrs = at.attributesType()
	}
	if attrs == nil {
		attrs = memEmptyRecord(cur.Definition().Format())
	}
	return c.push(attrs, -1)
}

// GotoParent moves the cursor one level up.
func (c *Cursor) GotoParent() error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	if c.n < 2 {
		return newError(ErrNoParent, "cursor is already at the product root")
	}
	c.n--
	return nil
}

// GotoRoot moves the cursor back to the product root.
func (c *Cursor) GotoRoot() error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	c.n = 1
	return nil
}

func (c *Cursor) performBoundaryChecks() bool {
	if c.product == nil || c.product.opts == nil {
		return true
	}
	return !c.product.opts.SkipBoundaryChecks
}

// GetType returns the static type of the element the cursor points at.
func (c *Cursor) GetType() (Type, error) {
	if err := c.checkInitialized(); err != nil {
		return nil, err
	}
	return c.current().typ.Definition(), nil
}

// GetDepth returns the number of frames on the cursor stack; a cursor that
// points at the product root has depth 1.
func (c *Cursor) GetDepth() (int, error) {
	if err := c.checkInitialized(); err != nil {
		return 0, err
	}
	return c.n, nil
}

// GetIndex returns the index of the current element within its parent.
func (c *Cursor) GetIndex() (int64, error) {
	if err := c.checkInitialized(); err != nil {
		return 0, err
	}
	return c.current().index, nil
}

// GetNumElements returns the number of child elements of the current
// element: the field count of a record, the element count of an array, and
// 1 for scalar values.
func (c *Cursor) GetNumElements() (int64, error) {
	if err := c.checkInitialized(); err != nil {
		return 0, err
	}
	switch v := c.current().typ.(type) {
	case recordInstance:
		return v.numRecordFields(), nil
	case arrayInstance:
		return v.numArrayElements(), nil
	}
	return 1, nil
}

// GetArrayDim returns the dimension extents of the current array.
func (c *Cursor) GetArrayDim() ([]int64, error) {
	if err := c.checkInitialized(); err != nil {
		return nil, err
	}
	array, ok := c.current().typ.(arrayInstance)
	if !ok {
		return nil, newError(ErrInvalidArgument, "cursor does not refer to an array")
	}
	return array.arrayDims(), nil
}

// GetStringLength returns the byte length of the current string value.
func (c *Cursor) GetStringLength() (int64, error) {
	if err := c.checkInitialized(); err != nil {
		return 0, err
	}
	scalar, ok := c.current().typ.(scalarInstance)
	if !ok {
		return 0, newError(ErrInvalidArgument, "cursor does not refer to a string")
	}
	return scalar.byteLength(c.product)
}

func (c *Cursor) scalar() (scalarInstance, error) {
	if err := c.checkInitialized(); err != nil {
		return nil, err
	}
	cur := c.current().typ
	checkBackend(cur)
	scalar, ok := cur.(scalarInstance)
	if !ok {
		return nil, newError(ErrInvalidArgument, "cursor does not refer to a readable value")
	}
	return scalar, nil
}

func (c *Cursor) readIntegerInRange(min, max int64) (int64, error) {
	scalar, err := c.scalar()
	if err != nil {
		return 0, err
	}
	v, err := scalar.readInt64(c.product)
	if err != nil {
		return 0, err
	}
	if v < min || v > max {
		return 0, newError(ErrInvalidArgument,
			"value (%d) does not fit requested read type", v)
	}
	return v, nil
}

// ReadInt8 reads the current value as an int8.
func (c *Cursor) ReadInt8() (int8, error) {
	v, err := c.readIntegerInRange(math.MinInt8, math.MaxInt8)
	return int8(v), err
}

// ReadUint8 reads the current value as an uint8.
func (c *Cursor) ReadUint8() (uint8, error) {
	v, err := c.readIntegerInRange(0, math.MaxUint8)
	return uint8(v), err
}

// ReadInt16 reads the current value as an int16.
func (c *Cursor) ReadInt16() (int16, error) {
	v, err := c.readIntegerInRange(math.MinInt16, math.MaxInt16)
	return int16(v), err
}

// ReadUint16 reads the current value as an uint16.
func (c *Cursor) ReadUint16() (uint16, error) {
	v, err := c.readIntegerInRange(0, math.MaxUint16)
	return uint16(v), err
}

// ReadInt32 reads the current value as an int32.
func (c *Cursor) ReadInt32() (int32, error) {
	v, err := c.readIntegerInRange(math.MinInt32, math.MaxInt32)
	return int32(v), err
}

// ReadUint32 reads the current value as an uint32.
func (c *Cursor) ReadUint32() (uint32, error) {
	v, err := c.readIntegerInRange(0, math.MaxUint32)
	return uint32(v), err
}

// ReadInt64 reads the current value as an int64.
func (c *Cursor) ReadInt64() (int64, error) {
	scalar, err := c.scalar()
	if err != nil {
		return 0, err
	}
	return scalar.readInt64(c.product)
}

// ReadUint64 reads the current value as an uint64.
func (c *Cursor) ReadUint64() (uint64, error) {
	scalar, err := c.scalar()
	if err != nil {
		return 0, err
	}
	return scalar.readUint64(c.product)
}

// ReadFloat reads the current value as a float32.
func (c *Cursor) ReadFloat() (float32, error) {
	v, err := c.ReadDouble()
	return float32(v), err
}

// ReadDouble reads the current value as a float64.
func (c *Cursor) ReadDouble() (float64, error) {
	scalar, err := c.scalar()
	if err != nil {
		return 0, err
	}
	return scalar.readDouble(c.product)
}

// ReadChar reads the current single character value.
func (c *Cursor) ReadChar() (byte, error) {
	scalar, err := c.scalar()
	if err != nil {
		return 0, err
	}
	s, err := scalar.readString(c.product)
	if err != nil {
		return 0, err
	}
	if len(s) != 1 {
		return 0, newError(ErrInvalidArgument, "value is not a single character")
	}
	return s[0], nil
}

// ReadString reads the current value as a string.
func (c *Cursor) ReadString() (string, error) {
	scalar, err := c.scalar()
	if err != nil {
		return "", err
	}
	return scalar.readString(c.product)
}

// ReadBytes reads length raw bytes starting at offset within the current
// value.
func (c *Cursor) ReadBytes(offset, length int64) ([]byte, error) {
	scalar, err := c.scalar()
	if err != nil {
		return nil, err
	}
	return scalar.readBytes(c.product, offset, length)
}

// readArray reads all elements of the current array via read.
func (c *Cursor) readArray(read func(scalar scalarInstance) error) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	array, ok := c.current().typ.(arrayInstance)
	if !ok {
		return newError(ErrInvalidArgument, "cursor does not refer to an array")
	}
	n := array.numArrayElements()
	for i := int64(0); i < n; i++ {
		element, err := array.arrayElement(i)
		if err != nil {
			return err
		}
		scalar, ok := element.(scalarInstance)
		if !ok {
			return newError(ErrInvalidArgument, "array element is not a readable value")
		}
		if err := read(scalar); err != nil {
			return err
		}
	}
	return nil
}

// ReadInt8Array reads all elements of the current array as int8 values.
func (c *Cursor) ReadInt8Array() ([]int8, error) {
	var out []int8
	err := c.readArray(func(scalar scalarInstance) error {
		v, err := scalar.readInt64(c.product)
		if err != nil {
			return err
		}
		out = append(out, int8(v))
		return nil
	})
	return out, err
}

// ReadUint8Array reads all elements of the current array as uint8 values.
func (c *Cursor) ReadUint8Array() ([]uint8, error) {
	var out []uint8
	err := c.readArray(func(scalar scalarInstance) error {
		v, err := scalar.readUint64(c.product)
		if err != nil {
			return err
		}
		out = append(out, uint8(v))
		return nil
	})
	return out, err
}

// ReadInt16Array reads all elements of the current array as int16 values.
func (c *Cursor) ReadInt16Array() ([]int16, error) {
	var out []int16
	err := c.readArray(func(scalar scalarInstance) error {
		v, err := scalar.readInt64(c.product)
		if err != nil {
			return err
		}
		out = append(out, int16(v))
		return nil
	})
	return out, err
}

// ReadUint16Array reads all elements of the current array as uint16 values.
func (c *Cursor) ReadUint16Array() ([]uint16, error) {
	var out []uint16
	err := c.readArray(func(scalar scalarInstance) error {
		v, err := scalar.readUint64(c.product)
		if err != nil {
			return err
		}
		out = append(out, uint16(v))
		return nil
	})
	return out, err
}

// ReadInt32Array reads all elements of the current array as int32 values.
func (c *Cursor) ReadInt32Array() ([]int32, error) {
	var out []int32
	err := c.readArray(func(scalar scalarInstance) error {
		v, err := scalar.readInt64(c.product)
		if err != nil {
			return err
		}
		out = append(out, int32(v))
		return nil
	})
	return out, err
}

// ReadUint32Array reads all elements of the current array as uint32 values.
func (c *Cursor) ReadUint32Array() ([]uint32, error) {
	var out []uint32
	err := c.readArray(func(scalar scalarInstance) error {
		v, err := scalar.readUint64(c.product)
		if err != nil {
			return err
		}
		out = append(out, uint32(v))
		return nil
	})
	return out, err
}

// ReadUint64Array reads all elements of the current array as uint64 values.
func (c *Cursor) ReadUint64Array() ([]uint64, error) {
	var out []uint64
	err := c.readArray(func(scalar scalarInstance) error {
		v, err := scalar.readUint64(c.product)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

// ReadFloatArray reads all elements of the current array as float32 values.
func (c *Cursor) ReadFloatArray() ([]float32, error) {
	var out []float32
	err := c.readArray(func(scalar scalarInstance) error {
		v, err := scalar.readDouble(c.product)
		if err != nil {
			return err
		}
		out = append(out, float32(v))
		return nil
	})
	return out, err
}

// ReadStringArray reads all elements of the current array as strings.
func (c *Cursor) ReadStringArray() ([]string, error) {
	var out []string
	err := c.readArray(func(scalar scalarInstance) error {
		v, err := scalar.readString(c.product)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

// ReadInt64Array reads all elements of the current array as int64 values.
func (c *Cursor) ReadInt64Array() ([]int64, error) {
	var out []int64
	err := c.readArray(func(scalar scalarInstance) error {
		v, err := scalar.readInt64(c.product)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

// ReadDoubleArray reads all elements of the current array as float64
// values.
func (c *Cursor) ReadDoubleArray() ([]float64, error) {
	var out []float64
	err := c.readArray(func(scalar scalarInstance) error {
		v, err := scalar.readDouble(c.product)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

// readPartialArray reads the elements [offset, offset+length) of the
// current array via read.
func (c *Cursor) readPartialArray(offset, length int64, read func(scalar scalarInstance) error) error {
	if err := c.checkInitialized(); err != nil {
		return err
	}
	array, ok := c.current().typ.(arrayInstance)
	if !ok {
		return newError(ErrInvalidArgument, "cursor does not refer to an array")
	}
	if offset < 0 || length < 0 || offset+length > array.numArrayElements() {
		return newError(ErrArrayOutOfBounds,
			"element range [%d,%d) exceeds array size (%d)",
			offset, offset+length, array.numArrayElements())
	}
	for i := offset; i < offset+length; i++ {
		element, err := array.arrayElement(i)
		if err != nil {
			return err
		}
		scalar, ok := element.(scalarInstance)
		if !ok {
			return newError(ErrInvalidArgument, "array element is not a readable value")
		}
		if err := read(scalar); err != nil {
			return err
		}
	}
	return nil
}

// ReadInt8PartialArray reads length elements of the current array starting
// at offset as int8 values.
func (c *Cursor) ReadInt8PartialArray(offset, length int64) ([]int8, error) {
	out := make([]int8, 0, length)
	err := c.readPartialArray(offset, length, func(scalar scalarInstance) error {
		v, err := scalar.readInt64(c.product)
		if err != nil {
			return err
		}
		out = append(out, int8(v))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadUint8PartialArray reads length elements of the current array starting
// at offset as uint8 values.
func (c *Cursor) ReadUint8PartialArray(offset, length int64) ([]uint8, error) {
	out := make([]uint8, 0, length)
	err := c.readPartialArray(offset, length, func(scalar scalarInstance) error {
		v, err := scalar.readUint64(c.product)
		if err != nil {
			return err
		}
		out = append(out, uint8(v))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadInt16PartialArray reads length elements of the current array starting
// at offset as int16 values.
func (c *Cursor) ReadInt16PartialArray(offset, length int64) ([]int16, error) {
	out := make([]int16, 0, length)
	err := c.readPartialArray(offset, length, func(scalar scalarInstance) error {
		v, err := scalar.readInt64(c.product)
		if err != nil {
			return err
		}
		out = append(out, int16(v))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadUint16PartialArray reads length elements of the current array starting
// at offset as uint16 values.
func (c *Cursor) ReadUint16PartialArray(offset, length int64) ([]uint16, error) {
	out := make([]uint16, 0, length)
	err := c.readPartialArray(offset, length, func(scalar scalarInstance) error {
		v, err := scalar.readUint64(c.product)
		if err != nil {
			return err
		}
		out = append(out, uint16(v))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadInt32PartialArray reads length elements of the current array starting
// at offset as int32 values.
func (c *Cursor) ReadInt32PartialArray(offset, length int64) ([]int32, error) {
	out := make([]int32, 0, length)
	err := c.readPartialArray(offset, length, func(scalar scalarInstance) error {
		v, err := scalar.readInt64(c.product)
		if err != nil {
			return err
		}
		out = append(out, int32(v))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadUint32PartialArray reads length elements of the current array starting
// at offset as uint32 values.
func (c *Cursor) ReadUint32PartialArray(offset, length int64) ([]uint32, error) {
	out := make([]uint32, 0, length)
	err := c.readPartialArray(offset, length, func(scalar scalarInstance) error {
		v, err := scalar.readUint64(c.product)
		if err != nil {
			return err
		}
		out = append(out, uint32(v))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadInt64PartialArray reads length elements of the current array starting
// at offset as int64 values.
func (c *Cursor) ReadInt64PartialArray(offset, length int64) ([]int64, error) {
	out := make([]int64, 0, length)
	err := c.readPartialArray(offset, length, func(scalar scalarInstance) error {
		v, err := scalar.readInt64(c.product)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadUint64PartialArray reads length elements of the current array starting
// at offset as uint64 values.
func (c *Cursor) ReadUint64PartialArray(offset, length int64) ([]uint64, error) {
	out := make([]uint64, 0, length)
	err := c.readPartialArray(offset, length, func(scalar scalarInstance) error {
		v, err := scalar.readUint64(c.product)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadFloatPartialArray reads length elements of the current array starting
// at offset as float32 values.
func (c *Cursor) ReadFloatPartialArray(offset, length int64) ([]float32, error) {
	out := make([]float32, 0, length)
	err := c.readPartialArray(offset, length, func(scalar scalarInstance) error {
		v, err := scalar.readDouble(c.product)
		if err != nil {
			return err
		}
		out = append(out, float32(v))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadDoublePartialArray reads length elements of the current array
// starting at offset as float64 values.
func (c *Cursor) ReadDoublePartialArray(offset, length int64) ([]float64, error) {
	out := make([]float64, 0, length)
	err := c.readPartialArray(offset, length, func(scalar scalarInstance) error {
		v, err := scalar.readDouble(c.product)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
