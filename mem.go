// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"encoding/binary"
	"math"
	"sync"
)

// arrayBlockSize is the growth granularity of dynamically sized arrays.
const arrayBlockSize = 16

// memType is the common part of all in-memory dynamic types.
type memType struct {
	definition Type
	attributes DynamicType
}

func (t *memType) Backend() Backend { return BackendMemory }

func (t *memType) Definition() Type { return t.definition }

func (t *memType) attributesType() DynamicType { return t.attributes }

// createAttributesRecord instantiates the attributes record prescribed by
// the definition, if any.
func (t *memType) createAttributesRecord() error {
	if t.definition == nil || t.definition.Attributes() == nil {
		return nil
	}
	attrs, err := newMemRecord(t.definition.Attributes(), nil)
	if err != nil {
		return err
	}
	t.attributes = attrs
	return nil
}

// memRecord is a record instance. A nil slot means the field is absent.
type memRecord struct {
	memType
	fields []DynamicType
}

func newMemRecord(definition *RecordType, attributes DynamicType) (*memRecord, error) {
	if definition == nil {
		return nil, newError(ErrInvalidArgument, "definition argument is nil")
	}
	if definition.IsUnion() {
		return nil, newError(ErrInvalidArgument,
			"union definition is not allowed for memory backend")
	}
	t := &memRecord{memType: memType{definition: definition, attributes: attributes}}
	if attributes == nil {
		if err := t.createAttributesRecord(); err != nil {
			return nil, err
		}
	}
	if n := definition.NumFields(); n > 0 {
		t.fields = make([]DynamicType, n)
	}
	return t, nil
}

func (t *memRecord) recordDefinition() *RecordType { return t.definition.(*RecordType) }

func (t *memRecord) numRecordFields() int64 { return int64(len(t.fields)) }

func (t *memRecord) recordField(i int64) (DynamicType, error) {
	if i < 0 || i >= int64(len(t.fields)) {
		return nil, newError(ErrInvalidIndex,
			"field index (%d) is not in the range [0,%d)", i, len(t.fields))
	}
	return t.fields[i], nil
}

// addField assigns fieldType to the field with the given real name. When
// updateDefinition is set the field is appended to the definition first;
// otherwise the slot must exist, be empty, and have a matching definition.
func (t *memRecord) addField(realName string, fieldType DynamicType, updateDefinition bool) error {
	if fieldType == nil {
		return newError(ErrInvalidArgument, "field type argument is nil")
	}
	definition := t.recordDefinition()
	var index int
	if updateDefinition {
		if err := definition.CreateField(realName, fieldType.Definition()); err != nil {
			return err
		}
		index = definition.NumFields() - 1
		for len(t.fields) < definition.NumFields() {
			t.fields = append(t.fields, nil)
		}
	} else {
		index = definition.FieldIndexFromRealName(realName)
		if index < 0 {
			return newError(ErrInvalidName,
				"record does not have a field with name '%s'", realName)
		}
		if t.fields[index] != nil {
			return newError(ErrInvalidArgument, "field '%s' is already set", realName)
		}
		if definition.Field(index).Type != fieldType.Definition() {
			return newError(ErrInvalidArgument,
				"trying to add field '%s' of incompatible type", realName)
		}
	}
	t.fields[index] = fieldType
	return nil
}

// validate verifies that every non-optional field is populated.
func (t *memRecord) validate() error {
	definition := t.recordDefinition()
	for i := 0; i < len(t.fields); i++ {
		if t.fields[i] == nil && !definition.Field(i).Optional {
			return newError(ErrDataDefinition,
				"mandatory field '%s' is missing", definition.Field(i).RealName)
		}
	}
	return nil
}

// addAttribute assigns attributeType to the attribute with the given real
// name, creating the attributes record (and optionally the definition
// entry) on demand.
func (t *memType) addAttribute(realName string, attributeType DynamicType, updateDefinition bool) error {
	if attributeType == nil {
		return newError(ErrInvalidArgument, "attribute type argument is nil")
	}
	if t.attributes == nil {
		if !updateDefinition {
			return newError(ErrInvalidName,
				"type does not have an attribute with name '%s'", realName)
		}
		if t.definition.Attributes() == nil {
			if err := SetAttributes(t.definition, NewRecordType(t.definition.Format())); err != nil {
				return err
			}
		}
		attrs, err := newMemRecord(t.definition.Attributes(), nil)
		if err != nil {
			return err
		}
		t.attributes = attrs
	}
	attrs, ok := t.attributes.(*memRecord)
	if !ok {
		return newError(ErrInvalidArgument, "cannot add attribute")
	}
	return attrs.addField(realName, attributeType, updateDefinition)
}

// memArray is an array instance. Arrays with a fixed definition size are
// preallocated with empty slots; variable sized arrays grow in blocks.
type memArray struct {
	memType
	elements []DynamicType
}

func newMemArray(definition *ArrayType, attributes DynamicType) (*memArray, error) {
	if definition == nil {
		return nil, newError(ErrInvalidArgument, "definition argument is nil")
	}
	t := &memArray{memType: memType{definition: definition, attributes: attributes}}
	if attributes == nil {
		if err := t.createAttributesRecord(); err != nil {
			return nil, err
		}
	}
	if n := definition.NumElements(); n > 0 {
		t.elements = make([]DynamicType, n)
	}
	return t, nil
}

func (t *memArray) arrayDefinition() *ArrayType { return t.definition.(*ArrayType) }

func (t *memArray) numArrayElements() int64 { return int64(len(t.elements)) }

func (t *memArray) arrayElement(i int64) (DynamicType, error) {
	if i < 0 || i >= int64(len(t.elements)) {
		return nil, newError(ErrArrayOutOfBounds,
			"array index (%d) is not in the range [0,%d)", i, len(t.elements))
	}
	return t.elements[i], nil
}

func (t *memArray) arrayDims() []int64 {
	definition := t.arrayDefinition()
	dims := make([]int64, definition.NumDims())
	copy(dims, definition.Dim())
	for i := range dims {
		if dims[i] < 0 {
			// a variable sized dimension takes the instance length
			dims[i] = int64(len(t.elements))
		}
	}
	return dims
}

// setElement assigns element at index; the array definition must have a
// fixed length and the slot must be empty.
func (t *memArray) setElement(index int64, element DynamicType) error {
	if index < 0 || index >= int64(len(t.elements)) {
		return newError(ErrInvalidIndex,
			"array index (%d) is not in the range [0,%d)", index, len(t.elements))
	}
	if element == nil {
		return newError(ErrInvalidArgument, "element argument is nil")
	}
	if t.elements[index] != nil {
		return newError(ErrInvalidArgument, "array element '%d' is already set", index)
	}
	if t.arrayDefinition().BaseType() != element.Definition() {
		return newError(ErrDataDefinition,
			"trying to set array element '%d' of incompatible type", index)
	}
	t.elements[index] = element
	return nil
}

// addElement appends element; the array definition must have a dynamic
// length.
func (t *memArray) addElement(element DynamicType) error {
	if element == nil {
		return newError(ErrInvalidArgument, "element argument is nil")
	}
	if t.arrayDefinition().NumElements() >= 0 {
		return newError(ErrInvalidArgument,
			"cannot add elements to an array with a fixed number of elements")
	}
	if t.arrayDefinition().BaseType() != element.Definition() {
		return newError(ErrDataDefinition,
			"trying to add array element '%d' of incompatible type", len(t.elements))
	}
	if len(t.elements)%arrayBlockSize == 0 && len(t.elements) == cap(t.elements) {
		grown := make([]DynamicType, len(t.elements), len(t.elements)+arrayBlockSize)
		copy(grown, t.elements)
		t.elements = grown
	}
	t.elements = append(t.elements, element)
	return nil
}

// validate verifies the instance length against the definition and that
// every slot is populated.
func (t *memArray) validate() error {
	definition := t.arrayDefinition()
	if n := definition.NumElements(); n >= 0 && int64(len(t.elements)) != n {
		return newError(ErrDataDefinition,
			"number of actual array elements (%d) does not match number of elements from definition (%d)",
			len(t.elements), n)
	}
	for i, element := range t.elements {
		if element == nil {
			return newError(ErrDataDefinition, "array element '%d' is missing", i)
		}
	}
	return nil
}

// memData holds a scalar value as a view into the product byte arena.
type memData struct {
	memType
	length int64
	offset int64
}

// newMemData copies data into the product arena and returns a data instance
// referring to it. A fixed byte size in the definition is validated against
// len(data), and char data must be exactly one byte.
func newMemData(definition Type, attributes DynamicType, product *Product, data []byte) (*memData, error) {
	if definition == nil {
		return nil, newError(ErrInvalidArgument, "definition argument is nil")
	}
	if bitSize := definition.BitSize(); bitSize >= 0 {
		expected := bitSize >> 3
		if bitSize&0x7 != 0 {
			expected++
		}
		if expected != int64(len(data)) {
			return nil, newError(ErrProduct,
				"length of data (%d) does not match that of definition (%d)", len(data), expected)
		}
	}
	if definition.ReadType() == NativeTypeChar && len(data) != 1 {
		return nil, newError(ErrInvalidArgument,
			"length of text (%d) should be 1 for 'char' text", len(data))
	}

	t := &memData{memType: memType{definition: definition, attributes: attributes}}
	if len(data) > 0 {
		if product == nil {
			return nil, newError(ErrInvalidArgument, "product argument is nil")
		}
		t.offset = product.memAppend(data)
		t.length = int64(len(data))
	}
	if attributes == nil {
		if err := t.createAttributesRecord(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *memData) byteLength(p *Product) (int64, error) {
	return t.length, nil
}

func (t *memData) view(p *Product) []byte {
	return p.mem[t.offset : t.offset+t.length]
}

func (t *memData) readInt64(p *Product) (int64, error) {
	b := t.view(p)
	switch t.definition.ReadType() {
	case NativeTypeInt8:
		return int64(int8(b[0])), nil
	case NativeTypeInt16:
		return int64(int16(binary.LittleEndian.Uint16(b))), nil
	case NativeTypeInt32:
		return int64(int32(binary.LittleEndian.Uint32(b))), nil
	case NativeTypeInt64:
		return int64(binary.LittleEndian.Uint64(b)), nil
	case NativeTypeUint8, NativeTypeChar:
		return int64(b[0]), nil
	case NativeTypeUint16:
		return int64(binary.LittleEndian.Uint16(b)), nil
	case NativeTypeUint32:
		return int64(binary.LittleEndian.Uint32(b)), nil
	case NativeTypeUint64:
		return int64(binary.LittleEndian.Uint64(b)), nil
	}
	return 0, newError(ErrInvalidArgument,
		"cannot read %s data as integer", t.definition.ReadType())
}

func (t *memData) readUint64(p *Product) (uint64, error) {
	v, err := t.readInt64(p)
	return uint64(v), err
}

func (t *memData) readDouble(p *Product) (float64, error) {
	b := t.view(p)
	switch t.definition.ReadType() {
	case NativeTypeFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil
	case NativeTypeDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	case NativeTypeUint8, NativeTypeUint16, NativeTypeUint32, NativeTypeUint64:
		v, err := t.readUint64(p)
		return float64(v), err
	default:
		v, err := t.readInt64(p)
		return float64(v), err
	}
}

func (t *memData) readString(p *Product) (string, error) {
	return string(t.view(p)), nil
}

func (t *memData) readBytes(p *Product, offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > t.length {
		return nil, newError(ErrArrayOutOfBounds,
			"byte range [%d,%d) exceeds data length (%d)", offset, offset+length, t.length)
	}
	b := t.view(p)
	out := make([]byte, length)
	copy(out, b[offset:offset+length])
	return out, nil
}

// memSpecial wraps a base dynamic type with special semantics.
type memSpecial struct {
	memType
	base DynamicType
}

// newMemTime wraps base in a time instance; the definition's base type must
// equal the base's definition.
func newMemTime(definition *SpecialType, attributes DynamicType, base DynamicType) (*memSpecial, error) {
	if definition == nil {
		return nil, newError(ErrInvalidArgument, "definition argument is nil")
	}
	if definition.SpecialKind() != SpecialTime {
		return nil, newError(ErrInvalidArgument, "definition is not a time type")
	}
	if base == nil || definition.BaseType() != base.Definition() {
		return nil, newError(ErrInvalidArgument,
			"definition of base type should be the same as base type of definition")
	}
	t := &memSpecial{
		memType: memType{definition: definition, attributes: attributes},
		base:    base,
	}
	if attributes == nil {
		if err := t.createAttributesRecord(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *memSpecial) specialBase() DynamicType { return t.base }

func (t *memSpecial) byteLength(p *Product) (int64, error) {
	if scalar, ok := t.base.(scalarInstance); ok {
		return scalar.byteLength(p)
	}
	return 0, nil
}

func (t *memSpecial) readInt64(p *Product) (int64, error) {
	v, err := t.readDouble(p)
	return int64(v), err
}

func (t *memSpecial) readUint64(p *Product) (uint64, error) {
	v, err := t.readDouble(p)
	return uint64(v), err
}

// readDouble evaluates the time expression of the definition against the
// base value.
func (t *memSpecial) readDouble(p *Product) (float64, error) {
	definition := t.definition.(*SpecialType)
	if definition.SpecialKind() != SpecialTime {
		return 0, newError(ErrInvalidArgument, "cannot read no-data value")
	}
	expr := definition.TimeExpression()
	if expr == nil {
		return 0, newError(ErrDataDefinition, "time type has no conversion expression")
	}
	var cursor Cursor
	cursor.product = p
	cursor.n = 1
	cursor.stack[0] = cursorFrame{typ: t.base, index: -1, bitOffset: -1}
	return expr.EvalDouble(&cursor)
}

func (t *memSpecial) readString(p *Product) (string, error) {
	if scalar, ok := t.base.(scalarInstance); ok {
		return scalar.readString(p)
	}
	return "", newError(ErrInvalidArgument, "cannot read special type as string")
}

func (t *memSpecial) readBytes(p *Product, offset, length int64) ([]byte, error) {
	if scalar, ok := t.base.(scalarInstance); ok {
		return scalar.readBytes(p, offset, length)
	}
	return nil, newError(ErrInvalidArgument, "cannot read special type as bytes")
}

// no-data and empty-record dynamic singletons, one per format. They live as
// long as the process and are shared by every product of that format.
var (
	memSingletonMu       sync.Mutex
	memNoDataSingleton   [numFormats]*memSpecial
	memEmptyRecSingleton [numFormats]*memRecord
)

// memNoData returns the no-data instance for format; its base type is an
// empty raw blob.
func memNoData(format Format) *memSpecial {
	memSingletonMu.Lock()
	defer memSingletonMu.Unlock()
	if memNoDataSingleton[format] == nil {
		definition := typeNoDataSingleton(format)
		base, err := newMemData(definition.BaseType(), nil, nil, nil)
		if err != nil {
			// the empty raw base can not fail validation
			panic(err)
		}
		memNoDataSingleton[format] = &memSpecial{
			memType: memType{definition: definition},
			base:    base,
		}
	}
	return memNoDataSingleton[format]
}

// memEmptyRecord returns the canonical empty record instance for format,
// used as the attributes of types that have none.
func memEmptyRecord(format Format) *memRecord {
	memSingletonMu.Lock()
	defer memSingletonMu.Unlock()
	if memEmptyRecSingleton[format] == nil {
		t, err := newMemRecord(typeEmptyRecordSingleton(format), nil)
		if err != nil {
			panic(err)
		}
		memEmptyRecSingleton[format] = t
	}
	return memEmptyRecSingleton[format]
}

// Typed convenience builders. Each verifies the definition's read type and
// bit size and stores the value's byte representation in the arena.

func encodeUint(v uint64, bits int64) []byte {
	b := make([]byte, bits/8)
	switch bits {
	case 8:
		b[0] = byte(v)
	case 16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 64:
		binary.LittleEndian.PutUint64(b, v)
	}
	return b
}

func newMemNumber(definition *NumberType, attributes DynamicType, product *Product,
	readType NativeType, v uint64) (*memData, error) {
	if definition == nil {
		return nil, newError(ErrInvalidArgument, "definition argument is nil")
	}
	if definition.ReadType() != readType {
		return nil, newError(ErrInvalidArgument,
			"definition read type (%s) does not match value type (%s)",
			definition.ReadType(), readType)
	}
	return newMemData(definition, attributes, product, encodeUint(v, readType.bitSize()))
}

func newMemInt8(definition *NumberType, attributes DynamicType, product *Product, v int8) (*memData, error) {
	return newMemNumber(definition, attributes, product, NativeTypeInt8, uint64(uint8(v)))
}

func newMemUint8(definition *NumberType, attributes DynamicType, product *Product, v uint8) (*memData, error) {
	return newMemNumber(definition, attributes, product, NativeTypeUint8, uint64(v))
}

func newMemInt16(definition *NumberType, attributes DynamicType, product *Product, v int16) (*memData, error) {
	return newMemNumber(definition, attributes, product, NativeTypeInt16, uint64(uint16(v)))
}

func newMemUint16(definition *NumberType, attributes DynamicType, product *Product, v uint16) (*memData, error) {
	return newMemNumber(definition, attributes, product, NativeTypeUint16, uint64(v))
}

func newMemInt32(definition *NumberType, attributes DynamicType, product *Product, v int32) (*memData, error) {
	return newMemNumber(definition, attributes, product, NativeTypeInt32, uint64(uint32(v)))
}

func newMemUint32(definition *NumberType, attributes DynamicType, product *Product, v uint32) (*memData, error) {
	return newMemNumber(definition, attributes, product, NativeTypeUint32, uint64(v))
}

func newMemInt64(definition *NumberType, attributes DynamicType, product *Product, v int64) (*memData, error) {
	return newMemNumber(definition, attributes, product, NativeTypeInt64, uint64(v))
}

func newMemUint64(definition *NumberType, attributes DynamicType, product *Product, v uint64) (*memData, error) {
	return newMemNumber(definition, attributes, product, NativeTypeUint64, v)
}

func newMemFloat(definition *NumberType, attributes DynamicType, product *Product, v float32) (*memData, error) {
	return newMemNumber(definition, attributes, product, NativeTypeFloat, uint64(math.Float32bits(v)))
}

func newMemDouble(definition *NumberType, attributes DynamicType, product *Product, v float64) (*memData, error) {
	return newMemNumber(definition, attributes, product, NativeTypeDouble, math.Float64bits(v))
}

// newMemInteger stores v using the width of the definition's read type.
func newMemInteger(definition *NumberType, attributes DynamicType, product *Product, v int64) (*memData, error) {
	switch definition.ReadType() {
	case NativeTypeInt8:
		return newMemInt8(definition, attributes, product, int8(v))
	case NativeTypeUint8:
		return newMemUint8(definition, attributes, product, uint8(v))
	case NativeTypeInt16:
		return newMemInt16(definition, attributes, product, int16(v))
	case NativeTypeUint16:
		return newMemUint16(definition, attributes, product, uint16(v))
	case NativeTypeInt32:
		return newMemInt32(definition, attributes, product, int32(v))
	case NativeTypeUint32:
		return newMemUint32(definition, attributes, product, uint32(v))
	case NativeTypeInt64:
		return newMemInt64(definition, attributes, product, v)
	case NativeTypeUint64:
		return newMemUint64(definition, attributes, product, uint64(v))
	}
	return nil, newError(ErrInvalidArgument,
		"definition read type (%s) is not an integer type", definition.ReadType())
}

// newMemReal stores v using the width of the definition's read type.
func newMemReal(definition *NumberType, attributes DynamicType, product *Product, v float64) (*memData, error) {
	switch definition.ReadType() {
	case NativeTypeFloat:
		return newMemFloat(definition, attributes, product, float32(v))
	case NativeTypeDouble:
		return newMemDouble(definition, attributes, product, v)
	}
	return nil, newError(ErrInvalidArgument,
		"definition read type (%s) is not a floating point type", definition.ReadType())
}

func newMemChar(definition *TextType, attributes DynamicType, product *Product, v byte) (*memData, error) {
	if definition.ReadType() != NativeTypeChar {
		return nil, newError(ErrInvalidArgument, "definition read type is not char")
	}
	return newMemData(definition, attributes, product, []byte{v})
}

func newMemString(definition *TextType, attributes DynamicType, product *Product, str string) (*memData, error) {
	if definition.ReadType() != NativeTypeString {
		return nil, newError(ErrInvalidArgument, "definition read type is not string")
	}
	return newMemData(definition, attributes, product, []byte(str))
}

func newMemRaw(definition *RawType, attributes DynamicType, product *Product, data []byte) (*memData, error) {
	return newMemData(definition, attributes, product, data)
}

// memTypeUpdate reconciles a dynamic type tree that was assembled without a
// preloaded definition against definition. It can wrap a single element in
// a one-element array, promote an empty record into a text value, grow a
// record to an enlarged definition (marking absent fields optional) and
// recurses into attributes. Any other mismatch is a data definition error.
// The (possibly replaced) dynamic type is returned.
func memTypeUpdate(t DynamicType, definition Type) (DynamicType, error) {
	if t.Backend() == BackendASCII || t.Backend() == BackendBinary {
		return t, nil
	}

	if t.Definition() != definition {
		if arrayDef, ok := definition.(*ArrayType); ok && t.Definition().TypeClass() != ArrayClass {
			// convert the single element into an array of a single element
			array, err := newMemArray(arrayDef, nil)
			if err != nil {
				return nil, err
			}
			element, err := memTypeUpdate(t, arrayDef.BaseType())
			if err != nil {
				return nil, err
			}
			if arrayDef.NumElements() >= 0 {
				err = array.setElement(0, element)
			} else {
				err = array.addElement(element)
			}
			if err != nil {
				return nil, err
			}
			return memTypeUpdate(array, definition)
		}
		textDef, isText := definition.(*TextType)
		if record, isRecord := t.(*memRecord); isRecord && isText &&
			record.recordDefinition().NumFields() == 0 {
			// convert the empty record to a text value, keeping attributes
			text, err := newMemData(textDef, record.attributes, nil, nil)
			if err != nil {
				return nil, err
			}
			return memTypeUpdate(text, definition)
		}
		return nil, newError(ErrDataDefinition, "dynamic type does not match definition")
	}

	switch v := t.(type) {
	case *memRecord:
		recordDef := v.recordDefinition()
		for len(v.fields) < recordDef.NumFields() {
			v.fields = append(v.fields, nil)
		}
		for i := 0; i < recordDef.NumFields(); i++ {
			if v.fields[i] == nil {
				recordDef.Field(i).Optional = true
				continue
			}
			updated, err := memTypeUpdate(v.fields[i], recordDef.Field(i).Type)
			if err != nil {
				return nil, err
			}
			v.fields[i] = updated
		}
	case *memArray:
		base := v.arrayDefinition().BaseType()
		for i := range v.elements {
			if v.elements[i] == nil {
				continue
			}
			updated, err := memTypeUpdate(v.elements[i], base)
			if err != nil {
				return nil, err
			}
			v.elements[i] = updated
		}
	case *memData:
	case *memSpecial:
		if v.base != nil {
			updated, err := memTypeUpdate(v.base, v.definition.(*SpecialType).BaseType())
			if err != nil {
				return nil, err
			}
			v.base = updated
		}
	}

	if mt, ok := t.(attributedInstance); ok {
		if mt.attributesType() == nil && definition.Attributes() != nil {
			attrs, err := newMemRecord(definition.Attributes(), nil)
			if err != nil {
				return nil, err
			}
			setMemAttributes(t, attrs)
		}
		if attrs := mt.attributesType(); attrs != nil && definition.Attributes() != nil {
			updated, err := memTypeUpdate(attrs, definition.Attributes())
			if err != nil {
				return nil, err
			}
			setMemAttributes(t, updated)
		}
	}

	return t, nil
}

func setMemAttributes(t DynamicType, attributes DynamicType) {
	switch v := t.(type) {
	case *memRecord:
		v.attributes = attributes
	case *memArray:
		v.attributes = attributes
	case *memData:
		v.attributes = attributes
	case *memSpecial:
		v.attributes = attributes
	}
}
