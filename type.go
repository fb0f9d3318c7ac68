// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"sync"
)

// Type describes the shape of a data element. Types form a directed acyclic
// graph: a type may be shared by reference between records, arrays and
// products. Types are immutable once they are referenced from a dynamic
// type.
type Type interface {
	TypeClass() TypeClass
	Format() Format
	Description() string
	ReadType() NativeType
	// BitSize is the storage size in bits, or -1 when it is not fixed.
	BitSize() int64
	// Attributes returns the record type describing the attributes of this
	// type, or nil when the type has none.
	Attributes() *RecordType
}

type baseType struct {
	format      Format
	description string
	readType    NativeType
	bitSize     int64
	attributes  *RecordType
}

func (t *baseType) Format() Format          { return t.format }
func (t *baseType) Description() string     { return t.description }
func (t *baseType) ReadType() NativeType    { return t.readType }
func (t *baseType) BitSize() int64          { return t.bitSize }
func (t *baseType) Attributes() *RecordType { return t.attributes }

// SetDescription attaches a description to a type.
func SetDescription(t Type, description string) {
	switch v := t.(type) {
	case *NumberType:
		v.description = description
	case *TextType:
		v.description = description
	case *RawType:
		v.description = description
	case *RecordType:
		v.description = description
	case *ArrayType:
		v.description = description
	case *SpecialType:
		v.description = description
	}
}

// NumberType describes an integer or real value.
type NumberType struct {
	baseType
	class TypeClass
	unit  string
	// endianness only applies to binary data.
	endianness Endianness
}

// NewNumberType creates a number type; class is IntegerClass or RealClass.
func NewNumberType(format Format, class TypeClass) *NumberType {
	readType := NativeTypeDouble
	if class == IntegerClass {
		readType = NativeTypeInt64
	}
	return &NumberType{
		baseType: baseType{format: format, readType: readType, bitSize: -1},
		class:    class,
	}
}

func (t *NumberType) TypeClass() TypeClass { return t.class }

// Unit returns the measurement unit, or "".
func (t *NumberType) Unit() string { return t.unit }

// SetUnit attaches a measurement unit.
func (t *NumberType) SetUnit(unit string) { t.unit = unit }

// SetReadType overrides the native type the number decodes to. The bit size
// follows the read type unless it was set explicitly.
func (t *NumberType) SetReadType(readType NativeType) {
	t.readType = readType
	if t.bitSize < 0 {
		t.bitSize = readType.bitSize()
	}
}

// SetEndianness sets the byte order of binary data.
func (t *NumberType) SetEndianness(endianness Endianness) { t.endianness = endianness }

// TextType describes character data, either a single char or a string.
type TextType struct {
	baseType
}

// NewTextType creates a text type with a variable byte size and string read
// type.
func NewTextType(format Format) *TextType {
	return &TextType{baseType{format: format, readType: NativeTypeString, bitSize: -1}}
}

func (t *TextType) TypeClass() TypeClass { return TextClass }

// SetReadType switches between char and string interpretation.
func (t *TextType) SetReadType(readType NativeType) { t.readType = readType }

// SetByteSize fixes the byte size of the text.
func (t *TextType) SetByteSize(size int64) { t.bitSize = size * 8 }

// RawType describes an opaque byte blob.
type RawType struct {
	baseType
}

// NewRawType creates a raw type with a variable byte size.
func NewRawType(format Format) *RawType {
	return &RawType{baseType{format: format, readType: NativeTypeBytes, bitSize: -1}}
}

func (t *RawType) TypeClass() TypeClass { return RawClass }

// SetByteSize fixes the byte size of the blob.
func (t *RawType) SetByteSize(size int64) { t.bitSize = size * 8 }

// Field is a single named entry of a record type.
type Field struct {
	// RealName is the name as it occurs in the product.
	RealName string
	// Name is the sanitized identifier derived from RealName, unique within
	// the record.
	Name     string
	Type     Type
	Optional bool
	Hidden   bool
}

// RecordType describes an ordered sequence of named fields.
type RecordType struct {
	baseType
	fields       []*Field
	realNameHash *hashtable
	nameHash     *hashtable
	isUnion      bool
}

// NewRecordType creates an empty record type.
func NewRecordType(format Format) *RecordType {
	return &RecordType{
		baseType:     baseType{format: format, readType: NativeTypeNotAvailable, bitSize: -1},
		realNameHash: newHashtable(true),
		nameHash:     newHashtable(false),
	}
}

// NewUnionType creates an empty record type with union semantics: only one
// of the fields is available at a time.
func NewUnionType(format Format) *RecordType {
	t := NewRecordType(format)
	t.isUnion = true
	return t
}

func (t *RecordType) TypeClass() TypeClass { return RecordClass }

// IsUnion reports whether the record has union semantics.
func (t *RecordType) IsUnion() bool { return t.isUnion }

// NumFields returns the number of fields.
func (t *RecordType) NumFields() int { return len(t.fields) }

// Field returns the field at index i, or nil when out of range.
func (t *RecordType) Field(i int) *Field {
	if i < 0 || i >= len(t.fields) {
		return nil
	}
	return t.fields[i]
}

// AddField appends field to the record. The sanitized name and the real name
// must both be unique within the record.
func (t *RecordType) AddField(field *Field) error {
	if field.Type == nil {
		return newError(ErrInvalidArgument, "field '%s' has no type", field.RealName)
	}
	if field.Name == "" {
		field.Name = identifierFromName(field.RealName, t.nameHash)
	}
	if !t.nameHash.addName(field.Name) {
		return newError(ErrInvalidArgument,
			"record already has a field with name '%s'", field.Name)
	}
	if !t.realNameHash.addName(field.RealName) {
		return newError(ErrInvalidArgument,
			"record already has a field with real name '%s'", field.RealName)
	}
	t.fields = append(t.fields, field)
	return nil
}

// CreateField appends a new field with the given real name and type.
func (t *RecordType) CreateField(realName string, fieldType Type) error {
	return t.AddField(&Field{RealName: realName, Type: fieldType})
}

// FieldIndexFromName returns the index of the field with the given sanitized
// or real name, or -1.
func (t *RecordType) FieldIndexFromName(name string) int {
	if index := t.nameHash.indexFromName(name); index >= 0 {
		return index
	}
	return t.realNameHash.indexFromName(name)
}

// FieldIndexFromRealName returns the index of the field with the given real
// name, or -1.
func (t *RecordType) FieldIndexFromRealName(realName string) int {
	return t.realNameHash.indexFromName(realName)
}

// SetAttributes attaches an attributes record to a type.
func SetAttributes(t Type, attributes *RecordType) error {
	switch v := t.(type) {
	case *NumberType:
		v.attributes = attributes
	case *TextType:
		v.attributes = attributes
	case *RawType:
		v.attributes = attributes
	case *RecordType:
		v.attributes = attributes
	case *ArrayType:
		v.attributes = attributes
	case *SpecialType:
		v.attributes = attributes
	default:
		return newError(ErrInvalidArgument, "cannot set attributes on type")
	}
	return nil
}

// ArrayType describes a multidimensional array over a single base type.
type ArrayType struct {
	baseType
	base Type
	// dim holds the extents; -1 marks a variable sized dimension.
	dim []int64
}

// NewArrayType creates an array type without dimensions.
func NewArrayType(format Format) *ArrayType {
	return &ArrayType{
		baseType: baseType{format: format, readType: NativeTypeNotAvailable, bitSize: -1},
	}
}

func (t *ArrayType) TypeClass() TypeClass { return ArrayClass }

// SetBaseType sets the element type.
func (t *ArrayType) SetBaseType(base Type) { t.base = base }

// BaseType returns the element type.
func (t *ArrayType) BaseType() Type { return t.base }

// AddFixedDimension appends a dimension with a fixed extent.
func (t *ArrayType) AddFixedDimension(extent int64) error {
	if len(t.dim) == MaxNumDims {
		return newError(ErrInvalidArgument, "maximum number of dimensions (%d) exceeded", MaxNumDims)
	}
	if extent < 0 {
		return newError(ErrInvalidArgument, "dimension extent (%d) is negative", extent)
	}
	t.dim = append(t.dim, extent)
	return nil
}

// AddVariableDimension appends a dimension whose extent is instance
// specific.
func (t *ArrayType) AddVariableDimension() error {
	if len(t.dim) == MaxNumDims {
		return newError(ErrInvalidArgument, "maximum number of dimensions (%d) exceeded", MaxNumDims)
	}
	t.dim = append(t.dim, -1)
	return nil
}

// NumDims returns the number of dimensions.
func (t *ArrayType) NumDims() int { return len(t.dim) }

// Dim returns the dimension extents; a -1 entry is variable sized.
func (t *ArrayType) Dim() []int64 { return t.dim }

// NumElements returns the product of the fixed dimensions, or -1 when any
// dimension is variable sized.
func (t *ArrayType) NumElements() int64 {
	num := int64(1)
	for _, d := range t.dim {
		if d < 0 {
			return -1
		}
		num *= d
	}
	return num
}

// SpecialType interprets a base type as a higher level value. A time type
// carries an expression that converts the base value into seconds since
// 2000-01-01T00:00:00.
type SpecialType struct {
	baseType
	kind SpecialKind
	base Type
	expr Expression
}

// NewTimeType creates a time type; expr converts the base representation
// into seconds since the 2000 epoch.
func NewTimeType(format Format, expr Expression) *SpecialType {
	return &SpecialType{
		baseType: baseType{format: format, readType: NativeTypeDouble, bitSize: -1},
		kind:     SpecialTime,
		expr:     expr,
	}
}

func (t *SpecialType) TypeClass() TypeClass { return SpecialClass }

// SpecialKind returns the special interpretation kind.
func (t *SpecialType) SpecialKind() SpecialKind { return t.kind }

// SetBaseType sets the underlying storage type.
func (t *SpecialType) SetBaseType(base Type) {
	t.base = base
	if t.bitSize < 0 && base != nil {
		t.bitSize = base.BitSize()
	}
}

// BaseType returns the underlying storage type.
func (t *SpecialType) BaseType() Type { return t.base }

// TimeExpression returns the base-to-seconds conversion expression.
func (t *SpecialType) TimeExpression() Expression { return t.expr }

// no-data singletons, one per format.
var (
	noDataTypeMu        sync.Mutex
	noDataTypeSingleton [numFormats]*SpecialType
)

// typeNoDataSingleton returns the no-data type for format. Its base type is
// an empty raw blob.
func typeNoDataSingleton(format Format) *SpecialType {
	noDataTypeMu.Lock()
	defer noDataTypeMu.Unlock()
	if noDataTypeSingleton[format] == nil {
		base := NewRawType(format)
		base.SetByteSize(0)
		t := &SpecialType{
			baseType: baseType{format: format, readType: NativeTypeNotAvailable, bitSize: 0},
			kind:     SpecialNoData,
			base:     base,
		}
		noDataTypeSingleton[format] = t
	}
	return noDataTypeSingleton[format]
}

// empty-record singletons, one per format, used for attributes of types
// that have none.
var (
	emptyRecordTypeMu        sync.Mutex
	emptyRecordTypeSingleton [numFormats]*RecordType
)

func typeEmptyRecordSingleton(format Format) *RecordType {
	emptyRecordTypeMu.Lock()
	defer emptyRecordTypeMu.Unlock()
	if emptyRecordTypeSingleton[format] == nil {
		emptyRecordTypeSingleton[format] = NewRecordType(format)
	}
	return emptyRecordTypeSingleton[format]
}
