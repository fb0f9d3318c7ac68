// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"bytes"
	"errors"
	"testing"
)

func newTestProduct() *Product {
	return &Product{Filename: "in-memory", Format: FormatRINEX, opts: &Options{}}
}

func newInt32Type(format Format) *NumberType {
	t := NewNumberType(format, IntegerClass)
	t.SetReadType(NativeTypeInt32)
	return t
}

func newDoubleType(format Format) *NumberType {
	return NewNumberType(format, RealClass)
}

func TestMemRecordFields(t *testing.T) {
	product := newTestProduct()

	definition := NewRecordType(FormatRINEX)
	if err := definition.CreateField("a", newInt32Type(FormatRINEX)); err != nil {
		t.Fatal(err)
	}
	if err := definition.AddField(&Field{RealName: "b", Type: newDoubleType(FormatRINEX),
		Optional: true}); err != nil {
		t.Fatal(err)
	}

	record, err := newMemRecord(definition, nil)
	if err != nil {
		t.Fatal(err)
	}
	if record.numRecordFields() != 2 {
		t.Fatalf("numRecordFields got %d, want 2", record.numRecordFields())
	}

	// mandatory field missing
	if err := record.validate(); err == nil {
		t.Fatal("validate succeeded with missing mandatory field")
	}

	value, err := newMemInt32(definition.Field(0).Type.(*NumberType), nil, product, 17)
	if err != nil {
		t.Fatal(err)
	}
	if err := record.addField("a", value, false); err != nil {
		t.Fatal(err)
	}
	// optional field may stay empty
	if err := record.validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	// a populated slot can not be set twice
	if err := record.addField("a", value, false); err == nil {
		t.Fatal("setting field twice succeeded")
	}
	// unknown names are rejected
	if err := record.addField("nope", value, false); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("addField(nope) got %v, want ErrInvalidName", err)
	}
	// incompatible definitions are rejected
	other, err := newMemInt32(newInt32Type(FormatRINEX), nil, product, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := record.addField("b", other, false); err == nil {
		t.Fatal("adding field of incompatible type succeeded")
	}
}

func TestMemRecordUnion(t *testing.T) {
	if _, err := newMemRecord(NewUnionType(FormatRINEX), nil); err == nil {
		t.Fatal("newMemRecord accepted a union definition")
	}
}

func TestMemArrayDynamic(t *testing.T) {
	product := newTestProduct()
	base := newInt32Type(FormatRINEX)
	definition := NewArrayType(FormatRINEX)
	definition.AddVariableDimension() //nolint:errcheck
	definition.SetBaseType(base)

	array, err := newMemArray(definition, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 40; i++ {
		element, err := newMemInt32(base, nil, product, int32(i))
		if err != nil {
			t.Fatal(err)
		}
		if err := array.addElement(element); err != nil {
			t.Fatal(err)
		}
	}
	if array.numArrayElements() != 40 {
		t.Fatalf("numArrayElements got %d, want 40", array.numArrayElements())
	}
	if err := array.validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	element, err := array.arrayElement(7)
	if err != nil {
		t.Fatal(err)
	}
	v, err := element.(scalarInstance).readInt64(product)
	if err != nil {
		t.Fatal(err)
	}
	if v != 7 {
		t.Fatalf("element 7 reads %d", v)
	}
}

func TestMemArrayStatic(t *testing.T) {
	product := newTestProduct()
	base := newDoubleType(FormatRINEX)
	definition := NewArrayType(FormatRINEX)
	definition.AddFixedDimension(2) //nolint:errcheck
	definition.SetBaseType(base)

	array, err := newMemArray(definition, nil)
	if err != nil {
		t.Fatal(err)
	}
	// adding to a fixed size array must go through setElement
	if err := array.validate(); err == nil {
		t.Fatal("validate succeeded with empty slots")
	}
	for i := 0; i < 2; i++ {
		element, err := newMemDouble(base, nil, product, float64(i)+0.5)
		if err != nil {
			t.Fatal(err)
		}
		if err := array.setElement(int64(i), element); err != nil {
			t.Fatal(err)
		}
	}
	if err := array.validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if err := array.setElement(2, nil); err == nil {
		t.Fatal("setElement out of range succeeded")
	}
}

func TestMemDataArena(t *testing.T) {
	product := newTestProduct()

	text := NewTextType(FormatRINEX)
	first, err := newMemString(text, nil, product, "hello")
	if err != nil {
		t.Fatal(err)
	}
	second, err := newMemString(text, nil, product, "world!")
	if err != nil {
		t.Fatal(err)
	}

	if first.offset+first.length > product.memSize() {
		t.Fatal("data view exceeds arena")
	}
	if second.offset+second.length > product.memSize() {
		t.Fatal("data view exceeds arena")
	}
	if !bytes.Equal(product.mem[first.offset:first.offset+first.length], []byte("hello")) {
		t.Fatal("arena does not hold the first value")
	}
	if !bytes.Equal(product.mem[second.offset:second.offset+second.length], []byte("world!")) {
		t.Fatal("arena does not hold the second value")
	}

	s, err := second.readString(product)
	if err != nil {
		t.Fatal(err)
	}
	if s != "world!" {
		t.Fatalf("readString got %q", s)
	}
}

func TestMemDataArenaGrowth(t *testing.T) {
	product := newTestProduct()
	raw := NewRawType(FormatRINEX)

	// force several arena growth steps and verify earlier views stay intact
	block := bytes.Repeat([]byte{0xAB}, 1000)
	var first *memData
	for i := 0; i < 20; i++ {
		data, err := newMemRaw(raw, nil, product, block)
		if err != nil {
			t.Fatal(err)
		}
		if first == nil {
			first = data
		}
	}
	view, err := first.readBytes(product, 0, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(view, block) {
		t.Fatal("first view changed after arena growth")
	}
}

func TestMemDataFixedSizeValidation(t *testing.T) {
	product := newTestProduct()
	text := NewTextType(FormatRINEX)
	text.SetByteSize(4)
	if _, err := newMemString(text, nil, product, "12345"); err == nil {
		t.Fatal("newMemString accepted data with mismatching fixed size")
	}
	char := NewTextType(FormatRINEX)
	char.SetReadType(NativeTypeChar)
	if _, err := newMemData(char, nil, product, []byte("ab")); err == nil {
		t.Fatal("newMemData accepted two bytes for char data")
	}
}

func TestMemNumberReads(t *testing.T) {
	product := newTestProduct()

	i16 := NewNumberType(FormatRINEX, IntegerClass)
	i16.SetReadType(NativeTypeInt16)
	value, err := newMemInt16(i16, nil, product, -1234)
	if err != nil {
		t.Fatal(err)
	}
	v, err := value.readInt64(product)
	if err != nil {
		t.Fatal(err)
	}
	if v != -1234 {
		t.Fatalf("readInt64 got %d", v)
	}

	f64 := newDoubleType(FormatRINEX)
	dvalue, err := newMemDouble(f64, nil, product, 2.5)
	if err != nil {
		t.Fatal(err)
	}
	d, err := dvalue.readDouble(product)
	if err != nil {
		t.Fatal(err)
	}
	if d != 2.5 {
		t.Fatalf("readDouble got %f", d)
	}

	// read type and builder must agree
	if _, err := newMemInt32(i16, nil, product, 1); err == nil {
		t.Fatal("newMemInt32 accepted an int16 definition")
	}
}

func TestMemTypeUpdateGrowRecord(t *testing.T) {
	definition := NewRecordType(FormatXML)
	if err := definition.CreateField("a", newInt32Type(FormatXML)); err != nil {
		t.Fatal(err)
	}
	record, err := newMemRecord(definition, nil)
	if err != nil {
		t.Fatal(err)
	}
	product := newTestProduct()
	value, err := newMemInt32(definition.Field(0).Type.(*NumberType), nil, product, 5)
	if err != nil {
		t.Fatal(err)
	}
	if err := record.addField("a", value, false); err != nil {
		t.Fatal(err)
	}

	// enlarge the definition after the instance was built
	if err := definition.CreateField("b", NewTextType(FormatXML)); err != nil {
		t.Fatal(err)
	}
	updated, err := memTypeUpdate(record, definition)
	if err != nil {
		t.Fatalf("memTypeUpdate failed: %v", err)
	}
	grown := updated.(*memRecord)
	if grown.numRecordFields() != 2 {
		t.Fatalf("numRecordFields got %d, want 2", grown.numRecordFields())
	}
	// the freshly added, unpopulated field must have become optional
	if !definition.Field(1).Optional {
		t.Fatal("missing field was not marked optional")
	}
}

func TestMemTypeUpdateWrapInArray(t *testing.T) {
	product := newTestProduct()
	base := NewTextType(FormatXML)
	value, err := newMemString(base, nil, product, "single")
	if err != nil {
		t.Fatal(err)
	}

	arrayDef := NewArrayType(FormatXML)
	arrayDef.AddVariableDimension() //nolint:errcheck
	arrayDef.SetBaseType(base)

	updated, err := memTypeUpdate(value, arrayDef)
	if err != nil {
		t.Fatalf("memTypeUpdate failed: %v", err)
	}
	array, ok := updated.(*memArray)
	if !ok {
		t.Fatalf("update did not wrap the element in an array (%T)", updated)
	}
	if array.numArrayElements() != 1 {
		t.Fatalf("numArrayElements got %d, want 1", array.numArrayElements())
	}
}

func TestMemTypeUpdateMismatch(t *testing.T) {
	product := newTestProduct()
	value, err := newMemString(NewTextType(FormatXML), nil, product, "text")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := memTypeUpdate(value, newInt32Type(FormatXML)); !errors.Is(err, ErrDataDefinition) {
		t.Fatalf("memTypeUpdate got %v, want ErrDataDefinition", err)
	}
}

func TestMemNoDataSingleton(t *testing.T) {
	a := memNoData(FormatRINEX)
	b := memNoData(FormatRINEX)
	if a != b {
		t.Fatal("no-data instances for the same format differ")
	}
	if a == memNoData(FormatSP3) {
		t.Fatal("no-data instances shared between formats")
	}
	if a.Definition().TypeClass() != SpecialClass {
		t.Fatal("no-data definition is not a special type")
	}
}

func TestMemEmptyRecordSingleton(t *testing.T) {
	a := memEmptyRecord(FormatRINEX)
	if a != memEmptyRecord(FormatRINEX) {
		t.Fatal("empty record instances for the same format differ")
	}
	if a.numRecordFields() != 0 {
		t.Fatal("empty record has fields")
	}
}
