// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"testing"
)

func TestHDF5TypeForValues(t *testing.T) {

	tests := []struct {
		values   interface{}
		class    TypeClass
		readType NativeType
	}{
		{[]int8{1}, IntegerClass, NativeTypeInt8},
		{[]uint8{1}, IntegerClass, NativeTypeUint8},
		{[]int16{1}, IntegerClass, NativeTypeInt16},
		{[]uint16{1}, IntegerClass, NativeTypeUint16},
		{[]int32{1}, IntegerClass, NativeTypeInt32},
		{[]uint32{1}, IntegerClass, NativeTypeUint32},
		{[]int64{1}, IntegerClass, NativeTypeInt64},
		{[]uint64{1}, IntegerClass, NativeTypeUint64},
		{[]float32{1}, RealClass, NativeTypeFloat},
		{[]float64{1}, RealClass, NativeTypeDouble},
		{[]string{"x"}, TextClass, NativeTypeString},
	}

	for _, tt := range tests {
		typ := hdf5TypeForValues(tt.values)
		if typ == nil {
			t.Fatalf("hdf5TypeForValues(%T) returned nil", tt.values)
		}
		if typ.TypeClass() != tt.class {
			t.Errorf("hdf5TypeForValues(%T) class got %s, want %s",
				tt.values, typ.TypeClass(), tt.class)
		}
		if typ.ReadType() != tt.readType {
			t.Errorf("hdf5TypeForValues(%T) read type got %s, want %s",
				tt.values, typ.ReadType(), tt.readType)
		}
		if typ.Format() != FormatHDF5 {
			t.Errorf("hdf5TypeForValues(%T) format got %s", tt.values, typ.Format())
		}
	}

	// unsupported payload representations yield nil and get ignored
	if typ := hdf5TypeForValues([]complex128{1}); typ != nil {
		t.Error("hdf5TypeForValues accepted complex data")
	}
}

func TestHDF5DatasetCursor(t *testing.T) {
	product := newTestProduct()
	product.Format = FormatHDF5

	base := NewNumberType(FormatHDF5, RealClass)
	definition := NewArrayType(FormatHDF5)
	definition.SetBaseType(base)
	if err := definition.AddFixedDimension(2); err != nil {
		t.Fatal(err)
	}
	if err := definition.AddFixedDimension(2); err != nil {
		t.Fatal(err)
	}

	dataset := &hdf5Dataset{
		definition: definition,
		dims:       []int64{2, 2},
		values:     []float64{1.5, 2.5, 3.5, 4.5},
	}
	product.rootType = dataset

	var cursor Cursor
	if err := cursor.SetProduct(product); err != nil {
		t.Fatal(err)
	}
	n, err := cursor.GetNumElements()
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Fatalf("GetNumElements got %d, want 4", n)
	}

	// row-major linearization: [1,0] is linear index 2
	if err := cursor.GotoArrayElement([]int64{1, 0}); err != nil {
		t.Fatal(err)
	}
	v, err := cursor.ReadDouble()
	if err != nil {
		t.Fatal(err)
	}
	if v != 3.5 {
		t.Fatalf("ReadDouble got %f, want 3.5", v)
	}
	if err := cursor.GotoParent(); err != nil {
		t.Fatal(err)
	}

	values, err := cursor.ReadDoubleArray()
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 4 || values[0] != 1.5 || values[3] != 4.5 {
		t.Fatalf("ReadDoubleArray got %v", values)
	}

	partial, err := cursor.ReadDoublePartialArray(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(partial) != 2 || partial[0] != 2.5 || partial[1] != 3.5 {
		t.Fatalf("ReadDoublePartialArray got %v", partial)
	}
}

func TestHDF5GroupCursor(t *testing.T) {
	product := newTestProduct()
	product.Format = FormatHDF5

	definition := NewRecordType(FormatHDF5)
	group := &hdf5Group{definition: definition}

	base := NewNumberType(FormatHDF5, IntegerClass)
	base.SetReadType(NativeTypeInt32)
	dsDef := NewArrayType(FormatHDF5)
	dsDef.SetBaseType(base)
	if err := dsDef.AddFixedDimension(3); err != nil {
		t.Fatal(err)
	}
	dataset := &hdf5Dataset{
		definition: dsDef,
		dims:       []int64{3},
		values:     []int32{7, 8, 9},
	}
	if err := definition.CreateField("counts", dsDef); err != nil {
		t.Fatal(err)
	}
	group.fields = append(group.fields, dataset)
	product.rootType = group

	var cursor Cursor
	if err := cursor.SetProduct(product); err != nil {
		t.Fatal(err)
	}
	if err := cursor.GotoRecordFieldByName("counts"); err != nil {
		t.Fatal(err)
	}
	if err := cursor.GotoArrayElementByIndex(2); err != nil {
		t.Fatal(err)
	}
	v, err := cursor.ReadInt32()
	if err != nil {
		t.Fatal(err)
	}
	if v != 9 {
		t.Fatalf("ReadInt32 got %d, want 9", v)
	}
}
