// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"sort"
	"strings"

	hdf5lib "github.com/scigolib/hdf5"
)

// The HDF5 backend instantiates the dynamic type model over the external
// HDF5 library. Groups map to records and datasets to arrays; attribute
// records are materialized eagerly through the memory backend, and each
// dataset payload is read from the library when the dataset is opened (its
// values determine the element type) and kept in memory; payload reads are
// not deferred to first access. HDF5 objects whose datatype the engine does not
// support are logged as ignored and omitted from the tree; objects reached
// twice via hard links are deduplicated silently.

// hdf5Addressed is the identity surface used for hard-link deduplication.
type hdf5Addressed interface {
	Address() uint64
}

// hdf5DatasetReader is the optional payload surface of a library dataset.
// Libraries that do not expose it get their datasets ignored, matching the
// policy for unsupported datatypes.
type hdf5DatasetReader interface {
	Read() (interface{}, error)
}

// hdf5DimsProvider optionally exposes the dataspace extents of a dataset.
type hdf5DimsProvider interface {
	Dims() []uint64
}

// hdf5AttributeLister optionally exposes the attributes of an object.
type hdf5AttributeLister interface {
	Attributes() map[string]interface{}
}

// hdf5Group is a record backed by an HDF5 group.
type hdf5Group struct {
	definition *RecordType
	fields     []DynamicType
	attributes DynamicType
}

func (t *hdf5Group) Backend() Backend            { return BackendHDF5 }
func (t *hdf5Group) Definition() Type            { return t.definition }
func (t *hdf5Group) attributesType() DynamicType { return t.attributes }
func (t *hdf5Group) numRecordFields() int64      { return int64(len(t.fields)) }

func (t *hdf5Group) recordField(i int64) (DynamicType, error) {
	if i < 0 || i >= int64(len(t.fields)) {
		return nil, newError(ErrInvalidIndex,
			"field index (%d) is not in the range [0,%d)", i, len(t.fields))
	}
	return t.fields[i], nil
}

// hdf5Dataset is an array backed by an HDF5 dataset. The payload is read
// from the library when the dataset is opened and cached.
type hdf5Dataset struct {
	definition *ArrayType
	reader     hdf5DatasetReader
	dims       []int64
	attributes DynamicType

	// values is the decoded payload, set when the dataset is opened.
	values interface{}
}

func (t *hdf5Dataset) Backend() Backend            { return BackendHDF5 }
func (t *hdf5Dataset) Definition() Type            { return t.definition }
func (t *hdf5Dataset) attributesType() DynamicType { return t.attributes }

func (t *hdf5Dataset) numArrayElements() int64 {
	n := int64(1)
	for _, d := range t.dims {
		n *= d
	}
	return n
}

func (t *hdf5Dataset) arrayDims() []int64 {
	dims := make([]int64, len(t.dims))
	copy(dims, t.dims)
	return dims
}

// load reads and caches the dataset payload.
func (t *hdf5Dataset) load() error {
	if t.values != nil {
		return nil
	}
	values, err := t.reader.Read()
	if err != nil {
		return newError(ErrHDF5, "could not read dataset: %v", err)
	}
	t.values = values
	return nil
}

func (t *hdf5Dataset) arrayElement(i int64) (DynamicType, error) {
	if i < 0 || i >= t.numArrayElements() {
		return nil, newError(ErrArrayOutOfBounds,
			"array index (%d) is not in the range [0,%d)", i, t.numArrayElements())
	}
	return &hdf5Element{dataset: t, index: i}, nil
}

// hdf5Element is a single element of an HDF5 dataset.
type hdf5Element struct {
	dataset *hdf5Dataset
	index   int64
}

func (t *hdf5Element) Backend() Backend { return BackendHDF5 }

func (t *hdf5Element) Definition() Type { return t.dataset.definition.BaseType() }

func (t *hdf5Element) value() (interface{}, error) {
	if err := t.dataset.load(); err != nil {
		return nil, err
	}
	i := int(t.index)
	switch values := t.dataset.values.(type) {
	case []int8:
		return int64(values[i]), nil
	case []uint8:
		return int64(values[i]), nil
	case []int16:
		return int64(values[i]), nil
	case []uint16:
		return int64(values[i]), nil
	case []int32:
		return int64(values[i]), nil
	case []uint32:
		return int64(values[i]), nil
	case []int64:
		return values[i], nil
	case []uint64:
		return int64(values[i]), nil
	case []float32:
		return float64(values[i]), nil
	case []float64:
		return values[i], nil
	case []string:
		return values[i], nil
	case []interface{}:
		return values[i], nil
	}
	return nil, newError(ErrHDF5, "unsupported dataset value type")
}

func (t *hdf5Element) readInt64(p *Product) (int64, error) {
	v, err := t.value()
	if err != nil {
		return 0, err
	}
	switch value := v.(type) {
	case int64:
		return value, nil
	case float64:
		return int64(value), nil
	}
	return 0, newError(ErrInvalidArgument, "cannot read string data as integer")
}

func (t *hdf5Element) readUint64(p *Product) (uint64, error) {
	v, err := t.readInt64(p)
	return uint64(v), err
}

func (t *hdf5Element) readDouble(p *Product) (float64, error) {
	v, err := t.value()
	if err != nil {
		return 0, err
	}
	switch value := v.(type) {
	case int64:
		return float64(value), nil
	case float64:
		return value, nil
	}
	return 0, newError(ErrInvalidArgument, "cannot read string data as double")
}

func (t *hdf5Element) readString(p *Product) (string, error) {
	v, err := t.value()
	if err != nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", newError(ErrInvalidArgument, "cannot read numeric data as string")
}

func (t *hdf5Element) readBytes(p *Product, offset, length int64) ([]byte, error) {
	s, err := t.readString(p)
	if err != nil {
		return nil, err
	}
	if offset < 0 || length < 0 || offset+length > int64(len(s)) {
		return nil, newError(ErrArrayOutOfBounds,
			"byte range [%d,%d) exceeds data length (%d)", offset, offset+length, len(s))
	}
	return []byte(s[offset : offset+length]), nil
}

func (t *hdf5Element) byteLength(p *Product) (int64, error) {
	s, err := t.readString(p)
	if err != nil {
		return 0, err
	}
	return int64(len(s)), nil
}

// hdf5TypeForValues maps the Go representation of a dataset payload to a
// CODA type, following the fixed size-to-read-type table.
func hdf5TypeForValues(values interface{}) Type {
	switch values.(type) {
	case []int8:
		t := NewNumberType(FormatHDF5, IntegerClass)
		t.SetReadType(NativeTypeInt8)
		return t
	case []uint8:
		t := NewNumberType(FormatHDF5, IntegerClass)
		t.SetReadType(NativeTypeUint8)
		return t
	case []int16:
		t := NewNumberType(FormatHDF5, IntegerClass)
		t.SetReadType(NativeTypeInt16)
		return t
	case []uint16:
		t := NewNumberType(FormatHDF5, IntegerClass)
		t.SetReadType(NativeTypeUint16)
		return t
	case []int32:
		t := NewNumberType(FormatHDF5, IntegerClass)
		t.SetReadType(NativeTypeInt32)
		return t
	case []uint32:
		t := NewNumberType(FormatHDF5, IntegerClass)
		t.SetReadType(NativeTypeUint32)
		return t
	case []int64:
		t := NewNumberType(FormatHDF5, IntegerClass)
		t.SetReadType(NativeTypeInt64)
		return t
	case []uint64:
		t := NewNumberType(FormatHDF5, IntegerClass)
		t.SetReadType(NativeTypeUint64)
		return t
	case []float32:
		t := NewNumberType(FormatHDF5, RealClass)
		t.SetReadType(NativeTypeFloat)
		return t
	case []float64:
		t := NewNumberType(FormatHDF5, RealClass)
		t.SetReadType(NativeTypeDouble)
		return t
	case []string:
		// variable length strings; the length is queried per element
		return NewTextType(FormatHDF5)
	}
	return nil
}

// hdf5AttributesRecord materializes an attribute map through the memory
// backend. Unsupported attribute value types are skipped.
func hdf5AttributesRecord(product *Product, attrs map[string]interface{}) (DynamicType, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	definition := NewRecordType(FormatHDF5)
	record, err := newMemRecord(definition, nil)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var value DynamicType
		switch v := attrs[name].(type) {
		case string:
			text := NewTextType(FormatHDF5)
			value, err = newMemString(text, nil, product, v)
		case int64:
			number := NewNumberType(FormatHDF5, IntegerClass)
			number.SetReadType(NativeTypeInt64)
			value, err = newMemInt64(number, nil, product, v)
		case float64:
			number := NewNumberType(FormatHDF5, RealClass)
			value, err = newMemDouble(number, nil, product, v)
		default:
			product.logger.Debugf("ignoring attribute %s: unsupported type", name)
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := record.addField(name, value, true); err != nil {
			return nil, err
		}
	}
	return record, nil
}

// hdf5Node is an intermediate tree node built from the walk paths.
type hdf5Node struct {
	name     string
	group    *hdf5lib.Group
	dataset  *hdf5lib.Dataset
	children []*hdf5Node
	byName   map[string]*hdf5Node
}

func (n *hdf5Node) child(name string) *hdf5Node {
	if c, ok := n.byName[name]; ok {
		return c
	}
	c := &hdf5Node{name: name, byName: map[string]*hdf5Node{}}
	n.byName[name] = c
	n.children = append(n.children, c)
	return c
}

// openHDF5 traverses the group/dataset graph of an HDF5 file depth first
// and builds the dynamic type tree for the product root.
func openHDF5(product *Product) error {
	file, err := hdf5lib.Open(product.Filename)
	if err != nil {
		return newError(ErrHDF5, "could not open %s: %v", product.Filename, err)
	}
	product.external = file

	root := &hdf5Node{byName: map[string]*hdf5Node{}}
	seen := map[uint64]bool{}

	file.Walk(func(path string, obj hdf5lib.Object) {
		// deduplicate objects reachable through multiple hard links
		if addressed, ok := obj.(hdf5Addressed); ok {
			if seen[addressed.Address()] {
				return
			}
			seen[addressed.Address()] = true
		}
		parts := strings.Split(strings.Trim(path, "/"), "/")
		if len(parts) == 1 && parts[0] == "" {
			return
		}
		node := root
		for _, part := range parts {
			node = node.child(part)
		}
		switch v := obj.(type) {
		case *hdf5lib.Group:
			node.group = v
		case *hdf5lib.Dataset:
			node.dataset = v
		}
	})

	rootType, err := hdf5GroupType(product, root)
	if err != nil {
		return err
	}
	product.rootType = rootType
	return nil
}

// hdf5GroupType builds the record for a group node, ignoring children whose
// type can not be represented.
func hdf5GroupType(product *Product, node *hdf5Node) (DynamicType, error) {
	definition := NewRecordType(FormatHDF5)
	group := &hdf5Group{definition: definition}
	for _, child := range node.children {
		var childType DynamicType
		var err error
		if child.dataset != nil {
			childType, err = hdf5DatasetType(product, child)
		} else {
			childType, err = hdf5GroupType(product, child)
		}
		if err != nil {
			return nil, err
		}
		if childType == nil {
			// unsupported object, silently omitted from the tree
			continue
		}
		if err := definition.CreateField(child.name, childType.Definition()); err != nil {
			return nil, err
		}
		group.fields = append(group.fields, childType)
	}
	if node.group != nil {
		if lister, ok := interface{}(node.group).(hdf5AttributeLister); ok {
			attrs, err := hdf5AttributesRecord(product, lister.Attributes())
			if err != nil {
				return nil, err
			}
			group.attributes = attrs
			if attrs != nil {
				SetAttributes(definition, attrs.Definition().(*RecordType)) //nolint:errcheck
			}
		}
	}
	return group, nil
}

// hdf5DatasetType builds the array for a dataset node. Datasets whose
// datatype or payload surface is not supported are ignored with a log
// message, like the other unsupported HDF5 type classes.
func hdf5DatasetType(product *Product, node *hdf5Node) (DynamicType, error) {
	reader, ok := interface{}(node.dataset).(hdf5DatasetReader)
	if !ok {
		product.logger.Infof("ignoring dataset %s: no payload access", node.name)
		return nil, nil
	}
	values, err := reader.Read()
	if err != nil {
		product.logger.Infof("ignoring dataset %s: %v", node.name, err)
		return nil, nil
	}
	baseType := hdf5TypeForValues(values)
	if baseType == nil {
		product.logger.Infof("ignoring dataset %s: unsupported datatype", node.name)
		return nil, nil
	}

	var dims []int64
	if provider, ok := interface{}(node.dataset).(hdf5DimsProvider); ok {
		for _, d := range provider.Dims() {
			dims = append(dims, int64(d))
		}
	}
	if len(dims) == 0 {
		dims = []int64{int64(valueLength(values))}
	}

	definition := NewArrayType(FormatHDF5)
	definition.SetBaseType(baseType)
	for _, d := range dims {
		if err := definition.AddFixedDimension(d); err != nil {
			return nil, err
		}
	}

	dataset := &hdf5Dataset{
		definition: definition,
		reader:     reader,
		dims:       dims,
		values:     values,
	}
	if lister, ok := interface{}(node.dataset).(hdf5AttributeLister); ok {
		attrs, err := hdf5AttributesRecord(product, lister.Attributes())
		if err != nil {
			return nil, err
		}
		dataset.attributes = attrs
		if attrs != nil {
			SetAttributes(definition, attrs.Definition().(*RecordType)) //nolint:errcheck
		}
	}
	return dataset, nil
}

func valueLength(values interface{}) int {
	switch v := values.(type) {
	case []int8:
		return len(v)
	case []uint8:
		return len(v)
	case []int16:
		return len(v)
	case []uint16:
		return len(v)
	case []int32:
		return len(v)
	case []uint32:
		return len(v)
	case []int64:
		return len(v)
	case []uint64:
		return len(v)
	case []float32:
		return len(v)
	case []float64:
		return len(v)
	case []string:
		return len(v)
	}
	return 0
}
