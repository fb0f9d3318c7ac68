// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"bytes"
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/saferwall/coda/log"
)

// dataBlockSize is the growth granularity of the product byte arena.
const dataBlockSize = 4096

// A Product represents an open product file.
type Product struct {
	Filename string
	FileSize int64
	Format   Format

	rootType          DynamicType
	productDefinition interface{}
	productVariables  map[string][]int64

	// mem is the byte arena backing in-memory scalar values. It grows in
	// blocks and is never compacted; offsets handed out stay valid until
	// the product is closed.
	mem []byte

	data   mmap.MMap
	header []byte
	f      *os.File
	opts   *Options
	logger *log.Helper

	// external is the handle of an external library backing this product
	// (e.g. the HDF5 file handle).
	external interface{}
}

// Open opens the product file with the given name, autodetecting its
// format.
func Open(name string, opts *Options) (*Product, error) {

	f, err := os.Open(name)
	if err != nil {
		return nil, newError(ErrFileOpen, "could not open file %s: %v", name, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, newError(ErrFileOpen, "could not stat file %s: %v", name, err)
	}

	product := &Product{
		Filename: name,
		FileSize: fi.Size(),
		f:        f,
	}
	if opts != nil {
		product.opts = opts
	} else {
		product.opts = &Options{}
	}

	var logger log.Logger
	if product.opts.Logger == nil {
		logger = log.NewStdLogger(os.Stdout)
		product.logger = log.NewHelper(log.NewFilter(logger,
			log.FilterLevel(log.LevelError)))
	} else {
		product.logger = log.NewHelper(product.opts.Logger)
	}

	useMmap := !product.opts.DisableMmap && os.Getenv("CODA_USE_MMAP") != "0"
	if useMmap && fi.Size() > 0 {
		data, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			return nil, newError(ErrFileOpen, "could not map file %s: %v", name, err)
		}
		product.data = data
		product.header = data
	} else {
		// read just enough of the file to detect the format
		header := make([]byte, 128)
		n, _ := f.ReadAt(header, 0)
		product.header = header[:n]
	}

	product.Format, err = detectFormat(product.header, name)
	if err != nil {
		product.Close()
		return nil, err
	}

	switch product.Format {
	case FormatRINEX:
		err = openRINEX(product)
	case FormatSP3:
		err = openSP3(product)
	case FormatHDF5:
		err = openHDF5(product)
	default:
		err = newError(ErrUnsupportedProduct,
			"%s backend is not available for %s", product.Format, name)
	}
	if err != nil {
		product.Close()
		return nil, err
	}

	return product, nil
}

// detectFormat infers the product format from magic numbers and the fixed
// header layout of the text based formats.
func detectFormat(header []byte, name string) (Format, error) {
	if len(header) >= 8 && bytes.Equal(header[:8], []byte("\x89HDF\r\n\x1a\n")) {
		return FormatHDF5, nil
	}
	if len(header) >= 4 {
		switch {
		case bytes.Equal(header[:4], []byte{0x0e, 0x03, 0x13, 0x01}):
			return FormatHDF4, nil
		case bytes.Equal(header[:3], []byte("CDF")) && (header[3] == 1 || header[3] == 2):
			return FormatNetCDF, nil
		case bytes.Equal(header[:4], []byte{0xcd, 0xf3, 0x00, 0x01}),
			bytes.Equal(header[:4], []byte{0xcd, 0xf2, 0x60, 0x02}),
			bytes.Equal(header[:4], []byte{0x00, 0x00, 0xff, 0xff}):
			return FormatCDF, nil
		case bytes.Equal(header[:4], []byte("GRIB")):
			return FormatGRIB, nil
		}
	}
	if len(header) >= 2 && header[0] == '#' &&
		(header[1] == 'a' || header[1] == 'c' || header[1] == 'd') {
		return FormatSP3, nil
	}
	if len(header) >= 80 && bytes.HasPrefix(header[60:], []byte("RINEX VERSION / TYPE")) {
		return FormatRINEX, nil
	}
	if bytes.HasPrefix(bytes.TrimLeft(header, " \t\r\n"), []byte("<?xml")) {
		return FormatXML, nil
	}
	return 0, newError(ErrUnsupportedProduct, "unable to determine product format of file %s", name)
}

// Close closes the product, releasing the dynamic type tree, the byte
// arena and the underlying file.
func (p *Product) Close() error {
	p.rootType = nil
	p.mem = nil
	if p.external != nil {
		if closer, ok := p.external.(io.Closer); ok {
			closer.Close() //nolint:errcheck
		}
		p.external = nil
	}
	if p.data != nil {
		p.data.Unmap() //nolint:errcheck
		p.data = nil
	}
	if p.f != nil {
		err := p.f.Close()
		p.f = nil
		return err
	}
	return nil
}

// RootType returns the dynamic type of the product root.
func (p *Product) RootType() DynamicType {
	return p.rootType
}

// memAppend copies data into the product byte arena, growing it in blocks,
// and returns the offset of the copy. Existing offsets stay valid across
// growth.
func (p *Product) memAppend(data []byte) int64 {
	offset := int64(len(p.mem))
	need := len(p.mem) + len(data)
	if need > cap(p.mem) {
		blocks := (need-1)/dataBlockSize + 1
		grown := make([]byte, len(p.mem), blocks*dataBlockSize)
		copy(grown, p.mem)
		p.mem = grown
	}
	p.mem = append(p.mem, data...)
	return offset
}

// memSize returns the current size of the byte arena.
func (p *Product) memSize() int64 {
	return int64(len(p.mem))
}

// VariableSize returns the number of entries of a product variable.
func (p *Product) VariableSize(name string) (int, error) {
	values, ok := p.productVariables[name]
	if !ok {
		return 0, newError(ErrInvalidName, "product does not have a variable '%s'", name)
	}
	return len(values), nil
}

// Variable returns entry i of a product variable.
func (p *Product) Variable(name string, i int) (int64, error) {
	values, ok := p.productVariables[name]
	if !ok {
		return 0, newError(ErrInvalidName, "product does not have a variable '%s'", name)
	}
	if i < 0 || i >= len(values) {
		return 0, newError(ErrInvalidIndex,
			"index (%d) is not in the range [0,%d)", i, len(values))
	}
	return values[i], nil
}

// setVariable stores a product variable.
func (p *Product) setVariable(name string, values []int64) {
	if p.productVariables == nil {
		p.productVariables = make(map[string][]int64)
	}
	p.productVariables[name] = values
}
