// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDetectFormat(t *testing.T) {

	rinexHeader := strings.Repeat(" ", 60) + "RINEX VERSION / TYPE"

	tests := []struct {
		name   string
		header []byte
		out    Format
	}{
		{"hdf5", []byte("\x89HDF\r\n\x1a\nxxxx"), FormatHDF5},
		{"hdf4", []byte{0x0e, 0x03, 0x13, 0x01, 0x00}, FormatHDF4},
		{"netcdf classic", []byte("CDF\x01rest"), FormatNetCDF},
		{"netcdf 64bit", []byte("CDF\x02rest"), FormatNetCDF},
		{"cdf", []byte{0xcd, 0xf3, 0x00, 0x01, 0x00}, FormatCDF},
		{"grib", []byte("GRIB7777"), FormatGRIB},
		{"sp3", []byte("#cP2019"), FormatSP3},
		{"rinex", []byte(rinexHeader), FormatRINEX},
		{"xml", []byte("<?xml version=\"1.0\"?>"), FormatXML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, err := detectFormat(tt.header, tt.name)
			if err != nil {
				t.Fatalf("detectFormat failed: %v", err)
			}
			if format != tt.out {
				t.Errorf("detectFormat got %s, want %s", format, tt.out)
			}
		})
	}

	if _, err := detectFormat([]byte{0xde, 0xad, 0xbe, 0xef}, "blob"); !errors.Is(err, ErrUnsupportedProduct) {
		t.Errorf("detectFormat on random bytes got %v, want ErrUnsupportedProduct", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/product/file", nil); !errors.Is(err, ErrFileOpen) {
		t.Errorf("Open on missing file got %v, want ErrFileOpen", err)
	}
}

func TestOpenWithoutMmap(t *testing.T) {
	path := writeTestFile(t, "nommap.rnx", rinexObservationFixture())
	product, err := Open(path, &Options{DisableMmap: true})
	if err != nil {
		t.Fatalf("Open without mmap failed: %v", err)
	}
	defer product.Close()
	if product.Format != FormatRINEX {
		t.Errorf("format got %s, want rinex", product.Format)
	}
}

func TestProductMemAppend(t *testing.T) {
	product := newTestProduct()

	first := product.memAppend([]byte("abc"))
	second := product.memAppend(bytes.Repeat([]byte{0x7f}, 8000))
	if first != 0 {
		t.Fatalf("first offset got %d, want 0", first)
	}
	if second != 3 {
		t.Fatalf("second offset got %d, want 3", second)
	}
	if product.memSize() != 8003 {
		t.Fatalf("memSize got %d, want 8003", product.memSize())
	}
	if !bytes.Equal(product.mem[0:3], []byte("abc")) {
		t.Fatal("arena lost the first block after growth")
	}
}

func TestProductVariables(t *testing.T) {
	product := newTestProduct()
	product.setVariable("scan_offsets", []int64{10, 20, 30})

	size, err := product.VariableSize("scan_offsets")
	if err != nil {
		t.Fatal(err)
	}
	if size != 3 {
		t.Fatalf("VariableSize got %d, want 3", size)
	}
	v, err := product.Variable("scan_offsets", 1)
	if err != nil {
		t.Fatal(err)
	}
	if v != 20 {
		t.Fatalf("Variable got %d, want 20", v)
	}
	if _, err := product.Variable("scan_offsets", 3); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("Variable out of range got %v, want ErrInvalidIndex", err)
	}
	if _, err := product.VariableSize("missing"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("VariableSize(missing) got %v, want ErrInvalidName", err)
	}
}
