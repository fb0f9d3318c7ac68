// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// MaxNumDims is the maximum number of dimensions of a multidimensional array.
const MaxNumDims = 8

// nan is the value used for unavailable floating point data.
func nan() float64 {
	return math.NaN()
}

func isNaN(v float64) bool {
	return math.IsNaN(v)
}

func isInf(v float64) bool {
	return math.IsInf(v, 0)
}

// FormatFromString maps a format attribute value to its Format.
func FormatFromString(str string) (Format, error) {
	switch str {
	case "ascii":
		return FormatASCII, nil
	case "binary":
		return FormatBinary, nil
	case "xml":
		return FormatXML, nil
	case "hdf4":
		return FormatHDF4, nil
	case "hdf5":
		return FormatHDF5, nil
	case "cdf":
		return FormatCDF, nil
	case "netcdf":
		return FormatNetCDF, nil
	case "grib":
		return FormatGRIB, nil
	case "rinex":
		return FormatRINEX, nil
	case "sp3":
		return FormatSP3, nil
	}
	return 0, newError(ErrDataDefinition, "invalid 'format' attribute value '%s'", str)
}

// ElementNameFromXMLName returns the element name part of an expanded
// "<namespace> <element_name>" XML name. The namespace is optional.
func ElementNameFromXMLName(xmlName string) string {
	if i := strings.IndexByte(xmlName, ' '); i >= 0 {
		return xmlName[i+1:]
	}
	return xmlName
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9')
}

// IsIdentifier reports whether name matches [A-Za-z][A-Za-z0-9_]*.
func IsIdentifier(name string) bool {
	if name == "" || !isAlpha(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isAlnum(name[i]) && name[i] != '_' {
			return false
		}
	}
	return true
}

// identifierFromName derives a valid identifier from name: leading
// non-alphabetic characters are stripped (falling back to "unnamed"), other
// invalid characters become '_', and a _<n> postfix makes the result unique
// within hash.
func identifierFromName(name string, hash *hashtable) string {
	for len(name) > 0 && !isAlpha(name[0]) {
		name = name[1:]
	}
	if name == "" {
		name = "unnamed"
	}

	identifier := make([]byte, len(name))
	identifier[0] = name[0]
	for i := 1; i < len(name); i++ {
		if isAlnum(name[i]) {
			identifier[i] = name[i]
		} else {
			identifier[i] = '_'
		}
	}

	if hash != nil {
		counter := 0
		candidate := string(identifier)
		for hash.indexFromName(candidate) >= 0 {
			counter++
			candidate = fmt.Sprintf("%s_%d", identifier, counter)
		}
		return candidate
	}

	return string(identifier)
}

// CIndexToFortranIndex converts an index of a multidimensional array stored
// in C-style order (last subscript fastest) to the index of an identical
// array stored in Fortran-style order (first subscript fastest).
func CIndexToFortranIndex(dim []int64, index int64) (int64, error) {
	if len(dim) > MaxNumDims {
		return -1, newError(ErrInvalidArgument,
			"num_dims argument (%d) exceeds limit (%d)", len(dim), MaxNumDims)
	}

	var d [MaxNumDims]int64
	for i := len(dim) - 1; i >= 0; i-- {
		d[i] = index % dim[i]
		index /= dim[i]
	}

	var indexf, multiplier int64 = 0, 1
	for i := 0; i < len(dim); i++ {
		indexf += multiplier * d[i]
		multiplier *= dim[i]
	}

	return indexf, nil
}

func pathSeparator() byte {
	if runtime.GOOS == "windows" {
		return ';'
	}
	return ':'
}

// FindDefinitionFile looks up filename in the definition search path taken
// from the CODA_DEFINITION environment variable. It returns "" when the
// file is not found.
func FindDefinitionFile(filename string) string {
	return pathFindFile(os.Getenv("CODA_DEFINITION"), filename)
}

// pathFindFile looks for filename in each component of searchpath and
// returns the first location that refers to a regular file, or "" when the
// file is not found.
func pathFindFile(searchpath, filename string) string {
	if searchpath == "" {
		return ""
	}
	for _, component := range strings.Split(searchpath, string(pathSeparator())) {
		if component == "" {
			continue
		}
		location := filepath.Join(component, filename)
		if info, err := os.Stat(location); err == nil && info.Mode().IsRegular() {
			return location
		}
	}
	return ""
}
