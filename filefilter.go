// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"errors"
	"os"
)

// nameBlockSize is the growth granularity of the path buffer.
const nameBlockSize = 1024

// FilefilterStatus is the match result reported for a single file.
type FilefilterStatus int

// Filter match results.
const (
	FilefilterMatch FilefilterStatus = iota
	FilefilterNoMatch
	FilefilterUnsupportedFile
	FilefilterCouldNotOpenFile
	FilefilterCouldNotAccessDirectory
	FilefilterError
)

// FilefilterCallback is invoked for every file that is processed. A zero
// return value continues the walk; any other value terminates it and is
// returned to the caller of MatchFilefilter.
type FilefilterCallback func(filepath string, status FilefilterStatus,
	errorMessage string, userdata interface{}) int

// nameBuffer is a growable path buffer, expanded in fixed increments to
// avoid a per-entry allocation during directory traversal.
type nameBuffer struct {
	buffer []byte
}

func newNameBuffer() *nameBuffer {
	return &nameBuffer{buffer: make([]byte, 0, nameBlockSize)}
}

func (n *nameBuffer) append(str string) {
	if len(n.buffer)+len(str) > cap(n.buffer) {
		room := cap(n.buffer)
		for room < len(n.buffer)+len(str) {
			room += nameBlockSize
		}
		grown := make([]byte, len(n.buffer), room)
		copy(grown, n.buffer)
		n.buffer = grown
	}
	n.buffer = append(n.buffer, str...)
}

func (n *nameBuffer) truncate(length int) {
	n.buffer = n.buffer[:length]
}

func (n *nameBuffer) String() string {
	return string(n.buffer)
}

func matchFile(expr Expression, pathName *nameBuffer, callback FilefilterCallback,
	userdata interface{}) int {
	path := pathName.String()

	product, err := Open(path, nil)
	if err != nil && errors.Is(err, ErrFileOpen) {
		// maybe not enough address space to map the file in memory =>
		// disable memory mapping of files and try again
		product, err = Open(path, &Options{DisableMmap: true})
	}
	if err != nil {
		if errors.Is(err, ErrUnsupportedProduct) {
			return callback(path, FilefilterUnsupportedFile, "", userdata)
		}
		return callback(path, FilefilterCouldNotOpenFile, err.Error(), userdata)
	}

	var cursor Cursor
	if err := cursor.SetProduct(product); err != nil {
		product.Close()
		return callback(path, FilefilterError, err.Error(), userdata)
	}
	filterResult, err := expr.EvalBool(&cursor)
	if err != nil {
		product.Close()
		return callback(path, FilefilterError, err.Error(), userdata)
	}
	product.Close()

	if filterResult {
		return callback(path, FilefilterMatch, "", userdata)
	}
	return callback(path, FilefilterNoMatch, "", userdata)
}

func matchDir(expr Expression, pathName *nameBuffer, callback FilefilterCallback,
	userdata interface{}) int {
	entries, err := os.ReadDir(pathName.String())
	if err != nil {
		return callback(pathName.String(), FilefilterCouldNotAccessDirectory,
			"could not recurse into directory", userdata)
	}

	bufferLength := len(pathName.buffer)
	for _, entry := range entries {
		if entry.Name() == "." || entry.Name() == ".." {
			continue
		}
		pathName.append(string(os.PathSeparator))
		pathName.append(entry.Name())

		if result := matchFilepath(true, expr, pathName, callback, userdata); result != 0 {
			return result
		}

		pathName.truncate(bufferLength)
	}
	return 0
}

func matchFilepath(ignoreOtherFileTypes bool, expr Expression, pathName *nameBuffer,
	callback FilefilterCallback, userdata interface{}) int {
	info, err := os.Stat(pathName.String())
	if err != nil {
		if os.IsNotExist(err) {
			return callback(pathName.String(), FilefilterError,
				"no such file or directory", userdata)
		}
		return callback(pathName.String(), FilefilterError, err.Error(), userdata)
	}

	switch {
	case info.IsDir():
		return matchDir(expr, pathName, callback, userdata)
	case info.Mode().IsRegular():
		return matchFile(expr, pathName, callback, userdata)
	case !ignoreOtherFileTypes:
		return callback(pathName.String(), FilefilterError,
			"not a directory or regular file", userdata)
	}
	return 0
}

// MatchFilefilter matches a series of files and directories against a
// boolean filter expression. Directories are processed recursively; the
// callback is invoked for every file with the match result. An empty
// filter matches every file that can be opened. The callback's non-zero
// return value terminates the walk and is returned to the caller.
func MatchFilefilter(filefilter string, filepaths []string, callback FilefilterCallback,
	userdata interface{}) (int, error) {
	if len(filepaths) == 0 || callback == nil {
		return 0, newError(ErrInvalidArgument, "invalid argument")
	}

	if filefilter == "" {
		filefilter = "true"
	}
	expr, err := ExpressionFromString(filefilter)
	if err != nil {
		return 0, err
	}
	if expr.ResultType() != ExpressionBoolean {
		return 0, newError(ErrExpression, "expression does not result in a boolean value")
	}

	pathName := newNameBuffer()
	for _, path := range filepaths {
		pathName.append(path)
		if result := matchFilepath(false, expr, pathName, callback, userdata); result != 0 {
			return result, nil
		}
		pathName.truncate(0)
	}

	return 0, nil
}
