// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"errors"
	"testing"
)

func TestExpressionEvalBool(t *testing.T) {
	product := newTestProduct()
	product.Filename = "/data/MPL_ORB_file.sp3"
	product.FileSize = 2048
	product.rootType = memEmptyRecord(FormatSP3)

	var cursor Cursor
	if err := cursor.SetProduct(product); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in  string
		out bool
	}{
		{"true", true},
		{"false", false},
		{"not false", true},
		{"true and false", false},
		{"true or false", true},
		{"1 < 2", true},
		{"2.5 >= 2.5", true},
		{"1 != 1", false},
		{"filesize() > 1024", true},
		{"filesize() == 2048", true},
		{"filename() == \"MPL_ORB_file.sp3\"", true},
		{"format() == \"sp3\"", false},
		{"(true and false) or (1 == 1)", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			expr, err := ExpressionFromString(tt.in)
			if err != nil {
				t.Fatalf("ExpressionFromString(%s) failed: %v", tt.in, err)
			}
			if expr.ResultType() != ExpressionBoolean {
				t.Fatalf("%s is not boolean", tt.in)
			}
			got, err := expr.EvalBool(&cursor)
			if err != nil {
				t.Fatalf("EvalBool(%s) failed: %v", tt.in, err)
			}
			if got != tt.out {
				t.Errorf("EvalBool(%s) got %v, want %v", tt.in, got, tt.out)
			}
		})
	}
}

func TestExpressionFormatFunction(t *testing.T) {
	product := newTestProduct()
	product.Format = FormatRINEX
	product.rootType = memEmptyRecord(FormatRINEX)

	var cursor Cursor
	if err := cursor.SetProduct(product); err != nil {
		t.Fatal(err)
	}
	expr, err := ExpressionFromString(`format() == "rinex"`)
	if err != nil {
		t.Fatal(err)
	}
	match, err := expr.EvalBool(&cursor)
	if err != nil {
		t.Fatal(err)
	}
	if !match {
		t.Error("format() comparison did not match")
	}
}

func TestExpressionResultTypes(t *testing.T) {

	tests := []struct {
		in  string
		out ExpressionType
	}{
		{"true", ExpressionBoolean},
		{"1 < 2", ExpressionBoolean},
		{"filesize()", ExpressionDouble},
		{"3.25", ExpressionDouble},
		{"\"text\"", ExpressionString},
		{"filename()", ExpressionString},
	}

	for _, tt := range tests {
		expr, err := ExpressionFromString(tt.in)
		if err != nil {
			t.Fatalf("ExpressionFromString(%s) failed: %v", tt.in, err)
		}
		if got := expr.ResultType(); got != tt.out {
			t.Errorf("ResultType(%s) got %d, want %d", tt.in, got, tt.out)
		}
	}
}

func TestExpressionErrors(t *testing.T) {
	if _, err := ExpressionFromString("1 ==="); !errors.Is(err, ErrExpression) {
		t.Errorf("parse error got %v, want ErrExpression", err)
	}

	expr, err := ExpressionFromString("filesize()")
	if err != nil {
		t.Fatal(err)
	}
	product := newTestProduct()
	product.rootType = memEmptyRecord(FormatRINEX)
	var cursor Cursor
	if err := cursor.SetProduct(product); err != nil {
		t.Fatal(err)
	}
	if _, err := expr.EvalBool(&cursor); !errors.Is(err, ErrExpression) {
		t.Errorf("EvalBool on double expression got %v, want ErrExpression", err)
	}

	mixed, err := ExpressionFromString(`1 == "one"`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mixed.EvalBool(&cursor); !errors.Is(err, ErrExpression) {
		t.Errorf("mixed comparison got %v, want ErrExpression", err)
	}
}

func TestTimeExpression(t *testing.T) {
	product := newTestProduct()
	text := NewTextType(FormatRINEX)
	base, err := newMemString(text, nil, product, "2020 01 01 00 00  0.0000000")
	if err != nil {
		t.Fatal(err)
	}
	var cursor Cursor
	cursor.product = product
	cursor.n = 1
	cursor.stack[0] = cursorFrame{typ: base, index: -1, bitOffset: -1}

	expr := newTimeExpression(rinexEpochFormats)
	v, err := expr.EvalDouble(&cursor)
	if err != nil {
		t.Fatal(err)
	}
	want, err := TimePartsToDouble(2020, 1, 1, 0, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v != want {
		t.Errorf("EvalDouble got %f, want %f", v, want)
	}

	// an all-blank epoch yields NaN
	blank, err := newMemString(text, nil, product, "                           ")
	if err != nil {
		t.Fatal(err)
	}
	cursor.stack[0].typ = blank
	v, err = expr.EvalDouble(&cursor)
	if err != nil {
		t.Fatal(err)
	}
	if !isNaN(v) {
		t.Errorf("blank epoch got %f, want NaN", v)
	}
}
