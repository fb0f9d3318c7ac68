// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package coda

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ExpressionType is the result type of an expression.
type ExpressionType int

// Expression result types.
const (
	ExpressionBoolean ExpressionType = iota
	ExpressionDouble
	ExpressionString
)

// Expression is a compiled expression that can be evaluated against a
// cursor. The file filter consumes boolean expressions; time types use a
// double expression that converts their base value into seconds since the
// 2000 epoch.
type Expression interface {
	ResultType() ExpressionType
	EvalBool(cursor *Cursor) (bool, error)
	EvalDouble(cursor *Cursor) (float64, error)
	EvalString(cursor *Cursor) (string, error)
}

// Filter expression grammar. Supported operands are boolean literals,
// numbers, quoted strings and the product functions filename(), filesize()
// and format().

type filterAST struct {
	Or []*filterAnd `parser:"@@ ( 'or' @@ )*"`
}

type filterAnd struct {
	Term []*filterTerm `parser:"@@ ( 'and' @@ )*"`
}

type filterTerm struct {
	Not *filterTerm `parser:"  'not' @@"`
	Cmp *filterCmp  `parser:"| @@"`
}

type filterCmp struct {
	Left  *filterOperand `parser:"@@"`
	Op    string         `parser:"( @( '==' | '!=' | '<=' | '>=' | '<' | '>' )"`
	Right *filterOperand `parser:"  @@ )?"`
}

type filterOperand struct {
	True   bool           `parser:"  @'true'"`
	False  bool           `parser:"| @'false'"`
	Number *float64       `parser:"| @Float"`
	Int    *int64         `parser:"| @Int"`
	Str    *string        `parser:"| @String"`
	Call   *filterCall    `parser:"| @@"`
	Sub    *filterAST     `parser:"| '(' @@ ')'"`
}

type filterCall struct {
	Name string `parser:"@Ident '(' ')'"`
}

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Float", Pattern: `[0-9]+\.[0-9]+`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Operator", Pattern: `==|!=|<=|>=|<|>|\(|\)`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var filterParser = participle.MustBuild[filterAST](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// ExpressionFromString compiles an expression string.
func ExpressionFromString(str string) (Expression, error) {
	ast, err := filterParser.ParseString("", str)
	if err != nil {
		return nil, newError(ErrExpression, "could not parse expression '%s': %v", str, err)
	}
	return &filterExpression{ast: ast}, nil
}

type filterExpression struct {
	ast *filterAST
}

// exprValue is the dynamically typed result of a sub-expression.
type exprValue struct {
	kind ExpressionType
	b    bool
	d    float64
	s    string
}

func (e *filterExpression) ResultType() ExpressionType {
	return astType(e.ast)
}

func astType(ast *filterAST) ExpressionType {
	if len(ast.Or) > 1 || len(ast.Or[0].Term) > 1 {
		return ExpressionBoolean
	}
	term := ast.Or[0].Term[0]
	if term.Not != nil {
		return ExpressionBoolean
	}
	if term.Cmp.Op != "" {
		return ExpressionBoolean
	}
	return operandType(term.Cmp.Left)
}

func operandType(op *filterOperand) ExpressionType {
	switch {
	case op.True || op.False:
		return ExpressionBoolean
	case op.Number != nil || op.Int != nil:
		return ExpressionDouble
	case op.Str != nil:
		return ExpressionString
	case op.Call != nil:
		if op.Call.Name == "filesize" {
			return ExpressionDouble
		}
		return ExpressionString
	case op.Sub != nil:
		return astType(op.Sub)
	}
	return ExpressionBoolean
}

func (e *filterExpression) EvalBool(cursor *Cursor) (bool, error) {
	v, err := evalAST(e.ast, cursor)
	if err != nil {
		return false, err
	}
	if v.kind != ExpressionBoolean {
		return false, newError(ErrExpression, "expression does not result in a boolean value")
	}
	return v.b, nil
}

func (e *filterExpression) EvalDouble(cursor *Cursor) (float64, error) {
	v, err := evalAST(e.ast, cursor)
	if err != nil {
		return 0, err
	}
	if v.kind != ExpressionDouble {
		return 0, newError(ErrExpression, "expression does not result in a numerical value")
	}
	return v.d, nil
}

func (e *filterExpression) EvalString(cursor *Cursor) (string, error) {
	v, err := evalAST(e.ast, cursor)
	if err != nil {
		return "", err
	}
	if v.kind != ExpressionString {
		return "", newError(ErrExpression, "expression does not result in a string value")
	}
	return v.s, nil
}

func evalAST(ast *filterAST, cursor *Cursor) (exprValue, error) {
	if len(ast.Or) == 1 {
		return evalAnd(ast.Or[0], cursor)
	}
	for _, term := range ast.Or {
		v, err := evalAnd(term, cursor)
		if err != nil {
			return exprValue{}, err
		}
		if v.kind != ExpressionBoolean {
			return exprValue{}, newError(ErrExpression, "operand of 'or' is not boolean")
		}
		if v.b {
			return v, nil
		}
	}
	return exprValue{kind: ExpressionBoolean, b: false}, nil
}

func evalAnd(and *filterAnd, cursor *Cursor) (exprValue, error) {
	if len(and.Term) == 1 {
		return evalTerm(and.Term[0], cursor)
	}
	for _, term := range and.Term {
		v, err := evalTerm(term, cursor)
		if err != nil {
			return exprValue{}, err
		}
		if v.kind != ExpressionBoolean {
			return exprValue{}, newError(ErrExpression, "operand of 'and' is not boolean")
		}
		if !v.b {
			return v, nil
		}
	}
	return exprValue{kind: ExpressionBoolean, b: true}, nil
}

func evalTerm(term *filterTerm, cursor *Cursor) (exprValue, error) {
	if term.Not != nil {
		v, err := evalTerm(term.Not, cursor)
		if err != nil {
			return exprValue{}, err
		}
		if v.kind != ExpressionBoolean {
			return exprValue{}, newError(ErrExpression, "operand of 'not' is not boolean")
		}
		v.b = !v.b
		return v, nil
	}
	left, err := evalOperand(term.Cmp.Left, cursor)
	if err != nil {
		return exprValue{}, err
	}
	if term.Cmp.Op == "" {
		return left, nil
	}
	right, err := evalOperand(term.Cmp.Right, cursor)
	if err != nil {
		return exprValue{}, err
	}
	if left.kind != right.kind {
		return exprValue{}, newError(ErrExpression, "comparison of incompatible types")
	}
	var cmp int
	switch left.kind {
	case ExpressionDouble:
		switch {
		case left.d < right.d:
			cmp = -1
		case left.d > right.d:
			cmp = 1
		}
	case ExpressionString:
		cmp = strings.Compare(left.s, right.s)
	default:
		return exprValue{}, newError(ErrExpression, "cannot compare boolean values")
	}
	result := false
	switch term.Cmp.Op {
	case "==":
		result = cmp == 0
	case "!=":
		result = cmp != 0
	case "<":
		result = cmp < 0
	case "<=":
		result = cmp <= 0
	case ">":
		result = cmp > 0
	case ">=":
		result = cmp >= 0
	}
	return exprValue{kind: ExpressionBoolean, b: result}, nil
}

func evalOperand(op *filterOperand, cursor *Cursor) (exprValue, error) {
	switch {
	case op.True:
		return exprValue{kind: ExpressionBoolean, b: true}, nil
	case op.False:
		return exprValue{kind: ExpressionBoolean, b: false}, nil
	case op.Number != nil:
		return exprValue{kind: ExpressionDouble, d: *op.Number}, nil
	case op.Int != nil:
		return exprValue{kind: ExpressionDouble, d: float64(*op.Int)}, nil
	case op.Str != nil:
		return exprValue{kind: ExpressionString, s: *op.Str}, nil
	case op.Call != nil:
		return evalCall(op.Call, cursor)
	case op.Sub != nil:
		return evalAST(op.Sub, cursor)
	}
	return exprValue{}, newError(ErrExpression, "empty operand")
}

func evalCall(call *filterCall, cursor *Cursor) (exprValue, error) {
	if cursor == nil || cursor.product == nil {
		return exprValue{}, newError(ErrExpression,
			"%s() can not be evaluated without a product", call.Name)
	}
	switch call.Name {
	case "filename":
		return exprValue{kind: ExpressionString,
			s: filepath.Base(cursor.product.Filename)}, nil
	case "filesize":
		return exprValue{kind: ExpressionDouble,
			d: float64(cursor.product.FileSize)}, nil
	case "format":
		return exprValue{kind: ExpressionString,
			s: cursor.product.Format.String()}, nil
	}
	return exprValue{}, newError(ErrExpression, "unknown function '%s'", call.Name)
}

// timeExpression converts a time string read from the cursor position into
// seconds since 2000-01-01 using a '|' separated list of date/time format
// patterns. An all-blank string yields NaN.
type timeExpression struct {
	formats string
}

func newTimeExpression(formats string) Expression {
	return &timeExpression{formats: formats}
}

func (e *timeExpression) ResultType() ExpressionType { return ExpressionDouble }

func (e *timeExpression) EvalBool(cursor *Cursor) (bool, error) {
	return false, newError(ErrExpression, "expression does not result in a boolean value")
}

func (e *timeExpression) EvalString(cursor *Cursor) (string, error) {
	return "", newError(ErrExpression, "expression does not result in a string value")
}

func (e *timeExpression) EvalDouble(cursor *Cursor) (float64, error) {
	str, err := cursor.ReadString()
	if err != nil {
		return 0, err
	}
	str = strings.TrimRight(str, " ")
	if str == "" {
		return nan(), nil
	}
	return TimeStringToDouble(e.formats, str)
}
