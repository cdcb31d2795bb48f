package cpu

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ezrec/ulang/source"
)

// ValueType is the numeric type of an expression value.
type ValueType int

const (
	VALUE_INTEGER = ValueType(0) // int
	VALUE_FLOAT   = ValueType(1) // float
)

func (vt ValueType) String() string {
	if vt == VALUE_FLOAT {
		return "float"
	}
	return "int"
}

// Value is the result of evaluating an expression.
type Value struct {
	Type       ValueType
	Int        int32
	Float      float32
	Unresolved bool // Depends on a label that is not placed yet.
}

// IntValue creates an integer value.
func IntValue(i int32) Value {
	return Value{Type: VALUE_INTEGER, Int: i}
}

// FloatValue creates a float value.
func FloatValue(fl float32) Value {
	return Value{Type: VALUE_FLOAT, Float: fl}
}

// AsFloat returns the value as a float, converting integers numerically.
func (v Value) AsFloat() float32 {
	if v.Type == VALUE_FLOAT {
		return v.Float
	}
	return float32(v.Int)
}

// Bits returns the 4-byte machine representation of the value.
func (v Value) Bits() uint32 {
	if v.Type == VALUE_FLOAT {
		return math.Float32bits(v.Float)
	}
	return uint32(v.Int)
}

func (v Value) String() string {
	if v.Type == VALUE_FLOAT {
		return strconv.FormatFloat(float64(v.Float), 'g', -1, 32)
	}
	return strconv.Itoa(int(v.Int))
}

// Constant is a named value defined with the const directive or predefined
// by the host.
type Constant struct {
	Name  string
	Span  source.Span
	Value Value
}

// LabelResolver returns the absolute address of a label.
type LabelResolver func(name string) (address int32, ok bool)

// evaluator parses and folds constant expressions from a token stream.
// With a nil resolver, label references evaluate to an unresolved zero.
type evaluator struct {
	ts        *tokenStream
	constants map[string]*Constant
	resolve   LabelResolver

	split int // Token index of a negative literal read as binary minus.
}

// parseInteger converts decimal or 0x-prefixed literal text into an int32,
// accepting the full signed and unsigned 32-bit ranges.
func parseInteger(text string) (value int32, ok bool) {
	text = strings.TrimSuffix(text, "b")
	neg := strings.HasPrefix(text, "-")
	digits := strings.TrimPrefix(text, "-")

	var v uint64
	var err error
	if strings.HasPrefix(digits, "0x") {
		v, err = strconv.ParseUint(digits[2:], 16, 64)
	} else {
		v, err = strconv.ParseUint(digits, 10, 64)
	}
	if err != nil || v > math.MaxUint32 || (neg && v > -math.MinInt32) {
		return
	}

	if neg {
		return int32(-int64(v)), true
	}
	return int32(uint32(v)), true
}

// evaluate parses one expression starting at the cursor.
func (ev *evaluator) evaluate() (value Value, span source.Span, err error) {
	start := ev.ts.index
	ev.split = -1
	value, err = ev.binary(0)
	if err != nil {
		return
	}
	span = ev.ts.spanFrom(start)
	return
}

var binaryLevels = [...]string{
	"|&^",
	"+-",
	"*/%",
}

// operator returns the binary operator at the cursor for a precedence level.
func (ev *evaluator) operator(level int) (op byte, ok bool) {
	tok := ev.ts.peek()
	switch tok.Type {
	case TOKEN_SPECIAL_CHAR:
		text := tok.Text()
		if len(text) == 1 && strings.IndexByte(binaryLevels[level], text[0]) >= 0 {
			return text[0], true
		}
	case TOKEN_INTEGER, TOKEN_FLOAT:
		// "a -1" is a subtraction, not two adjacent values.
		if level == 1 && strings.HasPrefix(tok.Text(), "-") {
			ev.split = ev.ts.index
			return '-', true
		}
	}
	return
}

func (ev *evaluator) binary(level int) (left Value, err error) {
	if level == len(binaryLevels) {
		return ev.unary()
	}

	left, err = ev.binary(level + 1)
	if err != nil {
		return
	}

	for {
		op, ok := ev.operator(level)
		if !ok {
			return
		}
		opTok := ev.ts.peek()
		if ev.split != ev.ts.index {
			ev.ts.next()
		}

		var right Value
		right, err = ev.binary(level + 1)
		if err != nil {
			return
		}

		left, err = applyBinary(op, left, right, opTok.Span)
		if err != nil {
			return
		}
	}
}

// applyBinary folds a binary operator, promoting mixed operands to float.
func applyBinary(op byte, a, b Value, span source.Span) (out Value, err error) {
	unresolved := a.Unresolved || b.Unresolved

	isFloat := a.Type == VALUE_FLOAT || b.Type == VALUE_FLOAT
	switch op {
	case '|', '&', '^', '%':
		if isFloat {
			err = source.Errorf(ErrSemantic, span, "Operator '%c' requires integer operands", op)
			return
		}
	}

	if unresolved {
		out = IntValue(0)
		if isFloat {
			out = FloatValue(0)
		}
		out.Unresolved = true
		return
	}

	if isFloat {
		x, y := a.AsFloat(), b.AsFloat()
		switch op {
		case '+':
			out = FloatValue(x + y)
		case '-':
			out = FloatValue(x - y)
		case '*':
			out = FloatValue(x * y)
		case '/':
			out = FloatValue(x / y)
		}
		return
	}

	x, y := a.Int, b.Int
	switch op {
	case '|':
		out = IntValue(x | y)
	case '&':
		out = IntValue(x & y)
	case '^':
		out = IntValue(x ^ y)
	case '+':
		out = IntValue(x + y)
	case '-':
		out = IntValue(x - y)
	case '*':
		out = IntValue(x * y)
	case '/', '%':
		if y == 0 {
			err = source.Errorf(ErrSemantic, span, "Division by zero")
			return
		}
		if op == '/' {
			out = IntValue(x / y)
		} else {
			out = IntValue(x % y)
		}
	}
	return
}

func (ev *evaluator) unary() (value Value, err error) {
	tok := ev.ts.peek()
	if tok.Type == TOKEN_SPECIAL_CHAR && (tok.Is("~") || tok.Is("+") || tok.Is("-")) {
		ev.ts.next()
		value, err = ev.unary()
		if err != nil {
			return
		}
		switch tok.Text() {
		case "~":
			if value.Type == VALUE_FLOAT {
				err = source.Errorf(ErrSemantic, tok.Span, "Operator '~' requires an integer operand")
				return
			}
			value.Int = ^value.Int
		case "-":
			if value.Type == VALUE_FLOAT {
				value.Float = -value.Float
			} else {
				value.Int = -value.Int
			}
		}
		return
	}

	return ev.primary()
}

func (ev *evaluator) primary() (value Value, err error) {
	index := ev.ts.index
	tok := ev.ts.next()
	text := tok.Text()
	if ev.split == index {
		text = text[1:]
		ev.split = -1
	}

	switch tok.Type {
	case TOKEN_INTEGER:
		i, ok := parseInteger(text)
		if !ok {
			err = source.Errorf(ErrSemantic, tok.Span, "Invalid integer literal '%v'", tok.Text())
			return
		}
		value = IntValue(i)
	case TOKEN_FLOAT:
		fl, perr := strconv.ParseFloat(text, 32)
		if perr != nil {
			err = source.Errorf(ErrSemantic, tok.Span, "Invalid float literal '%v'", tok.Text())
			return
		}
		value = FloatValue(float32(fl))
	case TOKEN_SPECIAL_CHAR:
		if !tok.Is("(") {
			err = source.Errorf(ErrSyntax, tok.Span, "Expected a value, got '%v'", text)
			return
		}
		value, err = ev.binary(0)
		if err != nil {
			return
		}
		_, err = ev.ts.expect(")")
	case TOKEN_IDENTIFIER:
		value, err = ev.identifier(tok)
	default:
		err = source.Errorf(ErrSyntax, tok.Span, "Expected a value, got %v", tok.Type.String())
	}
	return
}

func (ev *evaluator) identifier(tok Token) (value Value, err error) {
	name := tok.Text()
	if _, ok := registerByName[name]; ok {
		err = source.Errorf(ErrSemantic, tok.Span, "Register '%v' can not be used in an expression", name)
		return
	}

	if constant, ok := ev.constants[name]; ok {
		value = constant.Value
		return
	}

	if ev.resolve == nil {
		value = IntValue(0)
		value.Unresolved = true
		return
	}

	address, ok := ev.resolve(name)
	if !ok {
		err = source.Errorf(ErrSemantic, tok.Span, "Unknown label '%v'", name)
		return
	}
	value = IntValue(address)
	return
}

// EvaluateExpression evaluates a standalone expression, as used by debugger
// front ends. Labels resolve through resolve, which may be nil.
func EvaluateExpression(file *source.File, constants map[string]*Constant, resolve LabelResolver) (value Value, err error) {
	tokens, err := Tokenize(file)
	if err != nil {
		return
	}

	ts := &tokenStream{tokens: tokens}
	ev := &evaluator{ts: ts, constants: constants, resolve: resolve}
	value, _, err = ev.evaluate()
	if err != nil {
		return
	}
	if ts.hasMore() {
		tok := ts.peek()
		err = source.Errorf(ErrSyntax, tok.Span, "Unexpected '%v' after expression", tok.Text())
		return
	}
	if value.Unresolved {
		err = fmt.Errorf("%w: %v", ErrUnresolved, file.Name)
	}
	return
}
