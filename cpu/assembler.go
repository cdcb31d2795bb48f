// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"encoding/binary"
	"log"
	"math"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/ulang/source"
)

// Data directive element sizes.
var dataSize = map[string]uint32{
	"byte":  1,
	"short": 2,
	"int":   4,
	"float": 4,
}

// IMAGE_LIMIT is the largest memory image the assembler will lay out.
const IMAGE_LIMIT = 1 << 30

// Assembler is a two pass assembler for the ulang machine.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	predefine []*Constant // Predefined constants, in definition order.
}

// Predefine defines a constant visible to every assembled program.
// The expression is evaluated with Starlark, with earlier predefines in scope.
// Integer results become integer constants, float results float constants.
func (asm *Assembler) Predefine(name string, expr string) (err error) {
	if !isIdentifier(name) {
		err = ErrPredefine
		return
	}
	if _, ok := registerByName[name]; ok {
		err = ErrPredefine
		return
	}

	value, err := asm.predefineEval(expr)
	if err != nil {
		return
	}

	if asm.Verbose {
		log.Printf("asm: predefine %v = %v", name, value)
	}

	constant := &Constant{Name: name, Value: value}
	for n, pre := range asm.predefine {
		if pre.Name == name {
			asm.predefine[n] = constant
			return
		}
	}
	asm.predefine = append(asm.predefine, constant)
	return
}

// predefineEval evaluates a Starlark expression into a Value.
func (asm *Assembler) predefineEval(expr string) (value Value, err error) {
	thread := starlark.Thread{Name: "predefine"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for _, pre := range asm.predefine {
		if pre.Value.Type == VALUE_FLOAT {
			pred[pre.Name] = starlark.Float(pre.Value.Float)
		} else {
			pred[pre.Name] = starlark.MakeInt(int(pre.Value.Int))
		}
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "predefine", prog, pred)
	if err != nil {
		return
	}

	switch rc := dict["rc"].(type) {
	case starlark.Int:
		i64, ok := rc.Int64()
		if !ok || i64 > math.MaxUint32 || i64 < math.MinInt32 {
			err = ErrPredefine
			return
		}
		value = IntValue(int32(i64))
	case starlark.Float:
		value = FloatValue(float32(rc))
	default:
		err = ErrPredefine
	}

	return
}

func isIdentifier(name string) bool {
	for n := range len(name) {
		if n == 0 && !isIdentifierStart(name[n]) {
			return false
		}
		if !isIdentifierPart(name[n]) {
			return false
		}
	}
	return len(name) > 0
}

// patch is a value word whose expression refers to labels.
type patch struct {
	At      uint32  // Byte offset of the value word in the code segment.
	Start   int     // Token index of the expression.
	End     int     // Token index one past the expression.
	Operand Operand // Declared operand kind.
}

// operand is a parsed instruction operand.
type operand struct {
	Span  source.Span
	IsReg bool
	Reg   uint8
	Value Value
	Start int // Token index of the expression.
	End   int // Token index one past the expression.
}

// assembly is the state of one Assemble call.
type assembly struct {
	*Assembler
	ts      *tokenStream
	ev      *evaluator
	prog    *Program
	pending []*Label
	patches []patch
}

// Assemble translates a source file into a Program.
// On failure no Program is returned, and err is a *source.Error.
func (asm *Assembler) Assemble(file *source.File) (prog *Program, err error) {
	tokens, err := Tokenize(file)
	if err != nil {
		return
	}

	as := &assembly{
		Assembler: asm,
		ts:        &tokenStream{tokens: tokens},
		prog: &Program{
			File:      file,
			Labels:    map[string]*Label{},
			Constants: map[string]*Constant{},
		},
	}
	for _, pre := range asm.predefine {
		as.prog.Constants[pre.Name] = pre
	}
	as.ev = &evaluator{ts: as.ts, constants: as.prog.Constants}

	for as.ts.hasMore() {
		err = as.statement()
		if err != nil {
			return
		}
	}

	// Trailing labels mark the end of the reserved segment.
	as.bind(SEGMENT_RESERVED, as.prog.Reserved)

	err = as.resolve()
	if err != nil {
		return
	}

	prog = as.prog
	return
}

// bind places all pending labels at a segment offset.
func (as *assembly) bind(seg Segment, offset uint32) {
	for _, label := range as.pending {
		label.Segment = seg
		label.Offset = offset
		if as.Verbose {
			log.Printf("asm: label %v = %v+0x%x", label.Name, seg, offset)
		}
	}
	as.pending = as.pending[:0]
}

func (as *assembly) statement() (err error) {
	tok := as.ts.next()
	if tok.Type != TOKEN_IDENTIFIER {
		err = source.Errorf(ErrSyntax, tok.Span, "Unexpected '%v'", tok.Text())
		return
	}

	name := tok.Text()
	if variants, ok := LookupMnemonic(name); ok {
		return as.instruction(tok, variants)
	}

	if size, ok := dataSize[name]; ok {
		return as.data(tok, size)
	}

	switch name {
	case "reserve":
		return as.reserve()
	case "const":
		return as.constant()
	}

	if !as.ts.match(":", true) {
		err = source.Errorf(ErrSyntax, tok.Span, "Unknown instruction or directive '%v'", name)
		return
	}

	return as.label(tok)
}

// checkName verifies a new label or constant name is free.
func (as *assembly) checkName(tok Token) (err error) {
	name := tok.Text()
	if _, ok := registerByName[name]; ok {
		err = source.Errorf(ErrSemantic, tok.Span, "Register '%v' can not be used as a name", name)
		return
	}
	if _, ok := as.prog.Constants[name]; ok {
		err = source.Errorf(ErrSemantic, tok.Span, "'%v' is already defined as a constant", name)
		return
	}
	if _, ok := as.prog.Labels[name]; ok {
		err = source.Errorf(ErrSemantic, tok.Span, "'%v' is already defined as a label", name)
		return
	}
	return
}

func (as *assembly) label(tok Token) (err error) {
	err = as.checkName(tok)
	if err != nil {
		return
	}

	label := &Label{Name: tok.Text(), Span: tok.Span}
	as.prog.Labels[label.Name] = label
	as.pending = append(as.pending, label)
	return
}

// expression evaluates an expression that must not depend on labels.
func (as *assembly) expression() (value Value, span source.Span, err error) {
	value, span, err = as.ev.evaluate()
	if err != nil {
		return
	}
	if value.Unresolved {
		err = source.Errorf(ErrSemantic, span, "Expression can not refer to a label here")
	}
	return
}

// count parses the repeat count after an 'x'.
func (as *assembly) count() (count uint32, err error) {
	value, span, err := as.expression()
	if err != nil {
		return
	}
	if value.Type != VALUE_INTEGER {
		err = source.Errorf(ErrSemantic, span, "Count must be an integer")
		return
	}
	if value.Int < 0 {
		err = source.Errorf(ErrSemantic, span, "Count can not be negative")
		return
	}
	count = uint32(value.Int)
	return
}

// data handles 'byte', 'short', 'int' and 'float'.
func (as *assembly) data(tok Token, size uint32) (err error) {
	kind := tok.Text()

	var element []byte
	for {
		if kind == "byte" && as.ts.matchType(TOKEN_STRING, false) {
			str := as.ts.next()
			element = append(element, unquote(str.Text())...)
		} else {
			var value Value
			var span source.Span
			value, span, err = as.expression()
			if err != nil {
				return
			}
			var bits uint32
			switch {
			case kind == "float":
				bits = math.Float32bits(value.AsFloat())
			case value.Type == VALUE_FLOAT:
				err = source.Errorf(ErrSemantic, span, "Expected an integer for '%v'", kind)
				return
			default:
				bits = uint32(value.Int)
			}
			var word [4]byte
			binary.LittleEndian.PutUint32(word[:], bits)
			element = append(element, word[:size]...)
		}

		if !as.ts.match(",", true) {
			break
		}
	}

	// 'x' followed by ':' is the next label, not a repeat.
	count := uint32(1)
	if as.ts.match("x", false) && !as.ts.peekAt(1).Is(":") {
		as.ts.next()
		count, err = as.count()
		if err != nil {
			return
		}
	}

	if uint64(as.prog.Size())+uint64(len(element))*uint64(count) > IMAGE_LIMIT {
		err = source.Errorf(ErrSemantic, tok.Span, "Program image is too large")
		return
	}

	as.bind(SEGMENT_DATA, uint32(len(as.prog.Data)))
	for range count {
		as.prog.Data = append(as.prog.Data, element...)
	}

	return
}

// reserve handles 'reserve <type> x <count>'.
func (as *assembly) reserve() (err error) {
	tok, err := as.ts.expectType(TOKEN_IDENTIFIER)
	if err != nil {
		return
	}
	size, ok := dataSize[tok.Text()]
	if !ok {
		err = source.Errorf(ErrSyntax, tok.Span, "Expected byte, short, int or float, got '%v'", tok.Text())
		return
	}

	_, err = as.ts.expect("x")
	if err != nil {
		return
	}

	count, err := as.count()
	if err != nil {
		return
	}

	if uint64(as.prog.Size())+uint64(size)*uint64(count) > IMAGE_LIMIT {
		err = source.Errorf(ErrSemantic, tok.Span, "Program image is too large")
		return
	}

	as.bind(SEGMENT_RESERVED, as.prog.Reserved)
	as.prog.Reserved += size * count
	return
}

// constant handles 'const <name> <expr>'.
func (as *assembly) constant() (err error) {
	tok, err := as.ts.expectType(TOKEN_IDENTIFIER)
	if err != nil {
		return
	}
	err = as.checkName(tok)
	if err != nil {
		return
	}

	value, _, err := as.expression()
	if err != nil {
		return
	}

	as.prog.Constants[tok.Text()] = &Constant{Name: tok.Text(), Span: tok.Span, Value: value}
	return
}

// operand parses a register name or an expression.
func (as *assembly) operand() (op operand, err error) {
	tok := as.ts.peek()
	if tok.Type == TOKEN_IDENTIFIER {
		if reg, ok := registerByName[tok.Text()]; ok {
			as.ts.next()
			op = operand{Span: tok.Span, IsReg: true, Reg: reg}
			return
		}
	}

	op.Start = as.ts.index
	op.Value, op.Span, err = as.ev.evaluate()
	op.End = as.ts.index
	return
}

// accepts returns true if a parsed operand fits an operand kind.
func (op *operand) accepts(kind Operand) bool {
	if kind == OPERAND_REG {
		return op.IsReg
	}
	if op.IsReg {
		return false
	}

	value := op.Value
	switch kind {
	case OPERAND_LBL_INT:
		return value.Type == VALUE_INTEGER
	case OPERAND_LBL_INT_FLT:
		return true
	case OPERAND_INT:
		return value.Type == VALUE_INTEGER && !value.Unresolved
	case OPERAND_FLT:
		return !value.Unresolved
	case OPERAND_OFF:
		return value.Type == VALUE_INTEGER && !value.Unresolved &&
			value.Int >= 0 && value.Int <= CODE_OFF_MAXIMUM
	}
	return false
}

// match returns the first variant accepting all operands.
func match(variants []*Opcode, ops []operand) (oc *Opcode, ok bool) {
	for _, variant := range variants {
		if len(variant.Operands) != len(ops) {
			continue
		}
		ok = true
		for n, kind := range variant.Operands {
			if !ops[n].accepts(kind) {
				ok = false
				break
			}
		}
		if ok {
			return variant, true
		}
	}
	return
}

func (as *assembly) instruction(tok Token, variants []*Opcode) (err error) {
	arity := 0
	for _, variant := range variants {
		arity = max(arity, len(variant.Operands))
	}

	start := as.ts.index - 1
	var ops []operand
	for len(ops) < arity {
		if len(ops) > 0 && !as.ts.match(",", true) {
			break
		}
		var op operand
		op, err = as.operand()
		if err != nil {
			return
		}
		ops = append(ops, op)
	}

	oc, ok := match(variants, ops)
	if !ok {
		forms := make([]string, len(variants))
		for n, variant := range variants {
			forms[n] = "  " + variant.String()
		}
		err = source.Errorf(ErrOperand, as.ts.spanFrom(start),
			"Invalid operands for '%v'. Valid forms are:\n%v", tok.Text(), strings.Join(forms, "\n"))
		return
	}

	as.bind(SEGMENT_CODE, uint32(len(as.prog.Code)))

	var offset uint32
	var regs []uint8
	value := -1
	for n, kind := range oc.Operands {
		switch {
		case kind == OPERAND_REG:
			regs = append(regs, ops[n].Reg)
		case kind == OPERAND_OFF:
			offset = uint32(ops[n].Value.Int)
		case kind.IsValue():
			value = n
		}
	}

	pc := uint32(len(as.prog.Code))
	in := Instruction{Code: MakeCode(oc.Op, offset, regs...)}
	if value >= 0 {
		op := &ops[value]
		kind := oc.Operands[value]
		switch {
		case op.Value.Unresolved:
			as.patches = append(as.patches, patch{
				At:      pc + 4,
				Start:   op.Start,
				End:     op.End,
				Operand: kind,
			})
		case kind == OPERAND_FLT:
			in.Value = math.Float32bits(op.Value.AsFloat())
		default:
			in.Value = op.Value.Bits()
		}
	}

	as.emit(tok, oc, in)
	return
}

// emit appends an instruction to the code segment.
func (as *assembly) emit(tok Token, oc *Opcode, in Instruction) {
	pc := uint32(len(as.prog.Code))
	prog := as.prog
	prog.Code = binary.LittleEndian.AppendUint32(prog.Code, uint32(in.Code))
	prog.AddressToLine = append(prog.AddressToLine, tok.Span.StartLine)
	if oc.Value {
		prog.Code = binary.LittleEndian.AppendUint32(prog.Code, in.Value)
		prog.AddressToLine = append(prog.AddressToLine, tok.Span.StartLine)
	}

	if as.Verbose {
		log.Printf("asm: %06x: %v", pc, in)
	}
}

// resolve replays every patch with labels resolved.
func (as *assembly) resolve() (err error) {
	prog := as.prog
	ev := &evaluator{
		ts:        as.ts,
		constants: prog.Constants,
		resolve: func(name string) (addr int32, ok bool) {
			address, ok := prog.Lookup(name)
			return int32(address), ok
		},
	}

	for _, p := range as.patches {
		as.ts.index = p.Start
		var value Value
		var span source.Span
		value, span, err = ev.evaluate()
		if err != nil {
			return
		}
		if as.ts.index != p.End {
			err = source.Errorf(ErrSyntax, span, "Expression changed during label resolution")
			return
		}

		var bits uint32
		switch p.Operand {
		case OPERAND_LBL_INT:
			if value.Type != VALUE_INTEGER {
				err = source.Errorf(ErrSemantic, span, "Expected an integer expression")
				return
			}
			bits = uint32(value.Int)
		default:
			bits = value.Bits()
		}

		binary.LittleEndian.PutUint32(prog.Code[p.At:], bits)
		if as.Verbose {
			log.Printf("asm: patch %06x: %v = 0x%08x", p.At, span.Text(), bits)
		}
	}

	return
}

// unquote decodes a string literal, including its quotes.
func unquote(text string) (data []byte) {
	text = strings.TrimPrefix(text, "\"")
	text = strings.TrimSuffix(text, "\"")

	escape := false
	for n := 0; n < len(text); n++ {
		c := text[n]
		if !escape {
			if c == '\\' {
				escape = true
			} else {
				data = append(data, c)
			}
			continue
		}
		escape = false
		switch c {
		case 'n':
			c = '\n'
		case 'r':
			c = '\r'
		case 't':
			c = '\t'
		case '0':
			c = 0
		}
		data = append(data, c)
	}

	return
}
