package cpu

import (
	"fmt"
	"strings"
)

// Operand is the shape of one instruction operand.
type Operand int

const (
	OPERAND_REG         = Operand(0) // reg
	OPERAND_LBL_INT     = Operand(1) // lbl|int
	OPERAND_LBL_INT_FLT = Operand(2) // lbl|int|flt
	OPERAND_INT         = Operand(3) // int
	OPERAND_FLT         = Operand(4) // flt
	OPERAND_OFF         = Operand(5) // off
)

var operandNames = [...]string{
	OPERAND_REG:         "reg",
	OPERAND_LBL_INT:     "lbl|int",
	OPERAND_LBL_INT_FLT: "lbl|int|flt",
	OPERAND_INT:         "int",
	OPERAND_FLT:         "flt",
	OPERAND_OFF:         "off",
}

func (o Operand) String() string {
	if o < 0 || int(o) >= len(operandNames) {
		return "?"
	}
	return operandNames[o]
}

// IsValue returns true if the operand is carried in the value word.
func (o Operand) IsValue() bool {
	switch o {
	case OPERAND_LBL_INT, OPERAND_LBL_INT_FLT, OPERAND_INT, OPERAND_FLT:
		return true
	}
	return false
}

// Op is a numeric opcode, 0..127.
type Op uint8

const OP_LIMIT = 128 // Opcodes fit in 7 bits.

// Opcode describes one operand-shape variant of a mnemonic.
type Opcode struct {
	Op       Op
	Mnemonic string
	Operands []Operand
	Value    bool // A value word follows the instruction word.
}

// String renders the variant as "mnemonic shape, shape".
func (oc *Opcode) String() string {
	if len(oc.Operands) == 0 {
		return oc.Mnemonic
	}
	shapes := make([]string, len(oc.Operands))
	for n, o := range oc.Operands {
		shapes[n] = o.String()
	}
	return oc.Mnemonic + " " + strings.Join(shapes, ", ")
}

// Size returns the encoded size of the instruction in bytes.
func (oc *Opcode) Size() int {
	if oc.Value {
		return 8
	}
	return 4
}

const (
	OP_HALT Op = iota
	OP_ADD
	OP_ADD_VAL
	OP_SUB
	OP_SUB_VAL
	OP_MUL
	OP_MUL_VAL
	OP_DIV
	OP_DIV_VAL
	OP_DIVU
	OP_DIVU_VAL
	OP_REM
	OP_REM_VAL
	OP_REMU
	OP_REMU_VAL
	OP_ADDF
	OP_ADDF_VAL
	OP_SUBF
	OP_SUBF_VAL
	OP_MULF
	OP_MULF_VAL
	OP_DIVF
	OP_DIVF_VAL
	OP_COSF
	OP_SINF
	OP_ATAN2F
	OP_SQRTF
	OP_POWF
	OP_POWF_VAL
	OP_RAND
	OP_I2F
	OP_F2I
	OP_NOT
	OP_NOT_VAL
	OP_AND
	OP_AND_VAL
	OP_OR
	OP_OR_VAL
	OP_XOR
	OP_XOR_VAL
	OP_SHL
	OP_SHL_OFF
	OP_SHR
	OP_SHR_OFF
	OP_SHRU
	OP_SHRU_OFF
	OP_CMP
	OP_CMP_VAL
	OP_CMPU
	OP_CMPU_VAL
	OP_CMPF
	OP_CMPF_VAL
	OP_JMP
	OP_JMP_REG
	OP_JE
	OP_JNE
	OP_JL
	OP_JG
	OP_JLE
	OP_JGE
	OP_MOV
	OP_MOV_VAL
	OP_LD
	OP_LD_VAL
	OP_LDB
	OP_LDB_VAL
	OP_LDS
	OP_LDS_VAL
	OP_STO
	OP_STO_VAL
	OP_STOB
	OP_STOB_VAL
	OP_STOS
	OP_STOS_VAL
	OP_PUSH
	OP_PUSH_VAL
	OP_STACKALLOC
	OP_POP
	OP_POP_OFF
	OP_CALL
	OP_CALL_VAL
	OP_RET
	OP_RETN
	OP_SYSCALL
	OP_BRK
	OP_COUNT // Number of defined opcodes.
)

const (
	reg = OPERAND_REG
	lbl = OPERAND_LBL_INT
	val = OPERAND_LBL_INT_FLT
	flt = OPERAND_FLT
	off = OPERAND_OFF
)

// opcodeTable lists every variant. Variants of a mnemonic are tried in table order.
var opcodeTable = [...]Opcode{
	{Op: OP_HALT, Mnemonic: "halt"},
	{Op: OP_ADD, Mnemonic: "add", Operands: []Operand{reg, reg, reg}},
	{Op: OP_ADD_VAL, Mnemonic: "add", Operands: []Operand{reg, lbl, reg}},
	{Op: OP_SUB, Mnemonic: "sub", Operands: []Operand{reg, reg, reg}},
	{Op: OP_SUB_VAL, Mnemonic: "sub", Operands: []Operand{reg, lbl, reg}},
	{Op: OP_MUL, Mnemonic: "mul", Operands: []Operand{reg, reg, reg}},
	{Op: OP_MUL_VAL, Mnemonic: "mul", Operands: []Operand{reg, lbl, reg}},
	{Op: OP_DIV, Mnemonic: "div", Operands: []Operand{reg, reg, reg}},
	{Op: OP_DIV_VAL, Mnemonic: "div", Operands: []Operand{reg, lbl, reg}},
	{Op: OP_DIVU, Mnemonic: "divu", Operands: []Operand{reg, reg, reg}},
	{Op: OP_DIVU_VAL, Mnemonic: "divu", Operands: []Operand{reg, lbl, reg}},
	{Op: OP_REM, Mnemonic: "rem", Operands: []Operand{reg, reg, reg}},
	{Op: OP_REM_VAL, Mnemonic: "rem", Operands: []Operand{reg, lbl, reg}},
	{Op: OP_REMU, Mnemonic: "remu", Operands: []Operand{reg, reg, reg}},
	{Op: OP_REMU_VAL, Mnemonic: "remu", Operands: []Operand{reg, lbl, reg}},
	{Op: OP_ADDF, Mnemonic: "addf", Operands: []Operand{reg, reg, reg}},
	{Op: OP_ADDF_VAL, Mnemonic: "addf", Operands: []Operand{reg, flt, reg}},
	{Op: OP_SUBF, Mnemonic: "subf", Operands: []Operand{reg, reg, reg}},
	{Op: OP_SUBF_VAL, Mnemonic: "subf", Operands: []Operand{reg, flt, reg}},
	{Op: OP_MULF, Mnemonic: "mulf", Operands: []Operand{reg, reg, reg}},
	{Op: OP_MULF_VAL, Mnemonic: "mulf", Operands: []Operand{reg, flt, reg}},
	{Op: OP_DIVF, Mnemonic: "divf", Operands: []Operand{reg, reg, reg}},
	{Op: OP_DIVF_VAL, Mnemonic: "divf", Operands: []Operand{reg, flt, reg}},
	{Op: OP_COSF, Mnemonic: "cosf", Operands: []Operand{reg, reg}},
	{Op: OP_SINF, Mnemonic: "sinf", Operands: []Operand{reg, reg}},
	{Op: OP_ATAN2F, Mnemonic: "atan2f", Operands: []Operand{reg, reg, reg}},
	{Op: OP_SQRTF, Mnemonic: "sqrtf", Operands: []Operand{reg, reg}},
	{Op: OP_POWF, Mnemonic: "powf", Operands: []Operand{reg, reg, reg}},
	{Op: OP_POWF_VAL, Mnemonic: "powf", Operands: []Operand{reg, flt, reg}},
	{Op: OP_RAND, Mnemonic: "rand", Operands: []Operand{reg}},
	{Op: OP_I2F, Mnemonic: "i2f", Operands: []Operand{reg, reg}},
	{Op: OP_F2I, Mnemonic: "f2i", Operands: []Operand{reg, reg}},
	{Op: OP_NOT, Mnemonic: "not", Operands: []Operand{reg, reg}},
	{Op: OP_NOT_VAL, Mnemonic: "not", Operands: []Operand{lbl, reg}},
	{Op: OP_AND, Mnemonic: "and", Operands: []Operand{reg, reg, reg}},
	{Op: OP_AND_VAL, Mnemonic: "and", Operands: []Operand{reg, lbl, reg}},
	{Op: OP_OR, Mnemonic: "or", Operands: []Operand{reg, reg, reg}},
	{Op: OP_OR_VAL, Mnemonic: "or", Operands: []Operand{reg, lbl, reg}},
	{Op: OP_XOR, Mnemonic: "xor", Operands: []Operand{reg, reg, reg}},
	{Op: OP_XOR_VAL, Mnemonic: "xor", Operands: []Operand{reg, lbl, reg}},
	{Op: OP_SHL, Mnemonic: "shl", Operands: []Operand{reg, reg, reg}},
	{Op: OP_SHL_OFF, Mnemonic: "shl", Operands: []Operand{reg, off, reg}},
	{Op: OP_SHR, Mnemonic: "shr", Operands: []Operand{reg, reg, reg}},
	{Op: OP_SHR_OFF, Mnemonic: "shr", Operands: []Operand{reg, off, reg}},
	{Op: OP_SHRU, Mnemonic: "shru", Operands: []Operand{reg, reg, reg}},
	{Op: OP_SHRU_OFF, Mnemonic: "shru", Operands: []Operand{reg, off, reg}},
	{Op: OP_CMP, Mnemonic: "cmp", Operands: []Operand{reg, reg, reg}},
	{Op: OP_CMP_VAL, Mnemonic: "cmp", Operands: []Operand{reg, lbl, reg}},
	{Op: OP_CMPU, Mnemonic: "cmpu", Operands: []Operand{reg, reg, reg}},
	{Op: OP_CMPU_VAL, Mnemonic: "cmpu", Operands: []Operand{reg, lbl, reg}},
	{Op: OP_CMPF, Mnemonic: "cmpf", Operands: []Operand{reg, reg, reg}},
	{Op: OP_CMPF_VAL, Mnemonic: "cmpf", Operands: []Operand{reg, flt, reg}},
	{Op: OP_JMP, Mnemonic: "jmp", Operands: []Operand{lbl}},
	{Op: OP_JMP_REG, Mnemonic: "jmp", Operands: []Operand{reg}},
	{Op: OP_JE, Mnemonic: "je", Operands: []Operand{reg, lbl}},
	{Op: OP_JNE, Mnemonic: "jne", Operands: []Operand{reg, lbl}},
	{Op: OP_JL, Mnemonic: "jl", Operands: []Operand{reg, lbl}},
	{Op: OP_JG, Mnemonic: "jg", Operands: []Operand{reg, lbl}},
	{Op: OP_JLE, Mnemonic: "jle", Operands: []Operand{reg, lbl}},
	{Op: OP_JGE, Mnemonic: "jge", Operands: []Operand{reg, lbl}},
	{Op: OP_MOV, Mnemonic: "mov", Operands: []Operand{reg, reg}},
	{Op: OP_MOV_VAL, Mnemonic: "mov", Operands: []Operand{val, reg}},
	{Op: OP_LD, Mnemonic: "ld", Operands: []Operand{reg, off, reg}},
	{Op: OP_LD_VAL, Mnemonic: "ld", Operands: []Operand{lbl, off, reg}},
	{Op: OP_LDB, Mnemonic: "ldb", Operands: []Operand{reg, off, reg}},
	{Op: OP_LDB_VAL, Mnemonic: "ldb", Operands: []Operand{lbl, off, reg}},
	{Op: OP_LDS, Mnemonic: "lds", Operands: []Operand{reg, off, reg}},
	{Op: OP_LDS_VAL, Mnemonic: "lds", Operands: []Operand{lbl, off, reg}},
	{Op: OP_STO, Mnemonic: "sto", Operands: []Operand{reg, reg, off}},
	{Op: OP_STO_VAL, Mnemonic: "sto", Operands: []Operand{reg, lbl, off}},
	{Op: OP_STOB, Mnemonic: "stob", Operands: []Operand{reg, reg, off}},
	{Op: OP_STOB_VAL, Mnemonic: "stob", Operands: []Operand{reg, lbl, off}},
	{Op: OP_STOS, Mnemonic: "stos", Operands: []Operand{reg, reg, off}},
	{Op: OP_STOS_VAL, Mnemonic: "stos", Operands: []Operand{reg, lbl, off}},
	{Op: OP_PUSH, Mnemonic: "push", Operands: []Operand{reg}},
	{Op: OP_PUSH_VAL, Mnemonic: "push", Operands: []Operand{val}},
	{Op: OP_STACKALLOC, Mnemonic: "stackalloc", Operands: []Operand{off}},
	{Op: OP_POP, Mnemonic: "pop", Operands: []Operand{reg}},
	{Op: OP_POP_OFF, Mnemonic: "pop", Operands: []Operand{off}},
	{Op: OP_CALL, Mnemonic: "call", Operands: []Operand{reg}},
	{Op: OP_CALL_VAL, Mnemonic: "call", Operands: []Operand{lbl}},
	{Op: OP_RET, Mnemonic: "ret"},
	{Op: OP_RETN, Mnemonic: "retn", Operands: []Operand{off}},
	{Op: OP_SYSCALL, Mnemonic: "syscall", Operands: []Operand{off}},
	{Op: OP_BRK, Mnemonic: "brk", Operands: []Operand{reg, lbl}},
}

// opcodeSet indexes the opcode table by numeric code and by mnemonic.
type opcodeSet struct {
	byOp       [OP_LIMIT]*Opcode
	byMnemonic map[string][]*Opcode
}

func newOpcodeSet() (set *opcodeSet) {
	set = &opcodeSet{byMnemonic: make(map[string][]*Opcode)}

	for n := range opcodeTable {
		oc := &opcodeTable[n]
		if oc.Op != Op(n) || set.byOp[oc.Op] != nil {
			panic(fmt.Sprintf("opcode table: %v out of order", oc.Mnemonic))
		}
		values := 0
		for _, operand := range oc.Operands {
			if operand.IsValue() {
				values++
			}
		}
		if values > 1 {
			panic(fmt.Sprintf("opcode table: %v has more than one value operand", oc.Mnemonic))
		}
		oc.Value = values == 1
		set.byOp[oc.Op] = oc
		set.byMnemonic[oc.Mnemonic] = append(set.byMnemonic[oc.Mnemonic], oc)
	}

	return
}

var opcodes = newOpcodeSet()

// LookupOp returns the variant for a numeric opcode.
func LookupOp(op Op) (oc *Opcode, ok bool) {
	if int(op) >= len(opcodes.byOp) {
		return
	}
	oc = opcodes.byOp[op]
	return oc, oc != nil
}

// LookupMnemonic returns the variants of a mnemonic in resolution order.
func LookupMnemonic(mnemonic string) (variants []*Opcode, ok bool) {
	variants, ok = opcodes.byMnemonic[mnemonic]
	return
}

func (op Op) String() string {
	if oc, ok := LookupOp(op); ok {
		return oc.Mnemonic
	}
	return fmt.Sprintf("op%d", uint8(op))
}
