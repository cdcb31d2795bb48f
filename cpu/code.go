package cpu

import (
	"fmt"
	"math"
	"strings"
)

// Code is a 32-bit instruction word.
//
//	bits 0-6:   opcode
//	bits 7-18:  up to three 4-bit register fields
//	bits 19-31: 13-bit unsigned offset
type Code uint32

const (
	CODE_OP_MASK     = 0x7f
	CODE_REG_SHIFT   = 7
	CODE_REG_BITS    = 4
	CODE_REG_MASK    = 0xf
	CODE_REG_LIMIT   = 3
	CODE_OFF_SHIFT   = 19
	CODE_OFF_MASK    = 0x1fff
	CODE_OFF_MAXIMUM = CODE_OFF_MASK
)

// MakeCode packs an opcode, an offset and register fields in operand order.
// It panics if a field does not fit.
func MakeCode(op Op, offset uint32, regs ...uint8) (code Code) {
	if op > CODE_OP_MASK {
		panic(fmt.Sprintf("opcode %d does not fit", op))
	}
	if offset > CODE_OFF_MASK {
		panic(fmt.Sprintf("offset %d does not fit", offset))
	}
	if len(regs) > CODE_REG_LIMIT {
		panic(fmt.Sprintf("%d registers do not fit", len(regs)))
	}

	code = Code(op) | Code(offset)<<CODE_OFF_SHIFT
	for n, reg := range regs {
		if reg > CODE_REG_MASK {
			panic(fmt.Sprintf("register %d does not fit", reg))
		}
		code |= Code(reg) << (CODE_REG_SHIFT + CODE_REG_BITS*n)
	}

	return
}

// Op returns the opcode field.
func (code Code) Op() Op {
	return Op(code & CODE_OP_MASK)
}

// Reg returns the n'th register field.
func (code Code) Reg(n int) uint8 {
	if n < 0 || n >= CODE_REG_LIMIT {
		panic(fmt.Sprintf("register field %d out of range", n))
	}
	return uint8(code>>(CODE_REG_SHIFT+CODE_REG_BITS*n)) & CODE_REG_MASK
}

// Offset returns the 13-bit offset field.
func (code Code) Offset() uint32 {
	return uint32(code>>CODE_OFF_SHIFT) & CODE_OFF_MASK
}

func (code Code) String() string {
	return Instruction{Code: code}.String()
}

// Instruction is a decoded instruction word and its value word, if any.
type Instruction struct {
	Code  Code
	Value uint32
}

// Opcode returns the variant of the instruction.
func (in Instruction) Opcode() (oc *Opcode, ok bool) {
	return LookupOp(in.Code.Op())
}

// Size returns the encoded size of the instruction in bytes.
func (in Instruction) Size() uint32 {
	oc, ok := in.Opcode()
	if !ok {
		return 4
	}
	return uint32(oc.Size())
}

// String disassembles the instruction.
func (in Instruction) String() string {
	oc, ok := in.Opcode()
	if !ok {
		return fmt.Sprintf(".word 0x%08x", uint32(in.Code))
	}

	args := make([]string, 0, len(oc.Operands))
	reg := 0
	for _, operand := range oc.Operands {
		var arg string
		switch operand {
		case OPERAND_REG:
			arg = RegisterName(in.Code.Reg(reg))
			reg++
		case OPERAND_OFF:
			arg = fmt.Sprintf("%d", in.Code.Offset())
		case OPERAND_FLT:
			arg = fmt.Sprintf("%g", math.Float32frombits(in.Value))
		default:
			arg = fmt.Sprintf("%d", int32(in.Value))
		}
		args = append(args, arg)
	}

	if len(args) == 0 {
		return oc.Mnemonic
	}
	return oc.Mnemonic + " " + strings.Join(args, ", ")
}
