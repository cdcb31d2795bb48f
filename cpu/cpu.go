package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"math"
	"math/rand/v2"
	"strings"
)

// Cpu is the simulation context for the ulang register machine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Register [REG_COUNT]uint32 // Register bank; REG_PC and REG_SP included.
	Memory   Memory            // Flat memory.
	Program  *Program          // Loaded program, for diagnostics.

	Ticks int // Executed instruction counter.

	syscall [SYSCALL_LIMIT]Syscall
	rand    *rand.Rand
}

// NewCpu creates a CPU with size bytes of memory.
// A size of 0 selects MEMORY_SIZE.
func NewCpu(size uint32) (cpu *Cpu) {
	if size == 0 {
		size = MEMORY_SIZE
	}

	cpu = &Cpu{
		Memory: NewRam(size),
		rand:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	cpu.Register[REG_SP] = size

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"MEMORY_SIZE": fmt.Sprintf("%d", cpu.Memory.Size()),
	})
}

// Seed makes the 'rand' instruction deterministic.
func (cpu *Cpu) Seed(seed uint64) {
	cpu.rand = rand.New(rand.NewPCG(seed, seed))
}

// Pc returns the program counter.
func (cpu *Cpu) Pc() uint32 {
	return cpu.Register[REG_PC]
}

// Sp returns the stack pointer.
func (cpu *Cpu) Sp() uint32 {
	return cpu.Register[REG_SP]
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	var sb strings.Builder
	for n, val := range cpu.Register {
		fmt.Fprintf(&sb, "% 4s: %08X %11d %g\n",
			RegisterName(uint8(n)), val, int32(val), math.Float32frombits(val))
	}
	if cpu.Program != nil {
		pc := cpu.Pc()
		if line, ok := cpu.Program.Line(pc); ok {
			fmt.Fprintf(&sb, "  at: %v (line %d)\n", cpu.Program.Symbol(pc), line)
		}
	}

	return sb.String()
}

// Reset the CPU state, and load a program.
// - Zeros memory, then copies code and data to address 0.
// - Zeros the registers, except SP which is set to the memory size.
// - Zeros statistics counters.
func (cpu *Cpu) Reset(prog *Program) (err error) {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	size := cpu.Memory.Size()
	if uint64(prog.Size()) > uint64(size) {
		err = ErrImageTooLarge
		return
	}

	cpu.Memory.Reset()
	err = cpu.Memory.Write(0, prog.Image())
	if err != nil {
		return
	}

	clear(cpu.Register[:])
	cpu.Register[REG_SP] = size
	cpu.Program = prog
	cpu.Ticks = 0

	return
}

// fetch reads the word at PC, and advances PC.
func (cpu *Cpu) fetch() (word uint32, err error) {
	pc := cpu.Register[REG_PC]
	word, err = cpu.Memory.Load(pc, 4)
	if err != nil {
		return
	}
	cpu.Register[REG_PC] = pc + 4
	return
}

// Tick executes a single instruction.
// On a fault, including a failed or invalid syscall, PC is left at the
// faulting instruction. 'halt', and a syscall handler that declines to
// resume, return ErrHalted with PC past the instruction.
func (cpu *Cpu) Tick() (err error) {
	pc := cpu.Register[REG_PC]

	word, err := cpu.fetch()
	if err != nil {
		return
	}

	if cpu.Verbose {
		in := Instruction{Code: Code(word)}
		if in.Size() == 8 {
			in.Value, _ = cpu.Memory.Load(pc+4, 4)
		}
		log.Printf("%06x: %v", pc, in)
	}

	cpu.Ticks++
	err = cpu.Execute(Code(word))
	if err != nil {
		var eo ErrOpcode
		var eb ErrMemoryBounds
		var es ErrSyscall
		if errors.As(err, &eo) || errors.As(err, &eb) || errors.As(err, &es) ||
			errors.Is(err, ErrDivideByZero) || errors.Is(err, ErrSyscallInvalid) {
			cpu.Register[REG_PC] = pc
		}
	}

	return
}

type binaryFunc func(a, b uint32) (uint32, error)
type unaryFunc func(a uint32) uint32

func f32(u uint32) float32 {
	return math.Float32frombits(u)
}

func u32(fl float32) uint32 {
	return math.Float32bits(fl)
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func signum(less, greater bool) uint32 {
	return b2u(greater) - b2u(less)
}

func intDiv(a, b uint32) (uint32, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return uint32(int32(a) / int32(b)), nil
}

func intRem(a, b uint32) (uint32, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return uint32(int32(a) % int32(b)), nil
}

func uintDiv(a, b uint32) (uint32, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

func uintRem(a, b uint32) (uint32, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a % b, nil
}

func pure(fn func(a, b uint32) uint32) binaryFunc {
	return func(a, b uint32) (uint32, error) {
		return fn(a, b), nil
	}
}

func floatBinary(fn func(a, b float32) float32) binaryFunc {
	return func(a, b uint32) (uint32, error) {
		return u32(fn(f32(a), f32(b))), nil
	}
}

func floatUnary(fn func(a float64) float64) unaryFunc {
	return func(a uint32) uint32 {
		return u32(float32(fn(float64(f32(a)))))
	}
}

var (
	aluAdd  = pure(func(a, b uint32) uint32 { return a + b })
	aluSub  = pure(func(a, b uint32) uint32 { return a - b })
	aluMul  = pure(func(a, b uint32) uint32 { return a * b })
	aluAnd  = pure(func(a, b uint32) uint32 { return a & b })
	aluOr   = pure(func(a, b uint32) uint32 { return a | b })
	aluXor  = pure(func(a, b uint32) uint32 { return a ^ b })
	aluShl  = pure(func(a, b uint32) uint32 { return a << b })
	aluShr  = pure(func(a, b uint32) uint32 { return uint32(int32(a) >> b) })
	aluShru = pure(func(a, b uint32) uint32 { return a >> b })
	aluCmp  = pure(func(a, b uint32) uint32 { return signum(int32(a) < int32(b), int32(a) > int32(b)) })
	aluCmpu = pure(func(a, b uint32) uint32 { return signum(a < b, a > b) })
	aluCmpf = pure(func(a, b uint32) uint32 { return signum(f32(a) < f32(b), f32(a) > f32(b)) })
	aluAddf = floatBinary(func(a, b float32) float32 { return a + b })
	aluSubf = floatBinary(func(a, b float32) float32 { return a - b })
	aluMulf = floatBinary(func(a, b float32) float32 { return a * b })
	aluDivf = floatBinary(func(a, b float32) float32 { return a / b })
	aluPowf = floatBinary(func(a, b float32) float32 { return float32(math.Pow(float64(a), float64(b))) })
	aluAtan = floatBinary(func(a, b float32) float32 { return float32(math.Atan2(float64(a), float64(b))) })
)

// binaryOps are instructions of the form 'op a, b, dst'.
var binaryOps = map[Op]binaryFunc{
	OP_ADD: aluAdd, OP_ADD_VAL: aluAdd,
	OP_SUB: aluSub, OP_SUB_VAL: aluSub,
	OP_MUL: aluMul, OP_MUL_VAL: aluMul,
	OP_DIV: intDiv, OP_DIV_VAL: intDiv,
	OP_DIVU: uintDiv, OP_DIVU_VAL: uintDiv,
	OP_REM: intRem, OP_REM_VAL: intRem,
	OP_REMU: uintRem, OP_REMU_VAL: uintRem,
	OP_ADDF: aluAddf, OP_ADDF_VAL: aluAddf,
	OP_SUBF: aluSubf, OP_SUBF_VAL: aluSubf,
	OP_MULF: aluMulf, OP_MULF_VAL: aluMulf,
	OP_DIVF: aluDivf, OP_DIVF_VAL: aluDivf,
	OP_ATAN2F: aluAtan,
	OP_POWF: aluPowf, OP_POWF_VAL: aluPowf,
	OP_AND: aluAnd, OP_AND_VAL: aluAnd,
	OP_OR: aluOr, OP_OR_VAL: aluOr,
	OP_XOR: aluXor, OP_XOR_VAL: aluXor,
	OP_SHL: aluShl, OP_SHL_OFF: aluShl,
	OP_SHR: aluShr, OP_SHR_OFF: aluShr,
	OP_SHRU: aluShru, OP_SHRU_OFF: aluShru,
	OP_CMP: aluCmp, OP_CMP_VAL: aluCmp,
	OP_CMPU: aluCmpu, OP_CMPU_VAL: aluCmpu,
	OP_CMPF: aluCmpf, OP_CMPF_VAL: aluCmpf,
}

// unaryOps are instructions of the form 'op src, dst'.
var unaryOps = map[Op]unaryFunc{
	OP_COSF:    floatUnary(math.Cos),
	OP_SINF:    floatUnary(math.Sin),
	OP_SQRTF:   floatUnary(math.Sqrt),
	OP_I2F:     func(a uint32) uint32 { return u32(float32(int32(a))) },
	OP_F2I:     func(a uint32) uint32 { return uint32(int32(f32(a))) },
	OP_NOT:     func(a uint32) uint32 { return ^a },
	OP_NOT_VAL: func(a uint32) uint32 { return ^a },
}

// conditions are the jump relations against zero.
var conditions = map[Op]func(a int32) bool{
	OP_JE:  func(a int32) bool { return a == 0 },
	OP_JNE: func(a int32) bool { return a != 0 },
	OP_JL:  func(a int32) bool { return a < 0 },
	OP_JG:  func(a int32) bool { return a > 0 },
	OP_JLE: func(a int32) bool { return a <= 0 },
	OP_JGE: func(a int32) bool { return a >= 0 },
}

// widths of the memory access instructions.
var widths = map[Op]int{
	OP_LD: 4, OP_LD_VAL: 4,
	OP_LDB: 1, OP_LDB_VAL: 1,
	OP_LDS: 2, OP_LDS_VAL: 2,
	OP_STO: 4, OP_STO_VAL: 4,
	OP_STOB: 1, OP_STOB_VAL: 1,
	OP_STOS: 2, OP_STOS_VAL: 2,
}

// Execute executes a single instruction word. PC has already been advanced
// past the instruction word.
func (cpu *Cpu) Execute(code Code) (err error) {
	oc, ok := LookupOp(code.Op())
	if !ok {
		err = ErrOpcode(code)
		return
	}

	reg := &cpu.Register
	r0, r1, r2 := code.Reg(0), code.Reg(1), code.Reg(2)
	offset := code.Offset()

	var value uint32
	if oc.Value {
		value, err = cpu.fetch()
		if err != nil {
			return
		}
	}

	op := oc.Op

	if fn, ok := binaryOps[op]; ok {
		a, b, dst := reg[r0], reg[r1], r2
		switch oc.Operands[1] {
		case OPERAND_OFF:
			b, dst = offset, r1
		case OPERAND_REG:
		default:
			b, dst = value, r1
		}
		var out uint32
		out, err = fn(a, b)
		if err != nil {
			return
		}
		reg[dst] = out
		return
	}

	if fn, ok := unaryOps[op]; ok {
		if oc.Operands[0] == OPERAND_REG {
			reg[r1] = fn(reg[r0])
		} else {
			reg[r0] = fn(value)
		}
		return
	}

	if cond, ok := conditions[op]; ok {
		if cond(int32(reg[r0])) {
			reg[REG_PC] = value
		}
		return
	}

	switch op {
	case OP_HALT:
		err = ErrHalted
	case OP_RAND:
		reg[r0] = u32(cpu.rand.Float32())
	case OP_JMP:
		reg[REG_PC] = value
	case OP_JMP_REG:
		reg[REG_PC] = reg[r0]
	case OP_MOV:
		reg[r1] = reg[r0]
	case OP_MOV_VAL:
		reg[r0] = value
	case OP_LD, OP_LDB, OP_LDS:
		err = cpu.load(reg[r0]+offset, widths[op], r1)
	case OP_LD_VAL, OP_LDB_VAL, OP_LDS_VAL:
		err = cpu.load(value+offset, widths[op], r0)
	case OP_STO, OP_STOB, OP_STOS:
		err = cpu.Memory.Store(reg[r1]+offset, widths[op], reg[r0])
	case OP_STO_VAL, OP_STOB_VAL, OP_STOS_VAL:
		err = cpu.Memory.Store(value+offset, widths[op], reg[r0])
	case OP_PUSH:
		err = cpu.Push(reg[r0])
	case OP_PUSH_VAL:
		err = cpu.Push(value)
	case OP_STACKALLOC:
		reg[REG_SP] -= offset * 4
	case OP_POP:
		var v uint32
		v, err = cpu.Pop()
		if err == nil {
			reg[r0] = v
		}
	case OP_POP_OFF:
		cpu.Discard(offset)
	case OP_CALL:
		err = cpu.call(reg[r0])
	case OP_CALL_VAL:
		err = cpu.call(value)
	case OP_RET:
		err = cpu.ret(0)
	case OP_RETN:
		err = cpu.ret(offset)
	case OP_SYSCALL:
		err = cpu.syscallInvoke(offset)
	case OP_BRK:
		if reg[r0] == value {
			err = cpu.syscallInvoke(0)
		}
	default:
		err = ErrOpcode(code)
	}

	return
}

// load reads memory into a register. Narrow loads only replace the low
// bytes of the register; the high bytes keep their previous value.
func (cpu *Cpu) load(addr uint32, width int, dst uint8) (err error) {
	value, err := cpu.Memory.Load(addr, width)
	if err != nil {
		return
	}

	mask := uint32(math.MaxUint32)
	if width < 4 {
		mask = uint32(1)<<(8*width) - 1
	}
	cpu.Register[dst] = cpu.Register[dst]&^mask | value
	return
}

func (cpu *Cpu) call(target uint32) (err error) {
	err = cpu.Push(cpu.Register[REG_PC])
	if err != nil {
		return
	}
	cpu.Register[REG_PC] = target
	return
}

func (cpu *Cpu) ret(words uint32) (err error) {
	pc, err := cpu.Pop()
	if err != nil {
		return
	}
	cpu.Discard(words)
	cpu.Register[REG_PC] = pc
	return
}
