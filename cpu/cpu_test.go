package cpu

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/ulang/source"
)

const testMemory = 0x10000

const (
	R1 = uint8(0)
	R2 = uint8(1)
	R3 = uint8(2)
)

func assemble(t *testing.T, text string) (prog *Program) {
	asm := &Assembler{}
	prog, err := asm.Assemble(source.NewFile("test.ul", []byte(text)))
	if err != nil {
		t.Fatalf("%q: %v", text, err)
	}
	return
}

// run executes a program until it halts.
func run(t *testing.T, text string, size uint32) (cpu *Cpu) {
	cpu = NewCpu(size)
	err := cpu.Reset(assemble(t, text))
	if err != nil {
		t.Fatal(err)
	}

	for range 10000 {
		err = cpu.Tick()
		if err != nil {
			break
		}
	}
	if !errors.Is(err, ErrHalted) {
		t.Fatalf("%q: %v", text, err)
	}
	return
}

type check func(assert *assert.Assertions, cpu *Cpu, text string)

func floatEqual(assert *assert.Assertions, expected, actual float32, text string) {
	if expected == actual {
		return
	}
	if expected == 0 {
		assert.InDelta(expected, actual, 1e-5, text)
		return
	}
	assert.InEpsilon(expected, actual, 1e-5, text)
}

func regInt(reg uint8, value int32) check {
	return func(assert *assert.Assertions, cpu *Cpu, text string) {
		assert.Equal(value, int32(cpu.Register[reg]), "%v: %v", text, RegisterName(reg))
	}
}

func regUint(reg uint8, value uint32) check {
	return func(assert *assert.Assertions, cpu *Cpu, text string) {
		assert.Equal(value, cpu.Register[reg], "%v: %v", text, RegisterName(reg))
	}
}

func regFloat(reg uint8, value float32) check {
	return func(assert *assert.Assertions, cpu *Cpu, text string) {
		floatEqual(assert, value, math.Float32frombits(cpu.Register[reg]), text)
	}
}

func memInt(addr uint32, value uint32) check {
	return func(assert *assert.Assertions, cpu *Cpu, text string) {
		got, err := cpu.Memory.Load(addr, 4)
		assert.NoError(err, text)
		assert.Equal(value, got, "%v: [0x%x]", text, addr)
	}
}

func memFloat(addr uint32, value float32) check {
	return memInt(addr, math.Float32bits(value))
}

func TestCpu_Programs(t *testing.T) {
	assert := assert.New(t)

	neg34234 := int32(-34234)
	f1 := float32(123.456)
	f2 := float32(234.567)
	f64 := func(fl float32) float64 { return float64(fl) }

	table := [](struct {
		text   string
		checks []check
	}){
		{"halt", []check{regUint(REG_PC, 4)}},

		{"mov 123, r1", []check{regInt(R1, 123)}},
		{"mov 123.456, r1", []check{regFloat(R1, 123.456)}},
		{"mov 123, r1\nmov r1, r2", []check{regInt(R1, 123), regInt(R2, 123)}},
		{"mov 123.456, r1\nmov r1, r2", []check{regUint(R2, math.Float32bits(123.456))}},

		{"mov 0xffff, r1\nmov 43234, r2\nadd r1, r2, r3", []check{regInt(R3, 0xffff+43234)}},
		{"mov -34234, r1\nmov 4323, r2\nadd r1, r2, r3", []check{regInt(R3, -34234+4323)}},
		{"add r1, 123, r2", []check{regInt(R2, 123)}},

		{"mov 0xffff, r1\nmov 43234, r2\nsub r1, r2, r3", []check{regInt(R3, 0xffff-43234)}},
		{"mov -34234, r1\nmov 4323, r2\nsub r1, r2, r3", []check{regInt(R3, -34234-4323)}},
		{"sub r1, 123, r2", []check{regInt(R2, -123)}},

		{"mov 0xffff, r1\nmov 4323, r2\nmul r1, r2, r3", []check{regInt(R3, 0xffff*4323)}},
		{"mov -34234, r1\nmov 4323, r2\nmul r1, r2, r3", []check{regInt(R3, -34234*4323)}},
		{"mov 3421, r1\nmul r1, 123, r2", []check{regInt(R2, 3421*123)}},

		{"mov 0xffff, r1\nmov 7, r2\ndiv r1, r2, r3", []check{regInt(R3, 0xffff/7)}},
		{"mov -34234, r1\nmov 7, r2\ndiv r1, r2, r3", []check{regInt(R3, -34234/7)}},
		{"mov 3421, r1\ndiv r1, 7, r2", []check{regInt(R2, 3421/7)}},

		{"mov 0xffff, r1\nmov 7, r2\ndivu r1, r2, r3", []check{regUint(R3, 0xffff/7)}},
		{"mov -34234, r1\nmov 7, r2\ndivu r1, r2, r3", []check{regUint(R3, uint32(neg34234)/7)}},
		{"mov 3421, r1\ndivu r1, 7, r2", []check{regUint(R2, 3421/7)}},

		{"mov 0xffff, r1\nmov 7, r2\nrem r1, r2, r3", []check{regInt(R3, 0xffff%7)}},
		{"mov -34234, r1\nmov 7, r2\nrem r1, r2, r3", []check{regInt(R3, -34234%7)}},
		{"mov 3421, r1\nrem r1, 7, r2", []check{regInt(R2, 3421%7)}},

		{"mov 0xffff, r1\nmov 7, r2\nremu r1, r2, r3", []check{regUint(R3, 0xffff%7)}},
		{"mov -34234, r1\nmov 7, r2\nremu r1, r2, r3", []check{regUint(R3, uint32(neg34234)%7)}},
		{"mov 3421, r1\nremu r1, 7, r2", []check{regUint(R2, 3421%7)}},

		{"mov 123.456, r1\nmov -234.567, r2\naddf r1, r2, r3", []check{regFloat(R3, f1+(-f2))}},
		{"addf r1, 123.456, r2", []check{regFloat(R2, 123.456)}},
		{"addf r1, 123, r2", []check{regFloat(R2, 123)}},

		{"mov 123.456, r1\nmov 234.567, r2\nsubf r1, r2, r3", []check{regFloat(R3, f1-f2)}},
		{"subf r1, 123.456, r2", []check{regFloat(R2, -123.456)}},

		{"mov 123.456, r1\nmov 234.567, r2\nmulf r1, r2, r3", []check{regFloat(R3, f1*f2)}},
		{"mov 123.456, r1\nmulf r1, 234.567, r2", []check{regFloat(R2, f1*f2)}},

		{"mov 123.456, r1\nmov 234.567, r2\ndivf r1, r2, r3", []check{regFloat(R3, f1/f2)}},
		{"mov 123.456, r1\ndivf r1, 234.567, r2", []check{regFloat(R2, f1/f2)}},

		{"mov 123.456, r1\ncosf r1, r2", []check{regFloat(R2, float32(math.Cos(f64(f1))))}},
		{"mov 123.456, r1\nsinf r1, r2", []check{regFloat(R2, float32(math.Sin(f64(f1))))}},
		{"mov 123.456, r1\nmov 234.567, r2\natan2f r1, r2, r3", []check{regFloat(R3, float32(math.Atan2(f64(f1), f64(f2))))}},
		{"mov 123.456, r1\nsqrtf r1, r2", []check{regFloat(R2, float32(math.Sqrt(f64(f1))))}},
		{"mov 123.456, r1\nmov 234.567, r2\npowf r1, r2, r3", []check{regFloat(R3, float32(math.Pow(f64(f1), f64(f2))))}},
		{"mov 123.456, r1\npowf r1, 4, r3", []check{regFloat(R3, float32(math.Pow(f64(f1), 4)))}},
		{"mov 123, r1\ni2f r1, r1", []check{regFloat(R1, 123)}},
		{"mov 123.456, r1\nf2i r1, r1", []check{regInt(R1, 123)}},
		{"mov -123.9, r1\nf2i r1, r1", []check{regInt(R1, -123)}},

		{"mov 0xf0f0f, r1\nnot r1, r1", []check{regInt(R1, ^0xf0f0f)}},
		{"not 0xf0f0f, r1", []check{regInt(R1, ^0xf0f0f)}},
		{"mov 0xf0f0f, r1\nmov 0xf0f0, r2\nand r1, r2, r3", []check{regInt(R3, 0xf0f0f&0xf0f0)}},
		{"mov 0xf0f0f, r1\nand r1, 0xf0f0, r3", []check{regInt(R3, 0xf0f0f&0xf0f0)}},
		{"mov 0xf0f0f, r1\nmov 0xf0f0, r2\nor r1, r2, r3", []check{regInt(R3, 0xf0f0f|0xf0f0)}},
		{"mov 0xf0f0f, r1\nor r1, 0xf0f0, r3", []check{regInt(R3, 0xf0f0f|0xf0f0)}},
		{"mov 0xf0f0f, r1\nmov 0xf0f0, r2\nxor r1, r2, r3", []check{regInt(R3, 0xf0f0f^0xf0f0)}},
		{"mov 0xf0f0f, r1\nxor r1, 0xf0f0, r3", []check{regInt(R3, 0xf0f0f^0xf0f0)}},
		{"mov 0xf0f0f, r1\nmov 4, r2\nshl r1, r2, r3", []check{regInt(R3, 0xf0f0f<<4)}},
		{"mov 0xf0f0f, r1\nshl r1, 4, r3", []check{regInt(R3, 0xf0f0f<<4)}},
		{"mov 0xf0f0f, r1\nmov 4, r2\nshr r1, r2, r3", []check{regInt(R3, 0xf0f0f>>4)}},
		{"mov 0xf0f0f, r1\nshr r1, 4, r3", []check{regInt(R3, 0xf0f0f>>4)}},
		{"mov -16, r1\nshr r1, 2, r3", []check{regInt(R3, -4)}},
		{"mov -16, r1\nshru r1, 28, r3", []check{regInt(R3, 0xf)}},

		{"mov -11, r1\nmov 22, r2\ncmp r1, r2, r3", []check{regInt(R3, -1)}},
		{"mov 33, r1\nmov -31, r2\ncmp r1, r2, r3", []check{regInt(R3, 1)}},
		{"mov 1, r1\nmov 1, r2\ncmp r1, r2, r3", []check{regInt(R3, 0)}},
		{"mov 1, r1\ncmp r1, 2, r3", []check{regInt(R3, -1)}},
		{"mov 1, r1\ncmp r1, -1, r3", []check{regInt(R3, 1)}},
		{"mov 1, r1\ncmp r1, 1, r3", []check{regInt(R3, 0)}},

		{"mov -11, r1\nmov 22, r2\ncmpu r1, r2, r3", []check{regInt(R3, 1)}},
		{"mov 33, r1\nmov -31, r2\ncmpu r1, r2, r3", []check{regInt(R3, -1)}},
		{"mov 1, r1\nmov 1, r2\ncmpu r1, r2, r3", []check{regInt(R3, 0)}},
		{"mov 2, r1\ncmpu r1, 1, r3", []check{regInt(R3, 1)}},
		{"mov 1, r1\ncmpu r1, -1, r3", []check{regInt(R3, -1)}},
		{"mov 1, r1\ncmpu r1, 1, r3", []check{regInt(R3, 0)}},

		{"mov -134.3, r1\nmov 22.34, r2\ncmpf r1, r2, r3", []check{regInt(R3, -1)}},
		{"mov 33.43, r1\nmov -31.234, r2\ncmpf r1, r2, r3", []check{regInt(R3, 1)}},
		{"mov 1.432, r1\nmov 1.432, r2\ncmpf r1, r2, r3", []check{regInt(R3, 0)}},
		{"mov 1.5, r1\ncmpf r1, 2, r3", []check{regInt(R3, -1)}},

		{"jmp l\nhalt\nl: mov 123, r1\n", []check{regUint(REG_PC, 24), regInt(R1, 123)}},
		{"mov 1, r1\ncmp r1, 1, r1\nje r1, l\nhalt\nl: mov 123, r1\n", []check{regUint(REG_PC, 40), regInt(R1, 123)}},
		{"mov 1, r1\ncmp r1, 2, r2\nje r2, l\nmov 123, r1\nl: halt\n", []check{regUint(REG_PC, 36), regInt(R1, 123)}},
		{"mov 1, r1\ncmp r1, 2, r1\njne r1, l\nhalt\nl: mov 123, r1\n", []check{regUint(REG_PC, 40), regInt(R1, 123)}},
		{"mov 1, r1\ncmp r1, 1, r2\njne r2, l\nmov 123, r1\nl: halt\n", []check{regUint(REG_PC, 36), regInt(R1, 123)}},
		{"mov 1, r1\ncmp r1, 2, r1\njl r1, l\nhalt\nl: mov 123, r1\n", []check{regUint(REG_PC, 40), regInt(R1, 123)}},
		{"mov 1, r1\ncmp r1, -1, r2\njl r2, l\nmov 123, r1\nl: halt\n", []check{regUint(REG_PC, 36), regInt(R1, 123)}},
		{"mov 2, r1\ncmp r1, 1, r1\njg r1, l\nhalt\nl: mov 123, r1\n", []check{regUint(REG_PC, 40), regInt(R1, 123)}},
		{"mov -1, r1\ncmp r1, 1, r2\njg r2, l\nmov 123, r1\nl: halt\n", []check{regUint(REG_PC, 36), regInt(R1, 123)}},
		{"mov 1, r1\ncmp r1, 1, r1\njle r1, l\nhalt\nl: mov 123, r1\n", []check{regUint(REG_PC, 40), regInt(R1, 123)}},
		{"mov -1, r1\ncmp r1, 1, r1\njle r1, l\nhalt\nl: mov 123, r1\n", []check{regUint(REG_PC, 40), regInt(R1, 123)}},
		{"mov 1, r1\ncmp r1, -1, r2\njle r2, l\nmov 123, r1\nl: halt\n", []check{regUint(REG_PC, 36), regInt(R1, 123)}},
		{"mov 1, r1\ncmp r1, 1, r1\njge r1, l\nhalt\nl: mov 123, r1\n", []check{regUint(REG_PC, 40), regInt(R1, 123)}},
		{"mov 1, r1\ncmp r1, -1, r1\njge r1, l\nhalt\nl: mov 123, r1\n", []check{regUint(REG_PC, 40), regInt(R1, 123)}},
		{"mov -1, r1\ncmp r1, 1, r2\njge r2, l\nmov 123, r1\nl: halt\n", []check{regUint(REG_PC, 36), regInt(R1, 123)}},
		{"mov l, r1\njmp r1\nhalt\nl: mov 123, r2", []check{regInt(R2, 123)}},

		{"ld a, 1, r1\nhalt\na: byte 1 int 0xdeadbeef\n", []check{regUint(R1, 0xdeadbeef)}},
		{"mov a, r1\nld r1, 2, r2\nhalt\na: byte 0 x 2 int 0xdeadbeef", []check{regUint(R2, 0xdeadbeef)}},
		{"mov 0xdeadbeef, r1\nsto r1, a, 0\nhalt\na: int 123", []check{memInt(5*4, 0xdeadbeef)}},
		{"mov 0xdeadbeef, r1\nmov a, r2\nsto r1, r2, 0\nhalt\nreserve byte x 1\na: reserve int x 1",
			[]check{regInt(R2, 25), memInt(6*4+1, 0xdeadbeef)}},

		{"ld a, 1, r1\nhalt\na: byte 1 float 123.456\n", []check{regFloat(R1, 123.456)}},
		{"mov a, r1\nld r1, 2, r2\nhalt\na: byte 0 x 2 float 123.456", []check{regFloat(R2, 123.456)}},
		{"mov 123.456, r1\nsto r1, a, 0\nhalt\na: float 123.456", []check{memFloat(5*4, 123.456)}},
		{"mov 123.456, r1\nmov a, r2\nsto r1, r2, 0\nhalt\nreserve byte x 1\na: reserve float x 1",
			[]check{regInt(R2, 25), memFloat(6*4+1, 123.456)}},

		{"ldb a, 1, r1\nhalt\na: byte 1 byte -1\n", []check{regInt(R1, 0xff)}},
		{"mov a, r1\nldb r1, 2, r2\nhalt\na: byte 0 x 2 byte -1", []check{regInt(R2, 0xff)}},
		{"mov -1, r1\nstob r1, a, 0\nhalt\na: byte 0 byte 123", []check{memInt(5*4, 0x7bff)}},
		{"mov -1, r1\nmov a, r2\nstob r1, r2, 0\nhalt\nreserve byte x 1\na: reserve byte x 1",
			[]check{regInt(R2, 25), memInt(6*4+1, 0xff)}},

		{"lds a, 1, r1\nhalt\na: byte 1 short -1\n", []check{regInt(R1, 0xffff)}},
		{"mov a, r1\nlds r1, 2, r2\nhalt\na: byte 0 x 2 short -1", []check{regInt(R2, 0xffff)}},
		{"mov -1, r1\nstos r1, a, 0\nhalt\na: short 0 short 123", []check{memInt(5*4, 0x7bffff)}},
		{"mov -1, r1\nmov a, r2\nstos r1, r2, 0\nhalt\nreserve byte x 1\na: reserve byte x 1",
			[]check{regInt(R2, 25), memInt(6*4+1, 0xffff)}},

		// Narrow loads keep the high bytes of the destination.
		{"mov 0x12345678, r1\nldb a, 0, r1\nhalt\na: byte 0xab", []check{regUint(R1, 0x123456ab)}},
		{"mov 0x12345678, r1\nlds a, 0, r1\nhalt\na: short 0xabcd", []check{regUint(R1, 0x1234abcd)}},

		{"mov 123, r1\npush r1\nhalt\n", []check{regUint(REG_SP, testMemory-4), memInt(testMemory-4, 123)}},
		{"push 123\nhalt\n", []check{regUint(REG_SP, testMemory-4), memInt(testMemory-4, 123)}},
		{"push 123.456\nhalt\n", []check{regUint(REG_SP, testMemory-4), memFloat(testMemory-4, 123.456)}},
		{"stackalloc 4\nhalt", []check{regUint(REG_SP, testMemory-4*4)}},
		{"push 123\npush 456.7\npop r1\npop r2\nhalt", []check{regInt(R2, 123), regFloat(R1, 456.7)}},
		{"push 123\npush 456.7\npop 2\nhalt", []check{regUint(REG_SP, testMemory)}},
		{"call f\nhalt\nf: halt", []check{regUint(REG_PC, 4*4)}},
		{"mov f, r1\ncall r1\nhalt\nf: halt", []check{regUint(REG_PC, 5*4)}},
		{"call f\nmov 123, r2\nhalt\nf: ret", []check{regUint(REG_PC, 5*4), regInt(R2, 123)}},
		{"push 1\ncall f\nmov 123, r2\nhalt\nf: retn 1",
			[]check{regUint(REG_PC, 7*4), regUint(REG_SP, testMemory), regInt(R2, 123)}},

		{"const PI 3.14\nmov PI, r1\nhalt", []check{regFloat(R1, 3.14)}},
		{"const OFF 2\ndata: reserve int x 4\nmov 123, r1\nsto r1, data + OFF, 0", []check{memInt(4*4+2, 123)}},
		{"mov end - start, r1\nhalt\nstart: int 1, 2, 3\nend:", []check{regInt(R1, 12)}},
	}

	for _, entry := range table {
		cpu := run(t, entry.text, testMemory)
		for _, check := range entry.checks {
			check(assert, cpu, entry.text)
		}
	}
}

func TestCpu_DefaultMemory(t *testing.T) {
	assert := assert.New(t)

	cpu := run(t, "push 123\nhalt", 0)
	assert.Equal(uint32(MEMORY_SIZE), cpu.Memory.Size())
	assert.Equal(uint32(MEMORY_SIZE-4), cpu.Sp())
}

func TestCpu_Faults(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		text string
		pc   uint32
		err  error
	}){
		{"mov 0, r1\ndiv r1, r1, r2", 8, ErrDivideByZero},
		{"mov 0, r1\nremu r1, 0, r2", 8, ErrDivideByZero},
		{"ld 0xfffffffe, 0, r1", 0, ErrMemoryBounds{}},
		{"mov -1, r1\nstob r1, r1, 0", 8, ErrMemoryBounds{}},
		{"pop r1", 0, ErrMemoryBounds{}},
		{"ret", 0, ErrMemoryBounds{}},
		{"int 0x7f\n", 0, ErrOpcode(0)},
	}

	for _, entry := range table {
		cpu := NewCpu(testMemory)
		assert.NoError(cpu.Reset(assemble(t, entry.text)))
		var err error
		for range 100 {
			err = cpu.Tick()
			if err != nil {
				break
			}
		}
		assert.True(errors.Is(err, entry.err), "%v: %v", entry.text, err)
		assert.Equal(entry.pc, cpu.Pc(), entry.text)
	}
}

func TestCpu_Syscall(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(testMemory)
	assert.NoError(cpu.Reset(assemble(t, "push 2\npush 3\nsyscall 7\npop r1\nsyscall 8\nsyscall 9\nmov 1, r2\nhalt")))

	calls := 0
	cpu.SetSyscall(7, SyscallFunc(func(cpu *Cpu, number uint8) (bool, error) {
		calls++
		a, err := cpu.PopInt()
		if err != nil {
			return false, err
		}
		b, err := cpu.PopInt()
		if err != nil {
			return false, err
		}
		return true, cpu.PushInt(a * b)
	}))
	cpu.SetSyscall(9, SyscallFunc(func(cpu *Cpu, number uint8) (bool, error) {
		assert.Equal(uint8(9), number)
		return false, nil
	}))

	var err error
	for err == nil {
		err = cpu.Tick()
	}

	assert.ErrorIs(err, ErrHalted)
	assert.Equal(1, calls)
	assert.Equal(uint32(6), cpu.Register[R1])
	assert.Equal(uint32(0), cpu.Register[R2])
	assert.Equal(uint32(testMemory), cpu.Sp())

	cpu.SetSyscall(9, SyscallFunc(func(cpu *Cpu, number uint8) (bool, error) {
		return false, ErrDivideByZero
	}))
	assert.NoError(cpu.Reset(cpu.Program))
	err = nil
	for err == nil {
		err = cpu.Tick()
	}
	var es ErrSyscall
	assert.ErrorAs(err, &es)
	assert.Equal(uint8(9), es.Number)
	assert.Equal(uint32(28), cpu.Pc())

	// Failing and invalid syscalls leave PC at the syscall.
	cpu.SetSyscall(9, SyscallFunc(func(cpu *Cpu, number uint8) (bool, error) {
		return false, errors.New("device failed")
	}))
	assert.NoError(cpu.Reset(cpu.Program))
	err = nil
	for err == nil {
		err = cpu.Tick()
	}
	assert.ErrorAs(err, &es)
	assert.Equal(uint32(28), cpu.Pc())

	assert.NoError(cpu.Reset(assemble(t, "mov 1, r1\nsyscall 300\nhalt")))
	err = nil
	for err == nil {
		err = cpu.Tick()
	}
	assert.ErrorIs(err, ErrSyscallInvalid)
	assert.Equal(uint32(8), cpu.Pc())
}

func TestCpu_Brk(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(testMemory)
	assert.NoError(cpu.Reset(assemble(t, "mov 0, r1\nl: add r1, 1, r1\nbrk r1, 3\ncmp r1, 5, r2\njl r2, l\nhalt")))

	hits := 0
	cpu.SetSyscall(0, SyscallFunc(func(cpu *Cpu, number uint8) (bool, error) {
		hits++
		assert.Equal(uint32(3), cpu.Register[R1])
		return true, nil
	}))

	var err error
	for err == nil {
		err = cpu.Tick()
	}
	assert.ErrorIs(err, ErrHalted)
	assert.Equal(1, hits)
	assert.Equal(uint32(5), cpu.Register[R1])
}

func TestCpu_Rand(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(testMemory)
	cpu.Seed(1)
	assert.NoError(cpu.Reset(assemble(t, "rand r1\nrand r2\nhalt")))
	for cpu.Tick() == nil {
	}

	for _, reg := range []uint8{R1, R2} {
		fl := math.Float32frombits(cpu.Register[reg])
		assert.GreaterOrEqual(fl, float32(0))
		assert.Less(fl, float32(1))
	}
}

func TestCpu_Reset(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(16)
	err := cpu.Reset(assemble(t, "halt\nreserve int x 4"))
	assert.ErrorIs(err, ErrImageTooLarge)

	prog := assemble(t, "halt\nint 7")
	assert.NoError(cpu.Reset(prog))
	assert.Equal(uint32(16), cpu.Sp())
	value, err := cpu.Memory.Load(4, 4)
	assert.NoError(err)
	assert.Equal(uint32(7), value)
	assert.Contains(cpu.String(), "sp: 00000010")
}
