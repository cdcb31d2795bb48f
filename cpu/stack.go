package cpu

import (
	"math"
)

// The stack grows down from the top of memory. SP points at the last
// pushed word.

// Push pushes a raw 32-bit word.
func (cpu *Cpu) Push(value uint32) (err error) {
	sp := cpu.Register[REG_SP] - 4
	err = cpu.Memory.Store(sp, 4, value)
	if err != nil {
		return
	}
	cpu.Register[REG_SP] = sp
	return
}

// Pop pops a raw 32-bit word.
func (cpu *Cpu) Pop() (value uint32, err error) {
	sp := cpu.Register[REG_SP]
	value, err = cpu.Memory.Load(sp, 4)
	if err != nil {
		return
	}
	cpu.Register[REG_SP] = sp + 4
	return
}

func (cpu *Cpu) PushInt(value int32) error {
	return cpu.Push(uint32(value))
}

func (cpu *Cpu) PushUint(value uint32) error {
	return cpu.Push(value)
}

func (cpu *Cpu) PushFloat(value float32) error {
	return cpu.Push(math.Float32bits(value))
}

func (cpu *Cpu) PopInt() (value int32, err error) {
	u, err := cpu.Pop()
	value = int32(u)
	return
}

func (cpu *Cpu) PopUint() (value uint32, err error) {
	return cpu.Pop()
}

func (cpu *Cpu) PopFloat() (value float32, err error) {
	u, err := cpu.Pop()
	value = math.Float32frombits(u)
	return
}

// Discard drops words from the top of the stack.
func (cpu *Cpu) Discard(words uint32) {
	cpu.Register[REG_SP] += words * 4
}
