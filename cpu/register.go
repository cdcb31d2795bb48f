package cpu

import (
	"fmt"
)

// Register indices. r1..r14 are general purpose.
const (
	REG_PC    = 14 // Program counter.
	REG_SP    = 15 // Stack pointer.
	REG_COUNT = 16 // Number of registers.
)

var registerNames = [REG_COUNT]string{
	"r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14",
	"pc", "sp",
}

var registerByName = func() (names map[string]uint8) {
	names = make(map[string]uint8, REG_COUNT)
	for n, name := range registerNames {
		names[name] = uint8(n)
	}
	return
}()

// RegisterName returns the assembly name of a register index.
func RegisterName(index uint8) string {
	if int(index) >= len(registerNames) {
		return fmt.Sprintf("r?%d", index)
	}
	return registerNames[index]
}

// LookupRegister returns the index of a register name.
func LookupRegister(name string) (index uint8, ok bool) {
	index, ok = registerByName[name]
	return
}
