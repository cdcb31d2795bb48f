package io

import (
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/ulang/cpu"
)

// Debugger pauses the machine on 'syscall SYSCALL_DEBUG' and on 'brk' hits.
type Debugger struct {
	Hits int // Number of times the hook was reached.
}

var _ Device = (*Debugger)(nil)

func (dbg *Debugger) Number() uint8 {
	return SYSCALL_DEBUG
}

func (dbg *Debugger) Reset() {
	dbg.Hits = 0
}

func (dbg *Debugger) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"SYSCALL_DEBUG": fmt.Sprintf("%d", SYSCALL_DEBUG),
	})
}

// Syscall always declines to resume, so the host regains control.
func (dbg *Debugger) Syscall(cp *cpu.Cpu, number uint8) (resume bool, err error) {
	dbg.Hits++
	return
}
