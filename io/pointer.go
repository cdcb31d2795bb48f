package io

import (
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/ulang/cpu"
)

// Pointer reports the mouse position, in screen pixels, and button state.
// The host updates the fields.
type Pointer struct {
	X, Y int32
	Down bool
}

var _ Device = (*Pointer)(nil)

func (ptr *Pointer) Number() uint8 {
	return SYSCALL_MOUSE
}

func (ptr *Pointer) Reset() {
	*ptr = Pointer{}
}

func (ptr *Pointer) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"SYSCALL_MOUSE": fmt.Sprintf("%d", SYSCALL_MOUSE),
	})
}

// Syscall pushes x, y, then -1 if the button is down, or 0.
func (ptr *Pointer) Syscall(cp *cpu.Cpu, number uint8) (resume bool, err error) {
	button := int32(0)
	if ptr.Down {
		button = -1
	}

	for _, value := range []int32{ptr.X, ptr.Y, button} {
		err = cp.PushInt(value)
		if err != nil {
			return
		}
	}

	resume = true
	return
}
