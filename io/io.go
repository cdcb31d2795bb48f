// Package io provides the standard syscall devices for the ulang emulator:
// a debugger hook (Debugger), a framebuffer (Display), text output (Console),
// a mouse (Pointer), and a wall clock (Clock).
package io

import (
	"iter"

	"github.com/ezrec/ulang/cpu"
)

// Standard syscall numbers.
const (
	SYSCALL_DEBUG = uint8(0) // Pause into the debugger. Also the 'brk' target.
	SYSCALL_VSYNC = uint8(1) // Present a frame, and pause until resumed.
	SYSCALL_PRINT = uint8(2) // Print tagged arguments.
	SYSCALL_MOUSE = uint8(3) // Push mouse x, y and button state.
	SYSCALL_TIME  = uint8(5) // Push seconds since start as a float.
)

// Device is a host service reachable through a syscall slot.
type Device interface {
	cpu.Syscall

	// Number returns the syscall slot of the device.
	Number() uint8
	// Reset returns the device to its power-on state.
	Reset()
	// Defines returns the assembler constants of the device.
	Defines() iter.Seq2[string, string]
}
