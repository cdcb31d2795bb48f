// Package cpu implements the assembler and virtual machine for the ulang system.
//
// The machine has sixteen 32-bit registers (r1-r14, pc and sp), a flat
// little-endian memory with a stack growing down from its top, and a
// 256 slot syscall table for host services.
//
// The assembler reads a textual assembly language with labels, constants,
// data directives and constant expressions, and resolves forward label
// references in a second pass over the recorded expressions.
package cpu
