package cpu

import (
	"errors"

	"github.com/ezrec/ulang/translate"
)

var f = translate.From

var (
	// Assembler error classes
	ErrLexical    = errors.New(f("lexical error"))
	ErrSyntax     = errors.New(f("syntax error"))
	ErrOperand    = errors.New(f("operand error"))
	ErrSemantic   = errors.New(f("semantic error"))
	ErrUnresolved = errors.New(f("unresolved label"))
	ErrPredefine  = errors.New(f("predefine invalid"))

	// Cpu errors
	ErrHalted         = errors.New(f("halted"))
	ErrDivideByZero   = errors.New(f("divide by zero"))
	ErrSyscallInvalid = errors.New(f("syscall invalid"))
	ErrImageTooLarge  = errors.New(f("program image too large for memory"))
)

// ErrOpcode is returned when an instruction word carries an unknown opcode.
type ErrOpcode Code

func (eo ErrOpcode) Error() string {
	return f("bad opcode %d in word 0x%08x", uint8(Code(eo).Op()), uint32(eo))
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrMemoryBounds is returned for a memory access outside the memory buffer.
type ErrMemoryBounds struct {
	Address uint32
	Width   int
}

func (err ErrMemoryBounds) Error() string {
	return f("memory access of %d bytes at 0x%08x out of bounds", err.Width, err.Address)
}

func (err ErrMemoryBounds) Is(target error) (ok bool) {
	_, ok = target.(ErrMemoryBounds)
	return
}

// ErrSyscall wraps a failure reported by a syscall handler.
type ErrSyscall struct {
	Number uint8
	Err    error
}

func (err ErrSyscall) Error() string {
	return f("syscall %d: %v", err.Number, err.Err)
}

func (err ErrSyscall) Unwrap() error {
	return err.Err
}
