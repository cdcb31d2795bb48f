package cpu

// SYSCALL_LIMIT is the number of syscall slots.
const SYSCALL_LIMIT = 256

// Syscall is a host service invoked by the 'syscall' and 'brk' instructions.
// The handler receives exclusive access to the cpu; arguments and results
// travel over the stack. Returning resume as false halts the cpu.
type Syscall interface {
	Syscall(cpu *Cpu, number uint8) (resume bool, err error)
}

// SyscallFunc adapts a function to the Syscall interface.
type SyscallFunc func(cpu *Cpu, number uint8) (resume bool, err error)

func (fn SyscallFunc) Syscall(cpu *Cpu, number uint8) (resume bool, err error) {
	return fn(cpu, number)
}

// SetSyscall installs a handler at a syscall slot. A nil handler clears the slot.
func (cpu *Cpu) SetSyscall(number uint8, handler Syscall) {
	cpu.syscall[number] = handler
}

// syscallInvoke runs a handler. Missing handlers do nothing.
func (cpu *Cpu) syscallInvoke(number uint32) (err error) {
	if number >= SYSCALL_LIMIT {
		err = ErrSyscallInvalid
		return
	}

	handler := cpu.syscall[number]
	if handler == nil {
		return
	}

	resume, err := handler.Syscall(cpu, uint8(number))
	if err != nil {
		err = ErrSyscall{Number: uint8(number), Err: err}
		return
	}
	if !resume {
		err = ErrHalted
	}
	return
}
