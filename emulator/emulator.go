// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/ulang/cpu"
	"github.com/ezrec/ulang/internal"
	"github.com/ezrec/ulang/io"
	"github.com/ezrec/ulang/source"
)

// Stop is the reason Run returned.
type Stop int

const (
	STOP_BUDGET     = Stop(iota) // Instruction budget exhausted.
	STOP_DONE                    // Program halted.
	STOP_PAUSED                  // A device paused the machine.
	STOP_BREAKPOINT              // Next instruction is at a breakpoint.
)

func (stop Stop) String() string {
	switch stop {
	case STOP_BUDGET:
		return "budget"
	case STOP_DONE:
		return "done"
	case STOP_PAUSED:
		return "paused"
	case STOP_BREAKPOINT:
		return "breakpoint"
	}
	return fmt.Sprintf("Stop(%d)", int(stop))
}

var _emulator_defines = map[string]string{
	"SYSCALL_LIMIT": fmt.Sprintf("%v", cpu.SYSCALL_LIMIT),
}

// Emulator state. CPU + syscall devices.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program.

	Debugger io.Debugger // Debugger hook, SYSCALL_DEBUG and 'brk'.
	Display  io.Display  // Framebuffer, SYSCALL_VSYNC.
	Console  io.Console  // Text output, SYSCALL_PRINT.
	Pointer  io.Pointer  // Mouse, SYSCALL_MOUSE.
	Clock    io.Clock    // Wall clock, SYSCALL_TIME.

	breakpoints map[uint32]int // Code address to source line.
	paused      bool
	halted      bool
}

// NewEmulator creates a new emulator with size bytes of memory.
// A size of 0 selects cpu.MEMORY_SIZE.
func NewEmulator(size uint32) (emu *Emulator) {
	emu = &Emulator{
		Cpu:         cpu.NewCpu(size),
		breakpoints: map[uint32]int{},
	}

	for _, dev := range emu.devices() {
		emu.Cpu.SetSyscall(dev.Number(), emu.pausing(dev))
	}

	return
}

func (emu *Emulator) devices() []io.Device {
	return []io.Device{
		&emu.Debugger,
		&emu.Display,
		&emu.Console,
		&emu.Pointer,
		&emu.Clock,
	}
}

// pausing notes when a device declines to resume, so that Tick can tell a
// pause from a halt.
func (emu *Emulator) pausing(dev io.Device) cpu.Syscall {
	return cpu.SyscallFunc(func(cp *cpu.Cpu, number uint8) (resume bool, err error) {
		resume, err = dev.Syscall(cp, number)
		if err == nil && !resume {
			emu.paused = true
		}
		return
	})
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	seqs := []iter.Seq2[string, string]{
		maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	}
	for _, dev := range emu.devices() {
		seqs = append(seqs, dev.Defines())
	}
	return internal.IterSeq2Concat(seqs...)
}

// Assembler returns an assembler with the emulator defines predefined.
func (emu *Emulator) Assembler() (asm *cpu.Assembler, err error) {
	asm = &cpu.Assembler{Verbose: emu.Verbose}
	for name, value := range emu.Defines() {
		err = asm.Predefine(name, value)
		if err != nil {
			return
		}
	}
	return
}

// Assemble a source file against the emulator defines, and make it the
// current program.
func (emu *Emulator) Assemble(file *source.File) (err error) {
	asm, err := emu.Assembler()
	if err != nil {
		return
	}

	prog, err := asm.Assemble(file)
	if err != nil {
		return
	}

	emu.Program = prog
	clear(emu.breakpoints)
	return
}

// Reset the machine, and load the current program.
func (emu *Emulator) Reset() (err error) {
	if emu.Program == nil {
		err = ErrProgramMissing
		return
	}

	emu.Cpu.Verbose = emu.Verbose
	err = emu.Cpu.Reset(emu.Program)
	if err != nil {
		return
	}

	for _, dev := range emu.devices() {
		dev.Reset()
	}

	emu.paused = false
	emu.halted = false

	return
}

// LineNo returns the source line of the instruction at PC, or 0.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}
	line, _ := emu.Program.Line(emu.Cpu.Pc())
	return line
}

// Paused is set when the last Tick executed a syscall that paused the
// machine. The next Tick resumes it.
func (emu *Emulator) Paused() bool {
	return emu.paused
}

// Tick performs a single instruction of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	if emu.halted {
		done = true
		return
	}

	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	emu.paused = false
	err = emu.Cpu.Tick()
	if errors.Is(err, cpu.ErrHalted) {
		err = nil
		if !emu.paused {
			emu.halted = true
			done = true
		}
	}

	return
}

// Run executes at most n instructions. It stops early when the program
// halts, a device pauses the machine, or the next instruction is at a
// breakpoint. The instruction at PC on entry is never treated as a
// breakpoint, so that Run can continue from one.
func (emu *Emulator) Run(n int) (stop Stop, err error) {
	for count := range n {
		if count > 0 {
			if line, ok := emu.breakpoints[emu.Cpu.Pc()]; ok {
				if emu.Verbose {
					log.Printf("emulator: breakpoint at line %d", line)
				}
				stop = STOP_BREAKPOINT
				return
			}
		}

		var done bool
		done, err = emu.Tick()
		if err != nil {
			return
		}
		if done {
			stop = STOP_DONE
			return
		}
		if emu.paused {
			stop = STOP_PAUSED
			return
		}
	}

	stop = STOP_BUDGET
	return
}

// SetBreakpoint sets a breakpoint on the first instruction of a source line.
func (emu *Emulator) SetBreakpoint(line int) (err error) {
	addr, ok := emu.lineAddress(line)
	if !ok {
		err = fmt.Errorf("%w: %d", ErrBreakpointLine, line)
		return
	}

	emu.breakpoints[addr] = line
	return
}

// ClearBreakpoint removes the breakpoint on a source line.
func (emu *Emulator) ClearBreakpoint(line int) (err error) {
	addr, ok := emu.lineAddress(line)
	if !ok {
		err = fmt.Errorf("%w: %d", ErrBreakpointLine, line)
		return
	}

	delete(emu.breakpoints, addr)
	return
}

// Breakpoints returns the lines with breakpoints, by code address.
func (emu *Emulator) Breakpoints() iter.Seq2[uint32, int] {
	return maps.All(emu.breakpoints)
}

func (emu *Emulator) lineAddress(line int) (addr uint32, ok bool) {
	if emu.Program == nil {
		return
	}

	for index, at := range emu.Program.AddressToLine {
		if at == line {
			addr = uint32(index) * 4
			ok = true
			return
		}
	}

	return
}
