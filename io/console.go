package io

import (
	"fmt"
	"io"
	"iter"
	"maps"
	"strconv"
	"strings"

	"github.com/ezrec/ulang/cpu"
)

// Print argument tags. Arguments are pushed in reverse, so that the first
// tag popped is the first printed, and the list ends with PRINT_END.
const (
	PRINT_INT     = uint32(0) // Pops a signed integer.
	PRINT_HEX     = uint32(1) // Pops an integer, printed in hex.
	PRINT_FLOAT   = uint32(2) // Pops a float.
	PRINT_STRING  = uint32(3) // Pops the address of a NUL terminated string.
	PRINT_SPACE   = uint32(4) // A single space.
	PRINT_NEWLINE = uint32(5) // A newline.
	PRINT_END     = uint32(6) // End of arguments.
)

// Console formats SYSCALL_PRINT requests onto a writer, one line per request.
type Console struct {
	Output io.Writer
}

var _ Device = (*Console)(nil)

func (con *Console) Number() uint8 {
	return SYSCALL_PRINT
}

func (con *Console) Reset() {
}

func (con *Console) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"SYSCALL_PRINT": fmt.Sprintf("%d", SYSCALL_PRINT),
		"PRINT_INT":     fmt.Sprintf("%d", PRINT_INT),
		"PRINT_HEX":     fmt.Sprintf("%d", PRINT_HEX),
		"PRINT_FLOAT":   fmt.Sprintf("%d", PRINT_FLOAT),
		"PRINT_STRING":  fmt.Sprintf("%d", PRINT_STRING),
		"PRINT_SPACE":   fmt.Sprintf("%d", PRINT_SPACE),
		"PRINT_NEWLINE": fmt.Sprintf("%d", PRINT_NEWLINE),
		"PRINT_END":     fmt.Sprintf("%d", PRINT_END),
	})
}

// readString reads a NUL terminated string from memory.
func readString(mem cpu.Memory, addr uint32) (text string, err error) {
	var sb strings.Builder
	for ; addr < mem.Size(); addr++ {
		var c uint32
		c, err = mem.Load(addr, 1)
		if err != nil {
			return
		}
		if c == 0 {
			text = sb.String()
			return
		}
		sb.WriteByte(byte(c))
	}

	err = ErrStringUnterminated
	return
}

func (con *Console) Syscall(cp *cpu.Cpu, number uint8) (resume bool, err error) {
	var sb strings.Builder
	for {
		var tag uint32
		tag, err = cp.PopUint()
		if err != nil {
			return
		}
		if tag == PRINT_END {
			break
		}

		switch tag {
		case PRINT_INT:
			var v int32
			v, err = cp.PopInt()
			sb.WriteString(strconv.FormatInt(int64(v), 10))
		case PRINT_HEX:
			var v int32
			v, err = cp.PopInt()
			sb.WriteString("0x" + strconv.FormatInt(int64(v), 16))
		case PRINT_FLOAT:
			var v float32
			v, err = cp.PopFloat()
			sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
		case PRINT_STRING:
			var addr uint32
			addr, err = cp.PopUint()
			if err == nil {
				var text string
				text, err = readString(cp.Memory, addr)
				sb.WriteString(text)
			}
		case PRINT_SPACE:
			sb.WriteByte(' ')
		case PRINT_NEWLINE:
			sb.WriteByte('\n')
		}
		if err != nil {
			return
		}
	}

	sb.WriteByte('\n')
	if con.Output != nil {
		_, err = io.WriteString(con.Output, sb.String())
		if err != nil {
			return
		}
	}

	resume = true
	return
}
