package cpu

import (
	"encoding/binary"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/ezrec/ulang/source"
)

// Segment is the region of the memory image a label points into.
type Segment int

const (
	SEGMENT_UNINITIALIZED = Segment(0) // Not yet bound to an emission.
	SEGMENT_CODE          = Segment(1) // Instructions, at address 0.
	SEGMENT_DATA          = Segment(2) // Initialized data, after code.
	SEGMENT_RESERVED      = Segment(3) // Zeroed data, after initialized data.
)

var segmentNames = [...]string{
	SEGMENT_UNINITIALIZED: "uninitialized",
	SEGMENT_CODE:          "code",
	SEGMENT_DATA:          "data",
	SEGMENT_RESERVED:      "reserved",
}

func (seg Segment) String() string {
	if seg < 0 || int(seg) >= len(segmentNames) {
		return "?"
	}
	return segmentNames[seg]
}

// Label is a named, segment relative address.
type Label struct {
	Name    string
	Span    source.Span
	Segment Segment
	Offset  uint32
}

// Program is the output of the assembler.
// The memory image is [code][data][reserved], with reserved bytes zeroed.
type Program struct {
	File      *source.File
	Code      []byte
	Data      []byte
	Reserved  uint32
	Labels    map[string]*Label
	Constants map[string]*Constant

	// AddressToLine has the source line of each 4-byte code word.
	AddressToLine []int
}

// Base returns the absolute address of a segment.
func (prog *Program) Base(seg Segment) (base uint32) {
	switch seg {
	case SEGMENT_DATA:
		base = uint32(len(prog.Code))
	case SEGMENT_RESERVED:
		base = uint32(len(prog.Code) + len(prog.Data))
	}
	return
}

// Address returns the absolute address of a label.
func (prog *Program) Address(label *Label) uint32 {
	return prog.Base(label.Segment) + label.Offset
}

// Lookup returns the absolute address of a named label.
func (prog *Program) Lookup(name string) (addr uint32, ok bool) {
	label, ok := prog.Labels[name]
	if !ok || label.Segment == SEGMENT_UNINITIALIZED {
		return 0, false
	}
	return prog.Address(label), true
}

// Image returns the loadable memory image, code followed by data.
func (prog *Program) Image() (image []byte) {
	image = make([]byte, 0, len(prog.Code)+len(prog.Data))
	image = append(image, prog.Code...)
	image = append(image, prog.Data...)
	return
}

// Size returns the memory footprint, including reserved bytes.
func (prog *Program) Size() uint32 {
	return uint32(len(prog.Code)+len(prog.Data)) + prog.Reserved
}

// Line returns the source line of the code word at pc.
func (prog *Program) Line(pc uint32) (line int, ok bool) {
	index := int(pc / 4)
	if index >= len(prog.AddressToLine) {
		return
	}
	return prog.AddressToLine[index], true
}

// Symbol describes an address as "label" or "label+offset", using the
// closest label at or below the address.
func (prog *Program) Symbol(addr uint32) string {
	var best *Label
	var bestAddr uint32
	for _, label := range prog.Labels {
		at := prog.Address(label)
		if at > addr {
			continue
		}
		if best == nil || at > bestAddr || (at == bestAddr && label.Name < best.Name) {
			best = label
			bestAddr = at
		}
	}

	if best == nil {
		return fmt.Sprintf("0x%x", addr)
	}
	if bestAddr == addr {
		return best.Name
	}
	return fmt.Sprintf("%v+%d", best.Name, addr-bestAddr)
}

// Codes iterates over the decoded instructions of the code segment.
func (prog *Program) Codes() iter.Seq2[uint32, Instruction] {
	return func(yield func(pc uint32, in Instruction) bool) {
		size := uint32(len(prog.Code))
		for pc := uint32(0); pc+4 <= size; {
			in := Instruction{Code: Code(binary.LittleEndian.Uint32(prog.Code[pc:]))}
			if in.Size() == 8 && pc+8 <= size {
				in.Value = binary.LittleEndian.Uint32(prog.Code[pc+4:])
			}
			if !yield(pc, in) {
				return
			}
			pc += in.Size()
		}
	}
}

// Disassemble renders the code segment, one instruction per line,
// with label names in front of their addresses.
func (prog *Program) Disassemble() string {
	names := map[uint32][]string{}
	for _, label := range prog.Labels {
		if label.Segment == SEGMENT_CODE {
			names[label.Offset] = append(names[label.Offset], label.Name)
		}
	}

	var sb strings.Builder
	for pc, in := range prog.Codes() {
		labels := names[pc]
		slices.Sort(labels)
		for _, name := range labels {
			fmt.Fprintf(&sb, "%v:\n", name)
		}
		fmt.Fprintf(&sb, "%06x: %v\n", pc, in)
	}

	return sb.String()
}
