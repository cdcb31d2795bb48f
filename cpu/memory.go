package cpu

import (
	"encoding/binary"
)

// MEMORY_SIZE is the default memory size, in bytes.
const MEMORY_SIZE = 32 * 1024 * 1024

// Memory is the flat, byte addressed memory of the machine.
// All accesses are little-endian and bounds checked.
type Memory interface {
	// Size returns the number of addressable bytes.
	Size() uint32
	// Load reads a 1, 2 or 4 byte value.
	Load(addr uint32, width int) (value uint32, err error)
	// Store writes the low 1, 2 or 4 bytes of value.
	Store(addr uint32, width int, value uint32) (err error)
	// Read copies len(data) bytes starting at addr.
	Read(addr uint32, data []byte) (err error)
	// Write copies data to memory starting at addr.
	Write(addr uint32, data []byte) (err error)
	// Reset zeros the memory.
	Reset()
}

// Ram is a Memory backed by a byte slice.
type Ram []byte

var _ Memory = Ram(nil)

// NewRam allocates a zeroed Ram.
func NewRam(size uint32) Ram {
	return make(Ram, size)
}

func (ram Ram) Size() uint32 {
	return uint32(len(ram))
}

// check returns the byte range of an access, or ErrMemoryBounds.
func (ram Ram) check(addr uint32, width int) (slice []byte, err error) {
	end := uint64(addr) + uint64(width)
	if end > uint64(len(ram)) {
		err = ErrMemoryBounds{Address: addr, Width: width}
		return
	}
	slice = ram[addr:end]
	return
}

func (ram Ram) Load(addr uint32, width int) (value uint32, err error) {
	slice, err := ram.check(addr, width)
	if err != nil {
		return
	}

	switch width {
	case 1:
		value = uint32(slice[0])
	case 2:
		value = uint32(binary.LittleEndian.Uint16(slice))
	case 4:
		value = binary.LittleEndian.Uint32(slice)
	default:
		panic("invalid memory access width")
	}

	return
}

func (ram Ram) Store(addr uint32, width int, value uint32) (err error) {
	slice, err := ram.check(addr, width)
	if err != nil {
		return
	}

	switch width {
	case 1:
		slice[0] = byte(value)
	case 2:
		binary.LittleEndian.PutUint16(slice, uint16(value))
	case 4:
		binary.LittleEndian.PutUint32(slice, value)
	default:
		panic("invalid memory access width")
	}

	return
}

func (ram Ram) Read(addr uint32, data []byte) (err error) {
	slice, err := ram.check(addr, len(data))
	if err != nil {
		return
	}
	copy(data, slice)
	return
}

func (ram Ram) Write(addr uint32, data []byte) (err error) {
	slice, err := ram.check(addr, len(data))
	if err != nil {
		return
	}
	copy(slice, data)
	return
}

func (ram Ram) Reset() {
	clear(ram)
}
