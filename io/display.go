package io

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"iter"
	"maps"

	"golang.org/x/image/bmp"

	"github.com/ezrec/ulang/cpu"
)

// Screen geometry. Frames are SCREEN_WIDTH*SCREEN_HEIGHT little-endian
// 0xAARRGGBB words, row major.
const (
	SCREEN_WIDTH  = 320
	SCREEN_HEIGHT = 240
	FRAME_SIZE    = SCREEN_WIDTH * SCREEN_HEIGHT * 4
)

// Display copies the framebuffer out of memory on SYSCALL_VSYNC, and pauses
// the machine so the host can present it.
type Display struct {
	Frames  int                            // Number of frames presented.
	OnFrame func(frame *image.NRGBA) error // Called for each presented frame.

	frame *image.NRGBA
	raw   []byte
}

var _ Device = (*Display)(nil)

func (dpy *Display) Number() uint8 {
	return SYSCALL_VSYNC
}

func (dpy *Display) Reset() {
	dpy.Frames = 0
	dpy.frame = nil
}

func (dpy *Display) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"SYSCALL_VSYNC": fmt.Sprintf("%d", SYSCALL_VSYNC),
		"SCREEN_WIDTH":  fmt.Sprintf("%d", SCREEN_WIDTH),
		"SCREEN_HEIGHT": fmt.Sprintf("%d", SCREEN_HEIGHT),
	})
}

// Syscall pops the framebuffer address, and converts the frame.
func (dpy *Display) Syscall(cp *cpu.Cpu, number uint8) (resume bool, err error) {
	addr, err := cp.PopUint()
	if err != nil {
		return
	}

	if dpy.raw == nil {
		dpy.raw = make([]byte, FRAME_SIZE)
	}
	err = cp.Memory.Read(addr, dpy.raw)
	if err != nil {
		return
	}

	if dpy.frame == nil {
		dpy.frame = image.NewNRGBA(image.Rect(0, 0, SCREEN_WIDTH, SCREEN_HEIGHT))
	}
	for n := range SCREEN_WIDTH * SCREEN_HEIGHT {
		argb := binary.LittleEndian.Uint32(dpy.raw[n*4:])
		dpy.frame.SetNRGBA(n%SCREEN_WIDTH, n/SCREEN_WIDTH, color.NRGBA{
			A: uint8(argb >> 24),
			R: uint8(argb >> 16),
			G: uint8(argb >> 8),
			B: uint8(argb),
		})
	}
	dpy.Frames++

	if dpy.OnFrame != nil {
		err = dpy.OnFrame(dpy.frame)
	}

	return
}

// Frame returns the last presented frame, or nil.
func (dpy *Display) Frame() *image.NRGBA {
	return dpy.frame
}

// Encode writes the last presented frame as a BMP image.
func (dpy *Display) Encode(w io.Writer) (err error) {
	if dpy.frame == nil {
		err = ErrFrameMissing
		return
	}
	return bmp.Encode(w, dpy.frame)
}
