package cpu

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/ulang/source"
)

func FuzzAssembler(f *testing.F) {
	f.Add("halt")
	f.Add("jmp l\nhalt\nl: mov 123, r1\n")
	f.Add("const OFF 2\ndata: reserve int x 4\nmov 123, r1\nsto r1, data + OFF, 0")
	f.Add("byte \"abc\\n\" x 2\nfloat 1.5, -2")
	f.Add("mov (1 + 2) * 0x10 - 4 % 3, r1")
	f.Add("mov \"")

	f.Fuzz(func(t *testing.T, text string) {
		asm := &Assembler{}
		prog, err := asm.Assemble(source.NewFile("fuzz.ul", []byte(text)))
		if err != nil {
			var serr *source.Error
			if !errors.As(err, &serr) {
				t.Fatalf("%q: error is not a diagnostic: %v", text, err)
			}
			return
		}

		// Anything that assembles must run without panicking.
		cpu := NewCpu(4096)
		if cpu.Reset(prog) != nil {
			return
		}
		for range 256 {
			if cpu.Tick() != nil {
				break
			}
		}
	})
}

func FuzzArithmetic(f *testing.F) {
	f.Add(int32(7), int32(2))
	f.Add(int32(-7), int32(2))
	f.Add(int32(math.MinInt32), int32(-1))
	f.Add(int32(0), int32(0))
	f.Add(int32(-1), int32(1))

	f.Fuzz(func(t *testing.T, a int32, b int32) {
		assert := assert.New(t)

		text := fmt.Sprintf(`mov %d, r1
mov %d, r2
cmp r1, r2, r3
cmpu r1, r2, r4
mov %.1f, r5
mov %.1f, r6
cmpf r5, r6, r7
div r1, r2, r8
rem r1, r2, r9
divu r1, r2, r10
remu r1, r2, r11
halt`, a, b, float32(a), float32(b))

		cpu := NewCpu(4096)
		assert.NoError(cpu.Reset(assemble(t, text)))

		var err error
		for err == nil {
			err = cpu.Tick()
		}

		signum := func(less, greater bool) int32 {
			switch {
			case less:
				return -1
			case greater:
				return 1
			}
			return 0
		}

		reg := cpu.Register
		assert.Equal(signum(a < b, a > b), int32(reg[2]))
		assert.Equal(signum(uint32(a) < uint32(b), uint32(a) > uint32(b)), int32(reg[3]))
		assert.Equal(signum(float32(a) < float32(b), float32(a) > float32(b)), int32(reg[6]))

		if b == 0 {
			assert.ErrorIs(err, ErrDivideByZero)
			assert.Equal(uint32(44), cpu.Pc())
			return
		}

		assert.ErrorIs(err, ErrHalted)
		assert.Equal(a/b, int32(reg[7]))
		assert.Equal(a%b, int32(reg[8]))
		assert.Equal(uint32(a)/uint32(b), reg[9])
		assert.Equal(uint32(a)%uint32(b), reg[10])
	})
}
