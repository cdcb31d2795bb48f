package io

import (
	"fmt"
	"iter"
	"maps"
	"time"

	"github.com/ezrec/ulang/cpu"
)

// Clock reports the seconds elapsed since its last Reset.
type Clock struct {
	Now func() time.Time // Time source; time.Now if nil.

	start time.Time
}

var _ Device = (*Clock)(nil)

func (clk *Clock) now() time.Time {
	if clk.Now == nil {
		return time.Now()
	}
	return clk.Now()
}

func (clk *Clock) Number() uint8 {
	return SYSCALL_TIME
}

func (clk *Clock) Reset() {
	clk.start = clk.now()
}

func (clk *Clock) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"SYSCALL_TIME": fmt.Sprintf("%d", SYSCALL_TIME),
	})
}

// Syscall pushes the elapsed seconds as a float.
func (clk *Clock) Syscall(cp *cpu.Cpu, number uint8) (resume bool, err error) {
	if clk.start.IsZero() {
		clk.Reset()
	}

	elapsed := clk.now().Sub(clk.start)
	err = cp.PushFloat(float32(elapsed.Seconds()))
	if err != nil {
		return
	}

	resume = true
	return
}
