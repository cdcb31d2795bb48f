// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/ezrec/ulang/emulator"
	"github.com/ezrec/ulang/source"
)

const RUN_SLICE = 4096 // Instructions per Run call.

func main() {
	var config string
	var defines defineList
	var verbose bool
	var frames string
	var max int
	var seed uint64
	var memory uint
	var disasm bool
	var dump bool

	flag.StringVar(&config, "config", "", "YAML configuration file")
	flag.Var(&defines, "D", "Predefine NAME=expr (repeatable)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.StringVar(&frames, "frames", "", "Directory for BMP frame dumps")
	flag.IntVar(&max, "max", 0, "Instruction budget, 0 for unlimited")
	flag.Uint64Var(&seed, "seed", 0, "Random seed")
	flag.UintVar(&memory, "memory", 0, "Memory size in bytes")
	flag.BoolVar(&disasm, "disasm", false, "Print the disassembly, do not execute")
	flag.BoolVar(&dump, "dump", false, "Print the register state on exit")

	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("%v: expected one source file, got %v", os.Args[0], flag.Args())
	}
	path := flag.Arg(0)

	cfg := &Config{}
	if len(config) != 0 {
		var err error
		cfg, err = LoadConfig(config)
		if err != nil {
			log.Fatalf("%v: %v", config, err)
		}
	}

	// Explicit flags override the configuration file.
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "D":
			cfg.Defines = append(cfg.Defines, defines...)
		case "v":
			cfg.Verbose = verbose
		case "frames":
			cfg.Frames = frames
		case "max":
			cfg.Max = max
		case "seed":
			cfg.Seed = &seed
		case "memory":
			cfg.Memory = uint32(memory)
		}
	})

	file, err := source.ReadFile(path)
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}

	emu := emulator.NewEmulator(cfg.Memory)
	emu.Verbose = cfg.Verbose
	emu.Console.Output = os.Stdout
	if cfg.Seed != nil {
		emu.Cpu.Seed(*cfg.Seed)
	}

	asm, err := emu.Assembler()
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}
	for _, define := range cfg.Defines {
		name, expr, _ := splitDefine(define)
		err = asm.Predefine(name, expr)
		if err != nil {
			log.Fatalf("-D %v: %v", define, err)
		}
	}

	prog, err := asm.Assemble(file)
	if err != nil {
		var se *source.Error
		if errors.As(err, &se) {
			se.Print(os.Stderr, isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
			os.Exit(1)
		}
		log.Fatalf("%v: %v", path, err)
	}

	if disasm {
		fmt.Print(prog.Disassemble())
		return
	}

	if len(cfg.Frames) != 0 {
		err = os.MkdirAll(cfg.Frames, 0o755)
		if err != nil {
			log.Fatalf("%v: %v", cfg.Frames, err)
		}
		emu.Display.OnFrame = func(frame *image.NRGBA) (err error) {
			name := filepath.Join(cfg.Frames, fmt.Sprintf("frame%05d.bmp", emu.Display.Frames))
			ouf, err := os.Create(name)
			if err != nil {
				return
			}
			defer ouf.Close()
			return emu.Display.Encode(ouf)
		}
	}

	emu.Program = prog
	err = emu.Reset()
	if err != nil {
		log.Fatalf("%v: %v", path, err)
	}

	for {
		slice := RUN_SLICE
		if cfg.Max > 0 {
			if emu.Cpu.Ticks >= cfg.Max {
				log.Fatalf("%v: instruction budget of %d exhausted", path, cfg.Max)
			}
			slice = min(slice, cfg.Max-emu.Cpu.Ticks)
		}

		stop, err := emu.Run(slice)
		if err != nil {
			fmt.Fprint(os.Stderr, emu.Cpu.String())
			log.Fatalf("%v: %v", path, err)
		}
		if stop == emulator.STOP_DONE {
			break
		}
	}

	if dump {
		fmt.Fprint(os.Stderr, emu.Cpu.String())
	}
}
