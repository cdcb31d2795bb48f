package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the run configuration, read from a YAML file and overridden by
// command line flags.
type Config struct {
	// Memory is the machine memory size in bytes. 0 selects the default.
	Memory uint32 `yaml:"memory,omitempty"`

	// Max is the instruction budget. 0 is unlimited.
	Max int `yaml:"max,omitempty"`

	// Verbose enables assembler and cpu tracing.
	Verbose bool `yaml:"verbose,omitempty"`

	// Frames is a directory that receives a BMP for each presented frame.
	Frames string `yaml:"frames,omitempty"`

	// Seed makes the 'rand' instruction deterministic.
	Seed *uint64 `yaml:"seed,omitempty"`

	// Defines are NAME=expr predefines, in order. A bare NAME is set to 1.
	Defines []string `yaml:"defines,omitempty"`
}

// LoadConfig reads a configuration file.
func LoadConfig(path string) (cfg *Config, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	cfg = &Config{}
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = nil
		err = fmt.Errorf("%v: %w", path, err)
		return
	}

	for _, define := range cfg.Defines {
		if _, _, err = splitDefine(define); err != nil {
			cfg = nil
			return
		}
	}

	return
}

// splitDefine splits 'NAME=expr'.
func splitDefine(text string) (name string, expr string, err error) {
	name, expr, ok := strings.Cut(text, "=")
	name = strings.TrimSpace(name)
	expr = strings.TrimSpace(expr)
	if !ok {
		expr = "1"
	}
	if len(name) == 0 {
		err = fmt.Errorf("invalid define %q", text)
	}
	return
}

// defineList collects repeated -D flags.
type defineList []string

func (list *defineList) String() string {
	return strings.Join(*list, ",")
}

func (list *defineList) Set(text string) (err error) {
	_, _, err = splitDefine(text)
	if err != nil {
		return
	}
	*list = append(*list, text)
	return
}
