// Package source holds assembly source text and the diagnostics that point into it.
package source

import (
	"os"
	"sort"
)

// File is an immutable source buffer.
type File struct {
	Name string // File name, used in diagnostics.
	Data []byte // Raw source bytes.

	lines []Line // Line index, built on first use.
}

// Line is one line of a File, without its terminating newline.
type Line struct {
	Number int // 1-based line number.
	Start  int // Byte offset of the first character.
	End    int // Byte offset one past the last character.
}

// Span is a byte range of a File plus the lines it covers.
type Span struct {
	File      *File
	Start     int
	End       int
	StartLine int
	EndLine   int
}

// NewFile creates a File from in-memory text.
func NewFile(name string, data []byte) *File {
	return &File{Name: name, Data: data}
}

// ReadFile loads a File from disk.
func ReadFile(path string) (file *File, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	file = NewFile(path, data)
	return
}

// Lines returns the line index of the file.
func (file *File) Lines() []Line {
	if file.lines != nil {
		return file.lines
	}

	lines := make([]Line, 0, 16)
	start := 0
	for n, c := range file.Data {
		if c == '\n' {
			lines = append(lines, Line{Number: len(lines) + 1, Start: start, End: n})
			start = n + 1
		}
	}
	if start < len(file.Data) || len(lines) == 0 {
		lines = append(lines, Line{Number: len(lines) + 1, Start: start, End: len(file.Data)})
	}

	file.lines = lines
	return lines
}

// Line returns the line with the given 1-based number.
func (file *File) Line(number int) (line Line, ok bool) {
	lines := file.Lines()
	if number < 1 || number > len(lines) {
		return
	}

	return lines[number-1], true
}

// LineAt returns the line containing the byte offset.
func (file *File) LineAt(offset int) (line Line) {
	lines := file.Lines()
	n := sort.Search(len(lines), func(i int) bool { return lines[i].End >= offset })
	if n == len(lines) {
		n = len(lines) - 1
	}
	return lines[n]
}

// Text returns the text of a line.
func (file *File) Text(line Line) string {
	return string(file.Data[line.Start:line.End])
}

// Text returns the source text covered by the span.
func (span Span) Text() string {
	if span.File == nil {
		return ""
	}
	return string(span.File.Data[span.Start:span.End])
}

// Len returns the length of the span in bytes.
func (span Span) Len() int {
	return span.End - span.Start
}

// To returns a span running from the start of span to the end of other.
func (span Span) To(other Span) Span {
	span.End = other.End
	span.EndLine = other.EndLine
	return span
}
