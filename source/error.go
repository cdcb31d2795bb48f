package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/ezrec/ulang/translate"
)

var f = translate.From

// Error is a diagnostic anchored to a span of source text.
type Error struct {
	Span    Span   // Offending text.
	Message string // Human readable message.
	Err     error  // Error class, for errors.Is.
}

// Errorf creates a diagnostic with a translated, formatted message.
func Errorf(class error, span Span, format string, args ...any) *Error {
	return &Error{
		Span:    span,
		Message: f(format, args...),
		Err:     class,
	}
}

func (err *Error) fileName() string {
	if err.Span.File == nil {
		return "<unknown>"
	}
	return err.Span.File.Name
}

func (err *Error) Error() string {
	return fmt.Sprintf("Error (%v:%d): %v", err.fileName(), err.Span.StartLine, err.Message)
}

func (err *Error) Unwrap() error {
	return err.Err
}

// Underline renders the offending source line and a caret line beneath the
// span. Tabs in the source line are kept so the carets stay aligned.
func (err *Error) Underline() (text string, carets string) {
	file := err.Span.File
	if file == nil {
		return
	}
	line, ok := file.Line(err.Span.StartLine)
	if !ok || line.End == line.Start {
		return
	}

	text = file.Text(line)
	start := err.Span.Start - line.Start
	end := start + err.Span.Len() - 1
	if end < start {
		end = start
	}

	var sb strings.Builder
	for n := range len(text) {
		switch {
		case n >= start && n <= end:
			sb.WriteByte('^')
		case text[n] == '\t':
			sb.WriteByte('\t')
		default:
			sb.WriteByte(' ')
		}
	}
	carets = sb.String()
	return
}

// Print writes the diagnostic, the offending line and its underline.
// When color is set the message and carets are highlighted with ANSI codes.
func (err *Error) Print(w io.Writer, color bool) {
	red, reset := "", ""
	if color {
		red, reset = "\033[31m", "\033[0m"
	}

	fmt.Fprintf(w, "%s%v%s\n", red, err.Error(), reset)
	text, carets := err.Underline()
	if len(text) == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n%s%s%s\n", text, red, carets, reset)
}
