package codegen

import (
	"bytes"
	"fmt"
	"strings"
)

// Writer accumulates indented source text.
type Writer struct {
	buf   bytes.Buffer
	unit  string
	depth int
}

// NewWriter returns a Writer that indents with unit ("\t", "    ").
func NewWriter(unit string) *Writer {
	return &Writer{unit: unit}
}

// Line writes one indented line. With args, line is a format string.
func (w *Writer) Line(line string, args ...any) {
	if len(args) > 0 {
		line = fmt.Sprintf(line, args...)
	}
	if line == "" {
		w.buf.WriteByte('\n')
		return
	}
	for i := 0; i < w.depth; i++ {
		w.buf.WriteString(w.unit)
	}
	w.buf.WriteString(line)
	w.buf.WriteByte('\n')
}

// Blank writes an empty line.
func (w *Writer) Blank() { w.buf.WriteByte('\n') }

// Indent increases the indentation of following lines.
func (w *Writer) Indent() { w.depth++ }

// Dedent decreases the indentation of following lines.
func (w *Writer) Dedent() {
	if w.depth > 0 {
		w.depth--
	}
}

// Comment writes text as a line comment block using prefix ("// ", "# ").
func (w *Writer) Comment(prefix, text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		w.Line(strings.TrimRight(prefix+line, " "))
	}
}

// Bytes returns the accumulated text.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// String returns the accumulated text.
func (w *Writer) String() string { return w.buf.String() }
