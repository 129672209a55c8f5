package util

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// TabbedStringBuilder is a wrapper around a *tabwriter.Writer that allows for efficiently building
// tab-aligned strings.
// The underlying writer is always a strings.Builder, which never errors, so unlike *tabwriter.Writer
// none of the methods return an error.
type TabbedStringBuilder struct {
	sb     *strings.Builder
	writer *tabwriter.Writer
}

// NewTabbedStringBuilder creates a new TabbedStringBuilder.  All parameters are equivalent to those defined in tabwriter.NewWriter
func NewTabbedStringBuilder(minwidth, tabwidth, padding int, padchar byte, flags uint) *TabbedStringBuilder {
	sb := &strings.Builder{}
	return &TabbedStringBuilder{
		sb:     sb,
		writer: tabwriter.NewWriter(sb, minwidth, tabwidth, padding, padchar, flags),
	}
}

// NewTableBuilder returns a builder for right-aligned, space padded numeric tables.
func NewTableBuilder() *TabbedStringBuilder {
	return NewTabbedStringBuilder(0, 0, 2, ' ', tabwriter.AlignRight)
}

// Writef formats according to a format specifier and writes to the underlying writer
func (t *TabbedStringBuilder) Writef(format string, a ...any) {
	_, _ = fmt.Fprintf(t.writer, format, a...)
}

// Write the string to the underlying writer
func (t *TabbedStringBuilder) Write(a ...any) {
	_, _ = fmt.Fprint(t.writer, a...)
}

// Row writes the cells separated by tabs and terminated by a newline.
// With tabwriter.AlignRight every cell, including the last, must be tab terminated to be aligned.
func (t *TabbedStringBuilder) Row(cells ...any) {
	for _, c := range cells {
		_, _ = fmt.Fprintf(t.writer, "%v\t", c)
	}
	_, _ = fmt.Fprint(t.writer, "\n")
}

// String returns the accumulated string.
// Flush on the underlying writer is automatically called
func (t *TabbedStringBuilder) String() string {
	_ = t.writer.Flush()
	return t.sb.String()
}
