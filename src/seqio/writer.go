package seqio

import (
	"bufio"
	"io"
)

// Writer writes sequences as unwrapped FASTA, one header line and one sequence line per record
type Writer struct {
	w       *bufio.Writer
	records int
}

// NewWriter wraps w in a buffered FASTA writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write adds a record; records after the first are preceded by a newline
func (Writer *Writer) Write(sequence *Sequence) error {
	if Writer.records != 0 {
		if err := Writer.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	Writer.records++
	if err := Writer.w.WriteByte('>'); err != nil {
		return err
	}
	if _, err := Writer.w.WriteString(sequence.ID); err != nil {
		return err
	}
	if err := Writer.w.WriteByte('\n'); err != nil {
		return err
	}
	_, err := Writer.w.Write(sequence.Seq)
	return err
}

// Records returns the number of records written so far
func (Writer *Writer) Records() int {
	return Writer.records
}

// Close terminates the output with a newline and flushes it; it does not close the underlying writer
func (Writer *Writer) Close() error {
	if err := Writer.w.WriteByte('\n'); err != nil {
		return err
	}
	return Writer.w.Flush()
}
