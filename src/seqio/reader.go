package seqio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/biogo/biogo/alphabet"
	bioseqio "github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/io/seqio/fastq"
	"github.com/biogo/biogo/seq"
	"github.com/biogo/biogo/seq/linear"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Reader streams FASTA or FASTQ records from a (possibly compressed) source
type Reader struct {
	scanner *bioseqio.Scanner
	closers []io.Closer
	Fastq   bool
}

// Open is a function to open a sequence file, "-" reads STDIN. Files ending in .gz, .zst or .lz4 are decompressed.
func Open(path string) (*Reader, error) {
	var fh io.ReadCloser
	if path == "-" {
		fh = io.NopCloser(os.Stdin)
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		fh = file
	}
	closers := []io.Closer{fh}
	var src io.Reader = fh
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gz, err := gzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, fmt.Errorf("could not read gzip stream from %v: %w", path, err)
		}
		closers = append(closers, gz)
		src = gz
	case ".zst":
		zd, err := zstd.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, fmt.Errorf("could not read zstd stream from %v: %w", path, err)
		}
		closers = append(closers, zd.IOReadCloser())
		src = zd
	case ".lz4":
		// lz4 does not return io.EOF again once the stream is drained
		src = io.MultiReader(lz4.NewReader(fh))
	}
	reader, err := NewReader(src)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	reader.closers = closers
	return reader, nil
}

// NewReader wraps an uncompressed stream, sniffing FASTA ('>') or FASTQ ('@') from the first record
func NewReader(r io.Reader) (*Reader, error) {
	buffered := bufio.NewReader(r)
	isFastq := false
	for {
		b, err := buffered.Peek(1)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if b[0] == ' ' || b[0] == '\t' || b[0] == '\r' || b[0] == '\n' {
			buffered.ReadByte()
			continue
		}
		switch b[0] {
		case '>':
		case '@':
			isFastq = true
		default:
			return nil, fmt.Errorf("input does not look like FASTA or FASTQ (starts with %q)", b[0])
		}
		break
	}
	var bioReader bioseqio.Reader
	if isFastq {
		bioReader = fastq.NewReader(buffered, linear.NewQSeq("", nil, alphabet.DNA, alphabet.Sanger))
	} else {
		bioReader = fasta.NewReader(buffered, linear.NewSeq("", nil, alphabet.DNA))
	}
	return &Reader{scanner: bioseqio.NewScanner(bioReader), Fastq: isFastq}, nil
}

// next returns the ID and bases of the next record
func (Reader *Reader) next() (string, []byte, bool) {
	if !Reader.scanner.Next() {
		return "", nil, false
	}
	return recordID(Reader.scanner.Seq()), letters(Reader.scanner.Seq()), true
}

// LoadReads collects up to n reads (all remaining if n <= 0), dropping reads shorter than minLength
func (Reader *Reader) LoadReads(n int, minLength int) ([]*Read, error) {
	reads := []*Read{}
	for n <= 0 || len(reads) < n {
		id, bases, ok := Reader.next()
		if !ok {
			break
		}
		if len(bases) < minLength {
			continue
		}
		hash1, hash2 := IdentityHashes(id)
		reads = append(reads, &Read{Sequence: Sequence{ID: id, Seq: bases}, Hash1: hash1, Hash2: hash2})
	}
	return reads, Reader.scanner.Error()
}

// LoadSequences collects up to n sequences (all remaining if n <= 0), dropping sequences shorter than minLength
func (Reader *Reader) LoadSequences(n int, minLength int) ([]*Sequence, error) {
	sequences := []*Sequence{}
	for n <= 0 || len(sequences) < n {
		id, bases, ok := Reader.next()
		if !ok {
			break
		}
		if len(bases) < minLength {
			continue
		}
		sequences = append(sequences, &Sequence{ID: id, Seq: bases})
	}
	return sequences, Reader.scanner.Error()
}

// Close releases the underlying file and decompressor
func (Reader *Reader) Close() error {
	return closeAll(Reader.closers)
}

// closeAll closes in reverse order of opening, returning the first error
func closeAll(closers []io.Closer) error {
	var first error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// recordID returns the first word of the record name
func recordID(s seq.Sequence) string {
	if fields := strings.Fields(s.Name()); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// letters copies the bases of a biogo sequence
func letters(s seq.Sequence) []byte {
	switch record := s.(type) {
	case *linear.Seq:
		bases := make([]byte, len(record.Seq))
		for i, l := range record.Seq {
			bases[i] = byte(l)
		}
		return bases
	case *linear.QSeq:
		bases := make([]byte, len(record.Seq))
		for i, ql := range record.Seq {
			bases[i] = byte(ql.L)
		}
		return bases
	}
	bases := make([]byte, 0, s.Len())
	for i := s.Start(); i < s.End(); i++ {
		bases = append(bases, byte(s.At(i).L))
	}
	return bases
}
