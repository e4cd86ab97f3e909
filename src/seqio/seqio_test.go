package seqio

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup variables
var (
	testFasta = ">contig1 some description\nACGTACGTAC\nGTACGT\n>contig2\nAC\n>contig3\nTTTTGGGGCCCCAAAA\n"
	testFastq = "@read1\nACGTACGTACGT\n+\nIIIIIIIIIIII\n@read2 extra\nACG\n+\nIII\n@read3\nGGGGCCCCAAAATTTT\n+\nIIIIIIIIIIIIIIII\n"
)

// writeFile is a helper to put test data on disk, optionally compressed
func writeFile(t *testing.T, name string, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	fh, err := os.Create(path)
	require.NoError(t, err)
	defer fh.Close()
	var w io.WriteCloser
	switch filepath.Ext(name) {
	case ".gz":
		w = gzip.NewWriter(fh)
	case ".zst":
		w, err = zstd.NewWriter(fh)
		require.NoError(t, err)
	case ".lz4":
		w = lz4.NewWriter(fh)
	}
	if w == nil {
		_, err = fh.WriteString(data)
		require.NoError(t, err)
		return path
	}
	_, err = w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return path
}

func TestReadConstructor(t *testing.T) {
	read := NewRead("read-1", []byte("ACGT"))
	assert.Equal(t, "read-1", read.ID)
	assert.Equal(t, 4, read.Len())
	hash1, hash2 := IdentityHashes("read-1")
	assert.Equal(t, hash1, read.Hash1)
	assert.Equal(t, hash2, read.Hash2)
	assert.NotEqual(t, read.Hash1, read.Hash2)

	// identity hashes depend on the ID alone
	other := NewRead("read-1", []byte("TTTTTTTT"))
	assert.Equal(t, read.Hash1, other.Hash1)
	assert.Equal(t, read.Hash2, other.Hash2)
	assert.NotEqual(t, read.Hash1, NewRead("read-2", []byte("ACGT")).Hash1)
}

func TestSequenceOwnsBuffer(t *testing.T) {
	buf := []byte("ACGT")
	s := NewSequence("s", buf)
	buf[0] = 'T'
	assert.Equal(t, []byte("ACGT"), s.Seq)
}

func TestSegment(t *testing.T) {
	s := NewSequence("ctg", []byte("AACCGGTT"))
	seg, err := s.Segment(2, 6)
	require.NoError(t, err)
	assert.Equal(t, "ctg:2-6", seg.ID)
	assert.Equal(t, []byte("CCGG"), seg.Seq)
	_, err = s.Segment(4, 9)
	assert.Error(t, err)
	_, err = s.Segment(5, 4)
	assert.Error(t, err)
}

func TestLoadSequences(t *testing.T) {
	for _, name := range []string{"asm.fa", "asm.fa.gz", "asm.fa.zst", "asm.fa.lz4"} {
		t.Run(name, func(t *testing.T) {
			reader, err := Open(writeFile(t, name, testFasta))
			require.NoError(t, err)
			defer reader.Close()
			assert.False(t, reader.Fastq)
			sequences, err := reader.LoadSequences(0, 0)
			require.NoError(t, err)
			require.Len(t, sequences, 3)
			assert.Equal(t, "contig1", sequences[0].ID)
			assert.Equal(t, "ACGTACGTACGTACGT", string(sequences[0].Seq))
			assert.Equal(t, "contig2", sequences[1].ID)
			assert.Equal(t, "TTTTGGGGCCCCAAAA", string(sequences[2].Seq))
		})
	}
}

func TestLoadReadsBatches(t *testing.T) {
	for _, name := range []string{"reads.fq", "reads.fq.lz4"} {
		t.Run(name, func(t *testing.T) {
			reader, err := Open(writeFile(t, name, testFastq))
			require.NoError(t, err)
			defer reader.Close()
			assert.True(t, reader.Fastq)

			// read2 is too short and does not count towards the batch
			batch, err := reader.LoadReads(2, 10)
			require.NoError(t, err)
			require.Len(t, batch, 2)
			assert.Equal(t, "read1", batch[0].ID)
			assert.Equal(t, "read3", batch[1].ID)
			hash1, _ := IdentityHashes("read3")
			assert.Equal(t, hash1, batch[1].Hash1)

			// a drained reader keeps returning empty batches
			for i := 0; i < 2; i++ {
				batch, err = reader.LoadReads(2, 10)
				require.NoError(t, err)
				assert.Len(t, batch, 0)
			}
		})
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.fa"))
	assert.True(t, os.IsNotExist(err))
}

func TestNotSequenceData(t *testing.T) {
	_, err := NewReader(strings.NewReader("hello world\n"))
	assert.Error(t, err)
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(NewSequence("a", []byte("ACGT"))))
	require.NoError(t, w.Write(NewSequence("b:0-2", []byte("GG"))))
	require.NoError(t, w.Close())
	assert.Equal(t, ">a\nACGT\n>b:0-2\nGG\n", buf.String())
	assert.Equal(t, 2, w.Records())

	buf.Reset()
	require.NoError(t, NewWriter(&buf).Close())
	assert.Equal(t, "\n", buf.String())
}
