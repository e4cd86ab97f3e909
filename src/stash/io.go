package stash

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// FormatFlag is written at the start of every Stash file
const FormatFlag int32 = 0

// maxSeedLength bounds the seed length accepted from a file
const maxSeedLength = 1 << 12

var (
	// ErrFormat is returned for a Stash file written in an unknown format
	ErrFormat = errors.New("unsupported Stash format")

	// ErrTileGeometry is returned when a file was written with different tile widths
	ErrTileGeometry = errors.New("invalid T1 or T2 parameters")

	// ErrCorrupt is returned for a truncated or otherwise unreadable Stash file
	ErrCorrupt = errors.New("corrupt Stash")
)

// header is the fixed part of the on-disk format, in native byte order
type header struct {
	Flag       int32
	SeedLength int32
	SeedCount  int32
}

// Dump writes the Stash to w
func (stash *Stash) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.NativeEndian, header{
		Flag:       FormatFlag,
		SeedLength: int32(stash.seedLength),
		SeedCount:  SpacedSeedCount,
	}); err != nil {
		return err
	}
	for _, seed := range stash.rawSeeds {
		if _, err := bw.WriteString(seed); err != nil {
			return err
		}
	}
	if err := binary.Write(bw, binary.NativeEndian, stash.rows); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.NativeEndian, [2]int32{T1, T2}); err != nil {
		return err
	}
	if err := writeWords(bw, stash.memory); err != nil {
		return err
	}
	return bw.Flush()
}

// Save is a method to write the Stash to a file; a failed save removes the partial file
func (stash *Stash) Save(path string) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := stash.Dump(fh); err != nil {
		fh.Close()
		os.Remove(path)
		return err
	}
	if err := fh.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// Read reconstructs a Stash from r
func Read(r io.Reader) (*Stash, error) {
	return read(r, -1)
}

// read reconstructs a Stash from r; a non-negative size is the number of bytes r holds
func read(r io.Reader, size int64) (*Stash, error) {
	br := bufio.NewReader(r)
	var head header
	if err := binary.Read(br, binary.NativeEndian, &head); err != nil {
		return nil, corrupt(err)
	}
	if head.Flag != FormatFlag {
		return nil, fmt.Errorf("%w: flag %d", ErrFormat, head.Flag)
	}
	if head.SeedCount != SpacedSeedCount {
		return nil, fmt.Errorf("%w: there should be exactly %d spaced seeds, file has %d", ErrSeedCount, SpacedSeedCount, head.SeedCount)
	}
	if head.SeedLength <= 0 || head.SeedLength > maxSeedLength {
		return nil, fmt.Errorf("%w: spaced seed length %d", ErrCorrupt, head.SeedLength)
	}
	rawSeeds := make([]string, SpacedSeedCount)
	buf := make([]byte, head.SeedLength)
	for i := range rawSeeds {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, corrupt(err)
		}
		rawSeeds[i] = string(buf)
	}
	stash := &Stash{}
	if err := binary.Read(br, binary.NativeEndian, &stash.rows); err != nil {
		return nil, corrupt(err)
	}
	var tiles [2]int32
	if err := binary.Read(br, binary.NativeEndian, &tiles); err != nil {
		return nil, corrupt(err)
	}
	if tiles[0] != T1 || tiles[1] != T2 {
		return nil, fmt.Errorf("%w: file has T1=%d T2=%d, expected T1=%d T2=%d", ErrTileGeometry, tiles[0], tiles[1], T1, T2)
	}
	if stash.rows > uint64(1)<<MaxLogRows {
		return nil, fmt.Errorf("%w: %d rows", ErrCorrupt, stash.rows)
	}
	if expected := fileSize(int64(head.SeedLength), stash.rows); size >= 0 && size < expected {
		return nil, fmt.Errorf("%w: file has %d bytes, %d rows need %d", ErrCorrupt, size, stash.rows, expected)
	}
	if err := stash.initialize(rawSeeds); err != nil {
		return nil, err
	}
	stash.memory = make([]uint64, stash.rows)
	if err := readWords(br, stash.memory); err != nil {
		return nil, corrupt(err)
	}
	return stash, nil
}

// Load is a method to read a Stash from a file
func Load(path string) (*Stash, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	fi, err := fh.Stat()
	if err != nil {
		return nil, err
	}
	return read(fh, fi.Size())
}

// fileSize is the length of a Stash file
func fileSize(seedLength int64, rows uint64) int64 {
	return 12 + SpacedSeedCount*seedLength + 8 + 8 + 8*int64(rows)
}

// wordChunk is the number of rows copied per write or read
const wordChunk = 1 << 16

// writeWords writes the rows in chunks to avoid doubling the memory footprint
func writeWords(w io.Writer, words []uint64) error {
	buf := make([]byte, 8*wordChunk)
	for len(words) != 0 {
		n := min(len(words), wordChunk)
		for i, word := range words[:n] {
			binary.NativeEndian.PutUint64(buf[8*i:], word)
		}
		if _, err := w.Write(buf[:8*n]); err != nil {
			return err
		}
		words = words[n:]
	}
	return nil
}

// readWords fills words from r in chunks
func readWords(r io.Reader, words []uint64) error {
	buf := make([]byte, 8*wordChunk)
	for len(words) != 0 {
		n := min(len(words), wordChunk)
		if _, err := io.ReadFull(r, buf[:8*n]); err != nil {
			return err
		}
		for i := range words[:n] {
			words[i] = binary.NativeEndian.Uint64(buf[8*i:])
		}
		words = words[n:]
	}
	return nil
}

// corrupt wraps short reads as ErrCorrupt
func corrupt(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated file", ErrCorrupt)
	}
	return err
}
