// Package stash contains the Stash sketch: a fixed-size table of 64-bit rows, each split into
// 4-bit tiles, that is filled with read signatures along spaced-seed hash traces and later
// scanned to find positions of an assembly where read support drops.
package stash

import (
	"errors"
	"fmt"
	"math/bits"
	"sync/atomic"

	"github.com/bcgsc/stash/src/nthash"
)

// Table geometry
const (
	T1              = 4
	T2              = 4
	ReadIDTiles     = 8
	SpacedSeedCount = 4
	MaxT1           = (1 << T1) - 1
	MaxT2           = (1 << T2) - 1
	B1              = T1 * ReadIDTiles
	B2              = T2 * ReadIDTiles

	// TileBits is the width of a tile and TilesPerRow the number of tiles addressable in a row
	TileBits    = T2
	TilesPerRow = 64 / TileBits

	// MaxLogRows bounds the table at 2^40 rows (8 TiB)
	MaxLogRows = 40
)

// DefaultSeeds are the spaced seeds used by the fill command
var DefaultSeeds = []string{
	"10111111111111111101",
	"11011111111111111011",
	"11101111111111110111",
	"11110111111111101111",
}

var (
	// ErrSeedCount is returned when the number of spaced seeds is not SpacedSeedCount
	ErrSeedCount = errors.New("wrong number of spaced seeds")

	// ErrSeedLength is returned when the spaced seeds are unusable
	ErrSeedLength = errors.New("invalid spaced seeds")

	// ErrRows is returned for a table size that is not a usable power of two
	ErrRows = errors.New("invalid number of rows")
)

// Stash is the sketch table. It is filled once and then shared read-only.
type Stash struct {
	memory     []uint64
	rows       uint64
	lastRow    uint64
	seedLength int
	rawSeeds   []string
	seeds      []nthash.SpacedSeed
}

// New allocates an empty Stash of 2^logRows rows
func New(logRows uint32, spacedSeeds []string) (*Stash, error) {
	if logRows == 0 || logRows > MaxLogRows {
		return nil, fmt.Errorf("%w: log2 rows must be between 1 and %d, got %d", ErrRows, MaxLogRows, logRows)
	}
	stash := &Stash{rows: uint64(1) << logRows}
	if err := stash.initialize(spacedSeeds); err != nil {
		return nil, err
	}
	stash.memory = make([]uint64, stash.rows)
	return stash, nil
}

// initialize checks the seeds and sets the derived fields
func (stash *Stash) initialize(spacedSeeds []string) error {
	if len(spacedSeeds) != SpacedSeedCount {
		return fmt.Errorf("%w: there should be exactly %d spaced seeds, got %d", ErrSeedCount, SpacedSeedCount, len(spacedSeeds))
	}
	if stash.rows == 0 || bits.OnesCount64(stash.rows) != 1 {
		return fmt.Errorf("%w: %d is not a power of two", ErrRows, stash.rows)
	}
	seeds, err := nthash.ParseSeeds(spacedSeeds)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSeedLength, err)
	}
	stash.lastRow = stash.rows - 1
	stash.rawSeeds = append([]string(nil), spacedSeeds...)
	stash.seeds = seeds
	stash.seedLength = seeds[0].Len()
	return nil
}

// Rows returns the number of rows in the table
func (stash *Stash) Rows() uint64 {
	return stash.rows
}

// SeedLength returns the span of the spaced seeds
func (stash *Stash) SeedLength() int {
	return stash.seedLength
}

// Seeds returns a copy of the raw spaced seed patterns
func (stash *Stash) Seeds() []string {
	return append([]string(nil), stash.rawSeeds...)
}

// RowIndex maps a hash to a row
func (stash *Stash) RowIndex(hash uint64) uint64 {
	return hash & stash.lastRow
}

// Row returns the row a hash maps to
func (stash *Stash) Row(hash uint64) uint64 {
	return atomic.LoadUint64(&stash.memory[hash&stash.lastRow])
}

// ReadTile returns the value of one tile
func (stash *Stash) ReadTile(row uint64, column uint8) uint8 {
	return tile(atomic.LoadUint64(&stash.memory[row&stash.lastRow]), column)
}

// WriteTile unconditionally sets one tile, leaving the rest of the row untouched
func (stash *Stash) WriteTile(row uint64, column uint8, value uint8) {
	addr := &stash.memory[row&stash.lastRow]
	shift := tileShift(column)
	for {
		old := atomic.LoadUint64(addr)
		updated := old&^(MaxT2<<shift) | uint64(value&MaxT2)<<shift
		if atomic.CompareAndSwapUint64(addr, old, updated) {
			return
		}
	}
}

// Claim writes value into an empty tile, returning false if the tile was already set (the first writer wins) or value is zero
func (stash *Stash) Claim(row uint64, column uint8, value uint8) bool {
	value &= MaxT2
	if value == 0 {
		return false
	}
	addr := &stash.memory[row&stash.lastRow]
	shift := tileShift(column)
	for {
		old := atomic.LoadUint64(addr)
		if old&(MaxT2<<shift) != 0 {
			return false
		}
		if atomic.CompareAndSwapUint64(addr, old, old|uint64(value)<<shift) {
			return true
		}
	}
}

// Occupancy counts the claimed tiles in the table
func (stash *Stash) Occupancy() uint64 {
	var count uint64
	for i := range stash.memory {
		word := atomic.LoadUint64(&stash.memory[i])
		for word != 0 {
			if word&MaxT2 != 0 {
				count++
			}
			word >>= TileBits
		}
	}
	return count
}

// tileShift returns the bit offset of a tile within its row
func tileShift(column uint8) uint64 {
	return uint64(column%TilesPerRow) * TileBits
}

// tile extracts one tile from a row
func tile(row uint64, column uint8) uint8 {
	return uint8(row >> tileShift(column) & MaxT2)
}
