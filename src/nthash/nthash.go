// Package nthash contains a multi-seed rolling hash for spaced seeds, built on the ntHash
// recursive hashing scheme. Each contiguous run of care positions in a seed is rolled in
// constant time, so the cost of a roll depends on the number of runs and not on the seed length.
package nthash

import (
	"errors"
	"fmt"
	"math/bits"
)

const (
	// multiSeed and multiShift are used to derive a distinct hash per seed index
	multiSeed  uint64 = 0x90b45d39fb6da1fa
	multiShift        = 27

	seedA uint64 = 0x3c8bfbb395c60474
	seedC uint64 = 0x3193c18562a02b4c
	seedG uint64 = 0x20323ed082572324
	seedT uint64 = 0x295549f54be24456
)

// ErrSeed is returned when a set of spaced seed patterns cannot be used
var ErrSeed = errors.New("invalid spaced seed")

// seedTab holds the forward base seeds, rcSeedTab those of the complement base
var seedTab, rcSeedTab [256]uint64

func init() {
	for _, b := range []struct {
		bases      string
		fwd, rcomp uint64
	}{
		{"Aa", seedA, seedT},
		{"Cc", seedC, seedG},
		{"Gg", seedG, seedC},
		{"Tt", seedT, seedA},
	} {
		for i := 0; i < len(b.bases); i++ {
			seedTab[b.bases[i]] = b.fwd
			rcSeedTab[b.bases[i]] = b.rcomp
		}
	}
}

// block is a half-open run [start, end) of care positions within a seed
type block struct {
	start, end int
}

// SpacedSeed is a parsed seed pattern
type SpacedSeed struct {
	pattern string
	blocks  []block
}

// String returns the raw pattern
func (s SpacedSeed) String() string {
	return s.pattern
}

// Len returns the span of the seed
func (s SpacedSeed) Len() int {
	return len(s.pattern)
}

// ParseSeeds validates a set of seed patterns, which must all have the same length
func ParseSeeds(patterns []string) ([]SpacedSeed, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w: no patterns supplied", ErrSeed)
	}
	seeds := make([]SpacedSeed, len(patterns))
	for i, pattern := range patterns {
		if len(pattern) != len(patterns[0]) {
			return nil, fmt.Errorf("%w: pattern %d has length %d, expected %d", ErrSeed, i, len(pattern), len(patterns[0]))
		}
		seed := SpacedSeed{pattern: pattern}
		start := -1
		for j := 0; j <= len(pattern); j++ {
			care := false
			if j < len(pattern) {
				switch pattern[j] {
				case '1':
					care = true
				case '0':
				default:
					return nil, fmt.Errorf("%w: pattern %q contains %q", ErrSeed, pattern, pattern[j])
				}
			}
			switch {
			case care && start < 0:
				start = j
			case !care && start >= 0:
				seed.blocks = append(seed.blocks, block{start, j})
				start = -1
			}
		}
		if len(seed.blocks) == 0 {
			return nil, fmt.Errorf("%w: pattern %q has no care positions", ErrSeed, pattern)
		}
		seeds[i] = seed
	}
	return seeds, nil
}

// Positions returns the number of windows of length k in a sequence of length n
func Positions(n, k int) int {
	if k <= 0 || n < k {
		return 0
	}
	return n - k + 1
}

// SeedHasher rolls a set of spaced seeds over a sequence
type SeedHasher struct {
	seq    []byte
	seeds  []SpacedSeed
	k      int
	pos    int
	fwd    [][]uint64 // per seed, per block forward hash
	rev    [][]uint64 // per seed, per block reverse-complement hash
	hashes []uint64
}

// NewSeedHasher returns a hasher positioned before the first window of seq. The seeds must come from ParseSeeds.
func NewSeedHasher(seq []byte, seeds []SpacedSeed) *SeedHasher {
	h := &SeedHasher{
		seq:    seq,
		seeds:  seeds,
		pos:    -1,
		fwd:    make([][]uint64, len(seeds)),
		rev:    make([][]uint64, len(seeds)),
		hashes: make([]uint64, len(seeds)),
	}
	if len(seeds) != 0 {
		h.k = seeds[0].Len()
	}
	for i, seed := range seeds {
		h.fwd[i] = make([]uint64, len(seed.blocks))
		h.rev[i] = make([]uint64, len(seed.blocks))
	}
	return h
}

// Roll advances to the next window, returning false once the sequence is exhausted
func (h *SeedHasher) Roll() bool {
	if h.k == 0 || h.pos+1 > len(h.seq)-h.k {
		return false
	}
	if h.pos < 0 {
		h.init()
	} else {
		h.next()
	}
	h.pos++
	for i := range h.seeds {
		var fwd, rev uint64
		for j := range h.fwd[i] {
			fwd ^= h.fwd[i][j]
			rev ^= h.rev[i][j]
		}
		hv := (fwd + rev) * (uint64(i) ^ uint64(h.k)*multiSeed)
		h.hashes[i] = hv ^ hv>>multiShift
	}
	return true
}

// Hashes returns one hash per seed for the current window. The slice is reused by the next call to Roll.
func (h *SeedHasher) Hashes() []uint64 {
	return h.hashes
}

// Pos returns the start of the current window
func (h *SeedHasher) Pos() int {
	return h.pos
}

// init computes the block hashes of the first window directly
func (h *SeedHasher) init() {
	for i, seed := range h.seeds {
		for j, b := range seed.blocks {
			var fwd, rev uint64
			for p := b.start; p < b.end; p++ {
				fwd ^= bits.RotateLeft64(seedTab[h.seq[p]], h.k-1-p)
				rev ^= bits.RotateLeft64(rcSeedTab[h.seq[p]], p)
			}
			h.fwd[i][j] = fwd
			h.rev[i][j] = rev
		}
	}
}

// next rolls every block hash one base to the right
func (h *SeedHasher) next() {
	i := h.pos
	for s, seed := range h.seeds {
		for j, b := range seed.blocks {
			out, in := h.seq[i+b.start], h.seq[i+b.end]
			h.fwd[s][j] = bits.RotateLeft64(h.fwd[s][j], 1) ^
				bits.RotateLeft64(seedTab[out], h.k-b.start) ^
				bits.RotateLeft64(seedTab[in], h.k-b.end)
			h.rev[s][j] = bits.RotateLeft64(h.rev[s][j], -1) ^
				bits.RotateLeft64(rcSeedTab[out], b.start-1) ^
				bits.RotateLeft64(rcSeedTab[in], b.end-1)
		}
	}
}
