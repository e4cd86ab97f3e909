package stash

import (
	"sync/atomic"

	"github.com/bcgsc/stash/src/nthash"
	"github.com/bcgsc/stash/src/seqio"
	"golang.org/x/sync/errgroup"
)

// Signature holds the tile (column, value) pairs derived from a read's identity hashes
type Signature [ReadIDTiles * 2]uint8

// FillStats records what a call to Fill did
type FillStats struct {
	Reads   int    // reads rolled over the table
	Skipped int    // reads shorter than the seed length
	Claims  uint64 // tiles claimed
}

// Add accumulates the stats of another fill
func (stats *FillStats) Add(other FillStats) {
	stats.Reads += other.Reads
	stats.Skipped += other.Skipped
	stats.Claims += other.Claims
}

// NewSignature spreads the low B1/B2 bits of the two identity hashes over the signature pairs
func NewSignature(hash1, hash2 uint64) Signature {
	var sig Signature
	for i := 0; i < len(sig); {
		sig[i] = uint8(hash1 & MaxT1)
		i++
		sig[i] = uint8(hash2 & MaxT2)
		i++
		hash1 >>= T1
		hash2 >>= T2
	}
	return sig
}

// Fill rolls every read over the table using the given number of workers
func (stash *Stash) Fill(reads []*seqio.Read, threads int) FillStats {
	if threads < 1 {
		threads = 1
	}
	var next, filled, skipped int64
	var claims uint64
	var g errgroup.Group
	for w := 0; w < threads; w++ {
		g.Go(func() error {
			for {
				i := atomic.AddInt64(&next, 1) - 1
				if i >= int64(len(reads)) {
					return nil
				}
				read := reads[i]

				// ignore tiny reads
				if read.Len() < stash.seedLength {
					atomic.AddInt64(&skipped, 1)
					continue
				}
				atomic.AddUint64(&claims, stash.fillRead(read))
				atomic.AddInt64(&filled, 1)
			}
		})
	}
	g.Wait()
	return FillStats{Reads: int(filled), Skipped: int(skipped), Claims: claims}
}

// fillRead claims tiles along the hash trace of one read, returning the number of claims made
func (stash *Stash) fillRead(read *seqio.Read) uint64 {
	sig := NewSignature(read.Hash1, read.Hash2)
	var claims uint64
	hasher := nthash.NewSeedHasher(read.Seq, stash.seeds)
	for hasher.Roll() {
		hashes := hasher.Hashes()
		xors := hashes[0] ^ hashes[1] ^ hashes[2] ^ hashes[3]
		for _, hash := range hashes {
			pair := ((xors ^ hash) & 7) << 1
			if stash.Claim(hash&stash.lastRow, sig[pair], sig[pair+1]) {
				claims++
			}
		}
	}
	return claims
}
