package stash

import (
	"fmt"

	"github.com/bcgsc/stash/src/nthash"
)

// Frame is the set of rows visible at one hashed position, one row per spaced seed
type Frame [SpacedSeedCount]uint64

// tileSet records, per column, which non-zero tile values a frame holds (bit v set for value v)
type tileSet [TilesPerRow]uint16

// newTileSet collects the tile values of a frame
func newTileSet(frame *Frame) tileSet {
	var set tileSet
	for _, row := range frame {
		for column := 0; column < TilesPerRow; column++ {
			set[column] |= 1 << (row & MaxT2)
			row >>= TileBits
		}
	}

	// unclaimed tiles never match
	for column := range set {
		set[column] &^= 1
	}
	return set
}

// matches counts the tiles of frame found at the same column of the set, each set entry counting once
func (set tileSet) matches(frame *Frame) int {
	count := 0
	for _, row := range frame {
		for column := 0; column < TilesPerRow; column++ {
			bit := uint16(1) << (row & MaxT2)
			if set[column]&bit != 0 {
				count++
				set[column] &^= bit
			}
			row >>= TileBits
		}
	}
	return count
}

// CountFrameMatches scores the shared tile values of two frames
func CountFrameMatches(a, b Frame) int {
	return newTileSet(&a).matches(&b)
}

// frame fetches the rows for one set of seed hashes
func (stash *Stash) frame(hashes []uint64) Frame {
	var frame Frame
	for i, hash := range hashes {
		frame[i] = stash.memory[hash&stash.lastRow]
	}
	return frame
}

// FrameAt returns the frame of the first window of seq
func (stash *Stash) FrameAt(seq []byte) (Frame, error) {
	hasher := nthash.NewSeedHasher(seq, stash.seeds)
	if !hasher.Roll() {
		return Frame{}, fmt.Errorf("sequence of length %d is shorter than the spaced seeds (%d)", len(seq), stash.seedLength)
	}
	return stash.frame(hasher.Hashes()), nil
}

// Window is a run of frames taken every Stride positions from the start of Seq
type Window struct {
	Seq    []byte
	Frames int
	Stride int
}

// frames collects the frames of a window
func (stash *Stash) frames(window Window) ([]Frame, error) {
	if window.Frames < 1 || window.Stride < 1 {
		return nil, fmt.Errorf("%w: a window needs at least one frame and a positive stride", ErrWindow)
	}
	span := (window.Frames-1)*window.Stride + stash.seedLength
	if len(window.Seq) < span {
		return nil, fmt.Errorf("sequence of length %d is shorter than the window (%d)", len(window.Seq), span)
	}
	frames := make([]Frame, 0, window.Frames)
	hasher := nthash.NewSeedHasher(window.Seq[:span], stash.seeds)
	for hasher.Roll() {
		if hasher.Pos()%window.Stride == 0 {
			frames = append(frames, stash.frame(hasher.Hashes()))
		}
	}
	return frames, nil
}

// CountWindowMatches returns the best frame match score between any frame of w1 and any frame of w2
func (stash *Stash) CountWindowMatches(w1, w2 Window) (int, error) {
	frames1, err := stash.frames(w1)
	if err != nil {
		return 0, err
	}
	frames2, err := stash.frames(w2)
	if err != nil {
		return 0, err
	}
	best := 0
	for i := range frames1 {
		set := newTileSet(&frames1[i])
		for j := range frames2 {
			if score := set.matches(&frames2[j]); score > best {
				best = score
			}
		}
	}
	return best, nil
}
