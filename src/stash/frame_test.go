package stash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// row is a helper to pack column/value pairs into a row
func row(pairs ...uint8) uint64 {
	var word uint64
	for i := 0; i+1 < len(pairs); i += 2 {
		word |= uint64(pairs[i+1]) << tileShift(pairs[i])
	}
	return word
}

func TestCountFrameMatches(t *testing.T) {
	a := Frame{row(0, 3, 1, 5)}
	b := Frame{0, 0, row(0, 3, 1, 7)}
	assert.Equal(t, 1, CountFrameMatches(a, b))

	// a shared value counts once however many rows hold it
	b = Frame{row(0, 3), row(0, 3), row(0, 3, 1, 5), row(15, 2)}
	assert.Equal(t, 2, CountFrameMatches(a, b))

	// empty tiles never match
	assert.Equal(t, 0, CountFrameMatches(Frame{}, Frame{}))

	// values must sit in the same column
	assert.Equal(t, 0, CountFrameMatches(Frame{row(2, 9)}, Frame{row(3, 9)}))
	full := Frame{row(0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13, 14, 14, 15, 15, 1)}
	assert.Equal(t, TilesPerRow, CountFrameMatches(full, full))
}

func TestFrameAt(t *testing.T) {
	stash := filledStash(t)
	_, err := stash.FrameAt([]byte("ACGT"))
	assert.Error(t, err)

	frame, err := stash.FrameAt([]byte(demoReads[0]))
	require.NoError(t, err)
	assert.NotEqual(t, tileSet{}, newTileSet(&frame))
}

func TestCountWindowMatches(t *testing.T) {
	stash := filledStash(t)
	seq := []byte(demoReads[1])
	window := Window{Seq: seq, Frames: 3, Stride: 4}
	self, err := stash.CountWindowMatches(window, window)
	require.NoError(t, err)
	assert.NotZero(t, self)

	// comparing a window with itself is at least as good as comparing its first frames
	frame, err := stash.FrameAt(seq)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, self, CountFrameMatches(frame, frame))

	_, err = stash.CountWindowMatches(window, Window{Seq: seq[:12], Frames: 3, Stride: 4})
	assert.Error(t, err)
	_, err = stash.CountWindowMatches(window, Window{Seq: seq, Frames: 0, Stride: 4})
	assert.ErrorIs(t, err, ErrWindow)
}
