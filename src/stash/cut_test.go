package stash

import (
	"bytes"
	"fmt"
	"math/rand"
	"slices"
	"sort"
	"testing"

	"github.com/bcgsc/stash/src/nthash"
	"github.com/bcgsc/stash/src/seqio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup variables
var (
	defaultWindow = WindowParameters{NumberOfFrames: 1, Stride: 13, Delta: 751}
	defaultCut    = CutParameters{CutThreshold: 11, MaxPoolingRadius: 1, MinCutDistance: 1000}
	testWindow    = WindowParameters{NumberOfFrames: 2, Stride: 5, Delta: 40}
)

// tiledReads is a helper that covers seq with reads of the given length every step bases, all carrying one signature
func tiledReads(prefix string, seq []byte, length, step int, hash1, hash2 uint64) []*seqio.Read {
	reads := []*seqio.Read{}
	for start := 0; start+length <= len(seq); start += step {
		reads = append(reads, &seqio.Read{
			Sequence: *seqio.NewSequence(fmt.Sprintf("%s%d", prefix, start), seq[start:start+length]),
			Hash1:    hash1,
			Hash2:    hash2,
		})
	}
	return reads
}

// chimera is a helper returning two unrelated genomes, a Stash filled with reads of both, and their concatenation
func chimera(t *testing.T) ([]byte, []byte, *Stash, *seqio.Sequence) {
	rng := rand.New(rand.NewSource(11))
	genomeA, genomeB := randomSeq(rng, 1500), randomSeq(rng, 1500)
	stash, err := New(20, DefaultSeeds)
	require.NoError(t, err)

	// every read of a genome claims the same tile, so support can be checked exactly
	stash.Fill(tiledReads("a", genomeA, 150, 25, 0x1111111111111111, 0x3333333333333333), 4)
	stash.Fill(tiledReads("b", genomeB, 150, 25, 0x2222222222222222, 0x5555555555555555), 4)
	joined := append(append([]byte{}, genomeA...), genomeB...)
	return genomeA, genomeB, stash, seqio.NewSequence("contig", joined)
}

// naiveSignal is a helper that hashes the whole sequence up front and scores every position from scratch
func naiveSignal(stash *Stash, window WindowParameters, seq []byte) []uint8 {
	frames := []Frame{}
	hasher := nthash.NewSeedHasher(seq, stash.seeds)
	for hasher.Roll() {
		frames = append(frames, stash.frame(hasher.Hashes()))
	}
	stride := int(window.Stride)
	distance := window.WindowSize(stash.SeedLength()) + int(window.Delta)
	span := distance + int(window.NumberOfFrames-1)*stride
	signal := []uint8{}
	for p := 0; p+span < len(frames); p++ {
		best := 0
		for i := 0; i < int(window.NumberOfFrames); i++ {
			for j := 0; j < int(window.NumberOfFrames); j++ {
				best = max(best, CountFrameMatches(frames[p+i*stride], frames[p+distance+j*stride]))
			}
		}
		signal = append(signal, uint8(best))
	}
	return signal
}

func TestNewCutter(t *testing.T) {
	stash, err := New(4, DefaultSeeds)
	require.NoError(t, err)
	cutter, err := NewCutter(stash, defaultWindow, defaultCut)
	require.NoError(t, err)
	assert.Equal(t, 20, cutter.windowSize)
	assert.Equal(t, 395, cutter.Shift())
	assert.Equal(t, 771, cutter.distance)
	assert.Equal(t, 793, cutter.MinContigLength())

	_, err = NewCutter(stash, WindowParameters{NumberOfFrames: 0, Stride: 13}, defaultCut)
	assert.ErrorIs(t, err, ErrWindow)
	_, err = NewCutter(stash, WindowParameters{NumberOfFrames: 1, Stride: 0}, defaultCut)
	assert.ErrorIs(t, err, ErrWindow)
}

func TestMaxPool(t *testing.T) {
	assert.Equal(t, []uint8{5, 5, 5, 2, 7, 7, 7}, MaxPool([]uint8{0, 5, 1, 0, 2, 7, 3}, 1))
	assert.Equal(t, []uint8{0, 5, 1, 0, 2, 7, 3}, MaxPool([]uint8{0, 5, 1, 0, 2, 7, 3}, 0))
	assert.Equal(t, []uint8{5, 5, 5, 7, 7, 7, 7}, MaxPool([]uint8{0, 5, 1, 0, 2, 7, 3}, 2))
	assert.Empty(t, MaxPool(nil, 1))
}

func TestFindCuts(t *testing.T) {
	flat := func(n int, value uint8) []uint8 {
		return bytes.Repeat([]uint8{value}, n)
	}
	dip := func(signal []uint8, from, to int) []uint8 {
		signal = append([]uint8(nil), signal...)
		for p := from; p < to; p++ {
			signal[p] = 0
		}
		return signal
	}
	signal := flat(2000, 20)

	// well supported
	assert.Empty(t, FindCuts(MaxPool(signal, 1), defaultCut, 395))

	// a dip narrower than the pooling window is smoothed away
	assert.Empty(t, FindCuts(MaxPool(dip(signal, 100, 102), 1), defaultCut, 395))

	// a wide dip gives a single cut at its centre
	pooled := MaxPool(dip(signal, 50, 150), 1)
	assert.Equal(t, []int{(51 + 148) / 2}, FindCuts(pooled, defaultCut, 0))
	assert.Equal(t, []int{(51+148)/2 + 395}, FindCuts(pooled, defaultCut, 395))

	// dips closer than the minimum cut distance belong to one chain
	twoDips := MaxPool(dip(dip(signal, 50, 100), 150, 200), 1)
	assert.Equal(t, []int{(51 + 198) / 2}, FindCuts(twoDips, defaultCut, 0))
	near := defaultCut
	near.MinCutDistance = 20
	assert.Equal(t, []int{(51 + 98) / 2, (151 + 198) / 2}, FindCuts(twoDips, near, 0))

	// the pooling radius at either end is never scanned
	edges := flat(10, 0)
	assert.Equal(t, []int{(1 + 8) / 2}, FindCuts(edges, defaultCut, 0))
	assert.Empty(t, FindCuts(flat(2, 0), defaultCut, 0))
}

func TestSegments(t *testing.T) {
	sequence := seqio.NewSequence("contig", []byte("AACCGGTTAC"))
	assert.Same(t, sequence, Segments(sequence, nil)[0])
	assert.Same(t, sequence, Segments(sequence, []int{0, 10, 12})[0])

	segments := Segments(sequence, []int{3, 3, 2, 7, 10})
	require.Len(t, segments, 3)
	assert.Equal(t, "contig:0-3", segments[0].ID)
	assert.Equal(t, "AAC", string(segments[0].Seq))
	assert.Equal(t, "contig:3-7", segments[1].ID)
	assert.Equal(t, "CGGT", string(segments[1].Seq))
	assert.Equal(t, "contig:7-10", segments[2].ID)
	assert.Equal(t, "TAC", string(segments[2].Seq))
}

func TestCutShortSequence(t *testing.T) {
	stash, err := New(4, DefaultSeeds)
	require.NoError(t, err)
	cutter, err := NewCutter(stash, defaultWindow, defaultCut)
	require.NoError(t, err)
	reported := false
	cutter.OnSignal = func(string, []uint8, []int) { reported = true }

	rng := rand.New(rand.NewSource(5))
	short := seqio.NewSequence("short", randomSeq(rng, cutter.MinContigLength()-1))
	segments := cutter.Cut(short)
	require.Len(t, segments, 1)
	assert.Same(t, short, segments[0])
	assert.False(t, reported)
}

func TestCutEmptyStash(t *testing.T) {
	stash, err := New(4, DefaultSeeds)
	require.NoError(t, err)
	cutter, err := NewCutter(stash, defaultWindow, defaultCut)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(9))
	sequence := seqio.NewSequence("contig", randomSeq(rng, 2000))

	signal := cutter.Signal(sequence.Seq)
	assert.Len(t, signal, nthash.Positions(2000, 20)-771)
	assert.Equal(t, make([]uint8, len(signal)), signal)

	// the whole scan is one chain
	segments := cutter.Cut(sequence)
	require.Len(t, segments, 2)
	assert.Equal(t, "contig:0-999", segments[0].ID)
	assert.Equal(t, "contig:999-2000", segments[1].ID)

	// with no minimum distance every position is its own chain, and the segments still tile the sequence
	params := defaultCut
	params.MinCutDistance = 1
	cutter, err = NewCutter(stash, defaultWindow, params)
	require.NoError(t, err)
	segments = cutter.Cut(sequence)
	assert.Len(t, segments, len(signal)-1)
	joined := []byte{}
	end := 0
	for _, segment := range segments {
		var from, to int
		_, err := fmt.Sscanf(segment.ID, "contig:%d-%d", &from, &to)
		require.NoError(t, err)
		assert.Equal(t, end, from)
		assert.Less(t, from, to)
		assert.Equal(t, to-from, segment.Len())
		end = to
		joined = append(joined, segment.Seq...)
	}
	assert.Equal(t, 2000, end)
	assert.Equal(t, sequence.Seq, joined)
}

func TestSignalChunks(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	genome := randomSeq(rng, 3000)
	stash, err := New(16, DefaultSeeds)
	require.NoError(t, err)
	reads := []*seqio.Read{}
	for start := 0; start+150 <= len(genome); start += 20 {
		reads = append(reads, seqio.NewRead(fmt.Sprintf("read%d", start), genome[start:start+150]))
	}
	stash.Fill(reads, 4)

	cutter, err := NewCutter(stash, testWindow, defaultCut)
	require.NoError(t, err)
	expected := naiveSignal(stash, testWindow, genome)
	whole := cutter.Signal(genome)
	assert.Equal(t, expected, whole)
	assert.NotZero(t, slices.Max(whole))

	// the smallest chunk carries windows over many boundaries
	cutter.chunkSize = 2 * (cutter.span + 1)
	assert.Equal(t, expected, cutter.Signal(genome))
	assert.Equal(t, expected, cutter.signal(genome, make([]Frame, 3)))
}

func TestCutChimera(t *testing.T) {
	genomeA, _, stash, contig := chimera(t)
	params := CutParameters{CutThreshold: 1, MaxPoolingRadius: 1, MinCutDistance: 10000}
	cutter, err := NewCutter(stash, testWindow, params)
	require.NoError(t, err)

	var reportedID string
	var reportedCuts []int
	cutter.OnSignal = func(id string, pooled []uint8, cuts []int) {
		reportedID, reportedCuts = id, cuts
	}
	segments := cutter.Cut(contig)
	require.Len(t, segments, 2)
	assert.Equal(t, "contig", reportedID)
	require.Len(t, reportedCuts, 1)
	assert.InDelta(t, len(genomeA), reportedCuts[0], float64(cutter.windowSize))
	assert.Equal(t, contig.Seq, append(append([]byte{}, segments[0].Seq...), segments[1].Seq...))

	// a genome that reads fully support is left whole
	whole := seqio.NewSequence("genomeA", genomeA)
	segments = cutter.Cut(whole)
	require.Len(t, segments, 1)
	assert.Same(t, whole, segments[0])
}

func TestRun(t *testing.T) {
	genomeA, genomeB, stash, contig := chimera(t)
	params := CutParameters{CutThreshold: 1, MaxPoolingRadius: 1, MinCutDistance: 10000}
	cutter, err := NewCutter(stash, testWindow, params)
	require.NoError(t, err)
	sequences := []*seqio.Sequence{
		contig,
		seqio.NewSequence("genomeA", genomeA),
		seqio.NewSequence("tiny", genomeB[:50]),
		seqio.NewSequence("genomeB", genomeB),
	}

	serial := cutter.Run(sequences, 1)
	ids := []string{}
	for _, segment := range serial {
		ids = append(ids, segment.ID)
	}
	require.Len(t, ids, 5)
	assert.Regexp(t, `^contig:0-\d+$`, ids[0])
	assert.Regexp(t, `^contig:\d+-3000$`, ids[1])
	assert.Equal(t, []string{"genomeA", "tiny", "genomeB"}, ids[2:])

	parallel := cutter.Run(sequences, 3)
	parallelIDs := []string{}
	for _, segment := range parallel {
		parallelIDs = append(parallelIDs, segment.ID)
	}
	sort.Strings(ids)
	sort.Strings(parallelIDs)
	assert.Equal(t, ids, parallelIDs)
}

func BenchmarkSignal(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	stash, err := New(16, DefaultSeeds)
	if err != nil {
		b.Fatal(err)
	}
	cutter, err := NewCutter(stash, defaultWindow, defaultCut)
	if err != nil {
		b.Fatal(err)
	}
	seq := randomSeq(rng, 50000)
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		cutter.Signal(seq)
	}
}
