package stash

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/bcgsc/stash/src/nthash"
	"github.com/bcgsc/stash/src/seqio"
	"golang.org/x/sync/errgroup"
)

// defaultChunkSize is the number of frames held per sequence while computing a signal
const defaultChunkSize = 10000

// ErrWindow is returned for window parameters that cannot describe a window
var ErrWindow = errors.New("invalid window parameters")

// WindowParameters describe the two windows compared at every position
type WindowParameters struct {
	NumberOfFrames uint32
	Stride         uint32
	Delta          uint32
}

// WindowSize returns the number of bases covered by one window
func (wp WindowParameters) WindowSize(seedLength int) int {
	return int(wp.NumberOfFrames-1)*int(wp.Stride) + seedLength
}

// CutParameters tune breakpoint detection
type CutParameters struct {
	CutThreshold     uint32
	MaxPoolingRadius uint32
	MinCutDistance   uint32
}

// Cutter scans sequences against a filled Stash and splits them at breakpoints
type Cutter struct {
	stash  *Stash
	window WindowParameters
	params CutParameters

	windowSize      int
	shift           int
	distance        int
	span            int // hash positions between the first lower frame and the last upper frame
	minContigLength int
	chunkSize       int

	// OnSignal, if set, receives the pooled signal and cut coordinates of every sequence that was long enough to scan
	OnSignal func(id string, pooled []uint8, cuts []int)
}

// NewCutter derives the window geometry for a Stash
func NewCutter(stash *Stash, window WindowParameters, params CutParameters) (*Cutter, error) {
	if window.NumberOfFrames == 0 || window.Stride == 0 {
		return nil, fmt.Errorf("%w: number of frames and stride must be positive", ErrWindow)
	}
	cutter := &Cutter{
		stash:      stash,
		window:     window,
		params:     params,
		windowSize: window.WindowSize(stash.seedLength),
	}
	cutter.shift = cutter.windowSize + int(window.Delta)/2
	cutter.distance = cutter.windowSize + int(window.Delta)
	cutter.span = cutter.distance + int(window.NumberOfFrames-1)*int(window.Stride)
	cutter.minContigLength = cutter.distance + cutter.windowSize + 2*int(params.MaxPoolingRadius)
	cutter.chunkSize = max(defaultChunkSize, 2*(cutter.span+1))
	return cutter, nil
}

// MinContigLength is the shortest sequence that can be cut
func (cutter *Cutter) MinContigLength() int {
	return cutter.minContigLength
}

// Shift is the offset added to a chain midpoint to get a cut coordinate
func (cutter *Cutter) Shift() int {
	return cutter.shift
}

// Signal computes the match score at every position where both windows are available
func (cutter *Cutter) Signal(seq []byte) []uint8 {
	return cutter.signal(seq, nil)
}

// signal computes the signal in chunks of frames, carrying the last span frames over so windows crossing a chunk boundary are unaffected
func (cutter *Cutter) signal(seq []byte, frames []Frame) []uint8 {
	length := nthash.Positions(len(seq), cutter.stash.seedLength) - cutter.span
	if length <= 0 {
		return nil
	}
	if len(frames) < cutter.chunkSize {
		frames = make([]Frame, cutter.chunkSize)
	}
	frames = frames[:cutter.chunkSize]
	signal := make([]uint8, length)
	hasher := nthash.NewSeedHasher(seq, cutter.stash.seeds)
	base, filled, position := 0, 0, 0
	for {
		for filled < len(frames) && hasher.Roll() {
			frames[filled] = cutter.stash.frame(hasher.Hashes())
			filled++
		}
		for ; position < length && position+cutter.span < base+filled; position++ {
			signal[position] = cutter.score(frames, position-base)
		}
		if position >= length {
			return signal
		}
		filled = copy(frames, frames[position-base:filled])
		base = position
	}
}

// score returns the best match between any lower window frame and any upper window frame
func (cutter *Cutter) score(frames []Frame, index int) uint8 {
	stride := int(cutter.window.Stride)
	last := index + int(cutter.window.NumberOfFrames)*stride
	best := 0
	for lower := index; lower < last; lower += stride {
		set := newTileSet(&frames[lower])
		for upper := index + cutter.distance; upper < last+cutter.distance; upper += stride {
			if matches := set.matches(&frames[upper]); matches > best {
				best = matches
			}
		}
	}
	return uint8(best)
}

// MaxPool replaces every value by the maximum within radius of it
func MaxPool(signal []uint8, radius int) []uint8 {
	pooled := make([]uint8, len(signal))
	for p := range signal {
		from, to := max(p-radius, 0), min(p+radius, len(signal)-1)
		for j := from; j <= to; j++ {
			if signal[j] > pooled[p] {
				pooled[p] = signal[j]
			}
		}
	}
	return pooled
}

// FindCuts chains the interior positions whose pooled signal is below the threshold and returns one cut per accepted chain
func FindCuts(pooled []uint8, params CutParameters, shift int) []int {
	radius := int(params.MaxPoolingRadius)
	minDistance := int(params.MinCutDistance)
	cuts := []int{}
	chainStart, lastCut := -1, -1
	for p := radius; p < len(pooled)-radius; p++ {
		if uint32(pooled[p]) >= params.CutThreshold {
			continue
		}
		if chainStart < 0 || p-lastCut >= minDistance {
			if chainStart >= 0 {
				cuts = append(cuts, (chainStart+lastCut)/2+shift)
			}
			chainStart = p
		}
		lastCut = p
	}
	if chainStart >= 0 {
		cuts = append(cuts, (chainStart+lastCut)/2+shift)
	}
	return cuts
}

// Segments splits a sequence at the given coordinates; coordinates that would give an empty segment are ignored
func Segments(sequence *seqio.Sequence, cuts []int) []*seqio.Sequence {
	segments := []*seqio.Sequence{}
	start := 0
	for _, end := range cuts {
		if end <= start || end >= sequence.Len() {
			continue
		}
		segment, _ := sequence.Segment(start, end)
		segments = append(segments, segment)
		start = end
	}
	if start == 0 {
		return append(segments, sequence)
	}
	segment, _ := sequence.Segment(start, sequence.Len())
	return append(segments, segment)
}

// Cut splits one sequence, passing short sequences through untouched
func (cutter *Cutter) Cut(sequence *seqio.Sequence) []*seqio.Sequence {
	return cutter.cut(sequence, nil)
}

// cut reuses frames as scratch space when it is large enough
func (cutter *Cutter) cut(sequence *seqio.Sequence, frames []Frame) []*seqio.Sequence {
	if sequence.Len() < cutter.minContigLength {
		return []*seqio.Sequence{sequence}
	}
	pooled := MaxPool(cutter.signal(sequence.Seq, frames), int(cutter.params.MaxPoolingRadius))
	cuts := FindCuts(pooled, cutter.params, cutter.shift)
	if cutter.OnSignal != nil {
		cutter.OnSignal(sequence.ID, pooled, cuts)
	}
	return Segments(sequence, cuts)
}

// Run cuts every sequence with the given number of workers. Each worker keeps its own output, and the outputs are joined in worker order.
func (cutter *Cutter) Run(sequences []*seqio.Sequence, threads int) []*seqio.Sequence {
	if threads < 1 {
		threads = 1
	}
	outputs := make([][]*seqio.Sequence, threads)
	var next int64
	var g errgroup.Group
	for w := 0; w < threads; w++ {
		w := w
		g.Go(func() error {
			frames := make([]Frame, cutter.chunkSize)
			for {
				i := atomic.AddInt64(&next, 1) - 1
				if i >= int64(len(sequences)) {
					return nil
				}
				outputs[w] = append(outputs[w], cutter.cut(sequences[i], frames)...)
			}
		})
	}
	g.Wait()
	assembly := []*seqio.Sequence{}
	for _, output := range outputs {
		assembly = append(assembly, output...)
	}
	return assembly
}
