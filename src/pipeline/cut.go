package pipeline

/*
 this part of the pipeline loads an assembly, cuts every contig at the breakpoints found in a Stash and writes the pieces out
*/

import (
	"fmt"
	"os"

	"github.com/bcgsc/stash/src/reporting"
	"github.com/bcgsc/stash/src/seqio"
	"github.com/bcgsc/stash/src/stash"
)

// SequenceStreamer is a pipeline process that loads every sequence of an assembly as a single batch
type SequenceStreamer struct {
	info   *Info
	reader *seqio.Reader
	output chan []*seqio.Sequence
}

// NewSequenceStreamer is the constructor
func NewSequenceStreamer(info *Info) *SequenceStreamer {
	return &SequenceStreamer{info: info, output: make(chan []*seqio.Sequence, 1)}
}

// Connect is the method to connect the SequenceStreamer to a reader
func (proc *SequenceStreamer) Connect(reader *seqio.Reader) {
	proc.reader = reader
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *SequenceStreamer) Run() error {
	defer close(proc.output)
	sequences, err := proc.reader.LoadSequences(0, 0)
	if err != nil {
		return err
	}
	proc.info.logger().Printf("\tnumber of sequences loaded: %d", len(sequences))
	proc.output <- sequences
	return nil
}

// ContigCutter is a pipeline process that splits the sequences it receives at breakpoints
type ContigCutter struct {
	info   *Info
	cutter *stash.Cutter
	input  chan []*seqio.Sequence
	output chan *seqio.Sequence
}

// NewContigCutter is the constructor
func NewContigCutter(info *Info, cutter *stash.Cutter) *ContigCutter {
	return &ContigCutter{info: info, cutter: cutter, output: make(chan *seqio.Sequence, BUFFERSIZE)}
}

// Connect is the method to join the input of this process with the output of a SequenceStreamer
func (proc *ContigCutter) Connect(previous *SequenceStreamer) {
	proc.input = previous.output
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *ContigCutter) Run() error {
	defer close(proc.output)
	logger := proc.info.logger()
	for batch := range proc.input {
		segments := proc.cutter.Run(batch, proc.info.NumProc)
		logger.Printf("\tnumber of sequences after cutting: %d (from %d)", len(segments), len(batch))
		for _, segment := range segments {
			proc.output <- segment
		}
	}
	return nil
}

// FastaWriter is a pipeline process that writes the sequences it receives as FASTA
type FastaWriter struct {
	info   *Info
	writer *seqio.Writer
	input  chan *seqio.Sequence
}

// NewFastaWriter is the constructor
func NewFastaWriter(info *Info, writer *seqio.Writer) *FastaWriter {
	return &FastaWriter{info: info, writer: writer}
}

// Connect is the method to join the input of this process with the output of a ContigCutter
func (proc *FastaWriter) Connect(previous *ContigCutter) {
	proc.input = previous.output
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *FastaWriter) Run() error {
	var err error

	// keep draining after a failed write so the cutter is not blocked
	for sequence := range proc.input {
		if err == nil {
			err = proc.writer.Write(sequence)
		}
	}
	if err != nil {
		return err
	}
	return proc.writer.Close()
}

// RunCut cuts the assembly at assemblyPath using the Stash at stashPath and writes the result to outputPath
func RunCut(info *Info, stashPath, assemblyPath, outputPath string) error {
	logger := info.logger()
	table, err := stash.Load(stashPath)
	if err != nil {
		return fmt.Errorf("could not load stash: %w", err)
	}
	var saved Info
	if err := saved.Load(stashPath + InfoSuffix); err == nil {
		logger.Printf("\tstash built by version %v from %d reads, %d tiles claimed", saved.Version, saved.Reads, saved.Occupancy)
	}
	cutter, err := stash.NewCutter(table, info.Window, info.Cut)
	if err != nil {
		return err
	}
	if info.PlotDir != "" {
		if err := os.MkdirAll(info.PlotDir, 0755); err != nil {
			return err
		}
		signalPlotter := reporting.NewSignalPlotter(info.PlotDir, cutter.Shift())
		cutter.OnSignal = func(id string, pooled []uint8, cuts []int) {
			if err := signalPlotter.Plot(id, pooled, cuts); err != nil {
				logger.Printf("\tcould not plot the signal for %v: %v", id, err)
			}
		}
	}
	reader, err := seqio.Open(assemblyPath)
	if err != nil {
		return err
	}
	defer reader.Close()
	fh, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer fh.Close()
	logger.Printf("\tstash rows: %d, seed length: %d", table.Rows(), table.SeedLength())
	logger.Printf("\tminimum contig length for cutting: %d", cutter.MinContigLength())

	// initialise processes and connect them
	sequenceStreamer := NewSequenceStreamer(info)
	contigCutter := NewContigCutter(info, cutter)
	fastaWriter := NewFastaWriter(info, seqio.NewWriter(fh))
	sequenceStreamer.Connect(reader)
	contigCutter.Connect(sequenceStreamer)
	fastaWriter.Connect(contigCutter)

	// submit each process to the pipeline and run it
	cutPipeline := NewPipeline()
	cutPipeline.AddProcesses(sequenceStreamer, contigCutter, fastaWriter)
	if err := cutPipeline.Run(); err != nil {
		return fmt.Errorf("could not cut assembly: %w", err)
	}
	return fh.Close()
}
