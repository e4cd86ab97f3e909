package pipeline

/*
 this part of the pipeline streams reads in batches and rolls them over a Stash
*/

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bcgsc/stash/src/misc"
	"github.com/bcgsc/stash/src/seqio"
	"github.com/bcgsc/stash/src/stash"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// DefaultBatchSize is the number of reads held in memory at once by the fill pipeline
const DefaultBatchSize = 20000

// ReadStreamer is a pipeline process that loads reads from a sequence file in batches
type ReadStreamer struct {
	info      *Info
	reader    *seqio.Reader
	minLength int
	output    chan []*seqio.Read
}

// NewReadStreamer is the constructor
func NewReadStreamer(info *Info) *ReadStreamer {
	return &ReadStreamer{info: info, output: make(chan []*seqio.Read, 1)}
}

// Connect is the method to connect the ReadStreamer to a reader; reads shorter than minLength are dropped
func (proc *ReadStreamer) Connect(reader *seqio.Reader, minLength int) {
	proc.reader = reader
	proc.minLength = minLength
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *ReadStreamer) Run() error {
	defer close(proc.output)
	batchSize := proc.info.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	for {
		batch, err := proc.reader.LoadReads(batchSize, proc.minLength)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		proc.output <- batch
	}
}

// StashFiller is a pipeline process that fills a Stash with each batch of reads it receives
type StashFiller struct {
	info  *Info
	stash *stash.Stash
	input chan []*seqio.Read
	stats stash.FillStats
}

// NewStashFiller is the constructor
func NewStashFiller(info *Info, table *stash.Stash) *StashFiller {
	return &StashFiller{info: info, stash: table}
}

// Connect is the method to join the input of this process with the output of a ReadStreamer
func (proc *StashFiller) Connect(previous *ReadStreamer) {
	proc.input = previous.output
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *StashFiller) Run() error {
	logger := proc.info.logger()

	// the number of reads is unknown until the input is exhausted
	var pbs *mpb.Progress
	var bar *mpb.Bar
	if proc.info.Progress {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pbs.AddBar(0,
			mpb.PrependDecorators(
				decor.Name("processed reads: ", decor.WC{W: len("processed reads: "), C: decor.DindentRight}),
				decor.CurrentNoUnit("%d", decor.WCSyncWidth),
			),
		)
	}
	for batch := range proc.input {
		proc.stats.Add(proc.stash.Fill(batch, proc.info.NumProc))
		logger.Printf("\ttotal processed reads: %d", proc.stats.Reads)
		if bar != nil {
			bar.IncrBy(len(batch))
		}
	}
	if bar != nil {
		bar.SetTotal(-1, true)
		pbs.Wait()
	}
	proc.info.Reads = proc.stats.Reads
	proc.info.Skipped = proc.stats.Skipped
	proc.info.Claims = proc.stats.Claims
	return nil
}

// RunFill builds a Stash from the reads at readsPath and saves it, with its run info, to outputPath
func RunFill(info *Info, readsPath, outputPath string) error {
	logger := info.logger()
	if err := misc.CheckDir(filepath.Dir(outputPath)); err != nil {
		return err
	}
	table, err := stash.New(info.LogRows, info.Seeds)
	if err != nil {
		return err
	}
	reader, err := seqio.Open(readsPath)
	if err != nil {
		return err
	}
	defer reader.Close()
	logger.Printf("\tstash rows: %d (%d MiB)", table.Rows(), table.Rows()*8>>20)
	logger.Printf("\tspaced seeds: %v", table.Seeds())
	logger.Printf("\tprocessors: %d", info.NumProc)

	// initialise processes and connect them
	readStreamer := NewReadStreamer(info)
	stashFiller := NewStashFiller(info, table)
	readStreamer.Connect(reader, table.SeedLength())
	stashFiller.Connect(readStreamer)

	// submit each process to the pipeline and run it
	fillPipeline := NewPipeline()
	fillPipeline.AddProcesses(readStreamer, stashFiller)
	if err := fillPipeline.Run(); err != nil {
		return fmt.Errorf("could not fill stash: %w", err)
	}
	if info.Reads == 0 {
		logger.Printf("\tno reads were long enough to fill the stash")
	}

	// save the table and the run info next to it
	info.Seeds = table.Seeds()
	info.Occupancy = table.Occupancy()
	logger.Printf("\ttiles claimed: %d (%.2f%% of the table)", info.Occupancy, 100*float64(info.Occupancy)/float64(table.Rows()*stash.TilesPerRow))
	logger.Printf("saving stash to %v", outputPath)
	if err := table.Save(outputPath); err != nil {
		return err
	}
	return info.Dump(outputPath + InfoSuffix)
}
