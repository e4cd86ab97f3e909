// Copyright © 2026 The Stash Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"

	"github.com/bcgsc/stash/src/config"
	"github.com/bcgsc/stash/src/misc"
	"github.com/bcgsc/stash/src/pipeline"
	"github.com/bcgsc/stash/src/stash"
	"github.com/bcgsc/stash/src/version"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

// the command line arguments
var (
	readsPath  *string // the reads to fill the Stash with
	fillOutput *string // where to save the Stash
)

// the fill command (used by cobra)
var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Creates and fills a Stash using the input reads",
	Long:  `Creates and fills a Stash using the input reads (FASTA or FASTQ, optionally gzip, zstd or lz4 compressed)`,
	Run: func(cmd *cobra.Command, args []string) {
		runFill(cmd)
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// a function to initialise the command line arguments
func init() {
	readsPath = fillCmd.Flags().StringP("reads", "r", "", "input reads (FASTA/FASTQ, use - for STDIN) - required")
	fillOutput = fillCmd.Flags().StringP("output", "o", "", "output path for the Stash - required")
	fillCmd.Flags().Uint32P("logRows", "l", 30, "log2 of the number of rows")
	fillCmd.Flags().IntP("threads", "t", 8, "number of threads")
	fillCmd.Flags().StringSlice("seeds", stash.DefaultSeeds, "the four spaced seeds (comma separated, all of the same length)")
	fillCmd.Flags().Int("batchSize", pipeline.DefaultBatchSize, "number of reads held in memory at once")
	fillCmd.Flags().Bool("progress", false, "show a progress bar")
	fillCmd.MarkFlagRequired("reads")
	fillCmd.MarkFlagRequired("output")
	RootCmd.AddCommand(fillCmd)
}

//  a function to check user supplied parameters
func fillParamCheck(settings *config.FillConfig) error {
	if err := misc.CheckFile(*readsPath); err != nil {
		return err
	}
	if settings.LogRows == 0 || settings.LogRows > stash.MaxLogRows {
		return fmt.Errorf("log2 of the number of rows must be between 1 and %d", stash.MaxLogRows)
	}
	if len(settings.Seeds) != stash.SpacedSeedCount {
		return fmt.Errorf("%d spaced seeds are needed, got %d", stash.SpacedSeedCount, len(settings.Seeds))
	}
	settings.Threads = checkThreads(settings.Threads)
	return nil
}

/*
  The main function for the fill command
*/
func runFill(cmd *cobra.Command) {
	// set up profiling
	if *profiling {
		defer profile.Start(profile.ProfilePath("./")).Stop()
	}
	settings, err := config.Load(*configFile, config.FillSection, cmd.Flags())
	misc.ErrorCheck(err)

	// start logging
	logger, closeLog := startLogging()
	defer closeLog()
	logger.Printf("this is stash (version %s)", version.GetVersion())
	logger.Printf("starting the fill command")
	logger.Printf("checking parameters...")
	misc.ErrorCheck(fillParamCheck(&settings.Fill))
	logger.Printf("\tinput file: %v", *readsPath)
	logger.Printf("\tbatch size: %d", settings.Fill.BatchSize)

	// run the fill pipeline
	logger.Printf("filling the stash...")
	info := &pipeline.Info{
		Version:   version.GetVersion(),
		NumProc:   settings.Fill.Threads,
		LogRows:   settings.Fill.LogRows,
		Seeds:     settings.Fill.Seeds,
		BatchSize: settings.Fill.BatchSize,
		Progress:  settings.Fill.Progress,
		Logger:    logger,
	}
	misc.ErrorCheck(pipeline.RunFill(info, *readsPath, *fillOutput))
	logger.Printf("\tnumber of reads: %d", info.Reads)
	logger.Printf("\t%v", misc.PrintMemUsage())
	logger.Println("finished")
}
