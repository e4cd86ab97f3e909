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
	"github.com/bcgsc/stash/src/version"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

// the command line arguments
var (
	assemblyPath *string // the assembly to cut
	stashPath    *string // the Stash built by the fill command
	cutOutput    *string // where to write the cut assembly
)

// the cut command (used by cobra)
var cutCmd = &cobra.Command{
	Use:   "cut",
	Short: "Detects and cuts the misassembled contigs of the input assembly",
	Long:  `Detects and cuts the misassembled contigs of the input assembly, writing every piece as an unwrapped FASTA record`,
	Run: func(cmd *cobra.Command, args []string) {
		runCut(cmd)
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// a function to initialise the command line arguments
func init() {
	assemblyPath = cutCmd.Flags().StringP("assembly", "a", "", "input assembly (FASTA) - required")
	stashPath = cutCmd.Flags().StringP("stash", "s", "", "Stash path - required")
	cutOutput = cutCmd.Flags().StringP("output", "o", "", "output path - required")
	cutCmd.Flags().Uint32P("numberOfFrames", "n", 1, "number of frames in a window")
	cutCmd.Flags().Uint32P("stride", "r", 13, "distance between the frames of a window")
	cutCmd.Flags().Uint32P("delta", "l", 751, "gap between the two windows compared at each position")
	cutCmd.Flags().Uint32P("threshold", "x", 11, "cut where the pooled signal is below this value")
	cutCmd.Flags().Uint32P("maxPoolingRadius", "m", 1, "max pooling radius")
	cutCmd.Flags().Uint32P("minCutDistance", "d", 1000, "minimum distance between two cuts")
	cutCmd.Flags().IntP("threads", "t", 8, "number of threads")
	cutCmd.Flags().String("plotDir", "", "directory to write a signal plot for each contig to")
	cutCmd.MarkFlagRequired("assembly")
	cutCmd.MarkFlagRequired("stash")
	cutCmd.MarkFlagRequired("output")
	RootCmd.AddCommand(cutCmd)
}

//  a function to check user supplied parameters
func cutParamCheck(settings *config.CutConfig) error {
	if err := misc.CheckFile(*assemblyPath); err != nil {
		return err
	}
	if err := misc.CheckFile(*stashPath); err != nil {
		return err
	}
	if settings.NumberOfFrames == 0 || settings.Stride == 0 {
		return fmt.Errorf("the number of frames and the stride must be positive")
	}
	settings.Threads = checkThreads(settings.Threads)
	return nil
}

/*
  The main function for the cut command
*/
func runCut(cmd *cobra.Command) {
	// set up profiling
	if *profiling {
		defer profile.Start(profile.ProfilePath("./")).Stop()
	}
	settings, err := config.Load(*configFile, config.CutSection, cmd.Flags())
	misc.ErrorCheck(err)

	// start logging
	logger, closeLog := startLogging()
	defer closeLog()
	logger.Printf("this is stash (version %s)", version.GetVersion())
	logger.Printf("starting the cut command")
	logger.Printf("checking parameters...")
	misc.ErrorCheck(cutParamCheck(&settings.Cut))
	logger.Printf("\tassembly: %v", *assemblyPath)
	logger.Printf("\tstash: %v", *stashPath)
	logger.Printf("\twindow: %+v", settings.Cut.Window())
	logger.Printf("\tcut parameters: %+v", settings.Cut.Cut())

	// run the cut pipeline
	logger.Printf("cutting the assembly...")
	info := &pipeline.Info{
		Version: version.GetVersion(),
		NumProc: settings.Cut.Threads,
		Window:  settings.Cut.Window(),
		Cut:     settings.Cut.Cut(),
		PlotDir: settings.Cut.PlotDir,
		Logger:  logger,
	}
	misc.ErrorCheck(pipeline.RunCut(info, *stashPath, *assemblyPath, *cutOutput))
	logger.Printf("\t%v", misc.PrintMemUsage())
	logger.Println("finished")
}
