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
	"log"
	"os"
	"runtime"

	"github.com/bcgsc/stash/src/misc"
	"github.com/bcgsc/stash/src/version"
	"github.com/spf13/cobra"
)

// the command line arguments
var (
	configFile *string // optional config file holding default settings
	logFile    *string // file to write the log to (stderr if empty)
	profiling  *bool   // create profile for go pprof
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "stash",
	Version: version.GetVersion(),
	Short:   "detect and cut misassembled contigs using a Stash of read signatures",
	Long: `
#####################################################################################
		Stash: finding misassemblies with a sketch of read identities
#####################################################################################

 Stash is a compact table of 4-bit tiles, filled by rolling spaced-seed hashes over
 sequencing reads and claiming tiles with a signature derived from each read ID.

 The fill command builds a Stash from a read set. The cut command scans an assembly
 against a Stash, looks for positions where the reads that support the two sides of
 a position stop overlapping, and cuts the contigs there.`,
}

/*
  A function to add all child commands to the root command and sets flags appropriately
*/
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

/*
  A function to initalise the command line arguments
*/
func init() {
	configFile = RootCmd.PersistentFlags().String("config", "", "config file (YAML, TOML or JSON) with fill and cut settings")
	logFile = RootCmd.PersistentFlags().String("log", "", "filename for log file, default = stderr")
	profiling = RootCmd.PersistentFlags().Bool("profiling", false, "create the files needed to profile Stash using the go tool pprof")
}

// startLogging returns the logger handed to the pipelines and a function to close the log file
func startLogging() (*log.Logger, func()) {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	if *logFile == "" {
		return logger, func() {}
	}
	logFH, err := misc.StartLogging(*logFile)
	misc.ErrorCheck(err)
	logger.SetOutput(logFH)
	return logger, func() { logFH.Close() }
}

// checkThreads sets the number of processors to use
func checkThreads(threads int) int {
	if threads <= 0 || threads > runtime.NumCPU() {
		threads = runtime.NumCPU()
	}
	runtime.GOMAXPROCS(threads)
	return threads
}
