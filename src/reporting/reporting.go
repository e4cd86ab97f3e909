package reporting

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// this will clean up a sequence ID so that we can use it as a filename
var replacer = strings.NewReplacer("/", "__", "\t", "__", " ", "_")

// SignalPlotter draws the pooled signal of each cut sequence to a PNG file
type SignalPlotter struct {
	dir   string
	shift int
	sync.Mutex
}

// NewSignalPlotter is the constructor; shift converts a signal index into a sequence coordinate
func NewSignalPlotter(dir string, shift int) *SignalPlotter {
	return &SignalPlotter{dir: dir, shift: shift}
}

// FileName returns the path the plot for a sequence is written to
func (proc *SignalPlotter) FileName(id string) string {
	return filepath.Join(proc.dir, fmt.Sprintf("signal-for-%v.png", replacer.Replace(id)))
}

// Plot is a method to plot one pooled signal, marking the cut coordinates
func (proc *SignalPlotter) Plot(id string, pooled []uint8, cuts []int) error {
	proc.Lock()
	defer proc.Unlock()
	signalPlot, err := plot.New()
	if err != nil {
		return err
	}
	signalPlot.Title.Text = "stash signal for " + id
	signalPlot.X.Label.Text = "position in sequence"
	signalPlot.Y.Label.Text = "max-pooled frame matches"
	signal := make(plotter.XYs, len(pooled))
	for i, value := range pooled {
		signal[i].X = float64(i + proc.shift)
		signal[i].Y = float64(value)
	}
	if err := plotutil.AddLinePoints(signalPlot, "signal", signal); err != nil {
		return err
	}
	if len(cuts) != 0 {
		cutPoints := make(plotter.XYs, len(cuts))
		for i, cut := range cuts {
			cutPoints[i].X = float64(cut)
		}
		if err := plotutil.AddScatters(signalPlot, "cuts", cutPoints); err != nil {
			return err
		}
	}
	return signalPlot.Save(8*vg.Inch, 4*vg.Inch, proc.FileName(id))
}
