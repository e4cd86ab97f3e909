package pipeline

import (
	"errors"
	"io"
	"log"
	"os"

	"github.com/bcgsc/stash/src/stash"
	"gopkg.in/vmihailenco/msgpack.v2"
)

// InfoSuffix is appended to a Stash path to name its run info file
const InfoSuffix = ".info"

// Info stores the runtime information
type Info struct {
	Version   string
	NumProc   int
	LogRows   uint32
	Seeds     []string
	BatchSize int
	Window    stash.WindowParameters
	Cut       stash.CutParameters

	// filled in by the fill pipeline
	Reads     int
	Skipped   int
	Claims    uint64
	Occupancy uint64

	// the following fields are not written to disk
	PlotDir  string      `msgpack:"-"`
	Progress bool        `msgpack:"-"`
	Logger   *log.Logger `msgpack:"-"`
}

// logger returns the attached logger, or one that discards everything
func (Info *Info) logger() *log.Logger {
	if Info.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return Info.Logger
}

// Dump is a method to dump the pipeline info to file
func (Info *Info) Dump(path string) error {
	data, err := msgpack.Marshal(Info)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load is a method to load Info from file
func (Info *Info) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return Info.LoadFromBytes(data)
}

// LoadFromBytes is a method to load Info from bytes
func (Info *Info) LoadFromBytes(data []byte) error {
	if len(data) == 0 {
		return errors.New("stash run info appears empty")
	}
	return msgpack.Unmarshal(data, Info)
}
