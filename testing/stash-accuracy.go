package main

/*
 stash-accuracy checks a cut assembly against its reference: the cut sequences are aligned to the
 reference (e.g. minimap2 -a | samtools view -b) and every sequence whose alignments do not form
 one colinear block is counted as still misassembled
*/

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/sam"
)

var inputFile = flag.String("bam", "", "bam file of the cut assembly aligned to the reference")
var numPieces = flag.Int("numPieces", 0, "number of sequences in the cut assembly")
var maxGap = flag.Int("maxGap", 1000, "largest indel allowed between two alignments of a colinear sequence")

// placement is the reference footprint of one aligned sequence
type placement struct {
	refs       map[string]struct{}
	start, end int
	length     int
}

// report holds the accuracy counts
type report struct {
	aligned    int
	chimeric   int
	unaligned  int
	placements map[string]*placement
}

// evaluate reads the alignments and classifies every sequence
func evaluate(r io.Reader, numPieces, maxGap int) (*report, error) {
	b, err := bam.NewReader(r, 0)
	if err != nil {
		return nil, fmt.Errorf("could not read BAM file: %v", err)
	}
	defer b.Close()

	// process the records and keep the footprint of each sequence
	placements := make(map[string]*placement)
	for {
		record, err := b.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading bam: %v", err)
		}

		// ignore unaligned and secondary alignments
		if record.Flags&(sam.Unmapped|sam.Secondary) != 0 {
			continue
		}
		p, ok := placements[record.Name]
		if !ok {
			p = &placement{refs: make(map[string]struct{}), start: record.Pos, end: record.End()}
			placements[record.Name] = p
		}
		p.refs[record.Ref.Name()] = struct{}{}
		p.start = min(p.start, record.Pos)
		p.end = max(p.end, record.End())
		if record.Flags&sam.Supplementary == 0 {
			_, p.length = record.Cigar.Lengths()
		}
	}

	// a sequence is chimeric if it hits several references or its alignments are too far apart
	rep := &report{aligned: len(placements), placements: placements}
	for _, p := range placements {
		if len(p.refs) > 1 || p.end-p.start > p.length+maxGap {
			rep.chimeric++
		}
	}
	if numPieces > 0 {
		rep.unaligned = numPieces - rep.aligned
	}
	return rep, nil
}

// summary formats the counts, with percentages when there is anything to count
func (rep *report) summary() string {
	total := rep.aligned + rep.unaligned
	lines := []struct {
		count int
		label string
	}{
		{rep.aligned, "aligned sequences"},
		{rep.unaligned, "unaligned sequences"},
		{rep.chimeric, "misassembled sequences"},
	}
	var b strings.Builder
	for _, line := range lines {
		if total == 0 {
			fmt.Fprintf(&b, "%d\t\t%v\n", line.count, line.label)
			continue
		}
		fmt.Fprintf(&b, "%d\t%.2f%%\t\t%v\n", line.count, float64(line.count)/float64(total)*100, line.label)
	}
	return b.String()
}

func main() {
	flag.Parse()
	f, err := os.Open(*inputFile)
	if err != nil {
		log.Fatalf("could not open BAM file %q: %v", *inputFile, err)
	}
	defer f.Close()
	ok, err := bgzf.HasEOF(f)
	if err != nil {
		log.Fatalf("could not check bgzf EOF block of %q: %v", *inputFile, err)
	}
	if !ok {
		log.Printf("file %v has no bgzf magic block: may be truncated", *inputFile)
	}
	rep, err := evaluate(f, *numPieces, *maxGap)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(rep.summary())
}
