/*
	the seqio package contains custom types and methods for holding, reading and writing sequence data
*/
package seqio

import (
	"fmt"

	"github.com/go-faster/city"
)

// hash2Suffix is appended to a read ID before computing the second identity hash
const hash2Suffix = "{"

// Sequence is the base type for contigs and reads
type Sequence struct {
	ID  string
	Seq []byte
}

// Read is a sequence carrying two identity hashes derived from its ID
type Read struct {
	Sequence
	Hash1 uint64
	Hash2 uint64
}

// NewSequence copies seq into a new Sequence
func NewSequence(id string, seq []byte) *Sequence {
	return &Sequence{
		ID:  id,
		Seq: append([]byte(nil), seq...),
	}
}

// NewRead copies seq into a new Read and hashes the ID
func NewRead(id string, seq []byte) *Read {
	hash1, hash2 := IdentityHashes(id)
	return &Read{
		Sequence: Sequence{ID: id, Seq: append([]byte(nil), seq...)},
		Hash1:    hash1,
		Hash2:    hash2,
	}
}

// IdentityHashes returns the two CityHash64 values of a read ID, the second one over the ID with a suffix
func IdentityHashes(id string) (uint64, uint64) {
	return city.Hash64([]byte(id)), city.Hash64([]byte(id + hash2Suffix))
}

// Len returns the sequence length
func (sequence *Sequence) Len() int {
	return len(sequence.Seq)
}

// Segment returns the [start, end) part of the sequence, sharing the underlying bytes, under a coordinate suffixed ID
func (sequence *Sequence) Segment(start, end int) (*Sequence, error) {
	if start < 0 || end > len(sequence.Seq) || start > end {
		return nil, fmt.Errorf("segment %d-%d is out of range for %v (length %d)", start, end, sequence.ID, len(sequence.Seq))
	}
	return &Sequence{
		ID:  fmt.Sprintf("%s:%d-%d", sequence.ID, start, end),
		Seq: sequence.Seq[start:end:end],
	}, nil
}
