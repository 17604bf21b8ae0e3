// Package ctph implements context triggered piecewise hashing in the style of
// ssdeep, one input byte at a time so that every intermediate state can be
// inspected.
package ctph

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// Alphabet maps the low six bits of a piece hash to a signature character.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

	// SignatureLength is the target length of the first signature part.
	SignatureLength uint32 = 64

	// MinBlockSize is the smallest block size the engine will fall back to.
	MinBlockSize uint32 = 3
)

// ErrInvalidLength is returned for inputs shorter than one byte.
var ErrInvalidLength = errors.New("ctph: input length must be positive")

// InitialBlockSize returns the smallest MinBlockSize<<k whose expected
// signature length covers n bytes.
func InitialBlockSize(n uint32) uint32 {
	var k uint32
	for (MinBlockSize<<k)*SignatureLength < n {
		k++
	}
	return MinBlockSize << k
}

// FuzzyHash is the complete engine state.
//
// Index is the position of the most recently consumed byte and is -1 before
// the first Step. Trigger1 and Trigger2 report whether that byte closed a
// piece at BlockSize and 2*BlockSize respectively.
type FuzzyHash struct {
	BlockSize uint32
	Index     int
	InputLen  int
	Trigger1  bool
	Trigger2  bool
	Rolling   RollingHash
	Sig1      string
	Sig2      string

	hash1 sum32
	hash2 sum32
	done  bool
}

// NewFuzzyHash prepares an engine for an input of n bytes.
func NewFuzzyHash(n int) (*FuzzyHash, error) {
	if n < 1 {
		return nil, ErrInvalidLength
	}
	fh := &FuzzyHash{
		InputLen:  n,
		BlockSize: InitialBlockSize(uint32(n)),
	}
	fh.reset()
	return fh, nil
}

func (fh *FuzzyHash) reset() {
	fh.hash1, fh.hash2 = newSum32(), newSum32()
	fh.Index = -1
	fh.Rolling = NewRollingHash()
	fh.Sig1, fh.Sig2 = "", ""
}

// Done reports whether a full pass produced an acceptable signature.
func (fh *FuzzyHash) Done() bool { return fh.done }

// Step consumes one byte.
//
// Stepping past InputLen flushes the trailing pieces. If the first part is
// still too short and the block size can shrink, the engine resets at half
// the block size and expects the input again.
func (fh *FuzzyHash) Step(d byte) {
	if fh.done {
		return
	}
	fh.Index++
	if fh.Index >= fh.InputLen {
		fh.Sig1 += string(Alphabet[fh.hash1.Sum32()&0x3F])
		fh.Sig2 += string(Alphabet[fh.hash2.Sum32()&0x3F])

		if uint32(len(fh.Sig1)) >= SignatureLength/2 || fh.BlockSize == MinBlockSize {
			fh.done = true
			return
		}
		fh.reset()
		fh.BlockSize /= 2
		return
	}

	rs := fh.Rolling.Roll(d)
	_, _ = fh.hash1.Write([]byte{d})
	_, _ = fh.hash2.Write([]byte{d})
	fh.Trigger1, fh.Trigger2 = false, false

	if rs%fh.BlockSize == fh.BlockSize-1 {
		fh.Sig1 += string(Alphabet[fh.hash1.Sum32()&0x3F])
		fh.Trigger1 = true
		fh.hash1.Reset()
	}
	if bs2 := 2 * fh.BlockSize; rs%bs2 == bs2-1 {
		fh.Sig2 += string(Alphabet[fh.hash2.Sum32()&0x3F])
		fh.Trigger2 = true
		fh.hash2.Reset()
	}
}

// Signature returns the "<blocksize>:<sig1>:<sig2>" form.
func (fh *FuzzyHash) Signature() string {
	return fmt.Sprintf("%d:%s:%s", fh.BlockSize, fh.Sig1, fh.Sig2)
}

// Clone returns a deep copy.
func (fh *FuzzyHash) Clone() *FuzzyHash {
	c := *fh
	c.Rolling = fh.Rolling.Clone()
	return &c
}

// Hash computes the full signature of data, re-reading it from the first
// byte as many times as the block size search requires.
func Hash(data []byte) (string, error) {
	fh, err := NewFuzzyHash(len(data))
	if err != nil {
		return "", err
	}
	for !fh.done {
		for _, b := range data {
			fh.Step(b)
		}
		fh.Flush()
	}
	return fh.Signature(), nil
}

// Flush steps past the end of the input, closing the trailing pieces. It is
// a no-op unless every input byte has been consumed.
func (fh *FuzzyHash) Flush() {
	if fh.Index == fh.InputLen-1 {
		fh.Step(0)
	}
}

type persisted struct {
	BlockSize uint32      `json:"block_size"`
	Index     int         `json:"index"`
	InputLen  int         `json:"input_length"`
	Trigger1  bool        `json:"is_trigger1"`
	Trigger2  bool        `json:"is_trigger2"`
	Rolling   RollingHash `json:"rolling_hash"`
	Sig1      string      `json:"sig1"`
	Sig2      string      `json:"sig2"`
	Hash1     uint32      `json:"hash1"`
	Hash2     uint32      `json:"hash2"`
	Done      bool        `json:"done"`
}

// MarshalBinary encodes the full engine state, including the piece hashes
// that are not part of the observable snapshot.
func (fh *FuzzyHash) MarshalBinary() ([]byte, error) {
	return json.Marshal(persisted{
		BlockSize: fh.BlockSize,
		Index:     fh.Index,
		InputLen:  fh.InputLen,
		Trigger1:  fh.Trigger1,
		Trigger2:  fh.Trigger2,
		Rolling:   fh.Rolling,
		Sig1:      fh.Sig1,
		Sig2:      fh.Sig2,
		Hash1:     uint32(fh.hash1),
		Hash2:     uint32(fh.hash2),
		Done:      fh.done,
	})
}

// UnmarshalBinary restores state written by MarshalBinary.
func (fh *FuzzyHash) UnmarshalBinary(data []byte) error {
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("ctph: decode state: %w", err)
	}
	if p.BlockSize == 0 || p.Rolling.Size == 0 || uint32(len(p.Rolling.Window)) != p.Rolling.Size {
		return fmt.Errorf("ctph: decode state: malformed rolling hash")
	}
	*fh = FuzzyHash{
		BlockSize: p.BlockSize,
		Index:     p.Index,
		InputLen:  p.InputLen,
		Trigger1:  p.Trigger1,
		Trigger2:  p.Trigger2,
		Rolling:   p.Rolling,
		Sig1:      p.Sig1,
		Sig2:      p.Sig2,
		hash1:     sum32(p.Hash1),
		hash2:     sum32(p.Hash2),
		done:      p.Done,
	}
	return nil
}
