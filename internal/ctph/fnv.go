package ctph

// sum32 is FNV-1 over 32 bits with the non-standard ssdeep offset basis.
// It implements hash.Hash32.
type sum32 uint32

const (
	fnvOffset sum32 = 0x28021967
	fnvPrime  sum32 = 16777619
)

func newSum32() sum32 { return fnvOffset }

func (s *sum32) Reset() { *s = fnvOffset }

func (s *sum32) Write(data []byte) (int, error) {
	h := *s
	for _, c := range data {
		h *= fnvPrime
		h ^= sum32(c)
	}
	*s = h
	return len(data), nil
}

func (s *sum32) Size() int { return 4 }

func (s *sum32) BlockSize() int { return 1 }

func (s *sum32) Sum(in []byte) []byte {
	v := uint32(*s)
	return append(in, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func (s *sum32) Sum32() uint32 { return uint32(*s) }
