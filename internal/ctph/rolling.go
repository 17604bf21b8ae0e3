package ctph

// WindowSize is the number of trailing bytes covered by the rolling hash.
const WindowSize uint32 = 7

// RollingHash is the Adler-style rolling checksum ssdeep uses to find
// trigger points. X sums the window, Y weights it by position and Z shifts
// every byte in.
type RollingHash struct {
	X      uint32   `json:"x"`
	Y      uint32   `json:"y"`
	Z      uint32   `json:"z"`
	C      uint32   `json:"c"`
	Size   uint32   `json:"size"`
	Window []uint32 `json:"window"`
}

// NewRollingHash returns an empty rolling hash over WindowSize bytes.
func NewRollingHash() RollingHash {
	return RollingHash{
		Size:   WindowSize,
		Window: make([]uint32, WindowSize),
	}
}

// Roll feeds d into the window and returns the new checksum.
func (rh *RollingHash) Roll(d byte) uint32 {
	v := uint32(d)
	slot := rh.C % rh.Size

	rh.Y = rh.Y - rh.X + rh.Size*v
	rh.X = rh.X + v - rh.Window[slot]
	rh.Window[slot] = v
	rh.C++
	rh.Z = (rh.Z << 5) ^ v

	return rh.X + rh.Y + rh.Z
}

// Clone returns a deep copy.
func (rh RollingHash) Clone() RollingHash {
	rh.Window = append([]uint32(nil), rh.Window...)
	return rh
}
