package wire

import "github.com/joekir/ssdeepviz/internal/ctph"

// FromEngine converts the engine state into its wire form. The window slice
// is copied so the result does not alias fh.
func FromEngine(fh *ctph.FuzzyHash) EngineState {
	rh := fh.Rolling
	return EngineState{
		BlockSize:   fh.BlockSize,
		Index:       fh.Index,
		InputLength: fh.InputLen,
		IsTrigger1:  fh.Trigger1,
		IsTrigger2:  fh.Trigger2,
		RollingHash: RollingHash{
			X:      rh.X,
			Y:      rh.Y,
			Z:      rh.Z,
			C:      rh.C,
			Size:   rh.Size,
			Window: append([]uint32(nil), rh.Window...),
		},
		Sig1: fh.Sig1,
		Sig2: fh.Sig2,
	}
}
