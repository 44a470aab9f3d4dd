package dzi

// DefaultSynthesizeMaxTiles is the largest coarsest source level, in tiles,
// that is stitched and halved to synthesize level 0. Deep Zoom viewers
// expect the level above a single tile to be at most a 2x2 grid; larger
// levels would need unbounded stitching so level 0 is skipped instead.
const DefaultSynthesizeMaxTiles = 4

// Policy is the decision taken for level 0 before any tile is written
type Policy int

const (
	// BuildFromSource means the coarsest source level is already a single
	// tile and becomes level 0
	BuildFromSource Policy = iota
	// SynthesizeFromTier1 means the coarsest source level becomes level 1
	// and level 0 is derived from it once every level is written
	SynthesizeFromTier1
	// SkipEntirely means the coarsest source level becomes level 1 and
	// level 0 is never written
	SkipEntirely
)

var policyNames = map[Policy]string{
	BuildFromSource:     "build-from-source",
	SynthesizeFromTier1: "synthesize-from-tier1",
	SkipEntirely:        "skip",
}

func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return "unknown"
}

// DecidePolicy picks the policy given the tile count of the coarsest source
// level and the synthesis threshold
func DecidePolicy(tiles, maxTiles int) Policy {
	switch {
	case tiles <= 1:
		return BuildFromSource
	case tiles <= maxTiles:
		return SynthesizeFromTier1
	default:
		return SkipEntirely
	}
}

// FirstLevel returns the zoom index assigned to the coarsest source level
func (p Policy) FirstLevel() int {
	if p == BuildFromSource {
		return 0
	}
	return 1
}

// LowestLevel returns the lowest zoom index present once the pyramid is
// complete
func (p Policy) LowestLevel() int {
	if p == SkipEntirely {
		return 1
	}
	return 0
}
