package tetris

import "math/rand"

// PieceSource supplies the order of upcoming pieces.
type PieceSource interface {
	Next() Kind
}

// RandomSource draws each piece uniformly from the catalog using a seeded RNG,
// so the same seed always yields the same sequence.
type RandomSource struct {
	rng *rand.Rand
}

// NewRandomSource creates a seeded uniform piece source.
func NewRandomSource(seed int64) *RandomSource {
	return &RandomSource{rng: rand.New(rand.NewSource(seed))}
}

// Next returns the next piece variant.
func (s *RandomSource) Next() Kind {
	return Kind(s.rng.Intn(KindCount))
}

// SequenceSource replays a fixed list of pieces, cycling when exhausted.
type SequenceSource struct {
	kinds []Kind
	pos   int
}

// NewSequenceSource creates a source that yields kinds in order.
func NewSequenceSource(kinds ...Kind) *SequenceSource {
	if len(kinds) == 0 {
		kinds = []Kind{KindI}
	}
	return &SequenceSource{kinds: kinds}
}

// Next returns the next piece variant in the sequence.
func (s *SequenceSource) Next() Kind {
	k := s.kinds[s.pos%len(s.kinds)]
	s.pos++
	return k
}
