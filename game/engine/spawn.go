package engine

import (
	"math/rand"
	"time"
)

// Spawner places new tiles on empty cells
type Spawner struct {
	rng             *rand.Rand
	fourProbability float64
}

// NewSpawner creates a spawner. A nil rng is replaced by a time-seeded source.
func NewSpawner(rng *rand.Rand, fourProbability float64) *Spawner {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Spawner{rng: rng, fourProbability: fourProbability}
}

// Spawn picks an empty cell uniformly at random and sets it to 4 with the
// configured probability, otherwise 2. The board is untouched when full.
func (s *Spawner) Spawn(b *Board) (Tile, error) {
	empty := b.EmptyCells()
	if len(empty) == 0 {
		return Tile{}, ErrNoEmptyCell
	}

	pos := empty[s.rng.Intn(len(empty))]
	value := 2
	if s.rng.Float64() < s.fourProbability {
		value = 4
	}

	b.cells[pos.Row][pos.Col] = value
	return Tile{Position: pos, Value: value}, nil
}
