// apps/go-server/internal/bag/bag.go
//
// Seeded tile bag and player racks.
// Responsibilities:
//   - Deterministic draws: the same seed and the same sequence of calls
//     always produce the same tiles, so a game can be rebuilt by replay.
//   - Optional fixed draw order (tests) consumed before random draws.
//   - Racks with seven numbered slots; refills keep slot numbers stable.
//
// Seeding follows HMAC(salt, gameID) so that draws cannot be predicted
// from the game ID alone.

package bag

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math/rand/v2"
	"sort"
)

// RackSize is the number of slots on a rack.
const RackSize = 7

var ErrEmpty = errors.New("bag is empty")

// Tile is a letter held on a rack slot or bound to a cell.
type Tile struct {
	Number     int    `json:"tileNumber"`
	Letter     string `json:"letter"`
	Value      int    `json:"value"`
	Vowel      bool   `json:"vowel"`
	Row        int    `json:"rowNumber,omitempty"`
	Column     int    `json:"columnNumber,omitempty"`
	CellNumber *int   `json:"cellNumber,omitempty"`
	Sealed     bool   `json:"sealed"`
	Exchanged  bool   `json:"exchanged"`
}

// Rack is a player's hand.
type Rack struct {
	Tiles     []Tile `json:"tiles"`
	Exchanged bool   `json:"exchanged"`
}

// Clone returns a deep copy of r.
func (r Rack) Clone() Rack {
	out := Rack{Tiles: make([]Tile, len(r.Tiles)), Exchanged: r.Exchanged}
	copy(out.Tiles, r.Tiles)
	return out
}

// Tile returns the tile in slot n.
func (r Rack) Tile(n int) (Tile, bool) {
	for _, t := range r.Tiles {
		if t.Number == n {
			return t, true
		}
	}
	return Tile{}, false
}

// Without returns r minus the tiles in the given slots.
func (r Rack) Without(numbers ...int) Rack {
	drop := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		drop[n] = true
	}
	out := Rack{Exchanged: r.Exchanged}
	for _, t := range r.Tiles {
		if !drop[t.Number] {
			out.Tiles = append(out.Tiles, t)
		}
	}
	return out
}

// Seed derives the PCG seed for a game.
func Seed(salt, gameID string) [2]uint64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(gameID))
	sum := h.Sum(nil)
	return [2]uint64{binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:16])}
}

// Bag is the shared pool of undrawn tiles. Not safe for concurrent use.
type Bag struct {
	dist   Distribution
	counts []int
	total  int
	rng    *rand.Rand
	stack  []string
}

// New fills a bag from d. Letters in stack are drawn first, in order.
func New(d Distribution, seed [2]uint64, stack ...string) *Bag {
	b := &Bag{
		dist:   d,
		counts: make([]int, len(d.Letters)),
		rng:    rand.New(rand.NewPCG(seed[0], seed[1])),
		stack:  append([]string(nil), stack...),
	}
	for i, l := range d.Letters {
		b.counts[i] = l.Count
		b.total += l.Count
	}
	return b
}

// Count is the number of tiles left in the bag.
func (b *Bag) Count() int { return b.total }

// Size is the number of tiles the bag started with.
func (b *Bag) Size() int { return b.dist.Size() }

// Draw removes one tile from the bag. The returned tile has no slot number.
func (b *Bag) Draw() (Tile, error) {
	if b.total == 0 {
		return Tile{}, ErrEmpty
	}
	for len(b.stack) > 0 {
		letter := b.stack[0]
		b.stack = b.stack[1:]
		if i := b.index(letter); i >= 0 && b.counts[i] > 0 {
			return b.take(i), nil
		}
	}
	k := b.rng.IntN(b.total)
	for i, c := range b.counts {
		if k < c {
			return b.take(i), nil
		}
		k -= c
	}
	return Tile{}, ErrEmpty
}

// Return puts a tile back into the bag.
func (b *Bag) Return(t Tile) {
	if i := b.index(t.Letter); i >= 0 {
		b.counts[i]++
		b.total++
	}
}

// Fill draws tiles into the empty slots of r, lowest slot first, until the
// rack is full or the bag runs out. It returns the refilled rack and the
// number of tiles drawn.
func (b *Bag) Fill(r Rack) (Rack, int) {
	out := r.Clone()
	used := make(map[int]bool, len(out.Tiles))
	for _, t := range out.Tiles {
		used[t.Number] = true
	}
	drawn := 0
	for n := 1; n <= RackSize && b.total > 0; n++ {
		if used[n] {
			continue
		}
		t, err := b.Draw()
		if err != nil {
			break
		}
		t.Number = n
		out.Tiles = append(out.Tiles, t)
		drawn++
	}
	sort.Slice(out.Tiles, func(i, j int) bool { return out.Tiles[i].Number < out.Tiles[j].Number })
	return out, drawn
}

func (b *Bag) index(letter string) int {
	for i, l := range b.dist.Letters {
		if l.Letter == letter {
			return i
		}
	}
	return -1
}

func (b *Bag) take(i int) Tile {
	b.counts[i]--
	b.total--
	l := b.dist.Letters[i]
	return Tile{Letter: l.Letter, Value: l.Value, Vowel: l.Vowel}
}
