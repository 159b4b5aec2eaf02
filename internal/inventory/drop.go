package inventory

import (
	"math/rand"

	"universalcoins.gm/internal/coin"
	"universalcoins.gm/internal/item"
)

// Drop is one pickup to spawn: a sub-stack with a positional offset inside
// the source block and an initial motion vector.
type Drop struct {
	Stack  item.Stack
	Offset [3]float64
	Motion [3]float64
}

// DropSink spawns pickups in the world. Implementations live outside the
// core; position resolution and entity physics are theirs.
type DropSink interface {
	Spawn(drops []Drop)
}

// ScatterDrops splits stacks into pickup-sized drops. Each source stack gets
// one per-axis offset with every component in [0.1, 0.9); it is then split
// into sub-drops of uniform 10..30 units (capped to what is left), each with
// a small gaussian motion and an upward bias.
func ScatterDrops(rng *rand.Rand, stacks []item.Stack) []Drop {
	var drops []Drop
	for _, s := range stacks {
		if s.Empty() {
			continue
		}
		offset := [3]float64{
			rng.Float64()*0.8 + 0.1,
			rng.Float64()*0.8 + 0.1,
			rng.Float64()*0.8 + 0.1,
		}
		for s.Count > 0 {
			n := rng.Intn(21) + 10
			if n > s.Count {
				n = s.Count
			}
			s.Count -= n
			drops = append(drops, Drop{
				Stack:  item.Stack{Item: s.Item, Count: n, Tag: s.Tag},
				Offset: offset,
				Motion: [3]float64{
					rng.NormFloat64() * 0.05,
					rng.NormFloat64()*0.05 + 0.2,
					rng.NormFloat64() * 0.05,
				},
			})
		}
	}
	return drops
}

// DropCoins decomposes an amount into best stacks and scatters them into
// the sink.
func DropCoins(cat *coin.Catalog, sink DropSink, rng *rand.Rand, amount int) {
	if amount <= 0 {
		return
	}
	sink.Spawn(ScatterDrops(rng, cat.BestStacks(amount)))
}
