package inventory

import (
	"universalcoins.gm/internal/coin"
	"universalcoins.gm/internal/item"
)

// Rebalance compacts the coin stacks in [from, to): it liquidates them into
// a running balance, then redistributes that balance as best stacks over the
// same range. A liquidation step that would push the balance past
// coin.MaxAmount is skipped, leaving that stack in place. startingBalance
// seeds the accumulator, which lets a caller return change into a full
// container.
//
// Rebalancing an already compact container is a no-op that returns 0.
func Rebalance(cat *coin.Catalog, c Container, startingBalance, from, to int) (int, error) {
	if err := checkRange(from, to); err != nil {
		return startingBalance, err
	}
	if to > c.Size() {
		to = c.Size()
	}

	balance := int64(startingBalance)
	for slot := from; slot < to; slot++ {
		s := c.Slot(slot)
		d, ok := cat.Recognize(s)
		if !ok || !c.ValidForSlot(slot, s) {
			continue
		}
		if sum := balance + int64(d.Value)*int64(s.Count); sum <= coin.MaxAmount {
			c.SetSlot(slot, item.Stack{})
			balance = sum
		}
	}

	if balance <= 0 {
		return int(balance), nil
	}
	return depositAnywhere(cat, c, int(balance), from, to, false)
}

// RebalanceAll compacts the whole container.
func RebalanceAll(cat *coin.Catalog, c Container) (int, error) {
	return Rebalance(cat, c, 0, 0, c.Size())
}
