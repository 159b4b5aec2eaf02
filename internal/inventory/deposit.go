package inventory

import "universalcoins.gm/internal/coin"

// Deposit adds up to amount worth of coins into the scanned slots, walking
// the distribution in descending (value, stack count, slot) order so the
// fullest high-value stacks are topped off first. Empty scanned slots get a
// best-stack pick for the remaining amount. Whatever cannot be placed over
// the scanned distribution is delegated to DepositAnywhere over the same
// range, rebalancing the container if that still is not enough.
//
// The result is the signed remainder: positive when the container could not
// absorb everything, zero on success.
func (r *ScanResult) Deposit(amount int) (int, error) {
	if amount == 0 {
		return 0, nil
	}
	if amount < 0 {
		return amount, ErrNegativeAmount
	}

	limit := r.c.StackLimit()
	for i := len(r.dist) - 1; i >= 0; i-- {
		vb := r.dist[i]
		for j := len(vb.counts) - 1; j >= 0; j-- {
			cb := vb.counts[j]
			for k := len(cb.slots) - 1; k >= 0; k-- {
				slot := cb.slots[k]
				s := r.c.Slot(slot)
				if s.Empty() {
					pick := r.cat.MakeBestStack(amount)
					if pick.Count > 0 && r.c.ValidForSlot(slot, pick) {
						r.c.SetSlot(slot, pick)
						amount -= r.cat.StackValue(pick)
						if amount <= 0 {
							return amount, nil
						}
					}
					continue
				}

				d, ok := r.cat.Recognize(s)
				if !ok || !r.c.ValidForSlot(slot, s) {
					continue
				}
				add := amount / d.Value
				if room := d.StackLimit - s.Count; add > room {
					add = room
				}
				if room := limit - s.Count; add > room {
					add = room
				}
				if add <= 0 {
					continue
				}
				s.Count += add
				r.c.SetSlot(slot, s)
				amount -= add * d.Value
				if amount <= 0 {
					return amount, nil
				}
			}
		}
	}

	if amount > 0 {
		return depositAnywhere(r.cat, r.c, amount, r.from, r.to, true)
	}
	return amount, nil
}

// DepositAnywhere sweeps every slot in [from, to): empty slots get a
// best-stack pick when the slot accepts it, partially filled coin slots are
// topped off. When the range is exhausted with coins left over the container
// is rebalanced once and the sweep retried.
func DepositAnywhere(cat *coin.Catalog, c Container, amount, from, to int) (int, error) {
	return depositAnywhere(cat, c, amount, from, to, true)
}

// DepositToSlot targets a single slot.
func DepositToSlot(cat *coin.Catalog, c Container, amount, slot int) (int, error) {
	return depositAnywhere(cat, c, amount, slot, slot+1, true)
}

func depositAnywhere(cat *coin.Catalog, c Container, amount, from, to int, allowRebalance bool) (int, error) {
	if amount == 0 {
		return 0, nil
	}
	if amount < 0 {
		return amount, ErrNegativeAmount
	}
	if err := checkRange(from, to); err != nil {
		return amount, err
	}
	if to > c.Size() {
		to = c.Size()
	}

	limit := c.StackLimit()
	for slot := from; slot < to; slot++ {
		s := c.Slot(slot)
		if s.Empty() {
			pick := cat.MakeBestStack(amount)
			if pick.Count > 0 && c.ValidForSlot(slot, pick) {
				c.SetSlot(slot, pick)
				amount -= cat.StackValue(pick)
			}
		} else {
			d, ok := cat.Recognize(s)
			if !ok || s.Count >= d.StackLimit || !c.ValidForSlot(slot, s) {
				continue
			}
			add := amount / d.Value
			if room := d.StackLimit - s.Count; add > room {
				add = room
			}
			if room := limit - s.Count; add > room {
				add = room
			}
			if add > 0 {
				s.Count += add
				c.SetSlot(slot, s)
				amount -= add * d.Value
			}
		}

		if amount <= 0 {
			return amount, nil
		}
	}

	if amount <= 0 || !allowRebalance {
		return amount, nil
	}
	return Rebalance(cat, c, amount, from, to)
}
