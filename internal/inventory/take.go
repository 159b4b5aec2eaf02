package inventory

import "universalcoins.gm/internal/item"

// Take removes up to amount worth of coins from the scanned slots, walking
// the distribution in ascending (value, stack count, slot) order. It prefers
// taking slightly too much over stranding an unrepresentable remainder: a
// slot may be overdrawn by up to value-1. A second pass greedily drains the
// scanned slots coin by coin if the first pass came up short.
//
// The result is the signed remainder: zero for an exact withdrawal, negative
// when more was taken than requested (the caller owes change), positive when
// the container ran out of coins.
//
// If a scanned slot no longer matches its scanned (denomination, count) the
// withdrawal stops with ErrStaleScan; coins already removed in this call
// stay removed.
func (r *ScanResult) Take(amount int) (int, error) {
	if amount == 0 {
		return 0, nil
	}
	if amount < 0 {
		return amount, ErrNegativeAmount
	}

	for _, vb := range r.dist {
		value := vb.denom.Value
		for _, cb := range vb.counts {
			for _, slot := range cb.slots {
				s := r.c.Slot(slot)
				d, ok := r.cat.Recognize(s)
				if !ok || d.Value != value || s.Count != cb.count {
					return amount, ErrStaleScan
				}

				take := amount/value + 1
				if take > cb.count {
					take = cb.count
				}
				if take <= 0 {
					continue
				}
				s.Count -= take
				amount -= take * value
				if s.Count == 0 {
					s = item.Stack{}
				}
				r.c.SetSlot(slot, s)

				if amount <= 0 {
					return amount, nil
				}
			}
		}
	}

	// Short; drain whatever coins remain in the scanned slots, one unit at
	// a time, without bucket revalidation.
	for _, vb := range r.dist {
		for _, cb := range vb.counts {
			for _, slot := range cb.slots {
				s := r.c.Slot(slot)
				d, ok := r.cat.Recognize(s)
				if !ok {
					continue
				}
				for amount > 0 && s.Count > 0 {
					s.Count--
					amount -= d.Value
				}
				if s.Count == 0 {
					s = item.Stack{}
				}
				r.c.SetSlot(slot, s)
				if amount <= 0 {
					return amount, nil
				}
			}
		}
	}

	return amount, nil
}
