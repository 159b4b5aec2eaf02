package coin

import "universalcoins.gm/internal/item"

// BestStack picks the single (denomination, count) that best represents the
// given amount. It walks denominations from highest to lowest and keeps
// descending while a lower denomination would deliver strictly more value in
// one capped stack; on a tie the higher denomination wins. The returned
// count never delivers more value than requested and is zero when the
// amount is below the smallest denomination.
func (c *Catalog) BestStack(amount int) (Denomination, int) {
	denoms := c.denoms
	pick := denoms[0]
	for i := len(denoms) - 1; i >= 0; i-- {
		d := denoms[i]
		if d.Value > amount {
			continue
		}
		pick = d
		if i == 0 {
			break
		}
		next := denoms[i-1]
		if deliverable(d, amount) >= deliverable(next, amount) {
			break
		}
	}

	count := amount / pick.Value
	if count > pick.StackLimit {
		count = pick.StackLimit
	}
	return pick, count
}

func deliverable(d Denomination, amount int) int {
	count := amount / d.Value
	if count > d.StackLimit {
		count = d.StackLimit
	}
	return count * d.Value
}

// MakeBestStack is BestStack materialized as an item stack.
func (c *Catalog) MakeBestStack(amount int) item.Stack {
	d, count := c.BestStack(amount)
	return item.Stack{Item: d.Item, Count: count}
}

// BestStacks greedily decomposes an amount into a stack list. The result is
// minimal per step, not globally optimal.
func (c *Catalog) BestStacks(amount int) []item.Stack {
	var stacks []item.Stack
	for amount > 0 {
		s := c.MakeBestStack(amount)
		if s.Count <= 0 {
			break
		}
		stacks = append(stacks, s)
		amount -= c.StackValue(s)
	}
	return stacks
}
