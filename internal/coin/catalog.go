package coin

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"universalcoins.gm/internal/item"
)

// MaxAmount is the largest representable coin amount. Balances and
// transfers are clamped against it; the on-disk records inherit the same
// domain.
const MaxAmount = math.MaxInt32

// Denomination is one coin type: an item id, its unit value and how many
// units fit in one stack.
type Denomination struct {
	Item       string `yaml:"item"`
	Value      int    `yaml:"value"`
	StackLimit int    `yaml:"stack_limit"`
}

// Catalog is the ordered set of denominations, ascending by value.
type Catalog struct {
	denoms []Denomination
	byItem map[string]Denomination
}

// NewCatalog validates and orders the given denominations. Values must be
// positive and strictly increasing after sorting; stack limits must be
// positive; item ids must be unique and non-empty.
func NewCatalog(denoms []Denomination) (*Catalog, error) {
	if len(denoms) == 0 {
		return nil, fmt.Errorf("coin: empty catalog")
	}
	sorted := make([]Denomination, len(denoms))
	copy(sorted, denoms)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })

	byItem := make(map[string]Denomination, len(sorted))
	for i, d := range sorted {
		if d.Item == "" {
			return nil, fmt.Errorf("coin: denomination %d has no item id", i)
		}
		if d.Value <= 0 {
			return nil, fmt.Errorf("coin: denomination %q has value %d", d.Item, d.Value)
		}
		if d.StackLimit <= 0 {
			return nil, fmt.Errorf("coin: denomination %q has stack limit %d", d.Item, d.StackLimit)
		}
		if i > 0 && sorted[i-1].Value == d.Value {
			return nil, fmt.Errorf("coin: duplicate value %d", d.Value)
		}
		if _, dup := byItem[d.Item]; dup {
			return nil, fmt.Errorf("coin: duplicate item %q", d.Item)
		}
		byItem[d.Item] = d
	}
	return &Catalog{denoms: sorted, byItem: byItem}, nil
}

// DefaultCatalog returns the stock nine-powers catalog: coin, stack of
// nines, and so on up to 6561, all limited to 64 per slot.
func DefaultCatalog() *Catalog {
	cat, err := NewCatalog([]Denomination{
		{Item: "uc:coin", Value: 1, StackLimit: 64},
		{Item: "uc:coin_stack", Value: 9, StackLimit: 64},
		{Item: "uc:large_coin_stack", Value: 81, StackLimit: 64},
		{Item: "uc:coin_bag", Value: 729, StackLimit: 64},
		{Item: "uc:large_coin_bag", Value: 6561, StackLimit: 64},
	})
	if err != nil {
		panic(err)
	}
	return cat
}

type catalogFile struct {
	Denominations []Denomination `yaml:"denominations"`
}

// LoadCatalog reads a denomination catalog from a yaml file.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return NewCatalog(f.Denominations)
}

// Denominations returns the catalog ascending by value. The slice is shared;
// callers must not mutate it.
func (c *Catalog) Denominations() []Denomination { return c.denoms }

// Smallest returns the lowest-value denomination.
func (c *Catalog) Smallest() Denomination { return c.denoms[0] }

// Recognize reports the denomination of a stack, or false when the stack is
// not a coin.
func (c *Catalog) Recognize(s item.Stack) (Denomination, bool) {
	if s.Empty() {
		return Denomination{}, false
	}
	d, ok := c.byItem[s.Item]
	return d, ok
}

// StackValue is the total value of a stack, or 0 when it is not a coin.
func (c *Catalog) StackValue(s item.Stack) int {
	d, ok := c.Recognize(s)
	if !ok {
		return 0
	}
	return d.Value * s.Count
}

// StacksValue sums StackValue over the given stacks.
func (c *Catalog) StacksValue(stacks []item.Stack) int {
	total := 0
	for _, s := range stacks {
		total += c.StackValue(s)
	}
	return total
}
