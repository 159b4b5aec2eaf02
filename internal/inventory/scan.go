package inventory

import (
	"sort"

	"universalcoins.gm/internal/coin"
)

// ScanResult is a point-in-time snapshot of a container's coin contents,
// bucketed by (value, stack count) with slot indices in ascending order.
// It goes stale when the container mutates after the scan; withdrawal
// detects that instead of preventing it.
type ScanResult struct {
	cat      *coin.Catalog
	c        Container
	from, to int
	total    int
	dist     []valueBucket
}

type valueBucket struct {
	denom  coin.Denomination
	counts []countBucket
}

type countBucket struct {
	count int
	slots []int
}

// Scan snapshots the coin distribution of c over the slot range [from, to).
// Ranges past the container's size are clamped to it.
func Scan(cat *coin.Catalog, c Container, from, to int) (*ScanResult, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	if to > c.Size() {
		to = c.Size()
	}

	byValue := map[int]map[int][]int{}
	total := 0
	for slot := from; slot < to; slot++ {
		s := c.Slot(slot)
		d, ok := cat.Recognize(s)
		if !ok {
			continue
		}
		byCount := byValue[d.Value]
		if byCount == nil {
			byCount = map[int][]int{}
			byValue[d.Value] = byCount
		}
		byCount[s.Count] = append(byCount[s.Count], slot)
		total += d.Value * s.Count
	}

	dist := make([]valueBucket, 0, len(byValue))
	for _, d := range cat.Denominations() {
		byCount, ok := byValue[d.Value]
		if !ok {
			continue
		}
		vb := valueBucket{denom: d, counts: make([]countBucket, 0, len(byCount))}
		for count, slots := range byCount {
			sort.Ints(slots)
			vb.counts = append(vb.counts, countBucket{count: count, slots: slots})
		}
		sort.Slice(vb.counts, func(i, j int) bool { return vb.counts[i].count < vb.counts[j].count })
		dist = append(dist, vb)
	}

	return &ScanResult{cat: cat, c: c, from: from, to: to, total: total, dist: dist}, nil
}

// ScanAll scans the whole container.
func ScanAll(cat *coin.Catalog, c Container) (*ScanResult, error) {
	return Scan(cat, c, 0, c.Size())
}

// Total is the summed coin value at scan time.
func (r *ScanResult) Total() int { return r.total }

// Container returns the scanned container.
func (r *ScanResult) Container() Container { return r.c }

// Range returns the scanned slot range [from, to).
func (r *ScanResult) Range() (from, to int) { return r.from, r.to }

// Of reports whether this result was scanned from the given container.
func (r *ScanResult) Of(c Container) bool { return r.c == c }
