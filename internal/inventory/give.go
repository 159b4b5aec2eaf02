package inventory

import (
	"math/rand"

	"universalcoins.gm/internal/coin"
)

// Strategy controls where coins that do not fit the primary container go.
type Strategy int

const (
	// UseOverflow spills leftovers into the recipient's overflow container,
	// rebalancing it once if the first sweep comes up short.
	UseOverflow Strategy = 1 << iota
	// DropRemainder scatters whatever is still left as world drops. It
	// guarantees a zero remainder when the recipient has a drop sink.
	DropRemainder
)

// Recipient is a coin destination: a primary container, an optional
// overflow container and an optional world-drop sink.
type Recipient interface {
	Inventory() Container
	Overflow() Container // nil when the recipient has no overflow storage
	Drops() DropSink     // nil when drops are impossible
}

// Give deposits amount into the recipient's primary container, reusing scan
// when it covers that container, and resolves any shortfall according to
// the strategy flags. The result is the signed remainder; 0 means the exact
// amount was delivered.
func Give(cat *coin.Catalog, scan *ScanResult, r Recipient, amount int, strategy Strategy, rng *rand.Rand) (int, error) {
	var change int
	var err error
	if scan != nil && scan.Of(r.Inventory()) {
		change, err = scan.Deposit(amount)
	} else {
		change, err = depositInto(cat, r.Inventory(), amount)
	}
	if err != nil {
		return change, err
	}
	if change <= 0 {
		return change, nil
	}

	if strategy&UseOverflow != 0 {
		if over := r.Overflow(); over != nil {
			change, err = spill(cat, over, change)
			if err != nil || change <= 0 {
				return change, err
			}
		}
	}

	if strategy&DropRemainder != 0 {
		if sink := r.Drops(); sink != nil {
			DropCoins(cat, sink, rng, change)
			return 0, nil
		}
	}

	return change, nil
}

// TakeWithChange withdraws amount from the scanned container and pays any
// over-withdrawal back into it, rebalancing once when the change does not
// fit. The result is the net unresolved delta: 0 when the exact amount was
// taken, positive when the container was short, negative when change could
// not be returned.
func TakeWithChange(scan *ScanResult, amount int) (int, error) {
	change, err := scan.Take(amount)
	if err != nil || change >= 0 {
		return change, err
	}

	change, err = scan.Deposit(-change)
	if err != nil {
		return change, err
	}
	if change <= 0 {
		return -change, nil
	}

	rb, err := Rebalance(scan.cat, scan.c, 0, scan.from, scan.to)
	if err != nil {
		return change, err
	}
	change += rb
	left, err := depositAnywhere(scan.cat, scan.c, change, scan.from, scan.to, false)
	return -left, err
}

// TakeWithChangeTo is TakeWithChange with the recipient's overflow container
// and drop sink as further destinations for unreturnable change, using the
// same strategy flags as Give.
func TakeWithChangeTo(scan *ScanResult, amount int, r Recipient, strategy Strategy, rng *rand.Rand) (int, error) {
	change, err := TakeWithChange(scan, amount)
	if err != nil || change >= 0 {
		return change, err
	}

	if strategy&UseOverflow != 0 {
		if over := r.Overflow(); over != nil {
			left, err := spill(scan.cat, over, -change)
			if err != nil {
				return change, err
			}
			if left <= 0 {
				return -left, nil
			}
			change = -left
		}
	}

	if strategy&DropRemainder != 0 {
		if sink := r.Drops(); sink != nil {
			DropCoins(scan.cat, sink, rng, -change)
			return 0, nil
		}
	}

	return change, nil
}

// depositInto is a fresh full-range scan followed by a deposit.
func depositInto(cat *coin.Catalog, c Container, amount int) (int, error) {
	scan, err := ScanAll(cat, c)
	if err != nil {
		return amount, err
	}
	return scan.Deposit(amount)
}

// spill pushes coins into an overflow container: a plain sweep first, then
// one rebalance followed by a retry.
func spill(cat *coin.Catalog, over Container, amount int) (int, error) {
	change, err := DepositAnywhere(cat, over, amount, 0, over.Size())
	if err != nil || change <= 0 {
		return change, err
	}
	rb, err := RebalanceAll(cat, over)
	if err != nil {
		return change, err
	}
	change += rb
	return DepositAnywhere(cat, over, change, 0, over.Size())
}
