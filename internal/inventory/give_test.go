package inventory

import (
	"math/rand"
	"testing"

	"universalcoins.gm/internal/coin"
	"universalcoins.gm/internal/item"
)

type testRecipient struct {
	inv      *Basic
	overflow *Basic
	sink     *recordingSink
}

func (r *testRecipient) Inventory() Container { return r.inv }

func (r *testRecipient) Overflow() Container {
	if r.overflow == nil {
		return nil
	}
	return r.overflow
}

func (r *testRecipient) Drops() DropSink {
	if r.sink == nil {
		return nil
	}
	return r.sink
}

type recordingSink struct {
	drops []Drop
}

func (s *recordingSink) Spawn(drops []Drop) { s.drops = append(s.drops, drops...) }

func (s *recordingSink) value(cat *coin.Catalog) int {
	total := 0
	for _, d := range s.drops {
		total += cat.StackValue(d.Stack)
	}
	return total
}

func TestGive_DepositsIntoInventory(t *testing.T) {
	cat := coin.DefaultCatalog()
	r := &testRecipient{inv: NewBasic(4, 64)}
	rng := rand.New(rand.NewSource(1))

	left, err := Give(cat, nil, r, 100, 0, rng)
	if err != nil || left != 0 {
		t.Fatalf("give = (%d, %v)", left, err)
	}
	scan, _ := ScanAll(cat, r.inv)
	if scan.Total() != 100 {
		t.Fatalf("inventory total = %d", scan.Total())
	}
}

func TestGive_SpillsIntoOverflow(t *testing.T) {
	cat := coin.DefaultCatalog()
	r := &testRecipient{inv: coinContainer(stack("uc:coin", 64)), overflow: NewBasic(2, 64)}
	rng := rand.New(rand.NewSource(1))

	left, err := Give(cat, nil, r, 10, UseOverflow, rng)
	if err != nil || left != 0 {
		t.Fatalf("give = (%d, %v)", left, err)
	}
	invScan, _ := ScanAll(cat, r.inv)
	overScan, _ := ScanAll(cat, r.overflow)
	if invScan.Total()+overScan.Total() != 74 {
		t.Fatalf("totals = %d + %d", invScan.Total(), overScan.Total())
	}
	if overScan.Total() == 0 {
		t.Fatalf("nothing spilled into overflow")
	}
}

func TestGive_DropsRemainder(t *testing.T) {
	cat := coin.DefaultCatalog()
	sink := &recordingSink{}
	r := &testRecipient{inv: coinContainer(stack("uc:coin", 64)), sink: sink}
	rng := rand.New(rand.NewSource(1))

	left, err := Give(cat, nil, r, 10, DropRemainder, rng)
	if err != nil || left != 0 {
		t.Fatalf("give = (%d, %v)", left, err)
	}
	invScan, _ := ScanAll(cat, r.inv)
	if invScan.Total()+sink.value(cat) != 74 {
		t.Fatalf("value not conserved: %d in inventory, %d dropped",
			invScan.Total(), sink.value(cat))
	}
	if sink.value(cat) == 0 {
		t.Fatalf("expected a dropped remainder")
	}
}

func TestGive_NoStrategyReturnsRemainder(t *testing.T) {
	cat := coin.DefaultCatalog()
	r := &testRecipient{inv: coinContainer(stack("uc:coin", 64))}
	rng := rand.New(rand.NewSource(1))

	// The deposit's rebalance compacts 64 loose coins into 8 nine-stacks,
	// absorbing 8 of the 10; the last 2 have nowhere to go.
	left, err := Give(cat, nil, r, 10, 0, rng)
	if err != nil {
		t.Fatalf("give: %v", err)
	}
	if left != 2 {
		t.Fatalf("remainder = %d, want 2", left)
	}
	scan, _ := ScanAll(cat, r.inv)
	if scan.Total() != 72 {
		t.Fatalf("inventory total = %d, want 72", scan.Total())
	}
}

func TestGive_ReusesMatchingScan(t *testing.T) {
	cat := coin.DefaultCatalog()
	r := &testRecipient{inv: coinContainer(stack("uc:coin_stack", 3))}
	scan, _ := ScanAll(cat, r.inv)
	rng := rand.New(rand.NewSource(1))

	left, err := Give(cat, scan, r, 18, 0, rng)
	if err != nil || left != 0 {
		t.Fatalf("give = (%d, %v)", left, err)
	}
	if got := r.inv.Slot(0); got.Count != 5 {
		t.Fatalf("scanned stack not topped off: %#v", got)
	}
}

func TestTakeWithChange_PaysChangeBack(t *testing.T) {
	cat := coin.DefaultCatalog()
	c := coinContainer(
		stack("uc:coin", 5),
		stack("uc:coin_stack", 3),
		stack("uc:large_coin_stack", 1),
	)
	scan, _ := ScanAll(cat, c)

	// Withdrawing 30 overdraws by 2; the change lands back in the
	// container, leaving exactly 83.
	net, err := TakeWithChange(scan, 30)
	if err != nil || net != 0 {
		t.Fatalf("take with change = (%d, %v)", net, err)
	}
	after, _ := ScanAll(cat, c)
	if after.Total() != 83 {
		t.Fatalf("total = %d, want 83", after.Total())
	}
}

func TestTakeWithChange_ShortContainer(t *testing.T) {
	cat := coin.DefaultCatalog()
	c := coinContainer(stack("uc:coin", 5))
	scan, _ := ScanAll(cat, c)

	net, err := TakeWithChange(scan, 10)
	if err != nil {
		t.Fatalf("take with change: %v", err)
	}
	if net != 5 {
		t.Fatalf("net = %d, want 5", net)
	}
}

func TestTakeWithChange_ReturnsChangeIntoFreedSlot(t *testing.T) {
	cat := coin.DefaultCatalog()
	c := NewBasic(1, 64)
	c.SetSlot(0, stack("uc:large_coin_stack", 1))
	scan, _ := ScanAll(cat, c)

	// Taking 80 overdraws by 1; the change goes back into the slot the
	// withdrawal just emptied.
	net, err := TakeWithChange(scan, 80)
	if err != nil || net != 0 {
		t.Fatalf("take with change = (%d, %v)", net, err)
	}
	if got := c.Slot(0); got.Item != "uc:coin" || got.Count != 1 {
		t.Fatalf("slot 0 = %#v", got)
	}
}

func TestTakeWithChangeTo_DropsUnreturnableChange(t *testing.T) {
	cat := coin.DefaultCatalog()
	// The slot only accepts the high denomination, so unit-coin change has
	// nowhere to go but the drop sink.
	c := NewBasic(1, 64)
	c.SetSlot(0, stack("uc:large_coin_stack", 1))
	c.Valid = func(slot int, s item.Stack) bool { return s.Item == "uc:large_coin_stack" }
	scan, _ := ScanAll(cat, c)

	sink := &recordingSink{}
	r := &testRecipient{inv: c, sink: sink}
	rng := rand.New(rand.NewSource(1))

	net, err := TakeWithChangeTo(scan, 80, r, DropRemainder, rng)
	if err != nil || net != 0 {
		t.Fatalf("take with change to = (%d, %v)", net, err)
	}
	if got := sink.value(cat); got != 1 {
		t.Fatalf("dropped value = %d, want 1", got)
	}
	invScan, _ := ScanAll(cat, c)
	if invScan.Total() != 0 {
		t.Fatalf("container total = %d", invScan.Total())
	}
}
