package inventory

import (
	"errors"
	"testing"

	"universalcoins.gm/internal/coin"
)

func TestTake_ExactWhenStackDrains(t *testing.T) {
	cat := coin.DefaultCatalog()
	c := coinContainer(stack("uc:coin", 5))
	scan, _ := ScanAll(cat, c)

	left, err := scan.Take(5)
	if err != nil || left != 0 {
		t.Fatalf("take = (%d, %v)", left, err)
	}
	if !c.Slot(0).Empty() {
		t.Fatalf("slot 0 = %#v", c.Slot(0))
	}
}

func TestTake_OvershootsByOneCoin(t *testing.T) {
	cat := coin.DefaultCatalog()
	c := coinContainer(stack("uc:coin", 10))
	scan, _ := ScanAll(cat, c)

	// The per-slot rule removes amount/value+1 units, so even an evenly
	// divisible amount takes one coin extra from a big enough stack.
	left, err := scan.Take(7)
	if err != nil || left != -1 {
		t.Fatalf("take = (%d, %v)", left, err)
	}
	if got := c.Slot(0); got.Count != 2 {
		t.Fatalf("slot 0 = %#v", got)
	}
}

func TestTake_OverdrawsForUnrepresentableRemainder(t *testing.T) {
	cat := coin.DefaultCatalog()
	c := coinContainer(
		stack("uc:coin", 5),
		stack("uc:coin_stack", 3),
		stack("uc:large_coin_stack", 1),
	)
	scan, _ := ScanAll(cat, c)

	// Drains the 5 unit coins, then 3 nine-stacks cover the remaining 25
	// with 2 over.
	left, err := scan.Take(30)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if left != -2 {
		t.Fatalf("remainder = %d, want -2", left)
	}
	if !c.Slot(0).Empty() || !c.Slot(1).Empty() {
		t.Fatalf("low slots not drained: %#v %#v", c.Slot(0), c.Slot(1))
	}
	if got := cat.StackValue(c.Slot(2)); got != 81 {
		t.Fatalf("high stack touched: %#v", c.Slot(2))
	}
}

func TestTake_ShortContainer(t *testing.T) {
	cat := coin.DefaultCatalog()
	c := coinContainer(stack("uc:coin", 5))
	scan, _ := ScanAll(cat, c)

	left, err := scan.Take(10)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if left != 5 {
		t.Fatalf("remainder = %d, want 5", left)
	}
	if !c.Slot(0).Empty() {
		t.Fatalf("slot 0 = %#v", c.Slot(0))
	}
}

func TestTake_StaleScan(t *testing.T) {
	cat := coin.DefaultCatalog()
	c := coinContainer(stack("uc:coin", 5), stack("uc:coin_stack", 3))
	scan, _ := ScanAll(cat, c)

	c.SetSlot(0, stack("uc:coin", 4))

	left, err := scan.Take(30)
	if !errors.Is(err, ErrStaleScan) {
		t.Fatalf("err = %v", err)
	}
	if left != 30 {
		t.Fatalf("remainder = %d, want untouched 30", left)
	}
}

func TestTake_StaleMidway_KeepsPartialEffects(t *testing.T) {
	cat := coin.DefaultCatalog()
	c := coinContainer(stack("uc:coin", 5), stack("uc:coin_stack", 3))
	scan, _ := ScanAll(cat, c)

	// Invalidate the second scanned slot only; the first is drained before
	// the mismatch is noticed.
	c.SetSlot(1, stack("uc:coin_stack", 2))

	left, err := scan.Take(30)
	if !errors.Is(err, ErrStaleScan) {
		t.Fatalf("err = %v", err)
	}
	if left != 25 {
		t.Fatalf("remainder = %d, want 25", left)
	}
	if !c.Slot(0).Empty() {
		t.Fatalf("first slot should stay drained: %#v", c.Slot(0))
	}
}

func TestTake_NegativeAmount(t *testing.T) {
	cat := coin.DefaultCatalog()
	c := coinContainer(stack("uc:coin", 5))
	scan, _ := ScanAll(cat, c)
	if _, err := scan.Take(-1); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("err = %v", err)
	}
	if c.Slot(0).Count != 5 {
		t.Fatalf("container mutated: %#v", c.Slot(0))
	}
}

func TestTake_Zero(t *testing.T) {
	cat := coin.DefaultCatalog()
	c := coinContainer(stack("uc:coin", 5))
	scan, _ := ScanAll(cat, c)
	if left, err := scan.Take(0); err != nil || left != 0 {
		t.Fatalf("take = (%d, %v)", left, err)
	}
	if got := c.Slot(0); got.Count != 5 {
		t.Fatalf("slot 0 = %#v", got)
	}
}
