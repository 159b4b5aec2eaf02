package inventory

import (
	"errors"
	"fmt"

	"universalcoins.gm/internal/item"
)

// Container is an indexed sequence of optional stacks. Implementations are
// not synchronized; callers must serialize mutating operations against the
// same container.
type Container interface {
	Size() int
	// Slot returns the stack at the given index; the zero Stack means empty.
	Slot(slot int) item.Stack
	// SetSlot replaces the stack at the given index; a zero Stack clears it.
	SetSlot(slot int, s item.Stack)
	// StackLimit is the container-wide per-slot cap, applied on top of each
	// item's own stack limit.
	StackLimit() int
	// ValidForSlot reports whether the candidate stack may be placed at the
	// given index.
	ValidForSlot(slot int, s item.Stack) bool
}

// ErrStaleScan reports that a scanned slot no longer matches the container.
// Partial removals made before the mismatch was noticed are not rolled back.
var ErrStaleScan = errors.New("inventory: container changed since scan")

// ErrNegativeAmount rejects negative coin amounts before any mutation.
var ErrNegativeAmount = errors.New("inventory: negative amount")

// RangeError reports a malformed slot range.
type RangeError struct {
	From, To int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("inventory: bad slot range [%d, %d)", e.From, e.To)
}

func checkRange(from, to int) error {
	if from < 0 || from > to {
		return &RangeError{From: from, To: to}
	}
	return nil
}

// Basic is a plain in-memory container with a uniform per-slot cap and an
// optional slot validity predicate.
type Basic struct {
	slots []item.Stack
	limit int

	// Valid, when set, restricts which stacks each slot accepts.
	Valid func(slot int, s item.Stack) bool
}

func NewBasic(size, stackLimit int) *Basic {
	return &Basic{slots: make([]item.Stack, size), limit: stackLimit}
}

func (b *Basic) Size() int                { return len(b.slots) }
func (b *Basic) Slot(slot int) item.Stack { return b.slots[slot] }

func (b *Basic) SetSlot(slot int, s item.Stack) {
	if s.Empty() {
		s = item.Stack{}
	}
	b.slots[slot] = s
}
func (b *Basic) StackLimit() int { return b.limit }

func (b *Basic) ValidForSlot(slot int, s item.Stack) bool {
	if b.Valid == nil {
		return true
	}
	return b.Valid(slot, s)
}

// FirstEmpty returns the lowest empty slot index, or -1 when full.
func (b *Basic) FirstEmpty() int {
	for i, s := range b.slots {
		if s.Empty() {
			return i
		}
	}
	return -1
}
