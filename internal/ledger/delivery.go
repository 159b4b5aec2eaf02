package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"universalcoins.gm/internal/inventory"
	"universalcoins.gm/internal/item"
	"universalcoins.gm/internal/props"
)

func (s *Store) deliveryDir(target uuid.UUID) string {
	return filepath.Join(s.players, "deliveries", target.String())
}

func (s *Store) deliveredDir() string {
	return filepath.Join(s.players, "deliveries", "delivered")
}

// StoreDelivery queues a package for the target player. The sender id is
// optional; command-block senders have a name only.
func (s *Store) StoreDelivery(target uuid.UUID, pkg item.Stack, senderName string, senderID *uuid.UUID) error {
	if pkg.Empty() {
		return storeErrf("store delivery", "empty package for %s", target)
	}
	dir := s.deliveryDir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return storeErr("store delivery", err)
	}
	f, err := os.CreateTemp(dir, "delivery_*.properties")
	if err != nil {
		return storeErr("store delivery", err)
	}
	path := f.Name()
	f.Close()

	rec := props.Record{}
	encodeStack(rec, "item", &pkg)
	rec.Set("sender.name", senderName)
	if senderID != nil {
		rec.Set("sender.id", senderID.String())
	}
	rec.Set("target.id", target.String())
	if err := props.Store(path, rec, ""); err != nil {
		return storeErr("store delivery", err)
	}
	s.auditEvent(AuditEntry{Event: "store_delivery", Account: target.String()})
	return nil
}

// PendingDeliveries counts queued packages for the player.
func (s *Store) PendingDeliveries(target uuid.UUID) (int, error) {
	entries, err := os.ReadDir(s.deliveryDir(target))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, storeErr("pending deliveries", err)
	}
	n := 0
	for _, e := range entries {
		if isDeliveryFile(e.Name()) {
			n++
		}
	}
	return n, nil
}

// ClaimDeliveries moves queued packages into empty slots of the player's
// inventory, tagging each with its sender and timestamps. Claiming stops
// when the inventory has no empty slot left; the rest stays queued. Claimed
// package files move to the delivered archive. Returns the number of
// packages claimed.
func (s *Store) ClaimDeliveries(target uuid.UUID, c inventory.Container) (int, error) {
	dir := s.deliveryDir(target)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, storeErr("claim deliveries", err)
	}

	if err := os.MkdirAll(s.deliveredDir(), 0o755); err != nil {
		return 0, storeErr("claim deliveries", err)
	}

	claimed := 0
	for _, e := range entries {
		if !isDeliveryFile(e.Name()) {
			continue
		}
		slot := firstEmptySlot(c)
		if slot < 0 {
			break
		}

		path := filepath.Join(dir, e.Name())
		rec, err := props.Load(path)
		if err != nil || rec == nil {
			return claimed, storeErrf("claim deliveries", "read %s: %v", e.Name(), err)
		}
		pkg, err := decodeStack(rec, "item")
		if err != nil {
			return claimed, storeErr("claim deliveries", err)
		}

		sent := s.now().UnixMilli()
		if info, err := e.Info(); err == nil {
			sent = info.ModTime().UnixMilli()
		}
		pkg = pkg.WithTag("sender", rec.Get("sender.name", ""))
		pkg = pkg.WithTag("sent", fmt.Sprintf("%d", sent))
		pkg = pkg.WithTag("received", fmt.Sprintf("%d", s.now().UnixMilli()))

		if err := os.Rename(path, filepath.Join(s.deliveredDir(), e.Name())); err != nil {
			return claimed, storeErr("claim deliveries", err)
		}
		c.SetSlot(slot, pkg)
		claimed++
	}

	if claimed > 0 {
		s.auditEvent(AuditEntry{Event: "claim_deliveries", Account: target.String(), Delta: claimed})
	}
	return claimed, nil
}

func isDeliveryFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "delivery_") && strings.HasSuffix(lower, ".properties")
}

func firstEmptySlot(c inventory.Container) int {
	for i := 0; i < c.Size(); i++ {
		if c.Slot(i).Empty() {
			return i
		}
	}
	return -1
}

// decodeStack reads back the flattened form written by encodeStack.
func decodeStack(rec props.Record, key string) (item.Stack, error) {
	kind := rec.Get(key+".type", "")
	if kind == "" {
		return item.Stack{}, fmt.Errorf("missing %s.type", key)
	}
	count, err := rec.GetInt(key+".amount", 1)
	if err != nil {
		return item.Stack{}, err
	}
	stack := item.Stack{Item: kind, Count: count}
	if tags := rec.Get(key+".tags", ""); tags != "" {
		stack.Tag = map[string]string{}
		for _, pair := range strings.Split(tags, "|") {
			k, v, _ := strings.Cut(pair, "=")
			stack.Tag[k] = v
		}
	}
	return stack, nil
}
