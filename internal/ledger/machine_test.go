package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestMachineEnsureID(t *testing.T) {
	s := openTestStore(t)
	m := &Machine{Kind: "vendor", World: "overworld", X: 1, Y: 64, Z: -3}

	id, err := m.EnsureID(s)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if id == uuid.Nil || m.ID() != id {
		t.Fatalf("id = %v", id)
	}

	// A second call keeps the id and does no store work.
	again, err := m.EnsureID(s)
	if err != nil || again != id {
		t.Fatalf("second ensure = (%v, %v)", again, err)
	}

	if _, err := os.Stat(s.machineFile(id)); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	log, err := os.ReadFile(s.machineLogFile(id))
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	line := string(log)
	for _, want := range []string{"Machine created", "MachineID:" + id.String(), "World:overworld", "Kind:vendor"} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %q missing %q", line, want)
		}
	}
}

func TestRestoreMachine(t *testing.T) {
	id := uuid.New()
	m := RestoreMachine(id, "vendor")
	if m.ID() != id || m.Kind != "vendor" {
		t.Fatalf("restored = %#v", m)
	}
}

func TestSaveTransaction(t *testing.T) {
	s := openTestStore(t)
	m := &Machine{Kind: "vendor"}
	if _, err := m.EnsureID(s); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	tx := NewTransaction(OpDepositAccount, &PlayerOperator{Player: uuid.New()}, m)
	tx.TotalPrice = 42
	if err := s.SaveTransaction(tx); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Record lands in the hour bucket of the stamped time.
	bucket := tx.Time.Format(txBucket)
	path := filepath.Join(s.Dir(), "logs", "transactions", bucket, tx.ID.String()+".properties")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("record: %v", err)
	}

	if n, err := s.MachineTransactions(m.ID()); err != nil || n != 1 {
		t.Fatalf("counter = (%d, %v)", n, err)
	}

	log, err := os.ReadFile(s.machineLogFile(m.ID()))
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if !strings.Contains(string(log), "TransactionID:"+tx.ID.String()) {
		t.Fatalf("log missing transaction line: %q", log)
	}
}

func TestSaveTransaction_SkipsWithoutMachine(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveTransaction(nil); err != nil {
		t.Fatalf("nil tx: %v", err)
	}

	tx := NewTransaction(OpTrade, nil, nil)
	if err := s.SaveTransaction(tx); err != nil {
		t.Fatalf("machineless tx: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "logs", "transactions")); !os.IsNotExist(err) {
		t.Fatalf("unexpected transaction dir: %v", err)
	}
}

func TestMachineTransactions_Missing(t *testing.T) {
	s := openTestStore(t)
	if n, err := s.MachineTransactions(uuid.New()); err != nil || n != 0 {
		t.Fatalf("missing machine = (%d, %v)", n, err)
	}
}
