package ledger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"universalcoins.gm/internal/props"
)

// Machine is a transaction machine's ledger identity: a lazily assigned id
// plus position context used in log lines. The id is generated and
// persisted on the first EnsureID call; there is no hidden-I/O getter.
type Machine struct {
	id uuid.UUID

	Kind  string
	Owner uuid.UUID // zero when the machine has no owner
	World string
	X     int
	Y     int
	Z     int
}

// RestoreMachine rebuilds a machine identity from a persisted id.
func RestoreMachine(id uuid.UUID, kind string) *Machine {
	return &Machine{id: id, Kind: kind}
}

// ID returns the machine id, zero until EnsureID has run.
func (m *Machine) ID() uuid.UUID { return m.id }

// EnsureID assigns and persists the machine id on first use. Subsequent
// calls return the existing id without touching the store.
func (m *Machine) EnsureID(s *Store) (uuid.UUID, error) {
	if m.id != uuid.Nil {
		return m.id, nil
	}
	m.id = uuid.New()
	if err := s.SaveNewMachine(m); err != nil {
		return m.id, err
	}
	return m.id, nil
}

func (m *Machine) encode(rec props.Record, key string) {
	rec.Set(key+".id", m.id.String())
	if m.Kind != "" {
		rec.Set(key+".kind", m.Kind)
	}
	if m.Owner != uuid.Nil {
		rec.Set(key+".owner", m.Owner.String())
	}
	if m.World != "" {
		rec.Set(key+".world", m.World)
		rec.SetInt(key+".x", m.X)
		rec.SetInt(key+".y", m.Y)
		rec.SetInt(key+".z", m.Z)
	}
}

// context renders the log-line suffix describing the machine.
func (m *Machine) context() string {
	out := ""
	if m.Owner != uuid.Nil {
		out += " | Owner:" + m.Owner.String()
	}
	if m.World != "" {
		out += fmt.Sprintf(" | World:%s | X:%d | Y:%d | Z:%d", m.World, m.X, m.Y, m.Z)
	}
	if m.Kind != "" {
		out += " | Kind:" + m.Kind
	}
	return out
}

func (s *Store) machineFile(id uuid.UUID) string {
	return filepath.Join(s.machines, id.String()+".properties")
}

func (s *Store) machineLogFile(id uuid.UUID) string {
	return filepath.Join(s.logs, "machine", id.String()+".log")
}

// SaveMachine writes (or refreshes) the machine's snapshot record.
func (s *Store) SaveMachine(m *Machine) error {
	rec, err := props.Load(s.machineFile(m.id))
	if err != nil {
		return storeErr("save machine", err)
	}
	if rec == nil {
		rec = props.Record{}
		rec.Set("creation", fmt.Sprintf("%d", s.now().UnixMilli()))
		rec.SetInt("transactions", 0)
	}
	m.encode(rec, "machine")
	return storeErr("save machine", props.Store(s.machineFile(m.id), rec, "Machine "+m.id.String()))
}

// SaveNewMachine logs the machine's creation and writes its first snapshot.
func (s *Store) SaveNewMachine(m *Machine) error {
	if err := s.appendMachineLog(m, "Machine created | MachineID:"+m.id.String()+m.context()); err != nil {
		return err
	}
	return s.SaveMachine(m)
}

func (s *Store) appendMachineLog(m *Machine, line string) error {
	path := s.machineLogFile(m.id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return storeErr("machine log", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return storeErr("machine log", err)
	}
	defer f.Close()
	stamp := s.now().Format("2006/01/02 15:04:05 -0700")
	if _, err := fmt.Fprintf(f, "%s: %s\n", stamp, line); err != nil {
		return storeErr("machine log", err)
	}
	return nil
}

// bumpTransactions advances the machine's transaction counter and remembers
// the last transaction id. Failures here are logged and swallowed by
// SaveTransaction; the primary transaction record has already been written.
func (s *Store) bumpTransactions(m *Machine, increment int, last uuid.UUID) error {
	rec, err := props.Load(s.machineFile(m.id))
	if err != nil {
		return storeErr("bump transactions", err)
	}
	if rec == nil {
		if err := s.SaveMachine(m); err != nil {
			return err
		}
		if rec, err = props.Load(s.machineFile(m.id)); err != nil || rec == nil {
			return storeErrf("bump transactions", "machine record missing after save: %s", m.id)
		}
	}
	m.encode(rec, "machine")
	count, err := rec.GetInt("transactions", 0)
	if err != nil {
		return storeErr("bump transactions", err)
	}
	rec.SetInt("transactions", count+increment)
	rec.Set("transaction.last", last.String())
	return storeErr("bump transactions", props.Store(s.machineFile(m.id), rec, "Last transaction: "+last.String()))
}

// MachineTransactions reads a machine's transaction counter. Missing
// machines count as zero.
func (s *Store) MachineTransactions(id uuid.UUID) (int, error) {
	rec, err := props.Load(s.machineFile(id))
	if err != nil {
		return 0, storeErr("machine transactions", err)
	}
	if rec == nil {
		return 0, nil
	}
	n, err := rec.GetInt("transactions", 0)
	if err != nil {
		return 0, storeErr("machine transactions", err)
	}
	return n, nil
}

func (s *Store) warn(msg string, err error, fields ...zap.Field) {
	s.log.Warn(msg, append(fields, zap.Error(err))...)
}
