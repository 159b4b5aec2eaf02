// Package ledger is the persistent account store: versioned player and
// account records, the per-machine transaction log, deliveries, and the
// account card helpers. Records are flat key/value text files; see the
// props package for the codec.
//
// The store does no internal locking. Callers must serialize mutating
// operations, and concurrent access to the same ledger directory from
// multiple processes is not supported.
package ledger

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"universalcoins.gm/internal/props"
)

// VersionNever marks a record that has not been written yet; the first
// write bumps it like any other version change.
const VersionNever = math.MinInt32

// Store is a file-backed ledger rooted at one directory.
type Store struct {
	baseDir  string
	accounts string
	players  string
	machines string
	logs     string

	rng   *rand.Rand
	now   func() time.Time
	log   *zap.Logger
	audit *AuditWriter
}

// Options tune a Store. The zero value is usable: nop logger, time-seeded
// random source, wall clock, no audit stream.
type Options struct {
	Logger *zap.Logger
	// Rand drives account-number generation. The store does not synchronize
	// it; callers sharing one generator must serialize store calls.
	Rand *rand.Rand
	Now  func() time.Time
	// Audit enables the supplementary zstd-compressed JSONL mutation
	// stream under logs/audit.
	Audit bool
}

// Open creates the directory layout and returns a ready store.
func Open(baseDir string, opts Options) (*Store, error) {
	s := &Store{
		baseDir:  baseDir,
		accounts: filepath.Join(baseDir, "accounts"),
		players:  filepath.Join(baseDir, "players"),
		machines: filepath.Join(baseDir, "machines"),
		logs:     filepath.Join(baseDir, "logs"),
		rng:      opts.Rand,
		now:      opts.Now,
		log:      opts.Logger,
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	for _, dir := range []string{s.accounts, s.players, s.machines, s.logs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storeErr("open", err)
		}
	}
	if opts.Audit {
		s.audit = NewAuditWriter(filepath.Join(s.logs, "audit"))
	}
	return s, nil
}

// Close flushes the audit stream, if any.
func (s *Store) Close() error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Close()
}

// Dir returns the ledger root directory.
func (s *Store) Dir() string { return s.baseDir }

func (s *Store) playerFile(id uuid.UUID) string {
	return filepath.Join(s.players, id.String()+".properties")
}

// loadPlayer reads a player record, synthesizing an unwritten one when the
// file does not exist.
func (s *Store) loadPlayer(id uuid.UUID) (props.Record, error) {
	rec, err := props.Load(s.playerFile(id))
	if err != nil {
		return nil, storeErr("load player", err)
	}
	if rec == nil {
		rec = props.Record{}
	}
	if !rec.Has("version") {
		rec.SetInt("version", VersionNever)
	}
	if !rec.Has("id") {
		rec.Set("id", id.String())
	}
	return rec, nil
}

// PlayerData loads a player record and resolves its account links. Links to
// missing or tombstoned accounts are scrubbed into removed.* fields and the
// healed record is written back; a failure writing the healed record is
// logged and the in-memory result returned anyway.
func (s *Store) PlayerData(id uuid.UUID) (PlayerData, error) {
	rec, err := s.loadPlayer(id)
	if err != nil {
		return PlayerData{}, err
	}
	version, err := rec.GetInt("version", VersionNever)
	if err != nil {
		return PlayerData{}, storeErr("player data", err)
	}

	data := PlayerData{Version: version, ID: id}
	var removedPrimary *AccountAddress
	var removedAlternatives []AccountAddress

	if link := rec.Get("account", ""); link != "" {
		addr, ok := parseAddress(link, id)
		if !ok {
			return PlayerData{}, storeErrf("player data", "malformed account link %q", link)
		}
		gone, err := s.accountGone(addr.Number)
		if err != nil {
			return PlayerData{}, err
		}
		if gone {
			removedPrimary = &addr
		} else {
			data.Primary = &addr
		}
	}

	for _, link := range rec.List("alternative.accounts") {
		addr, ok := parseAddress(link, id)
		if !ok {
			return PlayerData{}, storeErrf("player data", "malformed account link %q", link)
		}
		gone, err := s.accountGone(addr.Number)
		if err != nil {
			return PlayerData{}, err
		}
		if gone {
			removedAlternatives = append(removedAlternatives, addr)
			continue
		}
		data.Alternatives = append(data.Alternatives, addr)
	}

	if removedPrimary != nil || removedAlternatives != nil {
		if removedPrimary != nil {
			rec.Add("removed.primary", removedPrimary.String())
			rec.Set("account", "")
		}
		if removedAlternatives != nil {
			for _, addr := range removedAlternatives {
				rec.Add("removed.alternative", addr.String())
			}
			rec.Set("alternative.accounts", "")
			for _, addr := range data.Alternatives {
				rec.Add("alternative.accounts", addr.String())
			}
		}
		bumpVersion(rec)
		if err := props.Store(s.playerFile(id), rec, "Removed some accounts"); err != nil {
			s.warn("scrub player record", err, zap.String("player", id.String()))
		}
	}

	return data, nil
}

// accountGone reports whether an account record is missing or tombstoned.
func (s *Store) accountGone(number string) (bool, error) {
	rec, err := s.loadAccount(number)
	if err != nil {
		return false, err
	}
	return rec == nil || rec.GetBool("removed"), nil
}

func bumpVersion(rec props.Record) {
	v, err := rec.GetInt("version", VersionNever)
	if err != nil {
		v = VersionNever
	}
	rec.SetInt("version", v+1)
}
