// Package txindex maintains a derived sqlite index over the flat-file
// transaction log for operator queries. The properties files stay
// authoritative; the index can be rebuilt from them at any time.
package txindex

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"universalcoins.gm/internal/props"
)

type Index struct {
	db *sql.DB
}

// Row is one indexed transaction.
type Row struct {
	ID           string
	TimeMillis   int64
	Bucket       string
	Operation    string
	MachineID    string
	Operator     string
	UserAccount  string
	OwnerAccount string
	Quantity     int
	Price        int
	TotalPrice   int
}

func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func (x *Index) Close() error { return x.db.Close() }

func initPragmas(db *sql.DB) error {
	// WAL suits the append-then-query pattern; this is a secondary index
	// so NORMAL durability is enough.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			time_ms INTEGER NOT NULL,
			bucket TEXT NOT NULL,
			operation TEXT NOT NULL,
			machine_id TEXT,
			operator TEXT,
			user_account TEXT,
			owner_account TEXT,
			quantity INTEGER NOT NULL,
			price INTEGER NOT NULL,
			total_price INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tx_time ON transactions(time_ms);`,
		`CREATE INDEX IF NOT EXISTS idx_tx_machine ON transactions(machine_id, time_ms);`,
		`CREATE INDEX IF NOT EXISTS idx_tx_user_account ON transactions(user_account, time_ms);`,
		`CREATE INDEX IF NOT EXISTS idx_tx_owner_account ON transactions(owner_account, time_ms);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Rebuild drops the indexed rows and re-ingests every record under
// logs/transactions. Returns the number of transactions indexed.
func (x *Index) Rebuild(ledgerDir string) (int, error) {
	if _, err := x.db.Exec(`DELETE FROM transactions;`); err != nil {
		return 0, err
	}

	txDir := filepath.Join(ledgerDir, "logs", "transactions")
	buckets, err := os.ReadDir(txDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	count := 0
	for _, b := range buckets {
		if !b.IsDir() {
			continue
		}
		dir := filepath.Join(txDir, b.Name())
		entries, err := os.ReadDir(dir)
		if err != nil {
			return count, err
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".properties") {
				continue
			}
			rec, err := props.Load(filepath.Join(dir, e.Name()))
			if err != nil || rec == nil {
				return count, fmt.Errorf("read %s/%s: %w", b.Name(), e.Name(), err)
			}
			if err := x.insert(b.Name(), rec); err != nil {
				return count, err
			}
			count++
		}
	}

	if _, err := x.db.Exec(
		`INSERT INTO meta(key, value) VALUES('indexed', ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
		strconv.Itoa(count),
	); err != nil {
		return count, err
	}
	return count, nil
}

func (x *Index) insert(bucket string, rec props.Record) error {
	raw, err := json.Marshal(map[string]string(rec))
	if err != nil {
		return err
	}
	timeMillis, _ := strconv.ParseInt(rec.Get("time", "0"), 10, 64)
	atoi := func(key string) int {
		n, _ := strconv.Atoi(rec.Get(key, "0"))
		return n
	}

	_, err = x.db.Exec(
		`INSERT OR REPLACE INTO transactions
		 (id, time_ms, bucket, operation, machine_id, operator,
		  user_account, owner_account, quantity, price, total_price, raw_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		rec.Get("id", ""),
		timeMillis,
		bucket,
		rec.Get("operation", ""),
		rec.Get("machine.id", ""),
		rec.Get("operator.type", ""),
		rec.Get("coins.user.account.number", ""),
		rec.Get("coins.owner.account.number", ""),
		atoi("quantity"),
		atoi("price"),
		atoi("price.total"),
		string(raw),
	)
	return err
}

const rowColumns = `id, time_ms, bucket, operation,
	COALESCE(machine_id, ''), COALESCE(operator, ''),
	COALESCE(user_account, ''), COALESCE(owner_account, ''),
	quantity, price, total_price`

func (x *Index) scanRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()
	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(
			&r.ID, &r.TimeMillis, &r.Bucket, &r.Operation,
			&r.MachineID, &r.Operator,
			&r.UserAccount, &r.OwnerAccount,
			&r.Quantity, &r.Price, &r.TotalPrice,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ByAccount lists transactions touching an account on either side, newest
// first.
func (x *Index) ByAccount(number string, limit int) ([]Row, error) {
	rows, err := x.db.Query(
		`SELECT `+rowColumns+` FROM transactions
		 WHERE user_account = ? OR owner_account = ?
		 ORDER BY time_ms DESC LIMIT ?;`,
		number, number, limitOrDefault(limit),
	)
	if err != nil {
		return nil, err
	}
	return x.scanRows(rows)
}

// ByMachine lists a machine's transactions, newest first.
func (x *Index) ByMachine(machineID string, limit int) ([]Row, error) {
	rows, err := x.db.Query(
		`SELECT `+rowColumns+` FROM transactions
		 WHERE machine_id = ?
		 ORDER BY time_ms DESC LIMIT ?;`,
		machineID, limitOrDefault(limit),
	)
	if err != nil {
		return nil, err
	}
	return x.scanRows(rows)
}

// Recent lists the newest transactions across the whole log.
func (x *Index) Recent(limit int) ([]Row, error) {
	rows, err := x.db.Query(
		`SELECT `+rowColumns+` FROM transactions
		 ORDER BY time_ms DESC LIMIT ?;`,
		limitOrDefault(limit),
	)
	if err != nil {
		return nil, err
	}
	return x.scanRows(rows)
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}
