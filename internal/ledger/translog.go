package ledger

import (
	"path/filepath"

	"go.uber.org/zap"

	"universalcoins.gm/internal/props"
)

// txBucket is the hourly directory layout of the transaction log.
const txBucket = "2006.01.02-15"

func (s *Store) transactionFile(tx *Transaction) string {
	bucket := tx.Time.Format(txBucket)
	return filepath.Join(s.logs, "transactions", bucket, tx.ID.String()+".properties")
}

// SaveTransaction appends one transaction to the log. Transactions with no
// machine context are dropped without error. The record write is
// authoritative and its failure propagates; the machine-side bookkeeping
// (log line and counter) is best effort and failures there are logged and
// swallowed.
func (s *Store) SaveTransaction(tx *Transaction) error {
	if tx == nil || tx.Machine == nil {
		return nil
	}
	if tx.Time.IsZero() {
		tx.Time = s.now()
	}
	if err := props.Store(s.transactionFile(tx), tx.Record(), "Transaction "+tx.ID.String()); err != nil {
		return storeErr("save transaction", err)
	}

	line := "Transaction processed | TransactionID:" + tx.ID.String() + " | " + tx.Summary()
	if err := s.appendMachineLog(tx.Machine, line); err != nil {
		s.warn("machine transaction log", err, zap.String("machine", tx.Machine.ID().String()))
	}
	if err := s.bumpTransactions(tx.Machine, 1, tx.ID); err != nil {
		s.warn("machine transaction counter", err, zap.String("machine", tx.Machine.ID().String()))
	}

	s.auditEvent(AuditEntry{
		Event:       "transaction",
		Transaction: tx.ID.String(),
		Operation:   string(tx.Operation),
		Machine:     tx.Machine.ID().String(),
	})
	return nil
}

// txRef names a transaction in audit entries, tolerating an absent one.
func txRef(tx *Transaction) string {
	if tx == nil {
		return ""
	}
	return tx.ID.String()
}
