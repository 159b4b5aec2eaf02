package ledger

import (
	"errors"
	"fmt"
)

// ErrNegativeAmount rejects negative deposit/withdraw amounts before any
// mutation.
var ErrNegativeAmount = errors.New("ledger: negative amount")

// DataStoreError wraps an I/O or parse failure underneath a ledger
// operation. Multi-file sequences (transfer, delivery claim) are not atomic;
// a DataStoreError from them can leave a partially applied, inspectable
// state that is not retried automatically.
type DataStoreError struct {
	Op  string
	Err error
}

func (e *DataStoreError) Error() string { return "ledger: " + e.Op + ": " + e.Err.Error() }
func (e *DataStoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DataStoreError{Op: op, Err: err}
}

func storeErrf(op, format string, args ...any) error {
	return &DataStoreError{Op: op, Err: fmt.Errorf(format, args...)}
}

// AccountNotFoundError reports a missing or tombstoned account.
type AccountNotFoundError struct {
	Number string
}

func (e *AccountNotFoundError) Error() string {
	return "ledger: account not found: " + e.Number
}

// DuplicateKeyError reports a creation that collided with an existing
// record (second primary account, custom name already taken).
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string { return "ledger: duplicate key: " + e.Key }

// OutOfCoinsError reports a withdrawal larger than the balance. The balance
// is left untouched.
type OutOfCoinsError struct {
	Shortfall int
}

func (e *OutOfCoinsError) Error() string {
	return fmt.Sprintf("ledger: out of coins, short %d", e.Shortfall)
}
