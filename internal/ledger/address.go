package ledger

import (
	"strings"

	"github.com/google/uuid"
)

// AccountAddress identifies an account: its number (or custom-name key),
// display name and owner. Immutable.
type AccountAddress struct {
	Number string
	Name   string
	Owner  uuid.UUID
}

// String renders the "number;name" form used inside player records.
func (a AccountAddress) String() string { return a.Number + ";" + a.Name }

func parseAddress(s string, owner uuid.UUID) (AccountAddress, bool) {
	number, name, ok := strings.Cut(s, ";")
	if !ok || number == "" {
		return AccountAddress{}, false
	}
	return AccountAddress{Number: number, Name: name, Owner: owner}, true
}

// PlayerData is the snapshot of a player record: the primary account link
// and any alternative (custom) account links, with stale links already
// scrubbed out.
type PlayerData struct {
	Version      int
	ID           uuid.UUID
	Primary      *AccountAddress
	Alternatives []AccountAddress
}
