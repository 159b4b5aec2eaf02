package ledger

import (
	"github.com/google/uuid"

	"universalcoins.gm/internal/item"
)

// Account cards are items whose tags point at a ledger account. A plain
// card only withdraws; an ender card can also receive deposits.
const (
	ItemCard      = "uc:card"
	ItemEnderCard = "uc:ender_card"
)

// CreateCard mints a card stack bound to the account. An open card can be
// used by anyone, not just the account owner.
func CreateCard(account AccountAddress, open bool) item.Stack {
	return newCard(ItemCard, account, open)
}

// CreateEnderCard mints a deposit-capable card bound to the account.
func CreateEnderCard(account AccountAddress, open bool) item.Stack {
	return newCard(ItemEnderCard, account, open)
}

func newCard(kind string, account AccountAddress, open bool) item.Stack {
	card := item.Stack{Item: kind, Count: 1}
	card = card.WithTag("account", account.Number)
	card = card.WithTag("name", account.Name)
	card = card.WithTag("owner", account.Owner.String())
	if open {
		card = card.WithTag("open", "true")
	}
	return card
}

func isCard(s item.Stack) bool {
	return !s.Empty() && (s.Item == ItemCard || s.Item == ItemEnderCard)
}

// CardAddress reads the account binding off a card stack, or nil when the
// stack is not a well-formed card.
func CardAddress(s item.Stack) *AccountAddress {
	if !isCard(s) {
		return nil
	}
	owner, err := uuid.Parse(s.TagValue("owner"))
	if err != nil {
		return nil
	}
	number := s.TagValue("account")
	if number == "" {
		return nil
	}
	return &AccountAddress{Number: number, Name: s.TagValue("name"), Owner: owner}
}

// CanUseCard reports whether the user may operate the card: the bound
// owner always can, anyone can when the card is open.
func CanUseCard(s item.Stack, user uuid.UUID) bool {
	addr := CardAddress(s)
	if addr == nil {
		return false
	}
	return addr.Owner == user || s.TagValue("open") == "true"
}

// CardBalance is the bound account's balance, or 0 for anything that is
// not a card.
func (st *Store) CardBalance(s item.Stack) (int, error) {
	addr := CardAddress(s)
	if addr == nil {
		return 0, nil
	}
	balance, err := st.AccountBalance(addr.Number)
	if err != nil {
		return 0, err
	}
	if balance < 0 {
		return 0, nil
	}
	return balance, nil
}

// CardValidForTransaction checks a card against a pending balance movement
// and returns the bound account when it can cover it. Positive value is a
// charge and needs sufficient balance; negative value is a deposit, which
// only ender cards accept and only with headroom left over. A zero value
// never validates.
func (st *Store) CardValidForTransaction(s item.Stack, user uuid.UUID, value int) (*AccountAddress, error) {
	if value == 0 || !CanUseCard(s, user) {
		return nil, nil
	}
	if value < 0 && s.Item != ItemEnderCard {
		return nil, nil
	}
	addr := CardAddress(s)

	if value > 0 {
		balance, err := st.CardBalance(s)
		if err != nil {
			return nil, err
		}
		if balance >= value {
			return addr, nil
		}
		return nil, nil
	}

	room, err := st.CanDeposit(addr.Number, -value)
	if err != nil {
		return nil, err
	}
	if room > 0 {
		return addr, nil
	}
	return nil, nil
}
