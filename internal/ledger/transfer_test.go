package ledger

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"universalcoins.gm/internal/props"
)

func TestTransferPrimaryAccount(t *testing.T) {
	s := openTestStore(t)
	owner := uuid.New()
	origin, _ := s.CreatePrimaryAccount(owner, "Steve")
	if _, err := s.Deposit(origin.Number, 250, nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	dest, err := s.TransferPrimaryAccount(origin, "Steve2", nil, nil)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if dest.Number == origin.Number {
		t.Fatal("destination reuses origin number")
	}
	if dest.Name != "Steve2" || dest.Owner != owner {
		t.Fatalf("dest = %#v", dest)
	}

	if balance, _ := s.AccountBalance(dest.Number); balance != 250 {
		t.Fatalf("dest balance = %d", balance)
	}
	if balance, _ := s.AccountBalance(origin.Number); balance != 0 {
		t.Fatalf("origin balance = %d", balance)
	}

	// Origin tombstone keeps a forwarding pointer.
	rec, err := props.Load(s.accountFile(origin.Number))
	if err != nil || rec == nil {
		t.Fatalf("load origin: %v", err)
	}
	if !rec.GetBool("removed") {
		t.Fatal("origin not tombstoned")
	}
	if rec.Get("transferred.number", "") != dest.Number || rec.Get("transferred.name", "") != "Steve2" {
		t.Fatalf("forwarding = %q/%q", rec.Get("transferred.number", ""), rec.Get("transferred.name", ""))
	}

	data, err := s.PlayerData(owner)
	if err != nil {
		t.Fatalf("player data: %v", err)
	}
	if data.Primary == nil || data.Primary.Number != dest.Number {
		t.Fatalf("primary link = %#v", data.Primary)
	}
}

func TestTransferPrimaryAccount_TombstonedOrigin(t *testing.T) {
	s := openTestStore(t)
	origin, _ := s.CreatePrimaryAccount(uuid.New(), "Steve")
	if _, err := s.TransferPrimaryAccount(origin, "Steve2", nil, nil); err != nil {
		t.Fatalf("first transfer: %v", err)
	}

	var missing *AccountNotFoundError
	if _, err := s.TransferPrimaryAccount(origin, "Steve3", nil, nil); !errors.As(err, &missing) {
		t.Fatalf("err = %v", err)
	}
}

func TestTransferAccount_Custom(t *testing.T) {
	s := openTestStore(t)
	owner := uuid.New()
	origin, _ := s.CreateCustomAccount(owner, "TownBank")
	if _, err := s.Deposit(origin.Number, 99, nil); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	dest, err := s.TransferAccount(origin, "CityBank", nil, nil)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if balance, _ := s.AccountBalance(dest.Number); balance != 99 {
		t.Fatalf("dest balance = %d", balance)
	}

	// The old name no longer resolves, the new one does.
	if got, err := s.CustomAccountByName("TownBank"); err != nil || got != nil {
		t.Fatalf("old name = (%#v, %v)", got, err)
	}
	got, err := s.CustomAccountByName("CityBank")
	if err != nil || got == nil || got.Number != dest.Number {
		t.Fatalf("new name = (%#v, %v)", got, err)
	}

	data, err := s.PlayerData(owner)
	if err != nil {
		t.Fatalf("player data: %v", err)
	}
	if len(data.Alternatives) != 1 || data.Alternatives[0].Number != dest.Number {
		t.Fatalf("alternatives = %#v", data.Alternatives)
	}
}

func TestAccountOwner(t *testing.T) {
	s := openTestStore(t)
	owner := uuid.New()
	origin, _ := s.CreatePrimaryAccount(owner, "Steve")

	got, err := s.AccountOwner(origin.Number)
	if err != nil || got == nil || *got != owner {
		t.Fatalf("owner = (%v, %v)", got, err)
	}

	if _, err := s.TransferPrimaryAccount(origin, "Steve2", nil, nil); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got, err := s.AccountOwner(origin.Number); err != nil || got != nil {
		t.Fatalf("tombstoned owner = (%v, %v)", got, err)
	}
}
