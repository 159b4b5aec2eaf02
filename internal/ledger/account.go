package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"universalcoins.gm/internal/coin"
	"universalcoins.gm/internal/props"
)

// numberProbeLimit bounds the random account-number collision probe; a full
// keyspace fails instead of spinning.
const numberProbeLimit = 256

func (s *Store) accountFile(number string) string {
	return filepath.Join(s.accounts, number+".properties")
}

func (s *Store) customAccountFile(name string) (string, error) {
	key := strings.ToLower(name)
	if key == "" || strings.ContainsAny(key, "/\\") || strings.HasPrefix(key, ".") {
		return "", storeErrf("custom account", "bad account name %q", name)
	}
	return filepath.Join(s.accounts, "custom", key+".properties"), nil
}

func (s *Store) loadAccount(number string) (props.Record, error) {
	rec, err := props.Load(s.accountFile(number))
	if err != nil {
		return nil, storeErr("load account", err)
	}
	return rec, nil
}

// generateAccountNumber renders eleven random digits as NNN.NNN.NNN-NN.
func (s *Store) generateAccountNumber() string {
	digits := fmt.Sprintf("%011d", s.rng.Int63n(99999999999-11111111111)+11111111111)
	return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
}

// createAccount allocates a collision-free number and writes a zero-balance
// account record.
func (s *Store) createAccount(owner uuid.UUID, name string) (AccountAddress, error) {
	var number string
	found := false
	for i := 0; i < numberProbeLimit; i++ {
		number = s.generateAccountNumber()
		if _, err := os.Stat(s.accountFile(number)); os.IsNotExist(err) {
			found = true
			break
		}
	}
	if !found {
		return AccountAddress{}, storeErrf("create account", "no free account number after %d probes", numberProbeLimit)
	}

	rec := props.Record{}
	rec.SetInt("version", VersionNever)
	rec.Set("number", number)
	rec.Set("owner.id", owner.String())
	rec.SetInt("balance", 0)
	rec.Set("name", name)
	if err := props.Store(s.accountFile(number), rec, "Recently created"); err != nil {
		return AccountAddress{}, storeErr("create account", err)
	}
	return AccountAddress{Number: number, Name: name, Owner: owner}, nil
}

// CreatePrimaryAccount allocates the player's primary account. A player has
// at most one; a second call fails with DuplicateKeyError even when the
// linked account has since been tombstoned.
func (s *Store) CreatePrimaryAccount(owner uuid.UUID, name string) (AccountAddress, error) {
	rec, err := s.loadPlayer(owner)
	if err != nil {
		return AccountAddress{}, err
	}
	if rec.Has("account") {
		return AccountAddress{}, &DuplicateKeyError{
			Key: fmt.Sprintf("player %s already has an account: %s", owner, rec.Get("account", "")),
		}
	}

	addr, err := s.createAccount(owner, name)
	if err != nil {
		return AccountAddress{}, err
	}
	bumpVersion(rec)
	rec.Set("account", addr.String())
	if err := props.Store(s.playerFile(owner), rec, "Primary account created"); err != nil {
		return AccountAddress{}, storeErr("create primary account", err)
	}
	s.auditEvent(AuditEntry{Event: "create_primary_account", Account: addr.Number})
	return addr, nil
}

// CreateCustomAccount allocates an alternative account keyed by a
// case-folded custom name. The name is taken while a non-removed custom
// record holds it.
func (s *Store) CreateCustomAccount(owner uuid.UUID, name string) (AccountAddress, error) {
	playerRec, err := s.loadPlayer(owner)
	if err != nil {
		return AccountAddress{}, err
	}
	path, err := s.customAccountFile(name)
	if err != nil {
		return AccountAddress{}, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		existing, err := s.CustomAccountByName(name)
		if err != nil {
			return AccountAddress{}, err
		}
		if existing != nil {
			return AccountAddress{}, &DuplicateKeyError{Key: "account " + name + " already exists"}
		}
	}

	addr, err := s.createAccount(owner, name)
	if err != nil {
		return AccountAddress{}, err
	}

	playerRec.Add("alternative.accounts", addr.String())
	bumpVersion(playerRec)

	custom := props.Record{}
	custom.Set("number", addr.Number)
	custom.Set("name", addr.Name)
	custom.Set("owner", addr.Owner.String())
	custom.SetInt("version", VersionNever)
	if err := props.Store(path, custom, "Account created"); err != nil {
		return AccountAddress{}, storeErr("create custom account", err)
	}
	if err := props.Store(s.playerFile(owner), playerRec, "Custom account '"+name+"' created"); err != nil {
		return AccountAddress{}, storeErr("create custom account", err)
	}
	s.auditEvent(AuditEntry{Event: "create_custom_account", Account: addr.Number})
	return addr, nil
}

// CustomAccountByName resolves a custom account key. Missing or tombstoned
// records yield (nil, nil).
func (s *Store) CustomAccountByName(name string) (*AccountAddress, error) {
	path, err := s.customAccountFile(name)
	if err != nil {
		return nil, err
	}
	rec, err := props.Load(path)
	if err != nil {
		return nil, storeErr("custom account", err)
	}
	if rec == nil || rec.GetBool("removed") {
		return nil, nil
	}
	owner, err := uuid.Parse(rec.Get("owner", ""))
	if err != nil {
		return nil, storeErr("custom account", err)
	}
	return &AccountAddress{Number: rec.Get("number", ""), Name: rec.Get("name", ""), Owner: owner}, nil
}

// AccountOwner returns the owning player, or nil when the account is
// missing or tombstoned.
func (s *Store) AccountOwner(number string) (*uuid.UUID, error) {
	rec, err := s.loadAccount(number)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.GetBool("removed") {
		return nil, nil
	}
	owner, err := uuid.Parse(rec.Get("owner.id", ""))
	if err != nil {
		return nil, storeErr("account owner", err)
	}
	return &owner, nil
}

// AccountBalance returns an account's balance, or -1 when the account does
// not exist. Tombstoned accounts report their (zeroed) stored balance.
func (s *Store) AccountBalance(number string) (int, error) {
	rec, err := s.loadAccount(number)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return -1, nil
	}
	balance, err := rec.GetInt("balance", 0)
	if err != nil {
		return 0, storeErr("account balance", err)
	}
	return balance, nil
}

// CanDeposit returns the headroom left after a hypothetical deposit:
// negative means the deposit would overflow the balance domain.
func (s *Store) CanDeposit(number string, amount int) (int, error) {
	balance, err := s.AccountBalance(number)
	if err != nil {
		return 0, err
	}
	if balance < 0 {
		return 0, &AccountNotFoundError{Number: number}
	}
	return headroom(balance, amount), nil
}

func headroom(balance, amount int) int {
	h := int64(coin.MaxAmount) - (int64(balance) + int64(amount))
	if h < -coin.MaxAmount {
		return -coin.MaxAmount
	}
	if h > coin.MaxAmount {
		return coin.MaxAmount
	}
	return int(h)
}

// Deposit adds amount to the account and logs the transaction. When the
// projected balance would leave the representable domain nothing is
// deposited and 0 is returned without an error, in contrast to the
// hard-failing Withdraw. The returned delta is the amount actually
// credited.
func (s *Store) Deposit(number string, amount int, tx *Transaction) (int, error) {
	if amount < 0 {
		return 0, ErrNegativeAmount
	}
	if amount == 0 {
		return 0, nil
	}
	rec, err := s.loadAccount(number)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, &AccountNotFoundError{Number: number}
	}
	balance, err := rec.GetInt("balance", 0)
	if err != nil {
		return 0, storeErr("deposit", err)
	}
	if headroom(balance, amount) < 0 {
		return 0, nil
	}

	rec.SetInt("balance", balance+amount)
	bumpVersion(rec)
	if err := props.Store(s.accountFile(number), rec, fmt.Sprintf("Balance increased by %d", amount)); err != nil {
		return 0, storeErr("deposit", err)
	}
	if err := s.SaveTransaction(tx); err != nil {
		return amount, err
	}
	s.auditEvent(AuditEntry{Event: "deposit", Account: number, Delta: amount, Transaction: txRef(tx)})
	return amount, nil
}

// Withdraw removes amount from the account and logs the transaction. A
// withdrawal past zero fails with OutOfCoinsError and mutates nothing (the
// hard side of the deposit/withdraw asymmetry). Returns the new balance.
func (s *Store) Withdraw(number string, amount int, tx *Transaction) (int, error) {
	if amount < 0 {
		return 0, ErrNegativeAmount
	}
	rec, err := s.loadAccount(number)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, &AccountNotFoundError{Number: number}
	}
	balance, err := rec.GetInt("balance", 0)
	if err != nil {
		return 0, storeErr("withdraw", err)
	}
	if amount == 0 {
		return balance, nil
	}
	newBalance := balance - amount
	if newBalance < 0 {
		return balance, &OutOfCoinsError{Shortfall: -newBalance}
	}

	rec.SetInt("balance", newBalance)
	bumpVersion(rec)
	if err := props.Store(s.accountFile(number), rec, fmt.Sprintf("Took %d from balance", amount)); err != nil {
		return 0, storeErr("withdraw", err)
	}
	if err := s.SaveTransaction(tx); err != nil {
		return newBalance, err
	}
	s.auditEvent(AuditEntry{Event: "withdraw", Account: number, Delta: -amount, Transaction: txRef(tx)})
	return newBalance, nil
}

// RenamePrimaryAccount changes an account's display name in place.
func (s *Store) RenamePrimaryAccount(addr AccountAddress, newName string) (AccountAddress, error) {
	rec, err := s.loadAccount(addr.Number)
	if err != nil {
		return AccountAddress{}, err
	}
	if rec == nil {
		return AccountAddress{}, &AccountNotFoundError{Number: addr.Number}
	}
	bumpVersion(rec)
	rec.Set("name", newName)
	if err := props.Store(s.accountFile(addr.Number), rec, "Renamed to "+newName); err != nil {
		return AccountAddress{}, storeErr("rename account", err)
	}
	return AccountAddress{Number: addr.Number, Name: newName, Owner: addr.Owner}, nil
}

// TransferAccount moves a custom account, located by its current name, to a
// fresh number under a new name.
func (s *Store) TransferAccount(origin AccountAddress, newName string, m *Machine, op Operator) (AccountAddress, error) {
	custom, err := s.CustomAccountByName(origin.Name)
	if err != nil {
		return AccountAddress{}, err
	}
	if custom == nil {
		return AccountAddress{}, &AccountNotFoundError{Number: origin.Number}
	}
	return s.transferAccount(*custom, newName, m, op, false)
}

// TransferPrimaryAccount moves a player's primary account to a fresh number
// under a new name.
func (s *Store) TransferPrimaryAccount(origin AccountAddress, newName string, m *Machine, op Operator) (AccountAddress, error) {
	return s.transferAccount(origin, newName, m, op, true)
}

// transferAccount runs the transfer protocol: create the destination with
// the origin's balance, zero and tombstone the origin, repoint the player
// link, then persist origin, destination and player files in that fixed
// order. The sequence is not atomic; a crash mid-way leaves a partially
// applied state for operator recovery.
func (s *Store) transferAccount(origin AccountAddress, newName string, m *Machine, op Operator, primary bool) (AccountAddress, error) {
	originRec, err := s.loadAccount(origin.Number)
	if err != nil {
		return AccountAddress{}, err
	}
	if originRec == nil || originRec.GetBool("removed") {
		return AccountAddress{}, &AccountNotFoundError{Number: origin.Number}
	}
	playerRec, err := s.loadPlayer(origin.Owner)
	if err != nil {
		return AccountAddress{}, err
	}

	var dest AccountAddress
	if primary {
		dest, err = s.createAccount(origin.Owner, newName)
	} else {
		dest, err = s.CreateCustomAccount(origin.Owner, newName)
		if err == nil {
			// CreateCustomAccount already rewrote the player file; reload so
			// the link edits below start from the current record.
			playerRec, err = s.loadPlayer(origin.Owner)
		}
	}
	if err != nil {
		return AccountAddress{}, err
	}

	destRec, err := s.loadAccount(dest.Number)
	if err != nil {
		return AccountAddress{}, err
	}
	if destRec == nil {
		return AccountAddress{}, storeErrf("transfer account", "destination record missing: %s", dest.Number)
	}

	balance, err := originRec.GetInt("balance", 0)
	if err != nil {
		return AccountAddress{}, storeErr("transfer account", err)
	}
	destRec.SetInt("balance", balance)
	originRec.SetInt("balance", 0)
	originRec.SetBool("removed", true)
	originRec.Set("transferred.number", dest.Number)
	originRec.Set("transferred.name", dest.Name)

	if primary {
		playerRec.Set("account", dest.String())
	} else {
		links := playerRec.List("alternative.accounts")
		playerRec.Set("alternative.accounts", "")
		for _, link := range links {
			if link == origin.String() || link == dest.String() {
				continue
			}
			playerRec.Add("alternative.accounts", link)
		}
		playerRec.Add("alternative.accounts", dest.String())
	}

	bumpVersion(playerRec)
	bumpVersion(playerRec)
	bumpVersion(originRec)
	bumpVersion(destRec)

	tx := NewTransaction(OpTransferAccount, op, m)
	tx.Time = s.now()
	oldCard := CreateCard(origin, !primary)
	newCard := CreateCard(dest, !primary)
	tx.UserCoins = &CardCoinSource{Card: oldCard, Account: origin, Before: balance, After: 0}
	tx.OwnerCoins = &CardCoinSource{Card: newCard, Account: dest, Before: 0, After: balance}
	if err := s.SaveTransaction(tx); err != nil {
		return AccountAddress{}, err
	}

	if err := props.Store(s.accountFile(origin.Number), originRec, "Transferred to "+dest.Number); err != nil {
		return AccountAddress{}, storeErr("transfer account", err)
	}
	if err := props.Store(s.accountFile(dest.Number), destRec, "Transferred from "+origin.Number); err != nil {
		return AccountAddress{}, storeErr("transfer account", err)
	}
	comment := fmt.Sprintf("Transferred %s(%s) to %s(%s)", origin.Number, origin.Name, dest.Number, dest.Name)
	if err := props.Store(s.playerFile(origin.Owner), playerRec, comment); err != nil {
		return AccountAddress{}, storeErr("transfer account", err)
	}

	if !primary {
		if err := s.tombstoneCustom(origin, dest); err != nil {
			s.warn("tombstone custom account", err, zap.String("name", origin.Name))
		}
	}

	s.auditEvent(AuditEntry{Event: "transfer_account", Account: dest.Number, Origin: origin.Number, Delta: balance, Transaction: txRef(tx)})
	return dest, nil
}

func (s *Store) tombstoneCustom(origin, dest AccountAddress) error {
	path, err := s.customAccountFile(origin.Name)
	if err != nil {
		return err
	}
	rec, err := props.Load(path)
	if err != nil || rec == nil {
		return storeErrf("tombstone custom", "load %s: %v", path, err)
	}
	rec.SetBool("removed", true)
	rec.Set("transferred.number", dest.Number)
	rec.Set("transferred.name", dest.Name)
	bumpVersion(rec)
	return storeErr("tombstone custom", props.Store(path, rec, "Transferred to "+dest.Number))
}

// ProcessTrade applies the balance movement of any card coin sources in
// the transaction, then logs it once. Machine and inventory sides move
// physical coins and need no ledger mutation.
func (s *Store) ProcessTrade(tx *Transaction) error {
	for _, src := range []CoinSource{tx.OwnerCoins, tx.UserCoins} {
		card, ok := src.(*CardCoinSource)
		if !ok {
			continue
		}
		diff := card.After - card.Before
		switch {
		case diff < 0:
			if err := s.debit(card.Account.Number, -diff); err != nil {
				return err
			}
		case diff > 0:
			if err := s.credit(card.Account.Number, diff); err != nil {
				return err
			}
		}
	}
	return s.SaveTransaction(tx)
}

// debit is Withdraw without the transaction log entry; ProcessTrade logs
// the whole trade once.
func (s *Store) debit(number string, amount int) error {
	rec, err := s.loadAccount(number)
	if err != nil {
		return err
	}
	if rec == nil {
		return &AccountNotFoundError{Number: number}
	}
	balance, err := rec.GetInt("balance", 0)
	if err != nil {
		return storeErr("debit", err)
	}
	newBalance := balance - amount
	if newBalance < 0 {
		return &OutOfCoinsError{Shortfall: -newBalance}
	}
	rec.SetInt("balance", newBalance)
	bumpVersion(rec)
	return storeErr("debit", props.Store(s.accountFile(number), rec, fmt.Sprintf("Took %d from balance", amount)))
}

// credit is Deposit without the transaction log entry, keeping the same
// soft overflow guard.
func (s *Store) credit(number string, amount int) error {
	rec, err := s.loadAccount(number)
	if err != nil {
		return err
	}
	if rec == nil {
		return &AccountNotFoundError{Number: number}
	}
	balance, err := rec.GetInt("balance", 0)
	if err != nil {
		return storeErr("credit", err)
	}
	if headroom(balance, amount) < 0 {
		return nil
	}
	rec.SetInt("balance", balance+amount)
	bumpVersion(rec)
	return storeErr("credit", props.Store(s.accountFile(number), rec, fmt.Sprintf("Balance increased by %d", amount)))
}

// AllAccountBalances walks every numbered account record, skipping
// tombstones.
func (s *Store) AllAccountBalances() (map[AccountAddress]int, error) {
	entries, err := os.ReadDir(s.accounts)
	if err != nil {
		return nil, storeErr("all balances", err)
	}
	out := map[AccountAddress]int{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".properties") {
			continue
		}
		number := strings.TrimSuffix(name, ".properties")
		rec, err := s.loadAccount(number)
		if err != nil {
			return nil, err
		}
		if rec == nil || rec.GetBool("removed") {
			continue
		}
		balance, err := rec.GetInt("balance", 0)
		if err != nil {
			return nil, storeErr("all balances", err)
		}
		owner, err := uuid.Parse(rec.Get("owner.id", ""))
		if err != nil {
			return nil, storeErr("all balances", err)
		}
		out[AccountAddress{Number: number, Name: rec.Get("name", number), Owner: owner}] = balance
	}
	return out, nil
}
