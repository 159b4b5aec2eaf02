package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"universalcoins.gm/internal/item"
	"universalcoins.gm/internal/props"
)

// Operation is the kind of a transaction.
type Operation string

const (
	OpBuyFromMachine  Operation = "BUY_FROM_MACHINE"
	OpSellToMachine   Operation = "SELL_TO_MACHINE"
	OpDepositAccount  Operation = "DEPOSIT_TO_ACCOUNT"
	OpWithdrawAccount Operation = "WITHDRAW_FROM_ACCOUNT"
	OpTransferAccount Operation = "TRANSFER_ACCOUNT"
	OpTrade           Operation = "TRADE"
)

// Transaction is one immutable ledger event. Every successful
// balance-mutating store call emits exactly one.
type Transaction struct {
	ID        uuid.UUID
	Time      time.Time
	Operation Operation
	Operator  Operator
	Machine   *Machine

	UserCoins  CoinSource
	OwnerCoins CoinSource

	Product *item.Stack
	Trade   *item.Stack

	Quantity   int
	Price      int
	TotalPrice int
	Infinite   bool
}

// NewTransaction stamps a fresh id and timestamp.
func NewTransaction(op Operation, operator Operator, m *Machine) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		Time:      time.Now(),
		Operation: op,
		Operator:  operator,
		Machine:   m,
	}
}

// Record flattens the transaction into its on-disk key/value form.
func (t *Transaction) Record() props.Record {
	rec := props.Record{}
	rec.Set("id", t.ID.String())
	rec.Set("time", fmt.Sprintf("%d", t.Time.UnixMilli()))
	rec.Set("operation", string(t.Operation))
	rec.SetBool("infinite", t.Infinite)
	rec.SetInt("quantity", t.Quantity)
	rec.SetInt("price", t.Price)
	rec.SetInt("price.total", t.TotalPrice)
	encodeSource(rec, "coins.user", t.UserCoins)
	encodeSource(rec, "coins.owner", t.OwnerCoins)
	if t.Operator != nil {
		t.Operator.encodeOperator(rec, "operator")
	}
	if t.Machine != nil {
		t.Machine.encode(rec, "machine")
	}
	encodeStack(rec, "product", t.Product)
	encodeStack(rec, "trade", t.Trade)
	return rec
}

// Summary is the single-line form written to machine logs.
func (t *Transaction) Summary() string {
	parts := []string{"Operation:" + string(t.Operation)}
	if t.Quantity != 0 {
		parts = append(parts, fmt.Sprintf("Quantity:%d", t.Quantity))
	}
	if t.TotalPrice != 0 {
		parts = append(parts, fmt.Sprintf("Total:%d", t.TotalPrice))
	}
	if src := sourceSummary(t.UserCoins); src != "" {
		parts = append(parts, "User:"+src)
	}
	if src := sourceSummary(t.OwnerCoins); src != "" {
		parts = append(parts, "Owner:"+src)
	}
	if t.Infinite {
		parts = append(parts, "Infinite:true")
	}
	return strings.Join(parts, " | ")
}

// CoinSource says where one side's coins came from or went to. It is a
// closed tagged variant: machine-internal, account card, or a physical
// inventory.
type CoinSource interface {
	BalanceBefore() int
	BalanceAfter() int
	sourceKind() string
	encodeSource(rec props.Record, key string)
}

// MachineCoinSource is the machine's own coin buffer.
type MachineCoinSource struct {
	Machine *Machine
	Before  int
	After   int
}

func (s *MachineCoinSource) BalanceBefore() int { return s.Before }
func (s *MachineCoinSource) BalanceAfter() int  { return s.After }
func (s *MachineCoinSource) sourceKind() string { return "machine" }

func (s *MachineCoinSource) encodeSource(rec props.Record, key string) {
	if s.Machine != nil {
		rec.Set(key+".machine.id", s.Machine.ID().String())
	}
}

// CardCoinSource is an account card: the card stack plus the account it
// points at and the balance movement it represents.
type CardCoinSource struct {
	Card    item.Stack
	Account AccountAddress
	Before  int
	After   int
}

func (s *CardCoinSource) BalanceBefore() int { return s.Before }
func (s *CardCoinSource) BalanceAfter() int  { return s.After }
func (s *CardCoinSource) sourceKind() string { return "card" }

func (s *CardCoinSource) encodeSource(rec props.Record, key string) {
	rec.Set(key+".account.number", s.Account.Number)
	rec.Set(key+".account.owner", s.Account.Owner.String())
	rec.Set(key+".account.name", s.Account.Name)
	encodeStack(rec, key+".card", &s.Card)
}

// InventoryCoinSource is physical coins held by an operator.
type InventoryCoinSource struct {
	Holder Operator
	Before int
	After  int
}

func (s *InventoryCoinSource) BalanceBefore() int { return s.Before }
func (s *InventoryCoinSource) BalanceAfter() int  { return s.After }
func (s *InventoryCoinSource) sourceKind() string { return "inventory" }

func (s *InventoryCoinSource) encodeSource(rec props.Record, key string) {
	if s.Holder != nil {
		s.Holder.encodeOperator(rec, key+".holder")
	}
}

func encodeSource(rec props.Record, key string, src CoinSource) {
	if src == nil {
		return
	}
	rec.Set(key+".type", src.sourceKind())
	rec.SetInt(key+".balance.before", src.BalanceBefore())
	rec.SetInt(key+".balance.after", src.BalanceAfter())
	src.encodeSource(rec, key)
}

func sourceSummary(src CoinSource) string {
	if src == nil {
		return ""
	}
	return fmt.Sprintf("%s(%d->%d)", src.sourceKind(), src.BalanceBefore(), src.BalanceAfter())
}

// Operator is who drove the transaction: a player, a plain block, or a
// machine.
type Operator interface {
	encodeOperator(rec props.Record, key string)
}

type PlayerOperator struct {
	Player uuid.UUID
}

func (o *PlayerOperator) encodeOperator(rec props.Record, key string) {
	rec.Set(key+".type", "player")
	rec.Set(key+".player", o.Player.String())
}

type BlockOperator struct {
	Owner *uuid.UUID
	World string
	X     int
	Y     int
	Z     int
	Block string
}

func (o *BlockOperator) encodeOperator(rec props.Record, key string) {
	rec.Set(key+".type", "block")
	o.encodeBlock(rec, key)
}

func (o *BlockOperator) encodeBlock(rec props.Record, key string) {
	if o.Owner != nil {
		rec.Set(key+".owner", o.Owner.String())
	}
	rec.Set(key+".block.world", o.World)
	rec.SetInt(key+".block.x", o.X)
	rec.SetInt(key+".block.y", o.Y)
	rec.SetInt(key+".block.z", o.Z)
	rec.Set(key+".block.id", o.Block)
}

type MachineOperator struct {
	Machine *Machine
}

func (o *MachineOperator) encodeOperator(rec props.Record, key string) {
	rec.Set(key+".type", "machine")
	if o.Machine != nil {
		rec.Set(key+".machine.id", o.Machine.ID().String())
	}
}

func encodeStack(rec props.Record, key string, s *item.Stack) {
	if s == nil || s.Empty() {
		return
	}
	rec.Set(key+".type", s.Item)
	rec.SetInt(key+".amount", s.Count)
	if len(s.Tag) > 0 {
		keys := make([]string, 0, len(s.Tag))
		for k := range s.Tag {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+s.Tag[k])
		}
		rec.Set(key+".tags", strings.Join(pairs, "|"))
	}
}
