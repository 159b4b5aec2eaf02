package coin

import (
	"os"
	"path/filepath"
	"testing"

	"universalcoins.gm/internal/item"
)

func TestNewCatalog_SortsAndValidates(t *testing.T) {
	cat, err := NewCatalog([]Denomination{
		{Item: "gold", Value: 100, StackLimit: 10},
		{Item: "copper", Value: 1, StackLimit: 99},
		{Item: "silver", Value: 10, StackLimit: 50},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	denoms := cat.Denominations()
	if denoms[0].Item != "copper" || denoms[2].Item != "gold" {
		t.Fatalf("not ascending by value: %#v", denoms)
	}
	if cat.Smallest().Value != 1 {
		t.Fatalf("smallest = %d", cat.Smallest().Value)
	}
}

func TestNewCatalog_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		denoms []Denomination
	}{
		{"empty", nil},
		{"zero value", []Denomination{{Item: "a", Value: 0, StackLimit: 1}}},
		{"negative value", []Denomination{{Item: "a", Value: -1, StackLimit: 1}}},
		{"zero stack limit", []Denomination{{Item: "a", Value: 1, StackLimit: 0}}},
		{"no item id", []Denomination{{Value: 1, StackLimit: 1}}},
		{"duplicate value", []Denomination{
			{Item: "a", Value: 5, StackLimit: 1},
			{Item: "b", Value: 5, StackLimit: 1},
		}},
	}
	for _, tc := range cases {
		if _, err := NewCatalog(tc.denoms); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	body := `denominations:
  - item: uc:coin
    value: 1
    stack_limit: 64
  - item: uc:coin_stack
    value: 9
    stack_limit: 64
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(cat.Denominations()) != 2 {
		t.Fatalf("denominations = %d", len(cat.Denominations()))
	}
	if d, ok := cat.Recognize(item.Stack{Item: "uc:coin_stack", Count: 1}); !ok || d.Value != 9 {
		t.Fatalf("recognize: %v %v", d, ok)
	}
}

func TestStackValue(t *testing.T) {
	cat := DefaultCatalog()
	if v := cat.StackValue(item.Stack{Item: "uc:coin_stack", Count: 3}); v != 27 {
		t.Fatalf("stack value = %d", v)
	}
	if v := cat.StackValue(item.Stack{Item: "stone", Count: 5}); v != 0 {
		t.Fatalf("non-coin value = %d", v)
	}
	total := cat.StacksValue([]item.Stack{
		{Item: "uc:coin", Count: 4},
		{Item: "uc:large_coin_stack", Count: 2},
		{},
	})
	if total != 166 {
		t.Fatalf("stacks value = %d", total)
	}
}
