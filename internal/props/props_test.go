package props

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStoreLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "record.properties")
	rec := Record{}
	rec.Set("number", "123.456.789-01")
	rec.SetInt("balance", 42)
	rec.SetBool("removed", false)
	rec.Set("note", "multi\nline = tricky\\path")

	if err := Store(path, rec, "Recently created"); err != nil {
		t.Fatalf("store: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != len(rec) {
		t.Fatalf("loaded %d keys, want %d: %#v", len(loaded), len(rec), loaded)
	}
	for k, v := range rec {
		if loaded.Get(k, "") != v {
			t.Fatalf("key %q = %q, want %q", k, loaded.Get(k, ""), v)
		}
	}
}

func TestStore_SortedKeysAndComment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.properties")
	rec := Record{"zebra": "1", "alpha": "2", "mid": "3"}
	if err := Store(path, rec, "header"); err != nil {
		t.Fatalf("store: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	want := []string{"# header", "alpha=2", "mid=3", "zebra=1"}
	if len(lines) != len(want) {
		t.Fatalf("lines: %#v", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	rec, err := Load(filepath.Join(t.TempDir(), "absent.properties"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %#v", rec)
	}
}

func TestLoad_SkipsCommentsAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.properties")
	body := "# comment\n\n  \nkey=value\n# another\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rec, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rec) != 1 || rec.Get("key", "") != "value" {
		t.Fatalf("record = %#v", rec)
	}
}

func TestLoad_MalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.properties")
	if err := os.WriteFile(path, []byte("no separator here\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed line")
	}
}

func TestGetInt(t *testing.T) {
	rec := Record{"n": "17", "bad": "x"}
	if n, err := rec.GetInt("n", 0); err != nil || n != 17 {
		t.Fatalf("GetInt(n) = (%d, %v)", n, err)
	}
	if n, err := rec.GetInt("missing", -3); err != nil || n != -3 {
		t.Fatalf("GetInt(missing) = (%d, %v)", n, err)
	}
	if _, err := rec.GetInt("bad", 0); err == nil {
		t.Fatalf("expected error for non-numeric value")
	}
}

func TestAddList(t *testing.T) {
	rec := Record{}
	if got := rec.List("accounts"); got != nil {
		t.Fatalf("empty list = %#v", got)
	}
	rec.Add("accounts", "111;first")
	rec.Add("accounts", "222;second")
	got := rec.List("accounts")
	if len(got) != 2 || got[0] != "111;first" || got[1] != "222;second" {
		t.Fatalf("list = %#v", got)
	}
}
