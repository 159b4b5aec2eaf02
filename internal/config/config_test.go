package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"universalcoins.gm/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "data_dir: /var/lib/coins\n")
	c, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.DataDir != "/var/lib/coins" {
		t.Fatalf("data_dir = %q", c.DataDir)
	}
	if !c.Audit {
		t.Fatalf("audit should default to true")
	}
	if c.ArchiveAfterHours != 48 {
		t.Fatalf("archive_after_hours = %d", c.ArchiveAfterHours)
	}
	if want := filepath.Join("/var/lib/coins", "index", "transactions.db"); c.IndexDB != want {
		t.Fatalf("index_db = %q, want %q", c.IndexDB, want)
	}
}

func TestLoad_RejectsEmptyDataDir(t *testing.T) {
	path := writeConfig(t, "data_dir: \"\"\n")
	if _, err := config.Load(path); err == nil {
		t.Fatalf("expected error for empty data_dir")
	}
}

func TestLoad_RejectsNegativeArchiveHours(t *testing.T) {
	path := writeConfig(t, "data_dir: data\narchive_after_hours: -1\n")
	if _, err := config.Load(path); err == nil {
		t.Fatalf("expected error for negative archive_after_hours")
	}
}

func TestConfigSchema_ValidatesExample(t *testing.T) {
	schema, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", "config.schema.json"))
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join("..", "..", "config.example.yaml"))
	if err != nil {
		t.Fatalf("read example: %v", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("parse example: %v", err)
	}

	// Round-trip through JSON so the validator sees JSON-native types.
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := schema.Validate(v); err != nil {
		t.Fatalf("example config does not match schema: %v", err)
	}
}
