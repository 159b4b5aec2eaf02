// Package props reads and writes flat key/value text records: one
// "key=value" pair per line, keys sorted, UTF-8, '#' comment lines. The
// layout matches the record files the original server wrote, so existing
// data stays readable.
package props

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Record is one document of string pairs.
type Record map[string]string

func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

func (r Record) Get(key, def string) string {
	if v, ok := r[key]; ok {
		return v
	}
	return def
}

func (r Record) GetInt(key string, def int) (int, error) {
	v, ok := r[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("props: key %q: %w", key, err)
	}
	return n, nil
}

func (r Record) GetBool(key string) bool { return r[key] == "true" }

func (r Record) Set(key, value string)      { r[key] = value }
func (r Record) SetInt(key string, n int)   { r[key] = strconv.Itoa(n) }
func (r Record) SetBool(key string, b bool) { r[key] = strconv.FormatBool(b) }

// Add appends a value to a '|'-separated list key.
func (r Record) Add(key, value string) {
	if cur := r[key]; cur != "" {
		r[key] = cur + "|" + value
	} else {
		r[key] = value
	}
}

// List splits a '|'-separated list key; an empty or absent key yields nil.
func (r Record) List(key string) []string {
	v := r[key]
	if v == "" {
		return nil
	}
	return strings.Split(v, "|")
}

// Load reads a record file. A missing file returns (nil, nil) so callers can
// treat absence as "no record" without stat-ing first.
func Load(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	rec := Record{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("props: %s: malformed line %q", path, line)
		}
		rec[unescape(strings.TrimSpace(key))] = unescape(value)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Store writes the record with sorted keys, creating parent directories as
// needed. The comment goes into a '#' header line.
func Store(path string, rec Record, comment string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	if comment != "" {
		b.WriteString("# ")
		b.WriteString(comment)
		b.WriteByte('\n')
	}
	for _, k := range keys {
		b.WriteString(escape(k))
		b.WriteByte('=')
		b.WriteString(escape(rec[k]))
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

var escaper = strings.NewReplacer("\\", `\\`, "\n", `\n`, "\r", `\r`, "=", `\=`)

func escape(s string) string { return escaper.Replace(s) }

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
