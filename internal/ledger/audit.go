package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// AuditEntry is one machine-readable ledger mutation in the supplementary
// audit stream. It complements, never replaces, the authoritative record
// files.
type AuditEntry struct {
	Time        string `json:"time"`
	Event       string `json:"event"`
	Account     string `json:"account,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Delta       int    `json:"delta,omitempty"`
	Transaction string `json:"transaction,omitempty"`
	Operation   string `json:"operation,omitempty"`
	Machine     string `json:"machine,omitempty"`
}

// AuditWriter appends zstd-compressed JSONL entries, rotated hourly.
type AuditWriter struct {
	baseDir string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewAuditWriter(baseDir string) *AuditWriter {
	return &AuditWriter{baseDir: baseDir}
}

func (w *AuditWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *AuditWriter) Write(e AuditEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *AuditWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(w.baseDir, fmt.Sprintf("audit-%s.jsonl.zst", hour))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *AuditWriter) closeLocked() error {
	var errClose error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		errClose = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return errClose
}

// auditEvent stamps and writes an entry when the audit stream is enabled;
// failures are logged and swallowed.
func (s *Store) auditEvent(e AuditEntry) {
	if s.audit == nil {
		return
	}
	e.Time = s.now().UTC().Format(time.RFC3339Nano)
	if err := s.audit.Write(e); err != nil {
		s.warn("audit write", err)
	}
}
