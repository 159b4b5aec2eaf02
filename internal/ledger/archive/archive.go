// Package archive rolls closed hourly transaction-log buckets into
// compressed tarballs so the live log directory stays small.
package archive

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

const bucketLayout = "2006.01.02-15"

type BucketMeta struct {
	Bucket    string `json:"bucket"`
	Files     int    `json:"files"`
	Archive   string `json:"archive"`
	CreatedAt string `json:"created_at"`
}

// ArchiveClosedBuckets packs every transaction bucket that closed before
// the cutoff into `logs/archives/<bucket>/transactions.tar.zst` and deletes
// the source directory once the tarball is written. Buckets whose name
// does not parse are left alone. Returns the buckets archived.
func ArchiveClosedBuckets(ledgerDir string, cutoff time.Time) ([]string, error) {
	txDir := filepath.Join(ledgerDir, "logs", "transactions")
	entries, err := os.ReadDir(txDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var archived []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		start, err := time.ParseInLocation(bucketLayout, e.Name(), time.Local)
		if err != nil {
			continue
		}
		// A bucket is closed once its hour has fully elapsed.
		if !start.Add(time.Hour).Before(cutoff) {
			continue
		}
		if err := archiveBucket(ledgerDir, txDir, e.Name()); err != nil {
			return archived, fmt.Errorf("archive bucket %s: %w", e.Name(), err)
		}
		archived = append(archived, e.Name())
	}
	sort.Strings(archived)
	return archived, nil
}

func archiveBucket(ledgerDir, txDir, bucket string) error {
	srcDir := filepath.Join(txDir, bucket)
	names, err := bucketFiles(srcDir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return os.Remove(srcDir)
	}

	archiveDir := filepath.Join(ledgerDir, "logs", "archives", bucket)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(archiveDir, "transactions.tar.zst")
	if err := writeTarball(dst, srcDir, names); err != nil {
		return err
	}

	meta := BucketMeta{
		Bucket:    bucket,
		Files:     len(names),
		Archive:   filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}

	return os.RemoveAll(srcDir)
}

func bucketFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".properties") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func writeTarball(dst, srcDir string, names []string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	tw := tar.NewWriter(enc)

	for _, name := range names {
		if err := addFile(tw, filepath.Join(srcDir, name), name); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return out.Close()
}

func addFile(tw *tar.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

// ReadBucket lists the transaction records inside an archived bucket,
// returning file name to contents.
func ReadBucket(ledgerDir, bucket string) (map[string][]byte, error) {
	path := filepath.Join(ledgerDir, "logs", "archives", bucket, "transactions.tar.zst")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	out := map[string][]byte{}
	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		b, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		out[hdr.Name] = b
	}
}
