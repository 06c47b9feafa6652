package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

type ArchiveMeta struct {
	CreatedAt string   `json:"created_at"`
	Files     []string `json:"files"`
}

// Archive compresses the current primary ledger documents into a timestamped
// directory under archiveDir. It returns the directory it wrote, or "" when
// there is nothing to archive yet.
func Archive(dataDir, archiveDir string, now time.Time) (string, error) {
	sources := []string{accountsFile, companiesFile}

	var present []string
	for _, name := range sources {
		if _, err := os.Stat(filepath.Join(dataDir, name)); err == nil {
			present = append(present, name)
		}
	}
	if len(present) == 0 {
		return "", nil
	}

	dir := filepath.Join(archiveDir, "ledger_"+now.UTC().Format("20060102T150405Z"))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	meta := ArchiveMeta{CreatedAt: now.UTC().Format(time.RFC3339)}
	for _, name := range present {
		dst := filepath.Join(dir, name+".zst")
		if err := compressFile(filepath.Join(dataDir, name), dst); err != nil {
			return "", fmt.Errorf("archive %s: %w", name, err)
		}
		meta.Files = append(meta.Files, filepath.Base(dst))
	}

	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), raw, 0o600); err != nil {
		return "", err
	}
	return dir, nil
}

// ReadArchived decompresses one archived document, for restore tooling.
func ReadArchived(path string) ([]byte, error) {
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
	return io.ReadAll(dec)
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
