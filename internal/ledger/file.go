package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	accountsFile        = "accounts.json"
	accountsBackupFile  = "accounts.backup.json"
	companiesFile       = "companies.json"
	companiesBackupFile = "companies.backup.json"
)

type accountsDoc struct {
	Version  int                 `json:"version"`
	Accounts map[string]*Account `json:"accounts"`
}

type companiesDoc struct {
	Version   int                 `json:"version"`
	Companies map[string]*Company `json:"companies"`
}

// FileStore persists the ledger as two mirrored document pairs under dir.
// Save writes the backup mirror first, then the primary, each via temp-file
// and atomic rename: a crash between the two leaves a complete backup, so
// the next Load loses nothing past the last successful Save.
type FileStore struct {
	dir string
	log *slog.Logger
}

func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{dir: dir, log: logger}
}

func (s *FileStore) Load(_ context.Context) (*Snapshot, error) {
	snap := NewSnapshot()

	rawAccounts, err := s.readDocument(accountsFile, accountsBackupFile, accountsSchema)
	if err != nil {
		return nil, err
	}
	if rawAccounts != nil {
		var doc accountsDoc
		if err := json.Unmarshal(rawAccounts, &doc); err != nil {
			return nil, fmt.Errorf("decode accounts: %w", err)
		}
		if doc.Accounts != nil {
			snap.Accounts = doc.Accounts
		}
	}

	rawCompanies, err := s.readDocument(companiesFile, companiesBackupFile, companiesSchema)
	if err != nil {
		return nil, err
	}
	if rawCompanies != nil {
		var doc companiesDoc
		if err := json.Unmarshal(rawCompanies, &doc); err != nil {
			return nil, fmt.Errorf("decode companies: %w", err)
		}
		if doc.Companies != nil {
			snap.Companies = doc.Companies
		}
	}

	upgrade(snap, time.Now().UTC())
	return snap, nil
}

func (s *FileStore) Save(_ context.Context, snap *Snapshot) error {
	rawAccounts, err := json.MarshalIndent(accountsDoc{Version: DocVersion, Accounts: snap.Accounts}, "", "  ")
	if err != nil {
		return err
	}
	rawCompanies, err := json.MarshalIndent(companiesDoc{Version: DocVersion, Companies: snap.Companies}, "", "  ")
	if err != nil {
		return err
	}
	if err := s.writeMirrored(accountsFile, accountsBackupFile, rawAccounts); err != nil {
		return err
	}
	return s.writeMirrored(companiesFile, companiesBackupFile, rawCompanies)
}

// readDocument returns the primary file when it is readable and valid, the
// backup otherwise (re-mirroring it over the primary). A missing pair is an
// empty document; a pair where neither side is usable is ErrUnreadable.
func (s *FileStore) readDocument(primary, backup string, schema *jsonschema.Schema) ([]byte, error) {
	primaryPath := filepath.Join(s.dir, primary)
	backupPath := filepath.Join(s.dir, backup)

	raw, primaryErr := os.ReadFile(primaryPath)
	if primaryErr == nil {
		if err := validateDoc(schema, raw); err == nil {
			return raw, nil
		} else {
			primaryErr = err
		}
	}
	if !os.IsNotExist(primaryErr) {
		s.log.Warn("ledger primary unusable, trying backup", "file", primary, "err", primaryErr)
	}

	raw, backupErr := os.ReadFile(backupPath)
	if backupErr == nil {
		if err := validateDoc(schema, raw); err != nil {
			backupErr = err
		}
	}
	if backupErr == nil {
		// Restore the mirror so the next load reads the primary again.
		if err := writeAtomic(primaryPath, raw); err != nil {
			s.log.Warn("ledger primary restore failed", "file", primary, "err", err)
		}
		return raw, nil
	}

	if os.IsNotExist(primaryErr) && os.IsNotExist(backupErr) {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s (%v) and %s (%v)", ErrUnreadable, primary, primaryErr, backup, backupErr)
}

func (s *FileStore) writeMirrored(primary, backup string, raw []byte) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	if err := writeAtomic(filepath.Join(s.dir, backup), raw); err != nil {
		return fmt.Errorf("write %s: %w", backup, err)
	}
	if err := writeAtomic(filepath.Join(s.dir, primary), raw); err != nil {
		return fmt.Errorf("write %s: %w", primary, err)
	}
	return nil
}

func writeAtomic(path string, raw []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
