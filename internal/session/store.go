// Package session persists per-identity navigation state, linked storage
// accounts and phone verification codes in SQLite.
package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"textdrive/internal/models"
)

// Store wraps the SQLite database. Navigation state is read-and-overwrite
// per command, keyed by identity; the interpreter never touches SQL.
type Store struct {
	db *sql.DB
}

// Open creates or opens the session database at the given path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		identity     TEXT PRIMARY KEY,
		location     TEXT NOT NULL DEFAULT '',
		account      TEXT NOT NULL DEFAULT '',
		parent_stack TEXT NOT NULL DEFAULT '[]',
		last_choices TEXT NOT NULL DEFAULT '[]',
		updated_at   TEXT DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS accounts (
		id       TEXT PRIMARY KEY,
		identity TEXT NOT NULL,
		service  TEXT NOT NULL,
		label    TEXT NOT NULL,
		bucket   TEXT NOT NULL,
		prefix   TEXT NOT NULL DEFAULT '',
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_identity ON accounts(identity);
	CREATE TABLE IF NOT EXISTS verifications (
		identity   TEXT PRIMARY KEY,
		code       TEXT NOT NULL,
		expires_at TEXT NOT NULL
	);
	`
	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// NavState loads the navigation state for an identity. An identity that
// has never sent a command gets the zero (root) state.
func (s *Store) NavState(identity string) (*models.NavState, error) {
	var state models.NavState
	var stackJSON, choicesJSON string

	err := s.db.QueryRow(`
		SELECT location, account, parent_stack, last_choices
		FROM sessions WHERE identity = ?
	`, identity).Scan(&state.Location, &state.SelectedAccount, &stackJSON, &choicesJSON)

	if err == sql.ErrNoRows {
		return &state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session for %s: %w", identity, err)
	}

	if err := json.Unmarshal([]byte(stackJSON), &state.ParentStack); err != nil {
		return nil, fmt.Errorf("corrupt parent stack for %s: %w", identity, err)
	}
	if err := json.Unmarshal([]byte(choicesJSON), &state.LastChoices); err != nil {
		return nil, fmt.Errorf("corrupt choice list for %s: %w", identity, err)
	}

	return &state, nil
}

// SaveNavState overwrites the navigation state for an identity.
func (s *Store) SaveNavState(identity string, state *models.NavState) error {
	stackJSON, err := json.Marshal(state.ParentStack)
	if err != nil {
		return fmt.Errorf("failed to encode parent stack: %w", err)
	}
	choicesJSON, err := json.Marshal(state.LastChoices)
	if err != nil {
		return fmt.Errorf("failed to encode choice list: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO sessions (identity, location, account, parent_stack, last_choices, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(identity) DO UPDATE SET
			location = excluded.location,
			account = excluded.account,
			parent_stack = excluded.parent_stack,
			last_choices = excluded.last_choices,
			updated_at = CURRENT_TIMESTAMP
	`, identity, state.Location, state.SelectedAccount, string(stackJSON), string(choicesJSON))
	if err != nil {
		return fmt.Errorf("failed to save session for %s: %w", identity, err)
	}
	return nil
}

// LinkAccount records a storage account for an identity.
func (s *Store) LinkAccount(acct models.StorageAccount) error {
	if acct.ID == "" || acct.Identity == "" || acct.Bucket == "" {
		return fmt.Errorf("account id, identity and bucket are required")
	}

	_, err := s.db.Exec(`
		INSERT INTO accounts (id, identity, service, label, bucket, prefix)
		VALUES (?, ?, ?, ?, ?, ?)
	`, acct.ID, acct.Identity, acct.Service, acct.Label, acct.Bucket, acct.Prefix)
	if err != nil {
		return fmt.Errorf("failed to link account: %w", err)
	}
	return nil
}

// AccountsFor returns all accounts linked to an identity, oldest first.
func (s *Store) AccountsFor(identity string) ([]models.StorageAccount, error) {
	rows, err := s.db.Query(`
		SELECT id, identity, service, label, bucket, prefix
		FROM accounts WHERE identity = ?
		ORDER BY created_at, id
	`, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.StorageAccount
	for rows.Next() {
		var a models.StorageAccount
		if err := rows.Scan(&a.ID, &a.Identity, &a.Service, &a.Label, &a.Bucket, &a.Prefix); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Account looks up one linked account by id.
func (s *Store) Account(id string) (*models.StorageAccount, error) {
	var a models.StorageAccount
	err := s.db.QueryRow(`
		SELECT id, identity, service, label, bucket, prefix
		FROM accounts WHERE id = ?
	`, id).Scan(&a.ID, &a.Identity, &a.Service, &a.Label, &a.Bucket, &a.Prefix)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %s does not exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", id, err)
	}
	return &a, nil
}

// UnlinkAccounts removes every account linked to an identity.
func (s *Store) UnlinkAccounts(identity string) error {
	if _, err := s.db.Exec(`DELETE FROM accounts WHERE identity = ?`, identity); err != nil {
		return fmt.Errorf("failed to unlink accounts: %w", err)
	}
	return nil
}

// PutVerification stores a pending confirmation code, replacing any
// earlier one for the same identity.
func (s *Store) PutVerification(identity, code string, expires time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO verifications (identity, code, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			code = excluded.code,
			expires_at = excluded.expires_at
	`, identity, code, expires.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}
	return nil
}

// CheckVerification checks a code and consumes it on success. Expired or
// wrong codes are simply not valid; there is no separate error for them.
func (s *Store) CheckVerification(identity, code string, now time.Time) (bool, error) {
	var stored, expiresAt string
	err := s.db.QueryRow(`
		SELECT code, expires_at FROM verifications WHERE identity = ?
	`, identity).Scan(&stored, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check verification code: %w", err)
	}

	expires, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		return false, fmt.Errorf("corrupt verification expiry: %w", err)
	}
	if now.UTC().After(expires) || stored != code {
		return false, nil
	}

	if _, err := s.db.Exec(`DELETE FROM verifications WHERE identity = ?`, identity); err != nil {
		return false, fmt.Errorf("failed to consume verification code: %w", err)
	}
	return true, nil
}
