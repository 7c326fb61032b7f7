// Package storage persists scan pipeline state in a local SQLite database:
// a journal of processed plates, cached warranty lookup results, and
// encrypted API tokens.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/christmasair/plate-scanner/internal/equipment"
)

// DefaultWarrantyTTL bounds how long a cached lookup result is trusted.
// Warranty records change when homeowners register equipment, so the cache
// expires rather than living forever.
const DefaultWarrantyTTL = 30 * 24 * time.Hour

// Store is a SQLite-backed store. Safe for concurrent use.
type Store struct {
	db            *sql.DB
	encryptionKey []byte
	warrantyTTL   time.Duration
	mu            sync.RWMutex
}

// NewStore opens (creating if needed) the database at dbPath. The
// encryptionKey is used only for the token table.
func NewStore(dbPath string, encryptionKey []byte) (*Store, error) {
	// WAL so the batch workers can read the cache while a write is in
	// flight; busy_timeout instead of immediate SQLITE_BUSY errors.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", dbPath).Msg("could not restrict database permissions")
	}

	store := &Store{
		db:            db,
		encryptionKey: encryptionKey,
		warrantyTTL:   DefaultWarrantyTTL,
	}

	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			photo_path TEXT NOT NULL,
			job_id INTEGER,
			serial TEXT,
			manufacturer TEXT,
			lookup_status TEXT NOT NULL,
			record_json TEXT NOT NULL,
			report TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS warranty_cache (
			brand TEXT NOT NULL,
			serial TEXT NOT NULL,
			warranty_json TEXT NOT NULL,
			fetched_at DATETIME NOT NULL,
			PRIMARY KEY (brand, serial)
		);`,
		`CREATE TABLE IF NOT EXISTS tokens (
			name TEXT PRIMARY KEY,
			encrypted_value TEXT NOT NULL,
			last_updated DATETIME NOT NULL
		);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// SetWarrantyTTL overrides the cache lifetime. Zero or negative disables
// cache reads entirely.
func (s *Store) SetWarrantyTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warrantyTTL = ttl
}

// GetCachedWarranty returns a previously stored lookup result for the
// brand+serial pair, or nil when absent or older than the TTL.
func (s *Store) GetCachedWarranty(brand, serial string) (*equipment.Warranty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.warrantyTTL <= 0 {
		return nil, nil
	}

	var warrantyJSON string
	var fetchedAt time.Time
	err := s.db.QueryRow(
		"SELECT warranty_json, fetched_at FROM warranty_cache WHERE brand = ? AND serial = ?",
		brand, serial,
	).Scan(&warrantyJSON, &fetchedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query warranty cache: %w", err)
	}

	if time.Since(fetchedAt) > s.warrantyTTL {
		return nil, nil
	}

	var w equipment.Warranty
	if err := json.Unmarshal([]byte(warrantyJSON), &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached warranty: %w", err)
	}
	return &w, nil
}

// PutCachedWarranty stores a lookup result. Only successful and
// serial-not-found outcomes are worth caching; transient failures
// (timeouts, throttling, site changes) are not, so a retry can succeed.
func (s *Store) PutCachedWarranty(brand, serial string, w equipment.Warranty) error {
	if w.Status != equipment.StatusFound && w.Status != equipment.StatusSerialNotFound {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	warrantyJSON, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal warranty: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO warranty_cache (brand, serial, warranty_json, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(brand, serial) DO UPDATE SET
			warranty_json = excluded.warranty_json,
			fetched_at = excluded.fetched_at
	`, brand, serial, string(warrantyJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save warranty cache entry: %w", err)
	}
	return nil
}

// SaveToken encrypts and stores a named API token.
func (s *Store) SaveToken(name string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encrypted, err := Encrypt(value, s.encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO tokens (name, encrypted_value, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			encrypted_value = excluded.encrypted_value,
			last_updated = excluded.last_updated
	`, name, encrypted, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetToken decrypts and returns a named token. Returns nil, nil when absent.
func (s *Store) GetToken(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var encrypted string
	err := s.db.QueryRow(
		"SELECT encrypted_value FROM tokens WHERE name = ?", name,
	).Scan(&encrypted)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query token: %w", err)
	}

	value, err := Decrypt(encrypted, s.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt token: %w", err)
	}
	return value, nil
}

// DeleteToken removes a named token.
func (s *Store) DeleteToken(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM tokens WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
