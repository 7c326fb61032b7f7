package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/christmasair/plate-scanner/internal/equipment"
)

// ScanEntry is one journaled pipeline run: the photo that came in, the
// record the pipeline produced, and the rendered report.
type ScanEntry struct {
	ID           int64
	PhotoPath    string
	JobID        int64
	Serial       string
	Manufacturer string
	LookupStatus equipment.LookupStatus
	Record       equipment.Record
	Report       string
	CreatedAt    time.Time
}

// RecordScan appends a scan to the journal and returns its row id.
func (s *Store) RecordScan(entry *ScanEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordJSON, err := json.Marshal(entry.Record)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal record: %w", err)
	}

	entry.CreatedAt = time.Now().UTC()

	res, err := s.db.Exec(`
		INSERT INTO scans (photo_path, job_id, serial, manufacturer, lookup_status, record_json, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.PhotoPath, entry.JobID, entry.Serial, entry.Manufacturer,
		string(entry.LookupStatus), string(recordJSON), entry.Report, entry.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan: %w", err)
	}

	return res.LastInsertId()
}

// RecentScans returns up to limit journal entries, newest first.
func (s *Store) RecentScans(limit int) ([]ScanEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, photo_path, job_id, serial, manufacturer, lookup_status, record_json, report, created_at
		FROM scans ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var entries []ScanEntry
	for rows.Next() {
		var e ScanEntry
		var status, recordJSON string
		if err := rows.Scan(&e.ID, &e.PhotoPath, &e.JobID, &e.Serial, &e.Manufacturer,
			&status, &recordJSON, &e.Report, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.LookupStatus = equipment.LookupStatus(status)
		if err := json.Unmarshal([]byte(recordJSON), &e.Record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record for scan %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
