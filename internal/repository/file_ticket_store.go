package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spec-kit/ticket-gate/internal/domain"
)

// Layouts accepted when reading timestamps. Older files carry naive local
// timestamps without an offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

type fileRecord struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Priority    string `json:"priority"`
	Timestamp   string `json:"timestamp"`
	Status      string `json:"status"`
}

// FileTicketStore persists tickets as an indented JSON array in one file.
type FileTicketStore struct {
	path string
}

// NewFileTicketStore returns a store backed by path.
func NewFileTicketStore(path string) *FileTicketStore {
	return &FileTicketStore{path: path}
}

// Path returns the backing file location.
func (s *FileTicketStore) Path() string {
	return s.path
}

func (s *FileTicketStore) Load(ctx context.Context) ([]domain.Ticket, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var records []fileRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrStoreCorrupt, s.path, err)
	}

	tickets := make([]domain.Ticket, 0, len(records))
	for _, rec := range records {
		ts, err := parseTimestamp(rec.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: ticket %d: %v", ErrStoreCorrupt, rec.ID, err)
		}
		tickets = append(tickets, domain.Ticket{
			ID:          rec.ID,
			Title:       rec.Title,
			Description: rec.Description,
			Impact:      rec.Impact,
			Priority:    domain.TicketPriority(rec.Priority),
			Timestamp:   ts,
			Status:      domain.TicketStatus(rec.Status),
		})
	}
	return tickets, nil
}

// Save rewrites the whole file through a temp file and rename.
func (s *FileTicketStore) Save(ctx context.Context, tickets []domain.Ticket) error {
	records := make([]fileRecord, 0, len(tickets))
	for _, t := range tickets {
		records = append(records, fileRecord{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Impact:      t.Impact,
			Priority:    string(t.Priority),
			Timestamp:   t.Timestamp.Format(time.RFC3339Nano),
			Status:      string(t.Status),
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode tickets: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".tickets-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		var (
			ts  time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			ts, err = time.Parse(layout, raw)
		} else {
			ts, err = time.ParseInLocation(layout, raw, time.Local)
		}
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
