package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"villaledger/internal/app/dto"
	"villaledger/internal/app/policies"
	"villaledger/internal/infra/sheets"
)

var (
	ErrTemplateNotFound = errors.New("snapshot: backup file not found")
	ErrDataTagNotFound  = errors.New("snapshot: data script tag not found in template")
)

// StampLayout is how the page shows its last refresh time.
const StampLayout = "02.01.2006 15:04:05"

var (
	dataTag  = regexp.MustCompile(`(?s)(<script id="villa-data" type="application/json">)(.*?)(</script>)`)
	stampTag = regexp.MustCompile(`(<span id="last-updated">)(.*?)(</span>)`)
)

// Mirror receives a copy of every snapshot written.
type Mirror interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
}

// FileStore keeps the ledger backup inside a static HTML page so that the page
// works offline. The page itself is a template maintained by hand; only the
// data script and the last-updated stamp are rewritten.
type FileStore struct {
	Path     string
	Location *time.Location
	Mirror   Mirror
	Logger   *slog.Logger
	Now      func() time.Time

	mu sync.Mutex
}

func NewFileStore(path string, loc *time.Location) *FileStore {
	if loc == nil {
		loc = time.UTC
	}
	return &FileStore{Path: path, Location: loc, Now: time.Now}
}

type payload struct {
	Reservations []dto.Reservation `json:"reservations"`
	Prices       []dto.PriceRule   `json:"prices"`
}

// Read returns an empty backup when the page or its data script is missing.
func (s *FileStore) Read(_ context.Context) (policies.Backup, error) {
	s.mu.Lock()
	content, err := os.ReadFile(s.Path)
	s.mu.Unlock()
	if errors.Is(err, fs.ErrNotExist) {
		return policies.Backup{}, nil
	}
	if err != nil {
		return policies.Backup{}, fmt.Errorf("snapshot: read %s: %w", s.Path, err)
	}
	match := dataTag.FindSubmatch(content)
	if match == nil {
		return policies.Backup{}, nil
	}
	backup, err := s.decode(match[2])
	if err != nil {
		s.logger().Warn("snapshot data unreadable", "path", s.Path, "error", err)
		return policies.Backup{}, nil
	}
	if stamp := stampTag.FindSubmatch(content); stamp != nil {
		if at, err := time.ParseInLocation(StampLayout, strings.TrimSpace(string(stamp[2])), s.location()); err == nil {
			backup.UpdatedAt = at
		}
	}
	return backup, nil
}

func (s *FileStore) decode(raw []byte) (policies.Backup, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return policies.Backup{}, nil
	}
	if raw[0] == '{' {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(raw, &doc); err != nil {
			return policies.Backup{}, err
		}
		if _, ok := doc["reservations"]; !ok {
			doc["reservations"] = json.RawMessage("[]")
		}
		patched, err := json.Marshal(doc)
		if err != nil {
			return policies.Backup{}, err
		}
		raw = patched
	}
	data, err := sheets.Normalize(raw, s.now())
	if err != nil {
		return policies.Backup{}, err
	}
	return policies.Backup{Reservations: data.Reservations, Prices: data.Prices}, nil
}

func (s *FileStore) Write(ctx context.Context, b policies.Backup) error {
	body, err := json.Marshal(payload{
		Reservations: dto.MapReservations(b.Reservations),
		Prices:       dto.MapPriceRules(b.Prices),
	})
	if err != nil {
		return err
	}
	at := b.UpdatedAt
	if at.IsZero() {
		at = s.now()
	}

	s.mu.Lock()
	content, err := s.rewrite(body, at)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if s.Mirror != nil {
		key := "snapshots/" + filepath.Base(s.Path)
		if _, err := s.Mirror.Upload(ctx, key, bytes.NewReader(content), "text/html; charset=utf-8"); err != nil {
			s.logger().Warn("snapshot mirror failed", "key", key, "error", err)
		}
	}
	return nil
}

func (s *FileStore) rewrite(body []byte, at time.Time) ([]byte, error) {
	content, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", s.Path, err)
	}
	loc := dataTag.FindSubmatchIndex(content)
	if loc == nil {
		return nil, ErrDataTagNotFound
	}
	content = splice(content, loc[4], loc[5], body)
	if stamp := stampTag.FindSubmatchIndex(content); stamp != nil {
		content = splice(content, stamp[4], stamp[5], []byte(at.In(s.location()).Format(StampLayout)))
	}
	if err := writeFileAtomic(s.Path, content); err != nil {
		return nil, err
	}
	return content, nil
}

func splice(content []byte, start, end int, repl []byte) []byte {
	out := make([]byte, 0, len(content)-(end-start)+len(repl))
	out = append(out, content[:start]...)
	out = append(out, repl...)
	return append(out, content[end:]...)
}

func writeFileAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("snapshot: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmp.Name(), info.Mode().Perm())
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s *FileStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *FileStore) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

var _ policies.SnapshotStore = (*FileStore)(nil)
