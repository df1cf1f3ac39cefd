package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/Can0Ngu1/bot-web/internal/dedup"
	"github.com/Can0Ngu1/bot-web/internal/model"
)

// FileArchive keeps the record archive as a JSON array of records,
// newest-first, rewritten wholesale on every save.
type FileArchive struct {
	path string
}

// NewFileArchive returns an archive backed by path.
func NewFileArchive(path string) *FileArchive {
	return &FileArchive{path: path}
}

// All reads the archive. A missing file is an empty archive.
func (a *FileArchive) All(_ context.Context) ([]model.BidRecord, error) {
	data, err := os.ReadFile(a.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", a.path, err)
	}
	var records []model.BidRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode archive %s: %w", a.path, err)
	}
	return records, nil
}

// Prepend rewrites the archive with records ahead of the existing contents.
// An unreadable existing archive is restarted fresh with a warning — the
// notified set lives elsewhere, so nothing is re-notified because of it.
func (a *FileArchive) Prepend(ctx context.Context, records []model.BidRecord) error {
	if len(records) == 0 {
		return nil
	}
	existing, err := a.All(ctx)
	if err != nil {
		log.Printf("[store] Archive unreadable, starting fresh: %v", err)
		existing = nil
	}
	merged := make([]model.BidRecord, 0, len(records)+len(existing))
	merged = append(merged, records...)
	merged = append(merged, existing...)
	if err := writeJSONFile(a.path, merged); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	log.Printf("[store] Archived %d record(s), %d total", len(records), len(merged))
	return nil
}

// FileNotified keeps the notified-code set as a sorted JSON array of
// strings, rewritten wholesale on every save.
type FileNotified struct {
	path string
}

// NewFileNotified returns a notified-set store backed by path.
func NewFileNotified(path string) *FileNotified {
	return &FileNotified{path: path}
}

// Load reads the set. Missing or unreadable files yield an empty set with a
// warning: re-notifying is preferred over failing every cycle on a bad file.
func (n *FileNotified) Load(_ context.Context) (dedup.Set, error) {
	data, err := os.ReadFile(n.path)
	if errors.Is(err, fs.ErrNotExist) {
		return dedup.NewSet(), nil
	}
	if err != nil {
		log.Printf("[store] Notified set unreadable, treating as empty: %v", err)
		return dedup.NewSet(), nil
	}
	var codes []string
	if err := json.Unmarshal(data, &codes); err != nil {
		log.Printf("[store] Notified set corrupt, treating as empty: %v", err)
		return dedup.NewSet(), nil
	}
	return dedup.NewSet(codes...), nil
}

// Save rewrites the set file.
func (n *FileNotified) Save(_ context.Context, set dedup.Set) error {
	if err := writeJSONFile(n.path, set.Codes()); err != nil {
		return fmt.Errorf("write notified set: %w", err)
	}
	return nil
}

// writeJSONFile rewrites path atomically: marshal, write a sibling temp
// file, rename over the target. A crash mid-write leaves the old file
// intact.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
