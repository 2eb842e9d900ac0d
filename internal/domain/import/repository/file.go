package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-import/internal/domain/import/adapter"
)

var validHash = regexp.MustCompile(`^[0-9a-f]{1,64}$`)

// FileStore keeps one JSON document per adapter under
// <basePath>/<userID>/<hash>.json.
type FileStore struct {
	basePath string
	mu       sync.Mutex
	now      func() time.Time
}

// NewFileStore creates the base directory if needed.
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create store directory: %w", ErrAdapterStoreUnavailable, err)
	}
	return &FileStore{basePath: basePath, now: time.Now}, nil
}

func (s *FileStore) path(userID uuid.UUID, hash string) (string, error) {
	if !validHash.MatchString(hash) {
		return "", fmt.Errorf("invalid fingerprint %q", hash)
	}
	return filepath.Join(s.basePath, userID.String(), hash+".json"), nil
}

func (s *FileStore) Lookup(_ context.Context, userID uuid.UUID, hash string) (*StoredAdapter, error) {
	p, err := s.path(userID, hash)
	if err != nil {
		return nil, ErrAdapterNotFound
	}
	return readStored(p)
}

func (s *FileStore) Save(_ context.Context, userID uuid.UUID, hash, name string, a adapter.Adapter) error {
	p, err := s.path(userID, hash)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	item := StoredAdapter{
		UserID:    userID,
		Hash:      hash,
		Name:      name,
		Adapter:   a,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if prev, err := readStored(p); err == nil {
		item.CreatedAt = prev.CreatedAt
	}

	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode adapter: %w", err)
	}
	if err := writeAtomic(p, data); err != nil {
		return fmt.Errorf("%w: %w", ErrAdapterStoreUnavailable, err)
	}
	return nil
}

func (s *FileStore) List(_ context.Context, userID uuid.UUID) ([]*StoredAdapter, error) {
	dir := filepath.Join(s.basePath, userID.String())
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []*StoredAdapter{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list adapters: %w", ErrAdapterStoreUnavailable, err)
	}

	out := make([]*StoredAdapter, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		item, err := readStored(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		out = append(out, item)
	}
	slices.SortFunc(out, newestFirst)
	return out, nil
}

func readStored(p string) (*StoredAdapter, error) {
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrAdapterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAdapterStoreUnavailable, err)
	}
	var item StoredAdapter
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("%w: corrupt adapter %s: %w", ErrAdapterStoreUnavailable, filepath.Base(p), err)
	}
	return &item, nil
}

// writeAtomic replaces p through a temp file in the same directory.
func writeAtomic(p string, data []byte) error {
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create user directory: %w", err)
	}
	f, err := os.CreateTemp(dir, ".adapter-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write adapter: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write adapter: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace adapter: %w", err)
	}
	return nil
}
