package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soochol/hydrahunt/internal/crypto"
)

const metaSuffix = ".meta.json"

// LocalStorage stores files on the local filesystem. Each file has a JSON
// sidecar holding its metadata, so the index survives restarts.
type LocalStorage struct {
	baseDir string
	sealer  *crypto.Sealer
	mu      sync.RWMutex
	files   map[string]*FileInfo
}

// NewLocalStorage creates baseDir if needed and indexes the files already in it.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	s := &LocalStorage{
		baseDir: baseDir,
		files:   make(map[string]*FileInfo),
	}
	if err := s.loadIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetSealer encrypts files saved from now on. Files already on disk keep
// the form they were written in.
func (s *LocalStorage) SetSealer(sealer *crypto.Sealer) {
	s.sealer = sealer
}

func (s *LocalStorage) loadIndex() error {
	metas, err := filepath.Glob(filepath.Join(s.baseDir, "*"+metaSuffix))
	if err != nil {
		return fmt.Errorf("scan storage dir: %w", err)
	}
	for _, m := range metas {
		data, err := os.ReadFile(m)
		if err != nil {
			return fmt.Errorf("read %s: %w", filepath.Base(m), err)
		}
		var info FileInfo
		if err := json.Unmarshal(data, &info); err != nil || info.ID == "" {
			slog.Warn("storage: skipping unreadable metadata", "file", filepath.Base(m), "err", err)
			continue
		}
		s.files[info.ID] = &info
	}
	return nil
}

func (s *LocalStorage) Save(_ context.Context, filename string, contentType string, reader io.Reader) (*FileInfo, error) {
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	storedName := id + ext
	fullPath := filepath.Join(s.baseDir, storedName)

	encrypted := s.sealer.Enabled()
	var plainSize int64
	if encrypted {
		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		sealed, err := s.sealer.Seal(id, data)
		if err != nil {
			return nil, err
		}
		plainSize = int64(len(data))
		reader = bytes.NewReader(sealed)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, reader)
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("write file: %w", err)
	}
	if encrypted {
		n = plainSize
	}

	info := &FileInfo{
		ID:          id,
		Filename:    filepath.Base(filename),
		ContentType: contentType,
		Size:        n,
		Path:        storedName,
		Encrypted:   encrypted,
		CreatedAt:   time.Now().UTC(),
	}
	meta, err := json.Marshal(info)
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath(id), meta, 0644); err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	s.mu.Lock()
	s.files[id] = info
	s.mu.Unlock()

	return info, nil
}

func (s *LocalStorage) Get(_ context.Context, id string) (*FileInfo, io.ReadCloser, error) {
	s.mu.RLock()
	info, ok := s.files[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}

	cp := *info
	path := filepath.Join(s.baseDir, info.Path)
	if !info.Encrypted {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open file: %w", err)
		}
		return &cp, f, nil
	}

	if !s.sealer.Enabled() {
		return nil, nil, fmt.Errorf("get %s: file is encrypted and no key is configured", id)
	}
	sealed, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open file: %w", err)
	}
	data, err := s.sealer.Open(id, sealed)
	if err != nil {
		return nil, nil, fmt.Errorf("get %s: %w", id, err)
	}
	return &cp, io.NopCloser(bytes.NewReader(data)), nil
}

func (s *LocalStorage) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	info, ok := s.files[id]
	if ok {
		delete(s.files, id)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	return s.remove(info)
}

func (s *LocalStorage) remove(info *FileInfo) error {
	err := os.Remove(filepath.Join(s.baseDir, info.Path))
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	if merr := os.Remove(s.metaPath(info.ID)); merr != nil && !errors.Is(merr, os.ErrNotExist) && err == nil {
		err = merr
	}
	return err
}

func (s *LocalStorage) List(_ context.Context) ([]FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]FileInfo, 0, len(s.files))
	for _, info := range s.files {
		result = append(result, *info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *LocalStorage) PurgeOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	var stale []*FileInfo
	for id, info := range s.files {
		if info.CreatedAt.Before(cutoff) {
			stale = append(stale, info)
			delete(s.files, id)
		}
	}
	s.mu.Unlock()

	var errs []error
	removed := 0
	for _, info := range stale {
		if err := s.remove(info); err != nil {
			errs = append(errs, fmt.Errorf("purge %s: %w", info.ID, err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func (s *LocalStorage) metaPath(id string) string {
	return filepath.Join(s.baseDir, id+metaSuffix)
}
