// Package library owns the per-user collection of watched films and the
// merge rules that keep it free of duplicates across scraped pages.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"statsboxd/models"
	"statsboxd/utils/titles"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrUsernameRequired   = errors.New("username is required")
)

const libraryFile = "library.json"

// Service manages one collection per username. Collections are newest-first
// and hold at most one entry per normalized title. Pages for the same
// username must be merged in increasing page order: the first write wins, so
// dated diary entries keep precedence over undated films-page entries only
// when diary pages arrive first.
type Service struct {
	mu          sync.RWMutex
	fs          afero.Fs
	path        string
	collections map[string]*models.Collection
	active      string // username of the most recent sync
}

// NewService creates a library service persisting collections as JSON inside
// the provided directory.
func NewService(fs afero.Fs, storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}
	if err := fs.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}

	svc := &Service{
		fs:          fs,
		path:        filepath.Join(storageDir, libraryFile),
		collections: make(map[string]*models.Collection),
	}
	if err := svc.load(); err != nil {
		return nil, err
	}
	return svc, nil
}

// Reset discards the stored collection for a username. Called at the start
// of a fresh diary sync (page 1) so the run rebuilds from scratch.
func (s *Service) Reset(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrUsernameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections[username] = &models.Collection{Username: username, UpdatedAt: time.Now().UTC()}
	s.active = username
	return s.persistLocked()
}

// Merge appends the truly-new entries from a scraped page to the user's
// collection and returns them. An incoming entry is truly new iff no stored
// entry shares its normalized title; existing entries are never overwritten,
// which makes re-merging an already-merged page a no-op.
func (s *Service) Merge(username string, entries []models.Entry) ([]models.Entry, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.collections[username]
	if col == nil {
		col = &models.Collection{Username: username}
		s.collections[username] = col
	}
	s.active = username

	seen := make(map[string]struct{}, len(col.Entries))
	for _, e := range col.Entries {
		seen[titles.Normalize(e.Title)] = struct{}{}
	}

	added := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		key := titles.Normalize(e.Title)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		col.Entries = append(col.Entries, e)
		added = append(added, e)
	}

	col.UpdatedAt = time.Now().UTC()
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return added, nil
}

// ApplyHydration copies catalog data from hydrated entries back onto the
// stored collection, matching by normalized title. Stored entries that are
// already hydrated are left untouched.
func (s *Service) ApplyHydration(username string, hydrated []models.Entry) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrUsernameRequired
	}
	if len(hydrated) == 0 {
		return nil
	}

	byKey := make(map[string]models.Entry, len(hydrated))
	for _, e := range hydrated {
		byKey[titles.Normalize(e.Title)] = e
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.collections[username]
	if col == nil {
		return nil
	}

	for i := range col.Entries {
		src, ok := byKey[titles.Normalize(col.Entries[i].Title)]
		if !ok || col.Entries[i].Hydrated() {
			continue
		}
		if len(src.Genre) > 0 {
			col.Entries[i].Genre = src.Genre
		}
		if src.PosterURL != "" {
			col.Entries[i].PosterURL = src.PosterURL
		}
		if src.ReleaseDate != "" {
			col.Entries[i].ReleaseDate = src.ReleaseDate
		}
	}

	return s.persistLocked()
}

// Snapshot returns a copy of the user's collection. The copy keeps callers
// from mutating stored entries outside the service lock.
func (s *Service) Snapshot(username string) (models.Collection, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.Collection{}, ErrUsernameRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.collections[username]
	if col == nil {
		return models.Collection{Username: username}, nil
	}

	out := models.Collection{Username: col.Username, UpdatedAt: col.UpdatedAt}
	out.Entries = make([]models.Entry, len(col.Entries))
	copy(out.Entries, col.Entries)
	return out, nil
}

// ActiveUsername returns the username of the most recent sync, or empty when
// nothing has been synced yet.
func (s *Service) ActiveUsername() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// AvailableYears lists the distinct watch years in a user's collection,
// newest first. Undated entries contribute nothing.
func (s *Service) AvailableYears(username string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.collections[strings.TrimSpace(username)]
	if col == nil {
		return nil
	}

	set := make(map[string]struct{})
	for _, e := range col.Entries {
		d := e.WatchedDate()
		if len(d) >= 4 {
			set[d[:4]] = struct{}{}
		}
	}

	years := make([]string, 0, len(set))
	for y := range set {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	return years
}

type libraryState struct {
	Active      string                        `json:"active"`
	Collections map[string]*models.Collection `json:"collections"`
}

func (s *Service) load() error {
	f, err := s.fs.Open(s.path)
	if err != nil {
		// First run: nothing persisted yet.
		return nil
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read library: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var state libraryState
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("[library] ignoring corrupt state file %s: %v", s.path, err)
		return nil
	}
	if state.Collections != nil {
		s.collections = state.Collections
	}
	s.active = state.Active
	return nil
}

func (s *Service) persistLocked() error {
	state := libraryState{Active: s.active, Collections: s.collections}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode library: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("write library: %w", err)
	}
	return nil
}
