package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/spf13/afero"

	"statsboxd/models"
	"statsboxd/utils/titles"
)

// FallbackDB is the static local film database. It is loaded once at startup
// and serves two jobs: hydration fallback when the catalog service is
// unavailable, and the candidate pool for recommendations.
type FallbackDB struct {
	entries []models.CatalogEntry
	byTitle map[string]models.CatalogEntry
}

// LoadFallbackDB reads the database from a JSON file. A missing file yields
// an empty database rather than an error; the pipeline degrades to
// Uncategorized genres and no recommendation pool.
func LoadFallbackDB(fs afero.Fs, path string) (*FallbackDB, error) {
	db := &FallbackDB{byTitle: make(map[string]models.CatalogEntry)}

	f, err := fs.Open(path)
	if err != nil {
		log.Printf("[catalog] fallback db %s not available: %v", path, err)
		return db, nil
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read fallback db: %w", err)
	}
	if err := json.Unmarshal(data, &db.entries); err != nil {
		return nil, fmt.Errorf("decode fallback db: %w", err)
	}

	for _, e := range db.entries {
		db.byTitle[titles.Normalize(e.Title)] = e
	}
	log.Printf("[catalog] loaded %d fallback entries from %s", len(db.entries), path)
	return db, nil
}

// Lookup finds an entry by exact case-insensitive title match.
func (db *FallbackDB) Lookup(title string) (models.CatalogEntry, bool) {
	e, ok := db.byTitle[titles.Normalize(title)]
	return e, ok
}

// GenresFor returns the genres for a known title, or nil. Implements the
// scraper's first-pass genre source.
func (db *FallbackDB) GenresFor(title string) []string {
	if e, ok := db.Lookup(title); ok && len(e.Genre) > 0 {
		return e.Genre
	}
	return nil
}

// All returns every catalog entry.
func (db *FallbackDB) All() []models.CatalogEntry {
	out := make([]models.CatalogEntry, len(db.entries))
	copy(out, db.entries)
	return out
}

// Len reports the number of entries.
func (db *FallbackDB) Len() int {
	return len(db.entries)
}
