package library

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statsboxd/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(afero.NewMemMapFs(), "data")
	require.NoError(t, err)
	return svc
}

func dated(title, date string) models.Entry {
	return models.Entry{Title: title, Date: &date, Genre: []string{models.UncategorizedGenre}}
}

func undated(title string) models.Entry {
	return models.Entry{Title: title, Genre: []string{models.UncategorizedGenre}}
}

func TestMergeIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	page := []models.Entry{dated("Oldboy", "2024-03-15"), dated("Heat", "2024-03-10")}

	added, err := svc.Merge("someuser", page)
	require.NoError(t, err)
	assert.Len(t, added, 2)

	// Re-delivering the same page yields zero truly-new entries.
	added, err = svc.Merge("someuser", page)
	require.NoError(t, err)
	assert.Empty(t, added)

	col, err := svc.Snapshot("someuser")
	require.NoError(t, err)
	assert.Len(t, col.Entries, 2)
}

func TestMergePrecedenceIsInsertionOrder(t *testing.T) {
	svc := newTestService(t)

	// Dated first: the later undated duplicate is ignored.
	_, err := svc.Merge("someuser", []models.Entry{dated("Oldboy", "2024-03-15")})
	require.NoError(t, err)
	added, err := svc.Merge("someuser", []models.Entry{undated("OLDBOY")})
	require.NoError(t, err)
	assert.Empty(t, added)

	col, _ := svc.Snapshot("someuser")
	require.Len(t, col.Entries, 1)
	require.NotNil(t, col.Entries[0].Date)
	assert.Equal(t, "2024-03-15", *col.Entries[0].Date)

	// Undated first: precedence is strictly first-write-wins, never
	// date-aware after the fact.
	require.NoError(t, svc.Reset("someuser"))
	_, err = svc.Merge("someuser", []models.Entry{undated("Oldboy")})
	require.NoError(t, err)
	added, err = svc.Merge("someuser", []models.Entry{dated("Oldboy", "2024-03-15")})
	require.NoError(t, err)
	assert.Empty(t, added)

	col, _ = svc.Snapshot("someuser")
	require.Len(t, col.Entries, 1)
	assert.Nil(t, col.Entries[0].Date)
}

func TestResetClearsCollection(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Merge("someuser", []models.Entry{dated("Heat", "2024-01-01")})
	require.NoError(t, err)

	require.NoError(t, svc.Reset("someuser"))

	col, _ := svc.Snapshot("someuser")
	assert.Empty(t, col.Entries)
}

func TestMergeRequiresUsername(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Merge("  ", nil)
	assert.ErrorIs(t, err, ErrUsernameRequired)
}

func TestCollectionsAreKeyedPerUsername(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Merge("alice", []models.Entry{dated("Heat", "2024-01-01")})
	require.NoError(t, err)
	_, err = svc.Merge("bob", []models.Entry{dated("Ran", "2024-02-01")})
	require.NoError(t, err)

	aliceCol, _ := svc.Snapshot("alice")
	bobCol, _ := svc.Snapshot("bob")
	require.Len(t, aliceCol.Entries, 1)
	require.Len(t, bobCol.Entries, 1)
	assert.Equal(t, "Heat", aliceCol.Entries[0].Title)
	assert.Equal(t, "Ran", bobCol.Entries[0].Title)
	assert.Equal(t, "bob", svc.ActiveUsername())
}

func TestApplyHydrationSkipsHydratedEntries(t *testing.T) {
	svc := newTestService(t)
	entry := dated("Oldboy", "2024-03-15")
	_, err := svc.Merge("someuser", []models.Entry{entry})
	require.NoError(t, err)

	hydrated := entry
	hydrated.Genre = []string{"Thriller"}
	hydrated.PosterURL = "https://image.test/oldboy.jpg"
	hydrated.ReleaseDate = "2003-11-21"
	require.NoError(t, svc.ApplyHydration("someuser", []models.Entry{hydrated}))

	col, _ := svc.Snapshot("someuser")
	require.Len(t, col.Entries, 1)
	assert.Equal(t, []string{"Thriller"}, col.Entries[0].Genre)
	assert.Equal(t, "https://image.test/oldboy.jpg", col.Entries[0].PosterURL)

	// A second hydration pass must not overwrite authoritative data.
	stale := entry
	stale.Genre = []string{"Drama"}
	stale.PosterURL = "https://image.test/other.jpg"
	require.NoError(t, svc.ApplyHydration("someuser", []models.Entry{stale}))

	col, _ = svc.Snapshot("someuser")
	assert.Equal(t, []string{"Thriller"}, col.Entries[0].Genre)
}

func TestPersistenceRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc, err := NewService(fs, "data")
	require.NoError(t, err)

	_, err = svc.Merge("someuser", []models.Entry{dated("Heat", "2024-01-01")})
	require.NoError(t, err)

	reloaded, err := NewService(fs, "data")
	require.NoError(t, err)

	col, _ := reloaded.Snapshot("someuser")
	require.Len(t, col.Entries, 1)
	assert.Equal(t, "Heat", col.Entries[0].Title)
	assert.Equal(t, "someuser", reloaded.ActiveUsername())
}

func TestAvailableYears(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Merge("someuser", []models.Entry{
		dated("Heat", "2023-05-01"),
		dated("Ran", "2024-02-01"),
		undated("Alien"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2024", "2023"}, svc.AvailableYears("someuser"))
}
