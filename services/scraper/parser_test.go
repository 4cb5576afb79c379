package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const diaryPageHTML = `
<html><body>
<table>
  <tr class="diary-entry-row">
    <td class="col-daydate"><a href="/someuser/films/diary/for/2024/03/15/"></a></td>
    <td class="col-production"><h3 class="name"><a href="/film/oldboy/">Oldboy</a></h3></td>
    <td class="col-releaseyear"><span>2003</span></td>
    <td class="col-rating"><span class="rating rated-9"></span></td>
  </tr>
  <tr class="diary-entry-row">
    <td class="col-daydate"><a href="/someuser/films/diary/for/2024/03/"></a></td>
    <td class="col-production"><h3 class="name"><a href="/film/heat/">Heat</a></h3></td>
    <td class="col-releaseyear"><span>1995</span></td>
    <td class="col-rating"><span class="rating rated-7"></span></td>
  </tr>
  <tr class="diary-entry-row">
    <td class="col-daydate"><a href="/someuser/films/diary/for/this-month/"></a></td>
    <td class="col-production"><h3 class="name"><a href="/film/ran/">Ran</a></h3></td>
    <td class="col-releaseyear"><span>1985</span></td>
    <td class="col-rating"><span class="rating"></span></td>
  </tr>
  <tr class="diary-entry-row">
    <td class="col-daydate"><a href="/someuser/films/diary/for/2024/01/02/"></a></td>
    <td class="col-production"></td>
    <td class="col-releaseyear"></td>
    <td class="col-rating"></td>
  </tr>
</table>
<div class="pagination"><a class="next" href="/someuser/films/diary/page/2/">Older</a></div>
</body></html>`

func TestParseDiaryPage(t *testing.T) {
	result := ParseDiaryPage([]byte(diaryPageHTML))

	require.Len(t, result.Entries, 3)
	assert.True(t, result.HasNext)

	first := result.Entries[0]
	assert.Equal(t, "Oldboy", first.Title)
	assert.Equal(t, "2003", first.Year)
	assert.Equal(t, 4.5, first.Rating)
	require.NotNil(t, first.Date)
	assert.Equal(t, "2024-03-15", *first.Date)

	// Month-only path defaults the day to 1.
	second := result.Entries[1]
	assert.Equal(t, "Heat", second.Title)
	assert.Equal(t, 3.5, second.Rating)
	require.NotNil(t, second.Date)
	assert.Equal(t, "2024-03-01", *second.Date)

	// No 4-digit segment in the path: emitted anyway, undated and unrated.
	third := result.Entries[2]
	assert.Equal(t, "Ran", third.Title)
	assert.Nil(t, third.Date)
	assert.Equal(t, 0.0, third.Rating)

	// The title-less row is skipped with a diagnostic, not aborted.
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 3, result.Skipped[0].Index)
	assert.Equal(t, "missing title", result.Skipped[0].Reason)
}

func TestParseDiaryPageEmpty(t *testing.T) {
	result := ParseDiaryPage([]byte(`<html><body><p>not signed in</p></body></html>`))
	assert.Empty(t, result.Entries)
	assert.False(t, result.HasNext)
}

func TestParseDiaryPageInvalidDateComponents(t *testing.T) {
	page := `<table><tr class="diary-entry-row">
		<td class="col-daydate"><a href="/u/films/diary/for/2024/13/40/"></a></td>
		<td class="col-production"><h3 class="name"><a>Solaris</a></h3></td>
	</tr></table>`
	result := ParseDiaryPage([]byte(page))
	require.Len(t, result.Entries, 1)
	assert.Nil(t, result.Entries[0].Date)
}

const filmsGridHTML = `
<html><body>
<ul class="poster-list">
  <li class="griditem">
    <div data-item-name="Parasite" data-film-release-year="2019"></div>
    <p class="poster-viewingdata"><span class="rating rated-10"></span></p>
  </li>
  <li class="griditem">
    <div data-item-name="The Thing (1982)"></div>
  </li>
  <li class="griditem">
    <img alt="Stalker" src="/poster.jpg">
  </li>
  <li class="griditem">
    <span>not a film</span>
  </li>
</ul>
</body></html>`

func TestParseFilmsPageGridLayout(t *testing.T) {
	result := ParseFilmsPage([]byte(filmsGridHTML))

	require.Len(t, result.Entries, 3)
	assert.False(t, result.HasNext)

	first := result.Entries[0]
	assert.Equal(t, "Parasite", first.Title)
	assert.Equal(t, "2019", first.Year)
	assert.Equal(t, 5.0, first.Rating)
	assert.Nil(t, first.Date)

	// Parenthesized year is stripped from the title when no year attribute
	// was present.
	second := result.Entries[1]
	assert.Equal(t, "The Thing", second.Title)
	assert.Equal(t, "1982", second.Year)

	// Image alt fallback.
	assert.Equal(t, "Stalker", result.Entries[2].Title)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "unresolved title", result.Skipped[0].Reason)
}

func TestParseFilmsPageSelectorCascade(t *testing.T) {
	listLayout := `<ul>
		<li class="poster-container"><div data-film-name="Alien" data-film-release-year="1979"></div></li>
	</ul>
	<a class="next" href="/u/films/page/2/"></a>`

	result := ParseFilmsPage([]byte(listLayout))
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "Alien", result.Entries[0].Title)
	assert.Equal(t, "1979", result.Entries[0].Year)
	assert.True(t, result.HasNext)

	genericLayout := `<ul class="poster-list">
		<li><div class="film-poster"></div><img alt="Tokyo Story"></li>
	</ul>`

	result = ParseFilmsPage([]byte(genericLayout))
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "Tokyo Story", result.Entries[0].Title)
}

func TestDateFromLinkPath(t *testing.T) {
	cases := []struct {
		href string
		want string // "" means nil
	}{
		{"/u/films/diary/for/2024/03/15/", "2024-03-15"},
		{"/u/films/diary/for/2024/03/", "2024-03-01"},
		{"/u/films/diary/for/2024/", "2024-01-01"},
		{"/u/films/diary/for/recent/", ""},
		{"/2023/something/2024/05/", "2024-05-01"},
	}
	for _, tc := range cases {
		got := dateFromLinkPath(tc.href)
		if tc.want == "" {
			assert.Nil(t, got, "href %q", tc.href)
			continue
		}
		require.NotNil(t, got, "href %q", tc.href)
		assert.Equal(t, tc.want, *got, "href %q", tc.href)
	}
}

func TestRatingFromClassesMalformedToken(t *testing.T) {
	page := `<table><tr class="diary-entry-row">
		<td class="col-production"><h3 class="name"><a>Dune</a></h3></td>
		<td class="col-rating"><span class="rating rated-x"></span></td>
	</tr></table>`
	result := ParseDiaryPage([]byte(page))
	require.Len(t, result.Entries, 1)
	assert.Equal(t, 0.0, result.Entries[0].Rating)
}
