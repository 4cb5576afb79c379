package scraper

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"statsboxd/models"
)

// SkipDiagnostic records why a single row or grid item was dropped during
// parsing. Skips are aggregated instead of silently swallowed so a sudden
// spike in the skip rate is visible when the source markup drifts.
type SkipDiagnostic struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// PageResult is the outcome of parsing one source page.
type PageResult struct {
	Entries []models.Entry   `json:"entries"`
	HasNext bool             `json:"hasNext"`
	Skipped []SkipDiagnostic `json:"skipped,omitempty"`
}

// filmsPageSelectors is the strategy cascade for locating poster items on a
// films page. The layout varies by account type, so each selector is tried
// in order and the first one that yields any matches wins. Markup drift only
// requires appending a new strategy here.
var filmsPageSelectors = []string{
	"li.griditem",
	"li.poster-container",
	".poster-list li",
}

// ParseDiaryPage extracts watch entries from a diary page. Diary rows carry
// exact watch dates; a row whose date cannot be parsed is still emitted with
// a nil date rather than dropped.
func ParseDiaryPage(page []byte) PageResult {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return PageResult{}
	}

	rows := doc.Find("tr.diary-entry-row")
	if rows.Length() == 0 {
		return PageResult{}
	}

	result := PageResult{HasNext: doc.Find("a.next").Length() > 0}

	rows.Each(func(i int, row *goquery.Selection) {
		title := strings.TrimSpace(row.Find("td.col-production .name a").First().Text())
		if title == "" {
			result.Skipped = append(result.Skipped, SkipDiagnostic{Index: i, Reason: "missing title"})
			return
		}

		entry := models.Entry{
			Title:  title,
			Year:   strings.TrimSpace(row.Find("td.col-releaseyear").First().Text()),
			Rating: ratingFromClasses(row.Find("td.col-rating span.rating").First()),
			Genre:  []string{models.UncategorizedGenre},
		}

		if href, ok := row.Find("td.col-daydate a").First().Attr("href"); ok {
			entry.Date = dateFromLinkPath(href)
		}

		result.Entries = append(result.Entries, entry)
	})

	return result
}

// ParseFilmsPage extracts entries from a films page (the all-watched poster
// grid). Films pages never carry watch dates.
func ParseFilmsPage(page []byte) PageResult {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return PageResult{}
	}

	result := PageResult{HasNext: doc.Find("a.next").Length() > 0}

	var items *goquery.Selection
	for _, selector := range filmsPageSelectors {
		items = doc.Find(selector)
		if items.Length() > 0 {
			break
		}
	}
	if items == nil || items.Length() == 0 {
		return result
	}

	items.Each(func(i int, li *goquery.Selection) {
		entry, reason := parseFilmsItem(li)
		if reason != "" {
			result.Skipped = append(result.Skipped, SkipDiagnostic{Index: i, Reason: reason})
			return
		}
		result.Entries = append(result.Entries, entry)
	})

	return result
}

func parseFilmsItem(li *goquery.Selection) (models.Entry, string) {
	var title, year string

	// Attribute name varies between the grid and list renderings of the
	// same page.
	div := li.Find("div[data-item-name]").First()
	if div.Length() == 0 {
		div = li.Find("div[data-film-name]").First()
	}
	if div.Length() == 0 {
		div = li.Find("div.film-poster").First()
	}

	if div.Length() > 0 {
		if v, ok := div.Attr("data-item-name"); ok {
			title = v
		} else if v, ok := div.Attr("data-film-name"); ok {
			title = v
		}
		if v, ok := div.Attr("data-film-release-year"); ok {
			year = v
		}
	}
	if title == "" {
		if alt, ok := li.Find("img").First().Attr("alt"); ok {
			title = alt
		}
	}

	title = strings.TrimSpace(title)
	if title == "" || title == "Unknown" {
		return models.Entry{}, "unresolved title"
	}

	title, year = splitTrailingYear(title, year)

	entry := models.Entry{
		Title:  title,
		Year:   strings.TrimSpace(year),
		Rating: ratingFromClasses(li.Find("p.poster-viewingdata span.rating").First()),
		Genre:  []string{models.UncategorizedGenre},
	}
	return entry, ""
}

// splitTrailingYear strips a "(YYYY)" suffix from the title, using it as the
// release year when no year attribute was found.
func splitTrailingYear(title, year string) (string, string) {
	if !strings.HasSuffix(title, ")") {
		return title, year
	}
	open := strings.LastIndex(title, "(")
	if open < 0 {
		return title, year
	}
	candidate := title[open+1 : len(title)-1]
	if len(candidate) != 4 || !isDigits(candidate) {
		return title, year
	}
	if year == "" {
		year = candidate
	}
	return strings.TrimSpace(title[:open]), year
}

// ratingFromClasses extracts a half-star rating from a rating element's
// rated-<n> class token, where the rating equals n/2. A missing element or
// token yields 0 (unrated).
func ratingFromClasses(sel *goquery.Selection) float64 {
	if sel == nil || sel.Length() == 0 {
		return 0
	}
	classes, ok := sel.Attr("class")
	if !ok {
		return 0
	}
	for _, cls := range strings.Fields(classes) {
		if !strings.HasPrefix(cls, "rated-") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(cls, "rated-"))
		if err != nil {
			continue
		}
		return float64(n) / 2.0
	}
	return 0
}

// dateFromLinkPath recovers a watch date from a diary anchor's link path.
// The path segments are scanned right-to-left for the first 4-digit numeric
// segment (the year); the segments immediately following it, if numeric, are
// month and day (defaulting to 1). Returns nil when no date can be parsed.
func dateFromLinkPath(href string) *string {
	parts := strings.Split(strings.Trim(href, "/"), "/")

	yearIdx := -1
	for i := len(parts) - 1; i >= 0; i-- {
		if len(parts[i]) == 4 && isDigits(parts[i]) {
			yearIdx = i
			break
		}
	}
	if yearIdx < 0 {
		return nil
	}

	year, _ := strconv.Atoi(parts[yearIdx])
	month, day := 1, 1
	if yearIdx+1 < len(parts) && isDigits(parts[yearIdx+1]) {
		month, _ = strconv.Atoi(parts[yearIdx+1])
		if yearIdx+2 < len(parts) && isDigits(parts[yearIdx+2]) {
			day, _ = strconv.Atoi(parts[yearIdx+2])
		}
	}

	// time.Date normalizes out-of-range components, so round-trip the
	// values to reject paths like /2024/13/40/.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return nil
	}

	date := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	return &date
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
