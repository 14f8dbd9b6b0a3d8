package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Selectors for the models table, compiled once.
var (
	matchTable   = cascadia.MustCompile("table")
	matchBodyRow = cascadia.MustCompile("tbody tr")
	matchCell    = cascadia.MustCompile("td")
	matchLink    = cascadia.MustCompile("a")
	matchCode    = cascadia.MustCompile("code")
	matchSpan    = cascadia.MustCompile("span")
)

// minCells is the number of cells a data row must have; the context size
// lives in the fourth one.
const minCells = 4

// ExtractTableRows parses rendered page HTML and pulls raw model rows out
// of the first table, following the same rules as the in-page extraction
// script: rows with fewer than four cells are skipped, the name comes from
// the first cell's link, the identifier from its code element, the
// context from the fourth cell's span with thousands separators removed,
// and rows are deduplicated on the page by their lowercased key.
//
// The result has the loose shape expected by Normalize.
func ExtractTableRows(rawHTML string) ([]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}

	rows := []any{}
	table := doc.FindMatcher(matchTable).First()
	if table.Length() == 0 {
		return rows, nil
	}

	seen := make(map[string]struct{})
	table.FindMatcher(matchBodyRow).Each(func(_ int, tr *goquery.Selection) {
		cells := tr.FindMatcher(matchCell)
		if cells.Length() < minCells {
			return
		}

		first := cells.Eq(0)
		name := firstText(first, matchLink)
		id := firstText(first, matchCode)
		if name == "" && id != "" {
			name = id
		}

		context := strings.TrimSpace(strings.ReplaceAll(firstText(cells.Eq(3), matchSpan), ",", ""))

		key := strings.ToLower(id)
		if key == "" {
			key = strings.ToLower(name)
		}
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		rows = append(rows, map[string]any{
			"model":   name,
			"id":      id,
			"context": context,
		})
	})
	return rows, nil
}

func firstText(s *goquery.Selection, m goquery.Matcher) string {
	el := s.FindMatcher(m).First()
	if el.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(el.Text())
}
