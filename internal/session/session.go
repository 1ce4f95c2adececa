// Package session holds the state of one search as a value: the query, the
// ordered results and the user's selection. Every mutating method returns a
// new Session and leaves the receiver untouched, so background work can
// hold a snapshot while the interactive side moves on.
package session

import (
	"codeberg.org/snonux/galleryexplorer/internal/search"
)

// GridColumns is the number of result cards per grid row
const GridColumns = 4

// ImageResult is one search result. Index is its position in the result
// list and is the key used to correlate asynchronous thumbnail loads.
type ImageResult struct {
	URL   string
	Index int
}

// Grid returns the card placement of the result
func (r ImageResult) Grid() (row, col int) {
	return r.Index / GridColumns, r.Index % GridColumns
}

// Session is a search session snapshot
type Session struct {
	Query    search.Query
	Results  []ImageResult
	selected []bool
}

// New builds a session from the ordered URLs of a search. Indices are
// assigned densely as 0..N-1 and nothing is selected.
func New(q search.Query, urls []string) Session {
	results := make([]ImageResult, len(urls))
	for i, u := range urls {
		results[i] = ImageResult{URL: u, Index: i}
	}
	return Session{
		Query:    q,
		Results:  results,
		selected: make([]bool, len(urls)),
	}
}

// Len returns the number of results
func (s Session) Len() int {
	return len(s.Results)
}

// Result returns the result at index i
func (s Session) Result(i int) (ImageResult, bool) {
	if i < 0 || i >= len(s.Results) {
		return ImageResult{}, false
	}
	return s.Results[i], true
}

// IsSelected reports whether result i is checked
func (s Session) IsSelected(i int) bool {
	return i >= 0 && i < len(s.selected) && s.selected[i]
}

// SelectedCount returns the number of checked results
func (s Session) SelectedCount() int {
	n := 0
	for _, sel := range s.selected {
		if sel {
			n++
		}
	}
	return n
}

// AllSelected reports whether every result is checked. An empty session
// is never "all selected".
func (s Session) AllSelected() bool {
	return len(s.selected) > 0 && s.SelectedCount() == len(s.selected)
}

// SetSelected returns a session with result i checked or unchecked.
// Invalid indices leave the selection unchanged.
func (s Session) SetSelected(i int, on bool) Session {
	if i < 0 || i >= len(s.selected) || s.selected[i] == on {
		return s
	}
	next := s.withSelection()
	next.selected[i] = on
	return next
}

// Toggle returns a session with result i flipped
func (s Session) Toggle(i int) Session {
	return s.SetSelected(i, !s.IsSelected(i))
}

// ToggleAll selects everything unless everything is already selected, in
// which case it deselects everything.
func (s Session) ToggleAll() Session {
	target := !s.AllSelected()
	next := s.withSelection()
	for i := range next.selected {
		next.selected[i] = target
	}
	return next
}

// SelectedURLs returns the checked URLs in result order
func (s Session) SelectedURLs() []string {
	var urls []string
	for i, sel := range s.selected {
		if sel {
			urls = append(urls, s.Results[i].URL)
		}
	}
	return urls
}

// Clear returns an empty session for the same query
func (s Session) Clear() Session {
	return Session{Query: s.Query}
}

// withSelection copies the selection slice so the receiver stays unchanged
func (s Session) withSelection() Session {
	sel := make([]bool, len(s.selected))
	copy(sel, s.selected)
	s.selected = sel
	return s
}
