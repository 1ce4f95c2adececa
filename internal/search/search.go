package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MaxResults caps the number of URLs any provider returns
const MaxResults = 50

// Engine identifies one of the supported image search engines
type Engine int

const (
	Google Engine = iota
	Bing
	DuckDuckGo
)

// Engines lists all engines in display order
var Engines = []Engine{Google, Bing, DuckDuckGo}

func (e Engine) String() string {
	switch e {
	case Google:
		return "google"
	case Bing:
		return "bing"
	case DuckDuckGo:
		return "duckduckgo"
	default:
		return "unknown"
	}
}

// ParseEngine parses an engine name (case-insensitive)
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "google", "":
		return Google, nil
	case "bing":
		return Bing, nil
	case "duckduckgo", "ddg":
		return DuckDuckGo, nil
	default:
		return Google, fmt.Errorf("%w: %q", ErrUnknownEngine, s)
	}
}

// SizeFilter restricts results by image size
type SizeFilter int

const (
	AnySize SizeFilter = iota
	Large
	Medium
	Small
)

func (s SizeFilter) String() string {
	switch s {
	case Large:
		return "large"
	case Medium:
		return "medium"
	case Small:
		return "small"
	default:
		return "any"
	}
}

// ParseSize parses a size filter name. Unknown names mean AnySize.
func ParseSize(s string) SizeFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "large", "l":
		return Large
	case "medium", "m":
		return Medium
	case "small", "icon", "s":
		return Small
	default:
		return AnySize
	}
}

// ColorFilter restricts results by dominant color
type ColorFilter int

const (
	AnyColor ColorFilter = iota
	Grayscale
	Transparent
	Red
	Blue
	Green
)

func (c ColorFilter) String() string {
	switch c {
	case Grayscale:
		return "grayscale"
	case Transparent:
		return "transparent"
	case Red:
		return "red"
	case Blue:
		return "blue"
	case Green:
		return "green"
	default:
		return "any"
	}
}

// ParseColor parses a color filter name. Unknown names mean AnyColor.
func ParseColor(s string) ColorFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "grayscale", "gray", "bw":
		return Grayscale
	case "transparent":
		return Transparent
	case "red":
		return Red
	case "blue":
		return Blue
	case "green":
		return Green
	default:
		return AnyColor
	}
}

// Filters are the per-search options passed to a provider
type Filters struct {
	Size       SizeFilter
	Color      ColorFilter
	SafeSearch bool
}

// Query is one user-initiated search. It is passed by value and never
// modified after dispatch.
type Query struct {
	Text    string
	Engine  Engine
	Filters Filters
}

// Provider turns a query into an ordered list of absolute image URLs
type Provider interface {
	// Search returns at most MaxResults URLs in engine relevance order
	Search(ctx context.Context, text string, filters Filters) ([]string, error)

	// Name returns the engine name
	Name() string
}

var (
	// ErrEmptyQuery is returned for blank query text
	ErrEmptyQuery = errors.New("query text is empty")

	// ErrSearchInProgress is returned when a search is dispatched while
	// another one is still outstanding
	ErrSearchInProgress = errors.New("a search is already in progress")

	// ErrUnknownEngine is returned by ParseEngine
	ErrUnknownEngine = errors.New("unknown search engine")
)

// ScrapeError means the engine response could not be turned into results
type ScrapeError struct {
	Engine string
	Cause  error
}

func (e *ScrapeError) Error() string {
	return e.Engine + ": " + e.Cause.Error()
}

func (e *ScrapeError) Unwrap() error {
	return e.Cause
}

func scrapeErr(engine string, format string, args ...interface{}) error {
	return &ScrapeError{Engine: engine, Cause: fmt.Errorf(format, args...)}
}

// collector accumulates unique URLs in first-seen order up to MaxResults
type collector struct {
	urls []string
	seen map[string]struct{}
}

func newCollector() *collector {
	return &collector{seen: make(map[string]struct{})}
}

// add appends url unless it was already collected. It reports whether
// the collector still has room.
func (c *collector) add(url string) bool {
	if len(c.urls) >= MaxResults {
		return false
	}
	if _, dup := c.seen[url]; !dup {
		c.seen[url] = struct{}{}
		c.urls = append(c.urls, url)
	}
	return len(c.urls) < MaxResults
}

func (c *collector) result() []string {
	if c.urls == nil {
		return []string{}
	}
	return c.urls
}

func isAbsoluteHTTP(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
