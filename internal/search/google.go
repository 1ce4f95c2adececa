package search

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const googleBaseURL = "https://www.google.com"

// googleScriptPattern matches ["<url>", width, height] triples in the
// inline script payload of the results page. The payload format is
// undocumented and changes without notice, so this is a best-effort
// heuristic; GoogleProvider.ScriptPattern can replace it.
var googleScriptPattern = regexp.MustCompile(`\["(https?://[^"]+\.(?:jpg|jpeg|png|gif|webp))",\s*\d+,\s*\d+\]`)

var (
	googleSizeCodes = map[SizeFilter]string{
		Large:  "isz:l",
		Medium: "isz:m",
		Small:  "isz:i",
	}
	googleColorCodes = map[ColorFilter]string{
		Grayscale:   "ic:gray",
		Transparent: "ic:trans",
		Red:         "ic:specific,isc:red",
		Blue:        "ic:specific,isc:blue",
		Green:       "ic:specific,isc:green",
	}
)

// GoogleProvider scrapes the Google Images results page
type GoogleProvider struct {
	client *Client

	// BaseURL defaults to https://www.google.com
	BaseURL string

	// ScriptPattern extracts full-resolution URLs from embedded scripts.
	// The first submatch must be the URL.
	ScriptPattern *regexp.Regexp
}

// NewGoogleProvider creates a Google Images provider
func NewGoogleProvider(client *Client) *GoogleProvider {
	return &GoogleProvider{
		client:        client,
		BaseURL:       googleBaseURL,
		ScriptPattern: googleScriptPattern,
	}
}

// Name returns the engine name
func (g *GoogleProvider) Name() string {
	return Google.String()
}

// buildURL embeds the query and filter codes into a results page URL
func (g *GoogleProvider) buildURL(text string, f Filters) string {
	params := url.Values{}
	params.Set("q", text)
	params.Set("tbm", "isch")

	var tbs []string
	if code, ok := googleSizeCodes[f.Size]; ok {
		tbs = append(tbs, code)
	}
	if code, ok := googleColorCodes[f.Color]; ok {
		tbs = append(tbs, code)
	}
	if len(tbs) > 0 {
		params.Set("tbs", strings.Join(tbs, ","))
	}
	if f.SafeSearch {
		params.Set("safe", "active")
	}

	return strings.TrimRight(g.BaseURL, "/") + "/search?" + params.Encode()
}

// Search fetches the results page and extracts image URLs from <img> tags
// first and from embedded script payloads second
func (g *GoogleProvider) Search(ctx context.Context, text string, f Filters) ([]string, error) {
	p, err := g.client.get(ctx, g.Name(), g.buildURL(text, f), nil)
	if err != nil {
		return nil, &ScrapeError{Engine: g.Name(), Cause: err}
	}
	if p.status != http.StatusOK {
		return nil, scrapeErr(g.Name(), "unexpected status %d", p.status)
	}

	return g.extract(p.body)
}

// extract parses a results page body
func (g *GoogleProvider) extract(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, scrapeErr(g.Name(), "failed to parse document: %w", err)
	}

	c := newCollector()
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := firstAttr(s, "src", "data-src", "data-iurl")
		if !isAbsoluteHTTP(src) || strings.Contains(src, "google") {
			return true
		}
		return c.add(src)
	})

	if g.ScriptPattern != nil {
		for _, m := range g.ScriptPattern.FindAllSubmatch(body, -1) {
			if len(m) < 2 {
				continue
			}
			if !c.add(string(m[1])) {
				break
			}
		}
	}

	return c.result(), nil
}

// firstAttr returns the first non-empty attribute among names
func firstAttr(s *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v, ok := s.Attr(name); ok && v != "" {
			return v
		}
	}
	return ""
}
