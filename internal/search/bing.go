package search

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const bingBaseURL = "https://www.bing.com"

var (
	bingSizeCodes = map[SizeFilter]string{
		Large:  "+filterui:imagesize-large",
		Medium: "+filterui:imagesize-medium",
		Small:  "+filterui:imagesize-small",
	}
	bingColorCodes = map[ColorFilter]string{
		Grayscale:   "+filterui:color2-bw",
		Transparent: "+filterui:photo-transparent",
		Red:         "+filterui:color2-FGcls_RED",
		Blue:        "+filterui:color2-FGcls_BLUE",
		Green:       "+filterui:color2-FGcls_GREEN",
	}
)

// bingMeta is the JSON blob stored in the "m" attribute of result anchors
type bingMeta struct {
	MediaURL string `json:"murl"`
}

// BingProvider scrapes the Bing Images results page
type BingProvider struct {
	client *Client

	// BaseURL defaults to https://www.bing.com
	BaseURL string
}

// NewBingProvider creates a Bing Images provider
func NewBingProvider(client *Client) *BingProvider {
	return &BingProvider{client: client, BaseURL: bingBaseURL}
}

// Name returns the engine name
func (b *BingProvider) Name() string {
	return Bing.String()
}

func (b *BingProvider) buildURL(text string, f Filters) string {
	params := url.Values{}
	params.Set("q", text)

	qft := bingSizeCodes[f.Size] + bingColorCodes[f.Color]
	if qft != "" {
		params.Set("qft", qft)
	}
	if f.SafeSearch {
		params.Set("adlt", "strict")
	}

	return strings.TrimRight(b.BaseURL, "/") + "/images/search?" + params.Encode()
}

// Search reads media URLs from the anchors' metadata, falling back to the
// thumbnail <img> tags when no anchor carries one
func (b *BingProvider) Search(ctx context.Context, text string, f Filters) ([]string, error) {
	p, err := b.client.get(ctx, b.Name(), b.buildURL(text, f), nil)
	if err != nil {
		return nil, &ScrapeError{Engine: b.Name(), Cause: err}
	}
	if p.status != http.StatusOK {
		return nil, scrapeErr(b.Name(), "unexpected status %d", p.status)
	}

	return b.extract(p.body)
}

func (b *BingProvider) extract(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, scrapeErr(b.Name(), "failed to parse document: %w", err)
	}

	c := newCollector()
	doc.Find("a.iusc").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw, ok := s.Attr("m")
		if !ok {
			return true
		}
		var meta bingMeta
		if err := json.Unmarshal([]byte(raw), &meta); err != nil || !isAbsoluteHTTP(meta.MediaURL) {
			return true
		}
		return c.add(meta.MediaURL)
	})

	if len(c.urls) == 0 {
		doc.Find("img.mimg").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			src := firstAttr(s, "src", "data-src")
			if !isAbsoluteHTTP(src) {
				return true
			}
			return c.add(src)
		})
	}

	return c.result(), nil
}
