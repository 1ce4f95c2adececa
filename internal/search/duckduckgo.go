package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	duckDuckGoBaseURL = "https://duckduckgo.com"
	duckDuckGoTimeout = 10 * time.Second
)

// vqdPatterns locate the session token in the homepage HTML. The first
// form is the query-string one; the second is the quoted script form.
var vqdPatterns = []*regexp.Regexp{
	regexp.MustCompile(`vqd=([^&"']+)&`),
	regexp.MustCompile(`vqd=["']([^"']+)["']`),
}

type duckDuckGoResponse struct {
	Results []struct {
		Image string `json:"image"`
	} `json:"results"`
}

// DuckDuckGoProvider uses the two-step token + JSON image API. Any failure,
// including a missing session token, yields zero results instead of an error.
type DuckDuckGoProvider struct {
	client *Client
	log    logrus.FieldLogger

	// BaseURL defaults to https://duckduckgo.com
	BaseURL string
	// RequestTimeout bounds each of the two requests separately
	RequestTimeout time.Duration
}

// NewDuckDuckGoProvider creates a DuckDuckGo provider
func NewDuckDuckGoProvider(client *Client) *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		client:         client,
		log:            client.log,
		BaseURL:        duckDuckGoBaseURL,
		RequestTimeout: duckDuckGoTimeout,
	}
}

// Name returns the engine name
func (d *DuckDuckGoProvider) Name() string {
	return DuckDuckGo.String()
}

// Search never returns an error
func (d *DuckDuckGoProvider) Search(ctx context.Context, text string, f Filters) ([]string, error) {
	log := d.log.WithField("engine", d.Name())
	base := strings.TrimRight(d.BaseURL, "/")

	token, err := d.resolveToken(ctx, base, text)
	if err != nil {
		log.WithError(err).Warn("session token not resolved, returning no results")
		return []string{}, nil
	}

	params := url.Values{}
	params.Set("l", "us-en")
	params.Set("o", "json")
	params.Set("q", text)
	params.Set("vqd", token)
	params.Set("f", ",,,")
	if f.SafeSearch {
		params.Set("p", "1")
	} else {
		params.Set("p", "-1")
	}

	headers := http.Header{}
	headers.Set("Referer", base+"/")
	apiCtx, cancel := context.WithTimeout(ctx, d.RequestTimeout)
	defer cancel()
	p, err := d.client.get(apiCtx, d.Name(), base+"/i.js?"+params.Encode(), headers)
	if err != nil {
		log.WithError(err).Warn("image API request failed")
		return []string{}, nil
	}

	var resp duckDuckGoResponse
	if err := json.Unmarshal(p.body, &resp); err != nil {
		log.WithError(err).Warn("image API returned unexpected document")
		return []string{}, nil
	}

	c := newCollector()
	for _, r := range resp.Results {
		if !isAbsoluteHTTP(r.Image) {
			continue
		}
		if !c.add(r.Image) {
			break
		}
	}
	return c.result(), nil
}

// resolveToken posts the query to the homepage and extracts the vqd token
func (d *DuckDuckGoProvider) resolveToken(ctx context.Context, base, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.RequestTimeout)
	defer cancel()

	p, err := d.client.postForm(ctx, d.Name(), base+"/", url.Values{"q": {text}})
	if err != nil {
		return "", err
	}

	for _, re := range vqdPatterns {
		if m := re.FindSubmatch(p.body); m != nil {
			return string(m[1]), nil
		}
	}
	return "", scrapeErr(d.Name(), "vqd token not found")
}
