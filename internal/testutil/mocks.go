package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// ImageData returns a decodable PNG big enough to pass the thumbnail
// size floor
func ImageData() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	rng := rand.New(rand.NewSource(1))
	for i := range img.Pix {
		img.Pix[i] = byte(rng.Intn(256))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// FakeEngine is an httptest server that answers like the Google image
// search page and serves the images it links to. Image paths listed in
// Broken answer with a 500.
type FakeEngine struct {
	Server *httptest.Server

	mu       sync.Mutex
	images   []string
	broken   map[string]bool
	requests []string
}

// NewFakeEngine starts a fake engine that lists n images
func NewFakeEngine(t *testing.T, n int) *FakeEngine {
	t.Helper()

	fe := &FakeEngine{broken: make(map[string]bool)}
	for i := 0; i < n; i++ {
		fe.images = append(fe.images, fmt.Sprintf("/img/%d.png", i))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/search", fe.serveSearch)
	mux.HandleFunc("/img/", fe.serveImage)
	fe.Server = httptest.NewServer(mux)
	t.Cleanup(fe.Server.Close)

	return fe
}

// URL returns the base URL of the fake engine
func (fe *FakeEngine) URL() string {
	return fe.Server.URL
}

// ImageURLs returns the absolute image URLs the search page lists
func (fe *FakeEngine) ImageURLs() []string {
	urls := make([]string, len(fe.images))
	for i, p := range fe.images {
		urls[i] = fe.Server.URL + p
	}
	return urls
}

// Break makes the image at index i answer with a server error
func (fe *FakeEngine) Break(i int) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	fe.broken[fe.images[i]] = true
}

// Requests returns the request paths seen so far
func (fe *FakeEngine) Requests() []string {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return append([]string(nil), fe.requests...)
}

func (fe *FakeEngine) record(r *http.Request) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	fe.requests = append(fe.requests, r.URL.Path)
}

func (fe *FakeEngine) serveSearch(w http.ResponseWriter, r *http.Request) {
	fe.record(r)

	var b strings.Builder
	b.WriteString("<html><body>")
	for _, u := range fe.ImageURLs() {
		fmt.Fprintf(&b, `<img src="%s">`, u)
	}
	b.WriteString("</body></html>")

	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(b.String()))
}

func (fe *FakeEngine) serveImage(w http.ResponseWriter, r *http.Request) {
	fe.record(r)

	fe.mu.Lock()
	broken := fe.broken[r.URL.Path]
	fe.mu.Unlock()

	if broken {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(ImageData())
}
