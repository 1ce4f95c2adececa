package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const googlePage = `<html><body>
<img src="https://www.google.com/logo.png">
<img src="/relative.png">
<img data-src="https://cdn.example.com/a.jpg">
<img src="" data-iurl="https://cdn.example.com/b.png">
<img src="https://cdn.example.com/a.jpg">
<script>AF_initDataCallback({data:[["https://img.example.org/full1.jpg",1024,768],
["https://cdn.example.com/a.jpg", 640, 480],["https://img.example.org/full2.webp",800,600]]});</script>
</body></html>`

func newTestClient() *Client {
	return NewClient(nil)
}

func TestGoogleProvider_Search(t *testing.T) {
	var gotQuery map[string][]string
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		gotQuery = r.URL.Query()
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		fmt.Fprint(w, googlePage)
	}))
	defer srv.Close()

	g := NewGoogleProvider(newTestClient())
	g.BaseURL = srv.URL

	urls, err := g.Search(context.Background(), "red cars", Filters{Size: Large, Color: Red, SafeSearch: true})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://cdn.example.com/a.jpg",
		"https://cdn.example.com/b.png",
		"https://img.example.org/full1.jpg",
		"https://img.example.org/full2.webp",
	}, urls)

	assert.Equal(t, "red cars", gotQuery["q"][0])
	assert.Equal(t, "isch", gotQuery["tbm"][0])
	assert.Equal(t, "isz:l,ic:specific,isc:red", gotQuery["tbs"][0])
	assert.Equal(t, "active", gotQuery["safe"][0])
	assert.Equal(t, UserAgent, gotUA)
	assert.NotEmpty(t, gotLang)
}

func TestGoogleProvider_BuildURLWithoutFilters(t *testing.T) {
	g := NewGoogleProvider(newTestClient())
	u := g.buildURL("cats", Filters{})
	assert.NotContains(t, u, "tbs=")
	assert.NotContains(t, u, "safe=")

	u = g.buildURL("cats", Filters{Color: Grayscale})
	assert.Contains(t, u, "tbs=ic%3Agray")
}

func TestGoogleProvider_ScriptDuplicatesAreNotAppended(t *testing.T) {
	g := NewGoogleProvider(newTestClient())
	body := []byte(`<img src="https://x.example/1.jpg">` +
		`<script>["https://x.example/1.jpg",10,10],["https://x.example/2.png",10,10],["https://x.example/2.png",5,5]</script>`)

	urls, err := g.extract(body)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x.example/1.jpg", "https://x.example/2.png"}, urls)
}

func TestGoogleProvider_Cap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&b, `<img src="https://x.example/%d.jpg">`, i)
	}
	g := NewGoogleProvider(newTestClient())

	urls, err := g.extract([]byte(b.String()))
	require.NoError(t, err)
	require.Len(t, urls, MaxResults)
	assert.Equal(t, "https://x.example/0.jpg", urls[0])
	assert.Equal(t, "https://x.example/49.jpg", urls[49])
}

func TestGoogleProvider_NoMatchesIsEmptyNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>nothing here</p></body></html>")
	}))
	defer srv.Close()

	g := NewGoogleProvider(newTestClient())
	g.BaseURL = srv.URL

	urls, err := g.Search(context.Background(), "void", Filters{})
	require.NoError(t, err)
	assert.NotNil(t, urls)
	assert.Empty(t, urls)
}

func TestGoogleProvider_BadStatusIsScrapeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGoogleProvider(newTestClient())
	g.BaseURL = srv.URL

	_, err := g.Search(context.Background(), "cats", Filters{})
	var se *ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "google", se.Engine)
	assert.Contains(t, err.Error(), "429")
}

func TestGoogleProvider_CustomScriptPattern(t *testing.T) {
	g := NewGoogleProvider(newTestClient())
	g.ScriptPattern = nil

	urls, err := g.extract([]byte(`<script>["https://x.example/1.jpg",10,10]</script>`))
	require.NoError(t, err)
	assert.Empty(t, urls)
}

const bingPage = `<html><body>
<a class="iusc" m="{&quot;murl&quot;:&quot;https://media.example.com/1.jpg&quot;,&quot;turl&quot;:&quot;https://tse.example/t1&quot;}"></a>
<a class="iusc" m="not json"></a>
<a class="iusc" m="{&quot;turl&quot;:&quot;https://tse.example/t2&quot;}"></a>
<a class="iusc" m="{&quot;murl&quot;:&quot;https://media.example.com/2.png&quot;}"></a>
<img class="mimg" src="https://tse.example/thumb.jpg">
</body></html>`

func TestBingProvider_Search(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/search", r.URL.Path)
		gotQuery = r.URL.Query()
		fmt.Fprint(w, bingPage)
	}))
	defer srv.Close()

	b := NewBingProvider(newTestClient())
	b.BaseURL = srv.URL

	urls, err := b.Search(context.Background(), "sunset", Filters{Size: Medium, SafeSearch: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://media.example.com/1.jpg", "https://media.example.com/2.png"}, urls)
	assert.Equal(t, "sunset", gotQuery["q"][0])
	assert.Equal(t, "+filterui:imagesize-medium", gotQuery["qft"][0])
	assert.Equal(t, "strict", gotQuery["adlt"][0])
}

func TestBingProvider_FallbackToThumbnails(t *testing.T) {
	b := NewBingProvider(newTestClient())
	urls, err := b.extract([]byte(`<a class="iusc" m="{}"></a>
<img class="mimg" src="https://tse.example/1.jpg">
<img class="mimg" src="data:image/gif;base64,R0lGOD" data-src="https://tse.example/2.jpg">
<img class="mimg" data-src="https://tse.example/3.jpg">
<img class="other" src="https://tse.example/4.jpg">`))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://tse.example/1.jpg", "https://tse.example/3.jpg"}, urls)
}

func TestBingProvider_SkipsNonHTTPMediaURLs(t *testing.T) {
	b := NewBingProvider(newTestClient())
	urls, err := b.extract([]byte(`<a class="iusc" m='{"murl":"/th?id=abc"}'></a>
<a class="iusc" m='{"murl":"javascript:x"}'></a>
<a class="iusc" m='{"murl":"https://media.example.com/ok.jpg"}'></a>`))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://media.example.com/ok.jpg"}, urls)
}

func TestBingProvider_Empty(t *testing.T) {
	b := NewBingProvider(newTestClient())
	urls, err := b.extract([]byte(`<html></html>`))
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func newDuckDuckGoServer(t *testing.T, homepage string, api string, apiCalls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "kittens", r.PostForm.Get("q"))
			fmt.Fprint(w, homepage)
		case r.Method == http.MethodGet && r.URL.Path == "/i.js":
			atomic.AddInt32(apiCalls, 1)
			assert.Equal(t, "3-123456789", r.URL.Query().Get("vqd"))
			assert.Equal(t, ",,,", r.URL.Query().Get("f"))
			assert.NotEmpty(t, r.Header.Get("Referer"))
			fmt.Fprint(w, api)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestDuckDuckGoProvider_Search(t *testing.T) {
	var calls int32
	srv := newDuckDuckGoServer(t,
		`<script>nrj('/d.js?q=kittens&vqd=3-123456789&kl=wt-wt');</script>`,
		`{"results":[{"image":"https://i.example/1.jpg"},{"image":""},{"image":"https://i.example/2.jpg"}]}`,
		&calls)
	defer srv.Close()

	d := NewDuckDuckGoProvider(newTestClient())
	d.BaseURL = srv.URL

	urls, err := d.Search(context.Background(), "kittens", Filters{SafeSearch: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://i.example/1.jpg", "https://i.example/2.jpg"}, urls)
	assert.EqualValues(t, 1, calls)
}

func TestDuckDuckGoProvider_SkipsNonHTTPImages(t *testing.T) {
	var calls int32
	srv := newDuckDuckGoServer(t,
		`vqd=3-123456789&`,
		`{"results":[{"image":"/relative.jpg"},{"image":"javascript:x"},{"image":"https://i.example/1.jpg"}]}`,
		&calls)
	defer srv.Close()

	d := NewDuckDuckGoProvider(newTestClient())
	d.BaseURL = srv.URL

	urls, err := d.Search(context.Background(), "kittens", Filters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://i.example/1.jpg"}, urls)
}

func TestDuckDuckGoProvider_TimeoutAppliesPerRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		if r.Method == http.MethodPost {
			fmt.Fprint(w, `vqd=3-123456789&`)
			return
		}
		fmt.Fprint(w, `{"results":[{"image":"https://i.example/1.jpg"}]}`)
	}))
	defer srv.Close()

	d := NewDuckDuckGoProvider(newTestClient())
	d.BaseURL = srv.URL
	// each step fits on its own, both together would not
	d.RequestTimeout = 250 * time.Millisecond

	urls, err := d.Search(context.Background(), "kittens", Filters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://i.example/1.jpg"}, urls)
}

func TestDuckDuckGoProvider_QuotedToken(t *testing.T) {
	var calls int32
	srv := newDuckDuckGoServer(t,
		`<script>var vqd="3-123456789";</script>`,
		`{"results":[{"image":"https://i.example/1.jpg"}]}`,
		&calls)
	defer srv.Close()

	d := NewDuckDuckGoProvider(newTestClient())
	d.BaseURL = srv.URL

	urls, err := d.Search(context.Background(), "kittens", Filters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://i.example/1.jpg"}, urls)
}

func TestDuckDuckGoProvider_MissingTokenIsEmpty(t *testing.T) {
	var calls int32
	srv := newDuckDuckGoServer(t, `<html>no token</html>`, `{}`, &calls)
	defer srv.Close()

	d := NewDuckDuckGoProvider(newTestClient())
	d.BaseURL = srv.URL

	urls, err := d.Search(context.Background(), "kittens", Filters{})
	require.NoError(t, err)
	assert.Empty(t, urls)
	assert.EqualValues(t, 0, calls, "image API must not be called without a token")
}

func TestDuckDuckGoProvider_BadJSONIsEmpty(t *testing.T) {
	var calls int32
	srv := newDuckDuckGoServer(t, `vqd=3-123456789&`, `<html>blocked</html>`, &calls)
	defer srv.Close()

	d := NewDuckDuckGoProvider(newTestClient())
	d.BaseURL = srv.URL

	urls, err := d.Search(context.Background(), "kittens", Filters{})
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestDuckDuckGoProvider_UnreachableIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	d := NewDuckDuckGoProvider(newTestClient())
	d.BaseURL = srv.URL

	urls, err := d.Search(context.Background(), "kittens", Filters{})
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestClient_CircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	b := NewBingProvider(newTestClient())
	b.BaseURL = url

	for i := 0; i < breakerFailures; i++ {
		_, err := b.Search(context.Background(), "x", Filters{})
		require.Error(t, err)
		assert.False(t, errors.Is(err, gobreaker.ErrOpenState))
	}

	_, err := b.Search(context.Background(), "x", Filters{})
	var se *ScrapeError
	require.ErrorAs(t, err, &se)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
}

func TestParseHelpers(t *testing.T) {
	e, err := ParseEngine("DDG")
	require.NoError(t, err)
	assert.Equal(t, DuckDuckGo, e)

	_, err = ParseEngine("altavista")
	assert.ErrorIs(t, err, ErrUnknownEngine)

	assert.Equal(t, Large, ParseSize("large"))
	assert.Equal(t, AnySize, ParseSize("huge"))
	assert.Equal(t, Transparent, ParseColor("Transparent"))
	assert.Equal(t, AnyColor, ParseColor(""))

	for _, e := range Engines {
		parsed, err := ParseEngine(e.String())
		require.NoError(t, err)
		assert.Equal(t, e, parsed)
	}
}
