package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wikiroam/pkg/config"
	"wikiroam/pkg/db"
)

const (
	nearbyBody = `{"query":{"geosearch":[
		{"pageid":2,"ns":0,"title":"Fernsehturm","lat":52.5208,"lon":13.4094,"dist":210},
		{"pageid":1,"ns":0,"title":"Alexanderplatz","lat":52.5219,"lon":13.4132,"dist":42.1}
	]}}`
	detailBody = `{"query":{"pages":[{
		"pageid":3354,"ns":0,"title":"Brandenburg Gate",
		"extract":"<p>The <b>Brandenburg Gate</b> is an 18th-century monument.</p>",
		"thumbnail":{"source":"https://upload.example/Gate.jpg","width":320,"height":213},
		"coordinates":[{"lat":52.5163,"lon":13.3777,"primary":true,"globe":"earth"}],
		"fullurl":"https://en.wikipedia.org/wiki/Brandenburg_Gate"
	}]}}`
	imagesBody = `{"query":{"pages":[
		{"title":"File:Gate at night.jpg","imageinfo":[{"url":"https://upload.example/night.jpg","thumburl":"https://upload.example/800px-night.jpg","width":4000,"height":3000}]},
		{"title":"File:Commons-logo.svg","imageinfo":[{"url":"https://upload.example/logo.svg","width":1024,"height":1376}]}
	]}}`
	searchBody = `{"query":{"pages":[
		{"title":"Eiffel Tower (band)","index":1},
		{"title":"Eiffel Tower","index":2,"coordinates":[{"lat":48.8583,"lon":2.2945}]}
	]}}`
	emptySearchBody = `{"query":{"pages":[]}}`
)

// fakeWiki answers the MediaWiki queries the commands issue.
type fakeWiki struct {
	mu       sync.Mutex
	requests []*http.Request
	status   int
	search   string
}

func (f *fakeWiki) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r)
	status, search := f.status, f.search
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	q := r.URL.Query()
	body := `{"query":{}}`
	switch {
	case q.Get("list") == "geosearch":
		body = nearbyBody
	case q.Get("generator") == "images":
		body = imagesBody
	case q.Get("generator") == "search":
		body = search
		if body == "" {
			body = searchBody
		}
	case q.Get("pageids") != "":
		body = detailBody
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

// fail makes every later request answer with status.
func (f *fakeWiki) fail(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

func (f *fakeWiki) setSearch(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.search = body
}

func (f *fakeWiki) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeWiki) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r.URL.Path)
	}
	return out
}

type testApp struct {
	*app
	wiki   *fakeWiki
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func testThemes() *config.ThemesConfig {
	return &config.ThemesConfig{Themes: map[string][]config.ThemeLocation{
		"castles": {
			{Name: "Neuschwanstein", Lat: 47.5576, Lon: 10.7498},
			{Name: "Edinburgh Castle", Lat: 55.9486, Lon: -3.1999},
			{Name: "Himeji Castle", Lat: 34.8394, Lon: 134.6939, Zoom: 15},
		},
	}}
}

// newTestApp wires an app to a fake encyclopedia and a temporary database.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	fw := &fakeWiki{}
	ts := httptest.NewServer(fw)
	t.Cleanup(ts.Close)

	cfg := config.DefaultConfig()
	cfg.Wikipedia.Endpoint = ts.URL + "/%s/api.php"
	cfg.Request.Retries = 1
	cfg.Request.Timeout = config.Duration(5 * time.Second)
	cfg.Request.Backoff.BaseDelay = config.Duration(time.Millisecond)
	cfg.Request.Backoff.MaxDelay = config.Duration(10 * time.Millisecond)

	d, err := db.Init(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	a := newApp(cfg, d, testThemes())
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	a.out = stdout
	a.errOut = stderr
	t.Cleanup(a.Close)

	return &testApp{app: a, wiki: fw, stdout: stdout, stderr: stderr}
}
