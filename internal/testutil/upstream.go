package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jmylchreest/aaradio/pkg/audioaddict"
)

// FakeUpstream is an httptest server that mimics the listen API of every
// service. It serves /<service>/<quality> directories and
// /<service>/<quality>/<key> source lists from the sample data.
type FakeUpstream struct {
	Server *httptest.Server

	requests atomic.Int32
	failing  atomic.Bool
}

// NewFakeUpstream starts a FakeUpstream that is closed when t finishes.
func NewFakeUpstream(t testing.TB) *FakeUpstream {
	t.Helper()

	f := &FakeUpstream{}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeUpstream) serveHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	if f.failing.Load() {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	svc := audioaddict.Service(parts[0])
	if !svc.Valid() || len(parts) < 2 || len(parts) > 3 {
		http.NotFound(w, r)
		return
	}

	var body any
	switch len(parts) {
	case 2:
		body = SampleDirectory(svc)
	case 3:
		key := parts[2]
		known := slices.ContainsFunc(Genres[svc], func(name string) bool { return ChannelKey(name) == key })
		if !known {
			http.NotFound(w, r)
			return
		}
		body = SampleSources(key, r.URL.RawQuery)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// Options points a client at the fake server for every service.
func (f *FakeUpstream) Options() []audioaddict.ClientOption {
	opts := []audioaddict.ClientOption{audioaddict.WithHTTPClient(f.Server.Client())}
	for _, id := range audioaddict.ServiceIDs() {
		opts = append(opts, audioaddict.WithBaseURL(id, f.Server.URL+"/"+id.String()))
	}
	return opts
}

// Requests returns the number of requests served so far.
func (f *FakeUpstream) Requests() int {
	return int(f.requests.Load())
}

// SetFailing makes every request answer 503 until reset.
func (f *FakeUpstream) SetFailing(failing bool) {
	f.failing.Store(failing)
}
