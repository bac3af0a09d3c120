package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type fakeResponse struct {
	Status int
	Body   string
}

// fakeBridge answers canned responses keyed by "METHOD /path" and records
// every request it sees
type fakeBridge struct {
	t    *testing.T
	srv  *httptest.Server
	user string

	mu        sync.Mutex
	responses map[string]fakeResponse
	requests  []recordedRequest
}

func newFakeBridge(t *testing.T) *fakeBridge {
	t.Helper()

	f := &fakeBridge{
		t:         t,
		user:      uuid.NewString(),
		responses: make(map[string]fakeResponse),
	}

	r := mux.NewRouter()
	r.Use(f.record)
	r.PathPrefix("/").HandlerFunc(f.respond)

	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

// host returns host:port, usable as a bridge IP address
func (f *fakeBridge) host() string {
	return strings.TrimPrefix(f.srv.URL, "http://")
}

// apiPath prefixes path with the authenticated API root
func (f *fakeBridge) apiPath(path string) string {
	return "/api/" + f.user + "/" + strings.TrimPrefix(path, "/")
}

func (f *fakeBridge) on(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method+" "+path] = fakeResponse{Status: status, Body: body}
}

func (f *fakeBridge) onAPI(method, path string, status int, body string) {
	f.on(method, f.apiPath(path), status, body)
}

func (f *fakeBridge) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeBridge) factory(opts ...Option) *TransportFactory {
	opts = append([]Option{
		WithHTTPClient(f.srv.Client()),
		WithDiscoveryURL(f.srv.URL + "/discovery"),
	}, opts...)
	return NewTransportFactory(opts...)
}

// bridge returns a bridge pointed at the fake, already carrying its user
func (f *fakeBridge) bridge() *Bridge {
	f.t.Helper()

	b, err := newBridgeFromIP(f.factory(), f.host())
	if err != nil {
		f.t.Fatalf("newBridgeFromIP: %v", err)
	}
	if _, err := b.WithUser(f.user); err != nil {
		f.t.Fatalf("WithUser: %v", err)
	}
	return b
}

func (f *fakeBridge) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *fakeBridge) respond(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	resp, ok := f.responses[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = io.WriteString(w, resp.Body)
}

const unsortedLights = `{
	"2": {"name": "Kitchen", "type": "Dimmable light", "modelid": "LWB010", "uniqueid": "00:17:88:01:00:aa:bb:02-0b"},
	"10": {"name": "Desk", "type": "Extended color light", "modelid": "LCT015", "uniqueid": "00:17:88:01:00:aa:bb:10-0b"},
	"1": {"name": "Hall", "type": "Extended color light", "modelid": "LCT015", "uniqueid": "00:17:88:01:00:aa:bb:01-0b"}
}`

const lightSuccess = `[{"success": {"/lights/1/state/on": true}}]`
