package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type capture struct {
	mu      sync.Mutex
	headers []http.Header
}

func (c *capture) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.headers = append(c.headers, r.Header.Clone())
		c.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (c *capture) last() http.Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.headers[len(c.headers)-1]
}

func send(t *testing.T, client *http.Client, url string, header http.Header) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()
}

func TestAuthAddsBearer(t *testing.T) {
	var c capture
	srv := c.server(t)
	client := &http.Client{Transport: Chain(srv.Client().Transport, Auth(staticToken("tok")))}

	send(t, client, srv.URL, nil)
	if got := c.last().Get("Authorization"); got != "Bearer tok" {
		t.Errorf("Authorization = %q", got)
	}

	send(t, client, srv.URL, http.Header{"Authorization": {"Bearer other"}})
	if got := c.last().Get("Authorization"); got != "Bearer other" {
		t.Errorf("explicit Authorization overwritten: %q", got)
	}
}

func TestAuthWithoutToken(t *testing.T) {
	var c capture
	srv := c.server(t)
	client := &http.Client{Transport: Chain(srv.Client().Transport, Auth(staticToken("")))}

	send(t, client, srv.URL, nil)
	if got := c.last().Get("Authorization"); got != "" {
		t.Errorf("Authorization = %q, want none", got)
	}
}

func TestRequestIDUniquePerRequest(t *testing.T) {
	var c capture
	srv := c.server(t)
	client := &http.Client{Transport: Chain(srv.Client().Transport, RequestID(), Logger())}

	send(t, client, srv.URL, nil)
	first := c.last().Get(RequestIDHeader)
	send(t, client, srv.URL, nil)
	second := c.last().Get(RequestIDHeader)

	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("request id %q is not a uuid: %v", first, err)
	}
	if first == second {
		t.Errorf("request id reused: %s", first)
	}

	send(t, client, srv.URL, http.Header{RequestIDHeader: {"fixed"}})
	if got := c.last().Get(RequestIDHeader); got != "fixed" {
		t.Errorf("explicit request id overwritten: %q", got)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}
	base := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		order = append(order, "base")
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "http://example.invalid/", nil)
	req.RequestURI = ""
	if _, err := Chain(base, mark("first"), mark("second")).RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}

	want := []string{"first", "second", "base"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
