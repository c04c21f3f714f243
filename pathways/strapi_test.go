package pathways

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

type route func(q url.Values) (int, string)

// fakeStrapi serves canned collection responses keyed by endpoint and
// records every query it receives.
type fakeStrapi struct {
	mu      sync.Mutex
	routes  map[string]route
	queries map[string][]url.Values
	auth    []string
}

func newFakeStrapi(t *testing.T, routes map[string]route) (*fakeStrapi, *Client) {
	t.Helper()

	f := &fakeStrapi{routes: routes, queries: map[string][]url.Values{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	t.Cleanup(srv.Close)

	return f, NewClient(srv.URL+"/", "test-token", srv.Client())
}

func (f *fakeStrapi) serveHTTP(w http.ResponseWriter, r *http.Request) {
	endpoint := strings.TrimPrefix(r.URL.Path, "/api/")

	f.mu.Lock()
	f.queries[endpoint] = append(f.queries[endpoint], r.URL.Query())
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	handler, ok := f.routes[endpoint]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	status, body := handler(r.URL.Query())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func (f *fakeStrapi) lastQuery(endpoint string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	qs := f.queries[endpoint]
	if len(qs) == 0 {
		return nil
	}
	return qs[len(qs)-1]
}

func (f *fakeStrapi) requestCount(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries[endpoint])
}

// collection wraps raw JSON items in a Strapi response envelope.
func collection(total int, items ...string) route {
	return func(q url.Values) (int, string) {
		return http.StatusOK, envelope(q, total, items)
	}
}

func envelope(q url.Values, total int, items []string) string {
	page, _ := strconv.Atoi(q.Get("pagination[page]"))
	size, _ := strconv.Atoi(q.Get("pagination[pageSize]"))
	pageCount := 1
	if size > 0 && total > 0 {
		pageCount = (total + size - 1) / size
	}
	return fmt.Sprintf(`{"data":[%s],"meta":{"pagination":{"page":%d,"pageSize":%d,"pageCount":%d,"total":%d}}}`,
		strings.Join(items, ","), page, size, pageCount, total)
}

// numbered serves total generated records, paged per the request.
func numbered(total int) route {
	return func(q url.Values) (int, string) {
		page, _ := strconv.Atoi(q.Get("pagination[page]"))
		size, _ := strconv.Atoi(q.Get("pagination[pageSize]"))
		var items []string
		for i := (page - 1) * size; i < page*size && i < total; i++ {
			items = append(items, fmt.Sprintf(`{"id":%d,"code":"item_%d"}`, i, i))
		}
		return http.StatusOK, envelope(q, total, items)
	}
}

func status(code int) route {
	return func(url.Values) (int, string) {
		return code, `{"error":{"status":` + strconv.Itoa(code) + `}}`
	}
}
