package vulnlib

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kvesta/vulngate/pkg/coordinate"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIndex answers batch requests with one report per requested package,
// numbering reports by the order they were first requested.
type fakeIndex struct {
	calls    atomic.Int32
	lastBody atomic.Value

	// vulnerable names get a single vulnerability
	vulnerable map[string]bool
	// respond overrides the default handler when set
	respond func(w http.ResponseWriter, requests []PackageRequest)
}

func (f *fakeIndex) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)

	if r.Method != http.MethodPost || r.URL.Path != packagePath {
		http.NotFound(w, r)
		return
	}

	body, _ := io.ReadAll(r.Body)
	f.lastBody.Store(string(body))

	var requests []PackageRequest
	if err := json.Unmarshal(body, &requests); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if f.respond != nil {
		f.respond(w, requests)
		return
	}

	reports := make([]PackageReport, 0, len(requests))
	for i, req := range requests {
		report := PackageReport{
			ID:              int64(i + 1),
			Format:          req.Format,
			Group:           req.Group,
			Name:            req.Name,
			Version:         req.Version,
			Vulnerabilities: []Vulnerability{},
		}
		if f.vulnerable[req.Name] {
			report.VulnerabilityTotal = 1
			report.VulnerabilityMatches = 1
			report.Vulnerabilities = append(report.Vulnerabilities, Vulnerability{
				ID:    int64(100 + i),
				Title: "Remote Code Execution",
			})
		}
		reports = append(reports, report)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reports)
}

func newTestClient(t *testing.T, index http.Handler, metrics *Metrics) *Client {
	t.Helper()

	srv := httptest.NewServer(index)
	t.Cleanup(srv.Close)

	c, err := New(Options{
		BaseURL: srv.URL,
		Metrics: metrics,
	})
	require.NoError(t, err)
	return c
}

func TestLookupInvalidArgument(t *testing.T) {
	index := &fakeIndex{}
	c := newTestClient(t, index, nil)

	_, err := c.Lookup(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.Lookup(context.Background(), []coordinate.Coordinate{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, int32(0), index.calls.Load())
}

func TestLookup(t *testing.T) {
	index := &fakeIndex{vulnerable: map[string]bool{"struts2-core": true}}
	c := newTestClient(t, index, nil)

	struts := coordinate.New(coordinate.Maven, "org.apache.struts", "struts2-core", "2.3.15")
	guava := coordinate.New(coordinate.Maven, "com.google.guava", "guava", "31.1-jre")
	loose := coordinate.NewWithoutGroup(coordinate.Maven, "loose", "1.0")

	reports, err := c.Lookup(context.Background(), []coordinate.Coordinate{guava, struts, loose})
	require.NoError(t, err)

	assert.Equal(t, []coordinate.Coordinate{guava, struts, loose}, reports.Coordinates())

	report, ok := reports.Get(struts)
	require.True(t, ok)
	assert.True(t, report.Vulnerable())
	assert.Equal(t, "struts2-core", report.Name)

	report, ok = reports.Get(guava)
	require.True(t, ok)
	assert.False(t, report.Vulnerable())

	report, ok = reports.Get(loose)
	require.True(t, ok)
	assert.Nil(t, report.Group)

	body, _ := index.lastBody.Load().(string)
	assert.Contains(t, body, `{"pm":"maven","name":"loose","version":"1.0"}`)
	assert.Contains(t, body, `{"pm":"maven","group":"com.google.guava","name":"guava","version":"31.1-jre"}`)
}

func TestLookupIsIdempotent(t *testing.T) {
	index := &fakeIndex{}
	c := newTestClient(t, index, nil)

	coords := []coordinate.Coordinate{
		coordinate.New(coordinate.Maven, "a", "b", "1"),
		coordinate.New(coordinate.Maven, "a", "c", "1"),
	}

	first, err := c.Lookup(context.Background(), coords)
	require.NoError(t, err)
	assert.Equal(t, int32(1), index.calls.Load())

	second, err := c.Lookup(context.Background(), coords)
	require.NoError(t, err)
	assert.Equal(t, int32(1), index.calls.Load(), "second lookup must be served from the cache")

	assert.Equal(t, first.Map(), second.Map())
}

func TestLookupFetchesOnlyUncached(t *testing.T) {
	var requested atomic.Value
	index := &fakeIndex{}
	index.respond = func(w http.ResponseWriter, requests []PackageRequest) {
		requested.Store(requests)

		reports := make([]PackageReport, len(requests))
		for i, req := range requests {
			reports[i] = PackageReport{ID: int64(i), Format: req.Format, Group: req.Group, Name: req.Name, Version: req.Version}
		}
		_ = json.NewEncoder(w).Encode(reports)
	}
	c := newTestClient(t, index, nil)

	a := coordinate.New(coordinate.Maven, "g", "a", "1")
	b := coordinate.New(coordinate.Maven, "g", "b", "1")

	_, err := c.Lookup(context.Background(), []coordinate.Coordinate{a})
	require.NoError(t, err)

	reports, err := c.Lookup(context.Background(), []coordinate.Coordinate{a, b})
	require.NoError(t, err)
	assert.Equal(t, 2, reports.Len())
	assert.Equal(t, int32(2), index.calls.Load())

	last, _ := requested.Load().([]PackageRequest)
	require.Len(t, last, 1)
	assert.Equal(t, NewPackageRequest(b), last[0])
}

func TestLookupDeduplicates(t *testing.T) {
	index := &fakeIndex{}
	c := newTestClient(t, index, nil)

	a := coordinate.New(coordinate.Maven, "g", "a", "1")
	reports, err := c.Lookup(context.Background(), []coordinate.Coordinate{a, a, a})
	require.NoError(t, err)
	assert.Equal(t, 1, reports.Len())

	body, _ := index.lastBody.Load().(string)
	assert.Equal(t, 1, strings.Count(body, `"name":"a"`))
}

func TestLookupUpstreamStatus(t *testing.T) {
	index := &fakeIndex{}
	index.respond = func(w http.ResponseWriter, _ []PackageRequest) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}
	c := newTestClient(t, index, nil)

	coords := []coordinate.Coordinate{coordinate.New(coordinate.Maven, "g", "a", "1")}
	_, err := c.Lookup(context.Background(), coords)
	require.Error(t, err)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.Contains(t, err.Error(), "status: 429")
	assert.Contains(t, err.Error(), "rate limited")

	assert.Equal(t, 0, c.Cache().Len(), "failed lookups must not populate the cache")
}

func TestLookupSizeMismatch(t *testing.T) {
	index := &fakeIndex{}
	index.respond = func(w http.ResponseWriter, requests []PackageRequest) {
		_, _ = fmt.Fprint(w, `[{"id": 1, "pm": "maven", "name": "only-one", "version": "1"}]`)
	}
	c := newTestClient(t, index, nil)

	coords := []coordinate.Coordinate{
		coordinate.New(coordinate.Maven, "g", "a", "1"),
		coordinate.New(coordinate.Maven, "g", "b", "1"),
	}
	_, err := c.Lookup(context.Background(), coords)
	require.Error(t, err)

	var mismatch *SizeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 2, mismatch.Expected)
	assert.Equal(t, 1, mismatch.Actual)

	var upstream *UpstreamError
	assert.True(t, errors.As(err, &upstream))
}

func TestLookupMalformedBody(t *testing.T) {
	index := &fakeIndex{}
	index.respond = func(w http.ResponseWriter, _ []PackageRequest) {
		_, _ = fmt.Fprint(w, `{"not": "an array"}`)
	}
	c := newTestClient(t, index, nil)

	_, err := c.Lookup(context.Background(), []coordinate.Coordinate{coordinate.New(coordinate.Maven, "g", "a", "1")})

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Zero(t, upstream.StatusCode)
}

func TestLookupUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: url})
	require.NoError(t, err)

	_, err = c.Lookup(context.Background(), []coordinate.Coordinate{coordinate.New(coordinate.Maven, "g", "a", "1")})

	var upstream *UpstreamError
	assert.True(t, errors.As(err, &upstream))
}

func TestLookupSharedCache(t *testing.T) {
	index := &fakeIndex{}
	srv := httptest.NewServer(index)
	defer srv.Close()

	shared := NewReportCache(10, DefaultTimeout)

	first, err := New(Options{BaseURL: srv.URL, Cache: shared})
	require.NoError(t, err)
	second, err := New(Options{BaseURL: srv.URL, Cache: shared})
	require.NoError(t, err)

	coords := []coordinate.Coordinate{coordinate.New(coordinate.Maven, "g", "a", "1")}

	_, err = first.Lookup(context.Background(), coords)
	require.NoError(t, err)
	_, err = second.Lookup(context.Background(), coords)
	require.NoError(t, err)

	assert.Equal(t, int32(1), index.calls.Load())
}

func TestCached(t *testing.T) {
	index := &fakeIndex{}
	c := newTestClient(t, index, nil)

	a := coordinate.New(coordinate.Maven, "g", "a", "1")
	b := coordinate.New(coordinate.Maven, "g", "b", "1")

	assert.Equal(t, 0, c.Cached([]coordinate.Coordinate{a, b}).Len())

	_, err := c.Lookup(context.Background(), []coordinate.Coordinate{a})
	require.NoError(t, err)

	cached := c.Cached([]coordinate.Coordinate{a, b})
	assert.Equal(t, []coordinate.Coordinate{a}, cached.Coordinates())
	assert.Equal(t, int32(1), index.calls.Load())
}

func TestLookupMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	metrics := NewMetrics(reg)

	index := &fakeIndex{}
	c := newTestClient(t, index, metrics)

	coords := []coordinate.Coordinate{
		coordinate.New(coordinate.Maven, "g", "a", "1"),
		coordinate.New(coordinate.Maven, "g", "b", "1"),
	}

	_, err := c.Lookup(context.Background(), coords)
	require.NoError(t, err)
	_, err = c.Lookup(context.Background(), coords)
	require.NoError(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.CacheMisses))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.CacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Requests.WithLabelValues(resultOK)))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.Requests.WithLabelValues(resultError)))
}

func TestNewInvalidBaseURL(t *testing.T) {
	tests := []string{
		"ossindex.sonatype.org",
		"://broken",
	}
	for _, baseURL := range tests {
		_, err := New(Options{BaseURL: baseURL})
		assert.Error(t, err, baseURL)
	}
}

func TestNewDefaults(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, c.BaseURL)
	assert.NotNil(t, c.Cache())

	c, err = New(Options{BaseURL: "http://localhost:8081/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081", c.BaseURL)
}
