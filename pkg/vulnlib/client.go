package vulnlib

import (
	"net/url"
	"strings"
	"time"

	"github.com/kvesta/vulngate/pkg/cache"
	"github.com/kvesta/vulngate/pkg/coordinate"

	"github.com/imroc/req/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultURL     = "https://ossindex.sonatype.org"
	DefaultTimeout = 30 * time.Second

	packagePath = "/v2.0/package"
)

// ReportCache caches package reports by coordinate.
type ReportCache = cache.Cache[coordinate.Coordinate, *PackageReport]

func NewReportCache(size int, idle time.Duration) *ReportCache {
	return cache.New[coordinate.Coordinate, *PackageReport](size, idle)
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Proxy     string
	Insecure  bool
	UserAgent string
	Debug     bool

	// Cache is shared by every lookup of the client. Share one cache between
	// clients to share reports between them; nil creates a private cache.
	Cache   *ReportCache
	Metrics *Metrics
}

// Client looks up package reports in batches.
type Client struct {
	Links

	cli     *req.Client
	cache   *ReportCache
	metrics *Metrics
}

func New(o Options) (*Client, error) {
	baseURL := strings.TrimRight(o.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultURL
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid base url %q", baseURL)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}

	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cli := req.C().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetCommonHeader("Accept", "application/json").
		SetLogger(logrus.StandardLogger())

	if o.UserAgent != "" {
		cli.SetUserAgent(o.UserAgent)
	}
	if o.Proxy != "" {
		cli.SetProxyURL(o.Proxy)
	}
	if o.Insecure {
		cli.EnableInsecureSkipVerify()
	}
	if o.Debug {
		logrus.Debugf("running HTTP client in development mode")
		cli.DevMode()
	}

	c := &Client{
		Links:   Links{BaseURL: baseURL},
		cli:     cli,
		cache:   o.Cache,
		metrics: o.Metrics,
	}

	if c.cache == nil {
		c.cache = NewReportCache(cache.DefaultSize, cache.DefaultIdle)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}

	logrus.Debugf("Base URL: %s", baseURL)

	return c, nil
}

// Cache returns the report cache used by the client.
func (c *Client) Cache() *ReportCache {
	return c.cache
}
