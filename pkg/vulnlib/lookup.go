package vulnlib

import (
	"context"
	"fmt"
	"time"

	"github.com/kvesta/vulngate/pkg/coordinate"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Lookup resolves a package report for every coordinate. Cached reports are
// reused; the remaining coordinates are fetched in a single request and
// cached. The result follows the order of coords.
//
// Any failure of the remote request fails the whole call with an
// *UpstreamError; cached reports are not returned in that case, use Cached
// for a best-effort view.
func (c *Client) Lookup(ctx context.Context, coords []coordinate.Coordinate) (*ReportSet, error) {
	if len(coords) == 0 {
		return nil, ErrInvalidArgument
	}

	coords = lo.Uniq(coords)
	logrus.Debugf("Requesting %d package-reports", len(coords))

	resolved := make(map[coordinate.Coordinate]*PackageReport, len(coords))
	uncached := []coordinate.Coordinate{}

	for _, co := range coords {
		if report, ok := c.cache.Get(co); ok {
			logrus.Debugf("Found cached report for: %s", co)
			c.metrics.CacheHits.Inc()
			resolved[co] = report
			continue
		}

		c.metrics.CacheMisses.Inc()
		uncached = append(uncached, co)
	}

	if len(uncached) > 0 {
		fetched, err := c.request(ctx, uncached)
		if err != nil {
			return nil, err
		}

		c.cache.PutAll(fetched.Map())
		for co, report := range fetched.All() {
			resolved[co] = report
		}
	}

	result := NewReportSet()
	for _, co := range coords {
		result.Put(co, resolved[co])
	}

	return result, nil
}

// Cached returns the reports currently cached for coords, without any
// network traffic.
func (c *Client) Cached(coords []coordinate.Coordinate) *ReportSet {
	result := NewReportSet()
	for _, co := range lo.Uniq(coords) {
		if report, ok := c.cache.Get(co); ok {
			result.Put(co, report)
		}
	}
	return result
}

// request posts one batch and correlates the response with coords.
func (c *Client) request(ctx context.Context, coords []coordinate.Coordinate) (*ReportSet, error) {
	logrus.Debugf("Requesting %d uncached package-reports", len(coords))
	c.metrics.BatchSize.Observe(float64(len(coords)))

	requests := lo.Map(coords, func(co coordinate.Coordinate, _ int) PackageRequest {
		return NewPackageRequest(co)
	})

	body, err := MarshalRequests(requests)
	if err != nil {
		c.metrics.Requests.WithLabelValues(resultError).Inc()
		return nil, &UpstreamError{Err: errors.Wrap(err, "failed to encode package requests")}
	}

	start := time.Now()
	resp, err := c.cli.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBodyBytes(body).
		Post(packagePath)
	c.metrics.RequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.Requests.WithLabelValues(resultError).Inc()
		return nil, &UpstreamError{Err: errors.Wrap(err, "failed to request package reports")}
	}

	if !resp.IsSuccessState() {
		c.metrics.Requests.WithLabelValues(resultError).Inc()
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response; status: %d, body: %s", resp.StatusCode, resp.String()),
		}
	}

	data, err := resp.ToBytes()
	if err != nil {
		c.metrics.Requests.WithLabelValues(resultError).Inc()
		return nil, &UpstreamError{Err: errors.Wrap(err, "failed to read package reports")}
	}

	reports, err := UnmarshalReports(data)
	if err != nil {
		c.metrics.Requests.WithLabelValues(resultError).Inc()
		return nil, &UpstreamError{Err: err}
	}

	result, err := Correlate(coords, reports)
	if err != nil {
		c.metrics.Requests.WithLabelValues(resultSizeMismatch).Inc()
		return nil, &UpstreamError{Err: err}
	}

	c.metrics.Requests.WithLabelValues(resultOK).Inc()
	return result, nil
}
