package vulnlib

import (
	"encoding/json"
	"time"

	"github.com/kvesta/vulngate/pkg/coordinate"

	"github.com/pkg/errors"
)

// PackageRequest is one entry of the batch package report request body.
// Group is left out of the JSON entirely when the coordinate has none.
type PackageRequest struct {
	Format  string  `json:"pm"`
	Group   *string `json:"group,omitempty"`
	Name    string  `json:"name"`
	Version string  `json:"version"`
}

func NewPackageRequest(c coordinate.Coordinate) PackageRequest {
	r := PackageRequest{
		Format:  c.Ecosystem(),
		Name:    c.Name(),
		Version: c.Version(),
	}
	if group, ok := c.Group(); ok {
		r.Group = &group
	}
	return r
}

// PackageReport holds the vulnerability findings for one package.
// Reports are shared between lookups through the cache and must be treated
// as read-only once decoded.
type PackageReport struct {
	ID                   int64           `json:"id"`
	Format               string          `json:"pm"`
	Group                *string         `json:"group,omitempty"`
	Name                 string          `json:"name"`
	Version              string          `json:"version"`
	VulnerabilityTotal   int             `json:"vulnerability-total"`
	VulnerabilityMatches int             `json:"vulnerability-matches"`
	Vulnerabilities      []Vulnerability `json:"vulnerabilities"`
}

// Vulnerable reports whether any vulnerability matched the package version.
// VulnerabilityMatches is not consulted; upstream counts may disagree with
// the list itself.
func (r *PackageReport) Vulnerable() bool {
	return r != nil && len(r.Vulnerabilities) > 0
}

// Vulnerability details.
type Vulnerability struct {
	ID          int64             `json:"id"`
	Resource    string            `json:"resource,omitempty"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Versions    []string          `json:"versions"`
	References  []string          `json:"references"`
	Published   Timestamp         `json:"published"`
	Updated     Timestamp         `json:"updated"`
	CVE         *string           `json:"cve,omitempty"`
	IDs         map[string]string `json:"ids,omitempty"`
}

// Timestamp is a point in time carried as epoch milliseconds on the wire.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}

	var millis int64
	if err := json.Unmarshal(data, &millis); err != nil {
		return errors.Wrapf(err, "timestamp %s is not epoch milliseconds", data)
	}

	t.Time = time.UnixMilli(millis).UTC()
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UnixMilli())
}
