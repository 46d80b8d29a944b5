package vulnlib

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

func MarshalRequests(requests []PackageRequest) ([]byte, error) {
	return json.Marshal(requests)
}

// UnmarshalReports decodes a batch response body. The body has to be a JSON
// array whose entries are all objects.
func UnmarshalReports(data []byte) ([]*PackageReport, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("package reports are not valid JSON")
	}

	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, errors.New("package reports are not a JSON array")
	}

	for i, entry := range parsed.Array() {
		if !entry.IsObject() {
			return nil, errors.Errorf("package report %d is not a JSON object: %s", i, entry.Raw)
		}
	}

	reports := []*PackageReport{}
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, errors.Wrap(err, "failed to decode package reports")
	}

	return reports, nil
}
