package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kvesta/vulngate/pkg/coordinate"
	"github.com/kvesta/vulngate/pkg/depgraph"
	"github.com/kvesta/vulngate/pkg/vulnlib"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/json"
)

var links = vulnlib.Links{BaseURL: "https://ossindex.sonatype.org"}

func TestEvaluate(t *testing.T) {
	cve := "CVE-2014-0050"

	fileupload := coordinate.New(coordinate.Maven, "commons-fileupload", "commons-fileupload", "1.3")
	guava := coordinate.New(coordinate.Maven, "com.google.guava", "guava", "31.1-jre")

	reports := vulnlib.NewReportSet()
	reports.Put(fileupload, &vulnlib.PackageReport{
		ID:   7015420058,
		Name: "commons-fileupload",
		Vulnerabilities: []vulnlib.Vulnerability{
			{ID: 7019546446, Title: "[CVE-2014-0050]  Improper Input Validation", CVE: &cve},
			{ID: 7019546447, Title: "Deserialization of Untrusted Data"},
		},
	})
	reports.Put(guava, &vulnlib.PackageReport{ID: 1, Name: "guava", Vulnerabilities: []vulnlib.Vulnerability{}})

	origins := map[coordinate.Coordinate]depgraph.Artifact{
		fileupload: {GroupID: "commons-fileupload", ArtifactID: "commons-fileupload", Version: "1.3", Scope: "compile"},
		guava:      {GroupID: "com.google.guava", ArtifactID: "guava", Version: "31.1-jre", Scope: "compile"},
	}

	v := Evaluate(reports, origins, links)

	assert.False(t, v.Passed)
	assert.Equal(t, 2, v.Checked)
	require.Len(t, v.Findings, 1)
	assert.Equal(t, "CVE-2014-0050", v.Findings[0].Issues[0].CVE)

	want := "Detected 1 vulnerable dependencies:\n" +
		"  commons-fileupload:commons-fileupload:jar:1.3:compile; https://ossindex.sonatype.org/resource/package/7015420058\n" +
		"    * [CVE-2014-0050]  Improper Input Validation; https://ossindex.sonatype.org/resource/cve/7019546446\n" +
		"    * Deserialization of Untrusted Data; https://ossindex.sonatype.org/resource/vulnerability/7019546447\n"
	assert.Equal(t, want, v.Report)

	assert.NotContains(t, v.Report, "guava")
	assert.Error(t, v.Err())
}

func TestEvaluatePass(t *testing.T) {
	tests := []struct {
		name    string
		reports func() *vulnlib.ReportSet
		checked int
	}{
		{
			name:    "empty",
			reports: vulnlib.NewReportSet,
		},
		{
			name: "nil",
			reports: func() *vulnlib.ReportSet {
				return nil
			},
		},
		{
			name: "clean",
			reports: func() *vulnlib.ReportSet {
				s := vulnlib.NewReportSet()
				s.Put(coordinate.New(coordinate.Maven, "g", "a", "1"), &vulnlib.PackageReport{})
				// matches without a vulnerability list are tolerated
				s.Put(coordinate.New(coordinate.Maven, "g", "b", "1"), &vulnlib.PackageReport{VulnerabilityMatches: 3})
				return s
			},
			checked: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Evaluate(tt.reports(), nil, links)
			assert.True(t, v.Passed)
			assert.Empty(t, v.Report)
			assert.Equal(t, tt.checked, v.Checked)
			assert.NoError(t, v.Err())
		})
	}
}

func TestEvaluateWithoutOrigin(t *testing.T) {
	loose := coordinate.NewWithoutGroup(coordinate.Maven, "plain-lib", "1.2")

	reports := vulnlib.NewReportSet()
	reports.Put(loose, &vulnlib.PackageReport{ID: 9, Vulnerabilities: []vulnlib.Vulnerability{{ID: 10, Title: "XSS"}}})

	v := Evaluate(reports, nil, links)
	require.Len(t, v.Findings, 1)
	assert.Equal(t, "maven:plain-lib:1.2", v.Findings[0].Artifact)
	assert.True(t, strings.HasPrefix(v.Report, "Detected 1 vulnerable dependencies:\n  maven:plain-lib:1.2; "))
}

func TestEvaluateKeepsOrder(t *testing.T) {
	reports := vulnlib.NewReportSet()
	for _, name := range []string{"zeta", "alpha", "mu"} {
		reports.Put(coordinate.New(coordinate.Maven, "g", name, "1"), &vulnlib.PackageReport{
			Vulnerabilities: []vulnlib.Vulnerability{{Title: name}},
		})
	}

	v := Evaluate(reports, nil, links)
	require.Len(t, v.Findings, 3)

	zeta := strings.Index(v.Report, "zeta")
	alpha := strings.Index(v.Report, "alpha")
	mu := strings.Index(v.Report, "* mu")
	assert.True(t, zeta < alpha && alpha < mu, v.Report)
}

func TestResolveVerdicts(t *testing.T) {
	failed := &Verdict{
		Module:  "com.example:app:jar:1.0",
		Checked: 3,
		Findings: []Finding{{
			Artifact:   "commons-fileupload:commons-fileupload:jar:1.3",
			PackageURL: "https://ossindex.sonatype.org/resource/package/7015420058",
			Issues: []Issue{{
				Title:     "Improper Input Validation",
				CVE:       "CVE-2014-0050",
				Reference: "https://ossindex.sonatype.org/resource/cve/7019546446",
			}},
		}},
	}
	passed := Pass(2)
	passed.Module = "com.example:lib:jar:1.0"

	buf := &bytes.Buffer{}
	ResolveVerdicts(buf, []*Verdict{failed, passed})

	out := buf.String()
	assert.Contains(t, out, "com.example:app:jar:1.0")
	assert.Contains(t, out, "CVE-2014-0050")
	assert.Contains(t, out, "com.example:lib:jar:1.0")
}

func TestVerdictsToJson(t *testing.T) {
	outfile := filepath.Join(t.TempDir(), "reports", "result.json")

	passed := Pass(1)
	failed := &Verdict{Module: "m", Report: "Detected 1 vulnerable dependencies:\n"}

	filename, err := VerdictsToJson(outfile, []*Verdict{passed, failed})
	require.NoError(t, err)
	assert.Equal(t, outfile, filename)

	data, err := os.ReadFile(filename)
	require.NoError(t, err)

	doc := &Document{}
	require.NoError(t, json.Unmarshal(data, doc))
	assert.False(t, doc.Passed)
	require.Len(t, doc.Verdicts, 2)
	assert.Equal(t, "m", doc.Verdicts[1].Module)
}
