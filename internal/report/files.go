package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kvesta/vulngate/config"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/json"
)

// DefaultOutput selects a dated file under ./output.
const DefaultOutput = "output"

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func getOutputFile(outfile string) (string, error) {
	if outfile == DefaultOutput {
		pwd, _ := os.Getwd()
		folder := filepath.Join(pwd, DefaultOutput)
		if !exists(folder) {
			err := os.MkdirAll(folder, os.FileMode(0755))
			if err != nil {
				return "", err
			}
		}
		nowStamp := time.Now().Format("2006-01-02")
		file := filepath.Join(folder, fmt.Sprintf("%s.json", nowStamp))

		return file, nil
	}

	folder := filepath.Dir(outfile)
	if !exists(folder) {
		err := os.MkdirAll(folder, os.FileMode(0755))
		if err != nil {
			return "", err
		}
	}

	return outfile, nil
}

// Document is the JSON report of a check run.
type Document struct {
	Passed    bool       `json:"passed"`
	Verdicts  []*Verdict `json:"verdicts"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewDocument summarizes verdicts; it passes when all of them passed.
func NewDocument(verdicts []*Verdict) *Document {
	doc := &Document{Passed: true, Verdicts: verdicts, Timestamp: time.Now()}
	for _, v := range verdicts {
		if !v.Passed {
			doc.Passed = false
		}
	}
	return doc
}

// VerdictsToJson writes verdicts to outfile and returns the path written.
func VerdictsToJson(outfile string, verdicts []*Verdict) (string, error) {
	filename, err := getOutputFile(outfile)
	if err != nil {
		return "", errors.Wrap(err, "prepare output file")
	}

	data, err := json.Marshal(NewDocument(verdicts))
	if err != nil {
		return "", err
	}
	err = os.WriteFile(filename, data, 0644)
	if err != nil {
		return "", errors.Wrapf(err, "write %s", filename)
	}

	logrus.Infof("Output file is saved in: %s", config.Yellow(filename))

	return filename, nil
}
