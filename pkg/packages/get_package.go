package packages

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Stdin is the path that reads the input from standard input.
const Stdin = "-"

// Load reads every module of kind found in path.
func Load(kind Kind, path string) ([]*Module, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}

	return Parse(kind, path, data)
}

// Parse reads every module of kind from data. source names the input.
func Parse(kind Kind, source string, data []byte) ([]*Module, error) {
	logrus.Debugf("Parsing %s input: %s", kind, source)

	switch kind {
	case KindTree:
		root, err := ParseTree(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", source)
		}
		return []*Module{{Source: source, Root: root}}, nil

	case KindMaven:
		roots, err := ParseMavenTree(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", source)
		}

		modules := make([]*Module, 0, len(roots))
		for _, root := range roots {
			modules = append(modules, &Module{Source: source, Root: root})
		}
		return modules, nil

	case KindJar:
		root, err := ReadJar(bytes.NewReader(data), int64(len(data)), filepath.Base(source))
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", source)
		}
		return []*Module{{Source: source, Root: root}}, nil

	default:
		return nil, errors.Errorf("unknown input kind %q", kind)
	}
}

func readInput(path string) ([]byte, error) {
	if path == Stdin {
		data, err := io.ReadAll(os.Stdin)
		return data, errors.Wrap(err, "read standard input")
	}

	data, err := os.ReadFile(path)
	return data, errors.Wrapf(err, "read %s", path)
}
