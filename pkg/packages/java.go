package packages

import (
	"archive/zip"
	"bufio"
	"bytes"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kvesta/vulngate/pkg/depgraph"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// nested archives are opened one level deep, as in Spring Boot or WAR
// layouts
const maxNesting = 1

var (
	libReg   = regexp.MustCompile(`^(.+?)-(\d+(?:\.\d+)*(?:[.-][0-9A-Za-z][0-9A-Za-z.-]*)?)\.(jar|war|ear)$`)
	NameRegs = []*regexp.Regexp{
		regexp.MustCompile(`Implementation-Title: (.*)`),
		regexp.MustCompile(`Start-Class: (.*)`),
		regexp.MustCompile(`Specification-Title: (.*)`),
	}
	manifestVersionReg = regexp.MustCompile(`Implementation-Version: (.*)`)
)

// ReadJar reads a JAR, WAR or EAR archive into a dependency tree. The root
// is the archive itself, named after its own pom.properties or else the file
// name. Other embedded pom.properties and nested libraries become its
// children.
func ReadJar(r io.ReaderAt, size int64, name string) (*depgraph.Node, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.Wrapf(err, "open archive %s", name)
	}

	return readArchive(zr, name, 0), nil
}

func readArchive(zr *zip.Reader, name string, nesting int) *depgraph.Node {
	root := &depgraph.Node{Artifact: archiveArtifact(name)}

	properties := []depgraph.Artifact{}
	libs := []*depgraph.Node{}
	manifest := ""

	for _, f := range zr.File {
		switch {
		case strings.HasSuffix(f.Name, "pom.properties"):
			artifact, err := parseProperties(f)
			if err != nil {
				logrus.Debugf("Skipping %s in %s: %v", f.Name, name, err)
				continue
			}
			properties = append(properties, artifact)

		case strings.HasSuffix(f.Name, "MANIFEST.MF"):
			manifest = readEntry(f)

		case strings.HasSuffix(f.Name, ".jar"):
			lib, err := parseLib(f, nesting)
			if err != nil {
				logrus.Debugf("Skipping %s in %s: %v", f.Name, name, err)
				continue
			}
			libs = append(libs, lib)

		default:
			// ignore
		}
	}

	if root.Artifact.Version == "" {
		if v := manifestVersionReg.FindStringSubmatch(manifest); len(v) > 1 {
			root.Artifact.Version = strings.TrimSpace(v[1])
		}
	}
	if root.Artifact.ArtifactID == "" {
		root.Artifact.ArtifactID = parseManifest(manifest)
	}

	self := selfProperties(properties, name, nesting > 0)
	for i, artifact := range properties {
		if i == self {
			root.Artifact.GroupID = artifact.GroupID
			root.Artifact.ArtifactID = artifact.ArtifactID
			root.Artifact.Version = artifact.Version
			continue
		}
		root.Children = append(root.Children, &depgraph.Node{Artifact: artifact})
	}
	root.Children = append(root.Children, libs...)

	return root
}

// selfProperties returns the index of the pom.properties describing the
// archive itself, or -1. It is the one whose artifactId-version prefixes the
// file name. A bundled library with a single pom.properties is described by
// it whatever the file is called.
func selfProperties(properties []depgraph.Artifact, name string, bundled bool) int {
	base := filepath.Base(name)
	for i, artifact := range properties {
		if strings.HasPrefix(base, artifact.ArtifactID+"-"+artifact.Version) {
			return i
		}
	}

	if bundled && len(properties) == 1 {
		return 0
	}
	return -1
}

// archiveArtifact derives artifactId and version from a file name such as
// commons-fileupload-1.3.jar.
func archiveArtifact(name string) depgraph.Artifact {
	base := filepath.Base(name)

	m := libReg.FindStringSubmatch(base)
	if len(m) < 4 {
		ext := filepath.Ext(base)
		return depgraph.Artifact{
			ArtifactID: strings.TrimSuffix(base, ext),
			Type:       strings.TrimPrefix(ext, "."),
		}
	}

	return depgraph.Artifact{ArtifactID: m[1], Version: m[2], Type: m[3]}
}

func parseProperties(file *zip.File) (depgraph.Artifact, error) {
	artifact := depgraph.Artifact{Type: "jar"}

	jr, err := file.Open()
	if err != nil {
		return artifact, err
	}
	defer jr.Close()

	sc := bufio.NewScanner(jr)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		switch strings.TrimSpace(key) {
		case "groupId":
			artifact.GroupID = strings.TrimSpace(value)
		case "artifactId":
			artifact.ArtifactID = strings.TrimSpace(value)
		case "version":
			artifact.Version = strings.TrimSpace(value)
		}
	}
	if err := sc.Err(); err != nil {
		return artifact, err
	}

	if artifact.ArtifactID == "" || artifact.Version == "" {
		return artifact, errors.New("no artifactId or version found")
	}

	return artifact, nil
}

func parseManifest(data string) string {
	for _, reg := range NameRegs {
		title := reg.FindStringSubmatch(data)
		if len(title) > 1 {
			return strings.TrimSpace(title[1])
		}
	}

	return ""
}

// parseLib reads a library bundled in an archive. Its own pom.properties
// win over the file name; a library without any has no group.
func parseLib(f *zip.File, nesting int) (*depgraph.Node, error) {
	if nesting < maxNesting {
		if data, err := readAll(f); err == nil {
			if zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data))); err == nil {
				node := readArchive(zr, f.Name, nesting+1)
				if node.Artifact.ArtifactID != "" && node.Artifact.Version != "" {
					return node, nil
				}
			}
		}
	}

	artifact := archiveArtifact(f.Name)
	if artifact.Version == "" {
		return nil, errors.New("not a versioned library")
	}

	return &depgraph.Node{Artifact: artifact}, nil
}

func readEntry(f *zip.File) string {
	data, err := readAll(f)
	if err != nil {
		return ""
	}
	return string(data)
}

func readAll(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
