package builder

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	filesystem "github.com/adnsv/go-utils/fs"
	"github.com/qobs-build/cppgen/project"
)

var ErrNoDescription = errors.New("no project description found")

type Format string

const (
	FormatAuto Format = "auto"
	FormatGo   Format = "go"
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
	FormatYAML Format = "yaml"
)

// descriptionFiles are tried in order when the format is not given
var descriptionFiles = []struct {
	name   string
	format Format
}{
	{"build.go", FormatGo},
	{"project.toml", FormatTOML},
	{"project.hcl", FormatHCL},
	{"project.yaml", FormatYAML},
	{"project.yml", FormatYAML},
}

// Loader evaluates a project description into a Project
type Loader interface {
	Load(toolchain project.Toolchain) (*project.Project, error)
	// Sources lists root-relative files, besides the description itself, that were read while loading
	Sources() []string
}

// findDescription locates the description file for format in root
func findDescription(root string, format Format) (string, Format, error) {
	var tried []string
	for _, candidate := range descriptionFiles {
		if format != FormatAuto && candidate.format != format {
			continue
		}
		path := filepath.Join(root, candidate.name)
		if filesystem.FileExists(path) {
			return path, candidate.format, nil
		}
		tried = append(tried, candidate.name)
	}
	if len(tried) == 0 {
		return "", "", fmt.Errorf("unknown description format %q", format)
	}
	return "", "", fmt.Errorf("%w in %s (looked for %s)", ErrNoDescription, root, strings.Join(tried, ", "))
}

func newLoader(source string, format Format, root, buildDir string, env ConfigEnv) Loader {
	switch format {
	case FormatGo:
		return &pluginLoader{root: root, source: source, buildDir: buildDir}
	case FormatTOML:
		return &tomlLoader{path: source, env: env}
	case FormatHCL:
		return &hclLoader{path: source, env: env}
	case FormatYAML:
		return &yamlLoader{path: source, env: env}
	default:
		panic("newLoader: unreachable")
	}
}
