package builder

import (
	"fmt"
	"os"

	"github.com/qobs-build/cppgen/project"
	"gopkg.in/yaml.v3"
)

// ParseYAMLConfig parses a YAML project description. It shares the TOML schema,
// {{ }} expressions and conditional sections.
func ParseYAMLConfig(buf []byte, env ConfigEnv) (*Description, error) {
	var rawConfig map[string]any
	if err := yaml.Unmarshal(buf, &rawConfig); err != nil {
		return nil, err
	}
	if rawConfig == nil {
		rawConfig = map[string]any{}
	}
	return decodeDescription(rawConfig, env)
}

type yamlLoader struct {
	path string
	env  ConfigEnv
}

func (l *yamlLoader) Load(toolchain project.Toolchain) (*project.Project, error) {
	buf, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}
	desc, err := ParseYAMLConfig(buf, l.env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}
	return desc.Evaluate(toolchain, l.env)
}

func (l *yamlLoader) Sources() []string { return l.env.Sources() }
