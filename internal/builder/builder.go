package builder

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qobs-build/cppgen/internal/builder/gen"
	"github.com/qobs-build/cppgen/internal/msg"
	"github.com/qobs-build/cppgen/internal/pathutil"
	"github.com/qobs-build/cppgen/internal/toolflags"
	"github.com/qobs-build/cppgen/project"
)

// Builder regenerates the build graph of the project rooted at a directory
type Builder struct {
	root   string
	source string
	format Format
	// explicit is set when the format was requested rather than detected,
	// so regeneration keeps using it
	explicit bool
	env      ConfigEnv
}

func NewBuilderInDirectory(path string, format Format) (*Builder, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = FormatAuto
	}

	source, detected, err := findDescription(root, format)
	if err != nil {
		return nil, err
	}
	msg.Debug("using %s description %s", detected, source)

	return &Builder{
		root:     root,
		source:   source,
		format:   detected,
		explicit: format != FormatAuto,
		env:      NewConfigEnv(root),
	}, nil
}

func (b *Builder) Root() string { return b.root }

type GenerateOptions struct {
	// BuildDir is the output directory, absolute or relative to the project root
	BuildDir string
	// Prefix is the installation prefix written to $prefix
	Prefix string
	// Exe is the cppgen executable used by the regeneration edge; defaults to os.Executable
	Exe string
}

// regenArgs reconstructs the command line that regenerates buildDir
func (b *Builder) regenArgs(opts GenerateOptions) []string {
	args := []string{"--prefix", opts.Prefix}
	if b.explicit {
		args = append(args, "--format", string(b.format))
	}
	return append(args, "-C", b.root, opts.BuildDir)
}

// Generate loads the description and writes build.ninja into the build directory,
// returning the path of the written file. Nothing is written if generation fails.
func (b *Builder) Generate(opts GenerateOptions) (string, error) {
	buildDir := opts.BuildDir
	if !filepath.IsAbs(buildDir) {
		buildDir = filepath.Join(b.root, buildDir)
	}
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return "", err
	}

	exe := opts.Exe
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return "", fmt.Errorf("failed to locate cppgen executable: %w", err)
		}
	}

	env := b.env
	env.deps = &dependencies{}
	loader := newLoader(b.source, b.format, b.root, buildDir, env)

	p, err := loader.Load(project.Toolchain{})
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", filepath.Base(b.source), err)
	}

	if msg.Verbose {
		for i := range p.Targets {
			t := &p.Targets[i]
			msg.Debug("%s %s: cflags %s; ldflags %s", t.Type, t.Name,
				strings.Join(toolflags.EffectiveCflags(p, t), " "), strings.Join(toolflags.EffectiveLdflags(p, t), " "))
		}
	}

	root, err := pathutil.RelativePath(b.root, buildDir)
	if err != nil {
		return "", err
	}
	description, err := pathutil.RelativePath(b.source, b.root)
	if err != nil {
		return "", err
	}

	var g gen.Generator = &gen.NinjaGen{
		Root:        root,
		Prefix:      opts.Prefix,
		Exe:         exe,
		Args:        b.regenArgs(opts),
		Description: description,
		Implicit:    loader.Sources(),
	}
	g.SetCompiler(findCompiler(), findArchiver())

	var buf bytes.Buffer
	if err := g.Generate(&buf, p); err != nil {
		return "", err
	}

	out := filepath.Join(buildDir, g.BuildFile())
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	return out, nil
}

// Build regenerates the build directory and runs ninja in it
func (b *Builder) Build(opts GenerateOptions) error {
	out, err := b.Generate(opts)
	if err != nil {
		return err
	}
	msg.Info("wrote %s", out)

	var g gen.Generator = &gen.NinjaGen{}
	return g.Invoke(filepath.Dir(out))
}
