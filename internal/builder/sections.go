package builder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/qobs-build/cppgen/internal/msg"
	"github.com/qobs-build/cppgen/internal/pathutil"
	"github.com/qobs-build/cppgen/project"
)

var errNoTargetName = errors.New("target without a name")

// Description is the declarative project description shared by the TOML, YAML and HCL loaders
type Description struct {
	Compiler       *CompilerSection        `toml:"compiler" hcl:"compiler,block"`
	Project        *ProjectSection         `toml:"project" hcl:"project,block"`
	Targets        []TargetSection         `toml:"target" hcl:"target,block"`
	InstallHeaders []InstallHeadersSection `toml:"install-headers" hcl:"install_headers,block"`
}

// CompilerSection defines the [compiler] section
type CompilerSection struct {
	Standard   string `toml:"standard" hcl:"standard,optional"`
	BuildType  string `toml:"build-type" hcl:"build_type,optional"`
	Exceptions string `toml:"exceptions" hcl:"exceptions,optional"`
	RTTI       string `toml:"rtti" hcl:"rtti,optional"`
}

// ProjectSection defines the [project] section
type ProjectSection struct {
	IncludeDirectories []string `toml:"include-directories" hcl:"include_directories,optional"`
	LinkDirectories    []string `toml:"link-directories" hcl:"link_directories,optional"`
	CompileFlags       []string `toml:"compile-flags" hcl:"compile_flags,optional"`
	LinkFlags          []string `toml:"link-flags" hcl:"link_flags,optional"`
}

// TargetSection defines one [[target]] entry
type TargetSection struct {
	Name               string   `toml:"name" hcl:"name,label"`
	Type               string   `toml:"type" hcl:"type,optional"`
	Inputs             []string `toml:"inputs" hcl:"inputs,optional"`
	IncludeDirectories []string `toml:"include-directories" hcl:"include_directories,optional"`
	LinkDirectories    []string `toml:"link-directories" hcl:"link_directories,optional"`
	CompileFlags       []string `toml:"compile-flags" hcl:"compile_flags,optional"`
	LinkFlags          []string `toml:"link-flags" hcl:"link_flags,optional"`
	Install            bool     `toml:"install" hcl:"install,optional"`
	Default            *bool    `toml:"default" hcl:"default,optional"`
}

// InstallHeadersSection defines one [[install-headers]] entry
type InstallHeadersSection struct {
	Subdir  string   `toml:"subdir" hcl:"subdir,label"`
	Headers []string `toml:"headers" hcl:"headers"`
}

// applyTo overrides the options of c that the section sets
func (s *CompilerSection) applyTo(c *project.Compiler) error {
	var err error
	if s.Standard != "" {
		if c.Standard, err = project.ParseStandard(s.Standard); err != nil {
			return err
		}
	}
	if s.BuildType != "" {
		if c.BuildType, err = project.ParseBuildType(s.BuildType); err != nil {
			return err
		}
	}
	if s.Exceptions != "" {
		if c.Exceptions, err = project.ParseFlag(s.Exceptions); err != nil {
			return fmt.Errorf("exceptions: %w", err)
		}
	}
	if s.RTTI != "" {
		if c.RTTI, err = project.ParseFlag(s.RTTI); err != nil {
			return fmt.Errorf("rtti: %w", err)
		}
	}
	return nil
}

// Evaluate turns the description into a Project for toolchain, expanding globs under the
// environment's directory
func (d *Description) Evaluate(toolchain project.Toolchain, env ConfigEnv) (*project.Project, error) {
	if d.Compiler != nil {
		if err := d.Compiler.applyTo(&toolchain.Compiler); err != nil {
			return nil, fmt.Errorf("[compiler]: %w", err)
		}
	}

	p := project.NewProject(toolchain)
	if d.Project != nil {
		p.IncludeDirectories = d.Project.IncludeDirectories
		p.LinkDirectories = d.Project.LinkDirectories
		p.CompileFlags = d.Project.CompileFlags
		p.LinkFlags = d.Project.LinkFlags
	}

	for i, section := range d.Targets {
		if section.Name == "" {
			return nil, fmt.Errorf("target #%d: %w", i+1, errNoTargetName)
		}
		typ := project.Executable
		if section.Type != "" {
			var err error
			if typ, err = project.ParseTargetType(section.Type); err != nil {
				return nil, fmt.Errorf("target %q: %w", section.Name, err)
			}
		}
		inputs, err := env.expandGlobs(section.Inputs)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", section.Name, err)
		}

		target := project.NewTarget(section.Name, typ, inputs...)
		target.IncludeDirectories = section.IncludeDirectories
		target.LinkDirectories = section.LinkDirectories
		target.CompileFlags = section.CompileFlags
		target.LinkFlags = section.LinkFlags
		target.Install = section.Install
		if section.Default != nil {
			target.IsDefault = *section.Default
		}
		p.Targets = append(p.Targets, target)
	}

	for _, section := range d.InstallHeaders {
		headers, err := env.expandGlobs(section.Headers)
		if err != nil {
			return nil, fmt.Errorf("install-headers %q: %w", section.Subdir, err)
		}
		p.InstallHeaders = append(p.InstallHeaders, project.InstallHeaders{
			Subdir:  section.Subdir,
			Headers: headers,
		})
	}

	return &p, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// expandGlobs replaces every pattern with the files it matches, sorted.
// Literal paths are kept as they are, whether they exist or not. Every directory a
// pattern searched is recorded as a dependency, so adding or removing a matching file
// regenerates the graph.
func (env ConfigEnv) expandGlobs(patterns []string) ([]string, error) {
	var files []string
	fsys := os.DirFS(env.basedir)

	for _, pat := range patterns {
		if !hasMeta(pat) || pathutil.IsRooted(pat) {
			files = append(files, pat)
			continue
		}
		pat = path.Clean(filepath.ToSlash(pat))
		matches, err := doublestar.Glob(fsys, pat, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("while globbing %s: %w", pat, err)
		}
		if len(matches) == 0 {
			msg.Warn("pattern %s matched no files in %s", pat, env.basedir)
		}
		slices.Sort(matches)
		files = append(files, matches...)

		dirs, err := searchedDirs(fsys, pat)
		if err != nil {
			return nil, fmt.Errorf("while globbing %s: %w", pat, err)
		}
		if env.deps != nil {
			for _, dir := range dirs {
				env.deps.add(dir)
			}
		}
	}

	return files, nil
}

// searchedDirs lists the existing directories whose entries can match pat
func searchedDirs(fsys fs.FS, pat string) ([]string, error) {
	dirPat := path.Dir(pat)
	if !hasMeta(dirPat) {
		if info, err := fs.Stat(fsys, dirPat); err != nil || !info.IsDir() {
			return nil, nil
		}
		return []string{dirPat}, nil
	}

	candidates, err := doublestar.Glob(fsys, dirPat)
	if err != nil {
		return nil, err
	}
	// "**" also matches no directory at all, which leaves the static base
	base, _ := doublestar.SplitPattern(dirPat)
	candidates = append([]string{base}, candidates...)

	var dirs []string
	for _, candidate := range candidates {
		if slices.Contains(dirs, candidate) {
			continue
		}
		if info, err := fs.Stat(fsys, candidate); err == nil && info.IsDir() {
			dirs = append(dirs, candidate)
		}
	}
	return dirs, nil
}
