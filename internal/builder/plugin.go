package builder

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"plugin"
	"slices"
	"strings"

	filesystem "github.com/adnsv/go-utils/fs"
	"github.com/qobs-build/cppgen/internal/msg"
	"github.com/qobs-build/cppgen/internal/pathutil"
	"github.com/qobs-build/cppgen/project"
)

var ErrMissingEntry = errors.New("project description entry point not found")

// pluginFile is the loadable module built from a Go description, inside the build directory
const pluginFile = "build.so"

// pluginLoader compiles a Go description into a plugin and calls its entry point
type pluginLoader struct {
	root     string
	source   string
	buildDir string
	sources  []string
}

func goTool() string {
	if g := os.Getenv("GO"); g != "" {
		return g
	}
	return "go"
}

// compilePlugin builds source as a plugin at out, from within dir so its go.mod applies
func compilePlugin(source, out, dir string) error {
	cmd := exec.Command(goTool(), "build", "-buildmode=plugin", "-o", out, source)
	cmd.Dir = dir
	w := &msg.IndentWriter{Indent: "    ", W: msg.Output}
	cmd.Stdout = w
	cmd.Stderr = w

	msg.Debug("running %s", strings.Join(cmd.Args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run %s: %w", strings.Join(cmd.Args, " "), err)
	}
	return nil
}

// lookupEntry loads the plugin at lib and resolves its factory
func lookupEntry(lib string) (project.GenerateFunc, error) {
	plug, err := plugin.Open(lib)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", lib, err)
	}

	if sym, err := plug.Lookup(project.EntrySymbol); err == nil {
		entry, ok := sym.(*project.Entry)
		if !ok || entry.Generate == nil {
			return nil, fmt.Errorf("%w: %s in %s has type %T, want a project.Entry with Generate set", ErrMissingEntry, project.EntrySymbol, lib, sym)
		}
		return entry.Generate, nil
	}

	if sym, err := plug.Lookup(project.FuncSymbol); err == nil {
		switch fn := sym.(type) {
		case func(project.Toolchain) project.Project:
			return fn, nil
		case *project.GenerateFunc:
			if *fn != nil {
				return *fn, nil
			}
		}
		return nil, fmt.Errorf("%w: %s in %s has type %T, want func(project.Toolchain) project.Project", ErrMissingEntry, project.FuncSymbol, lib, sym)
	}

	return nil, fmt.Errorf("%w: neither %s nor %s is exported by %s", ErrMissingEntry, project.EntrySymbol, project.FuncSymbol, lib)
}

func (l *pluginLoader) Load(toolchain project.Toolchain) (*project.Project, error) {
	lib := filepath.Join(l.buildDir, pluginFile)
	if err := compilePlugin(l.source, lib, l.root); err != nil {
		return nil, err
	}

	generate, err := lookupEntry(lib)
	if err != nil {
		return nil, err
	}

	if l.sources, err = goDeps(l.source, l.root); err != nil {
		return nil, err
	}

	p := generate(toolchain)
	return &p, nil
}

// Sources lists the Go files under the root the plugin was compiled from, and the module files
func (l *pluginLoader) Sources() []string { return l.sources }

// depsTemplate prints "<dir>\t<file>" for every non-standard Go file of a package
const depsTemplate = `{{if not .Standard}}{{range .GoFiles}}{{$.Dir}}{{"\t"}}{{.}}{{"\n"}}{{end}}` +
	`{{range .CgoFiles}}{{$.Dir}}{{"\t"}}{{.}}{{"\n"}}{{end}}` +
	`{{range .EmbedFiles}}{{$.Dir}}{{"\t"}}{{.}}{{"\n"}}{{end}}{{end}}`

// goDeps lists the root-relative files source is built from, other than source itself
func goDeps(source, root string) ([]string, error) {
	cmd := exec.Command(goTool(), "list", "-deps", "-f", depsTemplate, source)
	cmd.Dir = root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	msg.Debug("running %s", strings.Join(cmd.Args, " "))
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list dependencies of %s: %w: %s", source, err, strings.TrimSpace(stderr.String()))
	}

	deps, err := parseDeps(out, source, root)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"go.mod", "go.sum"} {
		if filesystem.FileExists(filepath.Join(root, name)) && !slices.Contains(deps, name) {
			deps = append(deps, name)
		}
	}
	slices.Sort(deps)
	return deps, nil
}

// parseDeps turns go list output into root-relative paths, dropping source and files outside root
func parseDeps(out []byte, source, root string) ([]string, error) {
	self, err := pathutil.RelativePath(source, root)
	if err != nil {
		return nil, err
	}

	var deps []string
	for _, line := range strings.Split(string(out), "\n") {
		dir, file, ok := strings.Cut(strings.TrimSpace(line), "\t")
		if !ok {
			continue
		}
		rel, err := pathutil.RelativePath(filepath.Join(dir, file), root)
		if err != nil || rel == self || rel == ".." || strings.HasPrefix(rel, "../") || filepath.IsAbs(rel) {
			continue
		}
		if !slices.Contains(deps, rel) {
			deps = append(deps, rel)
		}
	}
	return deps, nil
}
