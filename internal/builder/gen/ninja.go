package gen

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/qobs-build/cppgen/internal/pathutil"
	"github.com/qobs-build/cppgen/internal/toolflags"
	"github.com/qobs-build/cppgen/project"
)

var (
	ErrUnsupportedTarget = errors.New("target type not implemented yet")
	ErrObjectConflict    = errors.New("object file compiled with conflicting flags")
	ErrDuplicateOutput   = errors.New("output produced by more than one edge")
)

const (
	// ObjDir is the value of $builddir, relative to the build directory
	ObjDir = "obj"
	// RequiredVersion is the oldest ninja that understands deps = gcc
	RequiredVersion = "1.3"

	buildFile = "build.ninja"
	rootVar   = "$root"
)

// NinjaGen renders a project into a build.ninja
type NinjaGen struct {
	// Root is the project root relative to the build directory
	Root string
	// Prefix is the installation prefix
	Prefix string
	// Exe and Args reconstruct the invocation that regenerates the file
	Exe  string
	Args []string
	// Description is the root-relative project description source
	Description string
	// Implicit are further root-relative files the description depends on
	Implicit []string

	cxx, ar string
}

func (g *NinjaGen) SetCompiler(cxx, ar string) {
	g.cxx, g.ar = cxx, ar
}

func (g *NinjaGen) BuildFile() string { return buildFile }

// Artifact returns the decorated output name, the rule producing it and the
// install subdirectory for a target.
func Artifact(t *project.Target) (output, ruleName, installDir string, err error) {
	switch t.Type {
	case project.Executable:
		return t.Name, "link", "bin", nil
	case project.StaticLibrary:
		return t.Name + ".a", "ar", "lib", nil
	case project.SharedLibrary:
		return t.Name + ".so", "link", "lib", nil
	case project.MacOSBundle:
		return "", "", "", fmt.Errorf("target %q: %s: %w", t.Name, t.Type, ErrUnsupportedTarget)
	default:
		return "", "", "", fmt.Errorf("target %q: unknown target type %d", t.Name, int(t.Type))
	}
}

// sourcePath names an input inside the graph: relative paths hang off $root
func sourcePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "." {
		return rootVar
	}
	if strings.HasPrefix(p, "$") {
		return p
	}
	if pathutil.IsRooted(p) {
		return pathutil.Escape(p)
	}
	return rootVar + "/" + pathutil.Escape(p)
}

// objectPath maps an input to $builddir/<input without extension>.o
func objectPath(input string) string {
	base, _ := pathutil.SplitExt(strings.ReplaceAll(input, "\\", "/"))
	if strings.HasPrefix(base, "$") {
		if i := strings.IndexByte(base, '/'); i >= 0 {
			base = base[i+1:]
		}
	}
	parts := strings.Split(strings.TrimLeft(base, "/"), "/")
	for i, part := range parts {
		if part == ".." {
			parts[i] = "__"
		}
	}
	return pathutil.Join(project.BuildDir(), pathutil.Escape(strings.Join(parts, "/"))) + ".o"
}

// shellQuote quotes a command-line argument for the regeneration command
func shellQuote(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\n'\"\\$`;&|<>()*?[]#~") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// ninjaValue escapes a literal variable value
func ninjaValue(s string) string { return strings.ReplaceAll(s, "$", "$$") }

type compiledObject struct {
	target string
	flags  string
}

// outputSet tracks which statement produces every non-object output
type outputSet map[string]string

func (s outputSet) claim(output, owner string) error {
	if prev, ok := s[output]; ok {
		return fmt.Errorf("%w: %s is produced by %s and %s", ErrDuplicateOutput, output, prev, owner)
	}
	s[output] = owner
	return nil
}

// Generate renders p. Nothing is written to w unless the whole graph rendered successfully.
func (g *NinjaGen) Generate(w io.Writer, p *project.Project) error {
	var sb strings.Builder

	comment(&sb, "This file was generated by cppgen.")
	writeln(&sb)

	assign(&sb, "ninja_required_version", RequiredVersion)
	assign(&sb, "root", ninjaValue(g.Root))
	assign(&sb, "builddir", ObjDir)
	assign(&sb, "prefix", ninjaValue(g.Prefix))
	assign(&sb, "cppgen", ninjaValue(shellQuote(g.Exe)))
	quoted := make([]string, len(g.Args))
	for i, arg := range g.Args {
		quoted[i] = ninjaValue(shellQuote(arg))
	}
	assign(&sb, "cppgen_args", strings.Join(quoted, " "))
	assign(&sb, "cxx", ninjaValue(g.cxx))
	assign(&sb, "ar", ninjaValue(g.ar))

	cflags, ldflags := toolflags.Global(p)
	assignList(&sb, "cflags", cflags, "")
	assignList(&sb, "ldflags", ldflags, "")
	writeln(&sb)

	rule(&sb, "cxx", "$cxx -MD -MF $out.d $cflags -c $in -o $out",
		variable{"description", []string{"CXX $out"}},
		variable{"depfile", []string{"$out.d"}},
		variable{"deps", []string{"gcc"}})
	writeln(&sb)
	rule(&sb, "ar", "rm -f $out && $ar crs $out $in",
		variable{"description", []string{"AR $out"}})
	writeln(&sb)
	rule(&sb, "link", "$cxx $ldflags -o $out $in $libs",
		variable{"description", []string{"LINK $out"}})
	writeln(&sb)
	rule(&sb, "cp", "cp -pR $in $out",
		variable{"description", []string{"INSTALL $out"}})
	writeln(&sb)

	var installs []string
	compiled := make(map[string]compiledObject)
	outputs := outputSet{buildFile: "the regeneration edge"}

	for i := range p.Targets {
		target := &p.Targets[i]

		output, buildRule, installDir, err := Artifact(target)
		if err != nil {
			return err
		}

		var compileVars []variable
		targetCflags := toolflags.TargetCflags(target)
		if targetCflags != nil {
			compileVars = append(compileVars, variable{"cflags", targetCflags})
		}
		flagsKey := strings.Join(targetCflags, " ")

		objects := make([]string, 0, len(target.Inputs))
		for _, input := range target.Inputs {
			obj := objectPath(input)
			objects = append(objects, obj)

			if prev, ok := compiled[obj]; ok {
				if prev.flags != flagsKey {
					return fmt.Errorf("%w: %s is built by targets %q and %q", ErrObjectConflict, obj, prev.target, target.Name)
				}
				continue
			}
			compiled[obj] = compiledObject{target: target.Name, flags: flagsKey}
			build(&sb, obj, "cxx", []string{sourcePath(input)}, nil, compileVars...)
		}

		var linkVars []variable
		if targetLdflags := toolflags.TargetLdflags(target); targetLdflags != nil {
			linkVars = append(linkVars, variable{"ldflags", targetLdflags})
		}
		owner := fmt.Sprintf("target %q", target.Name)
		escapedOutput := pathutil.Escape(output)
		if err := outputs.claim(escapedOutput, owner); err != nil {
			return err
		}
		build(&sb, escapedOutput, buildRule, objects, nil, linkVars...)

		if output != target.Name {
			if err := outputs.claim(pathutil.Escape(target.Name), owner); err != nil {
				return err
			}
			build(&sb, pathutil.Escape(target.Name), "phony", []string{escapedOutput}, nil)
		}
		if target.IsDefault {
			defaultTarget(&sb, pathutil.Escape(target.Name))
		}
		if target.Install {
			installOutput := pathutil.Join(project.InstallationPrefix(), installDir, escapedOutput)
			if err := outputs.claim(installOutput, owner); err != nil {
				return err
			}
			build(&sb, installOutput, "cp", []string{escapedOutput}, nil)
			installs = append(installs, installOutput)
		}
		writeln(&sb)
	}

	for _, group := range p.InstallHeaders {
		for _, header := range group.Headers {
			installOutput := pathutil.Join(project.InstallationPrefix(), "include",
				pathutil.Escape(group.Subdir), pathutil.Escape(pathutil.BaseName(header)))
			if err := outputs.claim(installOutput, fmt.Sprintf("install-headers %q", group.Subdir)); err != nil {
				return err
			}
			build(&sb, installOutput, "cp", []string{sourcePath(header)}, nil)
			installs = append(installs, installOutput)
		}
	}
	writeln(&sb)

	if len(installs) > 0 {
		if err := outputs.claim("install", "the install alias"); err != nil {
			return err
		}
		build(&sb, "install", "phony", installs, nil)
		writeln(&sb)
	}

	rule(&sb, "regen", "$cppgen $cppgen_args",
		variable{"description", []string{"REGEN $out"}},
		variable{"generator", []string{"1"}})
	var implicit []string
	for _, dep := range g.Implicit {
		implicit = append(implicit, sourcePath(dep))
	}
	var inputs []string
	if g.Description != "" {
		inputs = append(inputs, sourcePath(g.Description))
	}
	build(&sb, buildFile, "regen", inputs, implicit)

	_, err := io.WriteString(w, sb.String())
	return err
}

func (g *NinjaGen) Invoke(buildDir string) error {
	cmd := exec.Command("ninja", "-C", buildDir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
