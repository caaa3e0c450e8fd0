// cppgen init [name], cppgen new [path]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/fatih/color"
	"github.com/qobs-build/cppgen/internal/msg"
	"github.com/spf13/cobra"
)

// writefile creates a file, leaving an existing one untouched
func writefile(content string, elem ...string) error {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		msg.Debug("%s exists, skipping", filepath.ToSlash(path))
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("create file %s: %w", path, err)
	}
	fmt.Fprintf(msg.Output, "%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	return nil
}

func mkdir(elem ...string) error {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "cppgen"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

const tomlExe = `[compiler]
standard = "c++17"
build-type = "debug"

[[target]]
name = "{{name}}"
inputs = ["src/**/*.cpp"]
install = true
`

const tomlLib = `[compiler]
standard = "c++17"
build-type = "debug"

[[target]]
name = "{{name}}"
type = "static"
inputs = ["src/**/*.cpp"]
include-directories = ["include"]
install = true

[[install-headers]]
subdir = "{{name}}"
headers = ["include/{{name}}/*.hpp"]
`

const hclExe = `compiler {
  standard   = "c++17"
  build_type = "debug"
}

target "{{name}}" {
  inputs  = ["src/**/*.cpp"]
  install = true
}
`

const hclLib = `compiler {
  standard   = "c++17"
  build_type = "debug"
}

target "{{name}}" {
  type                = "static"
  inputs              = ["src/**/*.cpp"]
  include_directories = ["include"]
  install             = true
}

install_headers "{{name}}" {
  headers = ["include/{{name}}/*.hpp"]
}
`

const yamlExe = `compiler:
  standard: c++17
  build-type: debug

target:
  - name: {{name}}
    inputs: ["src/**/*.cpp"]
    install: true
`

const yamlLib = `compiler:
  standard: c++17
  build-type: debug

target:
  - name: {{name}}
    type: static
    inputs: ["src/**/*.cpp"]
    include-directories: [include]
    install: true

install-headers:
  - subdir: {{name}}
    headers: ["include/{{name}}/*.hpp"]
`

const goExe = `//go:build ignore

package main

import "github.com/qobs-build/cppgen/project"

func Generate(tc project.Toolchain) project.Project {
	tc.Compiler.Standard = project.CPP17
	tc.Compiler.BuildType = project.Debug

	p := project.NewProject(tc)
	t := project.NewTarget("{{name}}", project.Executable, "src/main.cpp")
	t.Install = true
	p.Targets = append(p.Targets, t)
	return p
}
`

const goLib = `//go:build ignore

package main

import "github.com/qobs-build/cppgen/project"

func Generate(tc project.Toolchain) project.Project {
	tc.Compiler.Standard = project.CPP17
	tc.Compiler.BuildType = project.Debug

	p := project.NewProject(tc)
	t := project.NewTarget("{{name}}", project.StaticLibrary, "src/{{name}}.cpp")
	t.IncludeDirectories = []string{"include"}
	t.Install = true
	p.Targets = append(p.Targets, t)
	p.InstallHeaders = append(p.InstallHeaders, project.InstallHeaders{
		Subdir:  "{{name}}",
		Headers: []string{"include/{{name}}/{{name}}.hpp"},
	})
	return p
}
`

const goMod = `module {{name}}

go 1.25
`

// modulePath is the module build.go imports the project API from
const modulePath = "github.com/qobs-build/cppgen"

var readBuildInfo = debug.ReadBuildInfo

// cppgenVersion returns the released module version of the running binary, or "" for
// development builds, which cannot be pinned.
func cppgenVersion() string {
	info, ok := readBuildInfo()
	if !ok || info.Main.Path != modulePath {
		return ""
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	return ""
}

// goModFile scaffolds a go.mod requiring the cppgen the plugin will be loaded by
func goModFile(name string) string {
	mod := expand(goMod, name)
	if v := cppgenVersion(); v != "" {
		mod += "\nrequire " + modulePath + " " + v + "\n"
	}
	return mod
}

// descriptions maps a format to its file name and executable/library templates
var descriptions = map[string]struct {
	file     string
	exe, lib string
}{
	"toml": {"project.toml", tomlExe, tomlLib},
	"hcl":  {"project.hcl", hclExe, hclLib},
	"yaml": {"project.yaml", yamlExe, yamlLib},
	"go":   {"build.go", goExe, goLib},
}

func expand(template, name string) string {
	return strings.ReplaceAll(template, "{{name}}", name)
}

// initIn initializes a project in an existing directory
func initIn(dir, name, format string, lib bool) error {
	desc, ok := descriptions[format]
	if !ok {
		return fmt.Errorf("unknown description format %q", format)
	}

	template := desc.exe
	if lib {
		template = desc.lib
	}
	if err := writefile(expand(template, name), dir, desc.file); err != nil {
		return err
	}
	if format == "go" {
		if err := writefile(goModFile(name), dir, "go.mod"); err != nil {
			return err
		}
	}

	if err := mkdir(dir, "src"); err != nil {
		return err
	}

	if lib {
		if err := mkdir(dir, "include", name); err != nil {
			return err
		}

		// include/<name>/<name>.hpp
		if err := writefile(`#pragma once

namespace `+identifier(name)+` {

void hello_world();

}
`, dir, "include", name, name+".hpp"); err != nil {
			return err
		}

		// src/<name>.cpp
		if err := writefile(`#include <cstdio>
#include "`+name+`/`+name+`.hpp"

namespace `+identifier(name)+` {

void hello_world() {
    std::puts("Hello, World!");
}

}
`, dir, "src", name+".cpp"); err != nil {
			return err
		}
	} else {
		// src/main.cpp
		if err := writefile(`#include <cstdio>

int main() {
    std::puts("Hello, World!");
    return 0;
}
`, dir, "src", "main.cpp"); err != nil {
			return err
		}
	}

	// .gitignore
	if err := writefile(`build/
`, dir, ".gitignore"); err != nil {
		return err
	}

	programName := getProgramName()
	if format == "go" {
		hint := "go mod tidy"
		if cppgenVersion() == "" {
			hint = "go get " + modulePath + "/project"
		}
		fmt.Fprintf(msg.Output, "Run %s first so build.go can import the project API.\n", color.HiCyanString(hint))
	}
	fmt.Fprintf(msg.Output, "You can now do %s to generate, or %s to generate and build.\n",
		color.HiCyanString(programName+" -C "+dir+" build"), color.HiCyanString(programName+" -C "+dir+" -b build"))
	return nil
}

// identifier turns a project name into a C++ identifier
func identifier(name string) string {
	var sb strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

var (
	library        bool
	flagInitFormat EnumValue = NewEnumValue("toml", map[string]string{
		"toml": "project.toml (default)",
		"hcl":  "project.hcl",
		"yaml": "project.yaml",
		"go":   "build.go, compiled as a Go plugin",
	})
)

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a new project in the current directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		dir := "."
		if flagDir != "" {
			dir = flagDir
		}
		name := ""
		if len(args) > 0 {
			name = args[0]
		} else {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			name = filepath.Base(abs)
		}
		return initIn(dir, name, flagInitFormat.Value(), library)
	},
}

var newCmd = &cobra.Command{
	Use:   "new [path]",
	Short: "Create a new project in a new directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if err := mkdir(args[0]); err != nil {
			return err
		}
		return initIn(args[0], filepath.Base(args[0]), flagInitFormat.Value(), library)
	},
}

func init() {
	for _, c := range []*cobra.Command{initCmd, newCmd} {
		rootCmd.AddCommand(c)
		c.Flags().BoolVarP(&library, "lib", "l", false, "Create a library target")
		c.Flags().Var(&flagInitFormat, "format", "Project description format, one of "+flagInitFormat.HelpString())
		c.RegisterFlagCompletionFunc("format", flagInitFormat.CompletionFunc())
	}
}
