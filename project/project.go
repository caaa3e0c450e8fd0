// Package project holds the types a project description builds and cppgen reads.
//
// A description (a Go plugin, or a TOML/HCL/YAML file) produces exactly one Project per
// regeneration. Nothing in cppgen mutates a Project after it has been produced.
package project

// Compiler defines the toolchain options that apply to every target
type Compiler struct {
	Standard   Standard
	BuildType  BuildType
	Exceptions Flag
	RTTI       Flag
}

// Toolchain is handed to the description's entry point
type Toolchain struct {
	Compiler Compiler
}

// Target is one named buildable artifact
type Target struct {
	Name   string
	Type   TargetType
	Inputs []string

	IncludeDirectories []string
	LinkDirectories    []string

	CompileFlags []string
	LinkFlags    []string

	Install   bool
	IsDefault bool
}

// NewTarget returns a target that is part of the default build set and not installed
func NewTarget(name string, typ TargetType, inputs ...string) Target {
	return Target{
		Name:      name,
		Type:      typ,
		Inputs:    inputs,
		IsDefault: true,
	}
}

// InstallHeaders copies Headers verbatim into <prefix>/include/<Subdir>
type InstallHeaders struct {
	Subdir  string
	Headers []string
}

// Project is the root aggregate a description returns.
// Project-level directories and flags apply to every target and precede the target's own.
type Project struct {
	Toolchain Toolchain
	Targets   []Target

	IncludeDirectories []string
	LinkDirectories    []string

	CompileFlags []string
	LinkFlags    []string

	InstallHeaders []InstallHeaders
}

func NewProject(toolchain Toolchain) Project {
	return Project{Toolchain: toolchain}
}

// GenerateFunc is the factory signature of a project description
type GenerateFunc func(toolchain Toolchain) Project

// Entry is the value a Go plugin description exports under EntrySymbol
type Entry struct {
	Generate GenerateFunc
}

const (
	// EntrySymbol is the exported variable of type Entry
	EntrySymbol = "ProjectEntry"
	// FuncSymbol is the exported function of type GenerateFunc, accepted when EntrySymbol is absent
	FuncSymbol = "Generate"
)

// BuildDir refers to the object output directory inside the generated graph
func BuildDir() string { return "$builddir" }

// InstallationPrefix refers to the install prefix inside the generated graph
func InstallationPrefix() string { return "$prefix" }
