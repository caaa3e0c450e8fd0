// Package toolflags maps project model options to compiler and linker command-line fragments.
//
// Every function here is total: a value outside its enum domain translates like the
// default value, to no fragment at all.
package toolflags

import (
	"github.com/qobs-build/cppgen/internal/pathutil"
	"github.com/qobs-build/cppgen/project"
)

const (
	// CflagsVar and LdflagsVar reference the global lists from a target-scoped override
	CflagsVar  = "$cflags"
	LdflagsVar = "$ldflags"

	rootVar = "$root"
)

func Standard(s project.Standard) []string {
	switch s {
	case project.CPP98:
		return []string{"-std=c++98"}
	case project.CPP03:
		return []string{"-std=c++03"}
	case project.CPP11:
		return []string{"-std=c++11"}
	case project.CPP14:
		return []string{"-std=c++14"}
	case project.CPP17:
		return []string{"-std=c++17"}
	case project.CPP20:
		return []string{"-std=c++20"}
	}
	return nil
}

func BuildType(b project.BuildType) []string {
	switch b {
	case project.Debug:
		return []string{"-g", "-O0"}
	case project.Release:
		return []string{"-O3"}
	case project.MinSize:
		return []string{"-Os"}
	}
	return nil
}

// Feature translates a tri-state switch such as exceptions or rtti into -f<name>/-fno-<name>
func Feature(f project.Flag, name string) []string {
	switch f {
	case project.On:
		return []string{"-f" + name}
	case project.Off:
		return []string{"-fno-" + name}
	}
	return nil
}

// IncludeDir makes dir relative to the project root unless it is already rooted
func IncludeDir(dir string) string {
	if pathutil.IsRooted(dir) {
		return "-I" + dir
	}
	return "-I" + rootVar + "/" + dir
}

func LinkDir(dir string) string { return "-L" + dir }

func LinkFlag(flag string) string { return "-Wl," + flag }

func CompileFlag(flag string) string { return flag }

// Compiler returns the fragments for the toolchain-wide options, in standard, build type,
// exceptions, rtti order.
func Compiler(c project.Compiler) []string {
	var flags []string
	flags = append(flags, Standard(c.Standard)...)
	flags = append(flags, BuildType(c.BuildType)...)
	flags = append(flags, Feature(c.Exceptions, "exceptions")...)
	flags = append(flags, Feature(c.RTTI, "rtti")...)
	return flags
}

func appendCompile(flags []string, includeDirs, compileFlags []string) []string {
	for _, dir := range includeDirs {
		flags = append(flags, IncludeDir(dir))
	}
	for _, flag := range compileFlags {
		flags = append(flags, CompileFlag(flag))
	}
	return flags
}

func appendLink(flags []string, linkDirs, linkFlags []string) []string {
	for _, dir := range linkDirs {
		flags = append(flags, LinkDir(dir))
	}
	for _, flag := range linkFlags {
		flags = append(flags, LinkFlag(flag))
	}
	return flags
}

// Global returns the project-wide cflags and ldflags lists
func Global(p *project.Project) (cflags, ldflags []string) {
	cflags = appendCompile(Compiler(p.Toolchain.Compiler), p.IncludeDirectories, p.CompileFlags)
	ldflags = appendLink(nil, p.LinkDirectories, p.LinkFlags)
	return cflags, ldflags
}

// TargetCflags returns the target-scoped cflags override, or nil when the target
// compiles with the global list unchanged.
func TargetCflags(t *project.Target) []string {
	var extra []string
	if t.Type == project.SharedLibrary {
		extra = append(extra, "-fPIC")
	}
	if len(t.IncludeDirectories) == 0 && len(t.CompileFlags) == 0 && len(extra) == 0 {
		return nil
	}
	flags := appendCompile([]string{CflagsVar}, t.IncludeDirectories, t.CompileFlags)
	return append(flags, extra...)
}

// TargetLdflags is the link-side counterpart of TargetCflags
func TargetLdflags(t *project.Target) []string {
	var extra []string
	if t.Type == project.SharedLibrary {
		extra = append(extra, "-shared")
	}
	if len(t.LinkDirectories) == 0 && len(t.LinkFlags) == 0 && len(extra) == 0 {
		return nil
	}
	flags := appendLink([]string{LdflagsVar}, t.LinkDirectories, t.LinkFlags)
	return append(flags, extra...)
}

// EffectiveCflags is the full flag list a target's sources are compiled with
func EffectiveCflags(p *project.Project, t *project.Target) []string {
	global, _ := Global(p)
	return expand(global, TargetCflags(t), CflagsVar)
}

// EffectiveLdflags is the full flag list a target is linked with
func EffectiveLdflags(p *project.Project, t *project.Target) []string {
	_, global := Global(p)
	return expand(global, TargetLdflags(t), LdflagsVar)
}

func expand(global, scoped []string, ref string) []string {
	if scoped == nil {
		return global
	}
	var out []string
	for _, f := range scoped {
		if f == ref {
			out = append(out, global...)
			continue
		}
		out = append(out, f)
	}
	return out
}
