package toolflags

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qobs-build/cppgen/project"
)

func TestStandard(t *testing.T) {
	tests := []struct {
		in   project.Standard
		want []string
	}{
		{project.StandardDefault, nil},
		{project.CPP98, []string{"-std=c++98"}},
		{project.CPP03, []string{"-std=c++03"}},
		{project.CPP11, []string{"-std=c++11"}},
		{project.CPP14, []string{"-std=c++14"}},
		{project.CPP17, []string{"-std=c++17"}},
		{project.CPP20, []string{"-std=c++20"}},
		{project.Standard(42), nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Standard(tt.in), tt.in.String())
	}
}

func TestBuildType(t *testing.T) {
	tests := []struct {
		in   project.BuildType
		want []string
	}{
		{project.BuildTypeDefault, nil},
		{project.Debug, []string{"-g", "-O0"}},
		{project.Release, []string{"-O3"}},
		{project.MinSize, []string{"-Os"}},
		{project.BuildType(-1), nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BuildType(tt.in), tt.in.String())
	}
}

func TestFeature(t *testing.T) {
	for _, name := range []string{"exceptions", "rtti"} {
		assert.Empty(t, Feature(project.FlagDefault, name))
		assert.Equal(t, []string{"-f" + name}, Feature(project.On, name))
		assert.Equal(t, []string{"-fno-" + name}, Feature(project.Off, name))
		assert.Empty(t, Feature(project.Flag(7), name))
	}
}

func TestFragments(t *testing.T) {
	assert.Equal(t, "-I$root/include", IncludeDir("include"))
	assert.Equal(t, "-I$builddir/gen", IncludeDir("$builddir/gen"))
	assert.Equal(t, "-I/opt/include", IncludeDir("/opt/include"))
	assert.Equal(t, "-L/usr/lib", LinkDir("/usr/lib"))
	assert.Equal(t, "-Wl,-export_dynamic", LinkFlag("-export_dynamic"))
	assert.Equal(t, "-DNDEBUG", CompileFlag("-DNDEBUG"))
}

func TestGlobal(t *testing.T) {
	p := project.NewProject(project.Toolchain{Compiler: project.Compiler{
		Standard:   project.CPP17,
		BuildType:  project.Release,
		Exceptions: project.Off,
		RTTI:       project.Off,
	}})
	p.IncludeDirectories = []string{"include"}
	p.CompileFlags = []string{"-Wall"}
	p.LinkDirectories = []string{"lib"}
	p.LinkFlags = []string{"--as-needed"}

	cflags, ldflags := Global(&p)
	assert.Equal(t, []string{"-std=c++17", "-O3", "-fno-exceptions", "-fno-rtti", "-I$root/include", "-Wall"}, cflags)
	assert.Equal(t, []string{"-Llib", "-Wl,--as-needed"}, ldflags)

	empty := project.NewProject(project.Toolchain{})
	cflags, ldflags = Global(&empty)
	assert.Empty(t, cflags)
	assert.Empty(t, ldflags)
}

func TestTargetOverrides(t *testing.T) {
	target := project.NewTarget("app", project.Executable, "main.cpp")
	assert.Nil(t, TargetCflags(&target))
	assert.Nil(t, TargetLdflags(&target))

	target.IncludeDirectories = []string{"c"}
	target.CompileFlags = []string{"-DAPP"}
	target.LinkFlags = []string{"-rpath,."}
	assert.Equal(t, []string{"$cflags", "-I$root/c", "-DAPP"}, TargetCflags(&target))
	assert.Equal(t, []string{"$ldflags", "-Wl,-rpath,."}, TargetLdflags(&target))

	shared := project.NewTarget("plugin", project.SharedLibrary, "plugin.cpp")
	assert.Equal(t, []string{"$cflags", "-fPIC"}, TargetCflags(&shared))
	assert.Equal(t, []string{"$ldflags", "-shared"}, TargetLdflags(&shared))
}

func TestEffectiveOrdering(t *testing.T) {
	p := project.NewProject(project.Toolchain{Compiler: project.Compiler{Standard: project.CPP20}})
	p.IncludeDirectories = []string{"a", "b"}
	p.CompileFlags = []string{"-Wall"}

	target := project.NewTarget("app", project.Executable, "main.cpp")
	target.IncludeDirectories = []string{"c"}
	target.CompileFlags = []string{"-Werror"}

	assert.Equal(t,
		[]string{"-std=c++20", "-I$root/a", "-I$root/b", "-Wall", "-I$root/c", "-Werror"},
		EffectiveCflags(&p, &target))

	plain := project.NewTarget("plain", project.Executable)
	assert.Equal(t, []string{"-std=c++20", "-I$root/a", "-I$root/b", "-Wall"}, EffectiveCflags(&p, &plain))
	assert.Empty(t, EffectiveLdflags(&p, &plain))
}
