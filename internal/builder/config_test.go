package builder

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/qobs-build/cppgen/project"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionalSections(t *testing.T) {
	env := NewConfigEnv(t.TempDir())
	desc, err := ParseConfig(strings.NewReader(`[compiler]
standard = "c++11"

[compiler.'target_os == "`+runtime.GOOS+`"']
standard = "c++20"

[compiler.'target_os == "plan9-never"']
build-type = "release"

[project]
compile-flags = ["-Wall"]

[project.'true']
compile-flags = ["-Wextra"]

[project.'1 == 1']
compile-flags = ["-Werror"]
`), env)
	require.NoError(t, err)

	require.NotNil(t, desc.Compiler)
	assert.Equal(t, "c++20", desc.Compiler.Standard)
	assert.Empty(t, desc.Compiler.BuildType)

	// conditional sections apply in sorted key order
	require.NotNil(t, desc.Project)
	assert.Equal(t, []string{"-Wall", "-Werror", "-Wextra"}, desc.Project.CompileFlags)
}

func TestConditionalTarget(t *testing.T) {
	env := NewConfigEnv(t.TempDir())
	desc, err := ParseConfig(strings.NewReader(`[[target]]
name = "app"
inputs = ["main.cpp"]

[target.'target_arch == "`+runtime.GOARCH+`"']
inputs = ["arch.cpp"]
link-flags = ["--as-needed"]
`), env)
	require.NoError(t, err)

	require.Len(t, desc.Targets, 1)
	assert.Equal(t, []string{"main.cpp", "arch.cpp"}, desc.Targets[0].Inputs)
	assert.Equal(t, []string{"--as-needed"}, desc.Targets[0].LinkFlags)
}

func TestParseConfigErrors(t *testing.T) {
	for name, src := range map[string]string{
		"unknown section": "[package]\nname = \"x\"\n",
		"unknown key":     "[compiler]\noptimize = true\n",
		"bad toml":        "[compiler\n",
		"bad expression":  "[project]\ncompile-flags = [\"{{ nope( }}\"]\n",
		"target table":    "target = 1\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig(strings.NewReader(src), NewConfigEnv(t.TempDir()))
			assert.Error(t, err)
		})
	}
}

func TestEvaluateString(t *testing.T) {
	env := NewConfigEnv(t.TempDir())
	env.Environ = map[string]string{"CC_VERSION": "14"}

	out, err := evaluateString("gcc-{{ environ.CC_VERSION }}-{{ target_os }}", env)
	require.NoError(t, err)
	assert.Equal(t, "gcc-14-"+runtime.GOOS, out)

	out, err = evaluateString("{{ builddir }}/gen.cpp", env)
	require.NoError(t, err)
	assert.Equal(t, "$builddir/gen.cpp", out)

	out, err = evaluateString("plain", env)
	require.NoError(t, err)
	assert.Equal(t, "plain", out)
}

func TestMergeStructs(t *testing.T) {
	dst := TargetSection{Name: "a", Inputs: []string{"a.cpp"}}
	src := TargetSection{Type: "static", Inputs: []string{"b.cpp"}, Install: true}
	require.NoError(t, mergeStructs(&dst, src))

	assert.Equal(t, "a", dst.Name)
	assert.Equal(t, "static", dst.Type)
	assert.Equal(t, []string{"a.cpp", "b.cpp"}, dst.Inputs)
	assert.True(t, dst.Install)

	assert.Error(t, mergeStructs(dst, src))
	assert.Error(t, mergeStructs(&dst, CompilerSection{}))
	assert.Error(t, mergeStructs(&dst, 1))
}

func TestReadFileOutsideRoot(t *testing.T) {
	env := NewConfigEnv(t.TempDir())
	_, err := env.ReadFile("../secret")
	assert.Error(t, err)
	assert.Empty(t, env.Sources())
}

func TestReadFileRecordsSources(t *testing.T) {
	dir := writeTree(t, map[string]string{"b.txt": "b\r\n", "a/x.txt": "x"})
	env := NewConfigEnv(dir)

	got, err := env.ReadFile("b.txt")
	require.NoError(t, err)
	assert.Equal(t, "b", got)
	_, err = env.ReadFile("a/x.txt")
	require.NoError(t, err)
	_, err = env.ReadFile("b.txt")
	require.NoError(t, err)

	assert.Equal(t, []string{"a/x.txt", "b.txt"}, env.Sources())
}

func TestPatch(t *testing.T) {
	dir := writeTree(t, map[string]string{"src/config.h": "#define FEATURE 0\n"})
	env := NewConfigEnv(dir)

	dmp := diffmatchpatch.New()
	patch := dmp.PatchToText(dmp.PatchMake("#define FEATURE 0\n", "#define FEATURE 1\n"))

	applied, err := env.Patch("src/config.h", patch)
	require.NoError(t, err)
	assert.True(t, applied)

	data, err := os.ReadFile(filepath.Join(dir, "src", "config.h"))
	require.NoError(t, err)
	assert.Equal(t, "#define FEATURE 1\n", string(data))

	_, err = env.Patch("../config.h", patch)
	assert.Error(t, err)
}

func TestParseYAMLConfigEmpty(t *testing.T) {
	desc, err := ParseYAMLConfig(nil, NewConfigEnv(t.TempDir()))
	require.NoError(t, err)
	assert.Nil(t, desc.Compiler)
	assert.Empty(t, desc.Targets)
}

func TestParseHCLConfigErrors(t *testing.T) {
	env := NewConfigEnv(t.TempDir())
	_, err := ParseHCLConfig([]byte(`target "a" {`), "project.hcl", env)
	assert.Error(t, err)

	_, err = ParseHCLConfig([]byte(`package { name = "x" }`), "project.hcl", env)
	assert.Error(t, err)

	_, err = ParseHCLConfig([]byte(`project { compile_flags = [file("../x")] }`), "project.hcl", env)
	assert.Error(t, err)
}

func TestHCLEnvironment(t *testing.T) {
	env := NewConfigEnv(t.TempDir())
	env.Environ = map[string]string{"OPT": "-O2"}

	desc, err := ParseHCLConfig([]byte(`project {
  compile_flags = [env.OPT, upper(target_os), join("/", [prefix, "include"])]
}
`), "project.hcl", env)
	require.NoError(t, err)
	assert.Equal(t, []string{"-O2", strings.ToUpper(runtime.GOOS), "$prefix/include"}, desc.Project.CompileFlags)
}

func TestNumericStandard(t *testing.T) {
	env := NewConfigEnv(t.TempDir())

	desc, err := ParseYAMLConfig([]byte("compiler:\n  standard: 17\n"), env)
	require.NoError(t, err)
	assert.Equal(t, "17", desc.Compiler.Standard)

	desc, err = ParseConfig(strings.NewReader(`[compiler]
standard = 11

[compiler.'true']
standard = 20
`), env)
	require.NoError(t, err)
	assert.Equal(t, "20", desc.Compiler.Standard)

	p, err := desc.Evaluate(project.Toolchain{}, env)
	require.NoError(t, err)
	assert.Equal(t, project.CPP20, p.Toolchain.Compiler.Standard)
}
