package builder

import (
	"io"
	"os/exec"
	"path/filepath"
	"plugin"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qobs-build/cppgen/internal/msg"
	"github.com/qobs-build/cppgen/project"
)

// pluginRoot returns the module root, skipping when plugins cannot be built here
func pluginRoot(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("compiles Go plugins")
	}
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd":
	default:
		t.Skipf("plugins are not supported on %s", runtime.GOOS)
	}
	if _, err := exec.LookPath(goTool()); err != nil {
		t.Skip("go toolchain not found")
	}
	out, err := exec.Command(goTool(), "env", "CGO_ENABLED").Output()
	if err != nil || strings.TrimSpace(string(out)) != "1" {
		t.Skip("plugins need cgo")
	}

	root, err := filepath.Abs(filepath.Join("..", ".."))
	require.NoError(t, err)
	return root
}

func testPlugin(t *testing.T, root, name string) *pluginLoader {
	t.Helper()
	quietMessages(t)
	return &pluginLoader{
		root:     root,
		source:   filepath.Join(root, "internal", "builder", "testdata", "plugin", name),
		buildDir: t.TempDir(),
	}
}

func quietMessages(t *testing.T) {
	t.Helper()
	prev := msg.Output
	msg.Output = io.Discard
	t.Cleanup(func() { msg.Output = prev })
}

// skipIncompatible skips when the plugin links different package versions than the
// test binary, as happens under -race or -cover, or was loaded by an earlier -count run
func skipIncompatible(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		return
	}
	if strings.Contains(err.Error(), "different version of package") || strings.Contains(err.Error(), "plugin already loaded") {
		t.Skip(err)
	}
}

func TestPluginLoaderEntry(t *testing.T) {
	root := pluginRoot(t)

	for name, want := range map[string]project.Target{
		"entry.go":    project.NewTarget("hello", project.Executable, "main.cpp"),
		"generate.go": project.NewTarget("util", project.StaticLibrary, "util.cpp"),
	} {
		t.Run(name, func(t *testing.T) {
			l := testPlugin(t, root, name)
			p, err := l.Load(project.Toolchain{Compiler: project.Compiler{BuildType: project.Release}})
			skipIncompatible(t, err)
			require.NoError(t, err)

			assert.Equal(t, project.Release, p.Toolchain.Compiler.BuildType)
			require.Len(t, p.Targets, 1)
			assert.Equal(t, want, p.Targets[0])
			assert.FileExists(t, filepath.Join(l.buildDir, pluginFile))

			plug, err := plugin.Open(filepath.Join(l.buildDir, pluginFile))
			require.NoError(t, err)
			calls, err := plug.Lookup("Calls")
			require.NoError(t, err)
			assert.Equal(t, 1, *calls.(*int))

			sources := l.Sources()
			assert.Contains(t, sources, "project/project.go")
			assert.Contains(t, sources, "project/enums.go")
			assert.Contains(t, sources, "go.mod")
			assert.NotContains(t, sources, "internal/builder/testdata/plugin/"+name)
		})
	}
}

func TestPluginLoaderMissingEntry(t *testing.T) {
	root := pluginRoot(t)

	for _, name := range []string{"missing.go", "wrongtype.go"} {
		t.Run(name, func(t *testing.T) {
			_, err := testPlugin(t, root, name).Load(project.Toolchain{})
			skipIncompatible(t, err)
			assert.ErrorIs(t, err, ErrMissingEntry)
		})
	}
}

func TestPluginCompileFailure(t *testing.T) {
	root := pluginRoot(t)
	dir := writeTree(t, map[string]string{"build.go": "package main\n\nfunc Generate( {\n"})

	l := testPlugin(t, root, "")
	l.source = filepath.Join(dir, "build.go")
	_, err := l.Load(project.Toolchain{})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingEntry)
}

func TestParseDeps(t *testing.T) {
	root := writeTree(t, map[string]string{
		"build.go":        "",
		"buildlib/lib.go": "",
		"buildlib/gen.go": "",
	})
	outside := writeTree(t, map[string]string{"fmt/print.go": ""})

	out := strings.Join([]string{
		root + "\tbuild.go",
		filepath.Join(root, "buildlib") + "\tlib.go",
		filepath.Join(root, "buildlib") + "\tgen.go",
		filepath.Join(outside, "fmt") + "\tprint.go",
		"",
		filepath.Join(root, "buildlib") + "\tlib.go",
	}, "\n")

	deps, err := parseDeps([]byte(out), filepath.Join(root, "build.go"), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"buildlib/lib.go", "buildlib/gen.go"}, deps)
}
