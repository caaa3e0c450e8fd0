package gen

import (
	"io"

	"github.com/qobs-build/cppgen/project"
)

type Generator interface {
	SetCompiler(cxx, ar string)
	Generate(w io.Writer, p *project.Project) error
	BuildFile() string
	Invoke(buildDir string) error
}
