package builder

import (
	"os"
	"os/exec"
)

// candidates in order of preference when $CXX is not set
var commonCxxCompilers = []string{"clang++", "g++", "c++"}

const (
	defaultCompiler = "c++"
	defaultArchiver = "ar"
)

// findCompiler attempts to find a suitable C++ compiler on the system
func findCompiler() string {
	if cxx := os.Getenv("CXX"); cxx != "" {
		return cxx
	}

	for _, compiler := range commonCxxCompilers {
		path, err := exec.LookPath(compiler)
		if err == nil {
			return path
		}
	}

	return defaultCompiler
}

func findArchiver() string {
	if ar := os.Getenv("AR"); ar != "" {
		return ar
	}
	return defaultArchiver
}
