package main

import "github.com/qobs-build/cppgen/project"

var Calls int

func Generate(tc project.Toolchain) project.Project {
	Calls++

	p := project.NewProject(tc)
	p.Targets = append(p.Targets, project.NewTarget("util", project.StaticLibrary, "util.cpp"))
	return p
}
