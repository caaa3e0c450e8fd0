package main

import "github.com/qobs-build/cppgen/project"

var Calls int

var ProjectEntry = project.Entry{Generate: func(tc project.Toolchain) project.Project {
	Calls++
	tc.Compiler.Standard = project.CPP17

	p := project.NewProject(tc)
	p.Targets = append(p.Targets, project.NewTarget("hello", project.Executable, "main.cpp"))
	return p
}}
