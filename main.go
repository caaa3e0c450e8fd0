package main

import "github.com/qobs-build/cppgen/cmd"

func main() {
	cmd.Execute()
}
