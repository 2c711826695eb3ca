// The main package for the namehound executable.
package main

import (
	"github.com/namehound/namehound/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
