// The main package for the seopilot executable.
package main

import (
	"github.com/lumera/seopilot/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
