// The main package for the sitemirror executable.
package main

import (
	"github.com/gomirror/sitemirror/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
