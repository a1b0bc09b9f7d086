// Command armlitian compiles one source file to a target assembly
// listing on stdout. No flags: a single positional path, nothing else.
package main

import (
	"fmt"
	"os"

	"github.com/AshKmo/armlitian/internal/compiler"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: armlitian <source-file>")
		os.Exit(1)
	}

	src, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "armlitian: %v\n", err)
		os.Exit(1)
	}

	c := &compiler.Compiler{Verbose: os.Getenv("ARMLITIAN_VERBOSE") != ""}
	listing, err := c.Compile(string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "armlitian: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(listing)
}
