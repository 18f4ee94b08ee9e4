package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newCLI(nil, os.Stdout).execute(nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
