// Package main is the entry point for the mrt CLI.
package main

import "mrt.dev/pkg/mrt/cmd"

func main() {
	cmd.Execute()
}
