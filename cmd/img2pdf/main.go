// Package main is the entry point for the img2pdf batch converter.
package main

import "img2pdf/cli"

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.Execute()
}
