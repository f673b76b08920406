// Package main is the drag-and-drop converter: every argument becomes a PDF
// next to the image.
package main

import (
	"os"

	"img2pdf/cli"
)

func main() {
	cli.RunSimple(os.Args[1:], os.Stdin, os.Stdout)
}
