package cli

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"

	"img2pdf/contracts"
	"img2pdf/converter"
)

// SimpleQuality is the JPEG codec default, used by the drag-and-drop tool.
const SimpleQuality = 75

// RunSimple converts every argument to an adjacent PDF. With no arguments
// it prints usage and waits for Enter, so a double-clicked binary does not
// vanish before the text can be read.
func RunSimple(args []string, in io.Reader, out io.Writer) {
	if len(args) == 0 {
		fmt.Fprintln(out, "Drag and drop image files onto this program to convert them to PDF.")
		fmt.Fprintln(out, "Or run from terminal: img2pdf-simple image1.jpg [image2.png ...]")
		fmt.Fprint(out, "Press Enter to exit...")
		readLine(bufio.NewReader(in))
		return
	}

	opts := contracts.DefaultOptions()
	opts.Quality = SimpleQuality

	for _, path := range args {
		if !fileExists(path) {
			fmt.Fprintf(out, "File not found: %s\n", path)
			continue
		}
		res := converter.Run(contracts.ConversionRequest{Inputs: []string{path}, Options: opts}, nil)
		if !res.OK() {
			fmt.Fprintf(out, "Error converting %s: %v\n", path, cause(res.Err))
			continue
		}
		fmt.Fprintf(out, "Converted: %s -> %s\n", filepath.Base(path), filepath.Base(res.Output))
	}
}
