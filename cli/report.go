package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"img2pdf/contracts"
)

// batchSummary counts outcomes of an individual-mode run.
type batchSummary struct {
	Converted int
	Failed    int
}

func (s batchSummary) Total() int {
	return s.Converted + s.Failed
}

// cause drops the path prefix a ConversionError adds, for lines that
// already name the file.
func cause(err error) error {
	var ce *contracts.ConversionError
	if errors.As(err, &ce) && ce.Err != nil {
		return ce.Err
	}
	return err
}

func reportSingle(w io.Writer, res contracts.ConversionResult) {
	if !res.OK() {
		fmt.Fprintf(w, "✗ Error converting %s: %v\n", res.Inputs[0], cause(res.Err))
		return
	}
	fmt.Fprintf(w, "✓ Converted: %s -> %s\n", filepath.Base(res.Inputs[0]), filepath.Base(res.Output))
}

func reportCombined(w io.Writer, res contracts.ConversionResult) {
	if !res.OK() {
		fmt.Fprintf(w, "✗ Error creating multi-page PDF: %v\n", res.Err)
		return
	}
	fmt.Fprintf(w, "✓ Created multi-page PDF: %s (%d pages)\n", res.Output, res.Pages)
}

func (s *batchSummary) add(res contracts.ConversionResult) {
	if res.OK() {
		s.Converted++
	} else {
		s.Failed++
	}
}

func reportSummary(w io.Writer, s batchSummary) {
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d failed (total: %d)\n", s.Converted, s.Failed, s.Total())
}
