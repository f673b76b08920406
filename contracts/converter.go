package contracts

import "io"

// PageEncoder writes prepared pages, in order, as one PDF document.
type PageEncoder interface {
	Encode(w io.Writer, pages []Page) error
}

type ConversionRequest struct {
	Inputs  []string
	Output  string
	Options Options
}

type ConversionResult struct {
	Inputs []string
	Output string
	Pages  int
	Err    error
}

func (r ConversionResult) OK() bool {
	return r.Err == nil
}

// Page is one RGB image already JPEG-encoded, with its physical size
// resolved in points.
type Page struct {
	ImgBuffer   []byte
	ImageId     string
	PixelWidth  int
	PixelHeight int
	Width       float64
	Height      float64
	PageIndex   int
}
