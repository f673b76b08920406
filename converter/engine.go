package converter

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"

	"img2pdf/contracts"
	"img2pdf/pdf_writer"
)

const creator = "img2pdf"

type Page = contracts.Page

var errNoPages = errors.New("no pages to write")

func newEncoder(engine contracts.Engine) (contracts.PageEncoder, error) {
	switch engine {
	case contracts.EngineGofpdf, "":
		return gofpdfEngine{}, nil
	case contracts.EngineStream:
		return streamEngine{}, nil
	}
	return nil, fmt.Errorf("unknown PDF engine %q", engine)
}

// gofpdfEngine lays out one JPEG per page with gofpdf, page size equal to
// the image size.
type gofpdfEngine struct{}

func (gofpdfEngine) Encode(w io.Writer, pages []Page) error {
	if len(pages) == 0 {
		return errNoPages
	}
	first := pages[0]
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: first.Width, Ht: first.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator(creator, true)

	for _, page := range pages {
		options := gofpdf.ImageOptions{
			ImageType: "JPG",
			ReadDpi:   false,
		}
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: page.Width, Ht: page.Height})
		pdf.RegisterImageOptionsReader(page.ImageId, options, bytes.NewReader(page.ImgBuffer))
		pdf.ImageOptions(
			page.ImageId,
			0,
			0,
			page.Width,
			page.Height,
			false,
			options,
			0,
			"",
		)
		if pdf.Err() {
			return fmt.Errorf("page %d: %w", page.PageIndex+1, pdf.Error())
		}
	}
	return pdf.Output(w)
}

// streamEngine writes pages with the built-in streaming writer.
type streamEngine struct{}

func (streamEngine) Encode(w io.Writer, pages []Page) error {
	if len(pages) == 0 {
		return errNoPages
	}
	pw, err := pdf_writer.NewPDFWriter(w)
	if err != nil {
		return err
	}
	for i := range pages {
		if err := pw.WriteImage(&pages[i]); err != nil {
			return err
		}
	}
	return pw.Finish()
}
