package pdf_writer

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"img2pdf/contracts"
)

type Page = contracts.Page

var (
	ErrEmptyImage = errors.New("image has no data")
	ErrNoPages    = errors.New("document has no pages")
	ErrFinished   = errors.New("writer already finished")
)

// PDFWriter streams DCT-encoded RGB images into a PDF, one image per page.
// Image objects are written as they arrive; page tree, catalog and xref are
// written by Finish.
type PDFWriter struct {
	objects    []int64
	imageInfos []ImageInfo
	bw         *bufio.Writer
	cw         *countingWriter
	objNum     int
	finished   bool

	pagesObjID   int64
	pageIDs      []int64
	catalogObjID int64
}

type ImageInfo struct {
	id     int64
	width  float64
	height float64
}

type countingWriter struct {
	w      io.Writer
	offset int64
}

func NewPDFWriter(dst io.Writer) (*PDFWriter, error) {
	cw := &countingWriter{
		w: dst,
	}
	pw := &PDFWriter{
		cw: cw,
		bw: bufio.NewWriterSize(cw, 1024*1024),
	}

	if _, err := pw.bw.WriteString("%PDF-1.7\n%\xFF\xFF\xFF\xFF\n"); err != nil {
		return nil, fmt.Errorf("error writing PDF header: %w", err)
	}
	return pw, nil
}

func (cw *countingWriter) Write(p []byte) (n int, err error) {
	n, err = cw.w.Write(p)
	cw.offset += int64(n)
	return n, err
}

func (pw *PDFWriter) getOffset() int64 {
	return pw.cw.offset + int64(pw.bw.Buffered())
}

// reserveObject allocates an object number whose body is written later
// with beginObject.
func (pw *PDFWriter) reserveObject() int64 {
	pw.objNum++
	pw.objects = append(pw.objects, 0)
	return int64(pw.objNum)
}

func (pw *PDFWriter) beginObject(id int64) {
	pw.objects[id-1] = pw.getOffset()
	fmt.Fprintf(pw.bw, "%d 0 obj\n", id)
}

func (pw *PDFWriter) newObject() int64 {
	id := pw.reserveObject()
	pw.beginObject(id)
	return id
}

// WriteImage adds page as the next page of the document.
func (pw *PDFWriter) WriteImage(page *Page) error {
	if pw.finished {
		return ErrFinished
	}
	if len(page.ImgBuffer) == 0 || page.PixelWidth <= 0 || page.PixelHeight <= 0 {
		return fmt.Errorf("page %d: %w", page.PageIndex, ErrEmptyImage)
	}
	width, height := page.Width, page.Height
	if width <= 0 || height <= 0 {
		width, height = float64(page.PixelWidth), float64(page.PixelHeight)
	}
	if err := pw.writeRGBJPEGImage(page.PixelWidth, page.PixelHeight, width, height, page.ImgBuffer); err != nil {
		return fmt.Errorf("error writing RGB JPEG image: %w", err)
	}
	return nil
}

func (pw *PDFWriter) writeRGBJPEGImage(pxWidth, pxHeight int, width, height float64, data []byte) error {
	imgID := pw.newObject()
	pw.imageInfos = append(pw.imageInfos, ImageInfo{
		id:     imgID,
		width:  width,
		height: height,
	})
	pw.bw.WriteString("<<\n/Type /XObject\n/Subtype /Image\n")
	fmt.Fprintf(pw.bw, "/Width %d\n/Height %d\n", pxWidth, pxHeight)
	pw.bw.WriteString("/ColorSpace /DeviceRGB\n/BitsPerComponent 8\n")
	pw.bw.WriteString("/Filter /DCTDecode\n")

	fmt.Fprintf(pw.bw, "/Length %d\n", len(data))
	pw.bw.WriteString(">>\nstream\n")
	pw.bw.Write(data)
	if _, err := pw.bw.WriteString("\nendstream\nendobj\n"); err != nil {
		return err
	}
	return nil
}

func (pw *PDFWriter) writeContent(imgName string, width, height float64) int64 {
	content := fmt.Sprintf(
		"q\n%.2f 0 0 %.2f 0 0 cm\n/%s Do\nQ\n",
		width, height, imgName,
	)
	objID := pw.newObject()
	fmt.Fprintf(pw.bw, "<<\n/Length %d\n>>\n", len(content))
	pw.bw.WriteString("stream\n")
	pw.bw.WriteString(content)
	pw.bw.WriteString("endstream\nendobj\n")
	return objID
}

func (pw *PDFWriter) writePage(imgName string, imgObjID int64, contentID int64, width, height float64) int64 {
	objID := pw.newObject()
	pw.bw.WriteString("<<\n")
	pw.bw.WriteString("/Type /Page\n")
	fmt.Fprintf(pw.bw, "/Parent %d 0 R\n", pw.pagesObjID)
	fmt.Fprintf(pw.bw, "/MediaBox [0 0 %.2f %.2f]\n", width, height)
	fmt.Fprintf(pw.bw, "/Resources << /XObject << /%s %d 0 R >> >>\n", imgName, imgObjID)
	fmt.Fprintf(pw.bw, "/Contents %d 0 R\n", contentID)
	pw.bw.WriteString(">>\nendobj\n")
	return objID
}

func (pw *PDFWriter) createDocumentStructure() error {
	pw.pagesObjID = pw.reserveObject()

	for i, info := range pw.imageInfos {
		imgName := fmt.Sprintf("img_%d", i)
		contentID := pw.writeContent(imgName, info.width, info.height)
		pageID := pw.writePage(imgName, info.id, contentID, info.width, info.height)
		pw.pageIDs = append(pw.pageIDs, pageID)
	}

	pw.beginObject(pw.pagesObjID)
	pw.bw.WriteString("<<\n")
	pw.bw.WriteString("/Type /Pages\n")
	fmt.Fprintf(pw.bw, "/Count %d\n", len(pw.pageIDs))
	pw.bw.WriteString("/Kids [")
	for i, id := range pw.pageIDs {
		if i > 0 {
			pw.bw.WriteString(" ")
		}
		fmt.Fprintf(pw.bw, "%d 0 R", id)
	}
	pw.bw.WriteString("]\n>>\nendobj\n")

	pw.catalogObjID = pw.newObject()
	pw.bw.WriteString("<<\n")
	fmt.Fprintf(pw.bw, "/Type /Catalog\n/Pages %d 0 R\n", pw.pagesObjID)
	pw.bw.WriteString(">>\nendobj\n")

	if err := pw.bw.Flush(); err != nil {
		return fmt.Errorf("error flushing buffer after creating structure: %w", err)
	}

	return nil
}

// PageCount returns the number of images written so far.
func (pw *PDFWriter) PageCount() int {
	return len(pw.imageInfos)
}

func (pw *PDFWriter) Finish() error {
	if pw.finished {
		return ErrFinished
	}
	if len(pw.imageInfos) == 0 {
		return ErrNoPages
	}
	pw.finished = true

	if err := pw.createDocumentStructure(); err != nil {
		return fmt.Errorf("failed to create document structure before finishing: %w", err)
	}

	startXref := pw.cw.offset
	total := len(pw.objects) + 1

	if _, err := fmt.Fprintf(pw.cw, "xref\n0 %d\n", total); err != nil {
		return fmt.Errorf("error writing xref header: %w", err)
	}
	if _, err := fmt.Fprintf(pw.cw, "%010d %05d f \n", 0, 65535); err != nil {
		return fmt.Errorf("error writing free object xref entry: %w", err)
	}
	for _, off := range pw.objects {
		if _, err := fmt.Fprintf(pw.cw, "%010d %05d n \n", off, 0); err != nil {
			return fmt.Errorf("error writing object xref entry: %w", err)
		}
	}

	if _, err := fmt.Fprintf(pw.cw,
		"trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		total, pw.catalogObjID, startXref,
	); err != nil {
		return fmt.Errorf("error writing trailer and startxref: %w", err)
	}

	return nil
}
