package converter

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"img2pdf/contracts"
	"img2pdf/files_manager"
	"img2pdf/utils"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type Options = contracts.Options
type ConversionResult = contracts.ConversionResult

// Converter turns image files into PDF files. It holds no per-call state;
// every image is decoded, transformed and written before the next one.
type Converter struct {
	opts    Options
	encoder contracts.PageEncoder
	logger  *zap.Logger
}

// New validates opts, filling zero DPI, quality and page box with defaults.
// A nil logger disables diagnostics.
func New(opts Options, logger *zap.Logger) (*Converter, error) {
	if opts.DPI <= 0 {
		opts.DPI = contracts.DefaultDPI
	}
	if opts.Quality == 0 {
		opts.Quality = contracts.DefaultQuality
	}
	if opts.PageBox.Width <= 0 || opts.PageBox.Height <= 0 {
		opts.PageBox = contracts.A4Box
	}
	encoder, err := newEncoder(opts.Engine)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{opts: opts, encoder: encoder, logger: logger}, nil
}

// Run builds a converter from req.Options and executes req. A single input
// becomes a one-page PDF, several are combined in order.
func Run(req contracts.ConversionRequest, logger *zap.Logger) ConversionResult {
	c, err := New(req.Options, logger)
	if err != nil {
		return ConversionResult{Inputs: req.Inputs, Output: req.Output, Err: err}
	}
	if len(req.Inputs) == 1 {
		return c.ConvertImage(req.Inputs[0], req.Output)
	}
	return c.CombineImages(req.Inputs, req.Output)
}

func (c *Converter) Options() Options {
	return c.opts
}

// WithResizeA4 returns a copy of c with A4 resizing switched on or off.
func (c *Converter) WithResizeA4(on bool) *Converter {
	cp := *c
	cp.opts.ResizeA4 = on
	return &cp
}

// ConvertImage writes imagePath as a one-page PDF. An empty pdfPath means
// the image path with a .pdf extension. An existing file is replaced.
func (c *Converter) ConvertImage(imagePath, pdfPath string) ConversionResult {
	if pdfPath == "" {
		pdfPath = files_manager.PDFPathFor(imagePath)
	}
	result := ConversionResult{Inputs: []string{imagePath}, Output: pdfPath}

	src, err := c.decodeImage(imagePath)
	if err != nil {
		result.Err = err
		return result
	}
	page, err := c.preparePage(src, 0)
	if err != nil {
		result.Err = contracts.NewError(contracts.KindEncodeOrWrite, imagePath, err)
		return result
	}
	if err := c.writePages(pdfPath, []Page{page}); err != nil {
		result.Err = err
		return result
	}
	result.Pages = 1
	return result
}

// CombineImages writes imagePaths, in order, as the pages of one PDF.
// Every image is decoded before anything is written, so a bad image leaves
// no output behind.
func (c *Converter) CombineImages(imagePaths []string, pdfPath string) ConversionResult {
	result := ConversionResult{Inputs: imagePaths, Output: pdfPath}
	if len(imagePaths) == 0 {
		result.Err = contracts.NewError(contracts.KindNoMatches, pdfPath, errors.New("no images to combine"))
		return result
	}

	images := make([]decodedImage, 0, len(imagePaths))
	for _, path := range imagePaths {
		src, err := c.decodeImage(path)
		if err != nil {
			result.Err = err
			return result
		}
		images = append(images, src)
	}

	pages := make([]Page, 0, len(images))
	for i, src := range images {
		page, err := c.preparePage(src, i)
		if err != nil {
			result.Err = contracts.NewError(contracts.KindEncodeOrWrite, imagePaths[i], err)
			return result
		}
		pages = append(pages, page)
		images[i] = decodedImage{}
	}

	if err := c.writePages(pdfPath, pages); err != nil {
		result.Err = err
		return result
	}
	result.Pages = len(pages)
	return result
}

// decodedImage is a decoded file together with the mode it normalizes as.
type decodedImage struct {
	img  image.Image
	mode Mode
}

func (c *Converter) decodeImage(path string) (decodedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return decodedImage{}, contracts.NewError(contracts.KindFileNotFound, path, err)
		}
		return decodedImage{}, contracts.NewError(contracts.KindEncodeOrWrite, path, err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return decodedImage{}, contracts.NewError(contracts.KindUnsupportedImage, path, fmt.Errorf("cannot decode image: %w", err))
	}

	mode := ModeOf(img)
	if format == "png" {
		if ct, err := utils.PNGColorType(data); err == nil && ct == utils.PNGGrayAlpha {
			mode = ModeGrayAlpha
		}
	}

	if ce := c.logger.Check(zap.DebugLevel, "decoded image"); ce != nil {
		info, _ := utils.Probe(data)
		ce.Write(
			zap.String("path", path),
			zap.String("format", format),
			zap.Stringer("mode", mode),
			zap.String("color_model", info.ColorModel),
			zap.Int("width", img.Bounds().Dx()),
			zap.Int("height", img.Bounds().Dy()),
			zap.Float64("source_dpi", info.DPI),
		)
	}
	return decodedImage{img: img, mode: mode}, nil
}

func (c *Converter) preparePage(src decodedImage, index int) (Page, error) {
	img := NormalizeAs(src.img, src.mode)
	if c.opts.ResizeA4 {
		img = ResizeToBox(img, c.opts.PageBox)
	}

	var buf bytes.Buffer
	// image/jpeg clamps quality into 1..100
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.opts.Quality}); err != nil {
		return Page{}, fmt.Errorf("jpeg encode: %w", err)
	}

	bounds := img.Bounds()
	return Page{
		ImgBuffer:   buf.Bytes(),
		ImageId:     fmt.Sprintf("img_%d", index),
		PixelWidth:  bounds.Dx(),
		PixelHeight: bounds.Dy(),
		Width:       pixelsToPoints(bounds.Dx(), c.opts.DPI),
		Height:      pixelsToPoints(bounds.Dy(), c.opts.DPI),
		PageIndex:   index,
	}, nil
}

func pixelsToPoints(px int, dpi float64) float64 {
	return float64(px) * 72 / dpi
}

func (c *Converter) writePages(pdfPath string, pages []Page) error {
	start := time.Now()
	err := writeAtomically(pdfPath, func(w io.Writer) error {
		return c.encoder.Encode(w, pages)
	})
	if err != nil {
		return contracts.NewError(contracts.KindEncodeOrWrite, pdfPath, err)
	}
	c.logger.Debug("wrote pdf",
		zap.String("path", pdfPath),
		zap.Int("pages", len(pages)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// writeAtomically writes to path+".tmp" and renames it into place, so a
// failed encode never leaves a truncated file at path.
func writeAtomically(path string, write func(w io.Writer) error) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	info, err := os.Stat(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to get file info: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(tmpPath)
		return fmt.Errorf("file is empty: %s", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
