package utils

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// PNGGrayAlpha is the IHDR colour type of luminance+alpha PNGs.
const PNGGrayAlpha = 4

type ImageInfo struct {
	Format     string
	ColorModel string
	Width      int
	Height     int
	// DPI is 0 when the file does not record a resolution.
	DPI float64
}

// Probe reads the header of an encoded image without decoding pixels.
func Probe(data []byte) (ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, err
	}
	info := ImageInfo{
		Format:     format,
		ColorModel: ColorModelName(cfg.ColorModel),
		Width:      cfg.Width,
		Height:     cfg.Height,
	}
	switch format {
	case "png":
		info.DPI, _ = GetDPIfromPNG(data)
	case "jpeg", "tiff", "webp":
		if dpi, _, err := GetEXIFDPI(data); err == nil {
			info.DPI = dpi
		}
	}
	return info, nil
}

func ColorModelName(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "paletted"
	}
	switch m {
	case color.RGBAModel:
		return "rgba"
	case color.RGBA64Model:
		return "rgba64"
	case color.NRGBAModel:
		return "nrgba"
	case color.NRGBA64Model:
		return "nrgba64"
	case color.GrayModel:
		return "gray"
	case color.Gray16Model:
		return "gray16"
	case color.AlphaModel, color.Alpha16Model:
		return "alpha"
	case color.YCbCrModel:
		return "ycbcr"
	case color.NYCbCrAModel:
		return "nycbcra"
	case color.CMYKModel:
		return "cmyk"
	}
	return "other"
}

// GetEXIFDPI returns the X and Y resolution recorded in the EXIF block of
// data, converted to dots per inch.
func GetEXIFDPI(data []byte) (float64, float64, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return 0, 0, fmt.Errorf("EXIF not found: %w", err)
	}

	im := exifcommon.NewIfdMapping()
	ti := exif.NewTagIndex()
	if err := exifcommon.LoadStandardIfds(im); err != nil {
		return 0, 0, err
	}

	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return 0, 0, err
	}

	dpiX, dpiY := 0.0, 0.0

	if tag, err := index.RootIfd.FindTagWithName("XResolution"); err == nil {
		if val, err := tag[0].Value(); err == nil {
			if rats, ok := val.([]exifcommon.Rational); ok && len(rats) > 0 && rats[0].Denominator != 0 {
				dpiX = float64(rats[0].Numerator) / float64(rats[0].Denominator)
			}
		}
	}

	if tag, err := index.RootIfd.FindTagWithName("YResolution"); err == nil {
		if val, err := tag[0].Value(); err == nil {
			if rats, ok := val.([]exifcommon.Rational); ok && len(rats) > 0 && rats[0].Denominator != 0 {
				dpiY = float64(rats[0].Numerator) / float64(rats[0].Denominator)
			}
		}
	}

	if tag, err := index.RootIfd.FindTagWithName("ResolutionUnit"); err == nil {
		if val, err := tag[0].Value(); err == nil {
			if units, ok := val.([]uint16); ok && len(units) > 0 && units[0] == 3 {
				dpiX *= 2.54
				dpiY *= 2.54
			}
		}
	}

	if dpiX == 0 && dpiY == 0 {
		return 0, 0, fmt.Errorf("EXIF has no resolution tags")
	}
	return dpiX, dpiY, nil
}

// PNGColorType returns the colour type recorded in the IHDR chunk. The Go
// decoder returns *image.NRGBA for both RGBA and grey+alpha files, so this
// is the only way to tell them apart.
func PNGColorType(data []byte) (byte, error) {
	// signature, chunk length, "IHDR", width, height, bit depth
	const offset = 8 + 4 + 4 + 8 + 1
	if !bytes.HasPrefix(data, pngSignature) || len(data) <= offset || string(data[12:16]) != "IHDR" {
		return 0, fmt.Errorf("not a PNG stream")
	}
	return data[offset], nil
}

// GetDPIfromPNG reads the pHYs chunk. It returns 0 when the chunk is
// missing or its unit is not metres.
func GetDPIfromPNG(data []byte) (float64, error) {
	const physChunk = "pHYs"
	if !bytes.HasPrefix(data, pngSignature) {
		return 0, fmt.Errorf("not a PNG stream")
	}
	buf := bytes.NewReader(data[len(pngSignature):])

	for {
		var length uint32
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			break
		}

		chunkType := make([]byte, 4)
		if _, err := io.ReadFull(buf, chunkType); err != nil {
			break
		}

		if string(chunkType) == physChunk {
			var pxPerUnitX, pxPerUnitY uint32
			var unit byte

			if err := binary.Read(buf, binary.BigEndian, &pxPerUnitX); err != nil {
				return 0, err
			}
			if err := binary.Read(buf, binary.BigEndian, &pxPerUnitY); err != nil {
				return 0, err
			}
			if err := binary.Read(buf, binary.BigEndian, &unit); err != nil {
				return 0, err
			}

			if unit == 1 {
				return float64(pxPerUnitX) * 0.0254, nil
			}
			break
		}
		if string(chunkType) == "IDAT" {
			// pHYs must precede the image data
			break
		}

		// skip chunk data + CRC
		if _, err := buf.Seek(int64(length)+4, io.SeekCurrent); err != nil {
			break
		}
	}

	return 0, nil
}
