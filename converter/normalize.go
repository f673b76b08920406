package converter

import (
	"image"
	"image/color"
	"image/draw"
)

// Mode is the colour layout of a decoded image as far as PDF embedding is
// concerned.
type Mode int

const (
	ModeRGB Mode = iota
	ModeRGBA
	ModePalette
	ModeGrayAlpha
	ModeOther
)

func (m Mode) String() string {
	switch m {
	case ModeRGB:
		return "RGB"
	case ModeRGBA:
		return "RGBA"
	case ModePalette:
		return "P"
	case ModeGrayAlpha:
		return "LA"
	}
	return "other"
}

type opaquer interface {
	Opaque() bool
}

// ModeOf classifies img by its in-memory type. Grey+alpha PNGs decode to
// *image.NRGBA and report ModeRGBA here; callers that know the file's
// colour type pass ModeGrayAlpha to NormalizeAs.
func ModeOf(img image.Image) Mode {
	switch m := img.(type) {
	case *image.YCbCr:
		return ModeRGB
	case *image.RGBA:
		if m.Opaque() {
			return ModeRGB
		}
		return ModeRGBA
	case *image.Paletted:
		return ModePalette
	case *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.NYCbCrA, *image.Alpha, *image.Alpha16:
		return ModeRGBA
	case *image.Gray, *image.Gray16, *image.CMYK:
		return ModeOther
	}
	if o, ok := img.(opaquer); ok && o.Opaque() {
		return ModeOther
	}
	return ModeRGBA
}

// Normalize returns an RGB image with the same dimensions as img.
// Transparent areas are flattened onto white. RGB input is returned as is.
func Normalize(img image.Image) image.Image {
	return NormalizeAs(img, ModeOf(img))
}

// NormalizeAs is Normalize with the mode supplied by the caller. Grey+alpha
// images keep their channel data and lose the alpha, with no compositing.
func NormalizeAs(img image.Image, mode Mode) image.Image {
	switch mode {
	case ModeRGB:
		return img
	case ModeGrayAlpha:
		return dropAlpha(img)
	case ModePalette:
		return flattenOnWhite(toRGBA(img))
	case ModeRGBA:
		return flattenOnWhite(img)
	default:
		return toRGBA(img)
	}
}

func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func flattenOnWhite(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

func dropAlpha(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	at := func(x, y int) color.NRGBA {
		return color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
	}
	switch s := src.(type) {
	case *image.NRGBA:
		at = s.NRGBAAt
	case *image.NRGBA64:
		at = func(x, y int) color.NRGBA {
			c := s.NRGBA64At(x, y)
			return color.NRGBA{uint8(c.R >> 8), uint8(c.G >> 8), uint8(c.B >> 8), uint8(c.A >> 8)}
		}
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := at(x, y)
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{c.R, c.G, c.B, 0xff})
		}
	}
	return dst
}
