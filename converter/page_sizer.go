package converter

import (
	"image"
	"math"

	"github.com/nfnt/resize"

	"img2pdf/contracts"
)

// FitWithin returns the largest size with the aspect ratio of w×h that fits
// in box. Sizes already inside the box are returned unchanged.
func FitWithin(w, h int, box contracts.Size) (int, int) {
	if w <= box.Width && h <= box.Height {
		return w, h
	}
	scale := math.Min(float64(box.Width)/float64(w), float64(box.Height)/float64(h))
	nw := clamp(int(math.Round(float64(w)*scale)), 1, box.Width)
	nh := clamp(int(math.Round(float64(h)*scale)), 1, box.Height)
	return nw, nh
}

// ResizeToBox shrinks img with Lanczos resampling so that it fits in box.
func ResizeToBox(img image.Image, box contracts.Size) image.Image {
	b := img.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), box)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return resize.Resize(uint(w), uint(h), img, resize.Lanczos3)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
