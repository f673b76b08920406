package converter

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"img2pdf/contracts"
)

func TestMain(m *testing.M) {
	// keep pdfcpu from creating a config dir under $HOME
	model.ConfigPath = "disable"
	os.Exit(m.Run())
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 128, uint8(x + y)})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// writeGrayAlphaPNG writes an 8-bit colour type 4 PNG from L,A pairs.
func writeGrayAlphaPNG(t *testing.T, path string, w, h int, la []byte) {
	t.Helper()
	chunk := func(out *bytes.Buffer, typ string, body []byte) {
		binary.Write(out, binary.BigEndian, uint32(len(body)))
		typed := append([]byte(typ), body...)
		out.Write(typed)
		binary.Write(out, binary.BigEndian, crc32.ChecksumIEEE(typed))
	}

	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	for y := 0; y < h; y++ {
		zw.Write([]byte{0})
		zw.Write(la[y*w*2 : (y+1)*w*2])
	}
	require.NoError(t, zw.Close())

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(w))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(h))
	ihdr[8], ihdr[9] = 8, 4

	var out bytes.Buffer
	out.WriteString("\x89PNG\r\n\x1a\n")
	chunk(&out, "IHDR", ihdr)
	chunk(&out, "IDAT", idat.Bytes())
	chunk(&out, "IEND", nil)
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0o644))
}

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, color.RGBA{200, 100, 50, 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, nil))
}

func writeGIF(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, w, h), color.Palette{color.Transparent, color.Black})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, gif.Encode(f, img, nil))
}

func pageDims(t *testing.T, pdfPath string) [][2]float64 {
	t.Helper()
	dims, err := api.PageDimsFile(pdfPath)
	require.NoError(t, err)
	out := make([][2]float64, len(dims))
	for i, d := range dims {
		out[i] = [2]float64{d.Width, d.Height}
	}
	return out
}

func newConverter(t *testing.T, opts contracts.Options) *Converter {
	t.Helper()
	c, err := New(opts, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c
}

var engines = []contracts.Engine{contracts.EngineGofpdf, contracts.EngineStream}

func TestNewRejectsUnknownEngine(t *testing.T) {
	opts := contracts.DefaultOptions()
	opts.Engine = "postscript"
	_, err := New(opts, nil)
	assert.Error(t, err)
}

func TestNewFillsDefaults(t *testing.T) {
	c, err := New(contracts.Options{}, nil)
	require.NoError(t, err)
	opts := c.Options()
	assert.Equal(t, contracts.DefaultQuality, opts.Quality)
	assert.Equal(t, contracts.DefaultDPI, opts.DPI)
	assert.Equal(t, contracts.A4Box, opts.PageBox)
}

func TestConvertImage(t *testing.T) {
	for _, engine := range engines {
		t.Run(string(engine), func(t *testing.T) {
			opts := contracts.DefaultOptions()
			opts.Engine = engine
			c := newConverter(t, opts)

			t.Run("default output path", func(t *testing.T) {
				dir := t.TempDir()
				src := filepath.Join(dir, "photo.JPG")
				writeJPEG(t, src, 200, 100)

				res := c.ConvertImage(src, "")
				require.NoError(t, res.Err)
				assert.True(t, res.OK())
				assert.Equal(t, filepath.Join(dir, "photo.pdf"), res.Output)
				assert.Equal(t, 1, res.Pages)

				dims := pageDims(t, res.Output)
				require.Len(t, dims, 1)
				assert.InDelta(t, 144, dims[0][0], 0.01)
				assert.InDelta(t, 72, dims[0][1], 0.01)
				assert.NoFileExists(t, res.Output+".tmp")
			})

			t.Run("explicit output overwrites", func(t *testing.T) {
				dir := t.TempDir()
				src := filepath.Join(dir, "logo.png")
				writePNG(t, src, 50, 80)
				out := filepath.Join(dir, "custom.pdf")
				require.NoError(t, os.WriteFile(out, []byte("stale"), 0o644))

				res := c.ConvertImage(src, out)
				require.NoError(t, res.Err)
				assert.Equal(t, out, res.Output)

				res = c.ConvertImage(src, out)
				require.NoError(t, res.Err)
				dims := pageDims(t, out)
				require.Len(t, dims, 1)
				assert.InDelta(t, 36, dims[0][0], 0.01)
			})

			t.Run("palette gif", func(t *testing.T) {
				dir := t.TempDir()
				src := filepath.Join(dir, "anim.gif")
				writeGIF(t, src, 10, 10)
				res := c.ConvertImage(src, "")
				require.NoError(t, res.Err)
				assert.FileExists(t, filepath.Join(dir, "anim.pdf"))
			})
		})
	}
}

func TestGrayAlphaPNGPastedWithoutMask(t *testing.T) {
	c := newConverter(t, contracts.DefaultOptions())
	path := filepath.Join(t.TempDir(), "la.png")
	// transparent black, then half transparent black
	writeGrayAlphaPNG(t, path, 2, 1, []byte{0, 0, 0, 128})

	src, err := c.decodeImage(path)
	require.NoError(t, err)
	assert.Equal(t, ModeGrayAlpha, src.mode)

	page, err := c.preparePage(src, 0)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(page.ImgBuffer))
	require.NoError(t, err)
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Less(t, r>>8, uint32(16))
	assert.Less(t, g>>8, uint32(16))
	assert.Less(t, b>>8, uint32(16))

	rgba := filepath.Join(t.TempDir(), "rgba.png")
	writePNG(t, rgba, 2, 2)
	src, err = c.decodeImage(rgba)
	require.NoError(t, err)
	assert.Equal(t, ModeRGBA, src.mode)

	for _, engine := range engines {
		res := newConverter(t, contracts.Options{Engine: engine}).ConvertImage(path, filepath.Join(t.TempDir(), "la.pdf"))
		require.True(t, res.OK(), "%v", res.Err)
	}
}

func TestConvertImageFailures(t *testing.T) {
	c := newConverter(t, contracts.DefaultOptions())
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		res := c.ConvertImage(filepath.Join(dir, "nope.png"), "")
		assert.False(t, res.OK())
		assert.Equal(t, contracts.KindFileNotFound, contracts.KindOf(res.Err))
		assert.NoFileExists(t, filepath.Join(dir, "nope.pdf"))
	})

	t.Run("corrupt image", func(t *testing.T) {
		src := filepath.Join(dir, "broken.jpg")
		require.NoError(t, os.WriteFile(src, []byte("not really a jpeg"), 0o644))
		res := c.ConvertImage(src, "")
		assert.Equal(t, contracts.KindUnsupportedImage, contracts.KindOf(res.Err))
		assert.NoFileExists(t, filepath.Join(dir, "broken.pdf"))
	})

	t.Run("unwritable output", func(t *testing.T) {
		src := filepath.Join(dir, "ok.png")
		writePNG(t, src, 4, 4)
		res := c.ConvertImage(src, filepath.Join(dir, "missing-dir", "out.pdf"))
		assert.Equal(t, contracts.KindEncodeOrWrite, contracts.KindOf(res.Err))
	})
}

func TestConvertImageResizeA4(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "wide.png")
	writePNG(t, src, 200, 100)

	opts := contracts.DefaultOptions()
	opts.ResizeA4 = true
	opts.PageBox = contracts.Size{Width: 50, Height: 50}
	c := newConverter(t, opts)

	res := c.ConvertImage(src, "")
	require.NoError(t, res.Err)
	dims := pageDims(t, res.Output)
	require.Len(t, dims, 1)
	// 50x25 px at 100 dpi
	assert.InDelta(t, 36, dims[0][0], 0.01)
	assert.InDelta(t, 18, dims[0][1], 0.01)

	res = c.WithResizeA4(false).ConvertImage(src, filepath.Join(dir, "full.pdf"))
	require.NoError(t, res.Err)
	dims = pageDims(t, res.Output)
	assert.InDelta(t, 144, dims[0][0], 0.01)
	assert.True(t, c.Options().ResizeA4, "WithResizeA4 must not modify the receiver")
}

func TestCombineImages(t *testing.T) {
	for _, engine := range engines {
		t.Run(string(engine), func(t *testing.T) {
			opts := contracts.DefaultOptions()
			opts.Engine = engine
			c := newConverter(t, opts)

			t.Run("pages follow input order", func(t *testing.T) {
				dir := t.TempDir()
				paths := []string{
					filepath.Join(dir, "c.png"),
					filepath.Join(dir, "a.jpg"),
					filepath.Join(dir, "b.gif"),
				}
				writePNG(t, paths[0], 300, 50)
				writeJPEG(t, paths[1], 100, 50)
				writeGIF(t, paths[2], 200, 50)
				out := filepath.Join(dir, "album.pdf")

				res := c.CombineImages(paths, out)
				require.NoError(t, res.Err)
				assert.Equal(t, 3, res.Pages)

				dims := pageDims(t, out)
				require.Len(t, dims, 3)
				assert.InDelta(t, 216, dims[0][0], 0.01)
				assert.InDelta(t, 72, dims[1][0], 0.01)
				assert.InDelta(t, 144, dims[2][0], 0.01)
			})

			t.Run("one bad image aborts", func(t *testing.T) {
				dir := t.TempDir()
				good := filepath.Join(dir, "1.png")
				bad := filepath.Join(dir, "2.png")
				writePNG(t, good, 10, 10)
				require.NoError(t, os.WriteFile(bad, []byte{0x89, 'P', 'N', 'G'}, 0o644))
				out := filepath.Join(dir, "combined.pdf")

				res := c.CombineImages([]string{good, bad, good}, out)
				assert.False(t, res.OK())
				assert.Equal(t, contracts.KindUnsupportedImage, contracts.KindOf(res.Err))
				assert.NoFileExists(t, out)
				assert.NoFileExists(t, out+".tmp")
			})
		})
	}
}

func TestCombineImagesEmpty(t *testing.T) {
	c := newConverter(t, contracts.DefaultOptions())
	out := filepath.Join(t.TempDir(), "empty.pdf")
	res := c.CombineImages(nil, out)
	assert.Equal(t, contracts.KindNoMatches, contracts.KindOf(res.Err))
	assert.NoFileExists(t, out)
}

func TestWriteAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.pdf")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	err := writeAtomically(path, func(w io.Writer) error {
		w.Write([]byte("partial"))
		return errors.New("encoder exploded")
	})
	require.Error(t, err)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "previous", string(data), "failed write must keep the old file")
	assert.NoFileExists(t, path+".tmp")

	err = writeAtomically(path, func(w io.Writer) error { return nil })
	assert.Error(t, err, "empty output is an error")

	require.NoError(t, writeAtomically(path, func(w io.Writer) error {
		_, err := w.Write([]byte("%PDF"))
		return err
	}))
	data, _ = os.ReadFile(path)
	assert.Equal(t, "%PDF", string(data))
}

func TestRunDispatchesOnInputCount(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, 100, 50)
	writePNG(t, b, 50, 100)

	res := Run(contracts.ConversionRequest{Inputs: []string{a}, Options: contracts.DefaultOptions()}, nil)
	require.True(t, res.OK(), "%v", res.Err)
	assert.Equal(t, filepath.Join(dir, "a.pdf"), res.Output)
	assert.Equal(t, 1, res.Pages)

	out := filepath.Join(dir, "both.pdf")
	res = Run(contracts.ConversionRequest{Inputs: []string{a, b}, Output: out, Options: contracts.DefaultOptions()}, nil)
	require.True(t, res.OK(), "%v", res.Err)
	assert.Equal(t, [][2]float64{{72, 36}, {36, 72}}, pageDims(t, out))

	res = Run(contracts.ConversionRequest{Inputs: []string{a}, Options: contracts.Options{Engine: "pdfium"}}, nil)
	assert.Error(t, res.Err)
	assert.Equal(t, []string{a}, res.Inputs)
}
