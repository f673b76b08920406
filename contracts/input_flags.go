package contracts

type Engine string

const (
	EngineGofpdf Engine = "gofpdf"
	EngineStream Engine = "stream"
)

const (
	DefaultQuality = 95
	DefaultDPI     = 100.0
)

// A4 at 300 DPI.
var A4Box = Size{Width: 2480, Height: 3508}

type Size struct {
	Width  int
	Height int
}

type Options struct {
	ResizeA4 bool
	Quality  int
	DPI      float64
	PageBox  Size
	Engine   Engine
}

// DefaultOptions returns quality 95, 100 DPI page metadata, the A4 box
// and the gofpdf engine, with A4 resizing off.
func DefaultOptions() Options {
	return Options{
		Quality: DefaultQuality,
		DPI:     DefaultDPI,
		PageBox: A4Box,
		Engine:  EngineGofpdf,
	}
}

func ParseEngine(s string) (Engine, bool) {
	switch Engine(s) {
	case EngineGofpdf, "":
		return EngineGofpdf, true
	case EngineStream:
		return EngineStream, true
	}
	return "", false
}
