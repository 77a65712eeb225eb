// Package raster turns module grids into print-ready pixel images.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"dmlabels/internal/datamatrix"
	"dmlabels/internal/domain"
)

const mmPerInch = 25.4

// Options fixes the printer geometry.
type Options struct {
	DPI              int
	QuietZone        int // blank modules on every side
	MinDotsPerModule int
	MinModuleMM      float64
}

// DefaultOptions targets a 300 dpi label printer.
func DefaultOptions() Options {
	return Options{DPI: 300, QuietZone: 2, MinDotsPerModule: 2, MinModuleMM: 0.25}
}

// Symbol is one rendered serial. PNG holds the encoded form of Image.
type Symbol struct {
	SourceIndex    int
	Serial         string
	Size           domain.SizeClass
	Modules        int // grid side, quiet zone excluded
	ModulePx       int
	Image          *image.Gray
	PNG            []byte
	PhysicalSizeMM float64
}

// EdgePx returns the side of the raster in pixels.
func (s *Symbol) EdgePx() int {
	return s.Image.Bounds().Dx()
}

// Geometry returns the module block size in pixels and the printed module
// size in millimetres for a grid of the given side.
func Geometry(modules int, size domain.SizeClass, opts Options) (blockPx int, moduleMM float64) {
	targetPx := int(math.Round(size.EdgeMM() / mmPerInch * float64(opts.DPI)))
	blockPx = targetPx / (modules + 2*opts.QuietZone)
	if blockPx < opts.MinDotsPerModule {
		blockPx = opts.MinDotsPerModule
	}
	return blockPx, float64(blockPx) / float64(opts.DPI) * mmPerInch
}

// Render draws g for rec at the physical size of size. Every module becomes
// a uniform block of pixels; no interpolation is applied.
func Render(rec domain.SerialRecord, g *datamatrix.Grid, size domain.SizeClass, opts Options) (*Symbol, error) {
	if !size.Valid() {
		return nil, &domain.UnsupportedSizeError{Size: string(size)}
	}
	if opts.DPI <= 0 {
		return nil, fmt.Errorf("raster: dpi must be positive, got %d", opts.DPI)
	}
	block, moduleMM := Geometry(g.Size, size, opts)
	if moduleMM < opts.MinModuleMM {
		return nil, &domain.SymbolTooSmallError{
			Index:    rec.Index,
			Line:     rec.LineNumber(),
			Serial:   rec.Text,
			Size:     size,
			ModuleMM: moduleMM,
			MinMM:    opts.MinModuleMM,
		}
	}

	img := draw(g, block, opts.QuietZone)
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("raster: encode png: %w", err)
	}

	edge := img.Bounds().Dx()
	return &Symbol{
		SourceIndex:    rec.Index,
		Serial:         rec.Text,
		Size:           size,
		Modules:        g.Size,
		ModulePx:       block,
		Image:          img,
		PNG:            buf.Bytes(),
		PhysicalSizeMM: float64(edge) / float64(opts.DPI) * mmPerInch,
	}, nil
}

func draw(g *datamatrix.Grid, block, quiet int) *image.Gray {
	edge := (g.Size + 2*quiet) * block
	img := image.NewGray(image.Rect(0, 0, edge, edge))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	for r := 0; r < g.Size; r++ {
		y0 := (r + quiet) * block
		for c := 0; c < g.Size; c++ {
			if !g.Dark(r, c) {
				continue
			}
			x0 := (c + quiet) * block
			for y := y0; y < y0+block; y++ {
				row := img.Pix[y*img.Stride+x0 : y*img.Stride+x0+block]
				for i := range row {
					row[i] = 0
				}
			}
		}
	}
	return img
}
