package layout

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"dmlabels/internal/domain"
	"dmlabels/internal/raster"
)

// PreviewOptions shapes the thumbnail sheet shown for multi-symbol batches.
type PreviewOptions struct {
	MaxSymbols int
	ThumbPx    int
	Columns    int
	GapPx      int
}

func DefaultPreviewOptions() PreviewOptions {
	return PreviewOptions{MaxSymbols: 12, ThumbPx: 160, Columns: 4, GapPx: 8}
}

// Preview returns exactly one raster for any non-empty batch. A single
// symbol is returned as rendered; several are tiled in input order, up to
// MaxSymbols, using nearest-neighbour scaling so module edges stay hard.
func Preview(symbols []*raster.Symbol, opts PreviewOptions) (image.Image, []byte, error) {
	switch len(symbols) {
	case 0:
		return nil, nil, domain.ErrNoContent
	case 1:
		return symbols[0].Image, symbols[0].PNG, nil
	}
	if opts.MaxSymbols <= 0 || opts.ThumbPx <= 0 || opts.Columns <= 0 {
		return nil, nil, fmt.Errorf("layout: invalid preview options %+v", opts)
	}

	n := min(len(symbols), opts.MaxSymbols)
	cols := min(n, opts.Columns)
	rows := (n + cols - 1) / cols
	step := opts.ThumbPx + opts.GapPx
	sheet := image.NewGray(image.Rect(0, 0, cols*step+opts.GapPx, rows*step+opts.GapPx))
	xdraw.Draw(sheet, sheet.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)

	for i := 0; i < n; i++ {
		x := opts.GapPx + (i%cols)*step
		y := opts.GapPx + (i/cols)*step
		dst := image.Rect(x, y, x+opts.ThumbPx, y+opts.ThumbPx)
		src := symbols[i].Image
		xdraw.NearestNeighbor.Scale(sheet, dst, src, src.Bounds(), xdraw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, sheet); err != nil {
		return nil, nil, fmt.Errorf("layout: encode preview: %w", err)
	}
	return sheet, buf.Bytes(), nil
}
