// Package layout places rendered symbols on printable pages and builds the
// preview image and PDF document for a batch.
package layout

import (
	"image"
	"math"
	"sort"

	"dmlabels/internal/domain"
	"dmlabels/internal/raster"
)

// Options controls page geometry, annotation and output. Lengths are in mm.
type Options struct {
	PageWidthMM   float64
	PageHeightMM  float64
	MarginMM      float64
	CellPaddingMM float64
	LabelHeightMM float64
	Annotate      bool
	MaxPerPage    int // 0 means as many as the cell grid holds
	Compress      bool
	Title         string
	Preview       PreviewOptions
}

// DefaultOptions lays out A4 portrait with 0.4in margins.
func DefaultOptions() Options {
	return Options{
		PageWidthMM:   210,
		PageHeightMM:  297,
		MarginMM:      10.16,
		CellPaddingMM: 6,
		LabelHeightMM: 4,
		Annotate:      true,
		Compress:      true,
		Title:         "Serial labels",
		Preview:       DefaultPreviewOptions(),
	}
}

// CellGrid is the per-page arrangement of equal cells.
type CellGrid struct {
	Cols, Rows    int
	CellW, CellH  float64
	SymbolAreaMM  float64 // square area reserved for the symbol inside a cell
	OriginX       float64
	OriginY       float64
	PerPage       int
}

// Placement positions one symbol on a page. X and Y are the symbol's
// top-left corner, CellX and CellY those of its cell.
type Placement struct {
	Symbol   *raster.Symbol
	Slot     int
	Row, Col int
	X, Y     float64
	SizeMM   float64
	CellX    float64
	CellY    float64
}

// PrintPage is one page of the output document.
type PrintPage struct {
	Number     int
	Placements []Placement
}

// Document is the composed output of one batch.
type Document struct {
	Pages        []PrintPage
	Grid         CellGrid
	PDF          []byte
	PreviewImage image.Image
	PreviewPNG   []byte
}

// SymbolCount returns the number of placed symbols.
func (d *Document) SymbolCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Placements)
	}
	return n
}

// Compose paginates symbols, then renders the PDF and the preview.
func Compose(symbols []*raster.Symbol, size domain.SizeClass, opts Options) (*Document, error) {
	pages, grid, err := Paginate(symbols, size, opts)
	if err != nil {
		return nil, err
	}
	pdf, err := RenderPDF(pages, grid, opts)
	if err != nil {
		return nil, err
	}
	img, png, err := Preview(orderedSymbols(pages), opts.Preview)
	if err != nil {
		return nil, err
	}
	return &Document{Pages: pages, Grid: grid, PDF: pdf, PreviewImage: img, PreviewPNG: png}, nil
}

// PlanGrid computes the cell grid for symbols whose printed edge is at most
// symbolMM.
func PlanGrid(symbolMM float64, opts Options) (CellGrid, error) {
	cellW := symbolMM + opts.CellPaddingMM
	cellH := cellW
	if opts.Annotate {
		cellH += opts.LabelHeightMM
	}
	usableW := opts.PageWidthMM - 2*opts.MarginMM
	usableH := opts.PageHeightMM - 2*opts.MarginMM
	if cellW <= 0 || usableW <= 0 || usableH <= 0 {
		return CellGrid{}, domain.ErrPageTooSmall
	}
	cols := int(math.Floor(usableW / cellW))
	rows := int(math.Floor(usableH / cellH))
	if cols < 1 || rows < 1 {
		return CellGrid{}, domain.ErrPageTooSmall
	}
	perPage := cols * rows
	if opts.MaxPerPage > 0 && opts.MaxPerPage < perPage {
		perPage = opts.MaxPerPage
	}
	return CellGrid{
		Cols:         cols,
		Rows:         rows,
		CellW:        cellW,
		CellH:        cellH,
		SymbolAreaMM: cellW,
		OriginX:      opts.MarginMM + (usableW-float64(cols)*cellW)/2,
		OriginY:      opts.MarginMM,
		PerPage:      perPage,
	}, nil
}

// Paginate fills pages left to right, top to bottom, in SourceIndex order.
// A page is closed once it holds PerPage symbols.
func Paginate(symbols []*raster.Symbol, size domain.SizeClass, opts Options) ([]PrintPage, CellGrid, error) {
	if len(symbols) == 0 {
		return nil, CellGrid{}, domain.ErrNoContent
	}
	ordered := make([]*raster.Symbol, len(symbols))
	copy(ordered, symbols)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SourceIndex < ordered[j].SourceIndex
	})

	edge := size.EdgeMM()
	for _, s := range ordered {
		if s == nil {
			return nil, CellGrid{}, domain.ErrNoContent
		}
		edge = math.Max(edge, s.PhysicalSizeMM)
	}
	grid, err := PlanGrid(edge, opts)
	if err != nil {
		return nil, CellGrid{}, err
	}

	pages := make([]PrintPage, 0, (len(ordered)+grid.PerPage-1)/grid.PerPage)
	for i, s := range ordered {
		slot := i % grid.PerPage
		if slot == 0 {
			pages = append(pages, PrintPage{Number: len(pages) + 1})
		}
		row, col := slot/grid.Cols, slot%grid.Cols
		cellX := grid.OriginX + float64(col)*grid.CellW
		cellY := grid.OriginY + float64(row)*grid.CellH
		inset := (grid.SymbolAreaMM - s.PhysicalSizeMM) / 2
		p := &pages[len(pages)-1]
		p.Placements = append(p.Placements, Placement{
			Symbol: s,
			Slot:   slot,
			Row:    row,
			Col:    col,
			X:      cellX + inset,
			Y:      cellY + inset,
			SizeMM: s.PhysicalSizeMM,
			CellX:  cellX,
			CellY:  cellY,
		})
	}
	return pages, grid, nil
}

func orderedSymbols(pages []PrintPage) []*raster.Symbol {
	var out []*raster.Symbol
	for _, p := range pages {
		for _, pl := range p.Placements {
			out = append(out, pl.Symbol)
		}
	}
	return out
}
